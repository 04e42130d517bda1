// SPDX-License-Identifier: EPL-2.0

package engine

import "context"

// TrackRecord is a track as the persistence layer stores it.
type TrackRecord struct {
	ID          string
	ProjectID   string
	TrackNumber int
	Title       string
	AudioURL    string
	Volume      float64
	Pan         float64
	Muted       bool
	// Duration is the persisted length in seconds, 0 when unknown.
	Duration float64
}

// TrackUpdate carries the fields to change, nil means unchanged.
type TrackUpdate struct {
	Title    *string
	AudioURL *string
	Volume   *float64
	Pan      *float64
	Muted    *bool
	Duration *float64
}

// Empty reports whether the update changes nothing.
func (u TrackUpdate) Empty() bool {
	return u.Title == nil && u.AudioURL == nil && u.Volume == nil &&
		u.Pan == nil && u.Muted == nil && u.Duration == nil
}

// TrackStore persists track records for a project.
type TrackStore interface {
	ListTracks(ctx context.Context, projectID string) ([]TrackRecord, error)
	InsertTrack(ctx context.Context, rec TrackRecord) (TrackRecord, error)
	UpdateTrack(ctx context.Context, id string, update TrackUpdate) error
	DeleteTrack(ctx context.Context, id string) error
}

// Uploader stores an object and returns the URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
