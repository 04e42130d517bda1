// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ik5/multitrack/audio"
	"github.com/ik5/multitrack/capture"
	"github.com/ik5/multitrack/loader"
	"github.com/ik5/multitrack/mixdown"
	"github.com/ik5/multitrack/waveform"
)

// DefaultLoadConcurrency bounds parallel track loads.
const DefaultLoadConcurrency = 4

// TrackLoader loads one track. *loader.Loader implements it.
type TrackLoader interface {
	Load(ctx context.Context, req loader.Request) (*loader.Result, error)
	SampleRate() int
}

// Session owns the tracks of one open project, their players and the
// transport. Create one per workspace and Close it when done.
type Session struct {
	id        uuid.UUID
	loader    TrackLoader
	store     TrackStore
	uploader  Uploader
	log       *zap.Logger
	newPlayer func(*audio.Buffer) Player
	interval  time.Duration
	parallel  int

	ens       *ensemble
	transport *Transport
	renderer  *mixdown.Renderer

	ctx    context.Context
	cancel context.CancelFunc
	loads  sync.WaitGroup

	mu        sync.Mutex
	projectID string
	closed    bool
}

type SessionOption func(*Session)

func WithLogger(log *zap.Logger) SessionOption {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

func WithStore(store TrackStore) SessionOption {
	return func(s *Session) {
		s.store = store
	}
}

func WithUploader(u Uploader) SessionOption {
	return func(s *Session) {
		s.uploader = u
	}
}

// WithPollInterval sets how often the transport reads the reference track.
func WithPollInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLoadConcurrency(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.parallel = n
		}
	}
}

// WithPlayerFactory replaces the BufferPlayer used for loaded tracks.
func WithPlayerFactory(f func(*audio.Buffer) Player) SessionOption {
	return func(s *Session) {
		if f != nil {
			s.newPlayer = f
		}
	}
}

func WithProjectID(id string) SessionOption {
	return func(s *Session) {
		s.projectID = id
	}
}

func NewSession(ldr TrackLoader, opts ...SessionOption) *Session {
	s := &Session{
		id:       uuid.New(),
		loader:   ldr,
		log:      zap.NewNop(),
		interval: DefaultPollInterval,
		parallel: DefaultLoadConcurrency,
		ens:      &ensemble{},
		newPlayer: func(buf *audio.Buffer) Player {
			return NewBufferPlayer(buf)
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.log = s.log.With(zap.String("session", s.id.String()))
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.transport = newTransport(s.ens, s.interval, s.log)
	s.renderer = mixdown.NewRenderer(ldr,
		mixdown.WithSampleRate(ldr.SampleRate()),
		mixdown.WithLogger(s.log))

	return s
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) ProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID
}

func (s *Session) Transport() *Transport { return s.transport }

// Tracks returns the tracks in track order.
func (s *Session) Tracks() []*TrackNode { return s.ens.Nodes() }

func (s *Session) Track(id string) (*TrackNode, bool) {
	n := s.ens.find(id)
	return n, n != nil
}

// Open lists a project's tracks from the store and loads them.
func (s *Session) Open(ctx context.Context, projectID string) error {
	if s.store == nil {
		return ErrNoStore
	}

	recs, err := s.store.ListTracks(ctx, projectID)
	if err != nil {
		return fmt.Errorf("listing tracks of project %s: %w", projectID, err)
	}

	s.mu.Lock()
	s.projectID = projectID
	s.mu.Unlock()

	return s.LoadTracks(ctx, recs)
}

// LoadTracks replaces the session's tracks and loads them concurrently. A
// track that fails to load is marked StatusError and the rest carry on, so
// the error returned is only about the session or ctx.
func (s *Session) LoadTracks(ctx context.Context, records []TrackRecord) error {
	if s.isClosed() {
		return ErrSessionClosed
	}

	s.transport.Stop()
	for _, n := range s.ens.Nodes() {
		n.Unbind()
	}

	nodes := make([]*TrackNode, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		n := newTrackNode(rec, s.ens)
		n.setLoading()
		nodes = append(nodes, n)
	}
	s.ens.replace(nodes)

	sem := make(chan struct{}, s.parallel)
	var wg sync.WaitGroup
	for _, n := range s.ens.Nodes() {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			s.load(ctx, n)
		}()
	}
	wg.Wait()

	s.log.Info("tracks loaded", zap.Int("tracks", len(nodes)), zap.Int("failed", s.failed()))
	return ctx.Err()
}

// AddTrack stores a new track, loads it and brings it in line with the
// transport.
func (s *Session) AddTrack(ctx context.Context, rec TrackRecord) (*TrackNode, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}

	if rec.ProjectID == "" {
		rec.ProjectID = s.ProjectID()
	}
	if s.store != nil {
		stored, err := s.store.InsertTrack(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("inserting track: %w", err)
		}
		rec = stored
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	n := newTrackNode(rec, s.ens)
	s.ens.add(n)

	if rec.AudioURL != "" {
		s.load(ctx, n)
	}
	return n, nil
}

// RemoveTrack unbinds a track and deletes it from the store.
func (s *Session) RemoveTrack(ctx context.Context, id string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}

	n, ok := s.Track(id)
	if !ok {
		return ErrTrackNotFound
	}
	n.Unbind()
	s.ens.remove(n)

	if s.store != nil {
		if err := s.store.DeleteTrack(ctx, id); err != nil {
			return fmt.Errorf("deleting track %s: %w", id, err)
		}
	}
	return nil
}

// ReloadTrack decodes a track again, for example after its audio changed.
func (s *Session) ReloadTrack(ctx context.Context, id string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}

	n, ok := s.Track(id)
	if !ok {
		return ErrTrackNotFound
	}
	s.load(ctx, n)
	return n.Err()
}

// SaveTrack writes a track's title and mix settings to the store.
func (s *Session) SaveTrack(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrNoStore
	}

	n, ok := s.Track(id)
	if !ok {
		return ErrTrackNotFound
	}

	rec := n.Record()
	err := s.store.UpdateTrack(ctx, id, TrackUpdate{
		Title:  &rec.Title,
		Volume: &rec.Volume,
		Pan:    &rec.Pan,
		Muted:  &rec.Muted,
	})
	if err != nil {
		return fmt.Errorf("saving track %s: %w", id, err)
	}
	return nil
}

// SetTitle renames a track.
func (s *Session) SetTitle(id, title string) error {
	n, ok := s.Track(id)
	if !ok {
		return ErrTrackNotFound
	}

	n.mu.Lock()
	n.record.Title = title
	n.mu.Unlock()
	return nil
}

// Waveform extracts the envelope of a loaded track.
func (s *Session) Waveform(id string, buckets int) ([]float32, error) {
	n, ok := s.Track(id)
	if !ok {
		return nil, ErrTrackNotFound
	}

	buf := n.Buffer()
	if buf == nil {
		return nil, ErrTrackNotLoaded
	}
	return waveform.Extract(buf, buckets)
}

// MixdownInputs describes every track for the renderer. Tracks silenced by
// mute or by another track's solo are marked muted. Tracks that failed to
// load are left out.
func (s *Session) MixdownInputs() []mixdown.Input {
	var inputs []mixdown.Input
	for _, n := range s.ens.Nodes() {
		if n.Status() == StatusError {
			continue
		}

		rec := n.Record()
		inputs = append(inputs, mixdown.Input{
			ID:       rec.ID,
			URL:      rec.AudioURL,
			Volume:   rec.Volume,
			Pan:      rec.Pan,
			Muted:    n.Silent(),
			Buffer:   n.Buffer(),
			Duration: rec.Duration,
		})
	}
	return inputs
}

// Mixdown renders the session to a stereo WAVE file.
func (s *Session) Mixdown(ctx context.Context) ([]byte, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	return s.renderer.RenderWAV(ctx, s.MixdownInputs())
}

// ExportMixdown renders the session and uploads the result, returning its
// URL.
func (s *Session) ExportMixdown(ctx context.Context) (string, error) {
	if s.uploader == nil {
		return "", ErrNoUploader
	}

	data, err := s.Mixdown(ctx)
	if err != nil {
		return "", err
	}

	url, err := s.uploader.Upload(ctx, MixdownKey(s.ProjectID(), uuid.New()), data, capture.MIMEWAV)
	if err != nil {
		return "", fmt.Errorf("uploading mixdown: %w", err)
	}

	s.log.Info("mixdown exported", zap.String("url", url), zap.Int("bytes", len(data)))
	return url, nil
}

// AttachRecording uploads a take, points the track at it, stores the new
// url and duration, and reloads the track.
func (s *Session) AttachRecording(ctx context.Context, trackID string, rec *capture.Take) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if rec == nil || len(rec.Data) == 0 {
		return ErrEmptyRecording
	}
	if s.uploader == nil {
		return ErrNoUploader
	}

	n, ok := s.Track(trackID)
	if !ok {
		return ErrTrackNotFound
	}

	key := RecordingKey(s.ProjectID(), trackID, rec.ID, rec.MIMEType)
	url, err := s.uploader.Upload(ctx, key, rec.Data, rec.MIMEType)
	if err != nil {
		return fmt.Errorf("uploading recording: %w", err)
	}

	seconds := rec.Duration.Seconds()
	if s.store != nil {
		err := s.store.UpdateTrack(ctx, trackID, TrackUpdate{AudioURL: &url, Duration: &seconds})
		if err != nil {
			return fmt.Errorf("updating track %s: %w", trackID, err)
		}
	}

	updated := n.Record()
	updated.AudioURL = url
	updated.Duration = seconds
	n.setRecord(updated)

	s.log.Info("recording attached",
		zap.String("track", trackID),
		zap.String("url", url),
		zap.Float64("duration", seconds))

	s.load(ctx, n)
	return n.Err()
}

// Close cancels in-flight loads, stops the transport and unbinds every
// player. Later calls return ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.transport.Close()
	s.loads.Wait()

	for _, n := range s.ens.Nodes() {
		n.Unbind()
	}
	s.log.Debug("session closed")
	return nil
}

// load decodes one track, binds a fresh player and catches it up with the
// transport. Failures stay on the node.
func (s *Session) load(ctx context.Context, n *TrackNode) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.loads.Add(1)
	s.mu.Unlock()
	defer s.loads.Done()

	ctx, cancel := mergeCancel(ctx, s.ctx)
	defer cancel()

	rec := n.Record()
	n.setLoading()

	res, err := s.loader.Load(ctx, loader.Request{URL: rec.AudioURL, PersistedDuration: rec.Duration})
	if err != nil {
		n.setFailed(err)
		n.Unbind()
		s.log.Warn("track failed to load",
			zap.String("track", rec.ID),
			zap.String("url", rec.AudioURL),
			zap.Error(err))
		return
	}
	if s.isClosed() {
		return
	}

	n.setLoaded(res)
	n.Unbind()
	if err := n.Bind(s.newPlayer(res.Buffer)); err != nil {
		// Another load of the same node won the race.
		s.log.Debug("track already bound", zap.String("track", rec.ID))
		return
	}
	s.transport.attach(n)

	s.log.Debug("track loaded",
		zap.String("track", rec.ID),
		zap.String("format", res.Format),
		zap.Float64("duration", res.Duration.Seconds),
		zap.Stringer("duration_source", res.Duration.Source))
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) failed() int {
	var count int
	for _, n := range s.ens.Nodes() {
		if n.Status() == StatusError {
			count++
		}
	}
	return count
}

// mergeCancel returns a context cancelled when either parent is.
func mergeCancel(ctx, session context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(session, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}

var _ TrackLoader = (*loader.Loader)(nil)
