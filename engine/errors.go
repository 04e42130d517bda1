// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	// ErrAlreadyBound is a programming error: unbind before binding again.
	ErrAlreadyBound   = errors.New("track node already has a bound player")
	ErrNoLoadedTracks = errors.New("no loaded tracks to play")
	ErrSessionClosed  = errors.New("audio session is closed")
	ErrTrackNotFound  = errors.New("track not found")
	ErrTrackNotLoaded = errors.New("track is not loaded")
	ErrNoStore        = errors.New("session has no track store")
	ErrNoUploader     = errors.New("session has no uploader")
	ErrEmptyRecording = errors.New("recording has no audio")
)
