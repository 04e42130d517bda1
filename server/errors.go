// SPDX-License-Identifier: EPL-2.0

package server

import (
	"errors"
	"net/http"

	"github.com/ik5/multitrack/engine"
	"github.com/ik5/multitrack/waveform"
)

var (
	ErrBadJSON    = errors.New("malformed request body")
	ErrBadBuckets = errors.New("buckets must be a positive integer")
)

// statusFor maps an engine error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrTrackNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrTrackNotLoaded),
		errors.Is(err, engine.ErrNoLoadedTracks):
		return http.StatusConflict
	case errors.Is(err, ErrBadJSON),
		errors.Is(err, ErrBadBuckets),
		errors.Is(err, waveform.ErrInvalidBuckets):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrSessionClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
