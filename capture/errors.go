// SPDX-License-Identifier: EPL-2.0

package capture

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInsecureContext    = errors.New("capture requires a secure context")
	ErrCaptureUnavailable = errors.New("no capture device available")
	ErrPermissionDenied   = errors.New("capture permission denied")
	ErrDeviceBusy         = errors.New("capture device is busy")
	ErrQueryUnsupported   = errors.New("permission query not supported")
	ErrRecorderBusy       = errors.New("recorder already started")
	ErrNotRecording       = errors.New("recorder is not recording")
	ErrNotPaused          = errors.New("recorder is not paused")
	ErrStartAborted       = errors.New("recording stopped before the device opened")
)

// ConfigurationError means capture cannot work in this environment.
// Retrying will not help.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("capture configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// PermissionError means access to the device was refused or the device is
// held by someone else.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("capture permission: %v", e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// TimeoutError means the device did not open in time. The request is
// abandoned and a device that opens afterwards is released.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("capture device did not open within %s", e.After)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// classifyOpenError maps a device open failure onto the error taxonomy.
func classifyOpenError(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrDeviceBusy):
		return &PermissionError{Err: err}
	case errors.Is(err, ErrCaptureUnavailable), errors.Is(err, ErrInsecureContext):
		return &ConfigurationError{Err: err}
	default:
		return fmt.Errorf("opening capture device: %w", err)
	}
}
