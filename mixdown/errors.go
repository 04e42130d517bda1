// SPDX-License-Identifier: EPL-2.0

package mixdown

import (
	"errors"
	"fmt"
)

var (
	ErrNoLoader = errors.New("input has no buffer and no loader is configured")
	ErrNoAudio  = errors.New("input has neither a buffer nor a url")
)

// Error is a failed render. No partial output accompanies it.
type Error struct {
	Op      string
	TrackID string
	Err     error
}

func (e *Error) Error() string {
	if e.TrackID == "" {
		return fmt.Sprintf("mixdown %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("mixdown %s track %s: %v", e.Op, e.TrackID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
