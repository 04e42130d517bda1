// SPDX-License-Identifier: EPL-2.0

package loader

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrEmptyPayload      = errors.New("empty audio payload")
	ErrHTTPStatus        = errors.New("unexpected http status")
	ErrTooLarge          = errors.New("audio payload exceeds size limit")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// NetworkError reports that the bytes of a track could not be fetched.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports that fetched bytes could not be turned into samples.
type DecodeError struct {
	URL    string
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decoding %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("decoding %s as %s: %v", e.URL, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
