// SPDX-License-Identifier: EPL-2.0

package waveform

import "errors"

var (
	ErrInvalidBuckets = errors.New("bucket count must be positive")
	ErrInvalidGap     = errors.New("trim separation must be within [0, 100]")
)
