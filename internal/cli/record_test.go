// SPDX-License-Identifier: EPL-2.0

//go:build !portaudio

package cli

import (
	"errors"
	"testing"

	"github.com/ik5/multitrack/capture"
)

func TestRecord_NoDevice(t *testing.T) {
	t.Parallel()

	_, err := run(t, "--config", writeConfig(t, t.TempDir()), "record", "--duration", "10ms")

	var cfgErr *capture.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("record error = %v, want a ConfigurationError", err)
	}
	if !errors.Is(err, capture.ErrCaptureUnavailable) {
		t.Errorf("record error = %v, want ErrCaptureUnavailable", err)
	}
}
