// SPDX-License-Identifier: EPL-2.0

package capture

import "context"

const (
	MIMEWAV = "audio/wav"
	// MIMEL16 is raw signed 16-bit little-endian interleaved PCM.
	MIMEL16 = "audio/L16"
)

// Format describes what a device delivers.
type Format struct {
	MIMEType   string
	SampleRate int
	Channels   int
}

// Device is a capture input. Open may block on a permission prompt and
// should honour ctx. Errors wrapping ErrPermissionDenied, ErrDeviceBusy or
// ErrCaptureUnavailable are classified by the Recorder.
type Device interface {
	Format() Format
	Open(ctx context.Context) (Stream, error)
}

// Stream is an opened device. onChunk is called from the device's own
// goroutine and must not retain the slice.
type Stream interface {
	Start(onChunk func(chunk []byte)) error
	Pause() error
	Resume() error
	Stop() error
	Close() error
}
