// SPDX-License-Identifier: EPL-2.0

//go:build !portaudio

package capture

// DefaultDevice returns nil in builds without the portaudio tag, which makes
// Recorder.Start fail with ErrCaptureUnavailable.
func DefaultDevice(sampleRate, channels int) Device {
	return nil
}
