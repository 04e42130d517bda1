// SPDX-License-Identifier: EPL-2.0

// Package capture records takes from an input device.
//
// A Recorder moves through Idle, PermissionPending, Recording and Paused,
// back to Idle on Stop. The device pushes chunks from its own goroutine
// into a bounded queue drained in order. Raw 16-bit PCM is returned wrapped
// in a WAVE container.
//
// Build with -tags portaudio for a real input through PortAudio.
package capture
