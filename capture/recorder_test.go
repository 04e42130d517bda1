// SPDX-License-Identifier: EPL-2.0

package capture_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/ik5/multitrack/capture"
)

func TestRecorder_StopWithoutChunks(t *testing.T) {
	t.Parallel()

	dev := newFakeDevice(capture.MIMEL16)
	r := capture.NewRecorder(dev)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	rec, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if rec != nil {
		t.Errorf("Stop() = %+v, want nil", rec)
	}
	if !dev.last().isClosed() {
		t.Error("device not released")
	}
	if got := r.State(); got != capture.Idle {
		t.Errorf("State() = %v, want idle", got)
	}
}

func TestRecorder_StopWhenIdle(t *testing.T) {
	t.Parallel()

	rec, err := capture.NewRecorder(newFakeDevice(capture.MIMEL16)).Stop()
	if rec != nil || err != nil {
		t.Errorf("Stop() = (%v, %v), want (nil, nil)", rec, err)
	}
}

func TestRecorder_PCMIsWrappedInWAV(t *testing.T) {
	t.Parallel()

	dev := newFakeDevice(capture.MIMEL16)
	r := capture.NewRecorder(dev, capture.WithConfig(capture.Config{Secure: true, QueueSize: 1}))

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// 800 mono frames at 8 kHz, in chunks through a queue of one.
	var want []byte
	for i := range 8 {
		chunk := make([]byte, 200)
		for j := 0; j < len(chunk); j += 2 {
			binary.LittleEndian.PutUint16(chunk[j:], uint16(i*100+j))
		}
		want = append(want, chunk...)
		dev.last().emit(chunk)
	}

	rec, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if rec == nil {
		t.Fatal("Stop() = nil, want a recording")
	}

	if rec.MIMEType != capture.MIMEWAV {
		t.Errorf("MIMEType = %q, want %q", rec.MIMEType, capture.MIMEWAV)
	}
	if rec.Duration != 100*time.Millisecond {
		t.Errorf("Duration = %v, want 100ms", rec.Duration)
	}
	if string(rec.Data[:4]) != "RIFF" || string(rec.Data[8:12]) != "WAVE" {
		t.Errorf("header = %q, want RIFF/WAVE", rec.Data[:12])
	}
	if !bytes.Equal(rec.Data[44:], want) {
		t.Error("PCM payload differs from captured chunks")
	}
	if got := binary.LittleEndian.Uint32(rec.Data[24:28]); got != 8000 {
		t.Errorf("sample rate = %d, want 8000", got)
	}
}

func TestRecorder_CompressedChunksPassThrough(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	dev := newFakeDevice("audio/webm")
	r := capture.NewRecorder(dev, capture.WithClock(clock.Now))

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	dev.last().emit([]byte("abc"))
	dev.last().emit([]byte("def"))
	clock.Advance(1500 * time.Millisecond)

	rec, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if string(rec.Data) != "abcdef" {
		t.Errorf("Data = %q, want %q", rec.Data, "abcdef")
	}
	if rec.MIMEType != "audio/webm" {
		t.Errorf("MIMEType = %q, want audio/webm", rec.MIMEType)
	}
	if rec.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", rec.Duration)
	}
}

func TestRecorder_PauseResume(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	dev := newFakeDevice(capture.MIMEL16)
	r := capture.NewRecorder(dev, capture.WithClock(clock.Now))

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	clock.Advance(2 * time.Second)
	elapsed, err := r.Pause()
	if err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if elapsed != 2*time.Second {
		t.Errorf("Pause() = %v, want 2s", elapsed)
	}
	if r.State() != capture.Paused {
		t.Errorf("State() = %v, want paused", r.State())
	}

	clock.Advance(5 * time.Second)
	if got := r.Elapsed(); got != 2*time.Second {
		t.Errorf("Elapsed() while paused = %v, want 2s", got)
	}
	if err := r.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}

	clock.Advance(time.Second)
	if got := r.Elapsed(); got != 3*time.Second {
		t.Errorf("Elapsed() = %v, want 3s", got)
	}

	if _, err := r.Pause(); err != nil {
		t.Fatalf("second Pause() error = %v", err)
	}
	if err := r.Resume(); err != nil {
		t.Fatalf("second Resume() error = %v", err)
	}
	if err := r.Resume(); !errors.Is(err, capture.ErrNotPaused) {
		t.Errorf("Resume() while recording error = %v, want ErrNotPaused", err)
	}
	r.Cancel()
}

func TestRecorder_StartErrors(t *testing.T) {
	t.Parallel()

	denied := capture.NewPermissionGate(fakeQuerier{state: capture.PermissionDenied}, nil)
	busy := newFakeDevice(capture.MIMEL16)
	busy.openErr = capture.ErrDeviceBusy
	refused := newFakeDevice(capture.MIMEL16)
	refused.openErr = capture.ErrPermissionDenied

	tests := []struct {
		name   string
		rec    *capture.Recorder
		target any
		want   error
	}{
		{
			name:   "insecure",
			rec:    capture.NewRecorder(newFakeDevice(capture.MIMEL16), capture.WithConfig(capture.Config{})),
			target: new(*capture.ConfigurationError),
			want:   capture.ErrInsecureContext,
		},
		{
			name:   "no device",
			rec:    capture.NewRecorder(nil),
			target: new(*capture.ConfigurationError),
			want:   capture.ErrCaptureUnavailable,
		},
		{
			name:   "gate denied",
			rec:    capture.NewRecorder(newFakeDevice(capture.MIMEL16), capture.WithPermissionGate(denied)),
			target: new(*capture.PermissionError),
			want:   capture.ErrPermissionDenied,
		},
		{
			name:   "device refused",
			rec:    capture.NewRecorder(refused),
			target: new(*capture.PermissionError),
			want:   capture.ErrPermissionDenied,
		},
		{
			name:   "device busy",
			rec:    capture.NewRecorder(busy),
			target: new(*capture.PermissionError),
			want:   capture.ErrDeviceBusy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.rec.Start(context.Background())
			if !errors.As(err, tt.target) {
				t.Fatalf("Start() error = %v, want %T", err, tt.target)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Start() error = %v, want %v", err, tt.want)
			}
			if got := tt.rec.State(); got != capture.Idle {
				t.Errorf("State() = %v, want idle", got)
			}
		})
	}
}

func TestRecorder_DeviceTimeout(t *testing.T) {
	t.Parallel()

	dev := newFakeDevice(capture.MIMEL16)
	dev.hold = make(chan struct{})
	r := capture.NewRecorder(dev, capture.WithConfig(capture.Config{
		Secure:        true,
		DeviceTimeout: 20 * time.Millisecond,
	}))

	err := r.Start(context.Background())
	var te *capture.TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("Start() error = %v, want *TimeoutError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("TimeoutError does not unwrap to context.DeadlineExceeded")
	}
	if r.State() != capture.Idle {
		t.Errorf("State() = %v, want idle", r.State())
	}

	// The device opens late and must be released.
	close(dev.hold)
	deadline := time.After(time.Second)
	for dev.last() == nil {
		select {
		case <-deadline:
			t.Fatal("late device never opened")
		case <-time.After(time.Millisecond):
		}
	}
	select {
	case <-dev.last().closed:
	case <-time.After(time.Second):
		t.Fatal("late device was not released")
	}
}

func TestRecorder_StartTwice(t *testing.T) {
	t.Parallel()

	r := capture.NewRecorder(newFakeDevice(capture.MIMEL16))
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Cancel()

	if err := r.Start(context.Background()); !errors.Is(err, capture.ErrRecorderBusy) {
		t.Errorf("second Start() error = %v, want ErrRecorderBusy", err)
	}
}

func TestRecorder_Cancel(t *testing.T) {
	t.Parallel()

	dev := newFakeDevice(capture.MIMEL16)
	r := capture.NewRecorder(dev)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	dev.last().emit([]byte{1, 2})

	r.Cancel()

	if !dev.last().isClosed() {
		t.Error("Cancel() did not release the device")
	}
	if rec, err := r.Stop(); rec != nil || err != nil {
		t.Errorf("Stop() after Cancel() = (%v, %v), want (nil, nil)", rec, err)
	}

	// A fresh take works after a cancel.
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() after Cancel() error = %v", err)
	}
	r.Cancel()
}

func TestRecorder_AbortWhileDeviceOpening(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		abort func(t *testing.T, r *capture.Recorder)
	}{
		{
			name:  "cancel",
			abort: func(_ *testing.T, r *capture.Recorder) { r.Cancel() },
		},
		{
			name: "stop",
			abort: func(t *testing.T, r *capture.Recorder) {
				if rec, err := r.Stop(); rec != nil || err != nil {
					t.Errorf("Stop() = (%v, %v), want (nil, nil)", rec, err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dev := newFakeDevice(capture.MIMEL16)
			dev.hold = make(chan struct{})
			r := capture.NewRecorder(dev)

			errc := make(chan error, 1)
			go func() { errc <- r.Start(context.Background()) }()

			deadline := time.After(time.Second)
			for r.State() != capture.PermissionPending {
				select {
				case <-deadline:
					t.Fatal("recorder never reached permission-pending")
				case <-time.After(time.Millisecond):
				}
			}

			tt.abort(t, r)

			select {
			case err := <-errc:
				if !errors.Is(err, capture.ErrStartAborted) {
					t.Errorf("Start() error = %v, want ErrStartAborted", err)
				}
			case <-time.After(time.Second):
				t.Fatal("Start() did not return after abort")
			}
			if got := r.State(); got != capture.Idle {
				t.Errorf("State() = %v, want idle", got)
			}

			// The device finishes opening afterwards and must be released.
			close(dev.hold)
			deadline = time.After(time.Second)
			for dev.last() == nil {
				select {
				case <-deadline:
					t.Fatal("device never opened")
				case <-time.After(time.Millisecond):
				}
			}
			select {
			case <-dev.last().closed:
			case <-time.After(time.Second):
				t.Fatal("device opened after abort was not released")
			}

			if err := r.Start(context.Background()); err != nil {
				t.Fatalf("Start() after abort error = %v", err)
			}
			r.Cancel()
		})
	}
}
