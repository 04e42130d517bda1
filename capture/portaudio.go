// SPDX-License-Identifier: EPL-2.0

//go:build portaudio

package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// PortAudioDevice captures 16-bit PCM from the default input device.
type PortAudioDevice struct {
	sampleRate int
	channels   int
}

// DefaultDevice returns the PortAudio default input.
func DefaultDevice(sampleRate, channels int) Device {
	return &PortAudioDevice{sampleRate: sampleRate, channels: channels}
}

func (d *PortAudioDevice) Format() Format {
	return Format{MIMEType: MIMEL16, SampleRate: d.sampleRate, Channels: d.channels}
}

func (d *PortAudioDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	input, err := portaudio.DefaultInputDevice()
	if err != nil || input == nil {
		portaudio.Terminate()
		return nil, ErrCaptureUnavailable
	}

	if input.MaxInputChannels < d.channels {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: %s has %d input channels", ErrCaptureUnavailable, input.Name, input.MaxInputChannels)
	}

	params := portaudio.HighLatencyParameters(input, nil)
	params.Input.Channels = d.channels
	params.SampleRate = float64(d.sampleRate)
	params.FramesPerBuffer = framesPerBuffer

	s := &paStream{}
	stream, err := portaudio.OpenStream(params, s.process)
	if err != nil {
		portaudio.Terminate()
		if errors.Is(err, portaudio.DeviceUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrDeviceBusy, err)
		}
		return nil, fmt.Errorf("opening input stream: %w", err)
	}
	s.stream = stream

	return s, nil
}

// paStream adapts a portaudio stream to Stream.
type paStream struct {
	stream *portaudio.Stream

	mu      sync.Mutex
	onChunk func([]byte)
	buf     []byte
}

func (s *paStream) process(in []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.onChunk == nil {
		return
	}
	if cap(s.buf) < len(in)*2 {
		s.buf = make([]byte, len(in)*2)
	}
	s.buf = s.buf[:len(in)*2]
	for i, v := range in {
		binary.LittleEndian.PutUint16(s.buf[i*2:], uint16(v))
	}
	s.onChunk(s.buf)
}

func (s *paStream) Start(onChunk func([]byte)) error {
	s.mu.Lock()
	s.onChunk = onChunk
	s.mu.Unlock()

	return s.stream.Start()
}

func (s *paStream) Pause() error  { return s.stream.Stop() }
func (s *paStream) Resume() error { return s.stream.Start() }
func (s *paStream) Stop() error   { return s.stream.Stop() }

func (s *paStream) Close() error {
	err := s.stream.Close()
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
