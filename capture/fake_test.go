// SPDX-License-Identifier: EPL-2.0

package capture_test

import (
	"context"
	"sync"
	"time"

	"github.com/ik5/multitrack/capture"
)

// fakeDevice opens fakeStreams. When hold is set, Open blocks until it is
// closed.
type fakeDevice struct {
	format  capture.Format
	openErr error
	hold    chan struct{}

	mu      sync.Mutex
	streams []*fakeStream
}

func newFakeDevice(mime string) *fakeDevice {
	return &fakeDevice{format: capture.Format{MIMEType: mime, SampleRate: 8000, Channels: 1}}
}

func (d *fakeDevice) Format() capture.Format { return d.format }

func (d *fakeDevice) Open(context.Context) (capture.Stream, error) {
	if d.hold != nil {
		<-d.hold
	}
	if d.openErr != nil {
		return nil, d.openErr
	}

	s := &fakeStream{closed: make(chan struct{})}
	d.mu.Lock()
	d.streams = append(d.streams, s)
	d.mu.Unlock()
	return s, nil
}

func (d *fakeDevice) last() *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

type fakeStream struct {
	mu      sync.Mutex
	onChunk func([]byte)
	paused  bool
	stopped bool
	once    sync.Once
	closed  chan struct{}
}

func (s *fakeStream) Start(onChunk func([]byte)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChunk = onChunk
	return nil
}

func (s *fakeStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	return nil
}

func (s *fakeStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	return nil
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

// emit delivers a chunk the way a device callback would.
func (s *fakeStream) emit(chunk []byte) {
	s.mu.Lock()
	cb := s.onChunk
	s.mu.Unlock()

	cb(chunk)
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeQuerier struct {
	state capture.PermissionState
	err   error
}

func (q fakeQuerier) QueryPermission(context.Context) (capture.PermissionState, error) {
	return q.state, q.err
}
