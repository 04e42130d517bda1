// SPDX-License-Identifier: EPL-2.0

package capture

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ik5/multitrack/formats/wav"
)

const (
	DefaultDeviceTimeout = 10 * time.Second
	DefaultQueueSize     = 64
)

// State is the recorder state.
type State int

const (
	Idle State = iota
	PermissionPending
	Recording
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PermissionPending:
		return "permission-pending"
	case Recording:
		return "recording"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config controls a Recorder.
type Config struct {
	// Secure must be set for capture to be allowed at all.
	Secure        bool
	DeviceTimeout time.Duration
	QueueSize     int
}

func DefaultConfig() Config {
	return Config{
		Secure:        true,
		DeviceTimeout: DefaultDeviceTimeout,
		QueueSize:     DefaultQueueSize,
	}
}

// Take is one finished recording.
type Take struct {
	ID         uuid.UUID
	Data       []byte
	MIMEType   string
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Recorder captures one take at a time from a Device. Playback is not
// locked out while recording, so a take can be monitored against the mix.
type Recorder struct {
	device Device
	gate   *PermissionGate
	cfg    Config
	log    *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	state       State
	stream      Stream
	format      Format
	started     time.Time
	pausedAt    time.Time
	pausedTotal time.Duration

	// abort cancels a Start that is still waiting on the device.
	abort   context.CancelFunc
	aborted bool

	// queue is fed by the device callback and drained into chunks.
	qmu       sync.RWMutex
	accepting bool
	queue     chan []byte
	chunks    [][]byte
	drained   chan struct{}
}

type Option func(*Recorder)

func WithConfig(cfg Config) Option {
	return func(r *Recorder) {
		if cfg.DeviceTimeout <= 0 {
			cfg.DeviceTimeout = DefaultDeviceTimeout
		}
		if cfg.QueueSize <= 0 {
			cfg.QueueSize = DefaultQueueSize
		}
		r.cfg = cfg
	}
}

func WithPermissionGate(g *PermissionGate) Option {
	return func(r *Recorder) {
		if g != nil {
			r.gate = g
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(r *Recorder) {
		if log != nil {
			r.log = log
		}
	}
}

// WithClock replaces time.Now for elapsed time accounting.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder creates a recorder for device. A nil device makes Start fail
// with a *ConfigurationError.
func NewRecorder(device Device, opts ...Option) *Recorder {
	r := &Recorder{
		device: device,
		cfg:    DefaultConfig(),
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.gate == nil {
		r.gate = NewPermissionGate(nil, r.log)
	}
	return r
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start checks the environment and permission, opens the device within the
// configured timeout and begins capturing. A Stop or Cancel issued while
// the device is still being requested makes Start release whatever it
// opened and return ErrStartAborted.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != Idle {
		r.mu.Unlock()
		return ErrRecorderBusy
	}
	if !r.cfg.Secure {
		r.mu.Unlock()
		return &ConfigurationError{Err: ErrInsecureContext}
	}
	if r.device == nil {
		r.mu.Unlock()
		return &ConfigurationError{Err: ErrCaptureUnavailable}
	}
	octx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.state = PermissionPending
	r.abort = cancel
	r.aborted = false
	r.mu.Unlock()

	stream, err := r.open(octx)
	if err != nil {
		if r.finishAborted() {
			return ErrStartAborted
		}
		r.setState(Idle)
		return err
	}
	if r.finishAborted() {
		r.release(stream)
		return ErrStartAborted
	}

	r.qmu.Lock()
	r.queue = make(chan []byte, r.cfg.QueueSize)
	r.chunks = nil
	r.drained = make(chan struct{})
	r.accepting = true
	go r.drain(r.queue, r.drained)
	r.qmu.Unlock()

	if err := stream.Start(r.enqueue); err != nil {
		r.closeQueue()
		r.release(stream)
		r.setState(Idle)
		return classifyOpenError(err)
	}

	r.mu.Lock()
	if r.aborted {
		r.abort = nil
		r.state = Idle
		r.mu.Unlock()

		if err := stream.Stop(); err != nil {
			r.log.Debug("stopping aborted capture stream", zap.Error(err))
		}
		r.closeQueue()
		r.release(stream)
		return ErrStartAborted
	}
	r.abort = nil
	r.stream = stream
	r.format = r.device.Format()
	r.started = r.now()
	r.pausedTotal = 0
	r.state = Recording
	r.mu.Unlock()

	r.log.Info("recording started",
		zap.String("mime", r.format.MIMEType),
		zap.Int("sample_rate", r.format.SampleRate),
		zap.Int("channels", r.format.Channels))

	return nil
}

// finishAborted returns the recorder to Idle when a pending Start was
// stopped or cancelled.
func (r *Recorder) finishAborted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.aborted {
		return false
	}
	r.abort = nil
	r.state = Idle
	return true
}

// abortPendingLocked flags a Start that has not opened the device yet.
func (r *Recorder) abortPendingLocked() {
	r.aborted = true
	if r.abort != nil {
		r.abort()
	}
}

// Pause suspends capture and returns the recorded time so far.
func (r *Recorder) Pause() (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Recording {
		return 0, ErrNotRecording
	}
	if err := r.stream.Pause(); err != nil {
		return 0, err
	}

	r.pausedAt = r.now()
	r.state = Paused
	return r.elapsedLocked(), nil
}

// Resume continues a paused take.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Paused {
		return ErrNotPaused
	}
	if err := r.stream.Resume(); err != nil {
		return err
	}

	r.pausedTotal += r.now().Sub(r.pausedAt)
	r.state = Recording
	return nil
}

// Elapsed is the recorded time excluding pauses.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Recording && r.state != Paused {
		return 0
	}
	return r.elapsedLocked()
}

// Stop ends the take and releases the device. It returns nil when nothing
// was captured, including when the recorder was never started or is still
// waiting on the device.
func (r *Recorder) Stop() (*Take, error) {
	r.mu.Lock()
	if r.state == PermissionPending {
		r.abortPendingLocked()
		r.mu.Unlock()
		return nil, nil
	}
	if r.state != Recording && r.state != Paused {
		r.mu.Unlock()
		return nil, nil
	}

	stream, format := r.stream, r.format
	elapsed := r.elapsedLocked()
	r.stream = nil
	r.state = Stopped
	r.mu.Unlock()

	if err := stream.Stop(); err != nil {
		r.log.Warn("stopping capture stream", zap.Error(err))
	}
	chunks := r.closeQueue()
	r.release(stream)
	defer r.setState(Idle)

	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	if size == 0 {
		r.log.Info("recording stopped with no audio")
		return nil, nil
	}

	data := bytes.Join(chunks, nil)
	rec := &Take{
		ID:         uuid.New(),
		Data:       data,
		MIMEType:   format.MIMEType,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		Duration:   elapsed,
	}

	if format.MIMEType == MIMEL16 {
		if err := packageWAV(rec); err != nil {
			return nil, err
		}
	}

	r.log.Info("recording stopped",
		zap.String("id", rec.ID.String()),
		zap.Int("bytes", len(rec.Data)),
		zap.Duration("duration", rec.Duration))

	return rec, nil
}

// Cancel discards the take and releases the device.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	if r.state == PermissionPending {
		r.abortPendingLocked()
		r.mu.Unlock()
		return
	}
	stream := r.stream
	active := r.state == Recording || r.state == Paused
	r.stream = nil
	r.state = Idle
	r.mu.Unlock()

	if !active {
		return
	}
	if err := stream.Stop(); err != nil {
		r.log.Debug("stopping cancelled capture stream", zap.Error(err))
	}
	r.closeQueue()
	r.release(stream)
}

type opened struct {
	stream Stream
	err    error
}

// open runs the permission check and the device request under the
// configured timeout.
func (r *Recorder) open(ctx context.Context) (Stream, error) {
	if err := r.gate.EnsurePermission(ctx); err != nil {
		return nil, err
	}

	octx, cancel := context.WithCancel(ctx)
	result := make(chan opened, 1)
	go func() {
		s, err := r.device.Open(octx)
		result <- opened{stream: s, err: err}
	}()

	timer := time.NewTimer(r.cfg.DeviceTimeout)
	defer timer.Stop()

	select {
	case o := <-result:
		cancel()
		if o.err != nil {
			return nil, classifyOpenError(o.err)
		}
		return o.stream, nil
	case <-timer.C:
		cancel()
		go r.releaseLate(result)
		return nil, &TimeoutError{After: r.cfg.DeviceTimeout}
	case <-ctx.Done():
		cancel()
		go r.releaseLate(result)
		return nil, ctx.Err()
	}
}

// releaseLate closes a device that opened after its request was abandoned.
func (r *Recorder) releaseLate(result <-chan opened) {
	o := <-result
	if o.err == nil && o.stream != nil {
		r.log.Info("releasing capture device that opened after the request was abandoned")
		r.release(o.stream)
	}
}

func (r *Recorder) release(s Stream) {
	if err := s.Close(); err != nil {
		r.log.Warn("closing capture stream", zap.Error(err))
	}
}

func (r *Recorder) enqueue(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	r.qmu.RLock()
	defer r.qmu.RUnlock()

	if !r.accepting {
		return
	}
	r.queue <- bytes.Clone(chunk)
}

func (r *Recorder) drain(queue <-chan []byte, done chan<- struct{}) {
	defer close(done)

	for c := range queue {
		r.chunks = append(r.chunks, c)
	}
}

// closeQueue stops accepting chunks, waits for the drainer and returns
// everything it collected.
func (r *Recorder) closeQueue() [][]byte {
	r.qmu.Lock()
	if !r.accepting {
		r.qmu.Unlock()
		return nil
	}
	r.accepting = false
	close(r.queue)
	done := r.drained
	r.qmu.Unlock()

	<-done

	chunks := r.chunks
	r.chunks = nil
	return chunks
}

func (r *Recorder) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Recorder) elapsedLocked() time.Duration {
	end := r.now()
	if r.state == Paused {
		end = r.pausedAt
	}
	return end.Sub(r.started) - r.pausedTotal
}

// packageWAV wraps raw PCM in a WAVE container and takes the duration from
// the sample count.
func packageWAV(rec *Take) error {
	var out bytes.Buffer
	if err := wav.WritePCM16(&out, rec.SampleRate, rec.Channels, rec.Data); err != nil {
		return err
	}

	if rec.SampleRate > 0 {
		frames := len(rec.Data) / (2 * rec.Channels)
		rec.Duration = time.Duration(frames) * time.Second / time.Duration(rec.SampleRate)
	}
	rec.Data = out.Bytes()
	rec.MIMEType = MIMEWAV
	return nil
}
