// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/multitrack/utils"
)

// Resampler streams src at another sample rate using Catmull-Rom
// interpolation. Channel count is preserved. When downsampling a one-pole
// low-pass runs on the source frames before interpolation.
//
// The loader uses it to bring every track to the session rate, and mixdown
// uses it for buffers that were decoded elsewhere.
type Resampler struct {
	src      Source
	rate     int
	step     float64 // source frames per output frame
	channels int

	// win holds four consecutive source frames, the output position lies
	// between win[1] and win[2]. real marks frames read from the source,
	// the others repeat the edge frame.
	win   [4][]float32
	real  [4]bool
	phase float64

	in     []float32
	primed bool
	srcEOF bool

	lp *lowPass
}

// lowPass is a one-pole filter, y[n] = a*x[n] + (1-a)*y[n-1], seeded with
// the first frame it sees.
type lowPass struct {
	alpha  float32
	state  []float32
	seeded bool
}

func (f *lowPass) apply(frame []float32) {
	if !f.seeded {
		copy(f.state, frame)
		f.seeded = true
		return
	}
	for c, x := range frame {
		y := f.alpha*x + (1-f.alpha)*f.state[c]
		frame[c] = y
		f.state[c] = y
	}
}

func NewResampler(src Source, rate int) *Resampler {
	channels := src.Channels()

	r := &Resampler{
		src:      src,
		rate:     rate,
		step:     float64(src.SampleRate()) / float64(rate),
		channels: channels,
		in:       make([]float32, channels),
	}
	for i := range r.win {
		r.win[i] = make([]float32, channels)
	}
	if r.step > 1 {
		r.lp = &lowPass{alpha: 0.5, state: make([]float32, channels)}
	}
	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("closing resampler source: %w", err)
	}
	return nil
}

// ReadSamples fills dst with interleaved frames at the target rate. len(dst)
// must be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	for written < len(dst) {
		for r.phase >= 1 {
			r.phase--
			if err := r.advance(); err != nil {
				return written, err
			}
		}

		// Past the last source frame.
		if !r.real[1] || (r.phase > 0 && !r.real[2]) {
			return written, io.EOF
		}

		t := float32(r.phase)
		for c := range r.channels {
			dst[written+c] = utils.CatmullRom(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], t)
		}
		written += r.channels
		r.phase += r.step
	}

	return written, nil
}

// prime fills the window with the first frames, repeating the first one
// on the left edge.
func (r *Resampler) prime() error {
	r.primed = true

	ok, err := r.pull(r.win[1])
	if err != nil {
		return err
	}
	r.real[1] = ok
	copy(r.win[0], r.win[1])

	for i := 2; i < len(r.win); i++ {
		ok, err := r.pull(r.win[i])
		if err != nil {
			return err
		}
		if !ok {
			copy(r.win[i], r.win[i-1])
		}
		r.real[i] = ok
	}
	return nil
}

// advance moves the window one source frame forward.
func (r *Resampler) advance() error {
	oldest := r.win[0]
	copy(r.win[:], r.win[1:])
	copy(r.real[:], r.real[1:])
	r.win[3] = oldest

	ok, err := r.pull(r.win[3])
	if err != nil {
		return err
	}
	if !ok {
		copy(r.win[3], r.win[2])
	}
	r.real[3] = ok
	return nil
}

// pull reads one source frame into dst. It reports false once the source
// is exhausted.
func (r *Resampler) pull(dst []float32) (bool, error) {
	if r.srcEOF {
		return false, nil
	}

	var (
		n   int
		err error
	)
	for range maxIdleReads {
		n, err = r.src.ReadSamples(r.in)
		if n > 0 || err != nil {
			break
		}
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("resampler read: %w", err)
	}
	if err != nil || n < r.channels {
		r.srcEOF = true
	}
	if n == 0 {
		return false, nil
	}

	copy(dst, r.in[:n])
	clear(dst[n:])
	if r.lp != nil {
		r.lp.apply(dst)
	}
	return true, nil
}
