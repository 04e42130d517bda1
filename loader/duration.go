// SPDX-License-Identifier: EPL-2.0

package loader

import "math"

// DurationSource tells where a resolved duration came from.
type DurationSource int

const (
	DurationUnknown DurationSource = iota
	// DurationNative was declared by the container or measured from decoded frames.
	DurationNative
	// DurationPersisted came from the stored track record.
	DurationPersisted
	// DurationEstimated was derived from the payload size and an assumed bitrate.
	DurationEstimated
)

func (s DurationSource) String() string {
	switch s {
	case DurationNative:
		return "native"
	case DurationPersisted:
		return "persisted"
	case DurationEstimated:
		return "estimated"
	default:
		return "unknown"
	}
}

// Duration is a length in seconds tagged with its provenance.
type Duration struct {
	Seconds float64
	Source  DurationSource
}

// Measured reports whether the value came from the audio itself rather than
// a stored or estimated figure.
func (d Duration) Measured() bool { return d.Source == DurationNative }

// DurationStrategy is one step of the resolution chain.
type DurationStrategy struct {
	Source  DurationSource
	Resolve func() (float64, bool)
}

// Native accepts a container-reported duration when it is finite and positive.
func Native(reported float64) DurationStrategy {
	return DurationStrategy{
		Source:  DurationNative,
		Resolve: func() (float64, bool) { return reported, usable(reported) },
	}
}

// Persisted accepts the duration stored alongside the track.
func Persisted(seconds float64) DurationStrategy {
	return DurationStrategy{
		Source:  DurationPersisted,
		Resolve: func() (float64, bool) { return seconds, usable(seconds) },
	}
}

// Estimated derives seconds from the payload size at bitsPerSecond.
func Estimated(size int, bitsPerSecond int) DurationStrategy {
	return DurationStrategy{
		Source: DurationEstimated,
		Resolve: func() (float64, bool) {
			if size <= 0 || bitsPerSecond <= 0 {
				return 0, false
			}
			return float64(size) * 8 / float64(bitsPerSecond), true
		},
	}
}

// ResolveDuration tries each strategy once, in order, and returns the first
// usable value. With no usable value the result is zero seconds, unknown.
func ResolveDuration(strategies ...DurationStrategy) Duration {
	for _, s := range strategies {
		if v, ok := s.Resolve(); ok {
			return Duration{Seconds: v, Source: s.Source}
		}
	}
	return Duration{}
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
