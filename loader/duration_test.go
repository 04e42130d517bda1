// SPDX-License-Identifier: EPL-2.0

package loader

import (
	"math"
	"testing"
)

func TestResolveDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		strategies []DurationStrategy
		want       Duration
	}{
		{
			name:       "native first",
			strategies: []DurationStrategy{Native(12.5), Persisted(42), Estimated(1000, 8000)},
			want:       Duration{Seconds: 12.5, Source: DurationNative},
		},
		{
			name:       "infinite native uses persisted",
			strategies: []DurationStrategy{Native(math.Inf(1)), Persisted(42), Estimated(1000, 8000)},
			want:       Duration{Seconds: 42, Source: DurationPersisted},
		},
		{
			name:       "nan native and no record estimates",
			strategies: []DurationStrategy{Native(math.NaN()), Persisted(0), Estimated(16000, 128000)},
			want:       Duration{Seconds: 1, Source: DurationEstimated},
		},
		{
			name:       "nothing usable",
			strategies: []DurationStrategy{Native(-1), Persisted(math.NaN()), Estimated(0, 128000)},
			want:       Duration{},
		},
		{
			name: "no strategies",
			want: Duration{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolveDuration(tt.strategies...); got != tt.want {
				t.Errorf("ResolveDuration() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveDuration_StopsAtFirstSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	counting := DurationStrategy{
		Source:  DurationEstimated,
		Resolve: func() (float64, bool) { calls++; return 1, true },
	}

	ResolveDuration(Persisted(3), counting)
	if calls != 0 {
		t.Errorf("later strategy ran %d times, want 0", calls)
	}
}

func TestDurationSource_String(t *testing.T) {
	t.Parallel()

	for s, want := range map[DurationSource]string{
		DurationUnknown:   "unknown",
		DurationNative:    "native",
		DurationPersisted: "persisted",
		DurationEstimated: "estimated",
	} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}
