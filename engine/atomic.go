// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"math"
	"sync/atomic"
)

// atomicFloat64 stores a float64 as its bit pattern.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func newAtomicFloat64(v float64) *atomicFloat64 {
	a := &atomicFloat64{}
	a.Store(v)
	return a
}

func (a *atomicFloat64) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat64) Store(v float64) {
	a.bits.Store(math.Float64bits(v))
}
