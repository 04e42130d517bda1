// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"slices"
	"sync"
	"sync/atomic"
)

// ensemble is the ordered set of tracks in a session. Solo state is counted
// here so a node can resolve its gain without locking its siblings.
type ensemble struct {
	solos atomic.Int32

	mu    sync.RWMutex
	nodes []*TrackNode
}

func (e *ensemble) soloActive() bool {
	return e.solos.Load() > 0
}

// Nodes returns the tracks in track order.
func (e *ensemble) Nodes() []*TrackNode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.nodes)
}

func (e *ensemble) replace(nodes []*TrackNode) {
	sortNodes(nodes)

	e.mu.Lock()
	e.nodes = nodes
	e.mu.Unlock()

	e.recount()
}

func (e *ensemble) add(n *TrackNode) {
	e.mu.Lock()
	e.nodes = append(e.nodes, n)
	sortNodes(e.nodes)
	e.mu.Unlock()

	e.recount()
}

func (e *ensemble) remove(n *TrackNode) bool {
	e.mu.Lock()
	i := slices.Index(e.nodes, n)
	if i >= 0 {
		e.nodes = slices.Delete(e.nodes, i, i+1)
	}
	e.mu.Unlock()

	if i < 0 {
		return false
	}
	e.recount()
	return true
}

func (e *ensemble) find(id string) *TrackNode {
	for _, n := range e.Nodes() {
		if n.ID() == id {
			return n
		}
	}
	return nil
}

// recount derives the solo count from the current members, so a node
// that has already been removed cannot skew it.
func (e *ensemble) recount() {
	var solos int32
	for _, n := range e.Nodes() {
		if n.Soloed() {
			solos++
		}
	}
	e.solos.Store(solos)
	e.applyGains()
}

// applyGains pushes every node's gains to its player.
func (e *ensemble) applyGains() {
	for _, n := range e.Nodes() {
		n.applyGains()
	}
}

// loaded returns the loaded nodes with a bound player, in track order.
func (e *ensemble) loaded() []*TrackNode {
	var out []*TrackNode
	for _, n := range e.Nodes() {
		if n.Status() == StatusLoaded && n.Player() != nil {
			out = append(out, n)
		}
	}
	return out
}

// duration is the longest resolved duration among loaded tracks.
func (e *ensemble) duration() float64 {
	var d float64
	for _, n := range e.loaded() {
		d = max(d, n.length())
	}
	return d
}

func sortNodes(nodes []*TrackNode) {
	slices.SortStableFunc(nodes, func(a, b *TrackNode) int {
		return a.trackNumber() - b.trackNumber()
	})
}
