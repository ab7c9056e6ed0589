package manager

import (
	"math"
	"sync"

	"github.com/dustin/go-humanize"
)

const (
	bytesPerParameter  = 8
	agentOverheadBytes = 4096
)

// estimateAgentMemory returns the projected footprint of an architecture:
// 8 bytes per weight and bias plus fixed bookkeeping overhead. The
// estimate saturates instead of wrapping so an absurd architecture is
// rejected by the governor, never silently admitted.
func estimateAgentMemory(architecture []int) uint64 {
	total := uint64(agentOverheadBytes)
	for l := 0; l < len(architecture)-1; l++ {
		in := uint64(architecture[l])
		out := uint64(architecture[l+1])
		if in != 0 && out > math.MaxUint64/in {
			return math.MaxUint64
		}
		weights := in * out
		params := weights + out
		if params < weights {
			return math.MaxUint64
		}
		if params > (math.MaxUint64-total)/bytesPerParameter {
			return math.MaxUint64
		}
		total += params * bytesPerParameter
	}
	return total
}

// governor performs admission control on estimated memory usage.
type governor struct {
	perAgentLimit uint64
	totalLimit    uint64

	mu       sync.Mutex
	reserved uint64
}

func newGovernor(perAgentLimit, totalLimit uint64) *governor {
	return &governor{perAgentLimit: perAgentLimit, totalLimit: totalLimit}
}

func (g *governor) reserve(bytes uint64) error {
	if bytes > g.perAgentLimit {
		return Errorf(CodeCapacity, "agent memory estimate %s exceeds per-agent limit %s",
			humanize.IBytes(bytes), humanize.IBytes(g.perAgentLimit))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.reserved+bytes > g.totalLimit || g.reserved+bytes < g.reserved {
		return Errorf(CodeCapacity, "memory pool exhausted: reserved=%s requested=%s limit=%s",
			humanize.IBytes(g.reserved), humanize.IBytes(bytes), humanize.IBytes(g.totalLimit))
	}
	g.reserved += bytes
	return nil
}

// release returns bytes to the pool. The reservation never goes negative.
func (g *governor) release(bytes uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if bytes > g.reserved {
		g.reserved = 0
		return
	}
	g.reserved -= bytes
}

func (g *governor) usage() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reserved
}
