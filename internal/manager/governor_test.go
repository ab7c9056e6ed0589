package manager

import (
	"math"
	"testing"
)

func TestEstimateAgentMemory(t *testing.T) {
	cases := []struct {
		layers []int
		want   uint64
	}{
		{[]int{10, 5, 1}, 4096 + 61*8},
		{[]int{2, 1}, 4096 + 3*8},
		{[]int{5}, 4096},
		{nil, 4096},
	}
	for _, tc := range cases {
		if got := estimateAgentMemory(tc.layers); got != tc.want {
			t.Fatalf("estimateAgentMemory(%v) = %d, want %d", tc.layers, got, tc.want)
		}
	}
}

func TestEstimateAgentMemorySaturates(t *testing.T) {
	huge := []int{math.MaxInt32, math.MaxInt32, math.MaxInt32}
	if got := estimateAgentMemory(huge); got != math.MaxUint64 {
		t.Fatalf("estimate = %d, want saturation", got)
	}
}

func TestGovernorPerAgentLimit(t *testing.T) {
	g := newGovernor(1000, 10000)
	if err := g.reserve(1001); !IsCode(err, CodeCapacity) {
		t.Fatalf("error = %v, want capacity code", err)
	}
	if err := g.reserve(1000); err != nil {
		t.Fatalf("reserve at limit: %v", err)
	}
}

func TestGovernorTotalLimit(t *testing.T) {
	g := newGovernor(600, 1000)
	if err := g.reserve(600); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := g.reserve(500); !IsCode(err, CodeCapacity) {
		t.Fatalf("over-limit reserve: %v", err)
	}
	if got := g.usage(); got != 600 {
		t.Fatalf("usage = %d, want 600", got)
	}

	g.release(600)
	if err := g.reserve(500); err != nil {
		t.Fatalf("reserve after release: %v", err)
	}
}

func TestGovernorReleaseClampsAtZero(t *testing.T) {
	g := newGovernor(1000, 1000)
	if err := g.reserve(100); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	g.release(500)
	if got := g.usage(); got != 0 {
		t.Fatalf("usage = %d, want 0", got)
	}
}
