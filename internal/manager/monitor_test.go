package manager

import "testing"

func TestHealthScore(t *testing.T) {
	cases := []struct {
		failure, memory, capacity float64
		want                      float64
	}{
		{0, 0, 0, 100},
		{1, 0, 0, 60},
		{0, 1, 0, 70},
		{0, 0, 1, 70},
		{1, 1, 1, 0},
		{0.5, 0.5, 0.5, 50},
		{2, 0, 0, 60},
		{-1, -1, -1, 100},
	}
	for _, tc := range cases {
		if got := healthScore(tc.failure, tc.memory, tc.capacity); got != tc.want {
			t.Fatalf("healthScore(%v, %v, %v) = %v, want %v", tc.failure, tc.memory, tc.capacity, got, tc.want)
		}
	}
}

func TestMonitorCounts(t *testing.T) {
	m := newMonitor(true)
	m.recordOperation()
	m.recordOperation()
	m.recordTimeout()
	m.recordError()

	counts := m.counts()
	if counts.operations != 4 {
		t.Fatalf("operations = %d, want 4", counts.operations)
	}
	if counts.timeouts != 1 || counts.errors != 1 {
		t.Fatalf("timeouts=%d errors=%d, want 1 each", counts.timeouts, counts.errors)
	}
}

func TestMonitorDisabled(t *testing.T) {
	m := newMonitor(false)
	m.recordOperation()
	m.recordTimeout()
	m.recordError()

	counts := m.counts()
	if counts.operations != 0 || counts.timeouts != 0 || counts.errors != 0 {
		t.Fatalf("disabled monitor counted: %+v", counts)
	}
}

func TestMonitorTrainingGauge(t *testing.T) {
	m := newMonitor(true)
	m.trainingStarted()
	m.trainingStarted()
	if got := m.counts().trainingTasks; got != 2 {
		t.Fatalf("trainingTasks = %d, want 2", got)
	}
	m.trainingFinished()
	m.trainingFinished()
	m.trainingFinished()
	if got := m.counts().trainingTasks; got != 0 {
		t.Fatalf("trainingTasks = %d, want 0", got)
	}
}
