package manager

import "sync"

// monitor accumulates operation outcomes for health derivation. All
// methods are no-ops when monitoring is disabled.
type monitor struct {
	enabled bool

	mu            sync.Mutex
	operations    uint64
	timeouts      uint64
	errors        uint64
	trainingTasks int
}

func newMonitor(enabled bool) *monitor {
	return &monitor{enabled: enabled}
}

func (m *monitor) recordOperation() {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	m.operations++
	m.mu.Unlock()
}

func (m *monitor) recordTimeout() {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	m.operations++
	m.timeouts++
	m.mu.Unlock()
}

func (m *monitor) recordError() {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	m.operations++
	m.errors++
	m.mu.Unlock()
}

func (m *monitor) trainingStarted() {
	m.mu.Lock()
	m.trainingTasks++
	m.mu.Unlock()
}

func (m *monitor) trainingFinished() {
	m.mu.Lock()
	if m.trainingTasks > 0 {
		m.trainingTasks--
	}
	m.mu.Unlock()
}

type monitorCounts struct {
	operations    uint64
	timeouts      uint64
	errors        uint64
	trainingTasks int
}

func (m *monitor) counts() monitorCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return monitorCounts{
		operations:    m.operations,
		timeouts:      m.timeouts,
		errors:        m.errors,
		trainingTasks: m.trainingTasks,
	}
}

// healthScore derives the 0-100 system health figure. Failures weigh
// heaviest; memory and capacity pressure erode the remainder as they
// approach their limits.
func healthScore(failureRate, memoryPressure, capacityPressure float64) float64 {
	score := 100.0
	score -= 40 * clamp01(failureRate)
	score -= 30 * clamp01(memoryPressure)
	score -= 30 * clamp01(capacityPressure)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
