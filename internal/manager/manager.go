// Package manager implements the bounded neural-agent orchestration
// core: a capped population of kernel-backed agents with per-operation
// deadlines, memory admission control, cross-agent knowledge transfer
// and derived health telemetry.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"neuromesh/internal/kernel"
	"neuromesh/internal/logging"
	"neuromesh/internal/model"
	"neuromesh/internal/storage"
)

// Manager is the facade over the agent registry, memory governor,
// inference scheduler, training coordinator, knowledge transfer and
// performance monitor. All methods are safe for concurrent use.
type Manager struct {
	cfg    Config
	kernel kernel.Kernel
	store  storage.Store
	logger logging.Logger

	registry *registry
	governor *governor
	monitor  *monitor
	events   *notifier
	inferSem *semaphore.Weighted

	mu      sync.Mutex
	started bool
}

func New(cfg Config) (*Manager, error) {
	if cfg.Kernel == nil {
		return nil, Errorf(CodeConfiguration, "kernel is required")
	}
	cfg = normalizeConfig(cfg)

	return &Manager{
		cfg:      cfg,
		kernel:   cfg.Kernel,
		store:    cfg.Store,
		logger:   cfg.Logger,
		registry: newRegistry(),
		governor: newGovernor(cfg.AgentMemoryLimit, cfg.TotalMemoryLimit),
		monitor:  newMonitor(!cfg.DisableMonitoring),
		events:   newNotifier(cfg.EventBufferSize, cfg.Logger),
		inferSem: semaphore.NewWeighted(cfg.MaxConcurrentInference),
	}, nil
}

// Init prepares the session archive and announces readiness. Subscribers
// attached before Init observe the initialized event first.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}
	if m.store != nil {
		if err := m.store.Init(ctx); err != nil {
			return Wrap(CodeConfiguration, err, "session archive init failed")
		}
	}
	m.started = true
	m.events.publish(Event{Kind: EventInitialized})
	m.logger.Info("manager initialized",
		"max_agents", m.cfg.MaxAgents,
		"memory_limit", humanize.IBytes(m.cfg.TotalMemoryLimit))
	return nil
}

func (m *Manager) requireStarted() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return Errorf(CodeStateConflict, "manager is not initialized")
	}
	return nil
}

// SpawnAgent admits, creates and registers a new agent. On any failure
// no agent record survives.
func (m *Manager) SpawnAgent(ctx context.Context, cfg model.NeuralConfig) (string, error) {
	if err := m.requireStarted(); err != nil {
		return "", err
	}
	cfg, err := validateNeuralConfig(cfg)
	if err != nil {
		return "", err
	}

	estimate := estimateAgentMemory(cfg.Architecture)
	id := uuid.NewString()
	start := time.Now()

	if err := m.registry.reserve(id, cfg, estimate, m.cfg.MaxAgents); err != nil {
		return "", err
	}
	if err := m.governor.reserve(estimate); err != nil {
		m.registry.abort(id)
		return "", err
	}

	handle, err := m.kernel.CreateNetwork(ctx, cfg)
	if err != nil {
		m.registry.abort(id)
		m.governor.release(estimate)
		m.monitor.recordError()
		m.events.publish(Event{Kind: EventError, AgentID: id, Error: err.Error()})
		return "", Wrap(CodeKernel, err, "network creation failed")
	}

	m.registry.activate(id, handle, time.Since(start))
	m.monitor.recordOperation()
	m.logger.Info("agent spawned",
		"agent_id", id,
		"architecture", cfg.Architecture,
		"estimated_memory", humanize.IBytes(estimate))
	m.events.publish(Event{Kind: EventAgentSpawned, AgentID: id})
	return id, nil
}

// Agent returns a point-in-time copy of an agent record.
func (m *Manager) Agent(id string) (model.AgentInfo, bool) {
	return m.registry.get(id)
}

// Agents lists all live agents ordered by creation time.
func (m *Manager) Agents() []model.AgentInfo {
	return m.registry.list()
}

// MarkFailed moves an agent to the error state. The record stays in the
// registry so callers can inspect it and decide to terminate; only
// termination removes it.
func (m *Manager) MarkFailed(id string, cause error) error {
	if err := m.requireStarted(); err != nil {
		return err
	}
	err := m.registry.transition(id, []model.AgentState{model.StateActive, model.StateLearning}, model.StateError)
	if err != nil {
		return err
	}
	m.monitor.recordError()
	event := Event{Kind: EventError, AgentID: id}
	if cause != nil {
		event.Error = cause.Error()
	}
	m.events.publish(event)
	return nil
}

// TerminateAgent removes an agent and releases its resources. Unknown
// ids resolve silently without emitting a termination event.
func (m *Manager) TerminateAgent(ctx context.Context, id string) error {
	if err := m.requireStarted(); err != nil {
		return err
	}
	info, handle, ok := m.registry.remove(id)
	if !ok {
		return nil
	}
	m.governor.release(info.MemoryUsage)
	if err := m.kernel.ReleaseNetwork(ctx, handle); err != nil {
		m.logger.Warn("kernel release failed", "agent_id", id, "error", err)
	}
	m.events.publish(Event{Kind: EventAgentTerminated, AgentID: id})
	return nil
}

// Cleanup terminates every agent, releases all reserved memory, emits a
// single cleanup event and closes all subscriptions.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	m.mu.Unlock()

	for _, id := range m.registry.ids() {
		info, handle, ok := m.registry.remove(id)
		if !ok {
			continue
		}
		m.governor.release(info.MemoryUsage)
		if err := m.kernel.ReleaseNetwork(ctx, handle); err != nil {
			m.logger.Warn("kernel release failed", "agent_id", id, "error", err)
		}
		m.events.publish(Event{Kind: EventAgentTerminated, AgentID: id})
	}

	m.events.publish(Event{Kind: EventCleanup})
	m.events.close()
	m.logger.Info("manager cleaned up")
	return nil
}

// Subscribe attaches an event consumer. The returned channel delivers
// all subsequent events in order of occurrence until Unsubscribe or
// Cleanup closes it.
func (m *Manager) Subscribe() (int, <-chan Event) {
	return m.events.subscribe()
}

func (m *Manager) Unsubscribe(id int) {
	m.events.unsubscribe(id)
}

// Snapshot derives the current performance view. It never mutates state.
func (m *Manager) Snapshot() model.PerformanceSnapshot {
	stats := m.registry.stats()
	counts := m.monitor.counts()
	reserved := m.governor.usage()

	return model.PerformanceSnapshot{
		TotalAgentsSpawned:   stats.totalSpawned,
		LiveAgents:           stats.live,
		AverageSpawnTime:     stats.avgSpawnTime,
		TotalInferences:      stats.totalInferences,
		AverageInferenceTime: stats.avgInference,
		MemoryUsage:          reserved,
		KernelMemoryUsage:    m.kernel.MemoryUsage(),
		ActiveTrainingTasks:  counts.trainingTasks,
		TimeoutCount:         counts.timeouts,
		ErrorCount:           counts.errors,
		SystemHealthScore:    m.health(stats, counts, reserved),
	}
}

// Topology returns one node per live agent plus an aggregate health
// figure derived the same way as the system health score.
func (m *Manager) Topology() model.TopologySnapshot {
	agents := m.registry.list()
	nodes := make([]model.TopologyNode, 0, len(agents))
	for _, agent := range agents {
		nodes = append(nodes, model.TopologyNode{
			ID:                 agent.ID,
			Type:               agent.Config.Type,
			State:              agent.State,
			Performance:        agent.LearningProgress,
			MemoryUsage:        agent.MemoryUsage,
			ConnectionStrength: agent.ConnectionStrength,
		})
	}
	return model.TopologySnapshot{
		Nodes:         nodes,
		TotalNodes:    len(nodes),
		NetworkHealth: m.health(m.registry.stats(), m.monitor.counts(), m.governor.usage()),
	}
}

func (m *Manager) health(stats registryStats, counts monitorCounts, reserved uint64) float64 {
	if m.cfg.DisableMonitoring {
		return 100
	}
	failureRate := 0.0
	if counts.operations > 0 {
		failureRate = float64(counts.timeouts+counts.errors) / float64(counts.operations)
	}
	memoryPressure := float64(reserved) / float64(m.cfg.TotalMemoryLimit)
	capacityPressure := float64(stats.live) / float64(m.cfg.MaxAgents)
	return healthScore(failureRate, memoryPressure, capacityPressure)
}
