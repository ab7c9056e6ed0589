package manager

import (
	"sort"
	"sync"
	"time"

	"neuromesh/internal/kernel"
	"neuromesh/internal/model"
)

// agentRecord is the registry-owned mutable state of one agent. It never
// escapes the registry; callers receive model.AgentInfo copies.
type agentRecord struct {
	id                 string
	config             model.NeuralConfig
	handle             kernel.Handle
	state              model.AgentState
	createdAt          time.Time
	lastActive         time.Time
	memoryUsage        uint64
	totalInferences    uint64
	avgInferenceTime   time.Duration
	learningProgress   float64
	connectionStrength float64
}

func (r *agentRecord) info() model.AgentInfo {
	return model.AgentInfo{
		ID:                   r.id,
		Config:               r.config,
		State:                r.state,
		CreatedAt:            r.createdAt,
		LastActive:           r.lastActive,
		MemoryUsage:          r.memoryUsage,
		TotalInferences:      r.totalInferences,
		AverageInferenceTime: r.avgInferenceTime,
		LearningProgress:     r.learningProgress,
		ConnectionStrength:   r.connectionStrength,
	}
}

// registry is the single source of truth for agent existence and state.
// Every structural mutation goes through its mutex, which is what makes
// state transitions an effective mutual-exclusion point.
type registry struct {
	mu              sync.Mutex
	agents          map[string]*agentRecord
	totalSpawned    uint64
	avgSpawnTime    time.Duration
	totalInferences uint64
	avgInference    time.Duration
}

func newRegistry() *registry {
	return &registry{agents: make(map[string]*agentRecord)}
}

// reserve admits a new agent in state Initializing, holding its pool slot
// while the kernel creates the network. The caller must follow up with
// activate or abort.
func (r *registry) reserve(id string, cfg model.NeuralConfig, memory uint64, maxAgents int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.agents) >= maxAgents {
		return Errorf(CodeCapacity, "agent pool full: %d of %d slots in use", len(r.agents), maxAgents)
	}
	now := time.Now()
	r.agents[id] = &agentRecord{
		id:                 id,
		config:             cfg,
		state:              model.StateInitializing,
		createdAt:          now,
		lastActive:         now,
		memoryUsage:        memory,
		connectionStrength: 1.0,
	}
	return nil
}

// activate finalizes a reserved agent after successful network creation.
func (r *registry) activate(id string, handle kernel.Handle, spawnTime time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.agents[id]
	if !ok {
		return
	}
	rec.handle = handle
	rec.state = model.StateActive
	rec.lastActive = time.Now()

	r.totalSpawned++
	r.avgSpawnTime += (spawnTime - r.avgSpawnTime) / time.Duration(r.totalSpawned)
}

// abort drops a reserved agent whose network creation failed. No partial
// state survives.
func (r *registry) abort(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, id)
}

func (r *registry) get(id string) (model.AgentInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.agents[id]
	if !ok {
		return model.AgentInfo{}, false
	}
	return rec.info(), true
}

func (r *registry) list() []model.AgentInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.AgentInfo, 0, len(r.agents))
	for _, rec := range r.agents {
		out = append(out, rec.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *registry) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.agents))
	for id := range r.agents {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *registry) handleOf(id string) (kernel.Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.agents[id]
	if !ok {
		return 0, false
	}
	return rec.handle, true
}

// inferable returns the kernel handle of an agent that may serve
// inference right now. Inference does not transition state, but a
// training or failed agent rejects the call.
func (r *registry) inferable(id string) (kernel.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.agents[id]
	if !ok {
		return 0, Errorf(CodeNotFound, "agent not found: %s", id)
	}
	switch rec.state {
	case model.StateActive:
		return rec.handle, nil
	case model.StateLearning:
		return 0, Errorf(CodeStateConflict, "agent %s is training", id)
	default:
		return 0, Errorf(CodeStateConflict, "agent %s is %s", id, rec.state)
	}
}

// handlesFor resolves the source and every target handle under one lock
// so knowledge transfer either sees all named agents or fails before
// touching any of them.
func (r *registry) handlesFor(sourceID string, targetIDs []string) (kernel.Handle, []kernel.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	source, ok := r.agents[sourceID]
	if !ok {
		return 0, nil, Errorf(CodeNotFound, "source agent not found: %s", sourceID)
	}
	targets := make([]kernel.Handle, len(targetIDs))
	for i, id := range targetIDs {
		rec, ok := r.agents[id]
		if !ok {
			return 0, nil, Errorf(CodeNotFound, "target agent not found: %s", id)
		}
		targets[i] = rec.handle
	}
	return source.handle, targets, nil
}

// remove deletes an agent and returns its final record. Removing an
// unknown id is a no-op.
func (r *registry) remove(id string) (model.AgentInfo, kernel.Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.agents[id]
	if !ok {
		return model.AgentInfo{}, 0, false
	}
	rec.state = model.StateTerminating
	delete(r.agents, id)
	return rec.info(), rec.handle, true
}

// transition atomically moves an agent between states if its current
// state is in the allowed from-set. This is the choke point that keeps
// structural mutations of one agent from interleaving.
func (r *registry) transition(id string, from []model.AgentState, to model.AgentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.agents[id]
	if !ok {
		return Errorf(CodeNotFound, "agent not found: %s", id)
	}
	for _, state := range from {
		if rec.state == state {
			rec.state = to
			rec.lastActive = time.Now()
			return nil
		}
	}
	return Errorf(CodeStateConflict, "agent %s is %s, cannot move to %s", id, rec.state, to)
}

// recordInference folds one successful inference into the agent's
// counters and the registry-lifetime totals under the registry lock,
// preventing lost updates when calls for the same agent complete
// concurrently. The lifetime totals survive agent termination.
func (r *registry) recordInference(id string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalInferences++
	r.avgInference += (elapsed - r.avgInference) / time.Duration(r.totalInferences)

	rec, ok := r.agents[id]
	if !ok {
		return
	}
	rec.totalInferences++
	rec.avgInferenceTime += (elapsed - rec.avgInferenceTime) / time.Duration(rec.totalInferences)
	rec.lastActive = time.Now()
}

func (r *registry) recordTraining(id string, progress float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.agents[id]
	if !ok {
		return
	}
	rec.learningProgress = progress
	rec.lastActive = time.Now()
}

type registryStats struct {
	live            int
	totalSpawned    uint64
	avgSpawnTime    time.Duration
	totalInferences uint64
	avgInference    time.Duration
}

func (r *registry) stats() registryStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return registryStats{
		live:            len(r.agents),
		totalSpawned:    r.totalSpawned,
		avgSpawnTime:    r.avgSpawnTime,
		totalInferences: r.totalInferences,
		avgInference:    r.avgInference,
	}
}
