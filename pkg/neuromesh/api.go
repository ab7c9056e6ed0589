// Package neuromesh is the public entry point to the agent manager. It
// wires the local compute kernel, the session archive and the manager
// into a single client so callers do not touch internal packages.
package neuromesh

import (
	"context"
	"time"

	"neuromesh/internal/kernel"
	"neuromesh/internal/logging"
	"neuromesh/internal/manager"
	"neuromesh/internal/model"
	"neuromesh/internal/storage"
)

const defaultDBPath = "neuromesh.db"

type Options struct {
	// StoreKind selects the session archive backend: "memory" (default)
	// or "sqlite" when built with the sqlite tag.
	StoreKind string
	// DBPath is the sqlite database path. Ignored for the memory store.
	DBPath string

	// Logger receives lifecycle diagnostics. Defaults to a no-op logger.
	Logger logging.Logger

	// Seed initializes kernel weight generation. Zero seeds from the clock.
	Seed int64

	MaxAgents              int
	AgentMemoryLimit       uint64
	TotalMemoryLimit       uint64
	InferenceTimeout       time.Duration
	MaxConcurrentInference int64
	DefaultEpochs          int
	DisableCrossLearning   bool
	DisableMonitoring      bool
	EventBufferSize        int
}

type Client struct {
	store   storage.Store
	manager *manager.Manager
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mgr, err := manager.New(manager.Config{
		Kernel:                 kernel.NewLocal(seed),
		Store:                  store,
		Logger:                 opts.Logger,
		MaxAgents:              opts.MaxAgents,
		AgentMemoryLimit:       opts.AgentMemoryLimit,
		TotalMemoryLimit:       opts.TotalMemoryLimit,
		InferenceTimeout:       opts.InferenceTimeout,
		MaxConcurrentInference: opts.MaxConcurrentInference,
		DefaultEpochs:          opts.DefaultEpochs,
		DisableCrossLearning:   opts.DisableCrossLearning,
		DisableMonitoring:      opts.DisableMonitoring,
		EventBufferSize:        opts.EventBufferSize,
	})
	if err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}

	return &Client{store: store, manager: mgr}, nil
}

// Init prepares the archive and marks the manager ready for operations.
func (c *Client) Init(ctx context.Context) error {
	return c.manager.Init(ctx)
}

// Close terminates all live agents and releases the archive.
func (c *Client) Close(ctx context.Context) error {
	err := c.manager.Cleanup(ctx)
	if closeErr := storage.CloseIfSupported(c.store); err == nil {
		err = closeErr
	}
	return err
}

func (c *Client) SpawnAgent(ctx context.Context, cfg model.NeuralConfig) (string, error) {
	return c.manager.SpawnAgent(ctx, cfg)
}

func (c *Client) TerminateAgent(ctx context.Context, id string) error {
	return c.manager.TerminateAgent(ctx, id)
}

func (c *Client) Agent(id string) (model.AgentInfo, bool) {
	return c.manager.Agent(id)
}

func (c *Client) Agents() []model.AgentInfo {
	return c.manager.Agents()
}

func (c *Client) Infer(ctx context.Context, id string, inputs []float64) ([]float64, error) {
	return c.manager.Infer(ctx, id, inputs)
}

func (c *Client) InferWithTimeout(ctx context.Context, id string, inputs []float64, timeout time.Duration) ([]float64, error) {
	return c.manager.InferWithTimeout(ctx, id, inputs, timeout)
}

func (c *Client) Train(ctx context.Context, id string, data []model.TrainingSample, epochs int) (model.LearningSession, error) {
	return c.manager.Train(ctx, id, data, epochs)
}

func (c *Client) ShareKnowledge(ctx context.Context, sourceID string, targetIDs []string) error {
	return c.manager.ShareKnowledge(ctx, sourceID, targetIDs)
}

func (c *Client) Snapshot() model.PerformanceSnapshot {
	return c.manager.Snapshot()
}

func (c *Client) Topology() model.TopologySnapshot {
	return c.manager.Topology()
}

func (c *Client) Subscribe() (int, <-chan manager.Event) {
	return c.manager.Subscribe()
}

func (c *Client) Unsubscribe(id int) {
	c.manager.Unsubscribe(id)
}

// Sessions lists archived learning sessions, newest first. An empty
// agentID matches all agents; limit <= 0 means no limit.
func (c *Client) Sessions(ctx context.Context, agentID string, limit int) ([]model.LearningSession, error) {
	return c.store.ListSessions(ctx, agentID, limit)
}

// Session fetches one archived learning session by id.
func (c *Client) Session(ctx context.Context, id string) (model.LearningSession, bool, error) {
	return c.store.GetSession(ctx, id)
}
