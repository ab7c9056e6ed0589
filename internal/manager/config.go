package manager

import (
	"math"
	"time"

	"neuromesh/internal/kernel"
	"neuromesh/internal/logging"
	"neuromesh/internal/model"
	"neuromesh/internal/nn"
	"neuromesh/internal/storage"
)

// Config is the recognized option surface of the manager. Zero values
// are replaced with defaults by normalizeConfig; only Kernel is required.
type Config struct {
	// Kernel executes all numeric work. Required.
	Kernel kernel.Kernel

	// Store, when set, archives completed learning sessions. Optional.
	Store storage.Store

	// Logger receives lifecycle diagnostics. Defaults to a no-op logger.
	Logger logging.Logger

	// MaxAgents caps the number of concurrently registered agents.
	MaxAgents int

	// AgentMemoryLimit caps the estimated footprint of a single agent.
	AgentMemoryLimit uint64

	// TotalMemoryLimit caps the aggregate estimated footprint.
	TotalMemoryLimit uint64

	// InferenceTimeout is the per-call deadline applied when the caller
	// does not supply one.
	InferenceTimeout time.Duration

	// MaxConcurrentInference bounds in-flight kernel inference calls.
	MaxConcurrentInference int64

	// DefaultEpochs applies when a training call passes epochs <= 0 and
	// the agent's configuration does not set one.
	DefaultEpochs int

	// DisableCrossLearning turns off knowledge transfer between agents.
	DisableCrossLearning bool

	// DisableMonitoring turns off performance counters and health
	// derivation. Snapshots are still served, with a neutral score.
	DisableMonitoring bool

	// EventBufferSize is the per-subscriber event channel capacity.
	EventBufferSize int
}

func defaultConfig() Config {
	return Config{
		MaxAgents:              10,
		AgentMemoryLimit:       64 << 20,
		TotalMemoryLimit:       512 << 20,
		InferenceTimeout:       5 * time.Second,
		MaxConcurrentInference: 16,
		DefaultEpochs:          10,
		EventBufferSize:        128,
	}
}

func normalizeConfig(cfg Config) Config {
	def := defaultConfig()
	if cfg.Logger == nil {
		cfg.Logger = logging.NoOp{}
	}
	if cfg.MaxAgents <= 0 {
		cfg.MaxAgents = def.MaxAgents
	}
	if cfg.AgentMemoryLimit == 0 {
		cfg.AgentMemoryLimit = def.AgentMemoryLimit
	}
	if cfg.TotalMemoryLimit == 0 {
		cfg.TotalMemoryLimit = def.TotalMemoryLimit
	}
	if cfg.TotalMemoryLimit < cfg.AgentMemoryLimit {
		cfg.TotalMemoryLimit = cfg.AgentMemoryLimit
	}
	if cfg.InferenceTimeout <= 0 {
		cfg.InferenceTimeout = def.InferenceTimeout
	}
	if cfg.MaxConcurrentInference <= 0 {
		cfg.MaxConcurrentInference = def.MaxConcurrentInference
	}
	if cfg.DefaultEpochs <= 0 {
		cfg.DefaultEpochs = def.DefaultEpochs
	}
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = def.EventBufferSize
	}
	return cfg
}

var knownNetworkTypes = map[string]bool{
	"feedforward": true,
	"mlp":         true,
}

// validateNeuralConfig checks a spawn-time configuration and returns a
// normalized copy. Unknown activation names degrade to the default;
// everything else invalid is rejected.
func validateNeuralConfig(cfg model.NeuralConfig) (model.NeuralConfig, error) {
	if len(cfg.Architecture) == 0 {
		return model.NeuralConfig{}, Errorf(CodeConfiguration, "architecture must not be empty")
	}
	for i, width := range cfg.Architecture {
		if width <= 0 {
			return model.NeuralConfig{}, Errorf(CodeConfiguration, "architecture layer %d must be positive, got %d", i, width)
		}
	}
	if cfg.LearningRate != 0 {
		if math.IsNaN(cfg.LearningRate) || cfg.LearningRate <= 0 || cfg.LearningRate > 1 {
			return model.NeuralConfig{}, Errorf(CodeConfiguration, "learning rate must be in (0, 1], got %g", cfg.LearningRate)
		}
	}
	if cfg.Type == "" {
		cfg.Type = "feedforward"
	}
	if !knownNetworkTypes[cfg.Type] {
		return model.NeuralConfig{}, Errorf(CodeConfiguration, "unknown network type: %s", cfg.Type)
	}
	cfg.Activation = nn.NormalizeActivation(cfg.Activation)
	if cfg.BatchSize < 0 {
		return model.NeuralConfig{}, Errorf(CodeConfiguration, "batch size must not be negative, got %d", cfg.BatchSize)
	}
	if cfg.Epochs < 0 {
		return model.NeuralConfig{}, Errorf(CodeConfiguration, "epochs must not be negative, got %d", cfg.Epochs)
	}
	cfg.Architecture = append([]int(nil), cfg.Architecture...)
	return cfg, nil
}
