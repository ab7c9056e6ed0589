package model

import "time"

// VersionedRecord captures schema and codec evolution for archived data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// AgentState is the lifecycle state of a managed neural agent.
type AgentState string

const (
	StateInitializing AgentState = "initializing"
	StateActive       AgentState = "active"
	StateLearning     AgentState = "learning"
	StateTerminating  AgentState = "terminating"
	StateError        AgentState = "error"
)

// NeuralConfig describes the network backing an agent. It is immutable
// once the agent has been spawned.
type NeuralConfig struct {
	Type         string  `json:"type"`
	Architecture []int   `json:"architecture"`
	Activation   string  `json:"activation"`
	LearningRate float64 `json:"learning_rate,omitempty"`
	BatchSize    int     `json:"batch_size,omitempty"`
	Epochs       int     `json:"epochs,omitempty"`
}

// AgentInfo is a point-in-time copy of an agent record. Mutable agent
// state lives only inside the registry; callers always receive copies.
type AgentInfo struct {
	ID                   string        `json:"id"`
	Config               NeuralConfig  `json:"config"`
	State                AgentState    `json:"state"`
	CreatedAt            time.Time     `json:"created_at"`
	LastActive           time.Time     `json:"last_active"`
	MemoryUsage          uint64        `json:"memory_usage"`
	TotalInferences      uint64        `json:"total_inferences"`
	AverageInferenceTime time.Duration `json:"average_inference_time"`
	LearningProgress     float64       `json:"learning_progress"`
	ConnectionStrength   float64       `json:"connection_strength"`
}

// TrainingSample pairs one input vector with its expected output.
type TrainingSample struct {
	Inputs  []float64 `json:"inputs"`
	Targets []float64 `json:"targets"`
}

// LearningSession records the outcome of one training invocation.
// Sessions are never mutated after creation.
type LearningSession struct {
	VersionedRecord
	ID               string    `json:"id"`
	AgentID          string    `json:"agent_id"`
	Epochs           int       `json:"epochs"`
	DataPoints       int       `json:"data_points"`
	FinalAccuracy    float64   `json:"final_accuracy"`
	FinalError       float64   `json:"final_error"`
	Converged        bool      `json:"converged"`
	ConvergenceEpoch int       `json:"convergence_epoch,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
}

// PerformanceSnapshot aggregates manager-wide counters. It is derived on
// demand and carries no identity.
type PerformanceSnapshot struct {
	TotalAgentsSpawned   uint64        `json:"total_agents_spawned"`
	LiveAgents           int           `json:"live_agents"`
	AverageSpawnTime     time.Duration `json:"average_spawn_time"`
	TotalInferences      uint64        `json:"total_inferences"`
	AverageInferenceTime time.Duration `json:"average_inference_time"`
	MemoryUsage          uint64        `json:"memory_usage"`
	KernelMemoryUsage    uint64        `json:"kernel_memory_usage"`
	ActiveTrainingTasks  int           `json:"active_training_tasks"`
	TimeoutCount         uint64        `json:"timeout_count"`
	ErrorCount           uint64        `json:"error_count"`
	SystemHealthScore    float64       `json:"system_health_score"`
}

// TopologyNode summarizes one live agent for topology views.
type TopologyNode struct {
	ID                 string     `json:"id"`
	Type               string     `json:"type"`
	State              AgentState `json:"state"`
	Performance        float64    `json:"performance"`
	MemoryUsage        uint64     `json:"memory_usage"`
	ConnectionStrength float64    `json:"connection_strength"`
}

// TopologySnapshot is a point-in-time view of all live agents.
type TopologySnapshot struct {
	Nodes         []TopologyNode `json:"nodes"`
	TotalNodes    int            `json:"total_nodes"`
	NetworkHealth float64        `json:"network_health"`
}
