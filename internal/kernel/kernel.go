// Package kernel defines the boundary to the numeric compute backend.
// The manager treats the kernel as an opaque, possibly slow, possibly
// failing collaborator; Local provides an in-process implementation
// backed by internal/nn.
package kernel

import (
	"context"

	"neuromesh/internal/model"
)

// Handle identifies one network instance inside a kernel.
type Handle uint64

// TrainResult is the kernel-reported outcome of a training run.
type TrainResult struct {
	Accuracy         float64
	Loss             float64
	Converged        bool
	ConvergenceEpoch int
}

// Kernel executes network creation, inference, training and weight
// (de)serialization. All blocking operations take a context; a cancelled
// context aborts the call.
type Kernel interface {
	CreateNetwork(ctx context.Context, cfg model.NeuralConfig) (Handle, error)
	RunInference(ctx context.Context, h Handle, inputs []float64) ([]float64, error)
	TrainNetwork(ctx context.Context, h Handle, data []model.TrainingSample, epochs int) (TrainResult, error)
	SerializeWeights(ctx context.Context, h Handle) ([]byte, error)
	DeserializeWeights(ctx context.Context, h Handle, payload []byte) error
	ReleaseNetwork(ctx context.Context, h Handle) error

	// MemoryUsage reports the kernel's own accounting of bytes held by
	// live networks. It corroborates, but does not replace, the memory
	// governor's estimates.
	MemoryUsage() uint64
}
