package kernel

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"neuromesh/internal/model"
	"neuromesh/internal/nn"
)

const (
	defaultLearningRate = 0.1
	bytesPerParameter   = 8
)

var supportedNetworkTypes = map[string]bool{
	"feedforward": true,
	"mlp":         true,
}

// Local is an in-process kernel backed by dense feedforward networks.
type Local struct {
	rng *rand.Rand

	mu         sync.RWMutex
	networks   map[Handle]*netEntry
	nextHandle Handle
	memory     uint64
	operations uint64
}

// netEntry pairs a network with the training batch size fixed at
// creation time.
type netEntry struct {
	network   *nn.Network
	batchSize int
}

func NewLocal(seed int64) *Local {
	return &Local{
		rng:      rand.New(rand.NewSource(seed)),
		networks: make(map[Handle]*netEntry),
	}
}

func (k *Local) CreateNetwork(ctx context.Context, cfg model.NeuralConfig) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	kind := cfg.Type
	if kind == "" {
		kind = "feedforward"
	}
	if !supportedNetworkTypes[kind] {
		return 0, fmt.Errorf("unsupported network type: %s", kind)
	}
	rate := cfg.LearningRate
	if rate == 0 {
		rate = defaultLearningRate
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 1
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	network, err := nn.New(cfg.Architecture, cfg.Activation, rate, k.rng)
	if err != nil {
		return 0, err
	}
	k.nextHandle++
	h := k.nextHandle
	k.networks[h] = &netEntry{network: network, batchSize: batch}
	k.memory += uint64(network.ParameterCount()) * bytesPerParameter
	k.operations++
	return h, nil
}

func (k *Local) RunInference(ctx context.Context, h Handle, inputs []float64) ([]float64, error) {
	network, err := k.network(h)
	if err != nil {
		return nil, err
	}
	if err := nn.ValidateInputs(inputs); err != nil {
		return nil, err
	}
	k.countOperation()
	return network.Forward(ctx, inputs)
}

func (k *Local) TrainNetwork(ctx context.Context, h Handle, data []model.TrainingSample, epochs int) (TrainResult, error) {
	entry, err := k.entry(h)
	if err != nil {
		return TrainResult{}, err
	}
	k.countOperation()
	result, err := entry.network.Train(ctx, data, epochs, entry.batchSize)
	if err != nil {
		return TrainResult{}, err
	}
	return TrainResult{
		Accuracy:         result.Accuracy,
		Loss:             result.Loss,
		Converged:        result.Converged,
		ConvergenceEpoch: result.ConvergenceEpoch,
	}, nil
}

func (k *Local) SerializeWeights(ctx context.Context, h Handle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	network, err := k.network(h)
	if err != nil {
		return nil, err
	}
	k.countOperation()
	return nn.EncodeWeights(network.Snapshot())
}

func (k *Local) DeserializeWeights(ctx context.Context, h Handle, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	network, err := k.network(h)
	if err != nil {
		return err
	}
	snapshot, err := nn.DecodeWeights(payload)
	if err != nil {
		return err
	}
	k.countOperation()
	return network.Restore(snapshot)
}

func (k *Local) ReleaseNetwork(_ context.Context, h Handle) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry, ok := k.networks[h]
	if !ok {
		return nil
	}
	delete(k.networks, h)
	used := uint64(entry.network.ParameterCount()) * bytesPerParameter
	if used > k.memory {
		k.memory = 0
	} else {
		k.memory -= used
	}
	return nil
}

func (k *Local) MemoryUsage() uint64 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.memory
}

// OperationCount reports how many kernel operations have executed.
func (k *Local) OperationCount() uint64 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.operations
}

func (k *Local) network(h Handle) (*nn.Network, error) {
	entry, err := k.entry(h)
	if err != nil {
		return nil, err
	}
	return entry.network, nil
}

func (k *Local) entry(h Handle) (*netEntry, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	entry, ok := k.networks[h]
	if !ok {
		return nil, fmt.Errorf("unknown network handle: %d", h)
	}
	return entry, nil
}

func (k *Local) countOperation() {
	k.mu.Lock()
	k.operations++
	k.mu.Unlock()
}
