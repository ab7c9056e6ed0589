package nn

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"neuromesh/internal/model"
)

const convergenceThreshold = 1e-3

// Network is a dense feedforward network. weights[l][j][i] connects input
// i of layer l to neuron j of layer l+1. Concurrent forward passes are
// safe; training and restore take the write lock.
type Network struct {
	layers       []int
	learningRate float64

	mu         sync.RWMutex
	activation string
	weights    [][][]float64
	biases     [][]float64
}

// TrainResult summarizes one multi-epoch training run.
type TrainResult struct {
	Accuracy         float64
	Loss             float64
	Converged        bool
	ConvergenceEpoch int
}

func New(layers []int, activation string, learningRate float64, rng *rand.Rand) (*Network, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("architecture must not be empty")
	}
	for i, width := range layers {
		if width <= 0 {
			return nil, fmt.Errorf("layer %d width must be positive, got %d", i, width)
		}
	}
	if learningRate <= 0 || learningRate > 1 {
		return nil, fmt.Errorf("learning rate must be in (0, 1], got %g", learningRate)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	activation = NormalizeActivation(activation)

	n := &Network{
		layers:       append([]int(nil), layers...),
		activation:   activation,
		learningRate: learningRate,
		weights:      make([][][]float64, len(layers)-1),
		biases:       make([][]float64, len(layers)-1),
	}
	for l := 0; l < len(layers)-1; l++ {
		fanIn := layers[l]
		scale := 1.0 / math.Sqrt(float64(fanIn))
		n.weights[l] = make([][]float64, layers[l+1])
		n.biases[l] = make([]float64, layers[l+1])
		for j := range n.weights[l] {
			row := make([]float64, fanIn)
			for i := range row {
				row[i] = (rng.Float64()*2 - 1) * scale
			}
			n.weights[l][j] = row
		}
	}
	return n, nil
}

func (n *Network) InputSize() int  { return n.layers[0] }
func (n *Network) OutputSize() int { return n.layers[len(n.layers)-1] }

func (n *Network) Layers() []int {
	return append([]int(nil), n.layers...)
}

func (n *Network) Activation() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.activation
}

// ParameterCount returns the number of weights and biases held by the
// architecture: the sum of adjacent-layer products plus hidden and
// output layer widths.
func ParameterCount(layers []int) int {
	total := 0
	for l := 0; l < len(layers)-1; l++ {
		total += layers[l]*layers[l+1] + layers[l+1]
	}
	return total
}

func (n *Network) ParameterCount() int {
	return ParameterCount(n.layers)
}

// Forward runs one inference pass. The context is checked between layer
// evaluations so a cancelled call stops mid-network instead of running
// to completion.
func (n *Network) Forward(ctx context.Context, inputs []float64) ([]float64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, activations, err := n.forward(ctx, inputs)
	if err != nil {
		return nil, err
	}
	out := activations[len(activations)-1]
	return append([]float64(nil), out...), nil
}

// forward returns pre-activation sums and activations per layer. Index 0
// of activations holds the (saturated) inputs; sums[0] is unused.
func (n *Network) forward(ctx context.Context, inputs []float64) ([][]float64, [][]float64, error) {
	if len(inputs) != n.InputSize() {
		return nil, nil, fmt.Errorf("input size mismatch: got=%d want=%d", len(inputs), n.InputSize())
	}
	fn, err := GetActivation(n.activation)
	if err != nil {
		return nil, nil, err
	}

	sums := make([][]float64, len(n.layers))
	activations := make([][]float64, len(n.layers))
	activations[0] = make([]float64, len(inputs))
	for i, v := range inputs {
		activations[0][i] = Saturation(v)
	}

	for l := 0; l < len(n.layers)-1; l++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		prev := activations[l]
		sums[l+1] = make([]float64, n.layers[l+1])
		activations[l+1] = make([]float64, n.layers[l+1])
		for j := range n.weights[l] {
			total := n.biases[l][j]
			for i, w := range n.weights[l][j] {
				total += prev[i] * w
			}
			sums[l+1][j] = total
			activations[l+1][j] = Saturation(fn(total))
		}
	}
	return sums, activations, nil
}

// Train runs mini-batch stochastic gradient descent over the samples for
// the given epoch count. Gradients within a batch are averaged before
// the update is applied.
func (n *Network) Train(ctx context.Context, samples []model.TrainingSample, epochs, batchSize int) (TrainResult, error) {
	if len(samples) == 0 {
		return TrainResult{}, fmt.Errorf("training data must not be empty")
	}
	if epochs <= 0 {
		return TrainResult{}, fmt.Errorf("epochs must be positive, got %d", epochs)
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	for i, sample := range samples {
		if len(sample.Inputs) != n.InputSize() {
			return TrainResult{}, fmt.Errorf("sample %d input size mismatch: got=%d want=%d", i, len(sample.Inputs), n.InputSize())
		}
		if len(sample.Targets) != n.OutputSize() {
			return TrainResult{}, fmt.Errorf("sample %d target size mismatch: got=%d want=%d", i, len(sample.Targets), n.OutputSize())
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	result := TrainResult{}
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return TrainResult{}, err
		}
		loss, err := n.trainEpoch(ctx, samples, batchSize)
		if err != nil {
			return TrainResult{}, err
		}
		result.Loss = loss
		if !result.Converged && loss <= convergenceThreshold {
			result.Converged = true
			result.ConvergenceEpoch = epoch + 1
		}
	}
	result.Accuracy = accuracyFromLoss(result.Loss)
	return result, nil
}

func (n *Network) trainEpoch(ctx context.Context, samples []model.TrainingSample, batchSize int) (float64, error) {
	totalLoss := 0.0
	for start := 0; start < len(samples); start += batchSize {
		end := start + batchSize
		if end > len(samples) {
			end = len(samples)
		}
		batch := samples[start:end]

		gradW, gradB := n.zeroGradients()
		for _, sample := range batch {
			loss, err := n.accumulate(ctx, sample, gradW, gradB)
			if err != nil {
				return 0, err
			}
			totalLoss += loss
		}

		step := n.learningRate / float64(len(batch))
		for l := range n.weights {
			for j := range n.weights[l] {
				for i := range n.weights[l][j] {
					n.weights[l][j][i] -= step * gradW[l][j][i]
				}
				n.biases[l][j] -= step * gradB[l][j]
			}
		}
	}
	return totalLoss / float64(len(samples)), nil
}

func (n *Network) zeroGradients() ([][][]float64, [][]float64) {
	gradW := make([][][]float64, len(n.weights))
	gradB := make([][]float64, len(n.biases))
	for l := range n.weights {
		gradW[l] = make([][]float64, len(n.weights[l]))
		gradB[l] = make([]float64, len(n.biases[l]))
		for j := range n.weights[l] {
			gradW[l][j] = make([]float64, len(n.weights[l][j]))
		}
	}
	return gradW, gradB
}

// accumulate adds one sample's backpropagated gradient into gradW/gradB
// and returns the sample's mean squared error.
func (n *Network) accumulate(ctx context.Context, sample model.TrainingSample, gradW [][][]float64, gradB [][]float64) (float64, error) {
	sums, activations, err := n.forward(ctx, sample.Inputs)
	if err != nil {
		return 0, err
	}

	last := len(n.layers) - 1
	output := activations[last]
	loss := 0.0
	delta := make([]float64, len(output))
	for j := range output {
		diff := output[j] - sample.Targets[j]
		loss += diff * diff
		d, err := Derivative(n.activation, sums[last][j])
		if err != nil {
			return 0, err
		}
		delta[j] = diff * d
	}
	loss /= float64(len(output))

	for l := last - 1; l >= 0; l-- {
		prev := activations[l]
		for j := range n.weights[l] {
			for i := range n.weights[l][j] {
				gradW[l][j][i] += delta[j] * prev[i]
			}
			gradB[l][j] += delta[j]
		}
		if l == 0 {
			break
		}
		next := make([]float64, n.layers[l])
		for i := 0; i < n.layers[l]; i++ {
			total := 0.0
			for j := range n.weights[l] {
				total += n.weights[l][j][i] * delta[j]
			}
			d, err := Derivative(n.activation, sums[l][i])
			if err != nil {
				return 0, err
			}
			next[i] = total * d
		}
		delta = next
	}
	return loss, nil
}

func accuracyFromLoss(loss float64) float64 {
	accuracy := 1 - loss
	if accuracy < 0 {
		return 0
	}
	if accuracy > 1 {
		return 1
	}
	return accuracy
}
