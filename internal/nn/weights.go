package nn

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	CurrentWeightsSchemaVersion = 1
	CurrentWeightsCodecVersion  = 1
)

var ErrWeightsVersion = errors.New("weights version mismatch")

// WeightsSnapshot is the wire form of a network's learned parameters.
type WeightsSnapshot struct {
	SchemaVersion int           `json:"schema_version"`
	CodecVersion  int           `json:"codec_version"`
	Layers        []int         `json:"layers"`
	Activation    string        `json:"activation"`
	Weights       [][][]float64 `json:"weights"`
	Biases        [][]float64   `json:"biases"`
}

// Snapshot copies the network's parameters into a serializable form.
func (n *Network) Snapshot() WeightsSnapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()

	weights := make([][][]float64, len(n.weights))
	biases := make([][]float64, len(n.biases))
	for l := range n.weights {
		weights[l] = make([][]float64, len(n.weights[l]))
		for j := range n.weights[l] {
			weights[l][j] = append([]float64(nil), n.weights[l][j]...)
		}
		biases[l] = append([]float64(nil), n.biases[l]...)
	}
	return WeightsSnapshot{
		SchemaVersion: CurrentWeightsSchemaVersion,
		CodecVersion:  CurrentWeightsCodecVersion,
		Layers:        append([]int(nil), n.layers...),
		Activation:    n.activation,
		Weights:       weights,
		Biases:        biases,
	}
}

// Restore installs a snapshot's parameters into the network. The snapshot
// must describe the same architecture.
func (n *Network) Restore(snapshot WeightsSnapshot) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(snapshot.Layers) != len(n.layers) {
		return fmt.Errorf("architecture mismatch: got=%v want=%v", snapshot.Layers, n.layers)
	}
	for i, width := range snapshot.Layers {
		if width != n.layers[i] {
			return fmt.Errorf("architecture mismatch: got=%v want=%v", snapshot.Layers, n.layers)
		}
	}
	for l := range n.weights {
		if l >= len(snapshot.Weights) || len(snapshot.Weights[l]) != len(n.weights[l]) {
			return fmt.Errorf("weight shape mismatch at layer %d", l)
		}
		for j := range n.weights[l] {
			if len(snapshot.Weights[l][j]) != len(n.weights[l][j]) {
				return fmt.Errorf("weight shape mismatch at layer %d", l)
			}
		}
		if l >= len(snapshot.Biases) || len(snapshot.Biases[l]) != len(n.biases[l]) {
			return fmt.Errorf("bias shape mismatch at layer %d", l)
		}
	}

	for l := range n.weights {
		for j := range n.weights[l] {
			copy(n.weights[l][j], snapshot.Weights[l][j])
		}
		copy(n.biases[l], snapshot.Biases[l])
	}
	if snapshot.Activation != "" {
		n.activation = NormalizeActivation(snapshot.Activation)
	}
	return nil
}

func EncodeWeights(snapshot WeightsSnapshot) ([]byte, error) {
	return json.Marshal(snapshot)
}

func DecodeWeights(data []byte) (WeightsSnapshot, error) {
	var snapshot WeightsSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return WeightsSnapshot{}, err
	}
	if snapshot.SchemaVersion != CurrentWeightsSchemaVersion || snapshot.CodecVersion != CurrentWeightsCodecVersion {
		return WeightsSnapshot{}, fmt.Errorf("%w: schema=%d codec=%d", ErrWeightsVersion, snapshot.SchemaVersion, snapshot.CodecVersion)
	}
	return snapshot, nil
}
