package nn

import (
	"fmt"
	"math"
)

// SaturationLimit bounds every value that enters or leaves a network.
// It matches the reference kernel's security bound on input magnitude.
const SaturationLimit = 1000.0

// MaxInputSize caps the number of elements accepted by a single forward
// pass, matching the reference kernel's input size limit.
const MaxInputSize = 10000

// Saturation clamps value to the symmetric range [-SaturationLimit, SaturationLimit].
func Saturation(value float64) float64 {
	return SaturationWithSpread(value, SaturationLimit)
}

// SaturationWithSpread clamps value to the symmetric range [-spread, spread].
func SaturationWithSpread(value, spread float64) float64 {
	if spread < 0 {
		spread = -spread
	}
	if value > spread {
		return spread
	}
	if value < -spread {
		return -spread
	}
	return value
}

// ValidateInputs rejects empty, oversized or non-finite input vectors.
func ValidateInputs(inputs []float64) error {
	if len(inputs) == 0 {
		return fmt.Errorf("inputs must not be empty")
	}
	if len(inputs) > MaxInputSize {
		return fmt.Errorf("input size %d exceeds limit %d", len(inputs), MaxInputSize)
	}
	for i, value := range inputs {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("input %d is not finite", i)
		}
		if math.Abs(value) > SaturationLimit {
			return fmt.Errorf("input %d magnitude %.2f exceeds bound %.0f", i, math.Abs(value), SaturationLimit)
		}
	}
	return nil
}

// Avg returns the arithmetic mean of values.
func Avg(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("values must not be empty")
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values)), nil
}

// Std returns population standard deviation.
func Std(values []float64) (float64, error) {
	mean, err := Avg(values)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, value := range values {
		diff := value - mean
		total += diff * diff
	}
	return math.Sqrt(total / float64(len(values))), nil
}
