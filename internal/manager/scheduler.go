package manager

import (
	"context"
	"errors"
	"time"

	"neuromesh/internal/nn"
)

type inferenceResult struct {
	outputs []float64
	err     error
}

// Infer runs a forward pass with the configured default deadline.
func (m *Manager) Infer(ctx context.Context, id string, inputs []float64) ([]float64, error) {
	return m.InferWithTimeout(ctx, id, inputs, m.cfg.InferenceTimeout)
}

// InferWithTimeout races the kernel's forward pass against the deadline.
// On timeout the kernel call is cancelled and the agent record is left
// untouched, so a timed-out inference never corrupts later calls.
func (m *Manager) InferWithTimeout(ctx context.Context, id string, inputs []float64, timeout time.Duration) ([]float64, error) {
	if err := m.requireStarted(); err != nil {
		return nil, err
	}
	if err := nn.ValidateInputs(inputs); err != nil {
		return nil, Wrap(CodeConfiguration, err, "invalid inference inputs")
	}
	if timeout <= 0 {
		timeout = m.cfg.InferenceTimeout
	}

	handle, err := m.registry.inferable(id)
	if err != nil {
		return nil, err
	}

	if err := m.inferSem.Acquire(ctx, 1); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			m.monitor.recordTimeout()
			return nil, Wrap(CodeTimeout, err, "inference queue wait exceeded deadline")
		}
		return nil, err
	}
	defer m.inferSem.Release(1)

	inferCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resultCh := make(chan inferenceResult, 1)
	go func() {
		outputs, err := m.kernel.RunInference(inferCtx, handle, inputs)
		resultCh <- inferenceResult{outputs: outputs, err: err}
	}()

	select {
	case <-inferCtx.Done():
		if errors.Is(inferCtx.Err(), context.DeadlineExceeded) {
			m.monitor.recordTimeout()
			m.logger.Warn("inference timed out", "agent_id", id, "timeout", timeout)
			m.events.publish(Event{Kind: EventError, AgentID: id, Error: "inference timeout"})
			return nil, Errorf(CodeTimeout, "inference exceeded %s deadline for agent %s", timeout, id)
		}
		return nil, inferCtx.Err()

	case result := <-resultCh:
		if result.err != nil {
			if errors.Is(result.err, context.DeadlineExceeded) {
				m.monitor.recordTimeout()
				m.events.publish(Event{Kind: EventError, AgentID: id, Error: "inference timeout"})
				return nil, Errorf(CodeTimeout, "inference exceeded %s deadline for agent %s", timeout, id)
			}
			m.monitor.recordError()
			m.events.publish(Event{Kind: EventError, AgentID: id, Error: result.err.Error()})
			return nil, Wrap(CodeKernel, result.err, "inference failed for agent %s", id)
		}

		elapsed := time.Since(start)
		m.registry.recordInference(id, elapsed)
		m.monitor.recordOperation()
		m.events.publish(Event{
			Kind:          EventInferenceComplete,
			AgentID:       id,
			InferenceTime: elapsed,
			InputSize:     len(inputs),
			OutputSize:    len(result.outputs),
		})
		return result.outputs, nil
	}
}
