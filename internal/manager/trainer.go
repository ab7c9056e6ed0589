package manager

import (
	"context"
	"time"

	"github.com/google/uuid"

	"neuromesh/internal/model"
	"neuromesh/internal/storage"
)

// Train drives one multi-epoch training session as a single lifecycle
// episode: the agent moves Active -> Learning for the call's duration
// and back to Active on completion, even when the kernel fails.
func (m *Manager) Train(ctx context.Context, id string, data []model.TrainingSample, epochs int) (model.LearningSession, error) {
	if err := m.requireStarted(); err != nil {
		return model.LearningSession{}, err
	}
	if len(data) == 0 {
		return model.LearningSession{}, Errorf(CodeConfiguration, "training data must not be empty")
	}

	agent, ok := m.registry.get(id)
	if !ok {
		return model.LearningSession{}, Errorf(CodeNotFound, "agent not found: %s", id)
	}
	if epochs <= 0 {
		epochs = agent.Config.Epochs
	}
	if epochs <= 0 {
		epochs = m.cfg.DefaultEpochs
	}

	if err := m.registry.transition(id, []model.AgentState{model.StateActive}, model.StateLearning); err != nil {
		return model.LearningSession{}, err
	}
	m.monitor.trainingStarted()

	handle, _ := m.registry.handleOf(id)
	start := time.Now()
	result, trainErr := m.kernel.TrainNetwork(ctx, handle, data, epochs)

	// Training failure is recoverable: the agent returns to Active either
	// way. The transition can fail only if the agent was terminated while
	// learning, which is fine to ignore.
	_ = m.registry.transition(id, []model.AgentState{model.StateLearning}, model.StateActive)
	m.monitor.trainingFinished()

	if trainErr != nil {
		m.monitor.recordError()
		m.events.publish(Event{Kind: EventError, AgentID: id, Error: trainErr.Error()})
		return model.LearningSession{}, Wrap(CodeKernel, trainErr, "training failed for agent %s", id)
	}

	session := model.LearningSession{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:               uuid.NewString(),
		AgentID:          id,
		Epochs:           epochs,
		DataPoints:       len(data),
		FinalAccuracy:    result.Accuracy,
		FinalError:       result.Loss,
		Converged:        result.Converged,
		ConvergenceEpoch: result.ConvergenceEpoch,
		StartedAt:        start,
		CompletedAt:      time.Now(),
	}

	m.registry.recordTraining(id, result.Accuracy)
	m.monitor.recordOperation()

	if m.store != nil {
		if err := m.store.SaveSession(ctx, session); err != nil {
			m.logger.Warn("session archive write failed", "session_id", session.ID, "error", err)
		}
	}

	m.logger.Info("training complete",
		"agent_id", id,
		"epochs", epochs,
		"accuracy", result.Accuracy,
		"converged", result.Converged)
	m.events.publish(Event{Kind: EventLearningComplete, AgentID: id, Session: &session})
	return session, nil
}
