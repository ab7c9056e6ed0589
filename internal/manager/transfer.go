package manager

import "context"

// ShareKnowledge serializes the source agent's parameters once and
// installs the same payload into every target, in the order given. The
// call validates every named agent before mutating any of them.
func (m *Manager) ShareKnowledge(ctx context.Context, sourceID string, targetIDs []string) error {
	if err := m.requireStarted(); err != nil {
		return err
	}
	if m.cfg.DisableCrossLearning {
		return Errorf(CodeFeatureDisabled, "cross-learning is disabled")
	}
	if len(targetIDs) == 0 {
		return Errorf(CodeConfiguration, "at least one target agent is required")
	}

	sourceHandle, targetHandles, err := m.registry.handlesFor(sourceID, targetIDs)
	if err != nil {
		return err
	}

	payload, err := m.kernel.SerializeWeights(ctx, sourceHandle)
	if err != nil {
		m.monitor.recordError()
		m.events.publish(Event{Kind: EventError, AgentID: sourceID, Error: err.Error()})
		return Wrap(CodeKernel, err, "weight serialization failed for agent %s", sourceID)
	}

	for i, handle := range targetHandles {
		if err := m.kernel.DeserializeWeights(ctx, handle, payload); err != nil {
			m.monitor.recordError()
			m.events.publish(Event{Kind: EventError, AgentID: targetIDs[i], Error: err.Error()})
			return Wrap(CodeKernel, err, "weight install failed for agent %s", targetIDs[i])
		}
	}

	m.monitor.recordOperation()
	m.logger.Info("knowledge shared", "source", sourceID, "targets", len(targetIDs))
	m.events.publish(Event{
		Kind:           EventKnowledgeShared,
		SourceAgentID:  sourceID,
		TargetAgentIDs: append([]string(nil), targetIDs...),
	})
	return nil
}
