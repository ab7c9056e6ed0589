package neuromesh

import (
	"context"
	"testing"

	"neuromesh/internal/manager"
	"neuromesh/internal/model"
)

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	client, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close(context.Background())
	})
	return client
}

func TestClientRejectsUnknownStore(t *testing.T) {
	if _, err := New(Options{StoreKind: "etcd"}); err == nil {
		t.Fatal("unknown store accepted")
	}
}

func TestClientEndToEnd(t *testing.T) {
	client := newTestClient(t, Options{})
	ctx := context.Background()

	id, err := client.SpawnAgent(ctx, model.NeuralConfig{Architecture: []int{2, 4, 1}})
	if err != nil {
		t.Fatalf("SpawnAgent: %v", err)
	}

	out, err := client.Infer(ctx, id, []float64{0.5, -0.5})
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("output size = %d, want 1", len(out))
	}

	data := []model.TrainingSample{
		{Inputs: []float64{0, 0}, Targets: []float64{0}},
		{Inputs: []float64{0, 1}, Targets: []float64{1}},
		{Inputs: []float64{1, 0}, Targets: []float64{1}},
		{Inputs: []float64{1, 1}, Targets: []float64{0}},
	}
	session, err := client.Train(ctx, id, data, 5)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if session.AgentID != id || session.Epochs != 5 {
		t.Fatalf("unexpected session: %+v", session)
	}

	sessions, err := client.Sessions(ctx, id, 0)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != session.ID {
		t.Fatalf("archived sessions = %+v", sessions)
	}
	got, ok, err := client.Session(ctx, session.ID)
	if err != nil || !ok {
		t.Fatalf("Session: ok=%t err=%v", ok, err)
	}
	if got.AgentID != id {
		t.Fatalf("archived agent = %q", got.AgentID)
	}

	snap := client.Snapshot()
	if snap.LiveAgents != 1 || snap.TotalInferences != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	topo := client.Topology()
	if topo.TotalNodes != 1 {
		t.Fatalf("topology nodes = %d, want 1", topo.TotalNodes)
	}
}

func TestClientShareKnowledge(t *testing.T) {
	client := newTestClient(t, Options{})
	ctx := context.Background()

	source, err := client.SpawnAgent(ctx, model.NeuralConfig{Architecture: []int{2, 1}})
	if err != nil {
		t.Fatalf("SpawnAgent: %v", err)
	}
	target, err := client.SpawnAgent(ctx, model.NeuralConfig{Architecture: []int{2, 1}})
	if err != nil {
		t.Fatalf("SpawnAgent: %v", err)
	}
	if err := client.ShareKnowledge(ctx, source, []string{target}); err != nil {
		t.Fatalf("ShareKnowledge: %v", err)
	}
}

func TestClientCrossLearningToggle(t *testing.T) {
	client := newTestClient(t, Options{DisableCrossLearning: true})
	ctx := context.Background()

	source, err := client.SpawnAgent(ctx, model.NeuralConfig{Architecture: []int{2, 1}})
	if err != nil {
		t.Fatalf("SpawnAgent: %v", err)
	}
	err = client.ShareKnowledge(ctx, source, []string{source})
	if !manager.IsCode(err, manager.CodeFeatureDisabled) {
		t.Fatalf("error = %v, want feature_disabled code", err)
	}
}

func TestClientEvents(t *testing.T) {
	client := newTestClient(t, Options{})
	ctx := context.Background()

	subID, events := client.Subscribe()
	defer client.Unsubscribe(subID)

	id, err := client.SpawnAgent(ctx, model.NeuralConfig{Architecture: []int{2, 1}})
	if err != nil {
		t.Fatalf("SpawnAgent: %v", err)
	}
	e := <-events
	if e.Kind != manager.EventAgentSpawned || e.AgentID != id {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestClientCloseTerminatesAgents(t *testing.T) {
	client, err := New(Options{Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := client.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := client.SpawnAgent(ctx, model.NeuralConfig{Architecture: []int{2, 1}}); err != nil {
		t.Fatalf("SpawnAgent: %v", err)
	}
	if err := client.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(client.Agents()) != 0 {
		t.Fatal("agents survived close")
	}
	if _, err := client.SpawnAgent(ctx, model.NeuralConfig{Architecture: []int{2, 1}}); err == nil {
		t.Fatal("spawn after close accepted")
	}
}
