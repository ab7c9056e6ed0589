package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"neuromesh/internal/logging"
	"neuromesh/internal/model"
	"neuromesh/internal/nn"
	meshapi "neuromesh/pkg/neuromesh"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "bench":
		return runBench(ctx, args[1:])
	case "sessions":
		return runSessions(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: neuromeshctl <run|bench|sessions> [flags]", msg)
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional workload config JSON path")
	storeKind := fs.String("store", "memory", "session archive backend: memory|sqlite")
	dbPath := fs.String("db-path", "neuromesh.db", "sqlite database path")
	agents := fs.Int("agents", 5, "number of agents to spawn")
	arch := fs.String("arch", "10,5,1", "network architecture, comma-separated layer widths")
	activation := fs.String("activation", "", "activation function (default tanh)")
	inferences := fs.Int("inferences", 100, "inference calls per agent")
	workers := fs.Int("workers", 4, "concurrent inference workers")
	epochs := fs.Int("epochs", 10, "training epochs per agent")
	samples := fs.Int("samples", 50, "synthetic training samples per agent")
	share := fs.Bool("share", true, "share first agent's weights with the rest after training")
	seed := fs.Int64("seed", 1, "rng seed")
	verbose := fs.Bool("verbose", false, "log lifecycle events to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := loadOrDefaultWorkload(*configPath)
	if err != nil {
		return err
	}
	overrideWorkloadFromFlags(&cfg, setFlags, map[string]any{
		"store":      *storeKind,
		"db-path":    *dbPath,
		"agents":     *agents,
		"arch":       *arch,
		"activation": *activation,
		"inferences": *inferences,
		"workers":    *workers,
		"epochs":     *epochs,
		"samples":    *samples,
		"share":      *share,
		"seed":       *seed,
	})
	normalizeWorkload(&cfg)

	var logger logging.Logger = logging.NoOp{}
	if *verbose {
		logger = logging.NewTextLogger(os.Stderr, slog.LevelDebug)
	}

	client, err := meshapi.New(meshapi.Options{
		StoreKind: cfg.Store,
		DBPath:    cfg.DBPath,
		Logger:    logger,
		Seed:      cfg.Seed,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close(context.Background())
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	neural := model.NeuralConfig{
		Architecture: cfg.Architecture,
		Activation:   cfg.Activation,
	}
	ids := make([]string, 0, cfg.Agents)
	for i := 0; i < cfg.Agents; i++ {
		id, err := client.SpawnAgent(ctx, neural)
		if err != nil {
			return fmt.Errorf("spawn agent %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	fmt.Printf("spawned agents=%d arch=%v activation=%s\n", len(ids), cfg.Architecture, nonEmpty(cfg.Activation, "tanh"))

	inputSize := cfg.Architecture[0]
	outputSize := cfg.Architecture[len(cfg.Architecture)-1]

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, id := range ids {
		for call := 0; call < cfg.Inferences; call++ {
			id, call := id, call
			g.Go(func() error {
				inputs := syntheticInputs(inputSize, cfg.Seed+int64(call))
				if _, err := client.Infer(gctx, id, inputs); err != nil {
					return fmt.Errorf("infer agent %s: %w", id, err)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	totalCalls := cfg.Agents * cfg.Inferences
	fmt.Printf("inference calls=%d workers=%d wall=%s\n", totalCalls, cfg.Workers, time.Since(start).Round(time.Millisecond))

	if cfg.Samples > 0 && cfg.Epochs > 0 {
		data := syntheticSamples(cfg.Samples, inputSize, outputSize, cfg.Seed)
		for _, id := range ids {
			session, err := client.Train(ctx, id, data, cfg.Epochs)
			if err != nil {
				return fmt.Errorf("train agent %s: %w", id, err)
			}
			fmt.Printf("trained agent=%s epochs=%d accuracy=%.4f converged=%t\n",
				id, session.Epochs, session.FinalAccuracy, session.Converged)
		}
	}

	if cfg.Share && len(ids) > 1 {
		if err := client.ShareKnowledge(ctx, ids[0], ids[1:]); err != nil {
			return err
		}
		fmt.Printf("shared knowledge source=%s targets=%d\n", ids[0], len(ids)-1)
	}

	snap := client.Snapshot()
	fmt.Printf("snapshot agents=%d/%d spawned=%d inferences=%d avg=%s\n",
		snap.LiveAgents, cfg.Agents, snap.TotalAgentsSpawned, snap.TotalInferences,
		snap.AverageInferenceTime.Round(time.Microsecond))
	fmt.Printf("memory reserved=%s kernel=%s timeouts=%d errors=%d health=%.1f\n",
		humanize.IBytes(snap.MemoryUsage), humanize.IBytes(snap.KernelMemoryUsage),
		snap.TimeoutCount, snap.ErrorCount, snap.SystemHealthScore)
	return nil
}

func runBench(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	arch := fs.String("arch", "10,5,1", "network architecture, comma-separated layer widths")
	activation := fs.String("activation", "", "activation function (default tanh)")
	inferences := fs.Int("inferences", 1000, "inference calls to time")
	seed := fs.Int64("seed", 1, "rng seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	layers, err := parseArchitecture(*arch)
	if err != nil {
		return err
	}
	if *inferences <= 0 {
		return fmt.Errorf("inferences must be > 0")
	}

	client, err := meshapi.New(meshapi.Options{Seed: *seed})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close(context.Background())
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	id, err := client.SpawnAgent(ctx, model.NeuralConfig{Architecture: layers, Activation: *activation})
	if err != nil {
		return err
	}

	latencies := make([]float64, 0, *inferences)
	for call := 0; call < *inferences; call++ {
		inputs := syntheticInputs(layers[0], *seed+int64(call))
		start := time.Now()
		if _, err := client.Infer(ctx, id, inputs); err != nil {
			return err
		}
		latencies = append(latencies, float64(time.Since(start).Microseconds()))
	}

	avg, err := nn.Avg(latencies)
	if err != nil {
		return err
	}
	std, err := nn.Std(latencies)
	if err != nil {
		return err
	}
	info, _ := client.Agent(id)
	fmt.Printf("bench arch=%v calls=%d avg=%.1fus std=%.1fus\n", layers, *inferences, avg, std)
	fmt.Printf("agent memory=%s inferences=%d\n", humanize.IBytes(info.MemoryUsage), info.TotalInferences)
	return nil
}

func runSessions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	storeKind := fs.String("store", "sqlite", "session archive backend: memory|sqlite")
	dbPath := fs.String("db-path", "neuromesh.db", "sqlite database path")
	agentID := fs.String("agent", "", "filter by agent id")
	limit := fs.Int("limit", 20, "maximum sessions to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := meshapi.New(meshapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close(context.Background())
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	sessions, err := client.Sessions(ctx, *agentID, *limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no archived sessions")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s agent=%s epochs=%d points=%d accuracy=%.4f converged=%t completed=%s\n",
			s.ID, s.AgentID, s.Epochs, s.DataPoints, s.FinalAccuracy, s.Converged,
			s.CompletedAt.UTC().Format(time.RFC3339))
	}
	return nil
}

func syntheticInputs(size int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	inputs := make([]float64, size)
	for i := range inputs {
		inputs[i] = rng.Float64()*2 - 1
	}
	return inputs
}

func syntheticSamples(count, inputSize, outputSize int, seed int64) []model.TrainingSample {
	rng := rand.New(rand.NewSource(seed))
	data := make([]model.TrainingSample, 0, count)
	for i := 0; i < count; i++ {
		sample := model.TrainingSample{
			Inputs:  make([]float64, inputSize),
			Targets: make([]float64, outputSize),
		}
		sum := 0.0
		for j := range sample.Inputs {
			sample.Inputs[j] = rng.Float64()*2 - 1
			sum += sample.Inputs[j]
		}
		for j := range sample.Targets {
			if sum > 0 {
				sample.Targets[j] = 1
			}
		}
		data = append(data, sample)
	}
	return data
}

func parseArchitecture(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	layers := make([]int, 0, len(parts))
	for _, part := range parts {
		width, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid architecture %q: %w", s, err)
		}
		layers = append(layers, width)
	}
	return layers, nil
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
