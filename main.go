package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mudler/LocalArbiter/core/arbiter"
	"github.com/mudler/LocalArbiter/core/conversations"
	"github.com/mudler/LocalArbiter/core/scoring"
	"github.com/mudler/LocalArbiter/core/sse"
	"github.com/mudler/LocalArbiter/core/state"
	"github.com/mudler/LocalArbiter/core/suppression"
	"github.com/mudler/LocalArbiter/core/turns"
	"github.com/mudler/LocalArbiter/pkg/config"
	"github.com/mudler/LocalArbiter/pkg/llm"
	"github.com/mudler/LocalArbiter/pkg/telemetry"
	"github.com/mudler/LocalArbiter/webui"
	"github.com/mudler/xlog"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		xlog.Error("LocalArbiter stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.OTLPEndpoint, "localarbiter", version, cfg.OTLPInsecure)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			xlog.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	events := sse.NewManager(5, 100)
	defer events.Close()
	bus := sse.NewBus(events)

	engine := scoring.NewEngine(
		scoring.WithWeights(scoring.Weights{
			Relevance: cfg.RelevanceWeight,
			Interest:  cfg.InterestWeight,
			Emotional: cfg.EmotionalWeight,
		}),
		scoring.WithCooldown(cfg.Cooldown),
		scoring.WithTiebreakerMargin(cfg.TiebreakerMargin),
	)

	suppressor := suppression.NewResponseSuppressor(
		suppression.WithEnabled(cfg.SuppressionEnabled),
		suppression.WithMinimumThreshold(cfg.MinimumThreshold),
		suppression.WithReevaluation(cfg.ReevaluationDelay, cfg.MaxReevaluations),
		suppression.WithContextChangeWeight(cfg.ContextChangeWeight),
		suppression.WithLogger(suppression.NewSuppressionLogger(cfg.SuppressionHistory)),
	)

	opts := []arbiter.Option{
		arbiter.WithEngine(engine),
		arbiter.WithSuppressor(suppressor),
		arbiter.WithEventSink(bus),
		arbiter.WithCascadeThreshold(cfg.CascadeThreshold),
		arbiter.WithMaxDiscussionTurns(cfg.MaxDiscussionTurns),
		arbiter.WithContextTTL(cfg.ConversationDuration),
	}
	if cfg.Seed != 0 {
		opts = append(opts, arbiter.WithRand(rand.New(rand.NewSource(cfg.Seed))))
	}
	if cfg.UseDefaultAgent {
		opts = append(opts, arbiter.WithDefaultAgent(cfg.DefaultAgent))
	}

	// The oracle reports degraded replies to the arbiter it scores for.
	var arb *arbiter.SocialArbiter
	if cfg.OracleEnabled() {
		client := llm.NewClient(cfg.LLMAPIKey, cfg.LLMAPIURL, cfg.LLMTimeout)
		opts = append(opts, arbiter.WithScoringSource(scoring.NewOracleSource(
			client,
			cfg.LLMModel,
			scoring.NewRuleSource(engine),
			scoring.WithOracleTimeout(cfg.LLMTimeout),
			scoring.WithDegradeHook(func(err error) { arb.OracleDegraded(err) }),
		)))
		xlog.Info("Scoring oracle enabled", "model", cfg.LLMModel, "url", cfg.LLMAPIURL)
	}
	arb = arbiter.New(opts...)

	turnManager := turns.NewManager(
		turns.WithTimeout(cfg.TurnTimeout),
		turns.WithEventSink(bus),
	)
	defer turnManager.Stop()

	tracker := conversations.NewDiscussionTracker[string](cfg.ConversationDuration, cfg.ConversationHistory)

	reevaluator := suppression.NewReevaluator(suppressor, arb.Rescore, cfg.ReevaluationEvery,
		suppression.WithEventSink(bus),
	)

	app := webui.NewApp(
		webui.WithArbiter(arb),
		webui.WithTurnManager(turnManager),
		webui.WithEventBus(bus),
		webui.WithDiscussionTracker(tracker),
		webui.WithSettings(cfg),
		webui.WithApiKeys(cfg.APIKeys...),
	)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.AgentsFile != "" {
		loader := state.NewLoader(cfg.AgentsFile)
		if err := loader.Apply(arb); err != nil {
			return err
		}
		g.Go(func() error {
			return loader.Watch(ctx, arb, cfg.AgentsReload)
		})
	} else {
		xlog.Warn("No agents file configured, agents must be registered through the API")
	}

	g.Go(func() error {
		return reevaluator.Run(ctx)
	})

	g.Go(func() error {
		xlog.Info("LocalArbiter listening", "address", cfg.Address, "agents", arb.Registry().Len())
		return app.Listen(cfg.Address)
	})

	g.Go(func() error {
		<-ctx.Done()
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
