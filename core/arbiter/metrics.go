package arbiter

import (
	"context"

	"github.com/mudler/LocalArbiter/core/types"
	"github.com/mudler/LocalArbiter/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	decisions    metric.Int64Counter
	winners      metric.Int64Counter
	suppressions metric.Int64Counter
	degrades     metric.Int64Counter
}

func newMetrics() metrics {
	meter := telemetry.Meter("localarbiter/arbiter")
	decisions, _ := meter.Int64Counter("localarbiter.decisions",
		metric.WithDescription("Decisions taken, by reason"),
	)
	winners, _ := meter.Int64Counter("localarbiter.winners",
		metric.WithDescription("Agents selected to answer"),
	)
	suppressions, _ := meter.Int64Counter("localarbiter.suppressions",
		metric.WithDescription("Responses withheld by the suppression filter"),
	)
	degrades, _ := meter.Int64Counter("localarbiter.oracle.degrades",
		metric.WithDescription("Oracle replies replaced by neutral scores"),
	)
	return metrics{
		decisions:    decisions,
		winners:      winners,
		suppressions: suppressions,
		degrades:     degrades,
	}
}

func (m metrics) recordDecision(ctx context.Context, d types.Decision) {
	reason := metric.WithAttributes(attribute.String("reason", string(d.Reason)))
	if m.decisions != nil {
		m.decisions.Add(ctx, 1, reason)
	}
	if m.winners != nil && len(d.Winners) > 0 {
		m.winners.Add(ctx, int64(len(d.Winners)), reason)
	}
	if m.suppressions != nil && len(d.Suppressed) > 0 {
		m.suppressions.Add(ctx, int64(len(d.Suppressed)))
	}
}

// OracleDegraded counts an unusable oracle reply. It fits
// scoring.WithDegradeHook.
func (a *SocialArbiter) OracleDegraded(error) {
	if a.metrics.degrades != nil {
		a.metrics.degrades.Add(context.Background(), 1)
	}
}
