package events

import (
	"context"
	"log/slog"
	"sync/atomic"

	"vacmetrics/internal/ingest/service"
	"vacmetrics/pkg/platform/circuit"
	"vacmetrics/pkg/platform/sentinel"
)

const probeEvery = 10

// ResilientPublisher wraps a Publisher with a circuit breaker. Outcome events
// are best-effort, so when the broker is down the wrapper sheds publishes
// instead of paying a produce timeout per batch. While open it lets one call
// in every probeEvery through as a probe so the circuit can close again.
type ResilientPublisher struct {
	inner   service.Publisher
	breaker *circuit.Breaker
	logger  *slog.Logger
	skipped atomic.Int64
}

func NewResilient(inner service.Publisher, logger *slog.Logger) *ResilientPublisher {
	return &ResilientPublisher{
		inner:   inner,
		breaker: circuit.New("batch-outcomes", circuit.WithFailureThreshold(3)),
		logger:  logger,
	}
}

func (p *ResilientPublisher) PublishBatchOutcome(ctx context.Context, outcome service.BatchOutcome) error {
	if p.breaker.IsOpen() {
		if p.skipped.Add(1)%probeEvery != 0 {
			return sentinel.ErrUnavailable
		}
	}

	if err := p.inner.PublishBatchOutcome(ctx, outcome); err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "outcome publishing degraded, shedding events",
				slog.String("breaker", p.breaker.Name()), slog.String("error", err.Error()))
		}
		return err
	}

	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "outcome publishing recovered",
			slog.String("breaker", p.breaker.Name()))
	}
	return nil
}
