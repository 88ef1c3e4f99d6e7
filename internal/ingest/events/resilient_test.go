package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"vacmetrics/internal/ingest/service"
	"vacmetrics/pkg/platform/sentinel"
)

type flakyPublisher struct {
	calls int
	fail  bool
}

func (p *flakyPublisher) PublishBatchOutcome(context.Context, service.BatchOutcome) error {
	p.calls++
	if p.fail {
		return errors.New("broker unreachable")
	}
	return nil
}

func TestResilientPublisherShedsWhileOpen(t *testing.T) {
	inner := &flakyPublisher{fail: true}
	publisher := NewResilient(inner, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	// Three failures open the circuit; each still reaches the broker.
	for range 3 {
		require.Error(t, publisher.PublishBatchOutcome(ctx, service.BatchOutcome{}))
	}
	require.Equal(t, 3, inner.calls)

	// While open most publishes are shed without touching the broker.
	for range probeEvery - 1 {
		err := publisher.PublishBatchOutcome(ctx, service.BatchOutcome{})
		require.ErrorIs(t, err, sentinel.ErrUnavailable)
	}
	require.Equal(t, 3, inner.calls)

	// The probe call goes through; once the broker recovers, successive probes
	// close the circuit and publishing resumes.
	inner.fail = false
	require.NoError(t, publisher.PublishBatchOutcome(ctx, service.BatchOutcome{}))
	require.Equal(t, 4, inner.calls)

	for range probeEvery {
		_ = publisher.PublishBatchOutcome(ctx, service.BatchOutcome{})
	}
	require.Equal(t, 5, inner.calls)

	// Closed again: every publish reaches the broker.
	require.NoError(t, publisher.PublishBatchOutcome(ctx, service.BatchOutcome{}))
	require.Equal(t, 6, inner.calls)
}

func TestResilientPublisherPassThroughWhenHealthy(t *testing.T) {
	inner := &flakyPublisher{}
	publisher := NewResilient(inner, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for range 5 {
		require.NoError(t, publisher.PublishBatchOutcome(context.Background(), service.BatchOutcome{}))
	}
	require.Equal(t, 5, inner.calls)
}
