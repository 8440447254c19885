package workers

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"failly/domain/event"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type recordHandler struct {
	mu   sync.Mutex
	seen []event.Telemetry
}

func (h *recordHandler) Handle(t event.Telemetry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, t)
}

func (h *recordHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func TestTelemetryWorker_Hands_Events_To_Every_Handler(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	telemetryChan := make(chan event.Telemetry, 10)
	first := &recordHandler{}
	second := &recordHandler{}

	worker := NewTelemetryWorker(log, telemetryChan, []event.Handler{first, second})
	done := make(chan struct{})
	go func() {
		_ = worker.Run(context.Background())
		close(done)
	}()

	// When events flow through the channel
	telemetryChan <- event.Telemetry{Type: event.UserEnqueuedType, Tag: "burnt the rice"}
	telemetryChan <- event.Telemetry{Type: event.MatchCommittedType, Tag: "burnt the rice"}
	close(telemetryChan)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never drained")
	}

	// Then every handler saw both, in order
	req.Equal(2, first.count())
	req.Equal(2, second.count())
	req.Equal(event.UserEnqueuedType, first.seen[0].Type)
	req.Equal(event.MatchCommittedType, first.seen[1].Type)
}

func TestTelemetryWorker_Stops_On_Context_Cancel(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	telemetryChan := make(chan event.Telemetry)

	worker := NewTelemetryWorker(log, telemetryChan, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errChan := make(chan error, 1)
	go func() {
		errChan <- worker.Run(ctx)
	}()

	cancel()
	select {
	case err := <-errChan:
		req.ErrorIs(err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker ignored cancellation")
	}
}
