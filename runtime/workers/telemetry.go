package workers

import (
	"context"
	"log/slog"

	"failly/domain/event"
)

// TelemetryWorker drains the engine's telemetry channel and hands each
// event to the registered handlers. Losing telemetry is acceptable; the
// channel is buffered and producers drop rather than block.
type TelemetryWorker struct {
	log           *slog.Logger
	telemetryChan <-chan event.Telemetry
	handlers      []event.Handler
}

func NewTelemetryWorker(log *slog.Logger, telemetryChan <-chan event.Telemetry,
	handlers []event.Handler) *TelemetryWorker {
	return &TelemetryWorker{
		log:           log,
		telemetryChan: telemetryChan,
		handlers:      handlers,
	}
}

func (w TelemetryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case evt, ok := <-w.telemetryChan:
			if !ok {
				return nil
			}
			for _, h := range w.handlers {
				h.Handle(evt)
			}
		}
	}
}
