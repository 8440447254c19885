package workers

import (
	"context"
	"log/slog"
	"time"

	"failly/observability"
	"failly/runtime"
)

// ReporterWorker refreshes the monitoring snapshot on a fixed interval
// and logs a one-line digest of the engine state.
type ReporterWorker struct {
	log        *slog.Logger
	monitoring *observability.MonitoringManager
	engine     *runtime.Engine
	interval   time.Duration
}

func NewReporterWorker(log *slog.Logger, monitoring *observability.MonitoringManager,
	engine *runtime.Engine, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{
		log:        log,
		monitoring: monitoring,
		engine:     engine,
		interval:   interval,
	}
}

func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case <-ticker.C:
			waiting, rooms := w.engine.Stats()
			w.monitoring.Refresh(waiting, rooms)
			stats := w.monitoring.GetLatest()
			w.log.Info("Engine stats",
				"waiting", stats.WaitingTotal,
				"rooms", stats.Rooms,
				"matches", stats.Matches,
				"relayed", stats.Relayed,
				"alloc_mb", stats.AllocMemMb,
			)
		}
	}
}
