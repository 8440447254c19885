// Package observability aggregates engine telemetry and process metrics
// into a snapshot served by the debug endpoint and the viewer tool.
package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"failly/domain"
	"failly/domain/event"

	"github.com/shirou/gopsutil/process"
)

// Stats is the monitoring snapshot.
type Stats struct {
	WaitingByTag map[string]int `json:"waiting_by_tag"`
	WaitingTotal int            `json:"waiting_total"`
	Rooms        int            `json:"rooms"`

	Enqueued       uint64 `json:"enqueued"`
	Matches        uint64 `json:"matches"`
	Relayed        uint64 `json:"relayed"`
	Dropped        uint64 `json:"dropped"`
	StaleSkips     uint64 `json:"stale_skips"`
	WorkerRestarts uint64 `json:"worker_restarts"`

	AllocMemMb  uint64  `json:"alloc_mem_mb"`
	NumGC       uint32  `json:"num_gc"`
	RssMb       uint64  `json:"rss_mb"`
	CPUPercent  float64 `json:"cpu_percent"`
	CollectedAt string  `json:"collected_at"`
}

// MonitoringManager keeps atomic counters bumped by the telemetry
// pipeline and refreshes system metrics on demand.
type MonitoringManager struct {
	log  *slog.Logger
	proc *process.Process

	enqueued       uint64
	matches        uint64
	relayed        uint64
	dropped        uint64
	staleSkips     uint64
	workerRestarts uint64

	mu     sync.RWMutex
	latest Stats
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	m := &MonitoringManager{log: log}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process metrics unavailable", "error", err)
	} else {
		m.proc = proc
	}
	return m
}

// Handle implements event.Handler; it is registered on the telemetry
// worker and only bumps counters.
func (m *MonitoringManager) Handle(t event.Telemetry) {
	switch t.Type {
	case event.UserEnqueuedType:
		atomic.AddUint64(&m.enqueued, 1)
	case event.MatchCommittedType:
		atomic.AddUint64(&m.matches, 1)
	case event.MessageRelayedType:
		atomic.AddUint64(&m.relayed, 1)
	case event.MessageDroppedType:
		atomic.AddUint64(&m.dropped, 1)
	case event.StaleEntrySkipType:
		atomic.AddUint64(&m.staleSkips, 1)
	case event.RestartedAfterPanic:
		atomic.AddUint64(&m.workerRestarts, 1)
	}
}

// Refresh rebuilds the snapshot from the engine state and the process.
func (m *MonitoringManager) Refresh(waiting map[domain.Tag]int, rooms int) {
	byTag := make(map[string]int, len(waiting))
	total := 0
	for tag, n := range waiting {
		byTag[string(tag)] = n
		total += n
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := Stats{
		WaitingByTag:   byTag,
		WaitingTotal:   total,
		Rooms:          rooms,
		Enqueued:       atomic.LoadUint64(&m.enqueued),
		Matches:        atomic.LoadUint64(&m.matches),
		Relayed:        atomic.LoadUint64(&m.relayed),
		Dropped:        atomic.LoadUint64(&m.dropped),
		StaleSkips:     atomic.LoadUint64(&m.staleSkips),
		WorkerRestarts: atomic.LoadUint64(&m.workerRestarts),
		AllocMemMb:     memStats.Alloc / 1024 / 1024,
		NumGC:          memStats.NumGC,
		CollectedAt:    time.Now().UTC().Format(time.RFC3339),
	}

	if m.proc != nil {
		if memInfo, err := m.proc.MemoryInfo(); err == nil {
			stats.RssMb = memInfo.RSS / 1024 / 1024
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
	}

	m.mu.Lock()
	m.latest = stats
	m.mu.Unlock()
}

func (m *MonitoringManager) GetLatest() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}
