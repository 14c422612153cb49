package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"fitstake/contract"
	"fitstake/observability"
)

const heartbeatInterval = 5 * time.Second

// HeartbeatWorker periodically logs self-process health (CPU, RSS,
// status) next to the live session count and dispatch counters. It is
// the operator's view of the process between restarts.
type HeartbeatWorker struct {
	log      *slog.Logger
	registry contract.IRegistry
	stats    *observability.DispatchStats
}

func NewHeartbeatWorker(
	log *slog.Logger,
	registry contract.IRegistry,
	stats *observability.DispatchStats,
) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, registry: registry, stats: stats}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker")
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			snapshot := w.stats.Snapshot()
			w.log.Info("Heartbeat",
				slog.String("pid_status", status),
				slog.Float64("cpu_percent", cpu),
				slog.Uint64("ram_bytes", rss),
				slog.Int("live_sessions", w.registry.Len()),
				slog.Uint64("notifications_persisted", snapshot.Persisted),
				slog.Uint64("notifications_pushed", snapshot.Pushed),
				slog.Uint64("pushes_skipped", snapshot.Skipped),
				slog.Uint64("pushes_failed", snapshot.PushFailed),
				slog.Uint64("alloc_mem_mb", snapshot.AllocMemMb),
			)
		}
	}
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
