package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"chat-room/domain/event"

	"github.com/shirou/gopsutil/process"
)

// HealthWorker samples CPU and RSS of the server process itself and
// reports them on the telemetry channel.
type HealthWorker struct {
	log            *slog.Logger
	telemetryChan  chan event.Event
	metricInterval time.Duration
}

func NewHealthWorker(log *slog.Logger, telemetryChan chan event.Event,
	metricInterval time.Duration) *HealthWorker {
	return &HealthWorker{
		log:            log,
		telemetryChan:  telemetryChan,
		metricInterval: metricInterval,
	}
}

func (w HealthWorker) Run(ctx context.Context) error {
	pid := int32(os.Getpid())
	p, err := process.NewProcess(pid)
	if err != nil {
		w.log.Error("Error while retrieving own process", "pid", pid, "err", err)
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health sampling")
			return nil
		case <-ticker.C:
			cpu, err := p.CPUPercent()
			if err != nil {
				w.log.Error("Error while finding process cpu usage", "err", err)
				continue
			}
			mem, err := p.MemoryInfo()
			if err != nil {
				w.log.Error("Error while finding process ram usage", "err", err)
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case w.telemetryChan <- toProcessStatsEvent(pid, cpu, mem.RSS):
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		}
	}
}

func toProcessStatsEvent(pid int32, cpu float64, ram uint64) event.Event {
	return event.Event{
		Type:      event.ProcessStatsType,
		CreatedAt: time.Now().UTC(),
		Payload: event.ProcessStats{
			PID: pid,
			Cpu: cpu,
			Ram: ram,
		},
	}
}
