package runtime

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chat-room/contract"
	"chat-room/domain/event"
	"chat-room/moderation"
	"chat-room/runtime/workers"
)

//go:embed censored/*
var censoredFolder embed.FS

// Pipeline wires the supervised workers around the fan-out engine:
//
//	Dispatch → rawEvents → ModerationWorker → domainEvents
//	  → BroadcastWorker (Broadcaster.Publish) → telemetryEvents
//	  → TelemetryWorker handlers
//
// Dispatch never blocks: a stalled pipeline drops the event with a
// warning instead of freezing an RPC handler.
type Pipeline struct {
	log             *slog.Logger
	supervisor      contract.ISupervisor
	broadcaster     contract.IBroadcaster
	rawEvents       chan event.DomainEvent
	domainEvents    chan event.DomainEvent
	telemetryEvents chan event.Event
	handlers        []event.Handler
	metricInterval  time.Duration
	lowCapacity     int
	charReplacement rune
}

func NewPipeline(log *slog.Logger, supervisor contract.ISupervisor,
	broadcaster contract.IBroadcaster, telemetryEvents chan event.Event,
	handlers []event.Handler, bufferSize int, metricInterval time.Duration,
	lowCapacity int, charReplacement rune) *Pipeline {
	return &Pipeline{
		log:             log,
		supervisor:      supervisor,
		broadcaster:     broadcaster,
		rawEvents:       make(chan event.DomainEvent, bufferSize),
		domainEvents:    make(chan event.DomainEvent, bufferSize),
		telemetryEvents: telemetryEvents,
		handlers:        handlers,
		metricInterval:  metricInterval,
		lowCapacity:     lowCapacity,
		charReplacement: charReplacement,
	}
}

// Dispatch injects a raw inbound event into the pipeline.
func (p *Pipeline) Dispatch(e event.DomainEvent) {
	select {
	case p.rawEvents <- e:
	default:
		p.log.Warn("raw event channel full, dropping event")
	}
}

// Start prepares every worker (file loading and automaton build happen
// here, before anything is supervised) then blocks in the supervisor
// until the context is canceled.
func (p *Pipeline) Start(ctx context.Context) error {
	moderationWorker, err := p.prepareModeration("censored", p.charReplacement)
	if err != nil {
		return err
	}

	broadcastWorker := workers.NewBroadcastWorker(p.log, p.broadcaster, p.domainEvents, p.telemetryEvents)
	telemetryWorker := workers.NewTelemetryWorker(p.log, p.metricInterval, p.telemetryEvents, p.handlers)
	capacityWorker := workers.NewChannelCapacityWorker(p.log, []workers.NamedChannel{
		{Name: "rawEvents", Channel: p.rawEvents},
		{Name: "domainEvents", Channel: p.domainEvents},
		{Name: "telemetryEvents", Channel: p.telemetryEvents},
	}, p.telemetryEvents, p.metricInterval, p.lowCapacity)
	healthWorker := workers.NewHealthWorker(p.log, p.telemetryEvents, p.metricInterval)

	p.supervisor.Add(moderationWorker, broadcastWorker, telemetryWorker, capacityWorker, healthWorker)

	p.log.Info("Starting pipeline and all supervised workers")
	p.supervisor.Run(ctx)
	return nil
}

// prepareModeration loads censored words and builds the Aho-Corasick automaton.
func (p *Pipeline) prepareModeration(path string, charReplacement rune) (contract.Worker, error) {
	loader := NewCensoredLoader(censoredFolder)
	data, err := loader.LoadAll(path)
	if err != nil {
		return nil, err
	}

	p.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	p.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, charReplacement)
	if err != nil {
		return nil, err
	}

	return workers.NewModerationWorker(moderator, p.rawEvents, p.domainEvents, p.telemetryEvents, p.log), nil
}

// Stop cancels the supervised context, asking every worker to finish.
func (p *Pipeline) Stop() {
	p.log.Info("Requesting pipeline shutdown")
	p.supervisor.Stop()
}
