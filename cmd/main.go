package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpc2 "chat-room/grpc"
	v1 "chat-room/proto/chat"
	"chat-room/repositories"
	"chat-room/runtime"
	"chat-room/runtime/workers"
	"chat-room/services"
	"chat-room/sink"

	"chat-room/domain/event"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for gRPC and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB archive + Bluge index)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	messageRepository := repositories.NewMessageRepository(db, log)
	searchRepository, err := repositories.NewSearchRepository(config.BlugeFilepath, log)
	if err != nil {
		return fmt.Errorf("index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing Bluge index...")
		_ = searchRepository.Close()
	}()

	// 3. Runtime: registry, ring, presence, fan-out engine
	policy := runtime.DropNewest
	if config.DropOldest {
		policy = runtime.DropOldest
	}
	registry := runtime.NewRegistry(config.MaxSessions, config.ConnectionBufferSize, policy)
	ring := runtime.NewMessageRing(config.RingCapacity)
	presence := runtime.NewPresence()

	telemetryEvents := make(chan event.Event, config.BufferSize)
	broadcaster := runtime.NewBroadcaster(log, ring, registry, telemetryEvents, config.SinkTimeout)
	broadcaster.Add(
		sink.NewDiskSink(messageRepository, log),
		sink.NewIndexSink(searchRepository, log),
	)

	// 4. Supervised pipeline
	counter := event.NewCounter()
	handlers := []event.Handler{
		event.NewThroughputHandler(log, counter),
		event.NewLatencyHandler(log, config.LatencyThreshold),
		event.NewChannelCapacityHandler(log, config.LowCapacityThreshold),
		event.NewDeliveryDroppedHandler(log, counter),
		event.NewWorkerRestartedAfterPanicHandler(log, counter),
		event.NewCensoredHandler(log),
	}
	supervisor := workers.NewSupervisor(log, telemetryEvents)
	pipeline := runtime.NewPipeline(log, supervisor, broadcaster, telemetryEvents,
		handlers, config.BufferSize, config.MetricInterval,
		config.LowCapacityThreshold, charReplacement(config.CharReplacement))

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)
	go func() {
		if err := pipeline.Start(ctx); err != nil {
			errChan <- fmt.Errorf("pipeline failed to start: %w", err)
		}
	}()

	// 6. gRPC Server Setup
	lifecycle := runtime.NewLifecycle(log, registry, presence, pipeline)
	service := services.NewChatService(presence, ring, lifecycle, messageRepository, searchRepository)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s := grpc.NewServer()
	v1.RegisterChatServiceServer(s, grpc2.NewChatServer(log, service))

	go func() {
		log.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		if err := s.Serve(listener); err != nil && err != grpc.ErrServerStopped {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	s.GracefulStop()
	pipeline.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

func charReplacement(s string) rune {
	for _, r := range s {
		return r
	}
	return '*'
}
