package main

import (
	"context"
	"log"
	"os"

	"github.com/example/community-chat-relay/config"
	"github.com/example/community-chat-relay/modules/activity"
	"github.com/example/community-chat-relay/modules/api"
	"github.com/example/community-chat-relay/modules/relay"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Community Chat Relay - Fiber WebSocket + EventBus ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Anything other than LOG_LEVEL=error logs at info.
	level := mono.LogLevelInfo
	if cfg.LogLevel == "error" {
		level = mono.LogLevelError
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(level),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	logger := app.Logger()

	// Create modules
	relayModule, err := relay.NewModule(cfg.Rooms, logger)
	if err != nil {
		log.Fatalf("Failed to create relay module: %v", err)
	}
	activityModule := activity.NewModule(logger)
	apiModule, err := api.NewModule(":"+cfg.Port, cfg.AllowedOrigins, relayModule.Relay(), logger)
	if err != nil {
		log.Fatalf("Failed to create api module: %v", err)
	}

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - relay: rooms, membership and history (ServiceProviderModule + EventEmitterModule)
	// - activity: per-room counters (EventConsumerModule + ServiceProviderModule)
	// - api: Fiber HTTP/WebSocket transport, depends on relay and activity
	app.Register(relayModule)
	app.Register(activityModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg *config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Rooms:")
	for _, r := range cfg.Rooms {
		log.Printf("  - %-12s %s", r.ID, r.Name)
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", cfg.Port)
	log.Println("  GET    /health                 - Health check with relay and activity counters")
	log.Println("  GET    /api/v1/rooms           - List rooms with member counts")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", cfg.Port)
	log.Println(`  Frames: {"event": "<name>", "data": <payload>}`)
	log.Println("  Client events: join-room, send-message, leave-room")
	log.Println("  Server events: rooms, joined-room, room-messages, user-joined, user-left, user-count, new-message, error")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
