package main

import (
	"context"
	"log"
	"os"

	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Task Tracker - Fiber + GORM/pgx Task Store ===")

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logLevel := mono.LogLevelInfo
	if cfg.LogLevel == "error" {
		logLevel = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Order: task store first, then the HTTP API that depends on it.
	app.Register(task.NewModule(cfg.Store, app.Logger()))
	app.Register(api.NewModule(cfg.API, app.Logger()))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

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

func printStartupInfo(cfg Config) {
	store := "SQLite (" + cfg.Store.SQLitePath + ")"
	if cfg.Store.Driver == task.DriverPostgres {
		store = "PostgreSQL"
	}
	rateLimit := "disabled"
	if cfg.API.RateLimit.Enabled() {
		rateLimit = cfg.API.RateLimit.RedisAddr
	}
	path := cfg.API.TasksPath

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Configuration:")
	log.Printf("  - Task store: %s", store)
	log.Printf("  - Allowed origin: %s", cfg.API.AllowedOrigin)
	log.Printf("  - Rate limit (Redis): %s", rateLimit)
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.API.Port)
	log.Printf("  GET    %s[?id=N]          - List tasks or get one", path)
	log.Printf("  POST   %s                 - Create a task", path)
	log.Printf("  PUT    %s?id=N            - Update a task (or POST with _method=PUT)", path)
	log.Printf("  DELETE %s?id=N            - Delete a task (or POST with _method=DELETE)", path)
	log.Println("  GET    /health                 - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
