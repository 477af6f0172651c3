package api

import (
	"context"
	"fmt"
	"time"

	"github.com/example/task-tracker/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Config configures the HTTP API.
type Config struct {
	Port          int
	TasksPath     string
	AllowedOrigin string
	AccessLog     bool
	RateLimit     RateLimitConfig
}

// RateLimitConfig enables per-IP rate limiting when RedisAddr is set.
type RateLimitConfig struct {
	RedisAddr     string
	RedisPassword string
	Requests      int
	Window        time.Duration
}

// Enabled reports whether rate limiting is configured.
func (c RateLimitConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// APIModule is the driving adapter exposing the task collection over HTTP.
type APIModule struct {
	cfg     Config
	logger  types.Logger
	tasks   task.TaskPort
	app     *fiber.App
	redis   *redis.Client
	limiter *RateLimiter
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*APIModule)(nil)
	_ mono.DependentModule       = (*APIModule)(nil)
	_ mono.HealthCheckableModule = (*APIModule)(nil)
)

// NewModule creates an APIModule that reaches the task module through its
// service container.
func NewModule(cfg Config, logger types.Logger) *APIModule {
	return &APIModule{
		cfg:    cfg,
		logger: logger.WithModule("api"),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.tasks = task.NewTaskAdapter(container)
	}
}

// Start connects the optional rate limiter and starts the Fiber server.
func (m *APIModule) Start(ctx context.Context) error {
	if m.tasks == nil {
		return fmt.Errorf("task dependency not set")
	}

	if m.cfg.RateLimit.Enabled() {
		m.redis = redis.NewClient(&redis.Options{
			Addr:     m.cfg.RateLimit.RedisAddr,
			Password: m.cfg.RateLimit.RedisPassword,
		})
		if err := m.redis.Ping(ctx).Err(); err != nil {
			_ = m.redis.Close()
			return fmt.Errorf("failed to connect to rate limit redis: %w", err)
		}
		m.limiter = NewRateLimiter(m.redis, m.cfg.RateLimit.Requests, m.cfg.RateLimit.Window, "tasks:ratelimit:")
		m.logger.Info("Rate limiting enabled",
			"requests", m.cfg.RateLimit.Requests, "window", m.cfg.RateLimit.Window.String())
	}

	m.app = NewApp(m.cfg, m.tasks, m.logger, m.limiter)

	addr := fmt.Sprintf(":%d", m.cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			errCh <- err
		}
	}()

	// Wait briefly to catch immediate startup errors (port in use, permission denied)
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", addr, "tasks_path", m.cfg.TasksPath)
	return nil
}

// Stop shuts down the HTTP server and the rate limit client.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}
	m.logger.Info("HTTP server stopped")
	return nil
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":       m.cfg.Port,
			"tasks_path": m.cfg.TasksPath,
			"rate_limit": m.limiter != nil,
		},
	}
}

// NewModuleWithPort creates an APIModule over an existing TaskPort.
func NewModuleWithPort(cfg Config, tasks task.TaskPort, logger types.Logger) *APIModule {
	m := NewModule(cfg, logger)
	m.tasks = tasks
	return m
}

// NewApp builds the Fiber application serving the task collection. limiter
// may be nil.
func NewApp(cfg Config, tasks task.TaskPort, logger types.Logger, limiter *RateLimiter) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Task Tracker",
		DisableStartupMessage: true,
		ErrorHandler:          newErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if cfg.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "[${time}] ${status} ${method} ${path} ${latency} ${respHeader:X-Request-ID}\n",
		}))
	}
	app.Use(corsMiddleware(cfg.AllowedOrigin))

	h := NewHandlers(tasks, logger)
	app.Get("/health", h.Health)

	path := cfg.TasksPath
	if path == "" {
		path = "/tasks"
	}
	chain := []fiber.Handler{h.Dispatch}
	if limiter != nil {
		chain = append([]fiber.Handler{limiter.Handler()}, chain...)
	}
	app.All(path, chain...)
	app.All(path+"/:id", chain...)

	return app
}
