package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	"gitlab-issue-bridge/internal/client"
	"gitlab-issue-bridge/internal/config"
	"gitlab-issue-bridge/internal/handler"
	"gitlab-issue-bridge/internal/middleware"
	"gitlab-issue-bridge/internal/repository"
	"gitlab-issue-bridge/internal/routes"
	"gitlab-issue-bridge/internal/service"
)

const version = "0.1.0"

// Connects to Redis, seeds integrations, wires the HTTP handlers and starts the server.
func main() {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.GetLogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("2006-01-02 15:04:05"))
			}
			return a
		},
	})))

	slog.Info("GitLab issue bridge starting", "version", version)

	// Log configuration (sanitized)
	slog.Info("Configuration loaded",
		"log_level", cfg.LogLevel,
		"authentication_enabled", cfg.EnableAuthentication,
		"integrations_file", cfg.IntegrationsFile,
		"gitlab_api_path", cfg.GitLabAPIPath,
		"gitlab_timeout", cfg.GitLabTimeout,
		"port", cfg.Port,
	)

	slog.Info("Initializing Redis connection...")
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", "error", err)
		panic(err)
	}
	rdb := redis.NewClient(opt)
	redisRepo := repository.NewRedisRepository(rdb)

	if cfg.IntegrationsFile != "" {
		seed, err := repository.LoadSeedFile(cfg.IntegrationsFile)
		if err != nil {
			slog.Error("Failed to load integrations file", "path", cfg.IntegrationsFile, "error", err)
			panic(err)
		}
		if err := seed.Apply(context.Background(), redisRepo); err != nil {
			slog.Error("Failed to seed integrations", "error", err)
			panic(err)
		}
	}

	slog.Debug("Initializing service layer dependencies")
	clientFactory := service.NewClientFactory(client.Options{
		APIPath: cfg.GitLabAPIPath,
		Timeout: cfg.GitLabTimeout,
	})
	issueService := service.NewIssueService(redisRepo, clientFactory, routes.Default())
	slog.Info("Service layer dependencies initialized successfully")

	issueHandler := handler.NewIssueHandler(issueService, handler.NewResponseWriter())
	healthHandler := handler.NewHealthHandler(rdb, version)

	mux := http.NewServeMux()

	// Kubernetes probes are unauthenticated
	handler.RegisterHealthRoutes(mux, healthHandler, middleware.SecurityHeadersMiddleware())

	handler.RegisterIssueRoutes(mux, routes.Default(), issueHandler,
		middleware.SecurityHeadersMiddleware(),
		middleware.AuthenticationMiddleware(cfg),
		middleware.LoggingMiddleware(),
	)

	serverAddr := ":" + cfg.Port
	slog.Info("Server listening", "address", serverAddr)
	if err := http.ListenAndServe(serverAddr, mux); err != nil {
		slog.Error("HTTP server error", "error", err)
	}
}
