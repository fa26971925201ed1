package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/migrations"
	"github.com/coldconnect/coldconnect-engine/pkg/adapters/github"
	"github.com/coldconnect/coldconnect-engine/pkg/adapters/gmail"
	"github.com/coldconnect/coldconnect-engine/pkg/audit"
	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/config"
	"github.com/coldconnect/coldconnect-engine/pkg/database"
	"github.com/coldconnect/coldconnect-engine/pkg/embedding"
	"github.com/coldconnect/coldconnect-engine/pkg/handlers"
	"github.com/coldconnect/coldconnect-engine/pkg/mcp"
	"github.com/coldconnect/coldconnect-engine/pkg/mcp/tools"
	"github.com/coldconnect/coldconnect-engine/pkg/middleware"
	"github.com/coldconnect/coldconnect-engine/pkg/repositories"
	"github.com/coldconnect/coldconnect-engine/pkg/retry"
	"github.com/coldconnect/coldconnect-engine/pkg/services"
	"github.com/coldconnect/coldconnect-engine/pkg/vectorindex"
	"github.com/coldconnect/coldconnect-engine/pkg/workerpool"
)

const shutdownTimeout = 15 * time.Second

func createServeCommand() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and MCP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, logger, !skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on startup")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) error {
	logger.Info("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("match_index", cfg.Matching.Index),
		zap.String("email_provider", cfg.EmailGeneration.Provider))

	if !cfg.Embedding.HasCredentials() {
		logger.Error("EMBEDDING_API_KEY is not set; ingestion and matching cannot run")
		return errors.New("embedding provider not configured: set EMBEDDING_API_KEY")
	}

	db, err := database.ConnectWithRetry(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	}, retry.StartupConfig(), logger.Named("database"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if migrate {
		if err := applyMigrations(cfg, logger); err != nil {
			return err
		}
	}

	tokenValidator, err := auth.NewJWKSClient(ctx, &auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize JWKS client: %w", err)
	}
	authMiddleware := auth.NewMiddleware(auth.NewAuthService(tokenValidator, logger), logger)
	ownerMiddleware := database.WithOwnerContext(db, logger.Named("owner-scope"))

	embedder, err := embedding.NewOpenAIProvider(embedding.Config{
		BaseURL:             config.ResolveURLForDocker(cfg.Embedding.BaseURL),
		APIKey:              cfg.Embedding.APIKey,
		Model:               cfg.Embedding.Model,
		Dimensions:          cfg.Embedding.Dimensions,
		DocumentInstruction: cfg.Embedding.DocumentInstruction,
		QueryInstruction:    cfg.Embedding.QueryInstruction,
		Timeout:             cfg.Embedding.Timeout,
		RequestsPerSecond:   cfg.Embedding.RequestsPerSecond,
		Burst:               cfg.Embedding.Burst,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}

	var index vectorindex.Index
	switch cfg.Matching.Index {
	case "memory":
		logger.Warn("Using in-memory vector index; chunks are lost on restart")
		index = vectorindex.NewMemoryIndex()
	default:
		index = vectorindex.NewPGVectorIndex(db, logger)
	}

	// Repositories
	projectRepo := repositories.NewProjectRepository()
	userRepo := repositories.NewUserRepository()
	emailRepo := repositories.NewEmailRepository()
	resumeRepo := repositories.NewResumeRepository()

	// Services
	ingestionService := services.NewIngestionService(embedder, index, logger)
	matchService := services.NewMatchService(embedder, index, services.MatchConfig{
		TopK:      cfg.Matching.TopK,
		Threshold: cfg.Matching.Threshold,
	}, logger)
	projectService := services.NewProjectService(projectRepo, ingestionService, logger)
	userService := services.NewUserService(userRepo, logger)
	resumeService := services.NewResumeService(resumeRepo, cfg.Resume.MaxUploadBytes, logger)

	emailGenerator, err := services.NewEmailGeneratorFromConfig(&cfg.EmailGeneration, services.EmailGeneratorDeps{
		Resumes:  resumeRepo,
		Projects: projectRepo,
		Users:    userRepo,
		Matcher:  matchService,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create email generator: %w", err)
	}
	emailService := services.NewEmailService(emailRepo, emailGenerator, gmail.NewSender("", logger), cfg.EmailGeneration.Timeout, logger)

	githubClient, err := github.NewClient(github.Config{
		Token:           cfg.GitHub.Token,
		MaxRepositories: cfg.GitHub.MaxRepositories,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	importPool := workerpool.New(workerpool.Config{MaxConcurrent: cfg.GitHub.MaxConcurrent}, logger)
	importService := services.NewGitHubImportService(githubClient, projectService, ingestionService, importPool, cfg.GitHub.ReadmePreview, logger)

	auditor := audit.NewSecurityAuditor(logger)

	// Routes
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewProjectsHandler(projectService, matchService, importService, auditor, logger).RegisterRoutes(mux, authMiddleware, ownerMiddleware)
	handlers.NewUsersHandler(userService, logger).RegisterRoutes(mux, authMiddleware, ownerMiddleware)
	handlers.NewEmailsHandler(emailService, auditor, logger).RegisterRoutes(mux, authMiddleware, ownerMiddleware)
	handlers.NewResumesHandler(resumeService, cfg.Resume.MaxUploadBytes, logger).RegisterRoutes(mux, authMiddleware, ownerMiddleware)

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer("coldconnect-engine", cfg.Version, logger)
		tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version, cfg.Embedding.Model)
		tools.RegisterProjectTools(mcpServer.MCP(), &tools.ProjectToolDeps{
			Scopes:   database.NewOwnerScopeProvider(db),
			Projects: projectService,
			Matcher:  matchService,
			Logger:   logger.Named("mcp-tools"),
		})
		mcpHandler := middleware.MCPRequestLogger(logger.Named("mcp-http"))(mcpServer.NewStreamableHTTPServer())
		mux.Handle("/mcp", authMiddleware.RequireAuthHandler(mcpHandler))
		logger.Info("MCP server enabled", zap.String("endpoint", cfg.BaseURL+"/mcp"))
	}

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger.Named("http"))(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting coldconnect-engine",
			zap.String("addr", server.Addr),
			zap.Bool("tls", cfg.TLSCertPath != ""))
		var serveErr error
		if cfg.TLSCertPath != "" {
			serveErr = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			serveErr = server.ListenAndServe()
		}
		if !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func applyMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to open sql connection: %w", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, migrations.FS, logger.Named("migrations")); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
