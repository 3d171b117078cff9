package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/audit"
	"github.com/tendercraft/rfp-engine/pkg/config"
	"github.com/tendercraft/rfp-engine/pkg/database"
	"github.com/tendercraft/rfp-engine/pkg/handlers"
	"github.com/tendercraft/rfp-engine/pkg/llm"
	"github.com/tendercraft/rfp-engine/pkg/logging"
	"github.com/tendercraft/rfp-engine/pkg/middleware"
	"github.com/tendercraft/rfp-engine/pkg/repositories"
	"github.com/tendercraft/rfp-engine/pkg/retry"
	"github.com/tendercraft/rfp-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	primary, err := newPrimaryClient(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create model client", zap.Error(err))
	}

	fallback := llm.NewHeuristicBackendWithMarkers(
		cfg.Extraction.QuestionMarkers(), cfg.Extraction.Stopwords())

	gateway := llm.NewGateway(primary, fallback, &llm.GatewayConfig{
		CallTimeout:        cfg.AI.CallTimeout(),
		ExtractionMaxChars: cfg.Extraction.MaxPromptChars,
		Retry: &retry.Config{
			MaxRetries:   cfg.AI.MaxRetries,
			InitialDelay: retry.DefaultConfig().InitialDelay,
			MaxDelay:     retry.DefaultConfig().MaxDelay,
			Multiplier:   retry.DefaultConfig().Multiplier,
			JitterFactor: retry.DefaultConfig().JitterFactor,
		},
	}, logger)

	auditor := audit.NewAuditor(logger)
	scopes := database.NewOrgScopeProvider(db)

	documentRepo := repositories.NewDocumentRepository()
	questionRepo := repositories.NewQuestionRepository()
	responseRepo := repositories.NewResponseRepository()
	knowledgeRepo := repositories.NewKnowledgeRepository()

	knowledgeSvc := services.NewKnowledgeService(knowledgeRepo,
		cfg.Knowledge.SnippetMaxChars, cfg.Knowledge.SnippetLimit, logger)
	extractionSvc := services.NewExtractionService(documentRepo, questionRepo, gateway, auditor,
		scopes, cfg.Extraction.BulkWorkers, logger)
	responseSvc := services.NewResponseService(questionRepo, responseRepo, knowledgeSvc, gateway,
		auditor, logger)
	questionSvc := services.NewQuestionService(questionRepo, logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	// API routes run behind the org-scope middleware so every repository call
	// sees an org-scoped connection.
	api := http.NewServeMux()
	handlers.NewExtractionHandler(extractionSvc, logger).RegisterRoutes(api)
	handlers.NewQuestionHandler(questionSvc, logger).RegisterRoutes(api)
	handlers.NewResponseHandler(responseSvc, logger).RegisterRoutes(api)
	mux.Handle("/api/", middleware.OrgScope(scopes, logger)(api))

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting rfp-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newPrimaryClient builds the configured hosted-model client. Returns nil
// when no provider is configured; the gateway then serves everything from the
// fallback backend.
func newPrimaryClient(cfg *config.Config, logger *zap.Logger) (llm.Client, error) {
	switch cfg.AI.Provider {
	case "openai":
		return llm.NewOpenAIClient(&llm.OpenAIConfig{
			Endpoint: cfg.AI.Endpoint,
			Model:    cfg.AI.Model,
			APIKey:   cfg.AI.OpenAIAPIKey,
		}, logger)
	case "anthropic":
		return llm.NewAnthropicClient(&llm.AnthropicConfig{
			Model:  cfg.AI.Model,
			APIKey: cfg.AI.AnthropicAPIKey,
		}, logger)
	default:
		return nil, nil
	}
}
