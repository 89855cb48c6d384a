package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")

	// 1. Open DB connection pool
	dsn := cfg.DBConnectionString
	// In a development environment, ensure SSL is disabled for local
	// testing. In production, the connection string should carry the
	// correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection pool")
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		pool.Close()
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// 2. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 3. Resolve the provider API key: env first, Secret Manager second.
	apiKey := cfg.GeminiAPIKey
	if apiKey == "" && cfg.GCPProjectID != "" {
		sm, err := service.NewSecretManagerService(ctx, cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("Secret Manager unavailable, provider key unresolved")
		} else {
			key, err := sm.GetProviderAPIKey(ctx, cfg.GeminiAPIKeySecretName)
			if err != nil {
				logger.Warn().Err(err).Str("secret", cfg.GeminiAPIKeySecretName).Msg("Failed to read provider key from Secret Manager")
			} else {
				apiKey = key
			}
			if err := sm.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close Secret Manager client")
			}
		}
	}

	// A nil completer is legal: synthesize requests then fail with a
	// configuration error instead of a crash at startup.
	var completer service.Completer
	if apiKey != "" {
		completer = service.NewGeminiClient(apiKey, cfg.GeminiModel, time.Duration(cfg.ProviderTimeoutSec)*time.Second)
	} else {
		logger.Warn().Msg("No Gemini API key configured, synthesis disabled")
	}

	// 4. Optional Pub/Sub telemetry
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
		if err != nil {
			logger.Warn().Err(err).Msg("Pub/Sub unavailable, synthesis telemetry disabled")
		} else {
			publisher = p
		}
	}

	// 5. Initialize repositories & services & handlers
	usageRepo := repository.NewUsageRepo(pool)

	quotaSvc := service.NewQuotaService(usageRepo, cfg.FreeDailyLimit, logger)
	synthesisSvc := service.NewSynthesisService(
		completer,
		service.NewConfigValidator(validate),
		publisher,
		cfg.SynthesisTopic,
		service.CompletionOptions{
			Temperature:     cfg.AITemperature,
			MaxOutputTokens: cfg.AIMaxOutputTokens,
		},
		logger,
	)

	quotaHandler := handler.NewQuotaHandler(quotaSvc, validate, logger)
	synthesisHandler := handler.NewSynthesisHandler(synthesisSvc, validate, logger)

	// 6. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)

	// 7. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	quotaHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	synthesisHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Redirect all other root-level requests to /v1/{path}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/v1"+r.URL.Path, http.StatusMovedPermanently)
	})

	// 8. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger, c.Handler(mux)), pool, nil
}
