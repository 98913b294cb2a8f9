package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pucklab/roster-optimizer/external/nhl"
	"github.com/pucklab/roster-optimizer/external/yahoo"
	"github.com/pucklab/roster-optimizer/internal/config"
	"github.com/pucklab/roster-optimizer/internal/infrastructure/account/oauth"
	"github.com/pucklab/roster-optimizer/internal/interfaces/httpapi"
	"github.com/pucklab/roster-optimizer/internal/platform/cache"
	"github.com/pucklab/roster-optimizer/internal/platform/logging"
	"github.com/pucklab/roster-optimizer/internal/platform/resilience"
	"github.com/pucklab/roster-optimizer/internal/usecase"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger, httpLogger *slog.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	yahooClient := yahoo.NewClient(yahoo.ClientConfig{
		BaseURL: cfg.YahooBaseURL,
		Timeout: cfg.YahooTimeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.YahooCircuitEnabled,
			FailureThreshold: cfg.YahooCircuitFailureCount,
			OpenTimeout:      cfg.YahooCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.YahooCircuitHalfOpenMaxReq,
		},
	})

	nhlClient := nhl.NewClient(nhl.ClientConfig{
		BaseURL: cfg.NHLBaseURL,
		Timeout: cfg.NHLTimeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.NHLCircuitEnabled,
			FailureThreshold: cfg.NHLCircuitFailureCount,
			OpenTimeout:      cfg.NHLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.NHLCircuitHalfOpenMaxReq,
		},
	})

	oauthClient := oauth.NewClient(oauth.ClientConfig{
		HTTPClient:   &http.Client{Timeout: cfg.OAuthTimeout},
		VerifyURL:    cfg.OAuthVerifyURL,
		TokenURL:     cfg.OAuthTokenURL,
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		ExpiryLeeway: cfg.OAuthExpiryLeeway,
		Logger:       logger,
	})

	rosterSvc, err := usecase.NewRosterService(usecase.RosterServiceConfig{
		Fantasy:     yahooClient,
		Parser:      yahoo.NewParser(),
		Schedule:    nhlClient,
		Credentials: oauthClient,
		Logger:      logger,
		BatchSize:   cfg.RosterBatchSize,
		WorkerCount: cfg.RosterWorkerCount,
	})
	if err != nil {
		return nil, fmt.Errorf("build roster service: %w", err)
	}

	var responses *cache.Store
	if cfg.CacheEnabled {
		responses = cache.NewStore(cfg.CacheTTL)
	}

	handler := httpapi.NewHandler(rosterSvc, httpLogger)
	router := httpapi.NewRouter(handler, httpLogger, responses, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
