package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pucklab/roster-optimizer/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string

	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration

	CacheEnabled bool
	CacheTTL     time.Duration

	RosterBatchSize   int
	RosterWorkerCount int

	YahooBaseURL               string
	YahooTimeout               time.Duration
	YahooCircuitEnabled        bool
	YahooCircuitFailureCount   int
	YahooCircuitOpenTimeout    time.Duration
	YahooCircuitHalfOpenMaxReq int

	NHLBaseURL               string
	NHLTimeout               time.Duration
	NHLCircuitEnabled        bool
	NHLCircuitFailureCount   int
	NHLCircuitOpenTimeout    time.Duration
	NHLCircuitHalfOpenMaxReq int

	OAuthVerifyURL    string
	OAuthTokenURL     string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthTimeout      time.Duration
	OAuthExpiryLeeway time.Duration

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	rosterBatchSize, err := getEnvAsInt("ROSTER_STATS_BATCH_SIZE", 20)
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_STATS_BATCH_SIZE: %w", err)
	}
	if rosterBatchSize < 1 || rosterBatchSize > 25 {
		return Config{}, fmt.Errorf("ROSTER_STATS_BATCH_SIZE must be between 1 and 25")
	}
	rosterWorkerCount, err := getEnvAsInt("ROSTER_WORKER_COUNT", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_WORKER_COUNT: %w", err)
	}
	if rosterWorkerCount < 1 {
		return Config{}, fmt.Errorf("ROSTER_WORKER_COUNT must be >= 1")
	}

	yahooTimeout, err := time.ParseDuration(getEnv("YAHOO_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse YAHOO_TIMEOUT: %w", err)
	}
	if yahooTimeout <= 0 {
		return Config{}, fmt.Errorf("YAHOO_TIMEOUT must be > 0")
	}
	yahooCircuitEnabled, err := strconv.ParseBool(getEnv("YAHOO_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse YAHOO_CIRCUIT_ENABLED: %w", err)
	}
	yahooCircuitFailureCount, err := getEnvAsInt("YAHOO_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse YAHOO_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if yahooCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("YAHOO_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	yahooCircuitOpenTimeout, err := time.ParseDuration(getEnv("YAHOO_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse YAHOO_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if yahooCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("YAHOO_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	yahooCircuitHalfOpenMaxReq, err := getEnvAsInt("YAHOO_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse YAHOO_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if yahooCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("YAHOO_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	nhlTimeout, err := time.ParseDuration(getEnv("NHL_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NHL_TIMEOUT: %w", err)
	}
	if nhlTimeout <= 0 {
		return Config{}, fmt.Errorf("NHL_TIMEOUT must be > 0")
	}
	nhlCircuitEnabled, err := strconv.ParseBool(getEnv("NHL_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NHL_CIRCUIT_ENABLED: %w", err)
	}
	nhlCircuitFailureCount, err := getEnvAsInt("NHL_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse NHL_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if nhlCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("NHL_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	nhlCircuitOpenTimeout, err := time.ParseDuration(getEnv("NHL_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NHL_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if nhlCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("NHL_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	nhlCircuitHalfOpenMaxReq, err := getEnvAsInt("NHL_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse NHL_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if nhlCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("NHL_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	oauthTimeout, err := time.ParseDuration(getEnv("OAUTH_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse OAUTH_TIMEOUT: %w", err)
	}
	if oauthTimeout <= 0 {
		return Config{}, fmt.Errorf("OAUTH_TIMEOUT must be > 0")
	}
	oauthExpiryLeeway, err := time.ParseDuration(getEnv("OAUTH_EXPIRY_LEEWAY", "2m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse OAUTH_EXPIRY_LEEWAY: %w", err)
	}
	if oauthExpiryLeeway < 0 {
		return Config{}, fmt.Errorf("OAUTH_EXPIRY_LEEWAY must be >= 0")
	}

	oauthVerifyURL := strings.TrimSpace(getEnv("OAUTH_VERIFY_URL", ""))
	oauthTokenURL := strings.TrimSpace(getEnv("OAUTH_TOKEN_URL", "https://api.login.yahoo.com/oauth2/get_token"))
	oauthClientID := strings.TrimSpace(getEnv("OAUTH_CLIENT_ID", ""))
	oauthClientSecret := strings.TrimSpace(getEnv("OAUTH_CLIENT_SECRET", ""))
	if appEnv == EnvProd {
		if oauthClientID == "" || oauthClientSecret == "" {
			return Config{}, fmt.Errorf("OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET are required when APP_ENV=prod")
		}
	}

	logLevel := parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "roster-optimizer-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,

		CacheEnabled: cacheEnabled,
		CacheTTL:     cacheTTL,

		RosterBatchSize:   rosterBatchSize,
		RosterWorkerCount: rosterWorkerCount,

		YahooBaseURL:               strings.TrimSpace(getEnv("YAHOO_BASE_URL", "https://fantasysports.yahooapis.com/fantasy/v2")),
		YahooTimeout:               yahooTimeout,
		YahooCircuitEnabled:        yahooCircuitEnabled,
		YahooCircuitFailureCount:   yahooCircuitFailureCount,
		YahooCircuitOpenTimeout:    yahooCircuitOpenTimeout,
		YahooCircuitHalfOpenMaxReq: yahooCircuitHalfOpenMaxReq,

		NHLBaseURL:               strings.TrimSpace(getEnv("NHL_BASE_URL", "https://statsapi.web.nhl.com/api/v1")),
		NHLTimeout:               nhlTimeout,
		NHLCircuitEnabled:        nhlCircuitEnabled,
		NHLCircuitFailureCount:   nhlCircuitFailureCount,
		NHLCircuitOpenTimeout:    nhlCircuitOpenTimeout,
		NHLCircuitHalfOpenMaxReq: nhlCircuitHalfOpenMaxReq,

		OAuthVerifyURL:    oauthVerifyURL,
		OAuthTokenURL:     oauthTokenURL,
		OAuthClientID:     oauthClientID,
		OAuthClientSecret: oauthClientSecret,
		OAuthTimeout:      oauthTimeout,
		OAuthExpiryLeeway: oauthExpiryLeeway,

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		UptraceEnabled:     uptraceEnabled,
		UptraceDSN:         uptraceDSN,
		UptraceLogsEnabled: uptraceLogsEnabled,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,

		LogLevel: logLevel,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
