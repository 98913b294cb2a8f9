// Package nhl fetches the league's daily game schedule.
package nhl

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/pucklab/roster-optimizer/internal/domain/roster"
	"github.com/pucklab/roster-optimizer/internal/platform/logging"
	"github.com/pucklab/roster-optimizer/internal/platform/resilience"
	"github.com/pucklab/roster-optimizer/internal/usecase"
)

const defaultBaseURL = "https://statsapi.web.nhl.com/api/v1"

var errScheduleTransient = crerr.New("schedule provider transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the public schedule endpoint; no credential is needed.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type scheduleEnvelope struct {
	Dates []struct {
		Date  string `json:"date"`
		Games []struct {
			Teams struct {
				Away struct {
					Team struct {
						Name string `json:"name"`
					} `json:"team"`
				} `json:"away"`
				Home struct {
					Team struct {
						Name string `json:"name"`
					} `json:"team"`
				} `json:"home"`
			} `json:"teams"`
		} `json:"games"`
	} `json:"dates"`
}

// FetchDailySchedule returns which teams play on date (YYYY-MM-DD). A date
// with no games yields an empty map, not an error.
func (c *Client) FetchDailySchedule(ctx context.Context, date string) (roster.ScheduleMap, error) {
	if strings.TrimSpace(date) == "" {
		return nil, fmt.Errorf("date is required")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "schedule circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: schedule provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + "/schedule?date=" + url.QueryEscape(date)
	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errScheduleTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	var envelope scheduleEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode schedule payload: %w", err)
	}

	playing := make(roster.ScheduleMap)
	for _, day := range envelope.Dates {
		for _, game := range day.Games {
			if name := strings.TrimSpace(game.Teams.Home.Team.Name); name != "" {
				playing[name] = true
			}
			if name := strings.TrimSpace(game.Teams.Away.Team.Name); name != "" {
				playing[name] = true
			}
		}
	}
	return playing, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		reqErr := fmt.Errorf("%w: send request: %v", errScheduleTransient, err)
		c.logger.WarnContext(ctx, "schedule request failed", "url", fullURL, "error", reqErr)
		return nil, reqErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errScheduleTransient, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: provider status=%d", errScheduleTransient, resp.StatusCode)
	default:
		return nil, fmt.Errorf("provider status=%d", resp.StatusCode)
	}
}
