package nhl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pucklab/roster-optimizer/internal/platform/resilience"
	"github.com/pucklab/roster-optimizer/internal/usecase"
)

const scheduleDoc = `{
  "dates": [
    {
      "date": "2026-01-15",
      "games": [
        {"teams": {"away": {"team": {"name": "Boston Bruins"}}, "home": {"team": {"name": "Utah Mammoth"}}}},
        {"teams": {"away": {"team": {"name": "Anaheim Ducks"}}, "home": {"team": {"name": "San Jose Sharks"}}}}
      ]
    }
  ]
}`

func TestClient_FetchDailySchedule(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("date"); got != "2026-01-15" {
			t.Errorf("date query = %q", got)
		}
		_, _ = w.Write([]byte(scheduleDoc))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Timeout: time.Second})
	playing, err := client.FetchDailySchedule(context.Background(), "2026-01-15")
	if err != nil {
		t.Fatalf("FetchDailySchedule: %v", err)
	}

	if len(playing) != 4 {
		t.Fatalf("got %d playing teams, want 4", len(playing))
	}
	for _, name := range []string{"Boston Bruins", "Utah Mammoth", "Anaheim Ducks", "San Jose Sharks"} {
		if !playing[name] {
			t.Fatalf("team %q missing from schedule map", name)
		}
	}
	if playing["Edmonton Oilers"] {
		t.Fatalf("unscheduled team reported as playing")
	}
}

func TestClient_FetchDailySchedule_EmptyDay(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"dates":[]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Timeout: time.Second})
	playing, err := client.FetchDailySchedule(context.Background(), "2026-07-01")
	if err != nil {
		t.Fatalf("FetchDailySchedule: %v", err)
	}
	if len(playing) != 0 {
		t.Fatalf("expected empty schedule map, got %v", playing)
	}
}

func TestClient_FetchDailySchedule_BreakerShedsAfterFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		Timeout: time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	if _, err := client.FetchDailySchedule(context.Background(), "2026-01-15"); err == nil {
		t.Fatalf("expected provider error")
	}
	_, err := client.FetchDailySchedule(context.Background(), "2026-01-16")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}
