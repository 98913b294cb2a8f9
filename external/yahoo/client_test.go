package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pucklab/roster-optimizer/internal/domain/credential"
	"github.com/pucklab/roster-optimizer/internal/platform/resilience"
	"github.com/pucklab/roster-optimizer/internal/usecase"
)

func testCredential() credential.Credential {
	return credential.Credential{AccessToken: "token-abc"}
}

func TestClient_Query_SendsAuthAndFormat(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-abc" {
			t.Errorf("authorization header = %q", got)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format query = %q", got)
		}
		if r.URL.Path != "/team/453.l.1.t.2/roster;date=2026-01-15" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"fantasy_content":{}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Timeout: time.Second})
	raw, err := client.Query(context.Background(), "team/453.l.1.t.2/roster;date=2026-01-15", testCredential())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("expected raw document bytes")
	}
}

func TestClient_Query_UnauthorizedStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Timeout: time.Second})
	_, err := client.Query(context.Background(), "team/x/roster", testCredential())
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestClient_Query_CircuitOpensAfterServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		Timeout: time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	for i := 0; i < 2; i++ {
		if _, err := client.Query(context.Background(), "game/453/stat_categories", testCredential()); err == nil {
			t.Fatalf("expected provider error on call %d", i+1)
		}
	}

	_, err := client.Query(context.Background(), "game/453/stat_categories", testCredential())
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable after breaker opened, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("server hit %d times, want 2 (third call shed by breaker)", got)
	}
}

func TestClient_Query_NonRetryableStatusNotTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
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

	if _, err := client.Query(context.Background(), "league/453.l.1/settings", testCredential()); err == nil {
		t.Fatalf("expected error for 400 response")
	}
	// A client error must not trip the breaker.
	_, err := client.Query(context.Background(), "league/453.l.1/settings", testCredential())
	if errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("breaker opened on non-transient failure")
	}
}
