package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pucklab/roster-optimizer/internal/domain/credential"
	"github.com/pucklab/roster-optimizer/internal/usecase"
)

func TestClientVerifyIDToken_ActiveToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"active":true,"sub":"user-123"}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{HTTPClient: srv.Client(), VerifyURL: srv.URL})
	if err := client.VerifyIDToken(context.Background(), "id-token-abc"); err != nil {
		t.Fatalf("verify id token failed: %v", err)
	}
}

func TestClientVerifyIDToken_InactiveToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"active":false}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{HTTPClient: srv.Client(), VerifyURL: srv.URL})
	err := client.VerifyIDToken(context.Background(), "stale-token")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClientVerifyIDToken_EmptyToken(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{VerifyURL: "http://localhost:0"})
	err := client.VerifyIDToken(context.Background(), "  ")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for empty token, got %v", err)
	}
}

func TestClientRefreshIfNeeded_SkipsWhileValid(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{HTTPClient: srv.Client(), TokenURL: srv.URL})
	cred := credential.Credential{
		AccessToken:  "still-good",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	got, err := client.RefreshIfNeeded(context.Background(), cred)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if got.AccessToken != "still-good" {
		t.Fatalf("valid credential must pass through unchanged, got %+v", got)
	}
	if calls.Load() != 0 {
		t.Fatalf("token endpoint called %d times for a valid credential", calls.Load())
	}
}

func TestClientRefreshIfNeeded_RedeemsRefreshToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Fatalf("unexpected grant_type: %s", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "refresh-1" {
			t.Fatalf("unexpected refresh_token: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","refresh_token":"refresh-2","id_token":"id-2","expires_in":3600}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{HTTPClient: srv.Client(), TokenURL: srv.URL, ClientID: "cid", ClientSecret: "cs"})
	cred := credential.Credential{
		AccessToken:  "expired",
		RefreshToken: "refresh-1",
		IDToken:      "id-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}

	got, err := client.RefreshIfNeeded(context.Background(), cred)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if got.AccessToken != "fresh" || got.RefreshToken != "refresh-2" || got.IDToken != "id-2" {
		t.Fatalf("unexpected refreshed credential: %+v", got)
	}
	if !got.ExpiresAt.After(time.Now()) {
		t.Fatalf("refreshed credential should expire in the future")
	}
}

func TestClientRefreshIfNeeded_RejectedRefresh(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{HTTPClient: srv.Client(), TokenURL: srv.URL})
	cred := credential.Credential{
		AccessToken:  "expired",
		RefreshToken: "revoked",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}

	_, err := client.RefreshIfNeeded(context.Background(), cred)
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
