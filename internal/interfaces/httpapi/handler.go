package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/pucklab/roster-optimizer/internal/domain/credential"
	"github.com/pucklab/roster-optimizer/internal/usecase"
)

// RosterFetcher assembles the full roster payload for one team and date.
type RosterFetcher interface {
	GetTeamRoster(ctx context.Context, input usecase.RosterInput) (usecase.RosterResult, error)
}

type Handler struct {
	roster RosterFetcher
	logger *slog.Logger
}

func NewHandler(roster RosterFetcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		roster: roster,
		logger: logger,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetTeamRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamRoster")
	defer span.End()

	query := r.URL.Query()
	h.serveTeamRoster(ctx, w, strings.TrimSpace(query.Get("teamKey")), strings.TrimSpace(query.Get("date")))
}

type teamRosterRequest struct {
	TeamKey string `json:"teamKey"`
	Date    string `json:"date"`
}

// PostTeamRoster is a legacy placeholder kept for client compatibility. It
// acknowledges the request without touching the roster pipeline.
func (h *Handler) PostTeamRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PostTeamRoster")
	defer span.End()

	var req teamRosterRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}

	h.logger.InfoContext(ctx, "team roster update acknowledged", "team_key", strings.TrimSpace(req.TeamKey), "date", strings.TrimSpace(req.Date))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(map[string]bool{"acknowledged": true})
}

func (h *Handler) serveTeamRoster(ctx context.Context, w http.ResponseWriter, teamKey, date string) {
	cred, ok := credentialFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: session credential is missing from request context", usecase.ErrUnauthorized))
		return
	}

	result, err := h.roster.GetTeamRoster(ctx, usecase.RosterInput{
		TeamKey:    teamKey,
		Date:       date,
		Credential: cred,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			writeError(ctx, w, err)
			return
		}

		// Every pipeline failure, credential refresh included, surfaces as a
		// bare 500 with an empty body. The roster clients expect that shape
		// and the error kinds stay distinct in the logs only.
		h.logger.ErrorContext(ctx, "team roster pipeline failed", "team_key", teamKey, "date", date, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if result.RefreshedCredential != nil {
		setSessionCookie(w, *result.RefreshedCredential)
	}

	// The roster payload keeps its legacy top-level shape and is written
	// without the response envelope.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(result)
}

func setSessionCookie(w http.ResponseWriter, cred credential.Credential) {
	payload, err := sonic.Marshal(cred)
	if err != nil {
		return
	}

	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    url.QueryEscape(string(payload)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if !cred.ExpiresAt.IsZero() {
		cookie.Expires = cred.ExpiresAt
	}
	http.SetCookie(w, cookie)
}
