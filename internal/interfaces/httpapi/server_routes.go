package httpapi

import (
	"net/http"

	"github.com/pucklab/roster-optimizer/internal/platform/cache"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerRosterRoutes(mux *http.ServeMux, handler *Handler, responses *cache.Store) {
	mux.Handle("GET /api/teamRoster", RequireSession(CacheResponses(responses, http.HandlerFunc(handler.GetTeamRoster))))
	mux.Handle("POST /api/teamRoster", RequireSession(http.HandlerFunc(handler.PostTeamRoster)))
}
