package handler

import (
	"context"
	"database/sql"
	"net/http"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports API health including database and cache reachability.
type HealthHandler struct {
	db    *sql.DB
	cache Pinger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Handle handles GET /health requests.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("database unreachable"))
		return
	}
	if err := h.cache.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("cache unreachable"))
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("ok"))
}
