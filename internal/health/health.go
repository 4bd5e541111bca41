// Package health serves the liveness endpoint.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/wolfman30/prism-crm/internal/http/respond"
	"github.com/wolfman30/prism-crm/pkg/logging"
)

const (
	systemName    = "Prism CRM Unified Engine"
	statusOnline  = "System is online"
	dbConnected   = "Connected"
	dbUnavailable = "Unavailable"
	dbInMemory    = "In-Memory"
	pingTimeout   = 2 * time.Second
)

// Status is the body of GET /.
type Status struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	System   string `json:"system"`
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a ping function, such as (*pgxpool.Pool).Ping, to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

// Handler reports process and database liveness.
type Handler struct {
	db     Pinger
	logger *logging.Logger
}

// NewHandler creates a health handler. A nil db means the process runs on
// the in-memory store.
func NewHandler(db Pinger, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{db: db, logger: logger}
}

// Check handles GET /.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	body := Status{Status: statusOnline, Database: dbConnected, System: systemName}
	if h.db == nil {
		body.Database = dbInMemory
		respond.JSON(w, http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("database ping failed", "error", err)
		body.Database = dbUnavailable
		respond.JSON(w, http.StatusServiceUnavailable, body)
		return
	}
	respond.JSON(w, http.StatusOK, body)
}
