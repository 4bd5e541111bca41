package rentsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/prism-crm/internal/archive"
	"github.com/wolfman30/prism-crm/internal/http/respond"
	"github.com/wolfman30/prism-crm/internal/leads"
	"github.com/wolfman30/prism-crm/internal/observability/metrics"
	"github.com/wolfman30/prism-crm/pkg/logging"
)

var webhookTracer = otel.Tracer("prism.internal.rentsync")

const maxBodyBytes = 1 << 20

// Result is the body of every webhook response. The status code is always 200
// so RentSync does not retry deliveries that can never succeed.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type payloadArchiver interface {
	Enabled() bool
	ArchivePayload(ctx context.Context, rec archive.PayloadRecord, body []byte) (string, error)
}

// Handler ingests RentSync lead deliveries.
type Handler struct {
	leads      leads.Repository
	archiver   payloadArchiver
	archiveAll bool
	metrics    *metrics.IngestionMetrics
	logger     *logging.Logger
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithArchive stores failed payloads in the archive, and successful ones too
// when all is true.
func WithArchive(a payloadArchiver, all bool) HandlerOption {
	return func(h *Handler) {
		h.archiver = a
		h.archiveAll = all
	}
}

// WithMetrics records webhook outcomes.
func WithMetrics(m *metrics.IngestionMetrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// NewHandler creates a webhook handler that persists leads through repo.
func NewHandler(repo leads.Repository, logger *logging.Logger, opts ...HandlerOption) *Handler {
	if repo == nil {
		panic("rentsync: leads repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{leads: repo, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Webhook handles POST /webhooks/rentsync.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "rentsync.webhook",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("prism.source", SourceLabel)),
	)
	defer span.End()
	start := time.Now()
	defer func() {
		h.metrics.ObserveWebhookLatency(SourceLabel, time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err == nil && len(body) > maxBodyBytes {
		err = errors.New("payload exceeds 1 MiB")
	}
	if err != nil {
		span.RecordError(err)
		h.fail(ctx, w, body, err, "failed to read webhook body")
		return
	}
	h.logger.Info("rentsync webhook received", "payload", string(body))

	req, err := Normalize(body, SourceLabel)
	if err != nil {
		span.RecordError(err)
		h.fail(ctx, w, body, err, "failed to normalize rentsync payload")
		return
	}

	lead, err := h.leads.Create(ctx, req)
	if err != nil {
		span.RecordError(err)
		h.fail(ctx, w, body, err, "failed to persist rentsync lead")
		return
	}
	span.SetAttributes(attribute.Int64("prism.lead_id", lead.ID))
	h.logger.Info("rentsync lead ingested", "lead_id", lead.ID, "prospect_name", lead.Name)

	if h.archiveAll {
		h.archive(ctx, body, archive.PayloadRecord{Outcome: archive.OutcomeSuccess, LeadID: lead.ID})
	}
	h.metrics.ObserveWebhook(SourceLabel, "success")
	respond.JSON(w, http.StatusOK, Result{Status: "success", Message: "Lead ingested successfully"})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, body []byte, err error, msg string) {
	h.logger.Error(msg, "error", err, "payload", string(body))
	h.archive(ctx, body, archive.PayloadRecord{Outcome: archive.OutcomeFailed, Error: err.Error()})
	h.metrics.ObserveWebhook(SourceLabel, "error")
	respond.JSON(w, http.StatusOK, Result{Status: "error", Message: err.Error()})
}

func (h *Handler) archive(ctx context.Context, body []byte, rec archive.PayloadRecord) {
	if h.archiver == nil || !h.archiver.Enabled() {
		return
	}
	rec.Source = SourceLabel
	rec.RequestID = middleware.GetReqID(ctx)
	if _, err := h.archiver.ArchivePayload(ctx, rec, body); err != nil {
		h.logger.Warn("failed to archive webhook payload", "error", fmt.Errorf("rentsync: %w", err), "outcome", rec.Outcome)
	}
}
