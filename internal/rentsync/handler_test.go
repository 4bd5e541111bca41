package rentsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/prism-crm/internal/archive"
	"github.com/wolfman30/prism-crm/internal/leads"
	"github.com/wolfman30/prism-crm/internal/observability/metrics"
	"github.com/wolfman30/prism-crm/pkg/logging"
)

type recordingArchiver struct {
	records []archive.PayloadRecord
	bodies  [][]byte
	err     error
}

func (a *recordingArchiver) Enabled() bool { return true }

func (a *recordingArchiver) ArchivePayload(ctx context.Context, rec archive.PayloadRecord, body []byte) (string, error) {
	a.records = append(a.records, rec)
	a.bodies = append(a.bodies, body)
	return "webhooks/v1/rentsync/key.json", a.err
}

type failingRepository struct {
	leads.Repository
}

func (failingRepository) Create(ctx context.Context, req *leads.CreateLeadRequest) (*leads.Lead, error) {
	return nil, errors.New("connection refused")
}

func postWebhook(t *testing.T, h *Handler, body string) Result {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/rentsync", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestWebhookPersistsLead(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h := NewHandler(repo, logging.NewWithWriter("error", &bytes.Buffer{}))

	out := postWebhook(t, h, `{"data":{"email":"a@b.com"}}`)
	assert.Equal(t, Result{Status: "success", Message: "Lead ingested successfully"}, out)

	stored, err := repo.List(context.Background(), leads.DefaultListFilter())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	lead := stored[0]
	assert.Equal(t, leads.UnknownProspectName, lead.Name)
	require.NotNil(t, lead.Email)
	assert.Equal(t, "a@b.com", *lead.Email)
	assert.Equal(t, SourceLabel, lead.Source)
	assert.Equal(t, leads.StatusNew, lead.Status)
	assert.Nil(t, lead.Phone)
	require.NotNil(t, lead.Debug2)
	assert.Equal(t, "SentAt Raw: None", *lead.Debug2)
}

func TestWebhookEveryDeliveryCreatesALead(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h := NewHandler(repo, logging.NewWithWriter("error", &bytes.Buffer{}))

	postWebhook(t, h, `{"data":{"fullname":"Same Person","email":"same@example.com"}}`)
	postWebhook(t, h, `{"data":{"fullname":"Same Person","email":"same@example.com"}}`)

	stored, err := repo.List(context.Background(), leads.DefaultListFilter())
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestWebhookMalformedBodyReturnsErrorStatus(t *testing.T) {
	var logs bytes.Buffer
	repo := leads.NewInMemoryRepository()
	archiver := &recordingArchiver{}
	h := NewHandler(repo, logging.NewWithWriter("info", &logs), WithArchive(archiver, false))

	out := postWebhook(t, h, `not-json`)
	assert.Equal(t, "error", out.Status)
	assert.Contains(t, out.Message, ErrMalformedPayload.Error())

	stored, err := repo.List(context.Background(), leads.DefaultListFilter())
	require.NoError(t, err)
	assert.Empty(t, stored)

	assert.Contains(t, logs.String(), "failed to normalize rentsync payload")
	assert.Contains(t, logs.String(), "not-json")

	require.Len(t, archiver.records, 1)
	assert.Equal(t, archive.OutcomeFailed, archiver.records[0].Outcome)
	assert.Equal(t, SourceLabel, archiver.records[0].Source)
	assert.Equal(t, []byte("not-json"), archiver.bodies[0])
}

func TestWebhookStoreFailureReturnsErrorStatus(t *testing.T) {
	var logs bytes.Buffer
	archiver := &recordingArchiver{err: errors.New("s3 down")}
	h := NewHandler(failingRepository{}, logging.NewWithWriter("info", &logs), WithArchive(archiver, true))

	out := postWebhook(t, h, `{"data":{"fullname":"Jane"}}`)
	assert.Equal(t, "error", out.Status)
	assert.Contains(t, out.Message, "connection refused")
	assert.Contains(t, logs.String(), "failed to persist rentsync lead")
	assert.Contains(t, logs.String(), "failed to archive webhook payload")
	require.Len(t, archiver.records, 1)
	assert.Equal(t, archive.OutcomeFailed, archiver.records[0].Outcome)
}

func TestWebhookArchivesSuccessWhenConfigured(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	archiver := &recordingArchiver{}
	h := NewHandler(repo, logging.NewWithWriter("error", &bytes.Buffer{}), WithArchive(archiver, true))

	out := postWebhook(t, h, `{"data":{"fullname":"Jane"}}`)
	assert.Equal(t, "success", out.Status)
	require.Len(t, archiver.records, 1)
	assert.Equal(t, archive.OutcomeSuccess, archiver.records[0].Outcome)
	assert.Equal(t, int64(1), archiver.records[0].LeadID)
}

func TestWebhookSkipsSuccessArchiveByDefault(t *testing.T) {
	archiver := &recordingArchiver{}
	h := NewHandler(leads.NewInMemoryRepository(), logging.NewWithWriter("error", &bytes.Buffer{}), WithArchive(archiver, false))

	postWebhook(t, h, `{"data":{"fullname":"Jane"}}`)
	assert.Empty(t, archiver.records)
}

func TestWebhookLogsRawPayload(t *testing.T) {
	var logs bytes.Buffer
	h := NewHandler(leads.NewInMemoryRepository(), logging.NewWithWriter("info", &logs))

	postWebhook(t, h, `{"data":{"fullname":"Logged Person"}}`)
	assert.Contains(t, logs.String(), "rentsync webhook received")
	assert.Contains(t, logs.String(), "Logged Person")
}

func TestWebhookRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewIngestionMetrics(reg)
	h := NewHandler(leads.NewInMemoryRepository(), logging.NewWithWriter("error", &bytes.Buffer{}), WithMetrics(m))

	postWebhook(t, h, `{"data":{"fullname":"Jane"}}`)
	postWebhook(t, h, `[]`)

	assert.Equal(t, 1.0, webhookCount(t, reg, "success"))
	assert.Equal(t, 1.0, webhookCount(t, reg, "error"))
}

func webhookCount(t *testing.T, reg *prometheus.Registry, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != "prism_ingestion_webhooks_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "status" && label.GetValue() == status {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestWebhookRejectsOversizedBody(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h := NewHandler(repo, logging.NewWithWriter("error", &bytes.Buffer{}))

	big := `{"data":{"fullname":"` + strings.Repeat("x", maxBodyBytes) + `"}}`
	out := postWebhook(t, h, big)
	assert.Equal(t, "error", out.Status)

	stored, err := repo.List(context.Background(), leads.DefaultListFilter())
	require.NoError(t, err)
	assert.Empty(t, stored)
}
