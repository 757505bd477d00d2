//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/geonho/vocautobot-backend/internal/adapter/notifier"
	"github.com/geonho/vocautobot-backend/internal/adapter/postgres"
	auditrepo "github.com/geonho/vocautobot-backend/internal/adapter/postgres/audit"
	kpirepo "github.com/geonho/vocautobot-backend/internal/adapter/postgres/kpi"
	notificationrepo "github.com/geonho/vocautobot-backend/internal/adapter/postgres/notification"
	statsrepo "github.com/geonho/vocautobot-backend/internal/adapter/postgres/stats"
	"github.com/geonho/vocautobot-backend/internal/adapter/postgres/testhelper"
	vocrepo "github.com/geonho/vocautobot-backend/internal/adapter/postgres/voc"
	"github.com/geonho/vocautobot-backend/internal/config"
	"github.com/geonho/vocautobot-backend/internal/domain"
	auditsvc "github.com/geonho/vocautobot-backend/internal/service/audit"
	kpisvc "github.com/geonho/vocautobot-backend/internal/service/kpi"
	notificationsvc "github.com/geonho/vocautobot-backend/internal/service/notification"
	statssvc "github.com/geonho/vocautobot-backend/internal/service/stats"
	triagesvc "github.com/geonho/vocautobot-backend/internal/service/triage"
	vocsvc "github.com/geonho/vocautobot-backend/internal/service/voc"
	"github.com/geonho/vocautobot-backend/internal/transport/rest"
)

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// ---------------------------------------------------------------------------
// Stub classifier backend. Deterministic so assertions stay simple; the
// real backends have their own unit tests.
// ---------------------------------------------------------------------------

type stubClassifier struct{}

func (stubClassifier) Classify(_ context.Context, _, _ string, _ domain.Classification) (domain.Classification, error) {
	return domain.Classification{
		Category:   "BILLING",
		Priority:   domain.VocPriorityHigh,
		Sentiment:  domain.SentimentNegative,
		Keywords:   []string{"invoice", "charge"},
		Summary:    "Customer disputes a charge",
		Confidence: 0.92,
	}, nil
}

// ---------------------------------------------------------------------------
// setupTestServer bootstraps the full application stack backed by a real
// PostgreSQL container (shared via testhelper). Tables are truncated so each
// top-level test starts from an empty database.
// ---------------------------------------------------------------------------

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	testhelper.TruncateAll(t, pool)

	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	txm := postgres.NewTxManager(pool)

	vocs := vocrepo.New(pool)
	audits := auditrepo.New(pool)
	stats := statsrepo.New(pool)
	snapshots := kpirepo.New(pool)
	notifications := notificationrepo.New(pool)

	classifierCfg := config.ClassifierConfig{
		Timeout:             2 * time.Second,
		RetryBackoff:        10 * time.Millisecond,
		ConfidenceThreshold: 0.6,
	}

	alerts := notifier.NewNoOp(logger)
	auditService := auditsvc.NewService(logger, audits)
	triageService := triagesvc.NewService(logger, classifierCfg, stubClassifier{}, vocs, alerts)
	vocService := vocsvc.NewService(logger, vocs, auditService, txm, triageService, notifications, alerts)
	statsService := statssvc.NewService(logger, stats)
	kpiService := kpisvc.NewService(logger, snapshots, stats)
	notificationService := notificationsvc.NewService(logger, notifications)

	router := rest.NewRouter(logger, rest.Handlers{
		Health:        rest.NewHealthHandler(pool, "test-version"),
		Voc:           rest.NewVocHandler(vocService, triageService, logger),
		Audit:         rest.NewAuditHandler(auditService, logger),
		Stats:         rest.NewStatsHandler(statsService, logger),
		Kpi:           rest.NewKpiHandler(kpiService, logger),
		Notifications: rest.NewNotificationHandler(notificationService, logger),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
	}
}

// ---------------------------------------------------------------------------
// HTTP helpers.
// ---------------------------------------------------------------------------

// testUser identifies the acting user for authenticated requests.
type testUser struct {
	ID   uuid.UUID
	Name string
}

func newTestUser(name string) testUser {
	return testUser{ID: uuid.New(), Name: name}
}

// doJSON sends a JSON request and decodes the JSON response body, if any.
// A zero-value user sends the request unauthenticated.
func (ts *testServer) doJSON(t *testing.T, method, path string, body any, user testUser) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user.ID != uuid.Nil {
		req.Header.Set("X-User-Id", user.ID.String())
		req.Header.Set("X-User-Name", user.Name)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.ContentLength != 0 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

// createVoc registers a VOC through the API and returns its decoded response.
func (ts *testServer) createVoc(t *testing.T, user testUser, title string) map[string]any {
	t.Helper()

	status, body := ts.doJSON(t, http.MethodPost, "/api/v1/vocs", map[string]any{
		"title":          title,
		"content":        "I was charged twice for my September invoice.",
		"customer_email": "customer@example.com",
	}, user)
	require.Equal(t, http.StatusCreated, status, "create voc: %v", body)
	return body
}

func vocID(t *testing.T, voc map[string]any) string {
	t.Helper()
	id, ok := voc["id"].(string)
	require.True(t, ok, "expected voc id in response: %v", voc)
	return id
}

func fieldString(t *testing.T, m map[string]any, key string) string {
	t.Helper()
	v, ok := m[key].(string)
	require.True(t, ok, "expected string %q in %v", key, m)
	return v
}
