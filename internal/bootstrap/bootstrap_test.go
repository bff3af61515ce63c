package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/document-inbox/internal/config"
	"github.com/kirillkom/document-inbox/internal/core/domain"
	"github.com/kirillkom/document-inbox/internal/core/ports"
	"github.com/kirillkom/document-inbox/internal/core/usecase"
	"github.com/kirillkom/document-inbox/internal/infrastructure/scheduler"
	"github.com/kirillkom/document-inbox/internal/observability/metrics"
)

type publisherFake struct {
	mu     sync.Mutex
	events []domain.CatalogEvent
}

func (p *publisherFake) PublishCatalogEvent(_ context.Context, event domain.CatalogEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *publisherFake) types() []domain.CatalogEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.CatalogEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func testConfig() config.Config {
	return config.Config{
		ClassifyDelay: 2000 * time.Millisecond,
		ClassifyScope: "catalog",
		SortLocale:    "en",
		MaxBatchFiles: 10,
		DefaultTheme:  "system",
		SessionMax:    4,
	}
}

func newTestApp(t *testing.T, clock *scheduler.Manual, publisher ports.EventPublisher) (*App, http.Handler) {
	t.Helper()
	app, err := New(context.Background(), testConfig(),
		WithScheduler(clock),
		WithPicker(ports.CategoryPickerFunc(func() domain.Category { return domain.CategoryInvoice })),
		WithPublisher(publisher),
	)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	handler, err := app.HTTPHandler()
	require.NoError(t, err)
	return app, handler
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestInboxScenarioOverHTTP(t *testing.T) {
	clock := scheduler.NewManual(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	publisher := &publisherFake{}
	_, handler := newTestApp(t, clock, publisher)

	res := do(t, handler, http.MethodPost, "/v1/sessions", "")
	require.Equal(t, http.StatusCreated, res.Code)
	var info ports.SessionInfo
	require.NoError(t, json.NewDecoder(res.Body).Decode(&info))
	base := "/v1/sessions/" + info.ID

	res = do(t, handler, http.MethodPost, base+"/documents",
		`{"files":[{"name":"invoice1.pdf","size":1000},{"name":"notes.docx","size":2000}]}`)
	require.Equal(t, http.StatusAccepted, res.Code)

	var listed struct {
		Documents []domain.Document `json:"documents"`
	}
	res = do(t, handler, http.MethodGet, base+"/documents?sort=name", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&listed))
	require.Len(t, listed.Documents, 2)
	assert.Equal(t, "invoice1.pdf", listed.Documents[0].Name)
	for _, doc := range listed.Documents {
		assert.Equal(t, domain.StatusAnalyzing, doc.Status)
	}

	var stats struct {
		Total             int     `json:"total"`
		Classified        int     `json:"classified"`
		ClassifiedPercent float64 `json:"classified_percent"`
	}
	res = do(t, handler, http.MethodGet, base+"/stats", "")
	require.NoError(t, json.NewDecoder(res.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Total)
	assert.Zero(t, stats.Classified)

	assert.Zero(t, clock.Advance(1999*time.Millisecond))
	assert.Equal(t, 1, clock.Advance(time.Millisecond))

	res = do(t, handler, http.MethodGet, base+"/stats", "")
	require.NoError(t, json.NewDecoder(res.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Classified)
	assert.Equal(t, 100.0, stats.ClassifiedPercent)

	res = do(t, handler, http.MethodGet, base+"/documents?format=excel", "")
	require.NoError(t, json.NewDecoder(res.Body).Decode(&listed))
	assert.Empty(t, listed.Documents)

	res = do(t, handler, http.MethodGet, base+"/export", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.NotZero(t, res.Body.Len())

	assert.Equal(t, []domain.CatalogEventType{
		domain.EventDocumentsAppended,
		domain.EventDocumentsClassified,
	}, publisher.types())
}

func TestClosedSessionDiscardsPendingClassification(t *testing.T) {
	clock := scheduler.NewManual(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	publisher := &publisherFake{}
	app, handler := newTestApp(t, clock, publisher)

	res := do(t, handler, http.MethodPost, "/v1/sessions", "")
	var info ports.SessionInfo
	require.NoError(t, json.NewDecoder(res.Body).Decode(&info))

	res = do(t, handler, http.MethodPost, "/v1/sessions/"+info.ID+"/documents", `{"files":[{"name":"a.txt","size":1}]}`)
	require.Equal(t, http.StatusAccepted, res.Code)
	require.Equal(t, 1, clock.Pending())

	res = do(t, handler, http.MethodDelete, "/v1/sessions/"+info.ID, "")
	require.Equal(t, http.StatusNoContent, res.Code)
	assert.Zero(t, clock.Pending())
	assert.Zero(t, app.Sessions.Len())

	res = do(t, handler, http.MethodGet, "/v1/sessions/"+info.ID+"/documents", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, []domain.CatalogEventType{domain.EventDocumentsAppended}, publisher.types())
}

func TestNewRejectsUnknownScope(t *testing.T) {
	cfg := testConfig()
	cfg.ClassifyScope = "everything"

	_, err := New(context.Background(), cfg, WithPublisher(&publisherFake{}))
	assert.Error(t, err)
}

func TestWorkerHandleFoldsEvents(t *testing.T) {
	worker := &Worker{
		Metrics:  metrics.NewWorkerMetrics("inbox-worker"),
		Activity: usecase.NewActivityUseCase(nil),
	}

	require.NoError(t, worker.Handle(context.Background(), domain.CatalogEvent{
		Type: domain.EventDocumentsAppended, SessionID: "s-1", DocumentIDs: []string{"a", "b"},
	}))
	require.NoError(t, worker.Handle(context.Background(), domain.CatalogEvent{
		Type: domain.EventDocumentsClassified, SessionID: "s-1", DocumentIDs: []string{"a"},
	}))
	assert.Error(t, worker.Handle(context.Background(), domain.CatalogEvent{Type: "documents.deleted", SessionID: "s-1"}))

	activity, ok := worker.Activity.Activity("s-1")
	require.True(t, ok)
	assert.Equal(t, 1, activity.Analyzing())
}

func TestNewWorkerRequiresNATS(t *testing.T) {
	_, err := NewWorker(context.Background(), config.Config{}, nil)
	assert.Error(t, err)
}
