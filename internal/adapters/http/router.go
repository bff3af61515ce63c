package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/routers"
	"go.uber.org/zap"

	"github.com/kirillkom/document-inbox/internal/core/ports"
)

const defaultMaxUploadBytes = 64 << 20

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	OverloadWait   time.Duration
	MaxUploadBytes int64
}

// TrafficMetrics is the slice of the metrics registry the router drives.
type TrafficMetrics interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
	RecordRateLimited()
	RecordOverloaded()
}

type Router struct {
	cfg      Config
	sessions ports.SessionManager
	ingest   ports.DocumentIngestor
	browser  ports.DocumentBrowser
	metrics  TrafficMetrics
	logger   *zap.Logger
	contract routers.Router
}

func NewRouter(
	cfg Config,
	sessions ports.SessionManager,
	ingest ports.DocumentIngestor,
	browser ports.DocumentBrowser,
	metrics TrafficMetrics,
	logger *zap.Logger,
) (*Router, error) {
	contract, err := loadOpenAPI()
	if err != nil {
		return nil, fmt.Errorf("init router: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:      cfg,
		sessions: sessions,
		ingest:   ingest,
		browser:  browser,
		metrics:  metrics,
		logger:   logger,
		contract: contract,
	}, nil
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("POST /v1/sessions", rt.openSession)
	mux.HandleFunc("DELETE /v1/sessions/{sessionId}", rt.closeSession)
	mux.HandleFunc("GET /v1/sessions/{sessionId}/theme", rt.getTheme)
	mux.HandleFunc("PUT /v1/sessions/{sessionId}/theme", rt.setTheme)

	mux.HandleFunc("POST /v1/sessions/{sessionId}/documents", rt.appendDocuments)
	mux.HandleFunc("GET /v1/sessions/{sessionId}/documents", rt.listDocuments)
	mux.HandleFunc("GET /v1/sessions/{sessionId}/documents/{documentId}", rt.getDocument)
	mux.HandleFunc("GET /v1/sessions/{sessionId}/folders", rt.listFolders)
	mux.HandleFunc("GET /v1/sessions/{sessionId}/folders/{formatClass}", rt.getFolder)
	mux.HandleFunc("GET /v1/sessions/{sessionId}/stats", rt.getStats)
	mux.HandleFunc("GET /v1/sessions/{sessionId}/export", rt.exportDocuments)

	var handler http.Handler = mux
	handler = openAPIValidationMiddleware(rt.contract, handler)

	var onOverload, onRateLimit func()
	if rt.metrics != nil {
		onOverload = rt.metrics.RecordOverloaded
		onRateLimit = rt.metrics.RecordRateLimited
	}
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, rt.cfg.OverloadWait, onOverload)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst, onRateLimit)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
