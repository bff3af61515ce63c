package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	httpadapter "github.com/kirillkom/document-inbox/internal/adapters/http"
	"github.com/kirillkom/document-inbox/internal/config"
	"github.com/kirillkom/document-inbox/internal/core/classify"
	"github.com/kirillkom/document-inbox/internal/core/domain"
	"github.com/kirillkom/document-inbox/internal/core/ports"
	"github.com/kirillkom/document-inbox/internal/core/usecase"
	"github.com/kirillkom/document-inbox/internal/core/view"
	"github.com/kirillkom/document-inbox/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/document-inbox/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-inbox/internal/infrastructure/random"
	"github.com/kirillkom/document-inbox/internal/infrastructure/resilience"
	"github.com/kirillkom/document-inbox/internal/infrastructure/scheduler"
	"github.com/kirillkom/document-inbox/internal/infrastructure/session"
	"github.com/kirillkom/document-inbox/internal/observability/metrics"
)

// Scheduler is both the upload clock and the delay source of the simulator.
type Scheduler interface {
	ports.Clock
	ports.TaskScheduler
}

type options struct {
	scheduler Scheduler
	picker    ports.CategoryPicker
	publisher ports.EventPublisher
	logger    *zap.Logger
}

type Option func(*options)

func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

func WithPicker(p ports.CategoryPicker) Option {
	return func(o *options) { o.picker = p }
}

// WithPublisher replaces the NATS publisher selected by NATS_URL.
func WithPublisher(p ports.EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Metrics *metrics.HTTPServerMetrics

	Sessions  *session.MemoryStore
	SessionUC ports.SessionManager
	IngestUC  ports.DocumentIngestor
	BrowseUC  ports.DocumentBrowser

	closeFn func()
}

func New(_ context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.scheduler == nil {
		o.scheduler = scheduler.NewRealtime()
	}
	if o.picker == nil {
		o.picker = random.NewUniformPicker()
	}

	scope, err := classify.ParseScope(cfg.ClassifyScope)
	if err != nil {
		return nil, fmt.Errorf("classification scope: %w", err)
	}
	defaultTheme, err := domain.ParseThemePreference(cfg.DefaultTheme)
	if err != nil {
		return nil, fmt.Errorf("default theme: %w", err)
	}
	locale, err := language.Parse(cfg.SortLocale)
	if err != nil {
		o.logger.Warn("sort_locale_invalid", zap.String("locale", cfg.SortLocale), zap.Error(err))
		locale = language.English
	}

	httpMetrics := metrics.NewHTTPServerMetrics("inbox-api")

	closeFn := func() {}
	publisher := o.publisher
	if publisher == nil {
		publisher, closeFn, err = newPublisher(cfg, o.logger, httpMetrics)
		if err != nil {
			return nil, err
		}
	}

	notifier := usecase.NewCatalogNotifier(publisher, httpMetrics, o.scheduler, o.logger)
	builder := usecase.NewSessionBuilder(
		o.scheduler,
		o.scheduler,
		o.picker,
		classify.Config{Delay: cfg.ClassifyDelay, Scope: scope},
		defaultTheme,
		notifier,
	)
	store := session.NewMemoryStore(builder.Build, o.scheduler, session.Options{
		IdleTTL:       cfg.SessionIdleTTL,
		MaxSessions:   cfg.SessionMax,
		SweepInterval: cfg.SessionSweepInterval,
	}, o.logger)

	return &App{
		Config:  cfg,
		Logger:  o.logger,
		Metrics: httpMetrics,

		Sessions:  store,
		SessionUC: usecase.NewSessionUseCase(store),
		IngestUC:  usecase.NewIngestUseCase(store, notifier, cfg.MaxBatchFiles),
		BrowseUC:  usecase.NewBrowseUseCase(store, view.NewPipeline(locale), xlsx.NewExporter()),

		closeFn: closeFn,
	}, nil
}

// HTTPHandler assembles the public API with its middleware chain.
func (a *App) HTTPHandler() (http.Handler, error) {
	router, err := httpadapter.NewRouter(
		httpadapter.Config{
			RateLimitRPS:   a.Config.APIRateLimitRPS,
			RateLimitBurst: a.Config.APIRateLimitBurst,
			MaxInFlight:    a.Config.APIMaxInFlight,
			OverloadWait:   a.Config.APIOverloadWait,
		},
		a.SessionUC,
		a.IngestUC,
		a.BrowseUC,
		a.Metrics,
		a.Logger,
	)
	if err != nil {
		return nil, err
	}
	return router.Handler(), nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newPublisher(
	cfg config.Config,
	logger *zap.Logger,
	httpMetrics *metrics.HTTPServerMetrics,
) (ports.EventPublisher, func(), error) {
	if cfg.NATSURL == "" {
		logger.Info("catalog_events_disabled")
		return nats.Discard{}, func() {}, nil
	}

	policy := cfg.PublishPolicy()
	if budget := policy.RetryBudget(); budget >= usecase.PublishTimeout {
		logger.Warn("publish_retry_budget_exceeds_timeout",
			zap.Duration("retry_budget", budget),
			zap.Duration("publish_timeout", usecase.PublishTimeout),
		)
	}
	executor := resilience.NewExecutor(
		policy,
		resilience.WithLogger(logger),
		resilience.WithStateObserver(func(operation string, _, to gobreaker.State) {
			httpMetrics.RecordBreakerState(operation, to.String())
		}),
	)
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.CatalogEventsSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init event publisher: %w", err)
	}
	return queue, queue.Close, nil
}

// Worker consumes catalog events published by API instances.
type Worker struct {
	Config     config.Config
	Logger     *zap.Logger
	Metrics    *metrics.WorkerMetrics
	Subscriber ports.EventSubscriber
	Activity   *usecase.ActivityUseCase

	closeFn func()
}

func NewWorker(_ context.Context, cfg config.Config, logger *zap.Logger) (*Worker, error) {
	if cfg.NATSURL == "" {
		return nil, fmt.Errorf("worker requires NATS_URL")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.CatalogEventsSubject, nats.Options{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("init event subscriber: %w", err)
	}

	return &Worker{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics.NewWorkerMetrics("inbox-worker"),
		Subscriber: queue,
		Activity:   usecase.NewActivityUseCase(logger),
		closeFn:    queue.Close,
	}, nil
}

// Run blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	return w.Subscriber.SubscribeCatalogEvents(ctx, w.Handle)
}

func (w *Worker) Handle(ctx context.Context, event domain.CatalogEvent) error {
	if !event.OccurredAt.IsZero() {
		w.Metrics.ObserveLag(time.Since(event.OccurredAt))
	}
	err := w.Activity.Handle(ctx, event)
	w.Metrics.ObserveEvent(string(event.Type), len(event.DocumentIDs), err)
	return err
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}
