package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/verityscan/verityscan/internal/config"
	"github.com/verityscan/verityscan/internal/core/ports"
	"github.com/verityscan/verityscan/internal/core/usecase"
	"github.com/verityscan/verityscan/internal/infrastructure/analysis"
	"github.com/verityscan/verityscan/internal/infrastructure/pdfinfo"
	natsqueue "github.com/verityscan/verityscan/internal/infrastructure/queue/nats"
	"github.com/verityscan/verityscan/internal/infrastructure/resilience"
	"github.com/verityscan/verityscan/internal/infrastructure/storage/localfs"
	"github.com/verityscan/verityscan/internal/infrastructure/store/memory"
	"github.com/verityscan/verityscan/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Store     ports.DocumentStore
	Bridge    ports.AnalysisService
	Submitter ports.DocumentSubmitter

	HTTPMetrics *metrics.HTTPServerMetrics
	JobMetrics  *metrics.JobMetrics

	closeFn func()
}

func New(cfg config.Config) (*App, error) {
	store, err := memory.NewStore()
	if err != nil {
		return nil, fmt.Errorf("init document store: %w", err)
	}

	staging, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init staging storage: %w", err)
	}

	bridge := analysis.New(cfg.AnalysisURL, analysis.Options{
		HealthTimeout:  cfg.AnalysisHealthTimeout,
		RequestTimeout: cfg.AnalysisRequestTimeout,
	})

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: cfg.RetryMaxAttempts,
		RetryBackoffStep: cfg.RetryBackoffStep,
		BreakerEnabled:   true,
	})

	var events ports.JobEventPublisher
	var publisher *natsqueue.Publisher
	if cfg.NATSEnabled {
		publisher, err = natsqueue.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, fmt.Errorf("init job event publisher: %w", err)
		}
		events = publisher
	} else {
		slog.Info("job_event_publisher_disabled")
	}

	submitter := usecase.NewSubmitDocumentUseCase(
		store,
		bridge,
		staging,
		pdfinfo.Inspector{},
		events,
		executor,
		analysis.ClassifyError,
		usecase.SubmitterConfig{
			MinDiskHeadroom: cfg.MinDiskHeadroom,
			CleanupDelay:    cfg.CleanupDelay,
			JobRetention:    cfg.JobRetention,
		},
	)

	return &App{
		Config: cfg,

		Store:     store,
		Bridge:    bridge,
		Submitter: submitter,

		HTTPMetrics: metrics.NewHTTPServerMetrics(cfg.ServiceName),
		JobMetrics:  metrics.NewJobMetrics(cfg.ServiceName),

		closeFn: func() {
			if publisher != nil {
				publisher.Close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
