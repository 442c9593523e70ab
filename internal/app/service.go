// Package service wires the stores, scorer, job queue and worker pool into
// the operations the HTTP API exposes.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/estatecamp/internal/adapters/blob"
	jobqueue "github.com/okian/estatecamp/internal/adapters/mq/queue"
	workerpool "github.com/okian/estatecamp/internal/adapters/mq/worker"
	"github.com/okian/estatecamp/internal/adapters/repository"
	"github.com/okian/estatecamp/internal/domain/dedupe"
	"github.com/okian/estatecamp/internal/domain/export"
	"github.com/okian/estatecamp/internal/domain/leadimport"
	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/internal/domain/scoring"
	"github.com/okian/estatecamp/pkg/logger"
	"github.com/okian/estatecamp/pkg/metrics"
)

const (
	defaultQueueSize   = 10_000
	defaultDedupeSize  = 50_000
	defaultMaxPersonas = 3
	stopTimeout        = 30 * time.Second
)

// PDFPrinter renders an HTML document to PDF.
type PDFPrinter interface {
	Print(ctx context.Context, html []byte) ([]byte, error)
}

// Service implements the API dependencies for campaigns, personas and leads.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	queue    *jobqueue.InMemoryQueue
	scorer   scoring.Scorer
	pool     *workerpool.Pool
	blobs    blob.Store
	printer  PDFPrinter
	importer *leadimport.Importer
	renderer *export.Renderer

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	maxPersonas   int
	importOptions []leadimport.Option
	exportOptions []export.Option

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of score workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the score job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the in-memory job dedupe cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxPersonas caps personas per campaign.
func WithMaxPersonas(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPersonas = n
		}
	}
}

// WithStore replaces the default in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithDeduper replaces the default in-memory deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		s.deduper = d
	}
}

// WithScorer replaces the rule scorer.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		s.scorer = scorer
	}
}

// WithBlobStore replaces the default in-memory asset store.
func WithBlobStore(b blob.Store) Option {
	return func(s *Service) {
		s.blobs = b
	}
}

// WithPDFPrinter enables PDF export.
func WithPDFPrinter(p PDFPrinter) Option {
	return func(s *Service) {
		s.printer = p
	}
}

// WithImportOptions configures the spreadsheet importer.
func WithImportOptions(opts ...leadimport.Option) Option {
	return func(s *Service) {
		s.importOptions = append(s.importOptions, opts...)
	}
}

// WithExportOptions configures the plan renderer.
func WithExportOptions(opts ...export.Option) Option {
	return func(s *Service) {
		s.exportOptions = append(s.exportOptions, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		maxPersonas: defaultMaxPersonas,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates missing components and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	renderer, err := export.NewRenderer(s.exportOptions...)
	if err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	s.renderer = renderer
	s.importer = leadimport.New(s.importOptions...)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	if s.store == nil {
		s.store = repository.NewMemoryStore(runCtx)
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	if s.scorer == nil {
		s.scorer = scoring.NewRuleScorer()
	}
	if s.blobs == nil {
		s.blobs = blob.NewMemoryStore("/blobs")
	}

	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.scorer, s.store,
		workerpool.WithDeduper(s.deduper))
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxPersonas", s.maxPersonas),
		logger.Bool("pdf", s.printer != nil),
	)
	return nil
}

// Stop drains the job queue and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping service...")

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	var firstErr error
	if err := s.pool.Shutdown(stopCtx); err != nil {
		firstErr = err
	}
	s.cancel()
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	s.started = false
	s.logger.Info(ctx, "service stopped")
	return firstErr
}

func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// enqueue submits a score job for lead. It reports false without error when
// the same lead revision is already queued.
func (s *Service) enqueue(ctx context.Context, ownerID string, lead model.Lead) (bool, error) {
	job := model.ScoreJob{
		JobID:     uuid.NewString(),
		OwnerID:   ownerID,
		LeadID:    lead.ID,
		UpdatedAt: lead.UpdatedAt,
	}
	key := job.DedupeKey()
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordJobDuplicate()
		s.logger.Debug(ctx, "duplicate score job skipped", logger.String("lead_id", lead.ID))
		return false, nil
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, key)
		return false, fmt.Errorf("%w: %w", ErrBackpressure, err)
	}
	return true, nil
}

// enqueueAll queues every lead and counts the outcomes. It stops at the
// first queue rejection.
func (s *Service) enqueueAll(ctx context.Context, ownerID string, leads []model.Lead) (RescoreResult, error) {
	var res RescoreResult
	for i, l := range leads {
		queued, err := s.enqueue(ctx, ownerID, l)
		if err != nil {
			res.Rejected = len(leads) - i
			return res, err
		}
		if queued {
			res.Queued++
		} else {
			res.Duplicates++
		}
	}
	return res, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"maxPersonas": s.maxPersonas,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	queueLen := s.queue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["activeWorkers"] = s.pool.Active()
	stats["dedupeKeys"] = s.deduper.Size()
	metrics.UpdateQueueSize(queueLen)

	if total, err := s.store.CountLeads(ctx); err == nil {
		stats["totalLeads"] = total
		metrics.UpdateTotalLeads(total)
	} else {
		s.logger.Warn(ctx, "count leads failed", logger.Error(err))
	}
	return stats
}
