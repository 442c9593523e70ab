// Package worker rescores leads taken off the job queue and persists the
// predictions.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/estatecamp/internal/adapters/mq/queue"
	"github.com/okian/estatecamp/internal/domain/dedupe"
	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/internal/domain/scoring"
	"github.com/okian/estatecamp/pkg/logger"
	"github.com/okian/estatecamp/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	metricsUpdateInterval   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Store reads leads and writes predictions back.
type Store interface {
	GetLead(ctx context.Context, ownerID, id string) (model.Lead, error)
	UpdatePrediction(ctx context.Context, ownerID, leadID string, p model.Prediction) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for a single goroutine.
type InMemoryWorker struct {
	queue   Queue
	scorer  scoring.Scorer
	store   Store
	deduper dedupe.Deduper
	name    string

	active *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, scorer scoring.Scorer, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		store:    store,
		name:     "worker",
		active:   new(atomic.Int64),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("job_id", job.JobID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the loop to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process loads the lead, scores it and persists the prediction. A failed
// job releases its dedupe key so the same lead revision can be retried.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	w.active.Add(1)
	start := time.Now()
	defer func() {
		w.active.Add(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	err := w.score(ctx, job, start)
	if err != nil && w.deduper != nil {
		w.deduper.Unrecord(ctx, job.DedupeKey())
	}
	return err
}

// score runs one job; start is when the job left the queue.
func (w *InMemoryWorker) score(ctx context.Context, job queue.Job, start time.Time) error {
	lead, err := w.store.GetLead(ctx, job.OwnerID, job.LeadID)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "load_failed")
		return fmt.Errorf("load lead %s: %w", job.LeadID, err)
	}

	scoreStart := time.Now()
	res, err := w.scorer.Score(ctx, scoring.Input{LeadID: lead.ID, Lead: lead})
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordScoringError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		metrics.RecordErrorByType("scoring_error", "high")
		return fmt.Errorf("score lead %s: %w", job.LeadID, err)
	}
	metrics.RecordPrediction(string(res.Prediction.BuyerSegment), res.Prediction.PredictedConversionLikelihood)

	if err := w.store.UpdatePrediction(ctx, job.OwnerID, job.LeadID, res.Prediction); err != nil {
		metrics.RecordPersistError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "persist_failed")
		metrics.RecordErrorByType("persist_error", "high")
		return fmt.Errorf("persist prediction for %s: %w", job.LeadID, err)
	}
	metrics.RecordPredictionPersisted()

	w.logger.Debug(ctx, "lead rescored",
		logger.String("lead_id", job.LeadID),
		logger.Float64("likelihood", res.Prediction.PredictedConversionLikelihood),
		logger.String("segment", string(res.Prediction.BuyerSegment)),
		logger.Duration("queued_for", start.Sub(job.EnqueuedAt)),
	)
	return nil
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once

	logger logger.Logger
}

// NewPool creates workerCount workers. A count below one means twice the
// number of CPUs.
func NewPool(workerCount int, q Queue, scorer scoring.Scorer, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, scorer, store, workerOpts...)
		w.active = &p.active
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns how many workers are processing a job right now.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			metrics.UpdateWorkerActiveCount(p.Active())
		}
	}
}

// Shutdown closes the queue, lets workers drain it and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}
	return nil
}
