package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/estatecamp/internal/adapters/mq/queue"
	worker "github.com/okian/estatecamp/internal/adapters/mq/worker"
	"github.com/okian/estatecamp/internal/domain/dedupe"
	model "github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/internal/domain/scoring"
	logging "github.com/okian/estatecamp/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 128)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

func (mq *mockQueue) add(leadID string) {
	mq.jobs <- queue.Job{JobID: "job-" + leadID, OwnerID: "owner", LeadID: leadID, UpdatedAt: time.Unix(1700000000, 0)}
}

type mockStore struct {
	mu          sync.RWMutex
	leads       map[string]model.Lead
	predictions map[string]model.Prediction
	persistErr  map[string]error
}

func newMockStore() *mockStore {
	return &mockStore{
		leads:       make(map[string]model.Lead),
		predictions: make(map[string]model.Prediction),
		persistErr:  make(map[string]error),
	}
}

func (ms *mockStore) put(l model.Lead) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.leads[l.ID] = l
}

func (ms *mockStore) failPersist(id string, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.persistErr[id] = err
}

func (ms *mockStore) GetLead(_ context.Context, ownerID, id string) (model.Lead, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	l, ok := ms.leads[id]
	if !ok || ownerID != "owner" {
		return model.Lead{}, errors.New("not found")
	}
	return l, nil
}

func (ms *mockStore) UpdatePrediction(_ context.Context, _, leadID string, p model.Prediction) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err, ok := ms.persistErr[leadID]; ok {
		return err
	}
	ms.predictions[leadID] = p
	return nil
}

func (ms *mockStore) prediction(id string) (model.Prediction, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	p, ok := ms.predictions[id]
	return p, ok
}

type failingScorer struct{}

func (failingScorer) Score(context.Context, scoring.Input) (scoring.Result, error) {
	return scoring.Result{}, errors.New("scoring error")
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func investorLead(id string) model.Lead {
	history := make([]model.Interaction, 11)
	for i := range history {
		history[i] = model.Interaction{Type: model.InteractionWebsiteVisit}
	}
	return model.Lead{ID: id, Name: id, InteractionHistory: history}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		store := newMockStore()
		deduper := dedupe.NewInMemoryDeduper()

		convey.Convey("When running a worker", func() {
			w := worker.NewInMemoryWorker(q, scoring.NewRuleScorer(), store,
				worker.WithName("test-worker"), worker.WithDeduper(deduper))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			convey.Convey("And a job for a known lead arrives", func() {
				store.put(investorLead("lead-1"))
				q.add("lead-1")

				convey.Convey("Then the prediction is persisted", func() {
					convey.So(eventually(func() bool { _, ok := store.prediction("lead-1"); return ok }), convey.ShouldBeTrue)
					p, _ := store.prediction("lead-1")
					convey.So(p.BuyerSegment, convey.ShouldEqual, model.SegmentInvestor)
					convey.So(p.PredictedConversionLikelihood, convey.ShouldEqual, 0.7)
				})
			})

			convey.Convey("And a job that waited in the queue arrives with debug logging on", func() {
				convey.So(logging.SetLevelString("debug"), convey.ShouldBeNil)
				defer func() { _ = logging.SetLevelString("info") }()
				store.put(investorLead("lead-queued"))
				q.jobs <- queue.Job{
					JobID:      "job-lead-queued",
					OwnerID:    "owner",
					LeadID:     "lead-queued",
					UpdatedAt:  time.Unix(1700000000, 0),
					EnqueuedAt: time.Now().Add(-time.Minute),
				}

				convey.Convey("Then it is scored and persisted", func() {
					convey.So(eventually(func() bool { _, ok := store.prediction("lead-queued"); return ok }), convey.ShouldBeTrue)
				})
			})

			convey.Convey("And persisting fails", func() {
				store.put(investorLead("lead-2"))
				store.failPersist("lead-2", errors.New("db down"))
				job := queue.Job{JobID: "job-lead-2", OwnerID: "owner", LeadID: "lead-2", UpdatedAt: time.Unix(1700000000, 0)}
				convey.So(deduper.SeenAndRecord(ctx, job.DedupeKey()), convey.ShouldBeFalse)
				q.jobs <- job

				convey.Convey("Then the dedupe key is released for a retry", func() {
					convey.So(eventually(func() bool { return deduper.Size() == 0 }), convey.ShouldBeTrue)
					_, ok := store.prediction("lead-2")
					convey.So(ok, convey.ShouldBeFalse)
				})
			})

			convey.Convey("And the lead no longer exists", func() {
				q.add("ghost")
				store.put(investorLead("after-ghost"))
				q.add("after-ghost")

				convey.Convey("Then the worker keeps going", func() {
					convey.So(eventually(func() bool { _, ok := store.prediction("after-ghost"); return ok }), convey.ShouldBeTrue)
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
				defer shutdownCancel()

				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When scoring fails", func() {
			w := worker.NewInMemoryWorker(q, failingScorer{}, store)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			store.put(investorLead("lead-3"))
			q.add("lead-3")
			q.add("lead-3")
			_ = q.Close()

			convey.Convey("Then nothing is persisted and the worker exits on close", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
				defer shutdownCancel()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				_, ok := store.prediction("lead-3")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			w := worker.NewInMemoryWorker(q, scoring.NewRuleScorer(), store)
			ctx, cancel := context.WithCancel(context.Background())
			go w.Run(ctx)
			cancel()

			convey.Convey("Then Shutdown returns promptly", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
				defer shutdownCancel()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a new worker pool", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		store := newMockStore()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, scoring.NewRuleScorer(), store)

			convey.Convey("Then it falls back to a CPU-based size", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
				convey.So(pool.Active(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When many jobs are processed concurrently", func() {
			pool := worker.NewPool(4, q, scoring.NewRuleScorer(), store)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			const jobCount = 100
			var wg sync.WaitGroup
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for j := 0; j < jobCount/5; j++ {
						id := fmt.Sprintf("lead-%d-%d", p, j)
						store.put(model.Lead{ID: id, Name: id})
						q.add(id)
					}
				}(i)
			}
			wg.Wait()

			convey.Convey("Then every lead is scored and Shutdown drains cleanly", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer shutdownCancel()
				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)

				processed := 0
				for i := 0; i < 5; i++ {
					for j := 0; j < jobCount/5; j++ {
						if p, ok := store.prediction(fmt.Sprintf("lead-%d-%d", i, j)); ok {
							processed++
							convey.So(p.BuyerSegment, convey.ShouldEqual, model.SegmentFirstTimeBuyer)
							convey.So(p.PredictedConversionLikelihood, convey.ShouldEqual, 0.5)
						}
					}
				}
				convey.So(processed, convey.ShouldEqual, jobCount)
			})
		})
	})
}
