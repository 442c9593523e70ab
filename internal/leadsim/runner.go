package leadsim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/internal/domain/scoring"
	"github.com/okian/estatecamp/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	percent             = 100
)

// Run generates cfg.NumLeads leads, submits them with cfg.Workers
// concurrent requests and compares each returned prediction with
// scoring.Predict. It returns ErrMismatch when any prediction differs.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	log := logger.Get().Named("leadsim")
	start := time.Now()

	if cfg.NumLeads <= 0 {
		return nil, ErrNoLeads
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	c := newClient(cfg.BaseURL, cfg.Token, cfg.Timeout)
	if err := c.healthy(ctx); err != nil {
		return nil, err
	}

	leads := Generate(cfg.NumLeads, cfg.Seed)
	stats := &Stats{Generated: len(leads), Segments: make(map[model.BuyerSegment]int)}
	log.Info(ctx, "leads generated", logger.Int("count", len(leads)), logger.Bool("persist", cfg.Persist))

	submit := func(ctx context.Context, lead model.Lead) outcome {
		return c.score(ctx, lead)
	}
	if cfg.Persist {
		campaignID, err := c.createCampaign(ctx, "Lead simulation "+start.UTC().Format(time.RFC3339))
		if err != nil {
			return nil, fmt.Errorf("prepare campaign: %w", err)
		}
		log.Info(ctx, "campaign created", logger.String("campaignID", campaignID))
		submit = func(ctx context.Context, lead model.Lead) outcome {
			return c.persist(ctx, campaignID, lead)
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, lead := range leads {
		g.Go(func() error {
			result := submit(gctx, lead)
			mu.Lock()
			defer mu.Unlock()
			stats.Submitted++
			switch result {
			case outcomeMatched:
				stats.Matched++
				stats.Segments[scoring.Classify(lead)]++
			case outcomeMismatched:
				stats.Mismatched++
			case outcomeThrottled:
				stats.Throttled++
			case outcomeFailed:
				stats.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	if cfg.OutputFile != "" {
		if err := saveLeads(cfg.OutputFile, leads); err != nil {
			log.Warn(ctx, "failed to save leads", logger.Error(err))
		}
	}

	stats.Duration = time.Since(start)
	logStats(ctx, log, stats)

	if stats.Mismatched > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrMismatch, stats.Mismatched, stats.Submitted)
	}
	return stats, ctx.Err()
}

// score checks the stateless endpoint against the local scorer.
func (c *client) score(ctx context.Context, lead model.Lead) outcome {
	got, status, err := c.scoreLead(ctx, lead)
	return classify(lead, got, status, err)
}

// persist creates the lead on the server then scores it by id.
func (c *client) persist(ctx context.Context, campaignID string, lead model.Lead) outcome {
	id, status, err := c.createLead(ctx, campaignID, lead)
	if err != nil || id == "" {
		return classify(lead, model.Prediction{}, status, err)
	}
	got, status, err := c.predictByID(ctx, id)
	return classify(lead, got, status, err)
}

func classify(lead model.Lead, got model.Prediction, status int, err error) outcome {
	switch {
	case status == http.StatusTooManyRequests:
		return outcomeThrottled
	case err != nil, status != http.StatusOK:
		return outcomeFailed
	case got != scoring.Predict(lead):
		return outcomeMismatched
	default:
		return outcomeMatched
	}
}

func saveLeads(filename string, leads []model.Lead) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(leads, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal leads: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var matchRate, perSecond float64
	if stats.Submitted > 0 {
		matchRate = float64(stats.Matched) / float64(stats.Submitted) * percent
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("matched", stats.Matched),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed),
		logger.Any("segments", stats.Segments),
		logger.Duration("duration", stats.Duration),
		logger.Float64("matchRate", matchRate),
		logger.Float64("leadsPerSecond", perSecond))
}
