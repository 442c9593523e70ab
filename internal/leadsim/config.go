// Package leadsim drives a running estatecamp server with synthetic leads and
// checks every returned prediction against the local scorer.
package leadsim

import (
	"errors"
	"time"

	"github.com/okian/estatecamp/internal/domain/model"
)

// Errors returned by Run.
var (
	ErrUnhealthy = errors.New("service is not healthy")
	ErrMismatch  = errors.New("prediction mismatch")
	ErrNoLeads   = errors.New("no leads to submit")
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Token      string        // Bearer token; empty when the server runs without auth
	NumLeads   int           // Number of leads to generate
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Seed for the lead generator
	Persist    bool          // Use /predict-lead-conversion instead of /score
	OutputFile string        // Optional JSON dump of the generated leads
}

// Stats summarizes a run.
type Stats struct {
	Generated  int
	Submitted  int
	Matched    int
	Mismatched int
	Failed     int
	Throttled  int
	Segments   map[model.BuyerSegment]int
	Duration   time.Duration
}

// outcome classifies one submission.
type outcome int

const (
	outcomeMatched outcome = iota
	outcomeMismatched
	outcomeThrottled
	outcomeFailed
)
