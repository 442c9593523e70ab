package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/estatecamp/internal/leadsim"
	"github.com/okian/estatecamp/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumLeads = 1000
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
	defaultTimeout  = 30 * time.Second
	defaultRunLimit = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		token    = flag.String("token", os.Getenv("ESTATECAMP_TOKEN"), "Bearer token (default $ESTATECAMP_TOKEN)")
		numLeads = flag.Int("leads", defaultNumLeads, "Number of leads to generate and score")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent requests")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Generator seed")
		persist  = flag.Bool("persist", false, "Create leads in a new campaign and score them by id")
		output   = flag.String("output", "", "Write the generated leads to this JSON file")
		format   = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	if err := logger.InitWithFormat(*format); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultRunLimit)

	_, err := leadsim.Run(ctx, leadsim.Config{
		BaseURL:    *baseURL,
		Token:      *token,
		NumLeads:   *numLeads,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		Persist:    *persist,
		OutputFile: *output,
	})
	cancel()
	stop()
	if err != nil {
		logger.Get().Error(context.Background(), "simulation failed", logger.Error(err))
		os.Exit(1)
	}
}
