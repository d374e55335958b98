package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"OpinionScanner/internal/domain"
)

// Runner performs one environment pass.
type Runner interface {
	Run(ctx context.Context, profile domain.EnvironmentProfile) domain.SessionResult
}

var _ Runner = (*SessionRunner)(nil)

// Coordinator fans sessions out over a bounded worker pool.
type Coordinator struct {
	runner  Runner
	workers int
	logger  *slog.Logger
}

// NewCoordinator bounds concurrency to workers; zero or less means one worker per profile.
func NewCoordinator(runner Runner, workers int, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{runner: runner, workers: workers, logger: logger}
}

// Outcome is the merged result of every session.
type Outcome struct {
	// Titles holds translated titles from successful sessions in completion order.
	Titles   []string
	Sessions []domain.SessionResult
}

// Run executes one session per profile and waits for all of them.
// A failing session is logged and contributes no titles; it never cancels the others.
func (c *Coordinator) Run(ctx context.Context, profiles []domain.EnvironmentProfile) Outcome {
	var (
		mu      sync.Mutex
		outcome Outcome
	)

	workers := c.workers
	if workers <= 0 || workers > len(profiles) {
		workers = len(profiles)
	}

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	c.logger.InfoContext(ctx, "starting sessions", "profiles", len(profiles), "workers", workers)

	for _, profile := range profiles {
		profile := profile
		g.Go(func() error {
			result := c.runOne(ctx, profile)

			mu.Lock()
			defer mu.Unlock()
			outcome.Sessions = append(outcome.Sessions, result)
			if result.Err != nil {
				c.logger.ErrorContext(ctx, "session generated an error", "session", profile.Label(), "error", result.Err)
				return nil
			}
			outcome.Titles = append(outcome.Titles, result.Titles...)
			c.logger.InfoContext(ctx, "session completed", "session", profile.Label(), "titles", len(result.Titles))
			return nil
		})
	}
	_ = g.Wait()

	return outcome
}

func (c *Coordinator) runOne(ctx context.Context, profile domain.EnvironmentProfile) (result domain.SessionResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.SessionResult{
				Profile: profile,
				Status:  domain.StatusFailed,
				Err:     fmt.Errorf("session panic: %v", r),
			}
		}
	}()
	return c.runner.Run(ctx, profile)
}
