package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/schoolhub/school-directory-service/internal/observability"
)

type CheckResult struct {
	Name      string  `json:"name"`
	Healthy   bool    `json:"healthy"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// ProbeRunner fans readiness checks out concurrently so one slow dependency
// cannot delay the others past its own timeout.
type ProbeRunner struct {
	checkers    []Checker
	timeout     time.Duration
	gracePeriod time.Duration
	startedAt   time.Time
}

func NewProbeRunner(timeout, gracePeriod time.Duration, checkers ...Checker) *ProbeRunner {
	if timeout <= 0 {
		timeout = time.Second
	}
	kept := make([]Checker, 0, len(checkers))
	for _, c := range checkers {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &ProbeRunner{
		checkers:    kept,
		timeout:     timeout,
		gracePeriod: gracePeriod,
		startedAt:   time.Now(),
	}
}

func (r *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	if r == nil {
		return true, nil
	}
	if r.gracePeriod > 0 && time.Since(r.startedAt) < r.gracePeriod {
		return false, []CheckResult{{Name: "startup_grace", Healthy: false, Error: "startup grace period active"}}
	}

	results := make([]CheckResult, len(r.checkers))
	var mu sync.Mutex
	allHealthy := true

	g, groupCtx := errgroup.WithContext(ctx)
	for i, c := range r.checkers {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(groupCtx, r.timeout)
			defer cancel()

			start := time.Now()
			err := c.Check(checkCtx)
			elapsed := time.Since(start)

			res := CheckResult{
				Name:      c.Name(),
				Healthy:   err == nil,
				LatencyMS: float64(elapsed.Microseconds()) / 1000.0,
			}
			outcome := "healthy"
			if err != nil {
				res.Error = err.Error()
				outcome = "unhealthy"
			}
			observability.RecordHealthCheckResult(ctx, c.Name(), outcome)
			observability.RecordHealthCheckDuration(ctx, c.Name(), elapsed)

			mu.Lock()
			results[i] = res
			if err != nil {
				allHealthy = false
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return allHealthy, results
}
