package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

type CheckResult struct {
	Name       string `json:"name"`
	Healthy    bool   `json:"healthy"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

type Checker interface {
	Check(ctx context.Context) CheckResult
}

// CheckerFunc adapts a named ping function to Checker.
type CheckerFunc struct {
	Name string
	Fn   func(ctx context.Context) error
}

func (c CheckerFunc) Check(ctx context.Context) CheckResult {
	start := time.Now()
	err := c.Fn(ctx)
	res := CheckResult{Name: c.Name, Healthy: err == nil, DurationMS: time.Since(start).Milliseconds()}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// CheckRunner runs every checker concurrently under one overall deadline. perCheck, when
// positive, bounds each checker individually.
type CheckRunner struct {
	timeout  time.Duration
	perCheck time.Duration
	checkers []Checker
}

func NewCheckRunner(timeout, perCheck time.Duration, checkers ...Checker) *CheckRunner {
	return &CheckRunner{timeout: timeout, perCheck: perCheck, checkers: checkers}
}

// Ready reports whether every checker is healthy. Results keep checker order.
func (p *CheckRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	results := make([]CheckResult, len(p.checkers))
	if len(p.checkers) == 0 {
		return true, results
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var g errgroup.Group
	for i, c := range p.checkers {
		g.Go(func() error {
			checkCtx := ctx
			if p.perCheck > 0 {
				var cancel context.CancelFunc
				checkCtx, cancel = context.WithTimeout(ctx, p.perCheck)
				defer cancel()
			}
			results[i] = c.Check(checkCtx)
			return nil
		})
	}
	_ = g.Wait()

	ready := true
	for _, r := range results {
		if !r.Healthy {
			ready = false
		}
	}
	return ready, results
}
