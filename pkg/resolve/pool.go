package resolve

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/wheelforge/wheelforge/pkg/errors"
)

// DefaultReportInterval is how often the progress reporter logs.
const DefaultReportInterval = 5 * time.Second

// DefaultConcurrency is the admission gate width used when the caller does
// not set one.
const DefaultConcurrency = 100

// PackageResolver is the single-request resolution contract the Pool drives.
// *Resolver satisfies it; tests substitute instrumented fakes.
type PackageResolver interface {
	Resolve(ctx context.Context, req Request) (*Package, error)
}

// Failure records one request that did not resolve.
type Failure struct {
	Request Request
	Err     error
}

// Result aggregates a full run. The run is complete only when Failures is
// empty; callers must check that before building a repository document.
type Result struct {
	Packages []*Package
	Failures []Failure
}

// Terminal reports whether every failure was a terminal per-package outcome
// (absent package, no qualifying wheel) rather than an infrastructure error.
func (r *Result) Terminal() bool {
	for _, f := range r.Failures {
		if !apperrors.Terminal(f.Err) {
			return false
		}
	}
	return true
}

// Pool dispatches package resolutions concurrently under an admission gate:
// at most Limit resolutions are in flight at any moment, and each request is
// dispatched exactly once. A background reporter logs progress on a fixed
// interval; it is owned by Run and always stopped before Run returns.
type Pool struct {
	Resolver       PackageResolver
	Limit          int           // admission gate width; values < 1 mean 1
	Logger         *log.Logger   // nil falls back to log.Default()
	ReportInterval time.Duration // 0 means DefaultReportInterval
}

// Run resolves every request and returns the aggregated outcome. Completion
// order is unconstrained; the aggregate is appended under a single mutex so
// no result is lost or duplicated. On cancellation Run stops admitting new
// work, waits for in-flight resolutions to finish, stops the reporter, and
// returns ctx.Err(); the partial aggregate is not returned as complete.
func (p *Pool) Run(ctx context.Context, requests []Request) (*Result, error) {
	limit := max(p.Limit, 1)
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}

	var (
		sem       = semaphore.NewWeighted(int64(limit))
		wg        sync.WaitGroup
		mu        sync.Mutex
		result    = &Result{}
		completed int
		inFlight  = make(map[string]struct{}, limit)
		total     = len(requests)
	)

	reporterCtx, stopReporter := context.WithCancel(context.Background())
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		interval := p.ReportInterval
		if interval <= 0 {
			interval = DefaultReportInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-reporterCtx.Done():
				return
			case <-ticker.C:
				mu.Lock()
				done := completed
				current := "(idle)"
				for id := range inFlight {
					current = id
					break
				}
				mu.Unlock()
				logger.Info("progress", "completed", done, "total", total, "current", current)
			}
		}
	}()

	var admitErr error
	for _, req := range requests {
		// The gate: a resolution starts only when fewer than limit are
		// active. Acquire fails only on context cancellation.
		if err := sem.Acquire(ctx, 1); err != nil {
			admitErr = err
			break
		}

		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			defer sem.Release(1)

			id := req.String()
			mu.Lock()
			inFlight[id] = struct{}{}
			mu.Unlock()

			pkg, err := p.Resolver.Resolve(ctx, req)

			mu.Lock()
			delete(inFlight, id)
			completed++
			done := completed
			if err != nil {
				result.Failures = append(result.Failures, Failure{Request: req, Err: err})
			} else {
				result.Packages = append(result.Packages, pkg)
			}
			mu.Unlock()

			if err != nil {
				logger.Warn("failed", "package", id, "done", done, "total", total, "err", apperrors.UserMessage(err))
			} else {
				logger.Debug("resolved", "package", id, "done", done, "total", total, "version", pkg.Version)
			}
		}(req)
	}

	wg.Wait()
	stopReporter()
	<-reporterDone

	if admitErr != nil {
		return nil, admitErr
	}
	return result, nil
}
