// Package probe runs startup checks before the server goes live.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// checkTimeout bounds each individual check so one hung dependency cannot
// stall startup.
const checkTimeout = 5 * time.Second

// CheckFunc performs a health check. It returns nil if the check passes.
type CheckFunc func(ctx context.Context) error

// Probe is a single startup check. Critical probes block startup on failure;
// the rest only log.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool
}

// Result is one probe's outcome.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes the probes in order, each under its own timeout.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, 0, len(probes))

	for _, p := range probes {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		start := time.Now()
		err := p.Check(checkCtx)
		cancel()

		results = append(results, Result{
			Probe:    p,
			Error:    err,
			Duration: time.Since(start),
		})
	}

	return results
}

// AnalyzeResults logs every outcome and returns the joined errors of failed
// critical probes, nil if all critical probes passed.
func AnalyzeResults(results []Result) error {
	var blocking []error

	for _, r := range results {
		dur := r.Duration.Round(time.Millisecond)
		if r.Error == nil {
			slog.Info("Startup check passed", "probe", r.Probe.Name, "duration", dur)
			continue
		}

		slog.Error("Startup check failed",
			"probe", r.Probe.Name,
			"duration", dur,
			"critical", r.Probe.Critical,
			"error", r.Error,
		)
		if r.Probe.Critical {
			blocking = append(blocking, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		}
	}

	return errors.Join(blocking...)
}
