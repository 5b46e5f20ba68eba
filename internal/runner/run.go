package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/apex/log"

	"cdncrawler/internal/config"
	"cdncrawler/internal/model"
	"cdncrawler/internal/probe"
)

// ErrNoURLs is returned by Run when there is nothing to probe.
var ErrNoURLs = errors.New("no urls to probe")

type Prober interface {
	Probe(ctx context.Context, u string) (model.ProbeResult, error)
}

type TuningSource interface {
	Current() (config.Tuning, error)
}

// Reporter prints and persists the accumulated results.
type Reporter interface {
	// Report prints the statistics and persists the store.
	Report(store model.Store) error
	// Persist only writes the store.
	Persist(store model.Store) error
}

// Runner probes every URL on every variant, pass after pass, until its
// context is cancelled.
type Runner struct {
	Prober   Prober
	Tuning   TuningSource
	Reporter Reporter
	Variants []config.Variant
	Store    model.Store

	Out io.Writer
	Log log.Interface

	// Sleep and Shuffle default to a context aware sleep and rand.Shuffle.
	Sleep   func(ctx context.Context, d time.Duration) error
	Shuffle func(n int, swap func(i, j int))
}

// Run loops until ctx is cancelled, then reports one last time and returns
// nil. Any other failure is returned after the store has been persisted.
func (r *Runner) Run(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return ErrNoURLs
	}
	r.setDefaults()
	urls = append([]string(nil), urls...)

	for pass := 1; ; pass++ {
		r.Shuffle(len(urls), func(i, j int) { urls[i], urls[j] = urls[j], urls[i] })
		r.Log.WithField("pass", pass).WithField("urls", len(urls)).Debug("starting pass")

		for i, u := range urls {
			if ctx.Err() != nil {
				return r.stop()
			}

			tuning, err := r.Tuning.Current()
			if err != nil {
				return r.abort(fmt.Errorf("reading tuning: %w", err))
			}
			if tuning.ReportEvery < 1 {
				return r.abort(fmt.Errorf("report every %d: %w", tuning.ReportEvery, config.ErrInvalidCadence))
			}

			if err := r.probeVariants(ctx, u, tuning.Sleep); err != nil {
				if ctx.Err() != nil {
					return r.stop()
				}
				return r.abort(err)
			}

			if (i+1)%tuning.ReportEvery == 0 {
				if err := r.Reporter.Report(r.Store); err != nil {
					return fmt.Errorf("reporting: %w", err)
				}
			}
		}
	}
}

func (r *Runner) probeVariants(ctx context.Context, u string, sleep time.Duration) error {
	for _, v := range r.Variants {
		target := v.URL(u)
		res, err := r.Prober.Probe(ctx, target)
		if err != nil {
			return fmt.Errorf("probing %s: %w", target, err)
		}
		fmt.Fprintln(r.Out, probe.Format(target, res))
		r.Store.Append(v.Prefix, res)

		if err := r.Sleep(ctx, sleep); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) stop() error {
	fmt.Fprintln(r.Out, "One last time...")
	if err := r.Reporter.Report(r.Store); err != nil {
		return fmt.Errorf("final report: %w", err)
	}
	return nil
}

func (r *Runner) abort(cause error) error {
	if err := r.Reporter.Persist(r.Store); err != nil {
		r.Log.WithError(err).Error("persisting results before exit")
	}
	return cause
}

func (r *Runner) setDefaults() {
	if r.Store == nil {
		r.Store = model.NewStore()
	}
	if r.Out == nil {
		r.Out = os.Stdout
	}
	if r.Log == nil {
		r.Log = log.Log
	}
	if r.Sleep == nil {
		r.Sleep = sleepContext
	}
	if r.Shuffle == nil {
		r.Shuffle = rand.Shuffle
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
