package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cdncrawler/internal/config"
	"cdncrawler/internal/model"
	"cdncrawler/internal/probe"
	"cdncrawler/internal/storage"
)

// fakeProber answers every probe with a MISS and cancels the run on the
// stopAt-th call.
type fakeProber struct {
	calls  int
	stopAt int
	cancel context.CancelFunc
	failAt int
	urls   []string
}

func (f *fakeProber) Probe(ctx context.Context, u string) (model.ProbeResult, error) {
	f.calls++
	f.urls = append(f.urls, u)
	if f.failAt > 0 && f.calls == f.failAt {
		return model.ProbeResult{}, &probe.StatusError{URL: u, StatusCode: 503}
	}
	if f.stopAt > 0 && f.calls == f.stopAt {
		f.cancel()
	}
	return model.ProbeResult{Took: 0.01, Cache: "MISS"}, nil
}

type fixedTuning config.Tuning

func (t fixedTuning) Current() (config.Tuning, error) { return config.Tuning(t), nil }

type fakeReporter struct {
	reports  int
	persists int
	sizes    []int
}

func (f *fakeReporter) Report(store model.Store) error {
	f.reports++
	f.sizes = append(f.sizes, store.Len("www"))
	return nil
}

func (f *fakeReporter) Persist(store model.Store) error {
	f.persists++
	return nil
}

func urlList(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://www.example.com/plog/%d", i)
	}
	return urls
}

func noShuffle(int, func(i, j int)) {}

func newRunner(p *fakeProber, rep *fakeReporter, every int) (*Runner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Runner{
		Prober:   p,
		Tuning:   fixedTuning{Sleep: time.Millisecond, ReportEvery: every},
		Reporter: rep,
		Variants: config.DefaultConfig().Probe.Variants,
		Store:    model.NewStore(),
		Out:      out,
		Sleep:    func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
		Shuffle:  noShuffle,
	}, out
}

// --- Report cadence ---------------------------------------------------------------

func TestRunReportCadence(t *testing.T) {
	cases := []struct {
		urls     int
		periodic int // over two full passes
	}{
		{9, 0},
		{10, 2},
		{11, 2},
		{20, 4},
	}
	for _, c := range cases {
		ctx, cancel := context.WithCancel(context.Background())
		// two full passes over both variants, then stop on the next probe
		p := &fakeProber{stopAt: 2*c.urls*2 + 1, cancel: cancel}
		rep := &fakeReporter{}
		r, out := newRunner(p, rep, 10)

		if err := r.Run(ctx, urlList(c.urls)); err != nil {
			t.Fatalf("urls=%d: unexpected error %v", c.urls, err)
		}
		cancel()

		if rep.reports != c.periodic+1 {
			t.Errorf("urls=%d: want %d periodic reports plus the final one, got %d reports", c.urls, c.periodic, rep.reports)
		}
		if !strings.Contains(out.String(), "One last time...") {
			t.Errorf("urls=%d: expected the final report banner", c.urls)
		}
	}
}

func TestRunReportsOncePerPass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &fakeProber{stopAt: 41, cancel: cancel}
	rep := &fakeReporter{}
	r, _ := newRunner(p, rep, 10)

	if err := r.Run(ctx, urlList(10)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := []int{10, 20, 21}
	if fmt.Sprint(rep.sizes) != fmt.Sprint(want) {
		t.Fatalf("want store sizes %v at each report, got %v", want, rep.sizes)
	}
}

// --- Variants -----------------------------------------------------------------------

func TestRunProbesBothVariants(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &fakeProber{stopAt: 4, cancel: cancel}
	rep := &fakeReporter{}
	r, out := newRunner(p, rep, 10)

	if err := r.Run(ctx, urlList(3)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := []string{
		"https://www.example.com/plog/0",
		"https://beta.example.com/plog/0",
		"https://www.example.com/plog/1",
		"https://beta.example.com/plog/1",
	}
	if strings.Join(p.urls, " ") != strings.Join(want, " ") {
		t.Fatalf("want %v, got %v", want, p.urls)
	}
	if r.Store.Len("www") != 2 || r.Store.Len("beta") != 2 {
		t.Errorf("expected one result per variant per url, got www=%d beta=%d", r.Store.Len("www"), r.Store.Len("beta"))
	}
	if !strings.Contains(out.String(), "https://beta.example.com/plog/1") {
		t.Errorf("expected probe lines in the output:\n%s", out.String())
	}
}

func TestRunShufflesEveryPass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &fakeProber{stopAt: 13, cancel: cancel}
	rep := &fakeReporter{}
	r, _ := newRunner(p, rep, 10)
	shuffles := 0
	r.Shuffle = func(n int, swap func(i, j int)) {
		shuffles++
		swap(0, n-1)
	}

	if err := r.Run(ctx, urlList(3)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if shuffles != 3 {
		t.Fatalf("want a shuffle per pass (3), got %d", shuffles)
	}
	if p.urls[0] != "https://www.example.com/plog/2" {
		t.Errorf("expected the shuffled order to be used, got %s first", p.urls[0])
	}
}

// --- Failures -------------------------------------------------------------------------

func TestRunZeroCadence(t *testing.T) {
	p := &fakeProber{}
	rep := &fakeReporter{}
	r, _ := newRunner(p, rep, 0)

	err := r.Run(context.Background(), urlList(10))
	if !errors.Is(err, config.ErrInvalidCadence) {
		t.Fatalf("want ErrInvalidCadence, got %v", err)
	}
	if p.calls != 0 {
		t.Errorf("expected no probes, got %d", p.calls)
	}
	if rep.reports != 0 {
		t.Errorf("expected no report, got %d", rep.reports)
	}
}

func TestRunProbeFailure(t *testing.T) {
	p := &fakeProber{failAt: 3}
	rep := &fakeReporter{}
	r, _ := newRunner(p, rep, 10)

	err := r.Run(context.Background(), urlList(5))
	var se *probe.StatusError
	if !errors.As(err, &se) || se.StatusCode != 503 {
		t.Fatalf("want the status error, got %v", err)
	}
	if rep.persists != 1 || rep.reports != 0 {
		t.Errorf("want one persist and no report, got persists=%d reports=%d", rep.persists, rep.reports)
	}
	if r.Store.Len("www") != 1 || r.Store.Len("beta") != 1 {
		t.Errorf("expected the two successful probes kept, got www=%d beta=%d", r.Store.Len("www"), r.Store.Len("beta"))
	}
}

func TestRunNoURLs(t *testing.T) {
	r, _ := newRunner(&fakeProber{}, &fakeReporter{}, 10)
	if err := r.Run(context.Background(), nil); !errors.Is(err, ErrNoURLs) {
		t.Fatalf("want ErrNoURLs, got %v", err)
	}
}

func TestRunAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakeProber{}
	rep := &fakeReporter{}
	r, _ := newRunner(p, rep, 10)

	if err := r.Run(ctx, urlList(3)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if p.calls != 0 || rep.reports != 1 {
		t.Errorf("want no probes and the final report, got calls=%d reports=%d", p.calls, rep.reports)
	}
}

// --- StatsReporter ----------------------------------------------------------------------

func TestStatsReporterPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	var out bytes.Buffer
	rep := &StatsReporter{Out: &out, File: path, Window: 100}

	store := model.NewStore()
	for _, c := range []string{"HIT", "HIT", "MISS"} {
		store.Append("www", model.ProbeResult{Took: 0.1, Cache: c})
	}
	if err := rep.Report(store); err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out.String(), "66.7%") {
		t.Errorf("expected the hit ratio in the output:\n%s", out.String())
	}
	loaded, found, err := storage.Load(path)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if loaded.Len("www") != 3 {
		t.Errorf("want 3 persisted results, got %d", loaded.Len("www"))
	}
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
