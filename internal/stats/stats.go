package stats

import (
	"errors"
	"sort"

	"cdncrawler/internal/model"
)

const (
	// MinResults is the smallest sample a prefix needs to be summarized.
	MinResults = 3
	// DefaultWindow is how many of the most recent results are summarized.
	DefaultWindow = 100

	hit  = "HIT"
	miss = "MISS"
)

var errNoData = errors.New("mean requires at least one data point")

// Breakdown is the latency of one cache state.
type Breakdown struct {
	Label  string
	Mean   float64
	Median float64
}

// Summary is what gets printed for one prefix.
type Summary struct {
	Prefix string
	Total  int
	Used   int

	Insufficient bool
	// Instrumented is set when at least one result carried an X-Cache value.
	// Otherwise hits are results carrying a Link header.
	Instrumented bool

	Hits     int
	Misses   int
	HitRatio float64
	Mean     float64
	Median   float64

	Breakdown    []Breakdown
	BreakdownErr error
}

// Summarize computes the summary of the last window results of one prefix.
func Summarize(prefix string, results []model.ProbeResult, window int) Summary {
	s := Summary{Prefix: prefix, Total: len(results)}
	if len(results) < MinResults {
		s.Insufficient = true
		return s
	}
	if window > 0 && len(results) > window {
		results = results[len(results)-window:]
	}
	s.Used = len(results)

	all := make([]float64, 0, len(results))
	for _, r := range results {
		all = append(all, r.Took)
		if r.Cache != "" {
			s.Instrumented = true
		}
	}
	s.Mean, _ = mean(all)
	s.Median, _ = median(all)

	if !s.Instrumented {
		for _, r := range results {
			if r.Link != "" {
				s.Hits++
			} else {
				s.Misses++
			}
		}
		s.HitRatio = ratio(s.Hits, s.Misses)
		return s
	}

	var hits, misses []float64
	for _, r := range results {
		switch r.Cache {
		case hit:
			hits = append(hits, r.Took)
		case miss:
			misses = append(misses, r.Took)
		}
	}
	s.Hits, s.Misses = len(hits), len(misses)
	s.HitRatio = ratio(s.Hits, s.Misses)

	for _, part := range []struct {
		label  string
		values []float64
	}{
		{"misses", misses},
		{"hits", hits},
	} {
		m, err := mean(part.values)
		if err != nil {
			s.BreakdownErr = err
			break
		}
		med, _ := median(part.values)
		s.Breakdown = append(s.Breakdown, Breakdown{Label: part.label, Mean: m, Median: med})
	}
	return s
}

// ratio is the hit percentage. No hits and no misses count as 0%.
func ratio(hits, misses int) float64 {
	if hits+misses == 0 {
		return 0
	}
	return 100 * float64(hits) / float64(hits+misses)
}

func mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errNoData
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

func median(values []float64) (float64, error) {
	n := len(values)
	if n == 0 {
		return 0, errors.New("no median for empty data")
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2], nil
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, nil
}
