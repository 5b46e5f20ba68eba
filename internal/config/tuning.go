package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// ErrInvalidCadence is returned when the report cadence is below one.
var ErrInvalidCadence = errors.New("report cadence must be at least 1")

const tuningKey = "tuning"

// Tuning holds the knobs an operator may change while the crawler runs.
type Tuning struct {
	Sleep       time.Duration
	ReportEvery int
}

// ReadTuning reads both side files. A missing file keeps the default; a
// file that does not parse is an error.
func ReadTuning(sleepFile, reportEveryFile string, defaults Tuning) (Tuning, error) {
	t := defaults

	if raw, ok, err := readSideFile(sleepFile); err != nil {
		return Tuning{}, err
	} else if ok {
		secs, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Tuning{}, fmt.Errorf("parse %s: %w", sleepFile, err)
		}
		if secs < 0 {
			return Tuning{}, fmt.Errorf("%s: sleep must not be negative, got %v", sleepFile, secs)
		}
		t.Sleep = time.Duration(secs * float64(time.Second))
	}

	if raw, ok, err := readSideFile(reportEveryFile); err != nil {
		return Tuning{}, err
	} else if ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Tuning{}, fmt.Errorf("parse %s: %w", reportEveryFile, err)
		}
		t.ReportEvery = n
	}

	if t.ReportEvery < 1 {
		return Tuning{}, fmt.Errorf("report every %d: %w", t.ReportEvery, ErrInvalidCadence)
	}
	return t, nil
}

func readSideFile(path string) (string, bool, error) {
	if path == "" {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Tuner hands out the current Tuning, re-reading the side files at most once
// per refresh interval. A zero interval re-reads on every call.
type Tuner struct {
	sleepFile       string
	reportEveryFile string
	defaults        Tuning
	refresh         time.Duration
	cache           *cache.Cache
}

func NewTuner(cfg *Config) *Tuner {
	t := &Tuner{
		sleepFile:       cfg.Tuning.SleepFile,
		reportEveryFile: cfg.Tuning.ReportEveryFile,
		defaults: Tuning{
			Sleep:       cfg.Tuning.Sleep,
			ReportEvery: cfg.Tuning.ReportEvery,
		},
		refresh: cfg.Tuning.Refresh,
	}
	if t.refresh > 0 {
		t.cache = cache.New(t.refresh, 2*t.refresh)
	}
	return t
}

func (t *Tuner) Current() (Tuning, error) {
	if t.cache != nil {
		if v, ok := t.cache.Get(tuningKey); ok {
			return v.(Tuning), nil
		}
	}

	tuning, err := ReadTuning(t.sleepFile, t.reportEveryFile, t.defaults)
	if err != nil {
		return Tuning{}, err
	}
	if t.cache != nil {
		t.cache.Set(tuningKey, tuning, cache.DefaultExpiration)
	}
	return tuning, nil
}
