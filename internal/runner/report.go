package runner

import (
	"io"

	"cdncrawler/internal/model"
	"cdncrawler/internal/stats"
	"cdncrawler/internal/storage"
)

// StatsReporter prints the rolling statistics to Out and writes the whole
// store to File.
type StatsReporter struct {
	Out    io.Writer
	File   string
	Window int
}

func (s *StatsReporter) Report(store model.Store) error {
	stats.Report(s.Out, store, s.Window)
	return s.Persist(store)
}

func (s *StatsReporter) Persist(store model.Store) error {
	return storage.Save(s.File, store)
}
