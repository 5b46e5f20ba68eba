// Command cdncrawler prints the statistics of a previous crawl from the
// persisted stats file and exports every stored probe to CSV. Run the
// crawler itself from ./cmd/app.
package main

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"

	"cdncrawler/internal/config"
	"cdncrawler/internal/exporter"
	"cdncrawler/internal/stats"
	"cdncrawler/internal/storage"
)

const configFile = "cdn-crawler.yaml"

func main() {
	log.SetHandler(cli.New(os.Stderr))

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.WithError(err).Fatal("loading config")
	}

	store, found, err := storage.Load(cfg.Stats.File)
	if err != nil {
		log.WithError(err).Fatal("loading stats")
	}
	if !found {
		log.WithField("file", cfg.Stats.File).Fatal("no stats yet, run ./cmd/app first")
	}

	stats.Report(os.Stdout, store, cfg.Stats.Window)

	if cfg.Stats.Export == "" {
		return
	}
	rows, err := exporter.ExportStoreToCSV(store, cfg.Stats.Export)
	if err != nil {
		log.WithError(err).Fatal("exporting stats")
	}
	log.WithField("file", cfg.Stats.Export).WithField("rows", rows).Info("Result saved to file")
}
