package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"

	"cdncrawler/internal/config"
	"cdncrawler/internal/links"
	"cdncrawler/internal/probe"
	"cdncrawler/internal/runner"
)

const configFile = "cdn-crawler.yaml"

func main() {
	log.SetHandler(cli.New(os.Stderr))
	log.SetLevel(log.InfoLevel)

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.WithError(err).Fatal("loading config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := loadStore(cfg.Stats.File)
	if err != nil {
		log.WithError(err).Fatal("loading stats")
	}

	inspectHosts(ctx, cfg)

	log.Infof("Checking listing: %s%s", cfg.Links.BaseURL, cfg.Links.ListingPath)
	extractor := &links.Extractor{
		ListingPath: cfg.Links.ListingPath,
		Selector:    cfg.Links.Selector,
		MaxLinks:    cfg.Links.MaxLinks,
		UserAgent:   cfg.Probe.UserAgent,
		Timeout:     cfg.Probe.Timeout,
		Log:         log.Log,
	}
	urls, err := extractor.Extract(ctx, cfg.Links.BaseURL, excludeSet(cfg.Links.Exclude))
	if err != nil {
		if ctx.Err() != nil {
			log.Info("interrupted before the first probe")
			return
		}
		log.WithError(err).Fatal("collecting urls")
	}

	reporter := &runner.StatsReporter{
		Out:    os.Stdout,
		File:   cfg.Stats.File,
		Window: cfg.Stats.Window,
	}
	r := &runner.Runner{
		Prober:   probe.New(cfg.Probe.UserAgent, cfg.Probe.AcceptEncoding, cfg.Probe.Timeout),
		Tuning:   config.NewTuner(cfg),
		Reporter: reporter,
		Variants: cfg.Probe.Variants,
		Store:    store,
		Out:      os.Stdout,
		Log:      log.Log,
	}
	if err := r.Run(ctx, urls); err != nil {
		log.WithError(err).Fatal("crawler stopped")
	}
	log.WithField("file", cfg.Stats.File).Info("results saved")
}
