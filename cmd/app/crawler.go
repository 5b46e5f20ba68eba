package main

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/apex/log"

	"cdncrawler/internal/config"
	"cdncrawler/internal/hostinfo"
	"cdncrawler/internal/model"
	"cdncrawler/internal/storage"
)

func loadStore(path string) (model.Store, error) {
	store, found, err := storage.Load(path)
	if err != nil {
		return nil, err
	}
	if found {
		counts := make([]string, 0, len(store))
		for _, prefix := range store.Prefixes() {
			counts = append(counts, strconv.Itoa(store.Len(prefix)))
		}
		log.Infof("Continuing with %s responses", strings.Join(counts, " + "))
	}
	return store, nil
}

// inspectHosts logs where the host of every variant resolves to. Lookup
// failures only warn.
func inspectHosts(ctx context.Context, cfg *config.Config) {
	if cfg.DNS.Resolver == "" {
		return
	}
	base, err := url.Parse(cfg.Links.BaseURL)
	if err != nil || base.Hostname() == "" {
		log.WithField("base_url", cfg.Links.BaseURL).Warn("cannot inspect hosts of base url")
		return
	}

	inspector := hostinfo.NewInspector(cfg.DNS.Resolver, cfg.DNS.Timeout)
	for _, v := range cfg.Probe.Variants {
		host := v.URL(base.Hostname())
		info, err := inspector.Inspect(ctx, host)
		if err != nil {
			log.WithField("prefix", v.Prefix).WithError(err).Warn("dns lookup failed")
			continue
		}
		log.WithField("prefix", v.Prefix).Info(info.String())
	}
}

func excludeSet(hrefs []string) map[string]bool {
	set := make(map[string]bool, len(hrefs))
	for _, h := range hrefs {
		set[h] = true
	}
	return set
}
