package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Variant is one hostname flavour of every probed URL. The variant URL is
// the listing URL with From replaced by To; an empty From keeps it as is.
type Variant struct {
	Prefix string `yaml:"prefix"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
}

// URL rewrites u for this variant.
func (v Variant) URL(u string) string {
	if v.From == "" {
		return u
	}
	return strings.ReplaceAll(u, v.From, v.To)
}

type Config struct {
	Links struct {
		BaseURL     string   `yaml:"base_url"`
		ListingPath string   `yaml:"listing_path"`
		Selector    string   `yaml:"selector"`
		MaxLinks    int      `yaml:"max_links"`
		Exclude     []string `yaml:"exclude"`
	} `yaml:"links"`

	Probe struct {
		UserAgent      string        `yaml:"user_agent"`
		AcceptEncoding string        `yaml:"accept_encoding"`
		Timeout        time.Duration `yaml:"timeout"`
		Variants       []Variant     `yaml:"variants"`
	} `yaml:"probe"`

	Stats struct {
		File   string `yaml:"file"`
		Window int    `yaml:"window"`
		Export string `yaml:"export"`
	} `yaml:"stats"`

	Tuning struct {
		SleepFile       string        `yaml:"sleep_file"`
		ReportEveryFile string        `yaml:"report_every_file"`
		Sleep           time.Duration `yaml:"sleep"`
		ReportEvery     int           `yaml:"report_every"`
		Refresh         time.Duration `yaml:"refresh"`
	} `yaml:"tuning"`

	DNS struct {
		Resolver string        `yaml:"resolver"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"dns"`
}

func DefaultConfig() *Config {
	var c Config

	c.Links.BaseURL = "https://www.peterbe.com"
	c.Links.ListingPath = "/plog/"
	c.Links.Selector = "dd a"
	c.Links.MaxLinks = 100

	c.Probe.UserAgent = "cdn-crawler.go"
	c.Probe.AcceptEncoding = "br, gzip, deflate"
	c.Probe.Variants = []Variant{
		{Prefix: "www"},
		{Prefix: "beta", From: "www.", To: "beta."},
	}

	c.Stats.File = "cdn-crawler-stats.json"
	c.Stats.Window = 100
	c.Stats.Export = "cdn-crawler-stats.csv"

	c.Tuning.SleepFile = "cdn-crawler-sleeptime"
	c.Tuning.ReportEveryFile = "cdn-crawler-report-every"
	c.Tuning.Sleep = 2500 * time.Millisecond
	c.Tuning.ReportEvery = 10
	c.Tuning.Refresh = 5 * time.Second

	c.DNS.Resolver = "8.8.8.8:53"
	c.DNS.Timeout = 5 * time.Second

	return &c
}

// LoadConfig reads the YAML file at path over the defaults. A missing file
// is fine and yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Links.BaseURL) == "" {
		return errors.New("links.base_url must not be empty")
	}
	if c.Links.MaxLinks < 1 {
		return fmt.Errorf("links.max_links must be >= 1, got %d", c.Links.MaxLinks)
	}
	if c.Stats.Window < 1 {
		return fmt.Errorf("stats.window must be >= 1, got %d", c.Stats.Window)
	}
	if c.Tuning.Sleep < 0 {
		return fmt.Errorf("tuning.sleep must not be negative, got %s", c.Tuning.Sleep)
	}
	if c.Tuning.ReportEvery < 1 {
		return fmt.Errorf("tuning.report_every: %w", ErrInvalidCadence)
	}
	if len(c.Probe.Variants) == 0 {
		return errors.New("probe.variants must list at least one variant")
	}

	seen := make(map[string]bool)
	primary := false
	for _, v := range c.Probe.Variants {
		if v.Prefix == "" {
			return errors.New("probe.variants: prefix must not be empty")
		}
		if seen[v.Prefix] {
			return fmt.Errorf("probe.variants: duplicate prefix %q", v.Prefix)
		}
		seen[v.Prefix] = true
		if v.From == "" {
			primary = true
		}
	}
	if !primary {
		return errors.New("probe.variants: one variant must leave URLs unchanged (empty from)")
	}
	return nil
}
