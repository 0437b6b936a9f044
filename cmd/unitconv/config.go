package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unitconv"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration of the unitconv command.
type Config struct {
	DB        string   `yaml:"db"`
	Listen    string   `yaml:"listen"`
	Network   string   `yaml:"network"`
	Precision int      `yaml:"precision"`
	Locale    string   `yaml:"locale"`
	Catalogs  []string `yaml:"catalogs"`
}

func DefaultConfig() Config {
	return Config{
		Listen:    "127.0.0.1:2001",
		Network:   "udp",
		Precision: unitconv.Precision,
		Locale:    "en",
	}
}

// LoadConfig reads path over the defaults. Relative catalog paths are taken
// relative to the config file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, c := range cfg.Catalogs {
		if !filepath.IsAbs(c) {
			cfg.Catalogs[i] = filepath.Join(dir, c)
		}
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Network {
	case "udp", "tcp":
	default:
		return fmt.Errorf("config: network must be udp or tcp, got %q", c.Network)
	}
	if c.Precision < 0 || c.Precision > unitconv.Precision {
		return fmt.Errorf("config: precision must be 0..%d, got %d", unitconv.Precision, c.Precision)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("config: locale %q: %w", c.Locale, err)
	}
	return nil
}

// Format renders a result with the configured locale and precision.
func (c Config) Format(d unitconv.Decimal) string {
	return d.FormatPlaces(c.Language(), c.Precision)
}

func (c Config) Language() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}
