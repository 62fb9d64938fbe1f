package main

import (
	"flag"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/pefman/cardstats/internal/dataset"
)

type config struct {
	Addr      string
	Dataset   dataset.Config
	LogFormat string
	LogLevel  string
}

// loadConfig reads the environment through getenv, then applies flags on top.
func loadConfig(args []string, getenv func(string) string, errOut io.Writer) (config, error) {
	env := func(k, def string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return def
	}
	def := dataset.DefaultConfig()

	// Prefer Cloud Run's PORT env var when present
	port := getenv("PORT")
	if port == "" {
		port = env("API_PORT", "8080")
	}

	var cfg config
	var comma string
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&cfg.Addr, "addr", ":"+port, "listen address")
	fs.StringVar(&cfg.Dataset.Source, "data", env("DATASET_PATH", def.Source), "CSV file loaded at startup")
	fs.StringVar(&cfg.Dataset.NameField, "name-field", env("DATASET_NAME_FIELD", def.NameField), "field searched by /api/unidades/busca")
	fs.StringVar(&cfg.Dataset.UnnamedLabel, "unnamed-label", env("DATASET_UNNAMED_LABEL", def.UnnamedLabel), "label reported for deleted records without a name")
	fs.StringVar(&comma, "comma", env("DATASET_COMMA", string(def.Comma)), "CSV delimiter")
	fs.StringVar(&cfg.LogFormat, "log-format", env("LOG_FORMAT", "text"), "text or json")
	fs.StringVar(&cfg.LogLevel, "log-level", env("LOG_LEVEL", "info"), "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	r, size := utf8.DecodeRuneInString(comma)
	if r == utf8.RuneError || size != len(comma) || r == '"' || r == '\r' || r == '\n' {
		return config{}, fmt.Errorf("invalid CSV delimiter %q", comma)
	}
	cfg.Dataset.Comma = r
	return cfg, nil
}
