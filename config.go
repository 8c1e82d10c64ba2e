package reltrack

import (
	"errors"
	"fmt"
	"io"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by ConfigFromEnv.
const EnvPrefix = "RELTRACK_"

type envConfig struct {
	DefaultExcept []string `env:"DEFAULT_EXCEPT" envSeparator:"," envDefault:"versions"`
	StripKeys     []string `env:"STRIP_KEYS" envSeparator:","`
}

// ConfigFromEnv loads DefaultExcept and StripKeys from RELTRACK_DEFAULT_EXCEPT and RELTRACK_STRIP_KEYS.
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("reltrack: parse env: %w", err)
	}
	return Config{
		DefaultExcept: ec.DefaultExcept,
		StripKeys:     ec.StripKeys,
	}, nil
}

// LoadConfig decodes a YAML configuration document:
//
//	default_except: [versions]
//	strip_keys: [edited_by, locked]
//	models:
//	  posts:
//	    only: [comments, tags]
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reltrack: decode config: %w", err)
	}
	return cfg, nil
}
