package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	ncerr "dualnet/internal/errors"
)

// LoadFile overlays the YAML document at path onto cfg.  Keys absent
// from the file keep their current value; unknown keys are an error so
// typos do not pass silently.
//
//	transport: udp
//	timeout: 3s
//	retries: 5
//	via: admin@bastion.example.com
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ncerr.ConfigError{
			Field:   "config",
			Value:   path,
			Message: err.Error(),
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return &ncerr.ConfigError{
			Field:   "config",
			Value:   path,
			Message: err.Error(),
			Hint:    "keys are the long flag names with dashes as underscores, e.g. retry_delay",
		}
	}
	return nil
}
