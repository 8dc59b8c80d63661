package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ConfigVersion is the only supported version of the YAML settings file.
const ConfigVersion = 1

var configValidate = validator.New()

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Version int `yaml:"version"`
	// GridPaths are graph description files or directories.
	GridPaths []string `yaml:"grid" validate:"required,min=1,dive,required"`

	LogFormat       string `yaml:"log_format" validate:"oneof=text json"`
	LogLevel        string `yaml:"log_level" validate:"oneof=debug info warn error"`
	HealthcheckPort int    `yaml:"healthcheck_port" validate:"min=0,max=65535"`
	Workers         int    `yaml:"workers" validate:"min=1"`

	// ProgressURL is a socket.io endpoint receiving progress events. Empty
	// disables reporting.
	ProgressURL       string `yaml:"progress_url" validate:"omitempty,url"`
	ProgressNamespace string `yaml:"progress_namespace"`
}

// DefaultConfig returns the settings used when neither a file nor a flag
// overrides them.
func DefaultConfig() Config {
	return Config{
		Version:   ConfigVersion,
		LogFormat: "text",
		LogLevel:  "info",
		Workers:   10,
	}
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys absent from
// the file keep their current values.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	fileCfg := *cfg
	fileCfg.Version = 0
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if fileCfg.Version != ConfigVersion {
		return fmt.Errorf("config file %s: unsupported version %d, expected %d", path, fileCfg.Version, ConfigVersion)
	}
	*cfg = fileCfg
	return nil
}

// NewConfig normalizes and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := configValidate.Struct(cfg); err != nil {
		return nil, configError(err)
	}
	return &cfg, nil
}

// configError rewrites validator failures into one line per field.
func configError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "min":
			if fe.Field() == "GridPaths" || strings.HasPrefix(fe.Field(), "GridPaths[") {
				msgs = append(msgs, "a grid path is required")
				continue
			}
		}
		msg := fmt.Sprintf("invalid %s: failed '%s' check", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("invalid %s: failed '%s=%s' check", fe.Field(), fe.Tag(), fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}
