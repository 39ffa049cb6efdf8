package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/blacktop/vidgen/internal/veo"
)

// API key environment variables, in lookup order.
var apiKeyEnv = []string{"GEMINI_API_KEY", "API_KEY"}

var (
	ValidModels = []string{
		"veo-2.0-generate-001",
		"veo-3.0-generate-001",
		"veo-3.0-fast-generate-001",
	}
	ValidAspectRatios = []string{
		"16:9",
		"9:16",
	}
)

// ErrMissingAPIKey is returned when no API key was given.
var ErrMissingAPIKey = fmt.Errorf("missing API key (use --api-key or set %s)", strings.Join(apiKeyEnv, " or "))

// Config is the runtime configuration shared by every command.
type Config struct {
	APIKey         string
	Model          string
	AspectRatio    string
	NegativePrompt string
	PollInterval   time.Duration
	OutputFolder   string
}

// Default returns the configuration used when no flags are given.
func Default() Config {
	return Config{
		Model:        veo.DefaultModel,
		AspectRatio:  "16:9",
		PollInterval: veo.DefaultPollInterval,
	}
}

// LoadEnv reads .env files if present. Missing files are not an error.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	var existing []string
	for _, name := range filenames {
		if _, err := os.Stat(name); err == nil {
			existing = append(existing, name)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ResolveAPIKey fills APIKey from the environment when it was not set by flag.
func (c *Config) ResolveAPIKey() {
	if c.APIKey != "" {
		return
	}
	for _, name := range apiKeyEnv {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			c.APIKey = v
			return
		}
	}
}

// Validate checks the configuration against the supported values.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if !slices.Contains(ValidModels, c.Model) {
		errs = append(errs, fmt.Errorf("invalid model %q (must be one of: %s)", c.Model, strings.Join(ValidModels, ", ")))
	}
	if !slices.Contains(ValidAspectRatios, c.AspectRatio) {
		errs = append(errs, fmt.Errorf("invalid aspect ratio %q (must be one of: %s)", c.AspectRatio, strings.Join(ValidAspectRatios, ", ")))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("invalid poll interval %s", c.PollInterval))
	}
	return errors.Join(errs...)
}

// ServiceOptions converts the configuration for the genai backend.
func (c Config) ServiceOptions() veo.Options {
	return veo.Options{
		APIKey:         c.APIKey,
		Model:          c.Model,
		NumberOfVideos: 1,
		AspectRatio:    c.AspectRatio,
		NegativePrompt: c.NegativePrompt,
	}
}
