// Package config loads the uploadoor configuration from a YAML file with
// UPLOADOOR_* environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// DefaultConcurrency is the default number of simultaneous uploads.
	DefaultConcurrency = 9

	// DefaultTimeout is the default per-upload timeout.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxFileSize is the default upload size ceiling.
	DefaultMaxFileSize = "20MB"

	// EnvPrefix is the prefix of environment variable overrides,
	// e.g. UPLOADOOR_UPLOAD_CONCURRENCY=4.
	EnvPrefix = "UPLOADOOR"
)

// DefaultExtensions is the default upload extension allow-list.
var DefaultExtensions = []string{"jpg", "jpeg", "tif", "tiff", "raw", "png", "gif"}

// Config is the root configuration for uploadoor.
type Config struct {
	Flickr FlickrConfig `yaml:"flickr" mapstructure:"flickr"`
	Upload UploadConfig `yaml:"upload" mapstructure:"upload"`
}

// FlickrConfig contains API credentials and auth settings.
type FlickrConfig struct {
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	APISecret string `yaml:"api_secret" mapstructure:"api_secret"`
	TokenFile string `yaml:"token_file,omitempty" mapstructure:"token_file"`

	// Endpoint overrides for testing against a local stub service.
	RestURL   string `yaml:"rest_url,omitempty" mapstructure:"rest_url"`
	AuthURL   string `yaml:"auth_url,omitempty" mapstructure:"auth_url"`
	UploadURL string `yaml:"upload_url,omitempty" mapstructure:"upload_url"`
}

// UploadConfig contains batch upload settings.
type UploadConfig struct {
	Dir           string        `yaml:"dir,omitempty" mapstructure:"dir"`
	Tags          string        `yaml:"tags,omitempty" mapstructure:"tags"`
	Public        bool          `yaml:"public" mapstructure:"public"`
	Concurrency   int           `yaml:"concurrency" mapstructure:"concurrency"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxFileSize   string        `yaml:"max_file_size" mapstructure:"max_file_size"`
	Extensions    []string      `yaml:"extensions" mapstructure:"extensions"`
	RatePerSecond float64       `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// Load reads the configuration file at path (optional, "" means defaults
// only) and applies UPLOADOOR_* environment overrides on top.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults are registered with viper so env overrides bind even for
	// keys absent from the file.
	v.SetDefault("flickr.api_key", "")
	v.SetDefault("flickr.api_secret", "")
	v.SetDefault("flickr.token_file", "")
	v.SetDefault("flickr.rest_url", "")
	v.SetDefault("flickr.auth_url", "")
	v.SetDefault("flickr.upload_url", "")
	v.SetDefault("upload.dir", "")
	v.SetDefault("upload.tags", "")
	v.SetDefault("upload.public", false)
	v.SetDefault("upload.concurrency", DefaultConcurrency)
	v.SetDefault("upload.timeout", DefaultTimeout.String())
	v.SetDefault("upload.max_file_size", DefaultMaxFileSize)
	v.SetDefault("upload.extensions", DefaultExtensions)
	v.SetDefault("upload.rate_limit", 0.0)

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result: &cfg,
		// Env override values arrive as strings.
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("building config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills derived defaults and expands environment references.
func (c *Config) applyDefaults() {
	if c.Upload.Dir == "" {
		c.Upload.Dir, _ = os.Getwd()
	}

	c.Upload.Dir = os.ExpandEnv(c.Upload.Dir)

	if c.Flickr.TokenFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Flickr.TokenFile = filepath.Join(home, ".uploadoor", "token")
		}
	}

	c.Flickr.TokenFile = os.ExpandEnv(c.Flickr.TokenFile)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Flickr.APIKey == "" {
		return fmt.Errorf("flickr.api_key is required")
	}

	if c.Flickr.APISecret == "" {
		return fmt.Errorf("flickr.api_secret is required")
	}

	if c.Upload.Dir == "" {
		return fmt.Errorf("upload.dir is required")
	}

	if c.Upload.Concurrency < 1 {
		return fmt.Errorf("upload.concurrency must be at least 1, got %d", c.Upload.Concurrency)
	}

	if c.Upload.Timeout <= 0 {
		return fmt.Errorf("upload.timeout must be positive, got %s", c.Upload.Timeout)
	}

	if len(c.Upload.Extensions) == 0 {
		return fmt.Errorf("upload.extensions must not be empty")
	}

	if c.Upload.RatePerSecond < 0 {
		return fmt.Errorf("upload.rate_limit must not be negative, got %f", c.Upload.RatePerSecond)
	}

	if _, err := c.MaxFileSizeBytes(); err != nil {
		return err
	}

	return nil
}

// MaxFileSizeBytes parses the human-readable size ceiling ("20MB") into
// bytes, using binary units to match the historical 20*1048576 limit.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	size, err := units.RAMInBytes(c.Upload.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("parsing upload.max_file_size %q: %w", c.Upload.MaxFileSize, err)
	}

	if size <= 0 {
		return 0, fmt.Errorf("upload.max_file_size must be positive, got %q", c.Upload.MaxFileSize)
	}

	return size, nil
}

// Redacted returns a copy of the configuration safe for display.
func (c *Config) Redacted() *Config {
	redacted := *c
	if redacted.Flickr.APISecret != "" {
		redacted.Flickr.APISecret = "********"
	}

	return &redacted
}
