// config.go: Oceanecho configuration loading and settings types
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"

	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// ArtifactSettings locates the three pre-fitted pipeline artifacts.
type ArtifactSettings struct {
	Scaler       string // scaler file (.json, .yaml)
	LabelEncoder string // label encoder file (.txt, .json, .yaml)
	Classifier   string // classifier file (.json, .yaml, .tflite)
	Threads      int    // TFLite interpreter threads, 0 = runtime.NumCPU
}

// AudioSettings controls decoding.
type AudioSettings struct {
	FfmpegPath    string        // ffmpeg binary, empty to look up in PATH
	DecodeTimeout time.Duration // upper bound for a single ffmpeg decode
}

// SampleSettings describes the bundled sample library.
type SampleSettings struct {
	Path       string   // directory holding sample clips
	Extensions []string // accepted file extensions, with leading dot
}

// CacheSettings controls the feature vector cache.
type CacheSettings struct {
	Enabled    bool
	TTL        time.Duration
	MaxEntries int
}

// WebServerSettings contains settings for the web UI.
type WebServerSettings struct {
	Enabled        bool
	Host           string
	Port           string
	UploadDir      string        // parent of the per-process upload directory, empty for os.TempDir
	UploadTTL      time.Duration // uploaded clips are removed after this long
	MaxUploadSize  string        // request body limit, e.g. "50M"
	RateLimit      float64       // predict requests per second per client, 0 disables
	RateLimitBurst int
}

// OutputSettings controls CLI result rendering.
type OutputSettings struct {
	Format string // table, csv or json
}

// SentrySettings enables error telemetry.
type SentrySettings struct {
	Enabled bool
	DSN     string
}

// TelemetrySettings controls the Prometheus endpoint.
type TelemetrySettings struct {
	Enabled bool
	Listen  string // optional dedicated listener, e.g. "127.0.0.1:9090"
}

// InputConfig holds per-invocation CLI inputs; never read from config files.
type InputConfig struct {
	Files   []string
	Samples []string
}

// Settings is the root configuration.
type Settings struct {
	Debug bool

	Main struct {
		Name string // title shown in the UI
	}

	Artifacts ArtifactSettings
	Audio     AudioSettings
	Samples   SampleSettings
	Cache     CacheSettings
	WebServer WebServerSettings
	Output    OutputSettings
	Sentry    SentrySettings
	Telemetry TelemetrySettings
	Logging   logger.LoggingConfig

	Input InputConfig `yaml:"-" mapstructure:"-"`
}

// Load reads configuration from file, environment and defaults, then validates it.
func Load() (*Settings, error) {
	if err := initViper(); err != nil {
		return nil, errors.New(fmt.Errorf("error initializing viper: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	settings := &Settings{}
	if err := Refresh(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Refresh re-reads viper (including bound command line flags) into settings and validates.
func Refresh(settings *Settings) error {
	input := settings.Input
	if err := viper.Unmarshal(settings); err != nil {
		return errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	settings.Input = input

	if err := ValidateSettings(settings); err != nil {
		return fmt.Errorf("error validating settings: %w", err)
	}
	return nil
}

// initViper sets defaults, environment bindings and reads config.yaml if present.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			GetLogger().Debug("no config file found, using defaults",
				logger.Any("searched", configPaths))
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	GetLogger().Debug("config file loaded", logger.String("path", viper.ConfigFileUsed()))
	return nil
}

// DefaultConfig returns the embedded, fully commented default config.yaml.
func DefaultConfig() ([]byte, error) {
	return fs.ReadFile(configFiles, "config.yaml")
}
