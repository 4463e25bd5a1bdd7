// validate.go: settings validation
package conf

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// OutputFormats lists the accepted values of output.format.
var OutputFormats = []string{"table", "csv", "json"}

var logLevels = []string{"trace", "debug", "info", "warn", "warning", "error"}

// ValidateSettings validates the entire Settings struct and reports every problem at once.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}
	collect := func(errs []string) { ve.Errors = append(ve.Errors, errs...) }

	collect(validateArtifactSettings(&settings.Artifacts))
	collect(validateSampleSettings(&settings.Samples))
	collect(validateCacheSettings(&settings.Cache))
	collect(validateWebServerSettings(&settings.WebServer))

	if !slices.Contains(OutputFormats, strings.ToLower(settings.Output.Format)) {
		ve.Errors = append(ve.Errors, fmt.Sprintf("output.format must be one of %v, got %q", OutputFormats, settings.Output.Format))
	}

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry.dsn is required when sentry is enabled")
	}

	if lvl := settings.Logging.DefaultLevel; lvl != "" && !slices.Contains(logLevels, strings.ToLower(lvl)) {
		ve.Errors = append(ve.Errors, fmt.Sprintf("logging.default_level %q is not a valid level", lvl))
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateArtifactSettings(a *ArtifactSettings) []string {
	var errs []string
	if a.Scaler == "" {
		errs = append(errs, "artifacts.scaler must be set")
	}
	if a.LabelEncoder == "" {
		errs = append(errs, "artifacts.labelencoder must be set")
	}
	if a.Classifier == "" {
		errs = append(errs, "artifacts.classifier must be set")
	}
	if a.Threads < 0 {
		errs = append(errs, "artifacts.threads must not be negative")
	}
	return errs
}

func validateSampleSettings(s *SampleSettings) []string {
	var errs []string
	if len(s.Extensions) == 0 {
		errs = append(errs, "samples.extensions must list at least one extension")
	}
	for _, ext := range s.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Sprintf("samples.extensions entry %q must start with a dot", ext))
		}
	}
	return errs
}

func validateCacheSettings(c *CacheSettings) []string {
	if !c.Enabled {
		return nil
	}
	var errs []string
	if c.TTL <= 0 {
		errs = append(errs, "cache.ttl must be positive when the cache is enabled")
	}
	if c.MaxEntries <= 0 {
		errs = append(errs, "cache.maxentries must be positive when the cache is enabled")
	}
	return errs
}

func validateWebServerSettings(w *WebServerSettings) []string {
	if !w.Enabled {
		return nil
	}
	var errs []string
	if port, err := strconv.Atoi(w.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("webserver.port %q must be between 1 and 65535", w.Port))
	}
	if w.UploadTTL <= 0 {
		errs = append(errs, "webserver.uploadttl must be positive")
	}
	if w.RateLimit < 0 {
		errs = append(errs, "webserver.ratelimit must not be negative")
	}
	if w.RateLimit > 0 && w.RateLimitBurst < 1 {
		errs = append(errs, "webserver.ratelimitburst must be at least 1 when rate limiting is enabled")
	}
	return errs
}
