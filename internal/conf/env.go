// env.go: environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. OCEANECHO_WEBSERVER_PORT.
const EnvPrefix = "OCEANECHO"

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns the explicitly validated environment bindings.
// Every other key is still reachable through AutomaticEnv.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"artifacts.scaler", "OCEANECHO_SCALER", validateEnvPath},
		{"artifacts.labelencoder", "OCEANECHO_LABELENCODER", validateEnvPath},
		{"artifacts.classifier", "OCEANECHO_CLASSIFIER", validateEnvPath},
		{"artifacts.threads", "OCEANECHO_THREADS", validateEnvThreads},
		{"samples.path", "OCEANECHO_SAMPLES", validateEnvPath},
		{"webserver.port", "OCEANECHO_PORT", validateEnvPort},
		{"sentry.dsn", "OCEANECHO_SENTRY_DSN", nil},
		{"debug", "OCEANECHO_DEBUG", validateEnvBool},
	}
}

// bindEnvVars sets up environment variable bindings with validation
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value %q: %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvThreads(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative integer")
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("must be between 1 and 65535")
	}
	return nil
}

// validateEnvPath rejects parent directory references after cleaning.
func validateEnvPath(value string) error {
	cleaned := filepath.Clean(value)
	for _, part := range strings.Split(filepath.ToSlash(cleaned), "/") {
		if part == ".." {
			return fmt.Errorf("path traversal detected in %s", cleaned)
		}
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for viper
func configureEnvironmentVariables() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	return bindEnvVars()
}
