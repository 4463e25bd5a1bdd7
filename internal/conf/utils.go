package conf

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/oceanecho/oceanecho/internal/errors"
)

const osWindows = "windows"

// GetDefaultConfigPaths returns the directories searched for config.yaml.
// If one of them already holds a config.yaml, only that directory is returned.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	configPaths := []string{"."}
	switch runtime.GOOS {
	case osWindows:
		configPaths = append(configPaths, filepath.Join(homeDir, "AppData", "Roaming", "oceanecho"))
	default:
		configPaths = append(configPaths,
			filepath.Join(homeDir, ".config", "oceanecho"),
			"/etc/oceanecho",
		)
	}

	for _, path := range configPaths {
		if _, err := os.Stat(filepath.Join(path, "config.yaml")); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}

// GetFfmpegBinaryName returns the binary name for ffmpeg based on the current OS.
func GetFfmpegBinaryName() string {
	if runtime.GOOS == osWindows {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

// ResolveFfmpegPath returns the configured ffmpeg path, or the one found in PATH.
// An empty result means compressed formats cannot be decoded.
func ResolveFfmpegPath(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
		return ""
	}
	path, err := exec.LookPath(GetFfmpegBinaryName())
	if err != nil {
		return ""
	}
	return path
}
