package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/oceanecho/oceanecho/internal/logger"
)

// setDefaultConfig sets default values for every configuration key.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("main.name", "Oceanecho")

	viper.SetDefault("artifacts.scaler", "model/scaler.json")
	viper.SetDefault("artifacts.labelencoder", "model/label_encoder.json")
	viper.SetDefault("artifacts.classifier", "model/xgb_model.json")
	viper.SetDefault("artifacts.threads", 0)

	viper.SetDefault("audio.ffmpegpath", "")
	viper.SetDefault("audio.decodetimeout", 2*time.Minute)

	viper.SetDefault("samples.path", "sample")
	viper.SetDefault("samples.extensions", []string{".wav", ".mp3", ".ogg"})

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", time.Hour)
	viper.SetDefault("cache.maxentries", 256)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.host", "")
	viper.SetDefault("webserver.port", "8501")
	viper.SetDefault("webserver.uploaddir", "")
	viper.SetDefault("webserver.uploadttl", 30*time.Minute)
	viper.SetDefault("webserver.maxuploadsize", "50M")
	viper.SetDefault("webserver.ratelimit", 2.0)
	viper.SetDefault("webserver.ratelimitburst", 5)

	viper.SetDefault("output.format", "table")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")

	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.listen", "")

	viper.SetDefault("logging.default_level", logger.DefaultLogLevel)
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	viper.SetDefault("logging.console.level", logger.DefaultLogLevel)
	viper.SetDefault("logging.file_output.enabled", logger.DefaultFileEnabled)
	viper.SetDefault("logging.file_output.path", logger.DefaultLogPath)
	viper.SetDefault("logging.file_output.level", logger.DefaultLogLevel)
}
