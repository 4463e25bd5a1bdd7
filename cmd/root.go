// Package cmd wires the oceanecho command line.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oceanecho/oceanecho/cmd/features"
	"github.com/oceanecho/oceanecho/cmd/predict"
	"github.com/oceanecho/oceanecho/cmd/samples"
	"github.com/oceanecho/oceanecho/cmd/serve"
	"github.com/oceanecho/oceanecho/internal/buildinfo"
	"github.com/oceanecho/oceanecho/internal/conf"
	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/logger"
)

// RootCommand creates the root command. Running it without a subcommand
// starts the web UI.
func RootCommand(settings *conf.Settings, build *buildinfo.Context) (*cobra.Command, error) {
	serveCmd := serve.Command(settings)

	rootCmd := &cobra.Command{
		Use:          "oceanecho",
		Short:        "Oceanecho marine mammal species classifier",
		Long:         "Oceanecho classifies marine mammal recordings into species using a pre-trained feature pipeline.",
		Version:      build.GetVersion(),
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		return nil, err
	}

	rootCmd.AddCommand(
		serveCmd,
		predict.Command(settings),
		features.Command(settings),
		samples.Command(settings),
		versionCommand(build),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := conf.Refresh(settings); err != nil {
			return err
		}
		return initialize(settings, build)
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		errors.FlushTelemetry(2 * time.Second)
	}

	return rootCmd, nil
}

// initialize sets up logging and error telemetry once settings are final.
func initialize(settings *conf.Settings, build *buildinfo.Context) error {
	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
	}
	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if settings.Sentry.Enabled {
		if err := errors.InitSentry(settings.Sentry.DSN, build.GetVersion()); err != nil {
			logger.Global().Module("main").Warn("error telemetry disabled", logger.Error(err))
		}
	}
	return nil
}

// setupFlags defines flags that are global to the command line interface
// and binds them to their configuration keys.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	flags.StringVar(&settings.Artifacts.Scaler, "scaler", viper.GetString("artifacts.scaler"), "Path to the fitted scaler")
	flags.StringVar(&settings.Artifacts.LabelEncoder, "labels", viper.GetString("artifacts.labelencoder"), "Path to the label encoder")
	flags.StringVar(&settings.Artifacts.Classifier, "classifier", viper.GetString("artifacts.classifier"), "Path to the classifier model")
	flags.StringVar(&settings.Audio.FfmpegPath, "ffmpeg", viper.GetString("audio.ffmpegpath"), "Path to the ffmpeg binary")
	flags.StringVar(&settings.Samples.Path, "samples-dir", viper.GetString("samples.path"), "Directory of bundled sample clips")

	bindings := map[string]string{
		"debug":                  "debug",
		"artifacts.scaler":       "scaler",
		"artifacts.labelencoder": "labels",
		"artifacts.classifier":   "classifier",
		"audio.ffmpegpath":       "ffmpeg",
		"samples.path":           "samples-dir",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

func versionCommand(build *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(build.String())
		},
	}
}
