// Package serve implements the web UI command.
package serve

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/oceanecho/oceanecho/internal/analysis"
	"github.com/oceanecho/oceanecho/internal/conf"
	"github.com/oceanecho/oceanecho/internal/httpcontroller"
	"github.com/oceanecho/oceanecho/internal/logger"
	"github.com/oceanecho/oceanecho/internal/observability"
	"github.com/oceanecho/oceanecho/internal/samples"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Long:  "Load the pipeline artifacts and serve the upload and sample prediction UI.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, settings)
		},
	}

	setupFlags(cmd, settings)
	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVar(&settings.WebServer.Host, "host", viper.GetString("webserver.host"), "Address to listen on")
	cmd.Flags().StringVarP(&settings.WebServer.Port, "port", "p", viper.GetString("webserver.port"), "Port to listen on")
	_ = viper.BindPFlag("webserver.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("webserver.port", cmd.Flags().Lookup("port"))
}

func run(cmd *cobra.Command, settings *conf.Settings) error {
	log := logger.Global().Module("main")

	if !settings.WebServer.Enabled {
		return fmt.Errorf("web server is disabled in settings (webserver.enabled)")
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	rt, err := analysis.NewRuntime(settings, m.Pipeline)
	if err != nil {
		return fmt.Errorf("cannot start without pipeline artifacts: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn("failed to release artifacts", logger.Error(err))
		}
	}()

	lib := samples.NewLibrary(settings.Samples.Path, settings.Samples.Extensions)
	srv, err := httpcontroller.New(settings, rt.Processor, lib, m)
	if err != nil {
		return err
	}

	var endpoint *observability.Endpoint
	if settings.Telemetry.Enabled && settings.Telemetry.Listen != "" {
		endpoint, err = observability.NewEndpoint(settings, m)
		if err != nil {
			_ = srv.Uploads.Close()
			return err
		}
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return srv.Run(ctx) })
	if endpoint != nil {
		g.Go(func() error { return endpoint.Run(ctx) })
	}

	log.Info("oceanecho ready", logger.String("url", "http://"+srv.Address()))
	return g.Wait()
}
