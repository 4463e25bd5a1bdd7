// Package predict implements batch classification from the command line.
package predict

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/oceanecho/oceanecho/internal/analysis"
	"github.com/oceanecho/oceanecho/internal/conf"
	"github.com/oceanecho/oceanecho/internal/samples"
)

// Command creates the predict command.
func Command(settings *conf.Settings) *cobra.Command {
	var sampleNames []string
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "predict [files...]",
		Short: "Classify audio files and library samples",
		Long: `Classify audio files given as arguments and samples selected with --sample.
Files are processed in order; a failing file is reported and the rest still run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Files = args
			settings.Input.Samples = sampleNames

			inputs, err := collectInputs(settings)
			if err != nil {
				return err
			}

			rt, err := analysis.NewRuntime(settings, nil)
			if err != nil {
				return fmt.Errorf("cannot classify without pipeline artifacts: %w", err)
			}
			defer func() { _ = rt.Close() }()

			showProgress := !noProgress && len(inputs) > 1 && isTerminal(os.Stderr)
			return run(cmd.Context(), rt.Processor, inputs, settings.Output.Format, cmd.OutOrStdout(), cmd.ErrOrStderr(), showProgress)
		},
	}

	cmd.Flags().StringSliceVarP(&sampleNames, "sample", "s", nil, "Sample library clip to classify (repeatable)")
	cmd.Flags().StringVarP(&settings.Output.Format, "format", "f", viper.GetString("output.format"), "Output format: table, csv, json")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	_ = viper.BindPFlag("output.format", cmd.Flags().Lookup("format"))

	return cmd
}

// collectInputs lists files first, then library samples.
func collectInputs(settings *conf.Settings) ([]analysis.Input, error) {
	inputs := make([]analysis.Input, 0, len(settings.Input.Files)+len(settings.Input.Samples))
	for _, path := range settings.Input.Files {
		inputs = append(inputs, analysis.Input{Path: path})
	}

	if len(settings.Input.Samples) > 0 {
		lib := samples.NewLibrary(settings.Samples.Path, settings.Samples.Extensions)
		for _, name := range settings.Input.Samples {
			path, err := lib.Resolve(name)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, analysis.Input{Name: name, Path: path})
		}
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("nothing to classify: pass audio files or --sample names")
	}
	return inputs, nil
}

type batchProcessor interface {
	ProcessBatchWithProgress(ctx context.Context, inputs []analysis.Input, progress analysis.ProgressFunc) *analysis.BatchReport
}

// run processes the batch and writes the report. It fails when any file
// could not be classified so scripts can detect partial results.
func run(ctx context.Context, proc batchProcessor, inputs []analysis.Input, format string, out, errOut io.Writer, showProgress bool) error {
	var progress analysis.ProgressFunc
	var p *mpb.Progress
	if showProgress {
		p = mpb.NewWithContext(ctx, mpb.WithOutput(errOut), mpb.WithWidth(64))
		bar := p.AddBar(int64(len(inputs)),
			mpb.PrependDecorators(
				decor.Name("Classifying: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.EwmaETA(decor.ET_STYLE_GO, 30),
			),
		)
		progress = func(done, total int, res *analysis.Result) {
			bar.EwmaIncrBy(1, res.Duration)
		}
	}

	report := proc.ProcessBatchWithProgress(ctx, inputs, progress)
	if p != nil {
		p.Wait()
	}

	if err := analysis.WriteReport(out, report, format); err != nil {
		return err
	}
	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d files could not be classified", failed, len(report.Results))
	}
	return nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
