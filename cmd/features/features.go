// Package features implements the feature dump command.
package features

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oceanecho/oceanecho/internal/conf"
	feat "github.com/oceanecho/oceanecho/internal/features"
	"github.com/oceanecho/oceanecho/internal/myaudio"
)

// Command creates the features command.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "features <file>",
		Short: "Print the feature vector of an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := myaudio.NewLoader(
				myaudio.WithFFmpeg(conf.ResolveFfmpegPath(settings.Audio.FfmpegPath)),
				myaudio.WithDecodeTimeout(settings.Audio.DecodeTimeout),
			)
			wf, err := loader.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			vec, err := feat.NewExtractor().Extract(wf)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), vec)
			}
			return writeTable(cmd.OutOrStdout(), wf, vec)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the vector as a JSON object keyed by feature name")
	return cmd
}

func writeTable(w io.Writer, wf *myaudio.Waveform, vec feat.Vector) error {
	if _, err := fmt.Fprintf(w, "# %s, %d Hz source, %.2fs, %d features\n",
		wf.Source.Format, wf.Source.SampleRate, wf.Duration().Seconds(), len(vec)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, name := range feat.Names() {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%.6g\n", i, name, vec[i]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, vec feat.Vector) error {
	names := feat.Names()
	out := make(map[string]float64, len(names))
	for i, name := range names {
		out[name] = vec[i]
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
