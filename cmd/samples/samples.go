// Package samples implements the sample listing command.
package samples

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oceanecho/oceanecho/internal/conf"
	lib "github.com/oceanecho/oceanecho/internal/samples"
)

// Command creates the samples command.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "samples",
		Short: "List the bundled sample clips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			library := lib.NewLibrary(settings.Samples.Path, settings.Samples.Extensions)
			list, err := library.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			if len(list) == 0 {
				_, err := fmt.Fprintf(out, "no samples in %s\n", library.Dir())
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, s := range list {
				if _, err := fmt.Fprintf(tw, "%s\t%d bytes\n", s.Name, s.Size); err != nil {
					return err
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
