// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ik5/multitrack/loader"
)

func newProbeCmd(a *app) *cobra.Command {
	var persisted float64

	return &cobra.Command{
		Use:   "probe <url>...",
		Short: "Load audio files and report format and duration",
		Long: `Load each file the way the engine does and print its container format,
size, decoded frames and resolved duration with the strategy that produced it.
A file that fails to load is reported and the rest are still probed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ldr := a.newLoader()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "URL\tFORMAT\tBYTES\tFRAMES\tDURATION\tSOURCE")

			failed := 0
			for _, url := range args {
				res, err := ldr.Load(cmd.Context(), loader.Request{URL: url, PersistedDuration: persisted})
				if err != nil {
					failed++
					fmt.Fprintf(w, "%s\terror: %v\t\t\t\t\n", url, err)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.3fs\t%s\n",
					url, res.Format, res.Size, res.Buffer.Frames(), res.Duration.Seconds, res.Duration.Source)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to load", failed, len(args))
			}
			return nil
		},
	}
}
