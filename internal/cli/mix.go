// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMixCmd(a *app) *cobra.Command {
	var (
		out    string
		export bool
	)

	cmd := &cobra.Command{
		Use:   "mix",
		Short: "Render the project to a stereo WAV file",
		Long: `Load every track of the project and render it offline with each track's
volume, pan, mute and solo applied. With --export the file is uploaded to
object storage and its URL printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, err := a.openBackends(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			sess, err := a.openSession(ctx, b)
			if err != nil {
				return err
			}
			defer sess.Close()

			if export {
				url, err := sess.ExportMixdown(ctx)
				if err != nil {
					return fmt.Errorf("mixing failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			}

			data, err := sess.Mixdown(ctx)
			if err != nil {
				return fmt.Errorf("mixing failed: %w", err)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}

			a.log.Info("mixdown written", zap.String("path", out), zap.Int("bytes", len(data)))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "mixdown.wav", "output file")
	cmd.Flags().BoolVar(&export, "export", false, "upload to object storage instead of writing a file")
	return cmd
}
