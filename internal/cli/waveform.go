// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ik5/multitrack/loader"
	"github.com/ik5/multitrack/waveform"
)

func newWaveformCmd(a *app) *cobra.Command {
	var (
		buckets int
		trimGap float64
		start   float64
		end     float64
	)

	cmd := &cobra.Command{
		Use:   "waveform <url>",
		Short: "Print the amplitude envelope of an audio file as JSON",
		Long: `Print the normalized amplitude envelope of one file, one value per bucket.
Envelopes are cached in Redis when redis.addr is configured.

With --start or --end only the trimmed part is measured, and the trim
window in seconds is printed alongside. Handles are percentages (0-100).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !cmd.Flags().Changed("buckets") {
				buckets = a.cfg.Engine.WaveformBuckets
			}

			b, err := a.openBackends(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			ldr := a.newLoader()
			url := args[0]

			result := map[string]any{}
			if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
				trim, err := waveform.NewTrim(trimGap)
				if err != nil {
					return err
				}
				trim.SetEnd(end)
				trim.SetStart(start)

				res, err := ldr.Load(ctx, loader.Request{URL: url})
				if err != nil {
					return err
				}
				peaks, err := waveform.Extract(trim.Apply(res.Buffer), buckets)
				if err != nil {
					return err
				}
				from, to := trim.Window(res.Buffer.Duration())
				result["peaks"] = peaks
				result["trim"] = map[string]float64{"start": from, "end": to}
			} else {
				opts := []waveform.Option{
					waveform.WithBuckets(buckets),
					waveform.WithLogger(a.log.Named("waveform")),
				}
				if b.waveform != nil {
					opts = append(opts, waveform.WithCache(b.waveform))
				}

				peaks, err := waveform.NewExtractor(ldr, opts...).FromURL(ctx, url)
				if err != nil {
					return err
				}
				result["peaks"] = peaks
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("encoding waveform: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&buckets, "buckets", "b", waveform.DefaultBuckets, "number of envelope values")
	cmd.Flags().Float64Var(&trimGap, "trim-gap", waveform.DefaultMinGap, "minimum distance between trim handles")
	cmd.Flags().Float64Var(&start, "start", 0, "trim start handle (0-100)")
	cmd.Flags().Float64Var(&end, "end", 100, "trim end handle (0-100)")
	return cmd
}
