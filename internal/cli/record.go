// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ik5/multitrack/capture"
	"github.com/ik5/multitrack/engine"
)

func newRecordCmd(a *app) *cobra.Command {
	var (
		duration time.Duration
		out      string
		trackID  string
		rate     int
		channels int
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a take from the default input device",
		Long: `Record from the default input device until --duration elapses or the
process is interrupted. The take is written to --out, or with --track it is
uploaded and attached to that track of the project.

Capture needs a binary built with -tags portaudio.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if rate == 0 {
				rate = a.cfg.Engine.SampleRate
			}

			device := capture.DefaultDevice(rate, channels)
			rec := capture.NewRecorder(device,
				capture.WithConfig(capture.Config{
					Secure:        a.cfg.Recorder.Secure,
					DeviceTimeout: a.cfg.Recorder.DeviceTimeout,
					QueueSize:     a.cfg.Recorder.QueueSize,
				}),
				capture.WithLogger(a.log.Named("capture")),
			)

			if err := rec.Start(ctx); err != nil {
				return fmt.Errorf("failed to start recording: %w", err)
			}
			a.log.Info("recording, press Ctrl+C to stop")

			var timeout <-chan time.Time
			if duration > 0 {
				timer := time.NewTimer(duration)
				defer timer.Stop()
				timeout = timer.C
			}
			select {
			case <-ctx.Done():
			case <-timeout:
			}

			take, err := rec.Stop()
			if err != nil {
				return fmt.Errorf("failed to stop recording: %w", err)
			}
			if take == nil {
				return engine.ErrEmptyRecording
			}
			a.log.Info("recording stopped",
				zap.Duration("duration", take.Duration),
				zap.Int("bytes", len(take.Data)))

			if trackID == "" {
				if err := os.WriteFile(out, take.Data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", out, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}

			// ctx is done after an interrupt.
			attachCtx := context.WithoutCancel(ctx)

			b, err := a.openBackends(attachCtx)
			if err != nil {
				return err
			}
			defer b.Close()

			sess, err := a.openSession(attachCtx, b)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.AttachRecording(attachCtx, trackID, take); err != nil {
				return err
			}
			n, _ := sess.Track(trackID)
			fmt.Fprintln(cmd.OutOrStdout(), n.Record().AudioURL)
			return nil
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop after this long (0 waits for interrupt)")
	cmd.Flags().StringVarP(&out, "out", "o", "take.wav", "output file")
	cmd.Flags().StringVarP(&trackID, "track", "t", "", "attach the take to this track")
	cmd.Flags().IntVar(&rate, "sample-rate", 0, "capture rate (default engine.sample_rate)")
	cmd.Flags().IntVar(&channels, "channels", 1, "capture channels")
	return cmd
}
