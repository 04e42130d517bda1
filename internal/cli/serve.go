// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"github.com/spf13/cobra"

	"github.com/ik5/multitrack/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP control API for the project",
		Long: `Load the project and serve the track, transport and mixdown API with a
websocket feed of transport time. Stops cleanly on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

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

			log := a.log.Named("server")
			srv := server.NewHTTPServer(addr, server.New(sess, log))
			return server.Serve(ctx, srv, log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
