package cmd

import (
	"github.com/spf13/cobra"

	"github.com/qargo/dashboard/internal/config"
	"github.com/qargo/dashboard/internal/server"
	"github.com/qargo/dashboard/pkg/logging"
)

func newServeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		Long: `Run the dashboard web server until interrupted.

Settings come from the config file, DASHBOARD_* environment variables
(e.g. DASHBOARD_SERVER_ADDR for server.addr) and flags, in increasing
order of precedence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			logger := newLogger(cfg.Logging, cmd.ErrOrStderr())
			logging.SetDefault(logger)

			srv, err := server.New(cmd.Context(), cfg,
				server.WithLogger(logger),
				server.WithVersion(version),
			)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().String("addr", config.Default().Server.Addr, "listen address")
	_ = opts.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
