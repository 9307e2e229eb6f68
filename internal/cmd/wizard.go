package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qargo/dashboard/internal/company"
	"github.com/qargo/dashboard/internal/server"
	"github.com/qargo/dashboard/internal/theme"
	"github.com/qargo/dashboard/internal/tui"
	"github.com/qargo/dashboard/internal/wizard"
	"github.com/qargo/dashboard/pkg/logging"
)

func newWizardCommand(opts *options) *cobra.Command {
	var (
		draftID string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Register a new company from the terminal",
		Long: `Run the new-company wizard in the terminal.

The draft is kept in the configured store under --draft, so an interrupted
wizard resumes where it stopped. The terminal owns stdout; use --log-file
to keep logs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			var logger logging.Logger = logging.NopLogger{}
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logger = newLogger(cfg.Logging, f)
			}

			store, err := server.OpenStore(cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			client := company.NewClient(company.Config{
				Endpoint: cfg.Company.Endpoint,
				Timeout:  cfg.Company.Timeout,
			}, company.WithLogger(logger))

			m := tui.New(cmd.Context(),
				wizard.NewStoreDrafts(store, draftID),
				client,
				theme.Lookup(cfg.UI.Theme),
				tui.WithLogger(logger),
			)
			return tui.Run(cmd.Context(), m, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&draftID, "draft", "terminal", "draft id")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file")
	return cmd
}
