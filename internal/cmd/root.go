// Package cmd implements the dashboard command line.
package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qargo/dashboard/internal/config"
	"github.com/qargo/dashboard/pkg/logging"
)

// version is set at build time with -ldflags "-X".
var version = "dev"

// options are shared by every subcommand of one root command.
type options struct {
	cfgFile string
	v       *viper.Viper
}

func (o *options) load() (*config.Config, error) {
	return config.Load(o.v)
}

// NewRootCommand builds the command tree. Each call gets its own viper
// instance.
func NewRootCommand() *cobra.Command {
	opts := &options{v: viper.New()}

	root := &cobra.Command{
		Use:   "dashboard",
		Short: "Qargo client dashboard",
		Long: `Qargo client dashboard: a server-rendered web dashboard with a
guided "new company" wizard, plus a terminal rendition of the same wizard.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.Setup(opts.v, opts.cfgFile)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "",
		"config file (default is ./dashboard.yaml or "+config.ConfigDir()+"/dashboard.yaml)")

	root.AddCommand(
		newServeCommand(opts),
		newWizardCommand(opts),
		newUsersCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

func newLogger(cfg config.LoggingConfig, w io.Writer) logging.Logger {
	return logging.NewSlogLogger(
		logging.WithLevelName(cfg.Level),
		logging.WithJSON(cfg.JSON),
		logging.WithOutput(w),
	)
}
