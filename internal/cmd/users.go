package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/qargo/dashboard/internal/auth"
	"github.com/qargo/dashboard/internal/config"
	"github.com/qargo/dashboard/internal/server"
	"github.com/qargo/dashboard/pkg/state"
)

// ErrEphemeralStore is returned when user changes would be lost on exit.
var ErrEphemeralStore = errors.New("users commands need a persistent store; set store.driver to file")

var headerStyle = lipgloss.NewStyle().Bold(true)

func newUsersCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage dashboard accounts",
		Long: `Manage the accounts stored in the configured store.

Users are addressed by their index as shown by "users list".`,
	}

	cmd.AddCommand(
		newUsersListCommand(opts),
		newUsersAddCommand(opts),
		newUsersUpdateCommand(opts),
		newUsersDeleteCommand(opts),
		newUsersImportCommand(opts),
	)
	return cmd
}

// withUsers opens the store and the repository, runs fn and closes the
// store.
func withUsers(cmd *cobra.Command, opts *options, fn func(*auth.Repository) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if cfg.Store.Driver != config.StoreFile {
		return ErrEphemeralStore
	}

	store, err := server.OpenStore(cfg.Store)
	if err != nil {
		return err
	}
	defer func(s state.Store) { _ = s.Close() }(store)

	users, err := auth.NewRepository(cmd.Context(), store, auth.WithSeedFile(cfg.Users.SeedFile))
	if err != nil {
		return err
	}
	return fn(users)
}

func parseIndex(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", arg)
	}
	return i, nil
}

func newUsersListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd, opts, func(users *auth.Repository) error {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-5s %-20s %-30s %s", "INDEX", "USERNAME", "EMAIL", "CREATED")))
				for i, u := range users.All() {
					fmt.Fprintf(out, "%-5d %-20s %-30s %s\n", i, u.Username, u.Email, u.CreatedAt.Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
}

func newUsersAddCommand(opts *options) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "add <username> <email>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd, opts, func(users *auth.Repository) error {
				u, err := users.Add(cmd.Context(), auth.Credentials{
					Username: args[0],
					Email:    args[1],
					Password: password,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", u.Username)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersUpdateCommand(opts *options) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "update <index> <username> <email>",
		Short: "Replace an account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return withUsers(cmd, opts, func(users *auth.Repository) error {
				err := users.Update(cmd.Context(), index, auth.Credentials{
					Username: args[1],
					Email:    args[2],
					Password: password,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated user %d\n", index)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "new password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return withUsers(cmd, opts, func(users *auth.Repository) error {
				if err := users.Delete(cmd.Context(), index); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", index)
				return nil
			})
		},
	}
}

func newUsersImportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <seed-file>",
		Short: "Replace every account with the users of a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := auth.LoadSeed(args[0])
			if err != nil {
				return err
			}
			return withUsers(cmd, opts, func(users *auth.Repository) error {
				if err := users.SetAll(cmd.Context(), creds); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d users\n", len(creds))
				return nil
			})
		},
	}
}
