// Package main is the entry point for the Tonearm admin CLI.
// This tool provides administrative commands for managing users and session keys.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/prn-tf/tonearm/internal/config"
	"github.com/prn-tf/tonearm/internal/database"
	"github.com/prn-tf/tonearm/internal/lock"
	"github.com/prn-tf/tonearm/internal/pkg/crypto"
	"github.com/prn-tf/tonearm/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	_ = godotenv.Load()

	if err := newRootCmd(log.Logger).Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	configPath string
	logger     zerolog.Logger
}

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	a := &app{logger: logger}

	root := &cobra.Command{
		Use:          "tonearm-admin",
		Short:        "Tonearm admin CLI",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file")

	root.AddCommand(a.usersCmd(), keygenCmd(), versionCmd())
	return root
}

// withAccounts opens the configured store for the duration of fn.
func (a *app) withAccounts(ctx context.Context, fn func(*service.AccountService) error) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	store, err := database.Open(ctx, cfg.Database, a.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(service.NewAccountService(store, lock.NewNoOpLocker(), nil, a.logger))
}

func (a *app) usersCmd() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	users.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withAccounts(cmd.Context(), func(accounts *service.AccountService) error {
				list, err := accounts.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tUSERNAME\tADD MUSIC")
				for _, u := range list {
					fmt.Fprintf(tw, "%d\t%s\t%t\n", u.ID, u.Username, u.CanAddMusic())
				}
				return tw.Flush()
			})
		},
	})

	var revoke bool
	grant := &cobra.Command{
		Use:   "grant <username>",
		Short: "Grant (or with --revoke, remove) the add-music permission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAccounts(cmd.Context(), func(accounts *service.AccountService) error {
				user, err := accounts.SetAddMusicPerm(cmd.Context(), args[0], !revoke)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: add music %t\n", user.Username, user.CanAddMusic())
				return nil
			})
		},
	}
	grant.Flags().BoolVar(&revoke, "revoke", false, "remove the permission instead")
	users.AddCommand(grant)

	return users
}

func keygenCmd() *cobra.Command {
	var withBlock bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print fresh hex-encoded session keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printKeys(cmd.OutOrStdout(), withBlock)
		},
	}
	cmd.Flags().BoolVar(&withBlock, "block", true, "also print an encryption key")
	return cmd
}

func printKeys(w io.Writer, withBlock bool) error {
	hashKey, err := crypto.GenerateHexKey(crypto.HashKeySize)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "TONEARM_SESSION_HASH_KEY=%s\n", hashKey)

	if withBlock {
		blockKey, err := crypto.GenerateHexKey(crypto.BlockKeySize)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "TONEARM_SESSION_BLOCK_KEY=%s\n", blockKey)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Tonearm Admin CLI\nVersion: %s\nBuild Time: %s\nGit Commit: %s\n",
				Version, BuildTime, GitCommit)
		},
	}
}
