// Command cardvault manages the persisted profile cards and search index
// from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ryhazerus/cardvault/guard"
	"github.com/ryhazerus/cardvault/internal/config"
	"github.com/ryhazerus/cardvault/internal/logging"
	"github.com/ryhazerus/cardvault/kv"
	"github.com/ryhazerus/cardvault/profile"
)

// app holds everything a command needs. It is built once per invocation in
// PersistentPreRunE.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    kv.Store
	profiles *profile.Store
	guard    *guard.Guard
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("closing store", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
		a       = &app{}
	)

	root := &cobra.Command{
		Use:   "cardvault",
		Short: "Manage wallet-gated profile cards and their search index",
		Long: `cardvault keeps two views of profile data in step: the editable
display cards and the search index used for search and the leaderboard.

Storage, rate limits and logging are read from cardvault.yaml or
CARDVAULT_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, verbose)
			if err != nil {
				return err
			}
			backend, err := openStore(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.log = logger
			a.store = backend
			a.profiles = profile.New(backend, profile.WithLogger(logger.Named("profile")))
			a.guard = guard.New(
				guard.WithDefaults(cfg.Guard.MaxRequests, cfg.Guard.Window),
				guard.WithMaxEntries(cfg.Guard.MaxEntries),
				guard.WithLogger(logger.Named("guard")),
				guard.WithOnLimitReached(func(id string, count int) {
					logger.Warn("rate limit reached", zap.String("identifier", id), zap.Int("count", count))
				}),
			)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./cardvault.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newCardsCmd(a),
		newIndexCmd(a),
		newSaveCmd(a),
		newSearchCmd(a),
		newShellCmd(a),
		newOwnCmd(a),
		newLeaderboardCmd(a),
		newInitOwnershipCmd(a),
		newResetCmd(a),
		newClearCmd(a),
		newStatusCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
