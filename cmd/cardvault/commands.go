package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ryhazerus/cardvault/guard"
	"github.com/ryhazerus/cardvault/profile"
)

// errRateLimited is returned when a search is denied by the guard.
var errRateLimited = errors.New("too many searches, try again later")

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newCardsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cards",
		Short: "Print the display cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), a.profiles.Cards(cmd.Context()))
		},
	}
}

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Print the search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), a.profiles.Entries(cmd.Context()))
		},
	}
}

func newSaveCmd(a *app) *cobra.Command {
	var (
		card        profile.Card
		stats       profile.Stats
		searchCount int64
		owned       bool
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Edit a display card and sync its search entry",
		Long: `Merges the given fields over the card with the same --name. Fields
that are not given keep their current value. The search entry with the
card's handle receives the new name, title and icon, and --search-count
when given.`,
		Example: `  cardvault save --name MONAD --title "Currently Mainnet"
  cardvault save --name BENJA --search-count 1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u := profile.Card{
				Name:      guard.SanitizeInput(card.Name),
				Title:     guard.SanitizeInput(card.Title),
				Handle:    guard.SanitizeInput(card.Handle),
				Color:     guard.SanitizeInput(card.Color),
				TextColor: guard.SanitizeInput(card.TextColor),
				Icon:      guard.SanitizeInput(card.Icon),
			}
			if u.Name == "" {
				return errors.New("--name is required")
			}

			s := profile.Stats{
				TotalEarned: guard.SanitizeInput(stats.TotalEarned),
				TodayPoints: guard.SanitizeInput(stats.TodayPoints),
			}
			flags := cmd.Flags()
			if flags.Changed("search-count") {
				if searchCount < 0 {
					return fmt.Errorf("--search-count must not be negative, got %d", searchCount)
				}
				s.SearchCount = profile.Int64(searchCount)
			}
			if flags.Changed("owned") {
				s.Owned = profile.Bool(owned)
			}
			if s != (profile.Stats{}) {
				u.Stats = &s
			}

			a.profiles.SaveCard(cmd.Context(), u)
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", u.Name)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&card.Name, "name", "", "name of the card to edit (required)")
	f.StringVar(&card.Title, "title", "", "card title")
	f.StringVar(&card.Handle, "handle", "", "social handle")
	f.StringVar(&card.Color, "color", "", "background colour")
	f.StringVar(&card.TextColor, "text-color", "", "text colour")
	f.StringVar(&card.Icon, "icon", "", "avatar reference")
	f.StringVar(&stats.TotalEarned, "total-earned", "", "total earned label")
	f.StringVar(&stats.TodayPoints, "today-points", "", "today's points label")
	f.Int64Var(&searchCount, "search-count", 0, "search count (also sets leaderboard points)")
	f.BoolVar(&owned, "owned", false, "ownership flag")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var identifier string

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search profiles and count the lookup",
		Long: `Finds profiles whose name or handle match each query ("*" works as a
wildcard) and increments their search count. Each query counts against the
rate limit of --as.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, q := range args {
				if err := runSearch(cmd, a, identifier, q); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&identifier, "as", "anonymous", "caller identifier, e.g. a connected wallet address")
	return cmd
}

// runSearch sanitizes query, checks the caller's rate limit, prints the
// matches and counts the search against each of them.
func runSearch(cmd *cobra.Command, a *app, identifier, query string) error {
	q := guard.SanitizeInput(query)
	if q == "" {
		return fmt.Errorf("empty query %q", query)
	}
	if !a.guard.Allow(identifier) {
		return errRateLimited
	}

	ctx := cmd.Context()
	matches := a.profiles.Search(ctx, q)
	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintf(out, "no profiles match %q\n", q)
		return nil
	}
	for _, e := range matches {
		a.profiles.IncrementSearchCount(ctx, e.Handle)
		fmt.Fprintf(out, "%s %s (%s searches)\n", e.Name, e.Handle, humanize.Comma(e.SearchCount+1))
	}
	return nil
}

func newShellCmd(a *app) *cobra.Command {
	var identifier string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Read search queries from stdin, one per line",
		Long: `Runs every line of standard input as a search for --as. Rate-limited
lines are reported and skipped; expired rate limit windows are swept in the
background.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go a.guard.Run(ctx, a.cfg.Guard.SweepInterval)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				err := runSearch(cmd, a, identifier, line)
				switch {
				case errors.Is(err, errRateLimited):
					fmt.Fprintln(cmd.OutOrStdout(), err)
				case err != nil:
					a.log.Debug("skipping query", zap.String("query", line), zap.Error(err))
				}
				if ctx.Err() != nil {
					return nil
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&identifier, "as", "anonymous", "caller identifier, e.g. a connected wallet address")
	return cmd
}

func newOwnCmd(a *app) *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:   "own <handle>",
		Short: "Mark a profile as owned (or not, with --unset)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle := guard.SanitizeInput(args[0])
			a.profiles.SetOwned(cmd.Context(), handle, !unset)
			fmt.Fprintf(cmd.OutOrStdout(), "%s owned=%t\n", handle, !unset)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unset, "unset", false, "clear the owned flag instead")
	return cmd
}

func newLeaderboardCmd(a *app) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print profiles ranked by points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for i, e := range a.profiles.Leaderboard(cmd.Context(), n) {
				fmt.Fprintf(out, "%2d. %-10s %-12s %s points\n", i+1, e.Name, e.Handle, humanize.Comma(e.Points))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "top", "n", 0, "number of entries to show (0 for all)")
	return cmd
}

func newInitOwnershipCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init-ownership",
		Short: "Set every missing owned flag to false",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.profiles.InitializeOwnership(cmd.Context())
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace all profile data with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.profiles.ResetToDefaults(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "profiles reset to defaults")
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all stored profile data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.profiles.ClearAll(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "profile data cleared")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print cards, index and search counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), a.profiles.Status(cmd.Context()))
		},
	}
}
