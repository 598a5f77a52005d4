package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"foosball/internal/back"

	"github.com/spf13/cobra"
)

var rankingRole string

var rankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "Print the current rankings",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBack(conf)
		if err != nil {
			return err
		}
		defer b.Close()

		return ranking(cmd.Context(), cmd.OutOrStdout(), b, rankingRole)
	},
}

func init() { // nolint:gochecknoinits
	rankingCmd.Flags().StringVar(&rankingRole, "role", "", "only print this role (offense or defense)")
}

// ranking prints the leaderboard of roleName, or of every role when it is
// empty.
func ranking(ctx context.Context, out io.Writer, b *back.Back, roleName string) error {
	roles, err := rankingRoles(roleName)
	if err != nil {
		return err
	}

	entries, err := b.GetRankings(ctx)
	if err != nil {
		return err
	}
	back.SortRankings(entries)

	for _, role := range roles {
		if err := printRankings(out, role, back.FilterRankings(entries, role)); err != nil {
			return err
		}
	}

	return nil
}

func rankingRoles(str string) ([]back.Role, error) {
	if str == "" {
		return []back.Role{back.RoleOffense, back.RoleDefense}, nil
	}

	role := back.Role(str)
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", str)
	}

	return []back.Role{role}, nil
}

func printRankings(out io.Writer, role back.Role, entries []back.RankingEntry) error {
	fmt.Fprintf(out, "%s\n", role)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tPlayer\tRank\tMu\tSigma\tW\tL\t")
	for k, v := range entries {
		fmt.Fprintf(
			w, "%d\t%s\t%.4f\t%.3f\t%.3f\t%d\t%d\t\n",
			k+1, v.PlayerName, v.Rank, v.Mu, v.Sigma, v.Wins, v.Losses,
		)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	return nil
}
