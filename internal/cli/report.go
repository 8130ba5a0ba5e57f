package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAuditCommand(r *runner) *cobra.Command {
	var team bool
	cmd := &cobra.Command{
		Use:   "audit <player>",
		Short: "Show where a player's points came from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := r.ledger(cmd.Context())
			if err != nil {
				return err
			}
			trail, err := svc.PlayerAudit(cmd.Context(), args[0], team)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SOURCE\tKIND\tCOUNT\tPOINTS")
			for _, l := range trail.Lines {
				kind := "permanent"
				if l.Temporary {
					kind = "provisional"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", l.Source, kind, l.Count, l.Points)
			}
			fmt.Fprintf(w, "total\tpermanent\t\t%d\n", trail.Total(false))
			fmt.Fprintf(w, "total\tprovisional\t\t%d\n", trail.Total(true))
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&team, "team", false, "show team points instead of personal points")
	return cmd
}

func newTopCommand(r *runner) *cobra.Command {
	var (
		limit int
		clans bool
	)
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the player or clan ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := r.ledger(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if clans {
				rows, err := svc.Clans(ctx, limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "RANK\tCLAN\tCAPTAIN\tTOTAL")
				for _, c := range rows {
					fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", c.Rank, c.Name, c.Captain, c.Total)
				}
				return w.Flush()
			}
			rows, err := svc.TopPlayers(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "RANK\tPLAYER\tSCORE\tTEAM\tCLAN")
			for _, p := range rows {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", p.Rank, p.Player, p.Score, p.TeamScore, p.Captain)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of rows")
	cmd.Flags().BoolVar(&clans, "clans", false, "rank clans instead of players")
	return cmd
}
