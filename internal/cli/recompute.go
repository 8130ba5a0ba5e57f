package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/tourney/internal/domain/scoring"
)

func newRecomputeCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild every provisional award now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := r.ledger(cmd.Context())
			if err != nil {
				return err
			}
			report, err := svc.RecomputeNow(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
}

func printReport(cmd *cobra.Command, report scoring.CycleReport) {
	fmt.Fprintf(cmd.OutOrStdout(), "cycle %s: players=%d awards=%d points=%d clan_points=%d took=%s\n",
		report.ID, report.Players, report.Awards, report.Points, report.ClanPoints, report.Duration)
}
