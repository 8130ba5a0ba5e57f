package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/tourney/internal/adapters/mq/queue"
	"github.com/okian/tourney/internal/domain/scoring"
	"github.com/okian/tourney/pkg/logger"
)

func newIngestCommand(r *runner) *cobra.Command {
	var recompute bool
	cmd := &cobra.Command{
		Use:   "ingest <facts.jsonl|->",
		Short: "Apply a fact log to the ledger in file order",
		Long: `Applies every run and milestone of a JSON lines fact log, one transaction per
fact. Re-delivered facts are skipped; malformed facts are logged and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := r.ledger(ctx)
			if err != nil {
				return err
			}
			t, err := ingest(ctx, args[0], cmd, func(ctx context.Context, f queue.Fact) (bool, error) {
				return svc.ApplyNow(ctx, f)
			})
			fmt.Fprintln(cmd.OutOrStdout(), t)
			if err != nil {
				return err
			}
			if recompute {
				report, err := svc.RecomputeNow(ctx)
				if err != nil {
					return err
				}
				printReport(cmd, report)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&recompute, "recompute", false, "run a recomputation pass after the log is applied")
	return cmd
}

type applyFunc func(ctx context.Context, f queue.Fact) (bool, error)

func ingest(ctx context.Context, path string, cmd *cobra.Command, apply applyFunc) (tally, error) {
	log := logger.Named("ingest")
	var t tally
	err := readFacts(path, cmd.InOrStdin(), func(line int, f queue.Fact) error {
		applied, err := apply(ctx, f)
		switch {
		case errors.Is(err, scoring.ErrMalformedFact):
			t.Malformed++
			log.Warn(ctx, "skipping malformed fact", logger.Int("line", line), logger.Error(err))
		case err != nil:
			return fmt.Errorf("line %d: %w", line, err)
		case applied:
			t.Applied++
		default:
			t.Duplicate++
		}
		return nil
	})
	return t, err
}
