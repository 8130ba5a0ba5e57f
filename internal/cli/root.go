// Package cli implements the tourneyctl administration commands.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/tourney/internal/app"
	"github.com/okian/tourney/internal/config"
	"github.com/okian/tourney/pkg/logger"
)

// runner carries the state shared by every command of one invocation.
type runner struct {
	dbPath   string
	logLevel string

	cfg *config.Config
	svc *service.Service
}

// NewRootCommand builds the tourneyctl command tree.
func NewRootCommand() *cobra.Command {
	r := &runner{}
	root := &cobra.Command{
		Use:           "tourneyctl",
		Short:         "Administer the tournament scoring ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return r.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return r.teardown(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&r.dbPath, "db", "", "ledger database file (default from config)")
	root.PersistentFlags().StringVar(&r.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newIngestCommand(r),
		newPushCommand(r),
		newRecomputeCommand(r),
		newClanCommand(r),
		newAuditCommand(r),
		newTopCommand(r),
	)
	closeOnError(root, r)
	return root
}

// closeOnError stops the ledger when a command fails; cobra skips the
// post-run hooks in that case.
func closeOnError(cmd *cobra.Command, r *runner) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) error {
			if err := run(c, args); err != nil {
				return errors.Join(err, r.teardown(c.Context()))
			}
			return nil
		}
	}
	for _, sub := range cmd.Commands() {
		closeOnError(sub, r)
	}
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (r *runner) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if r.dbPath != "" {
		cfg.DBPath = r.dbPath
	}
	if r.logLevel != "" {
		cfg.LogLevel = r.logLevel
	}
	r.cfg = cfg

	if err := logger.InitWithOptions(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	return logger.SetLevelString(cfg.LogLevel)
}

// ledger starts a local service over the configured database. The scheduler
// stays off; commands run passes explicitly.
func (r *runner) ledger(ctx context.Context) (*service.Service, error) {
	if r.svc != nil {
		return r.svc, nil
	}
	svc := service.New(
		service.WithConfig(r.cfg),
		service.WithRecomputeInterval(0),
		service.WithLogger(logger.Named("tourneyctl")),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", r.cfg.DBPath, err)
	}
	r.svc = svc
	return svc, nil
}

func (r *runner) teardown(ctx context.Context) error {
	if r.svc == nil {
		return nil
	}
	err := r.svc.Stop(ctx)
	r.svc = nil
	return err
}
