package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	service "github.com/okian/tourney/internal/app"
)

func newClanCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clan",
		Short: "Manage clan rosters",
	}

	create := &cobra.Command{
		Use:   "create <captain> <name>",
		Short: "Create or rename the clan led by captain; the roster is reset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := r.ledger(cmd.Context())
			if err != nil {
				return err
			}
			return svc.CreateClan(cmd.Context(), args[1], args[0])
		},
	}

	add := &cobra.Command{
		Use:   "add <captain> <player>...",
		Short: "Enroll players in captain's clan",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := r.ledger(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range args[1:] {
				if err := svc.AddToClan(cmd.Context(), args[0], p); err != nil {
					return err
				}
			}
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <player>...",
		Short: "Release players from their clan; removing a captain disbands the clan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := r.ledger(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range args {
				if err := svc.RemoveFromClan(cmd.Context(), p); err != nil {
					return err
				}
			}
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <clans.yaml>",
		Short: "Create clans and their rosters from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roster, err := loadRoster(args[0])
			if err != nil {
				return err
			}
			svc, err := r.ledger(cmd.Context())
			if err != nil {
				return err
			}
			if err := roster.apply(cmd.Context(), svc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d clans\n", len(roster.Clans))
			return nil
		},
	}

	cmd.AddCommand(create, add, remove, importCmd)
	return cmd
}

// roster is the clan import file:
//
//	clans:
//	  - name: Orb Runners
//	    captain: ann
//	    members: [bob, cid]
type roster struct {
	Clans []struct {
		Name    string   `yaml:"name"`
		Captain string   `yaml:"captain"`
		Members []string `yaml:"members"`
	} `yaml:"clans"`
}

func loadRoster(path string) (roster, error) {
	var r roster
	raw, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read roster: %w", err)
	}
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("parse roster %s: %w", path, err)
	}
	for i, c := range r.Clans {
		if c.Name == "" || c.Captain == "" {
			return r, fmt.Errorf("roster %s: clan %d needs a name and a captain", path, i+1)
		}
	}
	return r, nil
}

func (r roster) apply(ctx context.Context, svc *service.Service) error {
	for _, c := range r.Clans {
		if err := svc.CreateClan(ctx, c.Name, c.Captain); err != nil {
			return err
		}
		for _, m := range c.Members {
			if err := svc.AddToClan(ctx, c.Captain, m); err != nil {
				return err
			}
		}
	}
	return nil
}
