package main

import (
	"context"
	"fmt"

	"github.com/dealdesk/core/internal/modules/inventory/hierarchy"
	"github.com/dealdesk/core/internal/modules/system/licensecode"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Create missing Homepages and attach orphan positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.run(cmd, func(c context.Context, s *session) (any, error) {
				return reconcile(c, s)
			})
		},
	}
}

func newLicensesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "licenses",
		Short: "Rewrite legacy regulator license codes as country codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.run(cmd, func(c context.Context, s *session) (any, error) {
				return migrateLicenses(c, s)
			})
		},
	}
}

type allReport struct {
	Reconcile hierarchy.ReconcileReport `json:"reconcile"`
	Licenses  licensecode.Report        `json:"licenses"`
}

func newAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run reconcile, then licenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.run(cmd, func(c context.Context, s *session) (any, error) {
				var out allReport
				var err error
				if out.Reconcile, err = reconcile(c, s); err != nil {
					return nil, err
				}
				if out.Licenses, err = migrateLicenses(c, s); err != nil {
					return nil, err
				}
				return out, nil
			})
		},
	}
}

func reconcile(ctx context.Context, s *session) (hierarchy.ReconcileReport, error) {
	report, err := hierarchy.NewService(s.db, s.log, s.recorder).Reconcile(ctx)
	if err != nil {
		return report, fmt.Errorf("reconcile: %w", err)
	}
	return report, nil
}

func migrateLicenses(ctx context.Context, s *session) (licensecode.Report, error) {
	report, err := licensecode.NewMigrator(s.db, s.log, s.recorder).Run(ctx)
	if err != nil {
		return report, fmt.Errorf("license migration: %w", err)
	}
	return report, nil
}

// run opens a session, runs fn and prints whatever report it returns.
func (c *commandContext) run(cmd *cobra.Command, fn func(context.Context, *session) (any, error)) error {
	s, err := c.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := fn(cmd.Context(), s)
	if err != nil {
		return err
	}
	s.log.Info("maintenance finished", zap.String("task", cmd.Name()))

	if c.jsonOutput {
		return writeJSON(cmd, report)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
	return err
}
