package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"shethrive-data/internal/app"
	"shethrive-data/internal/common/logger"
	"shethrive-data/internal/config"
	"shethrive-data/internal/cycle"
	"shethrive-data/internal/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shethrive-data",
		Short:         "Operator tooling for the SheThrive data layer",
		SilenceUsage: true,
	}
	root.AddCommand(
		newSeedCmd(),
		newCycleCmd(),
		newAuditCmd(),
		newExportCmd(),
		newInsightCmd(),
		newSubscribeCmd(),
		newEntitlementCmd(),
	)
	return root
}

// withApp builds the application from the environment for one command.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize", zap.Error(err))
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("Close failed", zap.Error(err))
		}
	}()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireFlag(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		_ = cmd.MarkFlagRequired(n)
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the demo user and the provider, plan and article catalogues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Seed(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seeded")
				return nil
			})
		},
	}
}

func newCycleCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Show the current cycle day and phase for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				rec, err := a.Repos.Cycles.Get(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), struct {
					Record *domain.CycleRecord `json:"record"`
					Status cycle.Status        `json:"status"`
				}{Record: rec, Status: cycle.Summarize(*rec, a.Now())})
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	requireFlag(cmd, "user")
	return cmd
}

func newAuditCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List audit entries, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var (
					entries []domain.AuditLogEntry
					err     error
				)
				if userID != "" {
					entries, err = a.Audit.ListForUser(ctx, userID)
				} else {
					entries, err = a.Audit.List(ctx)
				}
				if err != nil {
					return err
				}
				if entries == nil {
					entries = []domain.AuditLogEntry{}
				}
				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "only entries for this user")
	return cmd
}

func newExportCmd() *cobra.Command {
	var userID, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's data as an XLSX workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				data, err := a.Services.Export.Export(ctx, userID)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o600); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(data), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().StringVar(&out, "out", "export.xlsx", "output file")
	requireFlag(cmd, "user")
	return cmd
}

func newInsightCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "insight",
		Short: "Generate and store a daily health insight",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Services.Insight.Generate(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	requireFlag(cmd, "user")
	return cmd
}

func newSubscribeCmd() *cobra.Command {
	var userID, planID string
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Subscribe a user to a plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				sub, err := a.Services.Billing.Subscribe(ctx, userID, planID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), sub)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().StringVar(&planID, "plan", "", "plan ID")
	requireFlag(cmd, "user", "plan")
	return cmd
}

func newEntitlementCmd() *cobra.Command {
	var userID, feature string
	cmd := &cobra.Command{
		Use:   "entitlement",
		Short: "Check whether a user's plan includes a feature",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"user_id":  userID,
					"feature":  feature,
					"entitled": a.Services.Billing.CheckEntitlement(ctx, userID, feature),
				})
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().StringVar(&feature, "feature", "", "feature name, exact match")
	requireFlag(cmd, "user", "feature")
	return cmd
}
