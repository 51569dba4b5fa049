package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"pimms/internal/modkit"
	"pimms/internal/platform/config"
	"pimms/internal/platform/logger"
	"pimms/internal/platform/store"
	"pimms/internal/platform/store/migrations"

	whrepo "pimms/internal/services/api/webhooks/repo"
	hotscoremod "pimms/internal/services/hotscore/module"

	"github.com/spf13/cobra"
)

// withStore opens the backends named in the environment for the life of fn
func withStore(ctx context.Context, fn func(*store.Store) error) error {
	l := logger.Get()
	st, err := store.Open(ctx, store.FromEnv(config.New(), "pimmsctl"), store.WithLogger(*l))
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	return fn(st)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// scoreCmd recomputes one customer's hot score through the gate
func scoreCmd() *cobra.Command {
	var (
		force   bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "score <workspace_id> <customer_id>",
		Short: "Recompute a customer's hot score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return withStore(ctx, func(st *store.Store) error {
				// local queue keeps the cli off the shared stream
				mod := hotscoremod.New(modkit.FromStore(st, config.New(), nil), hotscoremod.Options{
					Queue: hotscoremod.QueueLocal,
				})
				svc := mod.Service()

				recompute := svc.Recompute
				if force {
					recompute = svc.Force
				}
				out, err := recompute(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "bypass the recompute gate")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline")
	return cmd
}

// migrateCmd applies the embedded schema
func migrateCmd() *cobra.Command {
	var (
		clickhouse bool
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres schema, and the clickhouse one with --clickhouse",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if dryRun {
				dialects := []migrations.Dialect{migrations.Postgres}
				if clickhouse {
					dialects = append(dialects, migrations.ClickHouse)
				}
				for _, d := range dialects {
					scripts, err := migrations.Scripts(d)
					if err != nil {
						return err
					}
					for _, s := range scripts {
						fmt.Fprintf(out, "-- %s/%s\n%s\n", d, s.Name, s.SQL)
					}
				}
				return nil
			}

			return withStore(cmd.Context(), func(st *store.Store) error {
				if err := migrations.Apply(cmd.Context(), st.PG); err != nil {
					return err
				}
				fmt.Fprintln(out, "postgres schema applied")
				if !clickhouse {
					return nil
				}
				if st.CH == nil {
					return fmt.Errorf("--clickhouse needs SERVICE_CLICKHOUSE_DBURL")
				}
				if err := migrations.ApplyClickHouse(cmd.Context(), st.CH); err != nil {
					return err
				}
				fmt.Fprintln(out, "clickhouse schema applied")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clickhouse, "clickhouse", false, "also create the clicks table")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the scripts instead of running them")
	return cmd
}

// webhookErrorsCmd lists recent failed deliveries for a workspace
func webhookErrorsCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "webhook-errors <workspace_id>",
		Short: "List recent webhook errors for a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(st *store.Store) error {
				rows, err := whrepo.NewPG().Bind(st.PG).Recent(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), rows)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RECEIVED\tAPP\tREASON\tSECURITY\tPIMMS_ID")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
						r.ReceivedAt.UTC().Format(time.RFC3339), r.App, r.ReasonCode, r.Security, r.PimmsID)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "rows to show, at most 500")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json")
	return cmd
}

// pingCmd checks every configured backend
func pingCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Ping postgres, clickhouse, redis and nats when configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return withStore(ctx, func(st *store.Store) error {
				if err := st.Guard(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall deadline")
	return cmd
}
