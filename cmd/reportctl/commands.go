package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zepto-insights/dashboard/internal/analytics"
	"github.com/zepto-insights/dashboard/internal/analytics/export"
	"github.com/zepto-insights/dashboard/internal/catalog"
	"github.com/zepto-insights/dashboard/jobs"
)

// reportService is the subset of analytics.Service the commands use.
type reportService interface {
	TableName() string
	Table(ctx context.Context) (catalog.Table, error)
	RenderDashboard(ctx context.Context, sel analytics.Selections) (analytics.Dashboard, error)
	Invalidate(ctx context.Context) (int64, error)
}

type env struct {
	open    func(ctx context.Context) (reportService, func(), error)
	enqueue func(ctx context.Context, refresh bool) (string, error)
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Inspect and maintain the product analytics report",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSummaryCmd(e), newExportCmd(e), newWarmupCmd(e), newBumpCmd(e))
	return root
}

func (e *env) withService(cmd *cobra.Command, fn func(ctx context.Context, svc reportService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeFn, err := e.open(ctx)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(ctx, svc)
}

func newSummaryCmd(e *env) *cobra.Command {
	var asJSON bool
	var sel analytics.Selections
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print KPIs and per-category aggregates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc reportService) error {
				dash, err := svc.RenderDashboard(ctx, sel)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(dash.Report)
				}
				return writeSummary(cmd.OutOrStdout(), dash.Report)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	cmd.Flags().StringVar(&sel.Category, "category", "", "category for the price, discount and stock insights")
	cmd.Flags().StringVar(&sel.DiscountCategory, "discount-category", "", "category for the discount recommendation")
	return cmd
}

func writeSummary(w io.Writer, report analytics.ReportOutput) error {
	fmt.Fprintf(w, "Table:           %s\n", report.Table)
	fmt.Fprintf(w, "Total products:  %d\n", report.KPIs.TotalProducts)
	if report.KPIs.AvgDiscountPercent != nil {
		fmt.Fprintf(w, "Avg discount:    %.2f%%\n", *report.KPIs.AvgDiscountPercent)
	}
	fmt.Fprintf(w, "In stock:        %d of %d\n\n", report.StockStatus.InStock, report.StockStatus.Total())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tPRODUCTS\tAVG PRICE\tAVG DISCOUNT\tIN STOCK")
	for _, agg := range report.Aggregates {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f%%\t%.1f%%\n", agg.Category, agg.Products, agg.AvgPrice, agg.AvgDiscount, agg.InStockRatio*100)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Insights) > 0 {
		fmt.Fprintln(w)
		for _, in := range report.Insights {
			fmt.Fprintf(w, "- %s\n", in.Text)
		}
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

func newExportCmd(e *env) *cobra.Command {
	var out string
	var raw bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the report (or the raw table) as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc reportService) error {
				w := cmd.OutOrStdout()
				if out != "" && out != "-" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer func() { _ = f.Close() }()
					w = f
				}
				if raw {
					table, err := svc.Table(ctx)
					if err != nil {
						return err
					}
					return export.WriteRawCSV(w, table)
				}
				dash, err := svc.RenderDashboard(ctx, analytics.Selections{})
				if err != nil {
					return err
				}
				return export.WriteReportCSV(w, dash.Report)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&raw, "raw", false, "export the normalized product table instead of the summary")
	return cmd
}

func newWarmupCmd(e *env) *cobra.Command {
	var refresh, enqueue bool
	cmd := &cobra.Command{
		Use:   "warmup",
		Short: "Load the product table into the snapshot cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if enqueue {
				id, err := e.enqueue(cmd.Context(), refresh)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s task %s\n", jobs.TaskReportWarmup, id)
				return nil
			}
			return e.withService(cmd, func(ctx context.Context, svc reportService) error {
				job := jobs.NewReportWarmupJob(svc, nil, nil)
				rows, err := job.Run(ctx, jobs.ReportWarmupPayload{Refresh: refresh})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "warmed %s: %d rows\n", svc.TableName(), rows)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bump the cache version before loading")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "enqueue the warm-up on the worker queue instead of running it")
	return cmd
}

func newBumpCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "bump",
		Short: "Invalidate cached snapshots in every dashboard process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc reportService) error {
				version, err := svc.Invalidate(ctx)
				if err != nil {
					return err
				}
				if version == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "snapshot cache disabled, nothing to bump")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cache version %d\n", version)
				return nil
			})
		},
	}
}
