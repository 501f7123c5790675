package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-insight/internal/cli"
	"github.com/Veraticus/spice-insight/internal/insight"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run every analysis over your transactions",
		Long: `Analyze your transaction history in one pass:
- Spending trends with your most frequent categories
- Unusual transactions flagged by the anomaly detector
- A forecast of upcoming spending
- A financial health score with advice

Examples:
  # Full report
  spice analyze

  # Machine-readable output
  spice analyze --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *insight.Engine) error {
				report, err := engine.Analyze(ctx, settings.UserID)
				if err != nil {
					return err
				}
				if wantJSON(cmd) {
					return writeJSON(cmd.OutOrStdout(), report)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle("Financial insights for "+settings.UserID))
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderReport(report))
				return nil
			})
		},
	}
	addJSONFlag(cmd)
	return cmd
}

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast upcoming spending",
		Long: `Fit a trend line to your daily spending and extrapolate it.
At least 5 transactions on 5 different days are needed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			months, _ := cmd.Flags().GetInt("months")
			return withEngine(cmd, func(ctx context.Context, engine *insight.Engine) error {
				forecast, err := engine.Forecast(ctx, settings.UserID, months)
				if err != nil {
					return err
				}
				if wantJSON(cmd) {
					return writeJSON(cmd.OutOrStdout(), forecast)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderForecast(forecast))
				return nil
			})
		},
	}
	cmd.Flags().IntP("months", "m", 0, "Months ahead to forecast (default: forecast.months_ahead)")
	addJSONFlag(cmd)
	return cmd
}

func healthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Score your financial health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *insight.Engine) error {
				health, err := engine.Health(ctx, settings.UserID)
				if err != nil {
					return err
				}
				if wantJSON(cmd) {
					return writeJSON(cmd.OutOrStdout(), health)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderHealth(health))
				return nil
			})
		},
	}
	addJSONFlag(cmd)
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show totals and recent transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *insight.Engine) error {
				dashboard, err := engine.Dashboard(ctx, settings.UserID)
				if err != nil {
					return err
				}
				if wantJSON(cmd) {
					return writeJSON(cmd.OutOrStdout(), dashboard)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderDashboard(dashboard))
				return nil
			})
		},
	}
	addJSONFlag(cmd)
	return cmd
}

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show expense totals per category",
		Long: `Total your expenses per category. Use --all to list every
category the categorizer can assign.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if all {
				for i, c := range model.Categories {
					fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, c)
				}
				return nil
			}
			return withEngine(cmd, func(ctx context.Context, engine *insight.Engine) error {
				totals, err := engine.Categories(ctx, settings.UserID)
				if err != nil {
					return err
				}
				if wantJSON(cmd) {
					return writeJSON(cmd.OutOrStdout(), totals)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderCategoryTotals(totals))
				return nil
			})
		},
	}
	cmd.Flags().Bool("all", false, "List every known category")
	cmd.AddCommand(suggestCmd())
	addJSONFlag(cmd)
	return cmd
}

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <description> <amount>",
		Short: "Suggest a category without saving anything",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			txType, _ := cmd.Flags().GetString("type")
			return withEngine(cmd, func(_ context.Context, engine *insight.Engine) error {
				txn, err := newTransaction(settings.UserID, args[0], args[1], txType, "", "", timeNow(), engine)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), txn.Category)
				return nil
			})
		},
	}
	cmd.Flags().StringP("type", "t", string(model.TypeExpense), "Transaction type (expense, income)")
	return cmd
}
