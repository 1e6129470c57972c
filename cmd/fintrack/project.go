package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/app"
	"fintrack/internal/config"
	"fintrack/internal/models"
	"fintrack/internal/projection"
	"fintrack/internal/services"
)

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Compare a recurring cost with investing the same money",
		Long: `Project the cost of a recurring payment against investing it instead.
Pass --subscription to project a stored subscription, or --amount and
--frequency for an ad-hoc cost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := projectionOptions(cmd)
			if err != nil {
				return err
			}

			var cmp *projection.Comparison
			if id, _ := cmd.Flags().GetString("subscription"); id != "" {
				svc, _, cleanup, err := openServices()
				if err != nil {
					return err
				}
				defer cleanup()
				if cmp, err = svc.Projections.CompareSubscription(cmd.Context(), id, opts); err != nil {
					return err
				}
			} else {
				if !cmd.Flags().Changed("amount") {
					return fmt.Errorf("either --subscription or --amount is required")
				}
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				name, _ := cmd.Flags().GetString("name")
				amount, _ := cmd.Flags().GetFloat64("amount")
				frequency, _ := cmd.Flags().GetString("frequency")
				var days *int
				if cmd.Flags().Changed("days") {
					d, _ := cmd.Flags().GetInt("days")
					days = &d
				}

				// Ad-hoc costs never touch storage.
				svc := services.NewProjectionService(nil, projection.NewEngine(app.ProjectionConfig(cfg)))
				if cmp, err = svc.CompareCost(name, amount, models.BillingFrequency(frequency), days, opts); err != nil {
					return err
				}
			}

			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), cmp)
			}
			return printComparison(cmd, cmp)
		},
	}

	cmd.Flags().String("subscription", "", "ID of a stored subscription")
	cmd.Flags().String("name", "", "label for an ad-hoc cost")
	cmd.Flags().Float64("amount", 0, "amount charged per billing period")
	cmd.Flags().String("frequency", string(models.BillingFrequencyMonthly), "billing frequency (monthly, quarterly, annually, custom)")
	cmd.Flags().Int("days", 0, "days between charges for the custom frequency")
	cmd.Flags().Float64("rate", 0, "annual return rate, e.g. 0.07 (default from config)")
	cmd.Flags().Float64("inflation", 0, "annual inflation rate, e.g. 0.025 (default from config)")
	cmd.Flags().String("compounding", "", "monthly or annual (default from config)")
	return cmd
}

// projectionOptions collects only the assumptions the user set explicitly.
func projectionOptions(cmd *cobra.Command) (projection.Options, error) {
	var opts projection.Options
	if cmd.Flags().Changed("rate") {
		v, _ := cmd.Flags().GetFloat64("rate")
		opts.AnnualReturnRate = &v
	}
	if cmd.Flags().Changed("inflation") {
		v, _ := cmd.Flags().GetFloat64("inflation")
		opts.InflationRate = &v
	}
	if cmd.Flags().Changed("compounding") {
		v, _ := cmd.Flags().GetString("compounding")
		c := projection.Compounding(v)
		if c != projection.CompoundingMonthly && c != projection.CompoundingAnnual {
			return opts, fmt.Errorf("invalid compounding %q: must be monthly or annual", v)
		}
		opts.Compounding = &c
	}
	return opts, nil
}

func printComparison(cmd *cobra.Command, cmp *projection.Comparison) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %.2f per month at %.1f%% return, %.1f%% inflation (%s)\n\n",
		cmp.Name, cmp.MonthlyCost, cmp.Config.AnnualReturnRate*100, cmp.Config.InflationRate*100, cmp.Config.Compounding)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "YEARS\tTOTAL COST\tIF INVESTED\tSAVINGS")
	for _, p := range cmp.Projections {
		_, _ = fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2f\n", p.Years, p.TotalCost, p.InvestmentValue, p.Savings)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if math.IsInf(cmp.BreakEvenYears, 0) {
		fmt.Fprintln(out, "\nBreak-even: never within 50 years")
	} else {
		fmt.Fprintf(out, "\nBreak-even: %.1f years\n", cmp.BreakEvenYears)
	}
	fmt.Fprintf(out, "Recommendation: %s (%s)\n", cmp.Recommendation, cmp.Reason)
	return nil
}
