package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/models"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <categoryId>",
		Short: "Suggest budget amounts for a category from its spending history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, _ := cmd.Flags().GetString("period")

			svc, _, cleanup, err := openServices()
			if err != nil {
				return err
			}
			defer cleanup()

			s, err := svc.Budgets.GetBudgetSuggestions(cmd.Context(), args[0], models.BudgetPeriod(period))
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), s)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Average monthly spending: %.2f (subscriptions %.2f, volatility %.2f, confidence %.0f%%)\n\n",
				s.AverageMonthly, s.SubscriptionMonthly, s.Volatility, s.Confidence*100)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "TIER\tAMOUNT\tCONFIDENCE\tREASONING")
			for _, row := range []struct {
				name   string
				amount float64
				conf   float64
				reason string
			}{
				{"conservative", s.Tiers.Conservative.Amount, s.Tiers.Conservative.Confidence, s.Tiers.Conservative.Reasoning},
				{"moderate", s.Tiers.Moderate.Amount, s.Tiers.Moderate.Confidence, s.Tiers.Moderate.Reasoning},
				{"aggressive", s.Tiers.Aggressive.Amount, s.Tiers.Aggressive.Confidence, s.Tiers.Aggressive.Reasoning},
			} {
				_, _ = fmt.Fprintf(w, "%s\t%.2f\t%.0f%%\t%s\n", row.name, row.amount, row.conf*100, row.reason)
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("period", string(models.BudgetPeriodMonthly), "budget period (monthly or yearly)")
	return cmd
}
