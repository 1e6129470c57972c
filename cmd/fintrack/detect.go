package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/logger"
	"fintrack/internal/services"
	"fintrack/internal/subscription"
)

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect recurring payments among unlinked expenses",
		Long: `Scan expenses that are not linked to a subscription for recurring payments.
With --confirm, candidates at or above --min-confidence become subscriptions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, cleanup, err := openServices()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			candidates, err := svc.Subscriptions.DetectSubscriptions(ctx)
			if err != nil {
				return err
			}

			confirm, _ := cmd.Flags().GetBool("confirm")
			if !confirm {
				if wantJSON(cmd) {
					return printJSON(cmd.OutOrStdout(), candidates)
				}
				return printCandidates(cmd, candidates)
			}

			minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
			category, _ := cmd.Flags().GetString("category")

			confirmed := 0
			for _, c := range candidates {
				if c.Confidence < minConfidence {
					continue
				}
				var overrides services.ConfirmOverrides
				if c.CategoryID == nil && category != "" {
					overrides.CategoryID = &category
				}
				sub, err := svc.Subscriptions.ConfirmSubscription(ctx, c, overrides)
				if err != nil {
					logger.Get().Warnw("failed to confirm candidate", "name", c.Name, "error", err)
					continue
				}
				confirmed++
				fmt.Fprintf(cmd.OutOrStdout(), "Confirmed %s (%.2f %s, next payment %s)\n",
					sub.Name, sub.Amount, sub.BillingFrequency, sub.NextPaymentDate.Format("2006-01-02"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d candidates confirmed\n", confirmed, len(candidates))
			return nil
		},
	}

	cmd.Flags().Bool("confirm", false, "turn confident candidates into subscriptions")
	cmd.Flags().Float64("min-confidence", 0.8, "lowest confidence confirmed with --confirm")
	cmd.Flags().String("category", "", "category ID for candidates without one")
	return cmd
}

func printCandidates(cmd *cobra.Command, candidates []subscription.Candidate) error {
	if len(candidates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recurring payments found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tAMOUNT\tFREQUENCY\tCONFIDENCE\tPAYMENTS\tREASON")
	for _, c := range candidates {
		_, _ = fmt.Fprintf(w, "%s\t%.2f %s\t%s\t%.0f%%\t%d\t%s\n",
			c.Name, c.Amount, c.Currency, c.BillingFrequency, c.Confidence*100, len(c.MatchingTransactions), c.Reason)
	}
	return w.Flush()
}
