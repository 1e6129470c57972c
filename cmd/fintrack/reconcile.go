package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Link new transactions to subscriptions and roll payment dates forward",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, cleanup, err := openServices()
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := svc.Subscriptions.Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), result)
			}

			out := cmd.OutOrStdout()
			for _, u := range result.Updates {
				fmt.Fprintf(out, "%s: next payment %s -> %s\n", u.SubscriptionName,
					u.PreviousPaymentDate.Format("2006-01-02"), u.NextPaymentDate.Format("2006-01-02"))
			}
			for _, e := range result.Errors {
				fmt.Fprintf(out, "error: %s\n", e)
			}
			fmt.Fprintf(out, "Processed %d subscriptions, updated %d, created %d patterns\n",
				result.Processed, result.Updated, result.PatternsCreated)
			return nil
		},
	}
}
