package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var termsAccountID int64

var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "List the enrollment terms of an account",
	Long:  `terms lists an account's enrollment terms and their ids for use with extract --term.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.CloseIdleConnections()

		terms, err := client.ListTerms(cmd.Context(), termsAccountID)
		if err != nil {
			return err
		}
		if len(terms) == 0 {
			fmt.Println("no terms")
			return nil
		}

		fmt.Printf("%-10s %-30s %-12s %s\n", "id", "name", "start", "end")
		for _, t := range terms {
			fmt.Printf("%-10d %-30s %-12s %s\n", t.ID, t.Name,
				formatDate(t.StartAt), formatDate(t.EndAt))
		}
		return nil
	},
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func init() {
	rootCmd.AddCommand(termsCmd)
	termsCmd.Flags().Int64Var(&termsAccountID, "account", 1, "Canvas account id")
}
