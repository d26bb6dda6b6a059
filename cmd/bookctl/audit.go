package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var auditStockCmd = &cobra.Command{
	Use:   "audit-stock",
	Short: "List books whose stock differs from the sum of their stock logs",
	Example: `  bookctl audit-stock
  bookctl audit-stock --fail`,
	RunE: runAuditStock,
}

func init() {
	rootCmd.AddCommand(auditStockCmd)
	auditStockCmd.Flags().Bool("fail", false, "Exit with an error when drift is found")
}

func runAuditStock(cmd *cobra.Command, args []string) error {
	failOnDrift, _ := cmd.Flags().GetBool("fail")

	drift, err := deps.Services.Inventory.AuditStock()
	if err != nil {
		return err
	}
	if len(drift) == 0 {
		fmt.Println("Stock matches the stock logs for every book.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tTITLE\tSTOCK\tLOG TOTAL\tDIFF")
	for _, d := range drift {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%+d\n", d.Code, d.Title, d.Stock, d.LogTotal, d.Stock-d.LogTotal)
	}
	w.Flush()

	if failOnDrift {
		return fmt.Errorf("%d book(s) drifted", len(drift))
	}
	return nil
}
