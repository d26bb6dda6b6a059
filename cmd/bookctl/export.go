package main

import (
	"fmt"
	"os"
	"time"

	"go-bookstore-ws/internal/export"

	"github.com/spf13/cobra"
)

var exportMutasiCmd = &cobra.Command{
	Use:   "export-mutasi",
	Short: "Write the cash ledger of a period to an .xlsx file",
	Example: `  # Bulan berjalan
  bookctl export-mutasi

  # Rentang tertentu
  bookctl export-mutasi --from 2026-03-01 --to 2026-03-31 --out maret.xlsx`,
	RunE: runExportMutasi,
}

func init() {
	rootCmd.AddCommand(exportMutasiCmd)
	exportMutasiCmd.Flags().String("from", "", "First day (YYYY-MM-DD, default: first day of this month)")
	exportMutasiCmd.Flags().String("to", "", "Last day, inclusive (YYYY-MM-DD, default: end of the from month)")
	exportMutasiCmd.Flags().String("out", "", "Output file (default: mutasi_<from>_<to>.xlsx)")
}

func runExportMutasi(cmd *cobra.Command, args []string) error {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	out, _ := cmd.Flags().GetString("out")

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	if fromStr != "" {
		t, err := time.ParseInLocation("2006-01-02", fromStr, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --from. Use YYYY-MM-DD: %w", err)
		}
		from = t
	}
	to := from.AddDate(0, 1, 0)
	if toStr != "" {
		t, err := time.ParseInLocation("2006-01-02", toStr, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --to. Use YYYY-MM-DD: %w", err)
		}
		to = t.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return fmt.Errorf("--to must not be before --from")
	}
	if out == "" {
		out = export.Filename(from, to.AddDate(0, 0, -1))
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := deps.Services.Ledger.Export(f, from, to); err != nil {
		f.Close()
		os.Remove(out)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
