package export

import (
	"fmt"
	"io"
	"time"

	"go-bookstore-ws/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Mutasi"

var headings = []string{"Tanggal", "No. Mutasi", "Kategori", "Arah", "Keterangan", "Masuk", "Keluar", "Saldo"}

// WriteMutasi renders ledger entries (oldest first) as an .xlsx workbook with a
// running balance, starting from opening.
func WriteMutasi(w io.Writer, entries []model.LedgerEntry, opening decimal.Decimal, period string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	// Judul dan saldo awal
	f.SetCellValue(sheetName, "A1", "Mutasi Kas "+period)
	f.SetCellValue(sheetName, "G2", "Saldo awal")
	f.SetCellValue(sheetName, "H2", money(opening))

	for i, h := range headings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(sheetName, cell, h)
	}

	balance := opening
	in, out := decimal.Zero, decimal.Zero
	row := 4
	for _, e := range entries {
		balance = balance.Add(e.Amount)
		var masuk, keluar any
		if e.Amount.IsNegative() {
			keluar = money(e.Amount.Neg())
			out = out.Add(e.Amount.Neg())
		} else {
			masuk = money(e.Amount)
			in = in.Add(e.Amount)
		}
		values := []any{e.Date.Format("2006-01-02"), e.Number, string(e.Category), string(e.Direction), e.Note, masuk, keluar, money(balance)}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, v)
		}
		row++
	}

	f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), "Total")
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), money(in))
	f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), money(out))
	f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), money(balance))

	if style, err := f.NewStyle(&excelize.Style{NumFmt: 4}); err == nil {
		f.SetCellStyle(sheetName, "F4", fmt.Sprintf("H%d", row), style)
		f.SetCellStyle(sheetName, "H2", "H2", style)
	}
	f.SetColWidth(sheetName, "E", "E", 40)

	return f.Write(w)
}

// Filename is e.g. "mutasi_2026-03-01_2026-03-31.xlsx".
func Filename(from, to time.Time) string {
	return fmt.Sprintf("mutasi_%s_%s.xlsx", from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
