// Package export renders ledger reports into downloadable documents.
package export

import (
	"fmt"
	"io"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/utils"
	"github.com/SscSPs/org_funding_app/internal/utils/accounting"
	"github.com/xuri/excelize/v2"
)

const (
	// XLSXContentType is the MIME type of the rendered workbook.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	LedgerSheet  = "Ledger"
	SummarySheet = "Summary"

	dateLayout = "2006-01-02"
)

var ledgerHeaders = []string{"Date", "Kind", "Description", "Amount", "Signed Amount", "Linked Request", "Transaction ID"}

// XLSXRenderer writes a ledger report as an Excel workbook with a ledger sheet
// and a summary sheet.
type XLSXRenderer struct{}

var _ portssvc.ReportRenderer = XLSXRenderer{}

func NewXLSXRenderer() XLSXRenderer { return XLSXRenderer{} }

func (XLSXRenderer) ContentType() string { return XLSXContentType }

func (XLSXRenderer) Render(report domain.LedgerReport, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LedgerSheet); err != nil {
		return fmt.Errorf("failed to name ledger sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, LedgerSheet, 1, toAny(ledgerHeaders)); err != nil {
		return err
	}
	if err := f.SetRowStyle(LedgerSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	for i, txn := range report.Transactions {
		linked := ""
		if txn.IsLinked() {
			linked = *txn.LinkedRequestID
		}
		row := []any{
			txn.Date.Format(dateLayout),
			string(txn.Kind),
			txn.Description,
			utils.FormatAmount(txn.Amount),
			utils.FormatSignedAmount(accounting.SignedAmount(txn)),
			linked,
			txn.TransactionID,
		}
		if err := writeRow(f, LedgerSheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(LedgerSheet, "C", "C", 40); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	s := report.Summary
	summary := [][]any{
		{"From", report.Period.From.Format(dateLayout)},
		{"To (exclusive)", report.Period.To.Format(dateLayout)},
		{"Income", utils.FormatAmount(s.PeriodIncome)},
		{"Expense", utils.FormatAmount(s.PeriodExpense)},
		{"Net", utils.FormatSignedAmount(s.PeriodIncome.Sub(s.PeriodExpense))},
		{"Closing Balance", utils.FormatAmount(report.ClosingBalance)},
		{"Transactions", len(report.Transactions)},
		{"Generated At", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
	}
	for i, row := range summary {
		if err := writeRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
