// Package export renders report read models as CSV.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/billing/internal/reports"
)

// WriteDuesCSV writes one row per customer followed by a totals row.
func WriteDuesCSV(w io.Writer, report reports.DuesReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Customer ID", "Customer", "Invoiced", "Paid", "Balance"}); err != nil {
		return err
	}
	for _, row := range report.Customers {
		if err := writer.Write([]string{
			strconv.FormatInt(row.CustomerID, 10),
			row.CustomerName,
			formatCents(row.InvoicedCents),
			formatCents(row.PaidCents),
			formatCents(row.BalanceCents),
		}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{
		"",
		"Total (" + strconv.Itoa(report.Summary.CustomersCount) + ")",
		formatCents(report.Summary.TotalInvoicedCents),
		formatCents(report.Summary.TotalPaidCents),
		formatCents(report.Summary.TotalBalanceCents),
	}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteSalesCSV emits the period buckets and a totals row.
func WriteSalesCSV(w io.Writer, report reports.SalesReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Period", "Invoices", "Total"}); err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := writer.Write([]string{row.Period, strconv.Itoa(row.InvoicesCount), formatCents(row.TotalCents)}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{
		"Total",
		strconv.Itoa(report.Summary.TotalInvoicesCount),
		formatCents(report.Summary.TotalCents),
	}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteLedgerCSV emits ledger entries in their display order.
func WriteLedgerCSV(w io.Writer, ledger reports.PaymentsLedger) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Payment ID", "Paid At", "Customer", "Invoice", "Method", "Amount", "Running Balance", "Note"}); err != nil {
		return err
	}
	for _, e := range ledger.Entries {
		if err := writer.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.PaidAt.UTC().Format(time.RFC3339),
			e.CustomerName,
			e.InvoiceNo.String,
			e.Method,
			formatCents(e.AmountCents),
			formatCents(e.RunningBalanceCents),
			e.Note.String,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
