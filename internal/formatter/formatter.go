// package formatter renders backend data for terminal output (tables, CSV, workbook summaries)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/comptaflow/compta/internal/models"
	"github.com/xuri/excelize/v2"
)

// HistoryTable renders the upload history as an aligned text table.
func HistoryTable(records []models.UploadRecord) string {
	if len(records) == 0 {
		return "No conversions yet.\n"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%-38s %-30s %-12s %12s  %s\n", "ID", "FILE", "BANK", "TRANSACTIONS", "DATE")
	for _, r := range records {
		fmt.Fprintf(&buf, "%-38s %-30s %-12s %12d  %s\n", r.ID, truncate(r.Filename, 30), r.BankCode, r.TransactionCount, r.CreatedAt)
	}
	return buf.String()
}

// ExportHistoryCSV converts the upload history to CSV with columns: ID, Filename, Bank, Transactions, CreatedAt
func ExportHistoryCSV(records []models.UploadRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Filename", "Bank", "Transactions", "CreatedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range records {
		record := []string{r.ID, r.Filename, r.BankCode, strconv.Itoa(r.TransactionCount), r.CreatedAt}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// RenderUsage formats quota consumption, treating a nil limit as unlimited.
func RenderUsage(usage *models.Usage) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Plan: %s\n", usage.Plan)
	if usage.Limit == nil {
		fmt.Fprintf(&buf, "Conversions this month (%02d/%d): %d (unlimited)\n", usage.Month, usage.Year, usage.UploadsCount)
		return buf.String()
	}

	fmt.Fprintf(&buf, "Conversions this month (%02d/%d): %d/%d\n", usage.Month, usage.Year, usage.UploadsCount, *usage.Limit)
	if remaining := *usage.Limit - usage.UploadsCount; remaining > 0 {
		fmt.Fprintf(&buf, "Remaining: %d\n", remaining)
	} else {
		fmt.Fprintf(&buf, "Limit reached. Upgrade for more conversions.\n")
	}
	return buf.String()
}

// RenderBanks formats the supported-banks map as a sorted checklist.
func RenderBanks(banks map[string]string) string {
	if len(banks) == 0 {
		return "No supported banks reported.\n"
	}

	codes := make([]string, 0, len(banks))
	for code := range banks {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var buf bytes.Buffer
	for _, code := range codes {
		fmt.Fprintf(&buf, "  [x] %s (%s)\n", banks[code], code)
	}
	return buf.String()
}

// WorkbookSummary describes a generated spreadsheet.
type WorkbookSummary struct {
	Sheets []SheetSummary
}

// SheetSummary is the per-sheet row count (excluding the header row).
type SheetSummary struct {
	Name string
	Rows int
}

// SummarizeWorkbook opens xlsx bytes and counts data rows per sheet, so the
// client can confirm what a conversion produced without leaving the terminal.
func SummarizeWorkbook(data []byte) (*WorkbookSummary, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	summary := &WorkbookSummary{}
	for _, name := range wb.GetSheetList() {
		rows, err := wb.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		count := len(rows)
		if count > 0 {
			count-- // header row
		}
		summary.Sheets = append(summary.Sheets, SheetSummary{Name: name, Rows: count})
	}

	return summary, nil
}

// RenderWorkbookSummary formats a [WorkbookSummary] for terminal output.
func RenderWorkbookSummary(summary *WorkbookSummary) string {
	var buf bytes.Buffer
	for _, sheet := range summary.Sheets {
		fmt.Fprintf(&buf, "  Sheet %q: %d rows\n", sheet.Name, sheet.Rows)
	}
	return buf.String()
}

// RenderDebugReport formats the server-side PDF diagnostic.
func RenderDebugReport(report *models.DebugReport) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "File: %s (%d bytes)\n", report.Filename, report.Filesize)
	fmt.Fprintf(&buf, "Scanned: %v\n", report.IsScanned)
	fmt.Fprintf(&buf, "Extraction method: %s\n", report.ExtractionMethod)
	fmt.Fprintf(&buf, "Bank detected: %s\n", valueOr(report.BankDetected, "none"))
	fmt.Fprintf(&buf, "Extracted text: %d characters, %d lines\n", report.TextLength, report.LinesCount)

	if len(report.BankKeywordsFound) > 0 {
		buf.WriteString("Bank keywords:\n")
		banks := make([]string, 0, len(report.BankKeywordsFound))
		for bank := range report.BankKeywordsFound {
			banks = append(banks, bank)
		}
		sort.Strings(banks)
		for _, bank := range banks {
			fmt.Fprintf(&buf, "  %s: %s\n", bank, strings.Join(report.BankKeywordsFound[bank], ", "))
		}
	}

	if len(report.FirstLines) > 0 {
		buf.WriteString("First lines:\n")
		for i, line := range report.FirstLines {
			fmt.Fprintf(&buf, "  %3d  %s\n", i+1, line)
		}
	}

	return buf.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
