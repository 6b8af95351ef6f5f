package formatter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/comptaflow/compta/internal/models"
	"github.com/xuri/excelize/v2"
)

func sampleRecords() []models.UploadRecord {
	return []models.UploadRecord{
		{ID: "u1", Filename: "janvier.pdf", BankCode: "bnp", TransactionCount: 12, CreatedAt: "2026-01-04T10:00:00"},
		{ID: "u2", Filename: "fevrier.pdf", BankCode: "ca", TransactionCount: 30, CreatedAt: "2026-02-02T09:30:00"},
	}
}

func TestHistoryTable(t *testing.T) {
	t.Run("Renders All Records", func(t *testing.T) {
		out := HistoryTable(sampleRecords())

		for _, want := range []string{"u1", "janvier.pdf", "bnp", "u2", "fevrier.pdf"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected table to contain %q:\n%s", want, out)
			}
		}
	})

	t.Run("Empty History", func(t *testing.T) {
		out := HistoryTable(nil)
		if !strings.Contains(out, "No conversions") {
			t.Errorf("unexpected output: %s", out)
		}
	})
}

func TestExportHistoryCSV(t *testing.T) {
	data, err := ExportHistoryCSV(sampleRecords())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" {
		t.Errorf("expected header row, got %v", rows[0])
	}
	if rows[1][3] != "12" {
		t.Errorf("expected transaction count '12', got %s", rows[1][3])
	}
}

func TestRenderUsage(t *testing.T) {
	t.Run("With Limit", func(t *testing.T) {
		limit := 5
		out := RenderUsage(&models.Usage{Plan: "free", UploadsCount: 3, Limit: &limit, Month: 8, Year: 2026})

		if !strings.Contains(out, "3/5") {
			t.Errorf("expected usage fraction, got: %s", out)
		}
		if !strings.Contains(out, "Remaining: 2") {
			t.Errorf("expected remaining count, got: %s", out)
		}
	})

	t.Run("Limit Reached", func(t *testing.T) {
		limit := 5
		out := RenderUsage(&models.Usage{Plan: "free", UploadsCount: 5, Limit: &limit, Month: 8, Year: 2026})

		if !strings.Contains(out, "Limit reached") {
			t.Errorf("expected limit notice, got: %s", out)
		}
	})

	t.Run("Unlimited Plan", func(t *testing.T) {
		out := RenderUsage(&models.Usage{Plan: "pro", UploadsCount: 120, Month: 8, Year: 2026})

		if !strings.Contains(out, "unlimited") {
			t.Errorf("expected unlimited marker, got: %s", out)
		}
	})
}

func TestRenderBanks(t *testing.T) {
	out := RenderBanks(map[string]string{"bnp": "BNP Paribas", "ca": "Crédit Agricole"})

	if !strings.Contains(out, "[x] BNP Paribas (bnp)") {
		t.Errorf("expected checklist entry, got: %s", out)
	}
	// Sorted by code
	if strings.Index(out, "bnp") > strings.Index(out, "ca)") {
		t.Errorf("expected entries sorted by code: %s", out)
	}
}

func TestSummarizeWorkbook(t *testing.T) {
	t.Run("Counts Data Rows", func(t *testing.T) {
		wb := excelize.NewFile()
		sheet := wb.GetSheetName(0)
		wb.SetCellValue(sheet, "A1", "Date")
		wb.SetCellValue(sheet, "B1", "Amount")
		wb.SetCellValue(sheet, "A2", "2026-01-02")
		wb.SetCellValue(sheet, "B2", "-42.50")
		wb.SetCellValue(sheet, "A3", "2026-01-03")
		wb.SetCellValue(sheet, "B3", "1200.00")

		var buf bytes.Buffer
		if err := wb.Write(&buf); err != nil {
			t.Fatalf("failed to write workbook: %v", err)
		}

		summary, err := SummarizeWorkbook(buf.Bytes())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(summary.Sheets) != 1 {
			t.Fatalf("expected 1 sheet, got %d", len(summary.Sheets))
		}
		if summary.Sheets[0].Rows != 2 {
			t.Errorf("expected 2 data rows, got %d", summary.Sheets[0].Rows)
		}
	})

	t.Run("Rejects Garbage", func(t *testing.T) {
		if _, err := SummarizeWorkbook([]byte("not a workbook")); err == nil {
			t.Error("expected error for invalid workbook bytes")
		}
	})
}

func TestRenderDebugReport(t *testing.T) {
	report := &models.DebugReport{
		Filename:          "statement.pdf",
		Filesize:          2048,
		IsScanned:         false,
		ExtractionMethod:  "text-layer",
		TextLength:        5400,
		LinesCount:        120,
		BankDetected:      "bnp",
		BankKeywordsFound: map[string][]string{"bnp": {"BNP PARIBAS", "RELEVE"}},
		FirstLines:        []string{"BNP PARIBAS", "RELEVE DE COMPTE"},
	}

	out := RenderDebugReport(report)
	for _, want := range []string{"statement.pdf", "Bank detected: bnp", "BNP PARIBAS, RELEVE", "RELEVE DE COMPTE"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}
