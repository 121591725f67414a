package sheet_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/remaimber-it/quizgrader/internal/sheet"
)

func TestWorkbook_AppendThenRecords(t *testing.T) {
	ctx := context.Background()
	wb := sheet.NewWorkbook(filepath.Join(t.TempDir(), "rubric.xlsx"))

	rows := [][]any{
		{"최소비율", "점수", "설명"},
		{90, 5, "거의 일치"},
		{"", "", ""},
		{50, 3},
	}
	for _, row := range rows {
		if err := wb.AppendRow(ctx, row); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	records, err := wb.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(records), records)
	}
	if records[0]["최소비율"] != "90" || records[0]["점수"] != "5" || records[0]["설명"] != "거의 일치" {
		t.Errorf("unexpected first record %v", records[0])
	}
	if records[1]["설명"] != "" {
		t.Errorf("expected missing cell to read as empty, got %q", records[1]["설명"])
	}
}

func TestWorkbook_ReadsFirstWorksheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.xlsx")

	f := excelize.NewFile()
	name := f.GetSheetName(0)
	if err := f.SetSheetRow(name, "A1", &[]any{"문제", "모범답안"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow(name, "A2", &[]any{"What is Go?", "A programming language"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	records, err := sheet.NewWorkbook(path).Records(context.Background())
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0]["모범답안"] != "A programming language" {
		t.Errorf("unexpected records %v", records)
	}
}

func TestWorkbook_AppendKeepsExistingRows(t *testing.T) {
	ctx := context.Background()
	wb := sheet.NewWorkbook(filepath.Join(t.TempDir(), "results.xlsx"))

	for _, row := range [][]any{{"id", "name"}, {"s1", "Kim"}, {"s2", "Lee"}} {
		if err := wb.AppendRow(ctx, row); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	records, err := wb.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 2 || records[0]["id"] != "s1" || records[1]["name"] != "Lee" {
		t.Errorf("unexpected records %v", records)
	}
}

func TestWorkbook_MissingFile(t *testing.T) {
	wb := sheet.NewWorkbook(filepath.Join(t.TempDir(), "missing.xlsx"))

	if _, err := wb.Records(context.Background()); err == nil {
		t.Error("expected error reading a missing workbook")
	}
}
