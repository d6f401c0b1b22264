package xlflatten

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kharuka/xlflatten-go/pkg/xlflatten/models"
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/sheetio"
)

// reportFixture writes a workbook with a banner, a header row and a
// vertically merged data column:
//
//	A1:D1  "Sales Report" (merged)
//	A2:D2  Region | Q1 | Q2 | Total
//	A3:A4  "North" (merged), numeric data in B-D
func reportFixture(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	f.SetCellValue(sheet, "A1", "Sales Report")
	for i, name := range []string{"Region", "Q1", "Q2", "Total"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, name)
	}
	f.SetCellValue(sheet, "A3", "North")
	f.SetCellValue(sheet, "B3", 10)
	f.SetCellValue(sheet, "C3", 20)
	f.SetCellValue(sheet, "D3", 30)
	f.SetCellValue(sheet, "B4", 5)
	f.SetCellValue(sheet, "C4", 5)
	f.SetCellValue(sheet, "D4", 10)
	if err := f.MergeCell(sheet, "A1", "D1"); err != nil {
		t.Fatalf("Failed to merge banner: %v", err)
	}
	if err := f.MergeCell(sheet, "A3", "A4"); err != nil {
		t.Fatalf("Failed to merge data cells: %v", err)
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save test file: %v", err)
	}
	return path
}

func TestProcess(t *testing.T) {
	path := reportFixture(t)
	result, err := Process(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.BookName != "report.xlsx" {
		t.Errorf("BookName = %q", result.BookName)
	}
	if len(result.Sheets) != 1 {
		t.Fatalf("Expected 1 sheet, got %d", len(result.Sheets))
	}
	sheet := result.Sheets[0]
	if sheet.Name != "Sheet1" {
		t.Errorf("sheet name = %q", sheet.Name)
	}

	// The banner is metadata, the dense row below it the header.
	if sheet.Metadata.RowCount != 1 {
		t.Errorf("metadata RowCount = %d, expected 1", sheet.Metadata.RowCount)
	}
	headers := sheet.Metadata.Section("headers")
	if headers == nil || len(headers.Items) != 1 {
		t.Fatalf("headers section = %+v", headers)
	}
	if headers.Items[0].Value != "Sales Report" {
		t.Errorf("banner value = %v", headers.Items[0].Value)
	}
	if headers.Items[0].SourceRange != "A1:D1" {
		t.Errorf("banner range = %q", headers.Items[0].SourceRange)
	}
	if sheet.DataStartRow != 2 {
		t.Errorf("DataStartRow = %d, expected 2", sheet.DataStartRow)
	}
	if name, _ := sheet.HeaderRow.Name(1); name != "Region" {
		t.Errorf("header name for column 1 = %q", name)
	}
	if len(sheet.MergedRegions) != 2 {
		t.Errorf("MergedRegions = %d, expected 2", len(sheet.MergedRegions))
	}

	expected := []string{"Region", "Q1", "Q2", "Total"}
	if !reflect.DeepEqual(sheet.Data.Columns, expected) {
		t.Errorf("Columns = %v, expected %v", sheet.Data.Columns, expected)
	}
	if len(sheet.Data.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(sheet.Data.Records))
	}

	region, ok := sheet.Data.Records[0].Item("Region")
	if !ok {
		t.Fatal("row 3 missing Region item")
	}
	if region.Value != "North" {
		t.Errorf("Region = %v", region.Value)
	}
	if region.MergeInfo == nil || region.MergeInfo.Type != models.MergeVertical {
		t.Errorf("merge info = %+v", region.MergeInfo)
	}
	if region.MergeInfo.Range != "A3:A4" {
		t.Errorf("merge range = %q", region.MergeInfo.Range)
	}
	if _, ok := sheet.Data.Records[1].Item("Region"); ok {
		t.Error("row 4 should not repeat the merged Region value")
	}
	if q1, _ := sheet.Data.Records[0].Item("Q1"); q1.Value != int64(10) {
		t.Errorf("Q1 = %v (%T), expected int64(10)", q1.Value, q1.Value)
	}
}

func TestProcessSheetFilter(t *testing.T) {
	path := reportFixture(t)

	result, err := Process(path, Options{Sheets: []string{"Sheet1"}})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(result.Sheets) != 1 {
		t.Errorf("Expected 1 sheet, got %d", len(result.Sheets))
	}
	if result.Sheet("Sheet1") == nil {
		t.Error("Sheet lookup by name failed")
	}

	if _, err := Process(path, Options{Sheets: []string{"Missing"}}); err == nil {
		t.Error("Expected an error when no sheet matches")
	}
}

func TestProcessInvalidOptions(t *testing.T) {
	if _, err := Process("ignored.xlsx", Options{ChunkSize: 50}); err == nil {
		t.Error("Expected a validation error")
	}
}

func TestProcessSheetCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.csv")
	data := "id,name\n1,alpha\n2,beta\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write csv: %v", err)
	}
	sheet, err := sheetio.OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV failed: %v", err)
	}

	result, err := ProcessSheet(sheet, DefaultOptions())
	if err != nil {
		t.Fatalf("ProcessSheet failed: %v", err)
	}
	if result.Name != "plain" {
		t.Errorf("Name = %q", result.Name)
	}
	if result.DataStartRow != 1 {
		t.Errorf("DataStartRow = %d, expected 1", result.DataStartRow)
	}
	if len(result.Data.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result.Data.Records))
	}
	if name, _ := result.Data.Records[1].Item("name"); name.Value != "beta" {
		t.Errorf("name = %v", name.Value)
	}
}

func TestStreamSheet(t *testing.T) {
	path := reportFixture(t)
	wb, err := sheetio.OpenWorkbook(path)
	if err != nil {
		t.Fatalf("OpenWorkbook failed: %v", err)
	}
	defer wb.Close()
	sheet, err := wb.Sheet("Sheet1")
	if err != nil {
		t.Fatalf("Sheet failed: %v", err)
	}

	opts := DefaultOptions()
	opts.Sampler = sheetio.FixedSampler(0.5)
	meta, dataStartRow, seq, err := StreamSheet(sheet, opts)
	if err != nil {
		t.Fatalf("StreamSheet failed: %v", err)
	}
	if meta.RowCount != 1 || dataStartRow != 2 {
		t.Errorf("meta rows = %d, data start = %d", meta.RowCount, dataStartRow)
	}

	total := 0
	sawFinal := false
	for chunk := range seq {
		total += len(chunk.Data.Records)
		sawFinal = chunk.IsFinal
	}
	if total != 2 {
		t.Errorf("streamed %d records, expected 2", total)
	}
	if !sawFinal {
		t.Error("stream never marked a final chunk")
	}
}
