package sheetio

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func writeCSV(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write csv: %v", err)
	}
	return path
}

func TestOpenCSV(t *testing.T) {
	path := writeCSV(t, "sales.csv", []byte("id,amount,note\n1,10.5,first\n2,,second\n"))
	sheet, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV failed: %v", err)
	}

	if sheet.Name() != "sales" {
		t.Errorf("Name = %q, expected sales", sheet.Name())
	}

	dims, err := sheet.Dimensions()
	if err != nil {
		t.Fatalf("Dimensions failed: %v", err)
	}
	if dims.MaxRow != 3 || dims.MaxCol != 3 {
		t.Errorf("Dimensions = %+v, expected 3x3", dims)
	}

	regions, err := sheet.MergedRegions()
	if err != nil {
		t.Fatalf("MergedRegions failed: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("CSV sheet reported %d merged regions", len(regions))
	}

	if v, _ := sheet.CellValue(2, 1); v != int64(1) {
		t.Errorf("A2 = %v (%T), expected int64(1)", v, v)
	}
	if v, _ := sheet.CellValue(2, 2); v != 10.5 {
		t.Errorf("B2 = %v, expected 10.5", v)
	}
	if v, _ := sheet.CellValue(3, 2); v != nil {
		t.Errorf("empty field = %v, expected nil", v)
	}

	values, err := sheet.RowValues(3)
	if err != nil {
		t.Fatalf("RowValues failed: %v", err)
	}
	if len(values) != 2 {
		t.Errorf("RowValues(3) = %v, expected 2 populated cells", values)
	}
}

func TestOpenCSVWithComma(t *testing.T) {
	path := writeCSV(t, "semi.csv", []byte("a;b\n1;2\n"))
	sheet, err := OpenCSV(path, WithComma(';'))
	if err != nil {
		t.Fatalf("OpenCSV failed: %v", err)
	}
	if v, _ := sheet.CellValue(2, 2); v != int64(2) {
		t.Errorf("B2 = %v, expected int64(2)", v)
	}
}

func TestOpenCSVWithEncoding(t *testing.T) {
	// "Müller" in ISO 8859-1: 0xFC is ü.
	raw := []byte{'n', 'a', 'm', 'e', '\n', 'M', 0xFC, 'l', 'l', 'e', 'r', '\n'}
	path := writeCSV(t, "latin1.csv", raw)

	sheet, err := OpenCSV(path, WithEncoding(charmap.ISO8859_1))
	if err != nil {
		t.Fatalf("OpenCSV failed: %v", err)
	}
	if v, _ := sheet.CellValue(2, 1); v != "Müller" {
		t.Errorf("A2 = %q, expected Müller", v)
	}
}

func TestOpenCSVMissingFile(t *testing.T) {
	if _, err := OpenCSV(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestOpenCSVRaggedRows(t *testing.T) {
	path := writeCSV(t, "ragged.csv", []byte("a,b,c\n1\n2,3\n"))
	sheet, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV failed: %v", err)
	}
	dims, err := sheet.Dimensions()
	if err != nil {
		t.Fatalf("Dimensions failed: %v", err)
	}
	if dims.MaxRow != 3 || dims.MaxCol != 3 {
		t.Errorf("Dimensions = %+v, expected 3x3", dims)
	}
	// Short rows read as empty past their end.
	if v, err := sheet.CellValue(2, 3); err != nil || v != nil {
		t.Errorf("CellValue(2,3) = %v, %v", v, err)
	}
}
