package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ticketfusion/sheetsync/internal/core"
)

func TestReadSheet(t *testing.T) {
	data := []byte("Theater,Event,Sold Date,Price\nGrand Theatre,Hamilton,2024-01-01,150.00\n")

	rows, err := ReadSheet(data)
	if err != nil {
		t.Fatalf("ReadSheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if got := core.CellString(rows[1][0]); got != "Grand Theatre" {
		t.Errorf("cell = %q, want %q", got, "Grand Theatre")
	}
}

func TestReadSheet_StripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Theater,Event\nGrand Theatre,Hamilton\n")...)

	rows, err := ReadSheet(data)
	if err != nil {
		t.Fatalf("ReadSheet: %v", err)
	}
	if got := core.CellString(rows[0][0]); got != "Theater" {
		t.Errorf("header cell = %q, want %q (BOM not stripped)", got, "Theater")
	}
}

func TestReadSheet_RaggedRows(t *testing.T) {
	data := []byte("Theater,Event,Price\nGrand Theatre,Hamilton\nBuell Theatre,Wicked,99.00,extra\n")

	rows, err := ReadSheet(data)
	if err != nil {
		t.Fatalf("ReadSheet should accept ragged rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if len(rows[1]) != 2 || len(rows[2]) != 4 {
		t.Errorf("row widths = %d/%d, want 2/4", len(rows[1]), len(rows[2]))
	}
}

func TestReadSheet_InvalidUTF8Replaced(t *testing.T) {
	data := []byte("Theater,Event\nGrand\xff Theatre,Hamilton\n")

	rows, err := ReadSheet(data)
	if err != nil {
		t.Fatalf("ReadSheet: %v", err)
	}
	got := core.CellString(rows[1][0])
	if !strings.Contains(got, "�") {
		t.Errorf("cell = %q, want replacement rune for invalid byte", got)
	}
}

func TestReadSheet_SizeLimit(t *testing.T) {
	old := MaxFileSize
	MaxFileSize = 16
	defer func() { MaxFileSize = old }()

	if _, err := ReadSheet([]byte("Theater,Event,Sold Date,Price\n")); err == nil {
		t.Fatal("expected size limit error")
	}
}

func TestReadSheetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte("Theater,Event\nGrand Theatre,Hamilton\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadSheetFile(path)
	if err != nil {
		t.Fatalf("ReadSheetFile: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}

	if _, err := ReadSheetFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
