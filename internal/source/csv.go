// Package source adapts external tabular inputs (uploaded CSV files,
// the mapping sheet) into the in-memory row sequences the core
// operates on. All I/O stays at this boundary; the core never reads
// files or sockets.
package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/ticketfusion/sheetsync/internal/core"
)

// MaxFileSize is the maximum accepted CSV payload (100MB).
var MaxFileSize int64 = 100 * 1024 * 1024

// ReadSheet parses raw CSV bytes into heterogeneous rows for the
// pipeline. Cells arrive as strings; the core's coercion rules handle
// typing. Ragged rows are allowed, quoting is lazy, and invalid UTF-8
// is replaced rather than rejected.
func ReadSheet(data []byte) ([]core.Row, error) {
	if int64(len(data)) > MaxFileSize {
		return nil, fmt.Errorf("file exceeds %dMB limit", MaxFileSize/(1024*1024))
	}

	data = sanitizeUTF8(stripBOM(data))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	table, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	return core.StringRows(table), nil
}

// stripBOM removes a UTF-8 byte order mark, a common Excel export artifact.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

// ReadSheetFile reads and parses a CSV file from disk.
func ReadSheetFile(path string) ([]core.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ReadSheet(data)
}
