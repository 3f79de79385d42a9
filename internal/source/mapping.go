package source

// mapping.go loads the theater -> platform mapping table from its
// two-column CSV layout (header row present, one pair per row).

import (
	"fmt"
	"os"
	"strings"

	"github.com/ticketfusion/sheetsync/internal/core"
	"github.com/ticketfusion/sheetsync/internal/schema"
)

// ParseMapping decodes mapping pairs from CSV bytes. The header row
// is expected first; theater and platform columns are located by
// their accepted labels. Rows with either cell blank are skipped.
func ParseMapping(data []byte) ([]core.MappingEntry, error) {
	rows, err := ReadSheet(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("mapping sheet is empty")
	}

	theaterCol := findColumn(rows[0], schema.MappingTheaterLabels)
	platformCol := findColumn(rows[0], schema.MappingPlatformLabels)
	if theaterCol < 0 || platformCol < 0 {
		return nil, fmt.Errorf("mapping sheet header must contain theater and platform columns, got %v", headerLabels(rows[0]))
	}

	var entries []core.MappingEntry
	for _, row := range rows[1:] {
		theater := cellAt(row, theaterCol)
		platform := cellAt(row, platformCol)
		if theater == "" || platform == "" {
			continue
		}
		entries = append(entries, core.MappingEntry{Theater: theater, Platform: platform})
	}

	return entries, nil
}

// LoadMappingFile reads the mapping table from a CSV file on disk.
func LoadMappingFile(path string) (*core.TheaterMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	entries, err := ParseMapping(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return core.NewTheaterMapping(entries), nil
}

func findColumn(header core.Row, labels []string) int {
	for i, cell := range header {
		got := strings.ToLower(core.CellString(cell))
		for _, label := range labels {
			if got == strings.ToLower(label) {
				return i
			}
		}
	}
	return -1
}

func headerLabels(header core.Row) []string {
	labels := make([]string, len(header))
	for i, cell := range header {
		labels[i] = core.CellString(cell)
	}
	return labels
}

func cellAt(row core.Row, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return core.CellString(row[col])
}
