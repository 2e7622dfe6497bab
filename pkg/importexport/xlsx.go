package importexport

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseCardsXLSX reads deck content from the first sheet of a workbook.
// Columns map as A front, B back, C grammar note, D audio URL; a header
// row is recognized the same way as in CSV input.
func ParseCardsXLSX(data []byte) ([]cardInput, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, 0, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var cards []cardInput
	skipped := 0
	checkedHeader := false
	for _, row := range rows {
		if isEmptyRow(row) {
			skipped++
			continue
		}
		if !checkedHeader {
			checkedHeader = true
			if isHeaderRecord(row) {
				continue
			}
		}
		if len(row) < 2 {
			skipped++
			continue
		}
		front := strings.TrimSpace(row[0])
		back := strings.TrimSpace(row[1])
		if front == "" || back == "" {
			skipped++
			continue
		}
		card := cardInput{Front: front, Back: back}
		if len(row) > 2 {
			card.GrammarNote = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			card.AudioURL = strings.TrimSpace(row[3])
		}
		cards = append(cards, card)
	}

	return cards, skipped, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
