package importexport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mkoval/deckwise/pkg/db"
	"gorm.io/gorm"
)

type cardInput struct {
	Front       string
	Back        string
	GrammarNote string
	AudioURL    string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const maxDelimiterSampleRecords = 20

// ParseCardsCSV reads deck content from CSV. The delimiter is detected from
// the data, a UTF-8 BOM is tolerated, and a recognized header row is
// skipped. Rows missing front or back are counted as skipped, not errors.
func ParseCardsCSV(data []byte) ([]cardInput, int, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	delimiter := detectCSVDelimiter(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	var cards []cardInput
	skipped := 0
	checkedHeader := false

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		if isEmptyCSVRecord(record) {
			skipped++
			continue
		}
		if !checkedHeader {
			checkedHeader = true
			if isHeaderRecord(record) {
				continue
			}
		}
		if len(record) < 2 {
			skipped++
			continue
		}
		front := strings.TrimSpace(record[0])
		back := strings.TrimSpace(record[1])
		if front == "" || back == "" {
			skipped++
			continue
		}
		card := cardInput{Front: front, Back: back}
		if len(record) > 2 {
			card.GrammarNote = strings.TrimSpace(record[2])
		}
		if len(record) > 3 {
			card.AudioURL = strings.TrimSpace(record[3])
		}
		cards = append(cards, card)
	}

	return cards, skipped, nil
}

func detectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', '\t', ';'}
	bestDelimiter := candidates[0]
	bestScore := -1

	for _, delimiter := range candidates {
		score, err := scoreDelimiter(data, delimiter, maxDelimiterSampleRecords)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestDelimiter = delimiter
		}
	}

	if bestScore <= 0 {
		return ','
	}
	return bestDelimiter
}

func scoreDelimiter(data []byte, delimiter rune, maxRecords int) (int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	counts := make(map[int]int)
	recordsSeen := 0

	for recordsSeen < maxRecords {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if isEmptyCSVRecord(record) {
			continue
		}
		recordsSeen++

		if len(record) < 2 {
			continue
		}
		counts[len(record)]++
	}

	best := 0
	for _, score := range counts {
		if score > best {
			best = score
		}
	}
	return best, nil
}

func isEmptyCSVRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func isHeaderRecord(record []string) bool {
	if len(record) < 2 {
		return false
	}
	left := strings.ToLower(strings.TrimSpace(record[0]))
	right := strings.ToLower(strings.TrimSpace(record[1]))
	headers := map[string]struct{}{
		"front":    {},
		"back":     {},
		"word":     {},
		"meaning":  {},
		"question": {},
		"answer":   {},
	}
	_, leftOK := headers[left]
	_, rightOK := headers[right]
	return leftOK && rightOK
}

// UpsertCards writes parsed cards into a deck. A card with the same front
// already in the deck is updated in place; anything else is inserted.
func UpsertCards(deckID uint, cards []cardInput) (int, int, error) {
	inserted := 0
	updated := 0

	if len(cards) == 0 {
		return inserted, updated, nil
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		for _, card := range cards {
			result := tx.Model(&db.Card{}).
				Where("deck_id = ? AND front = ?", deckID, card.Front).
				Updates(map[string]interface{}{
					"back":         card.Back,
					"grammar_note": card.GrammarNote,
					"audio_url":    card.AudioURL,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				updated++
				continue
			}

			newCard := db.Card{
				DeckID:      deckID,
				Front:       card.Front,
				Back:        card.Back,
				GrammarNote: card.GrammarNote,
				AudioURL:    card.AudioURL,
				Active:      true,
			}
			if err := tx.Create(&newCard).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return inserted, updated, nil
}

func BuildExportCSV(cards []db.Card) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.Write(utf8BOM); err != nil {
		return nil, err
	}

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true

	for _, card := range cards {
		if err := writer.Write([]string{card.Front, card.Back, card.GrammarNote, card.AudioURL}); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ExportFilename(deckID uint, now time.Time) string {
	return fmt.Sprintf("deck-%d-%s.csv", deckID, now.Format("20060102"))
}

func SortCardsForExport(cards []db.Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Front == cards[j].Front {
			return cards[i].ID < cards[j].ID
		}
		return cards[i].Front < cards[j].Front
	})
}
