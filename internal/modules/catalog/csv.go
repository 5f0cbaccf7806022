package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Up to five option/odds column pairs per row.
const maxOptions = 5

// LoadCSV builds a catalog from a preset CSV file.
//
// Expected header:
//
//	stage_id,stage_name,difficulty,bet_title,option1,odds1,...,option5,odds5
//
// Rows sharing a stage_id contribute multiple bet templates to one stage.
// Option columns left empty are skipped.
func LoadCSV(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open preset file: %w", err)
	}
	defer f.Close()

	return ParseCSV(f)
}

// ParseCSV reads preset rows from r
func ParseCSV(r io.Reader) (*Static, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse preset csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("preset csv has no data rows")
	}

	col := indexHeader(records[0])

	stages := make(map[int]*Stage)
	var order []int

	for _, row := range records[1:] {
		stageID, err := strconv.Atoi(field(row, col, "stage_id"))
		if err != nil {
			continue // skip malformed rows, matching the lenient loader behavior
		}
		boss := field(row, col, "stage_name")
		title := field(row, col, "bet_title")
		if boss == "" || title == "" {
			continue
		}

		stage, ok := stages[stageID]
		if !ok {
			stage = &Stage{
				ID:         stageID,
				Name:       stageName(stageID, boss),
				Boss:       boss,
				Difficulty: field(row, col, "difficulty"),
			}
			stages[stageID] = stage
			order = append(order, stageID)
		}

		var options []OptionTemplate
		for i := 1; i <= maxOptions; i++ {
			name := field(row, col, fmt.Sprintf("option%d", i))
			odds, err := strconv.ParseFloat(field(row, col, fmt.Sprintf("odds%d", i)), 64)
			if name == "" || err != nil {
				continue
			}
			options = append(options, OptionTemplate{Name: name, Odds: odds})
		}
		if len(options) > 0 {
			stage.Bets = append(stage.Bets, BetTemplate{Title: title, Options: options})
		}
	}

	built := make([]Stage, 0, len(order))
	for _, id := range order {
		if len(stages[id].Bets) > 0 {
			built = append(built, *stages[id])
		}
	}
	if len(built) == 0 {
		return nil, fmt.Errorf("preset csv produced no stages")
	}

	return NewStatic(built), nil
}

func indexHeader(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return col
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
