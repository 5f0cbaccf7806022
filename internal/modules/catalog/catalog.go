// Package catalog provides the read-only preset catalog of stages and their
// wagerable propositions. The catalog is immutable once loaded; rounds
// snapshot everything they need from it at creation time.
package catalog

import (
	"fmt"
	"sort"
)

// OptionTemplate is one named outcome with its odds
type OptionTemplate struct {
	Name string  `json:"name"`
	Odds float64 `json:"odds"`
}

// BetTemplate is one wagerable proposition offered by a stage
type BetTemplate struct {
	Title   string           `json:"title"`
	Options []OptionTemplate `json:"options"`
}

// Stage is one entry of the preset catalog
type Stage struct {
	ID         int           `json:"id"`
	Name       string        `json:"name"`
	Boss       string        `json:"boss"`
	Difficulty string        `json:"difficulty"`
	Bets       []BetTemplate `json:"bets"`
}

// Catalog resolves stages by id
type Catalog interface {
	Stages() []Stage
	Stage(id int) (Stage, bool)
}

// Static is an immutable in-memory catalog
type Static struct {
	stages []Stage
	byID   map[int]Stage
}

// NewStatic builds a catalog from the given stages, sorted by id
func NewStatic(stages []Stage) *Static {
	sorted := make([]Stage, len(stages))
	copy(sorted, stages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[int]Stage, len(sorted))
	for _, s := range sorted {
		byID[s.ID] = s
	}
	return &Static{stages: sorted, byID: byID}
}

// Stages returns all stages in id order
func (c *Static) Stages() []Stage {
	return c.stages
}

// Stage returns the stage with the given id
func (c *Static) Stage(id int) (Stage, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Default returns the built-in fallback catalog used when no preset file is
// available.
func Default() *Static {
	winLoss := func(winOdds, lossOdds float64) []BetTemplate {
		return []BetTemplate{
			{Title: "Win/Loss", Options: []OptionTemplate{
				{Name: "Player wins", Odds: winOdds},
				{Name: "Player loses", Odds: lossOdds},
			}},
		}
	}

	return NewStatic([]Stage{
		{ID: 1, Name: stageName(1, "Cabbage Man"), Boss: "Cabbage Man", Difficulty: "Tutorial", Bets: winLoss(1.15, 5.0)},
		{ID: 2, Name: stageName(2, "Tyrant Rex"), Boss: "Tyrant Rex", Difficulty: "Mobility check", Bets: winLoss(1.35, 3.0)},
		{ID: 3, Name: stageName(3, "Hell Baron"), Boss: "Hell Baron", Difficulty: "DoT avoidance", Bets: winLoss(1.50, 2.5)},
	})
}

func stageName(id int, boss string) string {
	return fmt.Sprintf("Stage %d - %s", id, boss)
}
