// Package lineup builds optimized starting lineups from merged player
// records under per-position slot capacities.
package lineup

import "github.com/pucklab/roster-optimizer/internal/domain/roster"

// Criterion names the player attribute a lineup is ranked by.
type Criterion string

const (
	CriterionTotalFanPoints   Criterion = "totalFanPoints"
	CriterionAverageFanPoints Criterion = "averageFanPoints"
)

// BenchPosition is the pseudo-slot that absorbs overflow; it never counts
// as a starting position.
const BenchPosition = "BN"

func (c Criterion) Valid() bool {
	return c == CriterionTotalFanPoints || c == CriterionAverageFanPoints
}

// Score extracts the ranked attribute from a player record.
func (c Criterion) Score(p roster.PlayerRecord) float64 {
	if c == CriterionAverageFanPoints {
		return p.AverageFanPoints
	}
	return p.TotalFanPoints
}

// Assignment places one player into one slot.
type Assignment struct {
	Slot   string              `json:"slot"`
	Player roster.PlayerRecord `json:"player"`
}

// Lineup is the result of one optimization run: starters in assignment
// order, benched overflow, and the keys of players that fit nowhere.
type Lineup struct {
	Criterion Criterion             `json:"criterion"`
	Starters  []Assignment          `json:"starters"`
	Bench     []roster.PlayerRecord `json:"bench"`
	Excluded  []string              `json:"excluded,omitempty"`
}

// Entry is the compact per-player view used in API responses.
type Entry struct {
	PlayerKey string  `json:"playerKey"`
	Name      string  `json:"name"`
	Slot      string  `json:"slot"`
	Score     float64 `json:"score"`
}

// Entries flattens a lineup to its response form: starters first, then the
// bench under the BN slot.
func (l Lineup) Entries() []Entry {
	out := make([]Entry, 0, len(l.Starters)+len(l.Bench))
	for _, a := range l.Starters {
		out = append(out, Entry{
			PlayerKey: a.Player.PlayerKey,
			Name:      a.Player.Name,
			Slot:      a.Slot,
			Score:     l.Criterion.Score(a.Player),
		})
	}
	for _, p := range l.Bench {
		out = append(out, Entry{
			PlayerKey: p.PlayerKey,
			Name:      p.Name,
			Slot:      BenchPosition,
			Score:     l.Criterion.Score(p),
		})
	}
	return out
}
