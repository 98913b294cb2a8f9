package lineup

import (
	"sort"

	"github.com/pucklab/roster-optimizer/internal/domain/roster"
)

// flexSets maps a flex position to the skater positions it accepts.
// Goalies never qualify through a flex set.
var flexSets = map[string][]string{
	"Util": {"C", "LW", "RW", "D"},
	"F":    {"C", "LW", "RW"},
}

// SlotView is the policy-facing state of one open slot.
type SlotView struct {
	Position  string
	Remaining int
	Flex      bool
}

// SlotPolicy chooses, for a candidate, one of the open eligible slots by
// index. Policies must be deterministic.
type SlotPolicy func(player roster.PlayerRecord, open []SlotView) int

// DefaultSlotPolicy fills the most constrained slot first: fewest remaining
// openings, specialist slots before flex at equal remaining, then position
// name ascending.
func DefaultSlotPolicy(_ roster.PlayerRecord, open []SlotView) int {
	best := 0
	for i := 1; i < len(open); i++ {
		a, b := open[i], open[best]
		switch {
		case a.Remaining != b.Remaining:
			if a.Remaining < b.Remaining {
				best = i
			}
		case a.Flex != b.Flex:
			if !a.Flex {
				best = i
			}
		case a.Position < b.Position:
			best = i
		}
	}
	return best
}

type slotState struct {
	position  string
	remaining int
	flex      bool
}

// Optimize greedily assigns players to slots in ranked order: criterion
// score descending, player key ascending on ties. Players with no open
// eligible slot go to the bench; once the bench is full they are excluded.
func Optimize(players []roster.PlayerRecord, criterion Criterion, capacities roster.PositionCapacityMap, policy SlotPolicy) Lineup {
	if policy == nil {
		policy = DefaultSlotPolicy
	}

	benchCapacity, benchBounded := capacities[BenchPosition]

	positions := make([]string, 0, len(capacities))
	for pos, count := range capacities {
		if pos == BenchPosition || count <= 0 {
			continue
		}
		positions = append(positions, pos)
	}
	sort.Strings(positions)

	slots := make([]slotState, 0, len(positions))
	for _, pos := range positions {
		_, flex := flexSets[pos]
		slots = append(slots, slotState{position: pos, remaining: capacities[pos], flex: flex})
	}

	ranked := make([]roster.PlayerRecord, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := criterion.Score(ranked[i]), criterion.Score(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i].PlayerKey < ranked[j].PlayerKey
	})

	result := Lineup{Criterion: criterion}
	for _, p := range ranked {
		open := make([]SlotView, 0, len(slots))
		openIdx := make([]int, 0, len(slots))
		for i, s := range slots {
			if s.remaining > 0 && eligible(p, s) {
				open = append(open, SlotView{Position: s.position, Remaining: s.remaining, Flex: s.flex})
				openIdx = append(openIdx, i)
			}
		}

		if len(open) == 0 {
			if !benchBounded || len(result.Bench) < benchCapacity {
				result.Bench = append(result.Bench, p)
			} else {
				result.Excluded = append(result.Excluded, p.PlayerKey)
			}
			continue
		}

		choice := policy(p, open)
		if choice < 0 || choice >= len(open) {
			choice = 0
		}
		target := openIdx[choice]
		slots[target].remaining--
		result.Starters = append(result.Starters, Assignment{Slot: slots[target].position, Player: p})
	}

	return result
}

func eligible(p roster.PlayerRecord, s slotState) bool {
	for _, pos := range p.EligiblePositions {
		if pos == s.position {
			return true
		}
	}
	if !s.flex {
		return false
	}
	for _, pos := range p.EligiblePositions {
		if pos == "G" {
			return false
		}
	}
	for _, accepted := range flexSets[s.position] {
		for _, pos := range p.EligiblePositions {
			if pos == accepted {
				return true
			}
		}
	}
	return false
}
