package roster

import "fmt"

// MergeStatCategories composes the league amendment over the game baseline
// and returns a new map. Amendments may add or override categories; they
// never remove one, so every baseline entry survives.
func MergeStatCategories(base, amendment StatCategoryMap) StatCategoryMap {
	merged := make(StatCategoryMap, len(base)+len(amendment))
	for id, cat := range base {
		merged[id] = cat
	}
	for id, cat := range amendment {
		if cat.Name == "" {
			cat.Name = merged[id].Name
		}
		merged[id] = cat
	}
	return merged
}

// BuildPlayerRecords joins the roster identities with the batched stat
// documents and derives the fan-point aggregates. Batches are the parsed
// stats sub-requests in submission order.
//
// A player key appearing in more than one batch, or a stat value whose ID
// is missing from the category map, indicates a malformed upstream response
// and fails the whole merge. Roster players absent from every batch keep an
// empty stat line. Output order follows the roster document.
func BuildPlayerRecords(players []Identity, batches []BatchStats, categories StatCategoryMap, schedule ScheduleMap) ([]PlayerRecord, error) {
	stats := make(map[string]StatLine, len(players))
	for i, batch := range batches {
		for key, line := range batch {
			if _, dup := stats[key]; dup {
				return nil, fmt.Errorf("player %q returned by more than one stats batch (batch %d)", key, i)
			}
			stats[key] = line
		}
	}

	records := make([]PlayerRecord, 0, len(players))
	for _, p := range players {
		line := stats[p.PlayerKey]

		values := make(map[int]float64, len(line))
		var total float64
		relevant := 0
		for id, value := range line {
			cat, ok := categories[id]
			if !ok {
				return nil, fmt.Errorf("player %q has value for unknown stat id %d", p.PlayerKey, id)
			}
			values[id] = value
			if cat.FanPointRelevant {
				total += value * cat.FanPointWeight
				relevant++
			}
		}

		average := 0.0
		if relevant > 0 {
			average = total / float64(relevant)
		}

		records = append(records, PlayerRecord{
			PlayerKey:         p.PlayerKey,
			Name:              p.Name,
			Position:          p.Position,
			EligiblePositions: p.EligiblePositions,
			Moved:             p.Moved,
			Team:              p.Team,
			Stats:             values,
			TotalFanPoints:    total,
			AverageFanPoints:  average,
			PlayingToday:      schedule[p.Team],
		})
	}

	return records, nil
}
