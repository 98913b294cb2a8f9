// Package roster defines the canonical player, settings, and schedule types
// produced by merging the upstream fantasy and league documents.
package roster

// Identity is one roster entry as reported by the fantasy platform,
// before any stats are attached.
type Identity struct {
	PlayerKey         string   `json:"playerKey"`
	Name              string   `json:"name"`
	Position          string   `json:"position"`
	EligiblePositions []string `json:"eligiblePositions"`
	Moved             bool     `json:"moved"`
	Team              string   `json:"team"`
}

// StatCategory describes one scoring category from the game or league
// settings document.
type StatCategory struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	FanPointWeight   float64 `json:"fanPointWeight"`
	FanPointRelevant bool    `json:"fanPointRelevant"`
}

// StatCategoryMap indexes categories by stat ID. Treated as immutable once
// the game and league documents have been merged.
type StatCategoryMap map[int]StatCategory

// PositionCapacityMap maps a lineup position to its slot count. The bench
// pseudo-position BN may be present; a missing BN means an unbounded bench.
type PositionCapacityMap map[string]int

// ScheduleMap reports, per team name, whether that team plays on the
// requested date.
type ScheduleMap map[string]bool

// StatLine holds one player's raw stat values keyed by stat ID.
type StatLine map[int]float64

// BatchStats is the parsed result of a single stats sub-request.
type BatchStats map[string]StatLine

// PlayerRecord is the merged view of one roster player: identity, stat
// values, derived fan-point aggregates, and schedule status.
type PlayerRecord struct {
	PlayerKey         string          `json:"playerKey"`
	Name              string          `json:"name"`
	Position          string          `json:"position"`
	EligiblePositions []string        `json:"eligiblePositions"`
	Moved             bool            `json:"moved"`
	Team              string          `json:"team"`
	Stats             map[int]float64 `json:"stats"`
	TotalFanPoints    float64         `json:"totalFanPoints"`
	AverageFanPoints  float64         `json:"averageFanPoints"`
	PlayingToday      bool            `json:"playingToday"`
}
