package yahoo

import (
	"fmt"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/pucklab/roster-optimizer/internal/domain/roster"
)

// Parser decodes the platform's JSON documents into domain values. All
// methods are pure and never touch the network.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

type rosterEnvelope struct {
	FantasyContent *struct {
		Team *struct {
			TeamKey string `json:"team_key"`
			Roster  struct {
				Date    string `json:"date"`
				Players []struct {
					PlayerKey string `json:"player_key"`
					Name      struct {
						Full string `json:"full"`
					} `json:"name"`
					EditorialTeamFullName string `json:"editorial_team_full_name"`
					SelectedPosition      struct {
						Position string `json:"position"`
					} `json:"selected_position"`
					EligiblePositions []struct {
						Position string `json:"position"`
					} `json:"eligible_positions"`
					Moved int `json:"moved"`
				} `json:"players"`
			} `json:"roster"`
		} `json:"team"`
	} `json:"fantasy_content"`
}

func (p *Parser) ParseTeamRoster(doc []byte) ([]roster.Identity, error) {
	var envelope rosterEnvelope
	if err := sonic.Unmarshal(doc, &envelope); err != nil {
		return nil, fmt.Errorf("decode roster document: %w", err)
	}
	if envelope.FantasyContent == nil || envelope.FantasyContent.Team == nil {
		return nil, fmt.Errorf("roster document missing team content")
	}

	items := envelope.FantasyContent.Team.Roster.Players
	out := make([]roster.Identity, 0, len(items))
	for i, item := range items {
		key := strings.TrimSpace(item.PlayerKey)
		if key == "" {
			return nil, fmt.Errorf("roster player %d missing player key", i)
		}
		eligible := make([]string, 0, len(item.EligiblePositions))
		for _, pos := range item.EligiblePositions {
			if v := strings.TrimSpace(pos.Position); v != "" {
				eligible = append(eligible, v)
			}
		}
		out = append(out, roster.Identity{
			PlayerKey:         key,
			Name:              strings.TrimSpace(item.Name.Full),
			Position:          strings.TrimSpace(item.SelectedPosition.Position),
			EligiblePositions: eligible,
			Moved:             item.Moved != 0,
			Team:              strings.TrimSpace(item.EditorialTeamFullName),
		})
	}
	return out, nil
}

type playerStatsEnvelope struct {
	FantasyContent *struct {
		Players []struct {
			PlayerKey   string `json:"player_key"`
			PlayerStats struct {
				Stats []struct {
					Stat struct {
						StatID string `json:"stat_id"`
						Value  string `json:"value"`
					} `json:"stat"`
				} `json:"stats"`
			} `json:"player_stats"`
		} `json:"players"`
	} `json:"fantasy_content"`
}

// ParsePlayerStats decodes one batch response. The platform reports both
// ids and values as strings and uses "-" for categories without a value;
// those are dropped from the stat line.
func (p *Parser) ParsePlayerStats(doc []byte) (roster.BatchStats, error) {
	var envelope playerStatsEnvelope
	if err := sonic.Unmarshal(doc, &envelope); err != nil {
		return nil, fmt.Errorf("decode player stats document: %w", err)
	}
	if envelope.FantasyContent == nil {
		return nil, fmt.Errorf("player stats document missing content")
	}

	out := make(roster.BatchStats, len(envelope.FantasyContent.Players))
	for _, item := range envelope.FantasyContent.Players {
		key := strings.TrimSpace(item.PlayerKey)
		if key == "" {
			return nil, fmt.Errorf("stats entry missing player key")
		}
		line := make(roster.StatLine, len(item.PlayerStats.Stats))
		for _, row := range item.PlayerStats.Stats {
			id, err := strconv.Atoi(strings.TrimSpace(row.Stat.StatID))
			if err != nil {
				return nil, fmt.Errorf("player %s: bad stat id %q", key, row.Stat.StatID)
			}
			raw := strings.TrimSpace(row.Stat.Value)
			if raw == "" || raw == "-" {
				continue
			}
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("player %s stat %d: bad value %q", key, id, raw)
			}
			line[id] = value
		}
		out[key] = line
	}
	return out, nil
}

type gameSettingsEnvelope struct {
	FantasyContent *struct {
		Game *struct {
			GameKey        string `json:"game_key"`
			StatCategories struct {
				Stats []struct {
					Stat struct {
						StatID int    `json:"stat_id"`
						Name   string `json:"name"`
					} `json:"stat"`
				} `json:"stats"`
			} `json:"stat_categories"`
		} `json:"game"`
	} `json:"fantasy_content"`
}

// ParseGameSettings yields the baseline category map: ids and names only,
// no fan-point weighting. The league settings amendment supplies weights.
func (p *Parser) ParseGameSettings(doc []byte) (roster.StatCategoryMap, error) {
	var envelope gameSettingsEnvelope
	if err := sonic.Unmarshal(doc, &envelope); err != nil {
		return nil, fmt.Errorf("decode game settings document: %w", err)
	}
	if envelope.FantasyContent == nil || envelope.FantasyContent.Game == nil {
		return nil, fmt.Errorf("game settings document missing game content")
	}

	items := envelope.FantasyContent.Game.StatCategories.Stats
	out := make(roster.StatCategoryMap, len(items))
	for _, item := range items {
		if item.Stat.StatID <= 0 {
			return nil, fmt.Errorf("game settings category has bad stat id %d", item.Stat.StatID)
		}
		out[item.Stat.StatID] = roster.StatCategory{
			ID:   item.Stat.StatID,
			Name: strings.TrimSpace(item.Stat.Name),
		}
	}
	return out, nil
}

type leagueSettingsEnvelope struct {
	FantasyContent *struct {
		League *struct {
			LeagueKey string `json:"league_key"`
			Settings  struct {
				StatCategories struct {
					Stats []struct {
						Stat struct {
							StatID int    `json:"stat_id"`
							Name   string `json:"name"`
						} `json:"stat"`
					} `json:"stats"`
				} `json:"stat_categories"`
				StatModifiers struct {
					Stats []struct {
						Stat struct {
							StatID int    `json:"stat_id"`
							Value  string `json:"value"`
						} `json:"stat"`
					} `json:"stats"`
				} `json:"stat_modifiers"`
				RosterPositions []struct {
					RosterPosition struct {
						Position string `json:"position"`
						Count    int    `json:"count"`
					} `json:"roster_position"`
				} `json:"roster_positions"`
			} `json:"settings"`
		} `json:"league"`
	} `json:"fantasy_content"`
}

// ParseLeagueSettings yields the league's category amendment and slot
// capacities. Categories carrying a stat modifier get its weight and are
// flagged fan-point relevant.
func (p *Parser) ParseLeagueSettings(doc []byte) (roster.StatCategoryMap, roster.PositionCapacityMap, error) {
	var envelope leagueSettingsEnvelope
	if err := sonic.Unmarshal(doc, &envelope); err != nil {
		return nil, nil, fmt.Errorf("decode league settings document: %w", err)
	}
	if envelope.FantasyContent == nil || envelope.FantasyContent.League == nil {
		return nil, nil, fmt.Errorf("league settings document missing league content")
	}
	settings := envelope.FantasyContent.League.Settings

	categories := make(roster.StatCategoryMap, len(settings.StatCategories.Stats))
	for _, item := range settings.StatCategories.Stats {
		if item.Stat.StatID <= 0 {
			return nil, nil, fmt.Errorf("league settings category has bad stat id %d", item.Stat.StatID)
		}
		categories[item.Stat.StatID] = roster.StatCategory{
			ID:   item.Stat.StatID,
			Name: strings.TrimSpace(item.Stat.Name),
		}
	}
	for _, item := range settings.StatModifiers.Stats {
		id := item.Stat.StatID
		if id <= 0 {
			return nil, nil, fmt.Errorf("league settings modifier has bad stat id %d", id)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(item.Stat.Value), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("league settings modifier %d: bad value %q", id, item.Stat.Value)
		}
		cat := categories[id]
		cat.ID = id
		cat.FanPointWeight = weight
		cat.FanPointRelevant = true
		categories[id] = cat
	}

	capacities := make(roster.PositionCapacityMap, len(settings.RosterPositions))
	for _, item := range settings.RosterPositions {
		pos := strings.TrimSpace(item.RosterPosition.Position)
		if pos == "" {
			continue
		}
		if item.RosterPosition.Count < 0 {
			return nil, nil, fmt.Errorf("league settings position %s has negative count", pos)
		}
		capacities[pos] = item.RosterPosition.Count
	}
	return categories, capacities, nil
}
