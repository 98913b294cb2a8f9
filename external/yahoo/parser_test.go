package yahoo

import "testing"

const rosterDoc = `{
  "fantasy_content": {
    "team": {
      "team_key": "453.l.1.t.2",
      "roster": {
        "date": "2026-01-15",
        "players": [
          {
            "player_key": "453.p.100",
            "name": {"full": "First Forward"},
            "editorial_team_full_name": "Boston Bruins",
            "selected_position": {"position": "C"},
            "eligible_positions": [{"position": "C"}, {"position": "F"}],
            "moved": 1
          },
          {
            "player_key": "453.p.200",
            "name": {"full": "Second Goalie"},
            "editorial_team_full_name": "Anaheim Ducks",
            "selected_position": {"position": "G"},
            "eligible_positions": [{"position": "G"}],
            "moved": 0
          }
        ]
      }
    }
  }
}`

func TestParser_ParseTeamRoster(t *testing.T) {
	t.Parallel()

	players, err := NewParser().ParseTeamRoster([]byte(rosterDoc))
	if err != nil {
		t.Fatalf("ParseTeamRoster: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("got %d players, want 2", len(players))
	}

	first := players[0]
	if first.PlayerKey != "453.p.100" || first.Name != "First Forward" {
		t.Fatalf("unexpected first player: %+v", first)
	}
	if first.Position != "C" || !first.Moved || first.Team != "Boston Bruins" {
		t.Fatalf("unexpected first player fields: %+v", first)
	}
	if len(first.EligiblePositions) != 2 || first.EligiblePositions[1] != "F" {
		t.Fatalf("unexpected eligible positions: %v", first.EligiblePositions)
	}
	if players[1].Moved {
		t.Fatalf("second player should not be flagged as moved")
	}
}

func TestParser_ParseTeamRoster_Malformed(t *testing.T) {
	t.Parallel()

	p := NewParser()
	if _, err := p.ParseTeamRoster([]byte(`{"fantasy_content":{}}`)); err == nil {
		t.Fatalf("expected error for document without team content")
	}
	if _, err := p.ParseTeamRoster([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for non-JSON document")
	}
	missingKey := `{"fantasy_content":{"team":{"roster":{"players":[{"name":{"full":"No Key"}}]}}}}`
	if _, err := p.ParseTeamRoster([]byte(missingKey)); err == nil {
		t.Fatalf("expected error for player without key")
	}
}

const statsDoc = `{
  "fantasy_content": {
    "players": [
      {
        "player_key": "453.p.100",
        "player_stats": {
          "stats": [
            {"stat": {"stat_id": "1", "value": "10"}},
            {"stat": {"stat_id": "2", "value": "5.5"}},
            {"stat": {"stat_id": "3", "value": "-"}}
          ]
        }
      }
    ]
  }
}`

func TestParser_ParsePlayerStats(t *testing.T) {
	t.Parallel()

	batch, err := NewParser().ParsePlayerStats([]byte(statsDoc))
	if err != nil {
		t.Fatalf("ParsePlayerStats: %v", err)
	}

	line, ok := batch["453.p.100"]
	if !ok {
		t.Fatalf("player missing from batch: %v", batch)
	}
	if len(line) != 2 {
		t.Fatalf("got %d stat values, want 2 (dash value dropped)", len(line))
	}
	if line[1] != 10 || line[2] != 5.5 {
		t.Fatalf("unexpected stat line: %v", line)
	}
}

func TestParser_ParsePlayerStats_BadValue(t *testing.T) {
	t.Parallel()

	doc := `{"fantasy_content":{"players":[{"player_key":"453.p.100","player_stats":{"stats":[{"stat":{"stat_id":"1","value":"ten"}}]}}]}}`
	if _, err := NewParser().ParsePlayerStats([]byte(doc)); err == nil {
		t.Fatalf("expected error for non-numeric stat value")
	}
}

const gameSettingsDoc = `{
  "fantasy_content": {
    "game": {
      "game_key": "453",
      "stat_categories": {
        "stats": [
          {"stat": {"stat_id": 1, "name": "Goals"}},
          {"stat": {"stat_id": 2, "name": "Assists"}}
        ]
      }
    }
  }
}`

func TestParser_ParseGameSettings(t *testing.T) {
	t.Parallel()

	categories, err := NewParser().ParseGameSettings([]byte(gameSettingsDoc))
	if err != nil {
		t.Fatalf("ParseGameSettings: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(categories))
	}
	if categories[1].Name != "Goals" || categories[1].FanPointRelevant {
		t.Fatalf("baseline category should carry name only: %+v", categories[1])
	}
}

const leagueSettingsDoc = `{
  "fantasy_content": {
    "league": {
      "league_key": "453.l.1",
      "settings": {
        "stat_categories": {
          "stats": [
            {"stat": {"stat_id": 1, "name": "Goals"}},
            {"stat": {"stat_id": 4, "name": "Power Play Goals"}}
          ]
        },
        "stat_modifiers": {
          "stats": [
            {"stat": {"stat_id": 1, "value": "3"}},
            {"stat": {"stat_id": 4, "value": "0.5"}}
          ]
        },
        "roster_positions": [
          {"roster_position": {"position": "C", "count": 2}},
          {"roster_position": {"position": "G", "count": 2}},
          {"roster_position": {"position": "BN", "count": 4}}
        ]
      }
    }
  }
}`

func TestParser_ParseLeagueSettings(t *testing.T) {
	t.Parallel()

	categories, capacities, err := NewParser().ParseLeagueSettings([]byte(leagueSettingsDoc))
	if err != nil {
		t.Fatalf("ParseLeagueSettings: %v", err)
	}

	if got := categories[1]; !got.FanPointRelevant || got.FanPointWeight != 3 {
		t.Fatalf("modifier not applied to category 1: %+v", got)
	}
	if got := categories[4]; got.FanPointWeight != 0.5 || got.Name != "Power Play Goals" {
		t.Fatalf("unexpected category 4: %+v", got)
	}

	if capacities["C"] != 2 || capacities["G"] != 2 || capacities["BN"] != 4 {
		t.Fatalf("unexpected capacities: %v", capacities)
	}
}

func TestParser_ParseLeagueSettings_BadModifier(t *testing.T) {
	t.Parallel()

	doc := `{"fantasy_content":{"league":{"settings":{"stat_modifiers":{"stats":[{"stat":{"stat_id":1,"value":"x"}}]}}}}}`
	if _, _, err := NewParser().ParseLeagueSettings([]byte(doc)); err == nil {
		t.Fatalf("expected error for non-numeric modifier value")
	}
}
