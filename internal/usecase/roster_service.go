package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sourcegraph/conc/pool"

	"github.com/pucklab/roster-optimizer/internal/domain/credential"
	"github.com/pucklab/roster-optimizer/internal/domain/lineup"
	"github.com/pucklab/roster-optimizer/internal/domain/roster"
	"github.com/pucklab/roster-optimizer/internal/platform/logging"
)

// Lineup dates follow the league's wall clock.
var easternTime = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}()

type RosterInput struct {
	TeamKey    string `validate:"required"`
	Date       string `validate:"omitempty,datetime=2006-01-02"`
	Credential credential.Credential
}

// LineupEntry is the compact per-player row returned for original and
// optimized lineups.
type LineupEntry struct {
	Position string `json:"position"`
	Name     string `json:"name"`
	Moved    bool   `json:"moved"`
}

type RosterResult struct {
	PlayerInfoMap    map[string]roster.PlayerRecord `json:"playerInfoMap"`
	OriginalLineup   []LineupEntry                  `json:"originalLineup"`
	OptimizedLineups map[string][]LineupEntry       `json:"optimizedLineups"`
	StatIDMap        roster.StatCategoryMap         `json:"statIDMap"`

	// RefreshedCredential is set when the token refresh produced new
	// material the transport layer should hand back to the caller.
	RefreshedCredential *credential.Credential `json:"-"`
}

type RosterServiceConfig struct {
	Fantasy     FantasyAPIClient
	Parser      DocumentParser
	Schedule    ScheduleProvider
	Credentials CredentialManager
	Logger      *logging.Logger
	BatchSize   int
	WorkerCount int
	SlotPolicy  lineup.SlotPolicy
}

// RosterService runs the roster aggregation pipeline: fetch the four
// upstream documents, merge them into player records, and optimize one
// lineup per ranking criterion.
type RosterService struct {
	fantasy     FantasyAPIClient
	parser      DocumentParser
	schedule    ScheduleProvider
	credentials CredentialManager
	logger      *logging.Logger
	validate    *validator.Validate
	batchSize   int
	workerCount int
	policy      lineup.SlotPolicy
	nowFn       func() time.Time
}

func NewRosterService(cfg RosterServiceConfig) (*RosterService, error) {
	if cfg.Fantasy == nil || cfg.Parser == nil || cfg.Schedule == nil || cfg.Credentials == nil {
		return nil, fmt.Errorf("fantasy client, parser, schedule provider, and credential manager are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = defaultStatsBatchSize
	}
	if batchSize > maxStatsBatchSize {
		batchSize = maxStatsBatchSize
	}

	workerCount := cfg.WorkerCount
	if workerCount < 1 {
		workerCount = defaultBatchWorkers
	}

	return &RosterService{
		fantasy:     cfg.Fantasy,
		parser:      cfg.Parser,
		schedule:    cfg.Schedule,
		credentials: cfg.Credentials,
		logger:      logger,
		validate:    validator.New(),
		batchSize:   batchSize,
		workerCount: workerCount,
		policy:      cfg.SlotPolicy,
		nowFn:       time.Now,
	}, nil
}

var rankingCriteria = []lineup.Criterion{
	lineup.CriterionAverageFanPoints,
	lineup.CriterionTotalFanPoints,
}

// GetTeamRoster executes the full pipeline for one team and date. Any
// upstream, credential, or parse failure fails the whole request; there is
// no partial result.
func (s *RosterService) GetTeamRoster(ctx context.Context, input RosterInput) (RosterResult, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.GetTeamRoster")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return RosterResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	leagueKey, gameKey, err := deriveKeys(input.TeamKey)
	if err != nil {
		return RosterResult{}, err
	}

	date := input.Date
	if date == "" {
		date = s.nowFn().In(easternTime).Format("2006-01-02")
	}

	// The schedule needs no credential, so it races the token checks.
	var scheduleMap roster.ScheduleMap
	cred := input.Credential
	refreshed := false

	prep := pool.New().WithErrors()
	prep.Go(func() error {
		m, fetchErr := s.schedule.FetchDailySchedule(ctx, date)
		if fetchErr != nil {
			return fmt.Errorf("%w: daily schedule: %v", ErrUpstreamFetch, fetchErr)
		}
		scheduleMap = m
		return nil
	})
	prep.Go(func() error {
		if verifyErr := s.credentials.VerifyIDToken(ctx, input.Credential.IDToken); verifyErr != nil {
			return fmt.Errorf("%w: id token rejected: %v", ErrUnauthorized, verifyErr)
		}
		return nil
	})
	prep.Go(func() error {
		next, refreshErr := s.credentials.RefreshIfNeeded(ctx, input.Credential)
		if refreshErr != nil {
			return fmt.Errorf("%w: %v", ErrTokenRefresh, refreshErr)
		}
		refreshed = next.AccessToken != input.Credential.AccessToken
		cred = next
		return nil
	})
	if err := prep.Wait(); err != nil {
		return RosterResult{}, err
	}

	var (
		players    []roster.Identity
		batches    []roster.BatchStats
		gameCats   roster.StatCategoryMap
		leagueCats roster.StatCategoryMap
		capacities roster.PositionCapacityMap
	)

	// Sibling fetches run to completion even when one fails; on failure
	// every partial result is discarded.
	fetch := pool.New().WithErrors()
	fetch.Go(func() error {
		doc, fetchErr := s.fantasy.Query(ctx, fmt.Sprintf("team/%s/roster;date=%s", input.TeamKey, date), cred)
		if fetchErr != nil {
			return fmt.Errorf("%w: team roster: %v", ErrUpstreamFetch, fetchErr)
		}
		parsed, parseErr := s.parser.ParseTeamRoster(doc)
		if parseErr != nil {
			return fmt.Errorf("%w: team roster: %v", ErrParse, parseErr)
		}
		players = parsed

		keys := make([]string, 0, len(parsed))
		for _, p := range parsed {
			keys = append(keys, p.PlayerKey)
		}
		stats, statsErr := s.fetchStatsBatches(ctx, keys, cred)
		if statsErr != nil {
			return statsErr
		}
		batches = stats
		return nil
	})
	fetch.Go(func() error {
		doc, fetchErr := s.fantasy.Query(ctx, fmt.Sprintf("game/%s/stat_categories", gameKey), cred)
		if fetchErr != nil {
			return fmt.Errorf("%w: game settings: %v", ErrUpstreamFetch, fetchErr)
		}
		parsed, parseErr := s.parser.ParseGameSettings(doc)
		if parseErr != nil {
			return fmt.Errorf("%w: game settings: %v", ErrParse, parseErr)
		}
		gameCats = parsed
		return nil
	})
	fetch.Go(func() error {
		doc, fetchErr := s.fantasy.Query(ctx, fmt.Sprintf("league/%s/settings", leagueKey), cred)
		if fetchErr != nil {
			return fmt.Errorf("%w: league settings: %v", ErrUpstreamFetch, fetchErr)
		}
		cats, caps, parseErr := s.parser.ParseLeagueSettings(doc)
		if parseErr != nil {
			return fmt.Errorf("%w: league settings: %v", ErrParse, parseErr)
		}
		leagueCats = cats
		capacities = caps
		return nil
	})
	if err := fetch.Wait(); err != nil {
		return RosterResult{}, err
	}

	// League amendments apply strictly after the game baseline; the merged
	// map is immutable from here on.
	statIDMap := roster.MergeStatCategories(gameCats, leagueCats)

	records, err := roster.BuildPlayerRecords(players, batches, statIDMap, scheduleMap)
	if err != nil {
		return RosterResult{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	optimized := make([]lineup.Lineup, len(rankingCriteria))
	rank := pool.New()
	for i, criterion := range rankingCriteria {
		i, criterion := i, criterion
		rank.Go(func() {
			optimized[i] = lineup.Optimize(records, criterion, capacities, s.policy)
		})
	}
	rank.Wait()

	result := RosterResult{
		PlayerInfoMap:    make(map[string]roster.PlayerRecord, len(records)),
		OriginalLineup:   make([]LineupEntry, 0, len(records)),
		OptimizedLineups: make(map[string][]LineupEntry, len(rankingCriteria)),
		StatIDMap:        statIDMap,
	}
	for _, record := range records {
		result.PlayerInfoMap[record.PlayerKey] = record
		result.OriginalLineup = append(result.OriginalLineup, LineupEntry{
			Position: record.Position,
			Name:     record.Name,
			Moved:    record.Moved,
		})
	}
	for i, criterion := range rankingCriteria {
		result.OptimizedLineups[string(criterion)] = lineupEntries(optimized[i])
	}
	if refreshed {
		next := cred
		result.RefreshedCredential = &next
	}

	s.logger.InfoContext(ctx, "team roster assembled",
		"team_key", input.TeamKey,
		"date", date,
		"players", len(records),
		"stats_batches", len(batches),
	)
	return result, nil
}

func lineupEntries(l lineup.Lineup) []LineupEntry {
	out := make([]LineupEntry, 0, len(l.Starters)+len(l.Bench))
	for _, a := range l.Starters {
		out = append(out, LineupEntry{Position: a.Slot, Name: a.Player.Name, Moved: a.Player.Moved})
	}
	for _, p := range l.Bench {
		out = append(out, LineupEntry{Position: lineup.BenchPosition, Name: p.Name, Moved: p.Moved})
	}
	return out
}

// deriveKeys extracts the league key (first three dot segments) and game
// key (first segment) from a team key like 453.l.12345.t.2.
func deriveKeys(teamKey string) (leagueKey, gameKey string, err error) {
	segments := strings.Split(teamKey, ".")
	if len(segments) < 5 {
		return "", "", fmt.Errorf("%w: malformed team key %q", ErrInvalidInput, teamKey)
	}
	return strings.Join(segments[:3], "."), segments[0], nil
}
