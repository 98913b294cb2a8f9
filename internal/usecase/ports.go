package usecase

import (
	"context"

	"github.com/pucklab/roster-optimizer/internal/domain/credential"
	"github.com/pucklab/roster-optimizer/internal/domain/roster"
)

// FantasyAPIClient issues one authenticated query against the fantasy
// platform and returns the raw response document.
type FantasyAPIClient interface {
	Query(ctx context.Context, path string, cred credential.Credential) ([]byte, error)
}

// DocumentParser turns raw fantasy platform documents into domain values.
// Implementations must be pure; malformed input yields an error.
type DocumentParser interface {
	ParseTeamRoster(doc []byte) ([]roster.Identity, error)
	ParsePlayerStats(doc []byte) (roster.BatchStats, error)
	ParseGameSettings(doc []byte) (roster.StatCategoryMap, error)
	ParseLeagueSettings(doc []byte) (roster.StatCategoryMap, roster.PositionCapacityMap, error)
}

// ScheduleProvider reports which teams play on a given date (YYYY-MM-DD).
type ScheduleProvider interface {
	FetchDailySchedule(ctx context.Context, date string) (roster.ScheduleMap, error)
}

// CredentialManager validates and refreshes the caller's provider tokens.
type CredentialManager interface {
	VerifyIDToken(ctx context.Context, idToken string) error
	RefreshIfNeeded(ctx context.Context, cred credential.Credential) (credential.Credential, error)
}
