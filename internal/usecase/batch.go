package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pucklab/roster-optimizer/internal/domain/credential"
	"github.com/pucklab/roster-optimizer/internal/domain/roster"
)

const (
	// The platform rejects stats queries above 25 player keys; stay under
	// it with room to spare.
	defaultStatsBatchSize = 20
	maxStatsBatchSize     = 25

	defaultBatchWorkers = 4
)

// splitPlayerKeys slices keys into contiguous groups of at most size,
// preserving order. len(result) == ceil(len(keys)/size).
func splitPlayerKeys(keys []string, size int) [][]string {
	if len(keys) == 0 {
		return nil
	}
	if size < 1 {
		size = defaultStatsBatchSize
	}

	groups := make([][]string, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		groups = append(groups, keys[start:end])
	}
	return groups
}

// fetchStatsBatches runs one stats query per key group on a bounded worker
// pool. Results land in submission-order slots; a failing batch does not
// cancel its siblings, and the first failure in submission order wins.
func (s *RosterService) fetchStatsBatches(ctx context.Context, keys []string, cred credential.Credential) ([]roster.BatchStats, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.fetchStatsBatches")
	defer span.End()

	groups := splitPlayerKeys(keys, s.batchSize)
	if len(groups) == 0 {
		return nil, nil
	}

	docs := make([][]byte, len(groups))
	errs := make([]error, len(groups))

	workers, err := ants.NewPool(s.workerCount)
	if err != nil {
		return nil, fmt.Errorf("create stats worker pool: %w", err)
	}
	defer workers.Release()

	var wg sync.WaitGroup
	for i, group := range groups {
		i, group := i, group
		wg.Add(1)
		submitErr := workers.Submit(func() {
			defer wg.Done()
			path := "players;player_keys=" + strings.Join(group, ",") + "/stats"
			docs[i], errs[i] = s.fantasy.Query(ctx, path, cred)
		})
		if submitErr != nil {
			errs[i] = submitErr
			wg.Done()
		}
	}
	wg.Wait()

	for i, batchErr := range errs {
		if batchErr != nil {
			return nil, fmt.Errorf("%w: stats batch %d of %d: %v", ErrUpstreamFetch, i+1, len(groups), batchErr)
		}
	}

	batches := make([]roster.BatchStats, len(groups))
	for i, doc := range docs {
		parsed, parseErr := s.parser.ParsePlayerStats(doc)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: stats batch %d of %d: %v", ErrParse, i+1, len(groups), parseErr)
		}
		batches[i] = parsed
	}
	return batches, nil
}
