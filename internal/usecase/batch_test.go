package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pucklab/roster-optimizer/internal/domain/credential"
)

func TestSplitPlayerKeys(t *testing.T) {
	t.Parallel()

	keys := func(n int) []string {
		out := make([]string, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, fmt.Sprintf("453.p.%d", i+1))
		}
		return out
	}

	cases := []struct {
		name      string
		total     int
		size      int
		wantCount int
	}{
		{name: "empty", total: 0, size: 20, wantCount: 0},
		{name: "single partial", total: 7, size: 20, wantCount: 1},
		{name: "exact boundary", total: 40, size: 20, wantCount: 2},
		{name: "one over boundary", total: 41, size: 20, wantCount: 3},
		{name: "bad size falls back", total: 21, size: 0, wantCount: 2},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			input := keys(tc.total)
			groups := splitPlayerKeys(input, tc.size)
			if len(groups) != tc.wantCount {
				t.Fatalf("got %d groups, want %d", len(groups), tc.wantCount)
			}

			flat := make([]string, 0, tc.total)
			for _, group := range groups {
				flat = append(flat, group...)
			}
			if len(flat) != tc.total {
				t.Fatalf("regrouped %d keys, want %d", len(flat), tc.total)
			}
			for i := range flat {
				if flat[i] != input[i] {
					t.Fatalf("order broken at %d: %s != %s", i, flat[i], input[i])
				}
			}
		})
	}
}

func TestFetchStatsBatches_SubmissionOrderJoin(t *testing.T) {
	t.Parallel()

	players := make([]fakeRosterPlayer, 0, 5)
	keys := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("453.p.%d", i+1)
		players = append(players, fakeRosterPlayer{key: key, name: key, position: "C", eligible: []string{"C"}})
		keys = append(keys, key)
	}

	fantasy := &fakeFantasy{}
	svc, err := NewRosterService(RosterServiceConfig{
		Fantasy:     fantasy,
		Parser:      &fakeParser{players: players},
		Schedule:    &fakeSchedule{},
		Credentials: &fakeCredentials{},
		BatchSize:   2,
		WorkerCount: 3,
	})
	if err != nil {
		t.Fatalf("NewRosterService: %v", err)
	}

	batches, err := svc.fetchStatsBatches(context.Background(), keys, credential.Credential{AccessToken: "a"})
	if err != nil {
		t.Fatalf("fetchStatsBatches: %v", err)
	}

	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	wantGroups := [][]string{{"453.p.1", "453.p.2"}, {"453.p.3", "453.p.4"}, {"453.p.5"}}
	for i, want := range wantGroups {
		if len(batches[i]) != len(want) {
			t.Fatalf("batch %d holds %d players, want %d", i, len(batches[i]), len(want))
		}
		for _, key := range want {
			if _, ok := batches[i][key]; !ok {
				t.Fatalf("batch %d missing %s: %v", i, key, batches[i])
			}
		}
	}
}

func TestFetchStatsBatches_FailurePropagatesWithoutCancellingSiblings(t *testing.T) {
	t.Parallel()

	players := make([]fakeRosterPlayer, 0, 5)
	keys := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("453.p.%d", i+1)
		players = append(players, fakeRosterPlayer{key: key, name: key, position: "C", eligible: []string{"C"}})
		keys = append(keys, key)
	}

	// second batch (keys 3 and 4) fails
	fantasy := &fakeFantasy{failOn: map[string]error{"453.p.3,453.p.4": errors.New("rate limited")}}
	svc, err := NewRosterService(RosterServiceConfig{
		Fantasy:     fantasy,
		Parser:      &fakeParser{players: players},
		Schedule:    &fakeSchedule{},
		Credentials: &fakeCredentials{},
		BatchSize:   2,
		WorkerCount: 3,
	})
	if err != nil {
		t.Fatalf("NewRosterService: %v", err)
	}

	_, err = svc.fetchStatsBatches(context.Background(), keys, credential.Credential{AccessToken: "a"})
	if !errors.Is(err, ErrUpstreamFetch) {
		t.Fatalf("expected ErrUpstreamFetch, got %v", err)
	}
	if !strings.Contains(err.Error(), "batch 2 of 3") {
		t.Fatalf("error should name the failing batch in submission order: %v", err)
	}

	// every batch was still issued
	if got := fantasy.callCount("player_keys="); got != 3 {
		t.Fatalf("issued %d batch queries, want 3", got)
	}
}

func TestFetchStatsBatches_NoKeys(t *testing.T) {
	t.Parallel()

	svc, err := NewRosterService(RosterServiceConfig{
		Fantasy:     &fakeFantasy{},
		Parser:      &fakeParser{},
		Schedule:    &fakeSchedule{},
		Credentials: &fakeCredentials{},
	})
	if err != nil {
		t.Fatalf("NewRosterService: %v", err)
	}

	batches, err := svc.fetchStatsBatches(context.Background(), nil, credential.Credential{})
	if err != nil {
		t.Fatalf("fetchStatsBatches: %v", err)
	}
	if batches != nil {
		t.Fatalf("expected no batches for empty roster, got %v", batches)
	}
}
