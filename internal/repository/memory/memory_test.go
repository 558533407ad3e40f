package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"PredictionLeague/internal/apperr"
	"PredictionLeague/internal/model"
	"PredictionLeague/internal/repository"
)

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Seasons().Create(ctx, &model.Season{Name: "S1", IsActive: true}); err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx repository.Store) error {
		active, err := tx.Seasons().GetActive(ctx, repository.LockUpdate)
		if err != nil {
			return err
		}
		active.IsActive = false
		if err := tx.Seasons().Save(ctx, active); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	active, err := s.Seasons().GetActive(ctx, repository.LockNone)
	if err != nil {
		t.Fatalf("active season lost after rollback: %v", err)
	}
	if active.Name != "S1" {
		t.Fatalf("active = %q", active.Name)
	}
}

func TestInjectFailureIsOneShot(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.InjectFailure("seasons.create", errors.New("disk full"))

	if err := s.Seasons().Create(ctx, &model.Season{Name: "S1"}); err == nil {
		t.Fatal("expected injected failure")
	}
	if err := s.Seasons().Create(ctx, &model.Season{Name: "S1"}); err != nil {
		t.Fatalf("second create: %v", err)
	}
}

func TestSingleActiveSeason(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Seasons().Create(ctx, &model.Season{Name: "S1", IsActive: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.Seasons().Create(ctx, &model.Season{Name: "S2", IsActive: true}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second active season err = %v", err)
	}
}

func TestPredictionUpsertKeepsSeason(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &model.Prediction{UserID: "u1", MatchID: 7, SeasonID: 1, HomeScore: 1, AwayScore: 0}
	if err := s.Predictions().Upsert(ctx, p); err != nil {
		t.Fatal(err)
	}
	firstID := p.ID

	again := &model.Prediction{UserID: "u1", MatchID: 7, SeasonID: 2, HomeScore: 3, AwayScore: 3}
	if err := s.Predictions().Upsert(ctx, again); err != nil {
		t.Fatal(err)
	}
	if again.ID != firstID {
		t.Fatalf("id = %d, want %d", again.ID, firstID)
	}
	if again.SeasonID != 1 {
		t.Fatalf("season = %d, want 1", again.SeasonID)
	}
	if again.HomeScore != 3 || again.AwayScore != 3 {
		t.Fatalf("scores not updated: %+v", again)
	}

	list, err := s.Predictions().List(ctx, repository.PredictionFilter{UserID: "u1"})
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
}

func TestMatchListFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	seed := []*model.Match{
		{ExternalID: 1, HomeTeam: "Arsenal", AwayTeam: "Chelsea", KickoffUTC: base.Add(48 * time.Hour), Status: model.MatchScheduled},
		{ExternalID: 2, HomeTeam: "Everton", AwayTeam: "Arsenal", KickoffUTC: base, Status: model.MatchFinished},
		{ExternalID: 3, HomeTeam: "Leeds", AwayTeam: "Fulham", KickoffUTC: base.Add(24 * time.Hour), Status: model.MatchScheduled},
	}
	for _, m := range seed {
		if err := s.Matches().Create(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter repository.MatchFilter
		want   []int64
	}{
		{"all by kickoff", repository.MatchFilter{}, []int64{2, 3, 1}},
		{"team substring", repository.MatchFilter{Team: "arsen"}, []int64{2, 1}},
		{"status", repository.MatchFilter{Statuses: []model.MatchStatus{model.MatchScheduled}}, []int64{3, 1}},
		{"before", repository.MatchFilter{Before: ptr(base.Add(time.Hour))}, []int64{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Matches().List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d matches, want %d", len(got), len(tt.want))
			}
			for i, m := range got {
				if m.ExternalID != tt.want[i] {
					t.Fatalf("position %d: external id %d, want %d", i, m.ExternalID, tt.want[i])
				}
			}
		})
	}
}

func TestNotFoundKind(t *testing.T) {
	_, err := New().Matches().GetByID(context.Background(), 42, repository.LockNone)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := &model.Match{ExternalID: 9, HomeTeam: "A", AwayTeam: "B"}
	if err := s.Matches().Create(ctx, m); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Matches().GetByID(ctx, m.ID, repository.LockNone)
	got.HomeTeam = "changed"
	again, _ := s.Matches().GetByID(ctx, m.ID, repository.LockNone)
	if again.HomeTeam != "A" {
		t.Fatalf("stored match mutated through returned pointer")
	}
}

func ptr[T any](v T) *T { return &v }
