package service

import (
	"context"
	"testing"
	"time"

	"PredictionLeague/internal/apperr"
	"PredictionLeague/internal/logger"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		raw     string
		want    Scope
		wantErr bool
	}{
		{"", Scope{}, false},
		{"current", Scope{}, false},
		{"all-time", Scope{AllTime: true}, false},
		{" 7 ", Scope{SeasonID: 7}, false},
		{"0", Scope{}, true},
		{"-1", Scope{}, true},
		{"season-2", Scope{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseScope(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !apperr.Is(err, apperr.KindInvalidInput) {
					t.Fatalf("err kind = %s", apperr.KindOf(err))
				}
				return
			}
			if got != tt.want {
				t.Fatalf("scope = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStandingsBySeasonAndAllTime(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "Ana")
	bea := f.user(t, "Bea")
	m1 := f.match(t, 1, time.Hour)
	f.predict(t, ana.ID, m1.ID, 2, 0, 1, 0)
	f.predict(t, bea.ID, m1.ID, 1, 0, 1, 0)
	f.finish(t, m1.ID, 2, 0, 1, 0) // ana 10, bea 1+2 = 3

	s1 := f.activeSeason(t)
	res, err := f.seasons.CloseAndOpen(f.ctx, "Season 2")
	if err != nil {
		t.Fatal(err)
	}

	m2 := f.match(t, 2, 2*time.Hour)
	f.predict(t, bea.ID, m2.ID, 0, 0, 0, 0)
	f.finish(t, m2.ID, 0, 0, 0, 0) // bea 10

	current, err := f.standings.Standings(f.ctx, Scope{})
	if err != nil {
		t.Fatal(err)
	}
	if len(current) != 1 || current[0].UserID != bea.ID || current[0].TotalPoints != 10 {
		t.Fatalf("current = %+v", current)
	}

	past, err := f.standings.Standings(f.ctx, Scope{SeasonID: s1.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(past) != 2 || past[0].UserID != ana.ID || past[1].TotalPoints != 3 {
		t.Fatalf("season 1 = %+v", past)
	}

	all, err := f.standings.Standings(f.ctx, Scope{AllTime: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].UserID != bea.ID || all[0].TotalPoints != 13 || all[0].DisplayName != "Bea" {
		t.Fatalf("all-time = %+v", all)
	}

	if _, err := f.standings.Standings(f.ctx, Scope{SeasonID: res.NewSeasonID + 10}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown season err = %v", err)
	}
}

func TestStandingsCacheInvalidatedByRescore(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "Ana")
	m := f.match(t, 1, time.Hour)
	f.predict(t, ana.ID, m.ID, 1, 0, 0, 0)
	f.finish(t, m.ID, 1, 0) // 8

	first, err := f.standings.Standings(f.ctx, Scope{AllTime: true})
	if err != nil {
		t.Fatal(err)
	}
	if first[0].TotalPoints != 8 {
		t.Fatalf("points = %d", first[0].TotalPoints)
	}
	if _, ok, _ := f.cache.Get(f.ctx, ScopeAllTime); !ok {
		t.Fatal("standings not cached")
	}

	// 比分更正后重新计分，缓存失效
	f.finish(t, m.ID, 2, 0)
	second, err := f.standings.Standings(f.ctx, Scope{AllTime: true})
	if err != nil {
		t.Fatal(err)
	}
	if second[0].TotalPoints != 1 {
		t.Fatalf("stale standings: %+v", second[0])
	}
}

func TestStandingsCountsPending(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "Ana")
	m := f.match(t, 1, time.Hour)
	f.predict(t, ana.ID, m.ID, 1, 0, 0, 0)

	list, err := f.standings.Standings(f.ctx, Scope{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Pending != 1 || list[0].TotalPredictions != 0 || list[0].Accuracy != 0 {
		t.Fatalf("standings = %+v", list)
	}
}

func TestStandingsComputedBeforeInvalidateNotCached(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "Ana")
	m := f.match(t, 1, time.Hour)
	f.predict(t, ana.ID, m.ID, 1, 0, 0, 0)
	f.finish(t, m.ID, 1, 0) // 8

	// 比赛已读出、写缓存之前，比分更正并重新计分
	corrected := false
	svc := NewStandingService(hookStore{Store: f.store, beforeNames: func() {
		if corrected {
			return
		}
		corrected = true
		f.finish(t, m.ID, 2, 0)
	}}, f.cache, logger.Discard())

	inFlight, err := svc.Standings(f.ctx, Scope{AllTime: true})
	if err != nil {
		t.Fatal(err)
	}
	if !corrected || inFlight[0].TotalPoints != 8 {
		t.Fatalf("in-flight points = %d, corrected = %v", inFlight[0].TotalPoints, corrected)
	}

	after, err := svc.Standings(f.ctx, Scope{AllTime: true})
	if err != nil {
		t.Fatal(err)
	}
	if after[0].TotalPoints != 1 {
		t.Fatalf("standings after rescore = %d points, want 1", after[0].TotalPoints)
	}
}

func TestStandingsSurvivesCallerCancellation(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "Ana")
	m := f.match(t, 1, time.Hour)
	f.predict(t, ana.ID, m.ID, 1, 0, 0, 0)

	ctx, cancel := context.WithCancel(f.ctx)
	svc := NewStandingService(hookStore{Store: f.store, beforeNames: cancel}, nil, logger.Discard())
	list, err := svc.Standings(ctx, Scope{AllTime: true})
	if err != nil {
		t.Fatalf("cancelled caller broke the shared computation: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("standings = %+v", list)
	}
}
