package service

import (
	"errors"
	"testing"
	"time"

	"PredictionLeague/internal/model"
	"PredictionLeague/internal/scoring"
)

func external(id int64, kickoff time.Time, status string, scores ...int) model.ExternalMatch {
	ext := model.ExternalMatch{
		ExternalID:  id,
		Competition: "La Liga",
		Season:      "2025/2026",
		HomeTeam:    "Real Betis",
		AwayTeam:    "Sevilla",
		KickoffUTC:  kickoff,
		Venue:       "Benito Villamarín",
		Status:      status,
	}
	if len(scores) >= 2 {
		ext.HomeScore, ext.AwayScore = intp(scores[0]), intp(scores[1])
	}
	if len(scores) == 4 {
		ext.HomeScoreHalftime, ext.AwayScoreHalftime = intp(scores[2]), intp(scores[3])
	}
	return ext
}

func TestReconcileCreatesAndSkipsUnchanged(t *testing.T) {
	f := newFixture(t)
	kickoff := f.now.Add(time.Hour)
	batch := []model.ExternalMatch{
		external(10, kickoff, "SCHEDULED"),
		external(11, kickoff.Add(time.Hour), "scheduled"),
	}

	stats, err := f.reconcile.Reconcile(f.ctx, batch)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 || stats.Created != 2 || stats.Errors != 0 {
		t.Fatalf("first pass = %+v", stats)
	}

	stats, err = f.reconcile.Reconcile(f.ctx, batch)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Unchanged != 2 || stats.Created != 0 || stats.Updated != 0 {
		t.Fatalf("second pass = %+v", stats)
	}

	m, err := f.store.Matches().GetByExternalID(f.ctx, 11)
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != model.MatchScheduled || m.ScoringMode != scoring.ModeTiered || len(m.Payload) == 0 {
		t.Fatalf("stored match = %+v", m)
	}
}

func TestReconcileFinishTriggersRescore(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "Ana")
	kickoff := f.now.Add(time.Hour)
	if _, err := f.reconcile.Reconcile(f.ctx, []model.ExternalMatch{external(10, kickoff, "SCHEDULED")}); err != nil {
		t.Fatal(err)
	}
	m, _ := f.store.Matches().GetByExternalID(f.ctx, 10)
	p := f.predict(t, ana.ID, m.ID, 2, 1, 1, 1)

	f.now = kickoff.Add(2 * time.Hour)
	stats, err := f.reconcile.Reconcile(f.ctx, []model.ExternalMatch{external(10, kickoff, "FINISHED", 2, 1, 1, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Updated != 1 || stats.Rescored != 1 || stats.RescoreFailed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	got, _ := f.store.Predictions().GetByID(f.ctx, p.ID)
	if got.Points != 10 {
		t.Fatalf("points = %d, want 10", got.Points)
	}
	m, _ = f.store.Matches().GetByExternalID(f.ctx, 10)
	if m.RescorePending {
		t.Fatal("pending flag left after successful rescore")
	}

	// 比分更正
	stats, _ = f.reconcile.Reconcile(f.ctx, []model.ExternalMatch{external(10, kickoff, "FINISHED", 2, 2, 1, 1)})
	if stats.Updated != 1 || stats.Rescored != 1 {
		t.Fatalf("correction stats = %+v", stats)
	}
	got, _ = f.store.Predictions().GetByID(f.ctx, p.ID)
	if got.Points != 2 {
		t.Fatalf("points after correction = %d, want 2", got.Points)
	}
}

func TestReconcileVenueChangeDoesNotRescore(t *testing.T) {
	f := newFixture(t)
	kickoff := f.now.Add(time.Hour)
	ext := external(10, kickoff, "SCHEDULED")
	_, _ = f.reconcile.Reconcile(f.ctx, []model.ExternalMatch{ext})

	ext.Venue = "La Cartuja"
	ext.KickoffUTC = kickoff.Add(24 * time.Hour)
	stats, _ := f.reconcile.Reconcile(f.ctx, []model.ExternalMatch{ext})
	if stats.Updated != 1 || stats.Rescored != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	m, _ := f.store.Matches().GetByExternalID(f.ctx, 10)
	if m.Venue != "La Cartuja" || !m.KickoffUTC.Equal(kickoff.Add(24*time.Hour)) || m.RescorePending {
		t.Fatalf("match = %+v", m)
	}
}

func TestReconcileRescoreFailureLeavesFlag(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "Ana")
	kickoff := f.now.Add(time.Hour)
	_, _ = f.reconcile.Reconcile(f.ctx, []model.ExternalMatch{external(10, kickoff, "SCHEDULED")})
	m, _ := f.store.Matches().GetByExternalID(f.ctx, 10)
	p := f.predict(t, ana.ID, m.ID, 0, 0, 0, 0)

	f.store.InjectFailure("predictions.update_points", errors.New("deadlock detected"))
	stats, err := f.reconcile.Reconcile(f.ctx, []model.ExternalMatch{external(10, kickoff, "FINISHED", 0, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Updated != 1 || stats.RescoreFailed != 1 || stats.Rescored != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	m, _ = f.store.Matches().GetByExternalID(f.ctx, 10)
	if !m.RescorePending || !m.IsFinished() {
		t.Fatalf("match write lost or flag cleared: %+v", m)
	}

	if _, err := f.scoring.RescorePending(f.ctx); err != nil {
		t.Fatal(err)
	}
	got, _ := f.store.Predictions().GetByID(f.ctx, p.ID)
	if got.Points != 8 {
		t.Fatalf("points after retry = %d, want 8", got.Points)
	}
}

func TestReconcileRejectsMalformedEntries(t *testing.T) {
	f := newFixture(t)
	kickoff := f.now.Add(time.Hour)
	noTeams := external(3, kickoff, "SCHEDULED")
	noTeams.HomeTeam = " "
	batch := []model.ExternalMatch{
		external(0, kickoff, "SCHEDULED"),
		external(1, kickoff, "HALF_TIME"),
		external(2, kickoff, "FINISHED"),
		noTeams,
		external(4, time.Time{}, "SCHEDULED"),
		external(5, kickoff, "FINISHED", -1, 0),
		external(6, kickoff, "SCHEDULED"),
	}
	stats, err := f.reconcile.Reconcile(f.ctx, batch)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Errors != 6 || stats.Created != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestReconcileDropsScoresForUnfinishedAndPartialHalftime(t *testing.T) {
	f := newFixture(t)
	kickoff := f.now.Add(-time.Hour)
	live := external(1, kickoff, "LIVE", 1, 0, 1, 0)
	partial := external(2, kickoff, "FINISHED", 2, 1)
	partial.HomeScoreHalftime = intp(1)

	if _, err := f.reconcile.Reconcile(f.ctx, []model.ExternalMatch{live, partial}); err != nil {
		t.Fatal(err)
	}
	m, _ := f.store.Matches().GetByExternalID(f.ctx, 1)
	if m.HomeScore != nil || m.HomeScoreHalftime != nil {
		t.Fatalf("live match kept scores: %+v", m)
	}
	m, _ = f.store.Matches().GetByExternalID(f.ctx, 2)
	if m.HomeScoreHalftime != nil || m.AwayScoreHalftime != nil || *m.HomeScore != 2 {
		t.Fatalf("partial halftime kept: %+v", m)
	}
}

func TestReconcileLegacyCutoff(t *testing.T) {
	f := newFixture(t)
	f.reconcile.cutoff = f.now.Add(-24 * time.Hour)

	batch := []model.ExternalMatch{
		external(1, f.now.Add(-48*time.Hour), "FINISHED", 1, 0),
		external(2, f.now.Add(time.Hour), "SCHEDULED"),
	}
	if _, err := f.reconcile.Reconcile(f.ctx, batch); err != nil {
		t.Fatal(err)
	}
	old, _ := f.store.Matches().GetByExternalID(f.ctx, 1)
	recent, _ := f.store.Matches().GetByExternalID(f.ctx, 2)
	if old.ScoringMode != scoring.ModeLegacy || recent.ScoringMode != scoring.ModeTiered {
		t.Fatalf("modes = %s / %s", old.ScoringMode, recent.ScoringMode)
	}
}
