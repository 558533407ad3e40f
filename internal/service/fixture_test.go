package service

import (
	"context"
	"testing"
	"time"

	"PredictionLeague/internal/cache"
	"PredictionLeague/internal/logger"
	"PredictionLeague/internal/metrics"
	"PredictionLeague/internal/model"
	"PredictionLeague/internal/repository"
	"PredictionLeague/internal/repository/memory"
	"PredictionLeague/internal/scoring"
)

var baseTime = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctx   context.Context
	now   time.Time
	store *memory.Store
	cache *cache.Memory

	users       *UserService
	matches     *MatchService
	predictions *PredictionService
	scoring     *ScoringService
	seasons     *SeasonService
	standings   *StandingService
	reconcile   *ReconcileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()
	f := &fixture{
		ctx:   context.Background(),
		now:   baseTime,
		store: memory.New(),
		cache: cache.NewMemory(time.Hour),
	}
	clock := func() time.Time { return f.now }
	f.store.SetClock(clock)
	recorder := metrics.NewRecorder()

	f.users = NewUserService(f.store, log)
	f.matches = NewMatchService(f.store)
	f.predictions = NewPredictionService(f.store, log)
	f.predictions.SetClock(clock)
	f.scoring = NewScoringService(f.store, f.cache, recorder, log, 4, 100)
	f.scoring.SetClock(clock)
	f.seasons = NewSeasonService(f.store, f.cache, recorder, log)
	f.seasons.SetClock(clock)
	f.standings = NewStandingService(f.store, f.cache, log)
	f.reconcile = NewReconcileService(f.store, f.scoring, recorder, log, scoring.ModeTiered, time.Time{})
	f.reconcile.SetClock(clock)

	if _, _, err := f.seasons.EnsureInitialSeason(f.ctx, "Season 1"); err != nil {
		t.Fatalf("initial season: %v", err)
	}
	return f
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := f.users.Create(f.ctx, name+"@league.test", name, "")
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// match 创建一场在 f.now 之后 kickoffIn 开球的比赛
func (f *fixture) match(t *testing.T, externalID int64, kickoffIn time.Duration) *model.Match {
	t.Helper()
	m := &model.Match{
		ExternalID:  externalID,
		HomeTeam:    "Home FC",
		AwayTeam:    "Away United",
		KickoffUTC:  f.now.Add(kickoffIn),
		Status:      model.MatchScheduled,
		ScoringMode: scoring.ModeTiered,
	}
	if err := f.store.Matches().Create(f.ctx, m); err != nil {
		t.Fatalf("create match: %v", err)
	}
	return m
}

func (f *fixture) predict(t *testing.T, userID string, matchID uint64, home, away, homeHT, awayHT int) *model.Prediction {
	t.Helper()
	p, err := f.predictions.Upsert(f.ctx, PredictionRequest{
		UserID:            userID,
		MatchID:           matchID,
		HomeScore:         &home,
		AwayScore:         &away,
		HomeScoreHalftime: &homeHT,
		AwayScoreHalftime: &awayHT,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	return p
}

// finish 把比赛置为已结束并重新计分；ht 为空表示无半场数据
func (f *fixture) finish(t *testing.T, matchID uint64, home, away int, ht ...int) {
	t.Helper()
	m, err := f.store.Matches().GetByID(f.ctx, matchID, repository.LockNone)
	if err != nil {
		t.Fatal(err)
	}
	m.Status = model.MatchFinished
	m.HomeScore, m.AwayScore = &home, &away
	if len(ht) == 2 {
		m.HomeScoreHalftime, m.AwayScoreHalftime = &ht[0], &ht[1]
	}
	if err := f.store.Matches().Save(f.ctx, m); err != nil {
		t.Fatal(err)
	}
	if _, err := f.scoring.RescoreMatch(f.ctx, matchID); err != nil {
		t.Fatalf("rescore: %v", err)
	}
}

func (f *fixture) activeSeason(t *testing.T) *model.Season {
	t.Helper()
	s, err := f.seasons.Current(f.ctx)
	if err != nil {
		t.Fatalf("current season: %v", err)
	}
	return s
}

func intp(v int) *int { return &v }

// hookStore 包装 Store：DisplayNames 之前执行 beforeNames，记录比赛读取使用的锁
type hookStore struct {
	repository.Store
	beforeNames func()
	matchLocks  *[]repository.LockMode
}

func (h hookStore) Users() repository.UserRepository {
	return hookUsers{UserRepository: h.Store.Users(), before: h.beforeNames}
}

func (h hookStore) Matches() repository.MatchRepository {
	return lockRecorder{MatchRepository: h.Store.Matches(), locks: h.matchLocks}
}

func (h hookStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return h.Store.Transaction(ctx, func(tx repository.Store) error {
		return fn(hookStore{Store: tx, beforeNames: h.beforeNames, matchLocks: h.matchLocks})
	})
}

type hookUsers struct {
	repository.UserRepository
	before func()
}

func (u hookUsers) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	if u.before != nil {
		u.before()
	}
	return u.UserRepository.DisplayNames(ctx, ids)
}

type lockRecorder struct {
	repository.MatchRepository
	locks *[]repository.LockMode
}

func (r lockRecorder) GetByID(ctx context.Context, id uint64, lock repository.LockMode) (*model.Match, error) {
	if r.locks != nil {
		*r.locks = append(*r.locks, lock)
	}
	return r.MatchRepository.GetByID(ctx, id, lock)
}
