package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"PredictionLeague/internal/apperr"
	"PredictionLeague/internal/model"
	"PredictionLeague/internal/repository"
	"PredictionLeague/internal/scoring"

	"github.com/google/uuid"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	return r.s.do(ctx, "users.create", func(st *state, now time.Time) error {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		if _, ok := st.users[u.ID]; ok {
			return errUnique("users_pkey")
		}
		for _, existing := range st.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return errUnique("idx_users_email")
			}
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		st.users[u.ID] = copyUser(u)
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var out *model.User
	err := r.s.do(ctx, "users.get", func(st *state, _ time.Time) error {
		u, ok := st.users[id]
		if !ok {
			return apperr.NotFound("user %s not found", id)
		}
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (r *userRepo) List(ctx context.Context) ([]*model.User, error) {
	var out []*model.User
	err := r.s.do(ctx, "users.list", func(st *state, _ time.Time) error {
		for _, u := range st.users {
			out = append(out, copyUser(u))
		}
		slices.SortFunc(out, func(a, b *model.User) int {
			if c := strings.Compare(a.DisplayName, b.DisplayName); c != 0 {
				return c
			}
			return strings.Compare(a.ID, b.ID)
		})
		return nil
	})
	return out, err
}

func (r *userRepo) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string)
	err := r.s.do(ctx, "users.display_names", func(st *state, _ time.Time) error {
		if len(ids) == 0 {
			for id, u := range st.users {
				names[id] = u.DisplayName
			}
			return nil
		}
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				names[id] = u.DisplayName
			}
		}
		return nil
	})
	return names, err
}

type matchRepo struct{ s *Store }

func (r *matchRepo) Create(ctx context.Context, m *model.Match) error {
	return r.s.do(ctx, "matches.create", func(st *state, now time.Time) error {
		for _, existing := range st.matches {
			if existing.ExternalID == m.ExternalID {
				return errUnique("idx_matches_external_id")
			}
		}
		st.nextMatchID++
		m.ID = st.nextMatchID
		if m.Status == "" {
			m.Status = model.MatchScheduled
		}
		if m.ScoringMode == "" {
			m.ScoringMode = scoring.ModeTiered
		}
		m.CreatedAt, m.UpdatedAt = now, now
		st.matches[m.ID] = copyMatch(m)
		return nil
	})
}

func (r *matchRepo) Save(ctx context.Context, m *model.Match) error {
	return r.s.do(ctx, "matches.save", func(st *state, now time.Time) error {
		if m.ID == 0 {
			st.nextMatchID++
			m.ID = st.nextMatchID
			m.CreatedAt = now
		}
		for id, existing := range st.matches {
			if id != m.ID && existing.ExternalID == m.ExternalID {
				return errUnique("idx_matches_external_id")
			}
		}
		m.UpdatedAt = now
		st.matches[m.ID] = copyMatch(m)
		return nil
	})
}

// GetByID 事务已整体串行，lock 无需处理
func (r *matchRepo) GetByID(ctx context.Context, id uint64, _ repository.LockMode) (*model.Match, error) {
	var out *model.Match
	err := r.s.do(ctx, "matches.get", func(st *state, _ time.Time) error {
		m, ok := st.matches[id]
		if !ok {
			return apperr.NotFound("match %d not found", id)
		}
		out = copyMatch(m)
		return nil
	})
	return out, err
}

func (r *matchRepo) GetByExternalID(ctx context.Context, externalID int64) (*model.Match, error) {
	var out *model.Match
	err := r.s.do(ctx, "matches.get_by_external_id", func(st *state, _ time.Time) error {
		for _, m := range st.matches {
			if m.ExternalID == externalID {
				out = copyMatch(m)
				return nil
			}
		}
		return apperr.NotFound("match with external id %d not found", externalID)
	})
	return out, err
}

func (r *matchRepo) List(ctx context.Context, filter repository.MatchFilter) ([]*model.Match, error) {
	var out []*model.Match
	team := strings.ToLower(strings.TrimSpace(filter.Team))
	err := r.s.do(ctx, "matches.list", func(st *state, _ time.Time) error {
		for _, m := range st.matches {
			if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, m.Status) {
				continue
			}
			if team != "" &&
				!strings.Contains(strings.ToLower(m.HomeTeam), team) &&
				!strings.Contains(strings.ToLower(m.AwayTeam), team) {
				continue
			}
			if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, m.ID) {
				continue
			}
			if filter.Before != nil && !m.KickoffUTC.Before(*filter.Before) {
				continue
			}
			out = append(out, copyMatch(m))
		}
		slices.SortFunc(out, func(a, b *model.Match) int {
			if c := a.KickoffUTC.Compare(b.KickoffUTC); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		return nil
	})
	return out, err
}

func (r *matchRepo) ListRescorePending(ctx context.Context, limit int) ([]*model.Match, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*model.Match
	err := r.s.do(ctx, "matches.list_rescore_pending", func(st *state, _ time.Time) error {
		for _, m := range st.matches {
			if m.RescorePending {
				out = append(out, copyMatch(m))
			}
		}
		slices.SortFunc(out, func(a, b *model.Match) int {
			if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		if len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

func (r *matchRepo) SetRescorePending(ctx context.Context, id uint64, pending bool) error {
	return r.s.do(ctx, "matches.set_rescore_pending", func(st *state, now time.Time) error {
		if m, ok := st.matches[id]; ok {
			m.RescorePending = pending
			m.UpdatedAt = now
		}
		return nil
	})
}

func (r *matchRepo) SetScoringMode(ctx context.Context, ids []uint64, mode scoring.Mode) (int64, error) {
	var affected int64
	err := r.s.do(ctx, "matches.set_scoring_mode", func(st *state, now time.Time) error {
		for _, id := range ids {
			m, ok := st.matches[id]
			if !ok || m.ScoringMode == mode {
				continue
			}
			m.ScoringMode = mode
			m.RescorePending = true
			m.UpdatedAt = now
			affected++
		}
		return nil
	})
	return affected, err
}

type predictionRepo struct{ s *Store }

func (r *predictionRepo) Upsert(ctx context.Context, p *model.Prediction) error {
	return r.s.do(ctx, "predictions.upsert", func(st *state, now time.Time) error {
		for _, existing := range st.predictions {
			if existing.UserID != p.UserID || existing.MatchID != p.MatchID {
				continue
			}
			existing.HomeScore = p.HomeScore
			existing.AwayScore = p.AwayScore
			existing.HomeScoreHalftime = p.HomeScoreHalftime
			existing.AwayScoreHalftime = p.AwayScoreHalftime
			existing.UpdatedAt = now
			*p = *copyPrediction(existing)
			return nil
		}
		st.nextPredictionID++
		p.ID = st.nextPredictionID
		p.CreatedAt, p.UpdatedAt = now, now
		st.predictions[p.ID] = copyPrediction(p)
		return nil
	})
}

func (r *predictionRepo) GetByID(ctx context.Context, id uint64) (*model.Prediction, error) {
	var out *model.Prediction
	err := r.s.do(ctx, "predictions.get", func(st *state, _ time.Time) error {
		p, ok := st.predictions[id]
		if !ok {
			return apperr.NotFound("prediction %d not found", id)
		}
		out = copyPrediction(p)
		return nil
	})
	return out, err
}

func (r *predictionRepo) GetByUserAndMatch(ctx context.Context, userID string, matchID uint64) (*model.Prediction, error) {
	var out *model.Prediction
	err := r.s.do(ctx, "predictions.get_by_user_and_match", func(st *state, _ time.Time) error {
		for _, p := range st.predictions {
			if p.UserID == userID && p.MatchID == matchID {
				out = copyPrediction(p)
				return nil
			}
		}
		return apperr.NotFound("prediction for user %s on match %d not found", userID, matchID)
	})
	return out, err
}

func (r *predictionRepo) Delete(ctx context.Context, id uint64) error {
	return r.s.do(ctx, "predictions.delete", func(st *state, _ time.Time) error {
		if _, ok := st.predictions[id]; !ok {
			return apperr.NotFound("prediction %d not found", id)
		}
		delete(st.predictions, id)
		return nil
	})
}

func (r *predictionRepo) List(ctx context.Context, filter repository.PredictionFilter) ([]*model.Prediction, error) {
	var out []*model.Prediction
	err := r.s.do(ctx, "predictions.list", func(st *state, _ time.Time) error {
		for _, p := range st.predictions {
			if filter.UserID != "" && p.UserID != filter.UserID {
				continue
			}
			if filter.MatchID != 0 && p.MatchID != filter.MatchID {
				continue
			}
			if filter.SeasonID != 0 && p.SeasonID != filter.SeasonID {
				continue
			}
			out = append(out, copyPrediction(p))
		}
		slices.SortFunc(out, func(a, b *model.Prediction) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		})
		return nil
	})
	return out, err
}

func (r *predictionRepo) UpdatePoints(ctx context.Context, id uint64, b scoring.Breakdown, scoredAt *time.Time) error {
	return r.s.do(ctx, "predictions.update_points", func(st *state, _ time.Time) error {
		if p, ok := st.predictions[id]; ok {
			p.ApplyBreakdown(b, timePtr(scoredAt))
		}
		return nil
	})
}

type seasonRepo struct{ s *Store }

func (r *seasonRepo) Create(ctx context.Context, season *model.Season) error {
	return r.s.do(ctx, "seasons.create", func(st *state, now time.Time) error {
		if season.IsActive && activeSeason(st, 0) != nil {
			return errUnique("uq_seasons_single_active")
		}
		st.nextSeasonID++
		season.ID = st.nextSeasonID
		season.CreatedAt = now
		st.seasons[season.ID] = copySeason(season)
		return nil
	})
}

func (r *seasonRepo) Save(ctx context.Context, season *model.Season) error {
	return r.s.do(ctx, "seasons.save", func(st *state, now time.Time) error {
		if season.IsActive && activeSeason(st, season.ID) != nil {
			return errUnique("uq_seasons_single_active")
		}
		if season.ID == 0 {
			st.nextSeasonID++
			season.ID = st.nextSeasonID
			season.CreatedAt = now
		}
		st.seasons[season.ID] = copySeason(season)
		return nil
	})
}

func (r *seasonRepo) GetByID(ctx context.Context, id uint64) (*model.Season, error) {
	var out *model.Season
	err := r.s.do(ctx, "seasons.get", func(st *state, _ time.Time) error {
		s, ok := st.seasons[id]
		if !ok {
			return apperr.NotFound("season %d not found", id)
		}
		out = copySeason(s)
		return nil
	})
	return out, err
}

// GetActive 整库互斥已覆盖行锁语义，lock 参数被忽略
func (r *seasonRepo) GetActive(ctx context.Context, _ repository.LockMode) (*model.Season, error) {
	var out *model.Season
	err := r.s.do(ctx, "seasons.get_active", func(st *state, _ time.Time) error {
		s := activeSeason(st, 0)
		if s == nil {
			return apperr.NotFound("no active season")
		}
		out = copySeason(s)
		return nil
	})
	return out, err
}

func (r *seasonRepo) List(ctx context.Context) ([]*model.Season, error) {
	var out []*model.Season
	err := r.s.do(ctx, "seasons.list", func(st *state, _ time.Time) error {
		for _, s := range st.seasons {
			out = append(out, copySeason(s))
		}
		slices.SortFunc(out, func(a, b *model.Season) int {
			if c := b.StartDate.Compare(a.StartDate); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		})
		return nil
	})
	return out, err
}

// activeSeason 返回 id 以外的活跃赛季
func activeSeason(st *state, exclude uint64) *model.Season {
	for id, s := range st.seasons {
		if id != exclude && s.IsActive {
			return s
		}
	}
	return nil
}
