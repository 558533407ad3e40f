package repository

import (
	"context"
	"strings"
	"time"

	"PredictionLeague/internal/model"
	"PredictionLeague/internal/scoring"

	"gorm.io/gorm"
)

type matchRepository struct {
	db *gorm.DB
}

// NewMatchRepository 创建比赛仓储
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(ctx context.Context, m *model.Match) error {
	return uniqueViolation(r.db.WithContext(ctx).Create(m).Error)
}

func (r *matchRepository) Save(ctx context.Context, m *model.Match) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *matchRepository) GetByID(ctx context.Context, id uint64, lock LockMode) (*model.Match, error) {
	db := r.db.WithContext(ctx)
	if c, ok := lockClause(lock); ok {
		db = db.Clauses(c)
	}
	var m model.Match
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err, "match %d not found", id)
	}
	return &m, nil
}

func (r *matchRepository) GetByExternalID(ctx context.Context, externalID int64) (*model.Match, error) {
	var m model.Match
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&m).Error; err != nil {
		return nil, notFound(err, "match with external id %d not found", externalID)
	}
	return &m, nil
}

func (r *matchRepository) List(ctx context.Context, filter MatchFilter) ([]*model.Match, error) {
	db := r.db.WithContext(ctx).Model(&model.Match{})
	if len(filter.Statuses) > 0 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	if team := strings.TrimSpace(filter.Team); team != "" {
		like := "%" + strings.ToLower(team) + "%"
		db = db.Where("LOWER(home_team) LIKE ? OR LOWER(away_team) LIKE ?", like, like)
	}
	if len(filter.IDs) > 0 {
		db = db.Where("id IN ?", filter.IDs)
	}
	if filter.Before != nil {
		db = db.Where("kickoff_utc < ?", *filter.Before)
	}
	var list []*model.Match
	if err := db.Order("kickoff_utc ASC").Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *matchRepository) ListRescorePending(ctx context.Context, limit int) ([]*model.Match, error) {
	if limit <= 0 {
		limit = 100
	}
	var list []*model.Match
	if err := r.db.WithContext(ctx).
		Where("rescore_pending = ?", true).
		Order("updated_at ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *matchRepository) SetRescorePending(ctx context.Context, id uint64, pending bool) error {
	return r.db.WithContext(ctx).Model(&model.Match{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rescore_pending": pending,
			"updated_at":      time.Now(),
		}).Error
}

func (r *matchRepository) SetScoringMode(ctx context.Context, ids []uint64, mode scoring.Mode) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("id IN ? AND scoring_mode <> ?", ids, mode).
		Updates(map[string]interface{}{
			"scoring_mode":    mode,
			"rescore_pending": true,
			"updated_at":      time.Now(),
		})
	return res.RowsAffected, res.Error
}
