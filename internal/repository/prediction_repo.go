package repository

import (
	"context"
	"time"

	"PredictionLeague/internal/model"
	"PredictionLeague/internal/scoring"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type predictionRepository struct {
	db *gorm.DB
}

// NewPredictionRepository 创建预测仓储
func NewPredictionRepository(db *gorm.DB) PredictionRepository {
	return &predictionRepository{db: db}
}

// Upsert 冲突时只更新比分字段，season_id 与积分保持不变
func (r *predictionRepository) Upsert(ctx context.Context, p *model.Prediction) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "match_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"home_score", "away_score", "home_score_halftime", "away_score_halftime", "updated_at",
		}),
	}).Create(p).Error; err != nil {
		return err
	}
	// ON CONFLICT 更新时回填完整行
	return r.db.WithContext(ctx).
		Where("user_id = ? AND match_id = ?", p.UserID, p.MatchID).
		First(p).Error
}

func (r *predictionRepository) GetByID(ctx context.Context, id uint64) (*model.Prediction, error) {
	var p model.Prediction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "prediction %d not found", id)
	}
	return &p, nil
}

func (r *predictionRepository) GetByUserAndMatch(ctx context.Context, userID string, matchID uint64) (*model.Prediction, error) {
	var p model.Prediction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND match_id = ?", userID, matchID).
		First(&p).Error; err != nil {
		return nil, notFound(err, "prediction for user %s on match %d not found", userID, matchID)
	}
	return &p, nil
}

func (r *predictionRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Prediction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "prediction %d not found", id)
	}
	return nil
}

func (r *predictionRepository) List(ctx context.Context, filter PredictionFilter) ([]*model.Prediction, error) {
	db := r.db.WithContext(ctx).Model(&model.Prediction{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.MatchID != 0 {
		db = db.Where("match_id = ?", filter.MatchID)
	}
	if filter.SeasonID != 0 {
		db = db.Where("season_id = ?", filter.SeasonID)
	}
	var list []*model.Prediction
	if err := db.Order("created_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *predictionRepository) UpdatePoints(ctx context.Context, id uint64, b scoring.Breakdown, scoredAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Prediction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"points":            b.Total,
			"points_winner":     b.Winner,
			"points_halftime":   b.Halftime,
			"points_difference": b.Difference,
			"points_exact":      b.Exact,
			"scored_at":         scoredAt,
		}).Error
}
