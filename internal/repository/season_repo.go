package repository

import (
	"context"

	"PredictionLeague/internal/model"

	"gorm.io/gorm"
)

type seasonRepository struct {
	db *gorm.DB
}

// NewSeasonRepository 创建赛季仓储
func NewSeasonRepository(db *gorm.DB) SeasonRepository {
	return &seasonRepository{db: db}
}

func (r *seasonRepository) Create(ctx context.Context, s *model.Season) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *seasonRepository) Save(ctx context.Context, s *model.Season) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *seasonRepository) GetByID(ctx context.Context, id uint64) (*model.Season, error) {
	var s model.Season
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err, "season %d not found", id)
	}
	return &s, nil
}

// GetActive 读取当前活跃赛季；lock 非 LockNone 时附加 FOR SHARE / FOR UPDATE
func (r *seasonRepository) GetActive(ctx context.Context, lock LockMode) (*model.Season, error) {
	db := r.db.WithContext(ctx)
	if c, ok := lockClause(lock); ok {
		db = db.Clauses(c)
	}
	var s model.Season
	if err := db.Where("is_active = ?", true).First(&s).Error; err != nil {
		return nil, notFound(err, "no active season")
	}
	return &s, nil
}

func (r *seasonRepository) List(ctx context.Context) ([]*model.Season, error) {
	var list []*model.Season
	if err := r.db.WithContext(ctx).Order("start_date DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
