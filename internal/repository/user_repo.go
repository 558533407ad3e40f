package repository

import (
	"context"

	"PredictionLeague/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return uniqueViolation(r.db.WithContext(ctx).Create(u).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err, "user %s not found", id)
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	var list []*model.User
	if err := r.db.WithContext(ctx).Order("display_name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *userRepository) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	db := r.db.WithContext(ctx).Model(&model.User{}).Select("id", "display_name")
	if len(ids) > 0 {
		db = db.Where("id IN ?", ids)
	}
	var rows []model.User
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(rows))
	for _, u := range rows {
		names[u.ID] = u.DisplayName
	}
	return names, nil
}
