package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"PredictionLeague/internal/apperr"
	"PredictionLeague/internal/model"
	"PredictionLeague/internal/repository"

	"github.com/sirupsen/logrus"
)

// UserService 联赛成员
type UserService struct {
	store  repository.Store
	logger *logrus.Logger
}

func NewUserService(store repository.Store, logger *logrus.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

// Create 注册成员，ID 由仓储生成
func (s *UserService) Create(ctx context.Context, email, displayName, avatarURL string) (*model.User, error) {
	// 邮箱统一小写，唯一索引大小写敏感
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.InvalidInput("invalid email %q", email)
	}
	if displayName == "" {
		return nil, apperr.InvalidInput("display_name is required")
	}
	u := &model.User{Email: email, DisplayName: displayName, AvatarURL: strings.TrimSpace(avatarURL)}
	if err := s.store.Users().Create(ctx, u); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, apperr.Conflict("email %q is already registered", email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.WithField("user_id", u.ID).Info("新成员加入")
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	return s.store.Users().List(ctx)
}
