package repository

import (
	"context"
	"errors"

	"PredictionLeague/internal/apperr"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore 基于 GORM 的 Store 实现
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository             { return NewUserRepository(s.db) }
func (s *gormStore) Matches() MatchRepository          { return NewMatchRepository(s.db) }
func (s *gormStore) Predictions() PredictionRepository { return NewPredictionRepository(s.db) }
func (s *gormStore) Seasons() SeasonRepository         { return NewSeasonRepository(s.db) }

// Transaction 开启事务；嵌套调用时 GORM 使用 SAVEPOINT
func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// notFound 将 gorm.ErrRecordNotFound 转为业务 NotFound，其余原样返回
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}

// uniqueViolation PostgreSQL 23505 转为业务 Conflict，其余原样返回
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflict("duplicate key value violates unique constraint %q", pgErr.ConstraintName)
	}
	return err
}

func lockClause(mode LockMode) (clause.Expression, bool) {
	switch mode {
	case LockShare:
		return clause.Locking{Strength: clause.LockingStrengthShare}, true
	case LockUpdate:
		return clause.Locking{Strength: clause.LockingStrengthUpdate}, true
	}
	return nil, false
}
