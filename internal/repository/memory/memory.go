// Package memory 是 repository.Store 的进程内实现，用于本地运行（database.driver=memory）和测试。
// 事务为整库互斥 + 快照回滚：Transaction 期间其他调用阻塞，fn 出错时恢复快照。
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PredictionLeague/internal/apperr"
	"PredictionLeague/internal/repository"
)

type database struct {
	mu       sync.Mutex
	st       *state
	failures map[string]error
	now      func() time.Time
}

// Store 实现 repository.Store
type Store struct {
	db *database
	tx bool
}

var _ repository.Store = (*Store)(nil)

// New 创建空库
func New() *Store {
	return &Store{db: &database{
		st:       newState(),
		failures: make(map[string]error),
		now:      time.Now,
	}}
}

// SetClock 替换写入 created_at/updated_at 使用的时钟
func (s *Store) SetClock(now func() time.Time) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.now = now
}

// InjectFailure 让下一次名为 op 的操作返回 err（一次性），如 "seasons.create"
func (s *Store) InjectFailure(op string, err error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.failures[op] = err
}

func (s *Store) Users() repository.UserRepository             { return &userRepo{s: s} }
func (s *Store) Matches() repository.MatchRepository          { return &matchRepo{s: s} }
func (s *Store) Predictions() repository.PredictionRepository { return &predictionRepo{s: s} }
func (s *Store) Seasons() repository.SeasonRepository         { return &seasonRepo{s: s} }

// Transaction fn 出错时整体回滚；嵌套调用等价于 SAVEPOINT
func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.tx {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}
	snapshot := s.db.st.clone()
	if err := fn(&Store{db: s.db, tx: true}); err != nil {
		s.db.st = snapshot
		return err
	}
	return nil
}

// do 在库锁（或所在事务）内执行一次操作，先消费注入的失败
func (s *Store) do(ctx context.Context, op string, fn func(st *state, now time.Time) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.tx {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}
	if err, ok := s.db.failures[op]; ok {
		delete(s.db.failures, op)
		return fmt.Errorf("%s: %w", op, err)
	}
	return fn(s.db.st, s.db.now())
}

// errUnique 模拟数据库唯一约束冲突
func errUnique(constraint string) error {
	return apperr.Conflict("duplicate key value violates unique constraint %q", constraint)
}
