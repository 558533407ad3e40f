// Package cache 缓存排行榜快照。写入路径（重新计分、赛季结算）只需调用 Invalidate，
// 通过代数（generation）使旧快照整体失效，无需逐个删除 key。
package cache

import (
	"context"
	"sync"
	"time"

	"PredictionLeague/internal/standings"
)

// StandingsCache 按 scope（赛季ID 或 all-time）缓存排行榜。
// 读库前先取 Generation，写入时原样传回；期间发生过 Invalidate 的结果不会被缓存。
type StandingsCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, scope string) ([]standings.Standing, bool, error)
	Set(ctx context.Context, scope string, gen int64, list []standings.Standing) error
	Invalidate(ctx context.Context) error
}

type memoryEntry struct {
	gen     int64
	list    []standings.Standing
	expires time.Time
}

// Memory 进程内实现，未启用 Redis 时使用
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	gen     int64
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) Generation(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen, nil
}

func (m *Memory) Get(_ context.Context, scope string) ([]standings.Standing, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[scope]
	if !ok || e.gen != m.gen || (m.ttl > 0 && m.now().After(e.expires)) {
		return nil, false, nil
	}
	return append([]standings.Standing(nil), e.list...), true, nil
}

// Set gen 已过期时丢弃写入
func (m *Memory) Set(_ context.Context, scope string, gen int64, list []standings.Standing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return nil
	}
	m.entries[scope] = memoryEntry{
		gen:     gen,
		list:    append([]standings.Standing(nil), list...),
		expires: m.now().Add(m.ttl),
	}
	return nil
}

func (m *Memory) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	clear(m.entries)
	return nil
}
