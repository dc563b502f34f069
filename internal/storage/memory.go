// internal/storage/memory.go
//
// In-memory Store implementation.
// Used by tests and useful for running the server without a database file.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - CreateDailyAnswer is first-writer-wins under the same lock, mirroring
//     the UNIQUE constraint semantics of the SQLite implementation.
//   - State is lost when the process restarts.

package storage

import (
	"context"
	"sync"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/catalog"
)

type memory struct {
	mu       sync.RWMutex
	players  []catalog.Player
	nextID   int64
	answers  map[string]int64          // date -> player id
	attempts map[string][]AttemptRecord // identity|date -> ordered attempts
	stats    map[string]StatsRecord
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() Store {
	return &memory{
		nextID:   1,
		answers:  make(map[string]int64),
		attempts: make(map[string][]AttemptRecord),
		stats:    make(map[string]StatsRecord),
	}
}

func attemptKey(identity, date string) string { return identity + "|" + date }

func (m *memory) PlayerByID(ctx context.Context, id int64) (catalog.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.players {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Player{}, ErrNotFound
}

func (m *memory) PlayerByName(ctx context.Context, name string) (catalog.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.players {
		if p.MatchesName(name) {
			return p, nil
		}
	}
	return catalog.Player{}, ErrNotFound
}

func (m *memory) ListPlayers(ctx context.Context) ([]catalog.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]catalog.Player, len(m.players))
	copy(out, m.players)
	return out, nil
}

func (m *memory) CountPlayers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players), nil
}

func (m *memory) SeedPlayers(ctx context.Context, players []catalog.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range players {
		if p.ID == 0 {
			p.ID = m.nextID
		}
		if p.ID >= m.nextID {
			m.nextID = p.ID + 1
		}
		m.players = append(m.players, p)
	}
	return nil
}

func (m *memory) DailyAnswer(ctx context.Context, date string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.answers[date]; ok {
		return id, nil
	}
	return 0, ErrNotFound
}

func (m *memory) CreateDailyAnswer(ctx context.Context, date string, playerID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.answers[date]; ok {
		return id, nil
	}
	m.answers[date] = playerID
	return playerID, nil
}

func (m *memory) InsertAttempt(ctx context.Context, rec *AttemptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.nextID
	m.nextID++
	key := attemptKey(rec.Identity, rec.Date)
	m.attempts[key] = append(m.attempts[key], *rec)
	return nil
}

func (m *memory) ListAttempts(ctx context.Context, identity, date string) ([]AttemptRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.attempts[attemptKey(identity, date)]
	out := make([]AttemptRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (m *memory) Stats(ctx context.Context, identity string) (StatsRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.stats[identity]; ok {
		return rec, nil
	}
	return StatsRecord{Identity: identity}, ErrNotFound
}

func (m *memory) UpsertStats(ctx context.Context, rec StatsRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[rec.Identity] = rec
	return nil
}
