package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

// MemoryStore is the in-memory Store used by handler and worker tests.
type MemoryStore struct {
	mu       sync.Mutex
	players  map[uuid.UUID]domain.Player
	readings map[uuid.UUID]domain.Reading
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:  make(map[uuid.UUID]domain.Player),
		readings: make(map[uuid.UUID]domain.Reading),
	}
}

func (s *MemoryStore) InsertPlayer(_ context.Context, player *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}
	now := time.Now().UTC()
	player.CreatedAt = now
	player.UpdatedAt = now
	s.players[player.ID] = *player
	return nil
}

func (s *MemoryStore) Player(_ context.Context, id uuid.UUID) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) ListPlayers(_ context.Context) ([]domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	players := make([]domain.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })
	return players, nil
}

func (s *MemoryStore) InsertReading(_ context.Context, reading *domain.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}
	reading.CreatedAt = time.Now().UTC()
	s.readings[reading.ID] = *reading
	return nil
}

func (s *MemoryStore) Reading(_ context.Context, id uuid.UUID) (*domain.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.readings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) PlayerReadings(_ context.Context, playerID uuid.UUID, limit int) ([]domain.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var readings []domain.Reading
	for _, r := range s.readings {
		if r.PlayerID == playerID {
			readings = append(readings, r)
		}
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].Timestamp.After(readings[j].Timestamp) })
	if limit > 0 && len(readings) > limit {
		readings = readings[:limit]
	}
	return readings, nil
}

func (s *MemoryStore) SaveAnalysis(_ context.Context, readingID uuid.UUID, analysis *domain.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.readings[readingID]
	if !ok {
		return ErrNotFound
	}
	r.Analysis = analysis
	s.readings[readingID] = r
	return nil
}
