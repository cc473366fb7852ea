// Package store persists players and their vital-sign readings.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the persistence surface for players and readings. The Postgres
// implementation backs production; MemoryStore backs handler tests.
type Store interface {
	InsertPlayer(ctx context.Context, player *domain.Player) error
	Player(ctx context.Context, id uuid.UUID) (*domain.Player, error)
	ListPlayers(ctx context.Context) ([]domain.Player, error)

	InsertReading(ctx context.Context, reading *domain.Reading) error
	Reading(ctx context.Context, id uuid.UUID) (*domain.Reading, error)
	PlayerReadings(ctx context.Context, playerID uuid.UUID, limit int) ([]domain.Reading, error)
	SaveAnalysis(ctx context.Context, readingID uuid.UUID, analysis *domain.AnalysisResult) error
}
