package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

// PostgresStore keeps players and readings in the players and
// health_readings tables. Analyses live in a jsonb column on the reading;
// a reading without one is still awaiting its verified result.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) InsertPlayer(ctx context.Context, player *domain.Player) error {
	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}
	now := time.Now().UTC()
	player.CreatedAt = now
	player.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (id, name, position, team, jersey_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		player.ID, player.Name, player.Position, player.Team, player.JerseyNumber,
		player.CreatedAt, player.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (s *PostgresStore) Player(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, position, team, jersey_number, created_at, updated_at
		FROM players
		WHERE id = $1`, id)

	p := &domain.Player{}
	err := row.Scan(&p.ID, &p.Name, &p.Position, &p.Team, &p.JerseyNumber, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select player: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, position, team, jersey_number, created_at, updated_at
		FROM players
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Position, &p.Team, &p.JerseyNumber, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

const readingColumns = `id, player_id, temperature, heart_rate, blood_oxygen,
       hydration, respiration, fatigue, state, analysis, timestamp, created_at`

func scanReading(row pgx.Row, r *domain.Reading) error {
	var state string
	var analysis []byte
	err := row.Scan(
		&r.ID,
		&r.PlayerID,
		&r.Temperature,
		&r.HeartRate,
		&r.BloodOxygen,
		&r.Hydration,
		&r.Respiration,
		&r.Fatigue,
		&state,
		&analysis,
		&r.Timestamp,
		&r.CreatedAt,
	)
	if err != nil {
		return err
	}
	r.State = domain.ReadingState(state)
	if len(analysis) > 0 {
		r.Analysis = &domain.AnalysisResult{}
		if err := json.Unmarshal(analysis, r.Analysis); err != nil {
			return fmt.Errorf("decode analysis: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) InsertReading(ctx context.Context, reading *domain.Reading) error {
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}
	reading.CreatedAt = time.Now().UTC()

	var analysis []byte
	if reading.Analysis != nil {
		var err error
		analysis, err = json.Marshal(reading.Analysis)
		if err != nil {
			return fmt.Errorf("encode analysis: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO health_readings
		    (id, player_id, temperature, heart_rate, blood_oxygen,
		     hydration, respiration, fatigue, state, analysis, timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		reading.ID, reading.PlayerID, reading.Temperature, reading.HeartRate,
		reading.BloodOxygen, reading.Hydration, reading.Respiration, reading.Fatigue,
		string(reading.State), analysis, reading.Timestamp, reading.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (s *PostgresStore) Reading(ctx context.Context, id uuid.UUID) (*domain.Reading, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+readingColumns+`
		FROM health_readings
		WHERE id = $1`, id)

	r := &domain.Reading{}
	if err := scanReading(row, r); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select reading: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) PlayerReadings(ctx context.Context, playerID uuid.UUID, limit int) ([]domain.Reading, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+readingColumns+`
		FROM health_readings
		WHERE player_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.Reading
	for rows.Next() {
		var r domain.Reading
		if err := scanReading(rows, &r); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// SaveAnalysis replaces the analysis on a reading. Later writes win; a
// verified result arriving after a fallback simply overwrites it.
func (s *PostgresStore) SaveAnalysis(ctx context.Context, readingID uuid.UUID, analysis *domain.AnalysisResult) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE health_readings
		SET analysis = $2
		WHERE id = $1`, readingID, payload)
	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
