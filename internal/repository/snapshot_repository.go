package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const snapshotSchema = `CREATE TABLE IF NOT EXISTS timetable_snapshots (
	id UUID PRIMARY KEY,
	version INTEGER NOT NULL UNIQUE,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// SnapshotRepository persists versioned timetable snapshots in postgres.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository creates a new repository instance.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Migrate creates the snapshot table when missing.
func (r *SnapshotRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("migrate timetable_snapshots: %w", err)
	}
	return nil
}

// Save stores the payload as the next version.
func (r *SnapshotRepository) Save(ctx context.Context, payload models.SnapshotPayload) (*models.TimetableSnapshot, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	snapshot := &models.TimetableSnapshot{
		ID:        uuid.NewString(),
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}

	const query = `INSERT INTO timetable_snapshots (id, version, payload, created_at)
SELECT $1, COALESCE(MAX(version), 0) + 1, $2, $3 FROM timetable_snapshots
RETURNING version`
	if err := r.db.QueryRowxContext(ctx, query, snapshot.ID, snapshot.Payload, snapshot.CreatedAt).Scan(&snapshot.Version); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	return snapshot, nil
}

// Latest returns the highest version. sql.ErrNoRows is returned untouched when the table is empty.
func (r *SnapshotRepository) Latest(ctx context.Context) (*models.TimetableSnapshot, error) {
	const query = `SELECT id, version, payload, created_at FROM timetable_snapshots ORDER BY version DESC LIMIT 1`
	var snapshot models.TimetableSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Decode unmarshals a stored snapshot payload.
func Decode(snapshot *models.TimetableSnapshot) (models.SnapshotPayload, error) {
	var payload models.SnapshotPayload
	if err := snapshot.Payload.Unmarshal(&payload); err != nil {
		return models.SnapshotPayload{}, fmt.Errorf("decode snapshot %s: %w", snapshot.ID, err)
	}
	return payload, nil
}

// Ping checks database connectivity.
func (r *SnapshotRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
