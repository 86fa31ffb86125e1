package workspace

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the workspace does not exist.
var ErrNotFound = errors.New("workspace not found")

// Repository persists workspaces.
type Repository interface {
	Create(ctx context.Context, ws Workspace) error
	FindByID(ctx context.Context, id string) (Workspace, error)
}

// PostgresRepository stores workspaces in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed workspace repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a workspace record.
func (r *PostgresRepository) Create(ctx context.Context, ws Workspace) error {
	wsID, err := uuid.Parse(ws.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO workspaces (id, name, secret_hash, created_at)
        VALUES ($1, $2, $3, $4)`, wsID, ws.Name, ws.SecretHash, ws.CreatedAt.UTC())
	return err
}

// FindByID fetches a workspace by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Workspace, error) {
	wsID, err := uuid.Parse(id)
	if err != nil {
		return Workspace{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, name, secret_hash, created_at FROM workspaces WHERE id = $1`, wsID)
	var (
		ws        Workspace
		idVal     uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&idVal, &ws.Name, &ws.SecretHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workspace{}, ErrNotFound
		}
		return Workspace{}, err
	}
	ws.ID = idVal.String()
	ws.CreatedAt = createdAt.UTC()
	return ws, nil
}
