package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/walletbook/walletbook/internal/storage"
)

// ErrNotFound indicates the wallet does not exist, is soft-deleted, or
// belongs to a different workspace.
var ErrNotFound = errors.New("wallet not found")

// Repository persists wallets. All operations are workspace scoped and
// exclude soft-deleted rows.
type Repository interface {
	Create(ctx context.Context, w Wallet) error
	FindByID(ctx context.Context, workspaceID, id string) (Wallet, error)
	List(ctx context.Context, workspaceID string) ([]Wallet, error)
	Update(ctx context.Context, w Wallet) error
	SoftDelete(ctx context.Context, workspaceID, id string) error
	ApplyBalanceDelta(ctx context.Context, workspaceID, id string, delta decimal.Decimal) error
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const walletColumns = `id, workspace_id, name, group_id, balance, is_included_in_totals, sort_order, created_at, updated_at`

// Create inserts a wallet record.
func (r *PostgresRepository) Create(ctx context.Context, w Wallet) error {
	walletID, err := uuid.Parse(w.ID)
	if err != nil {
		return err
	}
	q := storage.QuerierFrom(ctx, r.db)
	_, err = q.Exec(ctx, `INSERT INTO wallets (id, workspace_id, name, group_id, balance, is_included_in_totals, sort_order, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		walletID, w.WorkspaceID, w.Name, w.GroupID, w.Balance, w.IsIncludedInTotals, w.SortOrder, w.CreatedAt.UTC(), w.UpdatedAt.UTC())
	return err
}

// FindByID fetches a wallet by identifier within a workspace.
func (r *PostgresRepository) FindByID(ctx context.Context, workspaceID, id string) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	q := storage.QuerierFrom(ctx, r.db)
	row := q.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets
        WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL`, walletID, workspaceID)
	return scanWallet(row)
}

// List returns all live wallets in a workspace ordered for display.
func (r *PostgresRepository) List(ctx context.Context, workspaceID string) ([]Wallet, error) {
	q := storage.QuerierFrom(ctx, r.db)
	rows, err := q.Query(ctx, `SELECT `+walletColumns+` FROM wallets
        WHERE workspace_id = $1 AND deleted_at IS NULL
        ORDER BY sort_order ASC, created_at ASC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// Update persists the mutable display fields of a wallet. The balance is
// deliberately not written here; only ApplyBalanceDelta touches it.
func (r *PostgresRepository) Update(ctx context.Context, w Wallet) error {
	walletID, err := uuid.Parse(w.ID)
	if err != nil {
		return ErrNotFound
	}
	q := storage.QuerierFrom(ctx, r.db)
	cmd, err := q.Exec(ctx, `UPDATE wallets
        SET name = $1, group_id = $2, is_included_in_totals = $3, sort_order = $4, updated_at = now()
        WHERE id = $5 AND workspace_id = $6 AND deleted_at IS NULL`,
		w.Name, w.GroupID, w.IsIncludedInTotals, w.SortOrder, walletID, w.WorkspaceID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks a wallet deleted. The last balance value is retained.
func (r *PostgresRepository) SoftDelete(ctx context.Context, workspaceID, id string) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	q := storage.QuerierFrom(ctx, r.db)
	cmd, err := q.Exec(ctx, `UPDATE wallets SET deleted_at = now(), updated_at = now()
        WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL`, walletID, workspaceID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyBalanceDelta adds delta to the stored balance as a single store-side
// expression, so concurrent deltas against the same wallet serialize on the
// row instead of losing updates through a read-modify-write in application
// code.
func (r *PostgresRepository) ApplyBalanceDelta(ctx context.Context, workspaceID, id string, delta decimal.Decimal) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	q := storage.QuerierFrom(ctx, r.db)
	cmd, err := q.Exec(ctx, `UPDATE wallets SET balance = balance + $1, updated_at = now()
        WHERE id = $2 AND workspace_id = $3 AND deleted_at IS NULL`, delta, walletID, workspaceID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		id        uuid.UUID
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &w.WorkspaceID, &w.Name, &w.GroupID, &w.Balance, &w.IsIncludedInTotals, &w.SortOrder, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.CreatedAt = createdAt.UTC()
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}
