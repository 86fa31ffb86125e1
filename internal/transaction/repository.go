package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/walletbook/walletbook/internal/storage"
)

// ErrNotFound indicates the transaction does not exist, is soft-deleted, or
// belongs to a different workspace.
var ErrNotFound = errors.New("transaction not found")

// Repository persists transactions. All operations are workspace scoped and
// exclude soft-deleted rows.
type Repository interface {
	Create(ctx context.Context, t Transaction) error
	FindByID(ctx context.Context, workspaceID, id string) (Transaction, error)
	Update(ctx context.Context, t Transaction) error
	SoftDelete(ctx context.Context, workspaceID, id string) error
	List(ctx context.Context, workspaceID string, filter Filter, limit, offset int) ([]Transaction, error)
	Count(ctx context.Context, workspaceID string, filter Filter) (int64, error)
}

// PostgresRepository stores transactions in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const txColumns = `id, workspace_id, wallet_id, to_wallet_id, category_id, amount, date, type, description, note, created_at, updated_at`

// Create inserts a transaction record.
func (r *PostgresRepository) Create(ctx context.Context, t Transaction) error {
	txID, err := uuid.Parse(t.ID)
	if err != nil {
		return err
	}
	q := storage.QuerierFrom(ctx, r.db)
	_, err = q.Exec(ctx, `INSERT INTO transactions (id, workspace_id, wallet_id, to_wallet_id, category_id, amount, date, type, description, note, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		txID, t.WorkspaceID, t.WalletID, t.ToWalletID, t.CategoryID, t.Amount, t.Date.UTC(), string(t.Type), t.Description, t.Note, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	return err
}

// FindByID fetches a live transaction scoped to the workspace.
func (r *PostgresRepository) FindByID(ctx context.Context, workspaceID, id string) (Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	q := storage.QuerierFrom(ctx, r.db)
	row := q.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions
        WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL`, txID, workspaceID)
	return scanTransaction(row)
}

// Update persists the mutable fields of a transaction.
func (r *PostgresRepository) Update(ctx context.Context, t Transaction) error {
	txID, err := uuid.Parse(t.ID)
	if err != nil {
		return ErrNotFound
	}
	q := storage.QuerierFrom(ctx, r.db)
	cmd, err := q.Exec(ctx, `UPDATE transactions
        SET wallet_id = $1, to_wallet_id = $2, category_id = $3, amount = $4, date = $5, type = $6, description = $7, note = $8, updated_at = now()
        WHERE id = $9 AND workspace_id = $10 AND deleted_at IS NULL`,
		t.WalletID, t.ToWalletID, t.CategoryID, t.Amount, t.Date.UTC(), string(t.Type), t.Description, t.Note, txID, t.WorkspaceID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks a transaction deleted. A row already deleted is reported
// as not found so a second delete cannot reverse balances twice.
func (r *PostgresRepository) SoftDelete(ctx context.Context, workspaceID, id string) error {
	txID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	q := storage.QuerierFrom(ctx, r.db)
	cmd, err := q.Exec(ctx, `UPDATE transactions SET deleted_at = now(), updated_at = now()
        WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL`, txID, workspaceID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of live transactions ordered by (date desc, created_at
// desc) under the filter predicate.
func (r *PostgresRepository) List(ctx context.Context, workspaceID string, filter Filter, limit, offset int) ([]Transaction, error) {
	where, args := buildPredicate(workspaceID, filter)
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s
        ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d`, txColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	q := storage.QuerierFrom(ctx, r.db)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// Count returns the number of live transactions matching the same predicate
// List uses, so totals and pages stay consistent.
func (r *PostgresRepository) Count(ctx context.Context, workspaceID string, filter Filter) (int64, error) {
	where, args := buildPredicate(workspaceID, filter)
	q := storage.QuerierFrom(ctx, r.db)
	var total int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE `+where, args...).Scan(&total)
	return total, err
}

func buildPredicate(workspaceID string, filter Filter) (string, []any) {
	clauses := []string{"workspace_id = $1", "deleted_at IS NULL"}
	args := []any{workspaceID}

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.Type != "" {
		add("type = $%d", string(filter.Type))
	}
	if filter.WalletID != "" {
		args = append(args, filter.WalletID)
		clauses = append(clauses, fmt.Sprintf("(wallet_id = $%d OR to_wallet_id = $%d)", len(args), len(args)))
	}
	if filter.CategoryID != "" {
		add("category_id = $%d", filter.CategoryID)
	}
	if filter.DateFrom != nil {
		add("date >= $%d", filter.DateFrom.UTC())
	}
	if filter.DateTo != nil {
		add("date <= $%d", filter.DateTo.UTC())
	}

	return strings.Join(clauses, " AND "), args
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t         Transaction
		id        uuid.UUID
		typ       string
		date      time.Time
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &t.WorkspaceID, &t.WalletID, &t.ToWalletID, &t.CategoryID, &t.Amount, &date, &typ, &t.Description, &t.Note, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	t.ID = id.String()
	t.Type = Type(typ)
	t.Date = date.UTC()
	t.CreatedAt = createdAt.UTC()
	t.UpdatedAt = updatedAt.UTC()
	return t, nil
}
