package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func seedTx(t *testing.T, repo *MemoryRepository, workspaceID string, typ Type, category string, date time.Time) Transaction {
	t.Helper()
	now := time.Now().UTC()
	tx := Transaction{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		WalletID:    uuid.NewString(),
		CategoryID:  category,
		Amount:      decimal.NewFromInt(10),
		Date:        date,
		Type:        typ,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if typ == TypeTransfer {
		tx.ToWalletID = uuid.NewString()
	}
	if err := repo.Create(context.Background(), tx); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return tx
}

func TestMemoryRepositoryFilters(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	wsID := uuid.NewString()
	day := func(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }

	seedTx(t, repo, wsID, TypeIncome, "salary", day(1))
	groceries := seedTx(t, repo, wsID, TypeExpense, "groceries", day(5))
	seedTx(t, repo, wsID, TypeExpense, "groceries", day(20))
	seedTx(t, repo, wsID, TypeTransfer, "", day(10))
	seedTx(t, repo, uuid.NewString(), TypeExpense, "groceries", day(5)) // other tenant

	byType, err := repo.List(ctx, wsID, Filter{Type: TypeExpense}, 10, 0)
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if len(byType) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(byType))
	}

	from, to := day(2), day(12)
	ranged, err := repo.List(ctx, wsID, Filter{CategoryID: "groceries", DateFrom: &from, DateTo: &to}, 10, 0)
	if err != nil {
		t.Fatalf("list by range: %v", err)
	}
	if len(ranged) != 1 || ranged[0].ID != groceries.ID {
		t.Fatalf("expected only the day-5 groceries row, got %d rows", len(ranged))
	}

	total, err := repo.Count(ctx, wsID, Filter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 rows in workspace, got %d", total)
	}
}

func TestMemoryRepositoryOrdersByDateThenCreation(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	wsID := uuid.NewString()
	date := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	// Same accounting date; creation order must break the tie, newest first.
	first := seedTx(t, repo, wsID, TypeExpense, "", date)
	time.Sleep(2 * time.Millisecond)
	second := seedTx(t, repo, wsID, TypeExpense, "", date)

	rows, err := repo.List(ctx, wsID, Filter{}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ID != second.ID || rows[1].ID != first.ID {
		t.Fatal("expected newest-created row first on equal dates")
	}
}

func TestMemoryRepositorySoftDeleteHidesRow(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	wsID := uuid.NewString()
	tx := seedTx(t, repo, wsID, TypeIncome, "", time.Now().UTC())

	if err := repo.SoftDelete(ctx, wsID, tx.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, wsID, tx.ID); err != ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.SoftDelete(ctx, wsID, tx.ID); err != ErrNotFound {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
