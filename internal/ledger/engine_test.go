package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walletbook/walletbook/internal/logging"
	"github.com/walletbook/walletbook/internal/storage"
	"github.com/walletbook/walletbook/internal/transaction"
	"github.com/walletbook/walletbook/internal/wallet"
)

func newTestEngine(t *testing.T) (*Engine, *wallet.MemoryRepository, *transaction.MemoryRepository) {
	t.Helper()
	wallets := wallet.NewMemoryRepository()
	transactions := transaction.NewMemoryRepository()
	runner := storage.NewMemoryRunner(wallets, transactions)
	return NewEngine(wallets, transactions, runner, logging.Discard()), wallets, transactions
}

func seedWallet(t *testing.T, wallets *wallet.MemoryRepository, workspaceID, name, balance string) wallet.Wallet {
	t.Helper()
	bal, err := decimal.NewFromString(balance)
	if err != nil {
		t.Fatalf("parse balance: %v", err)
	}
	now := time.Now().UTC()
	w := wallet.Wallet{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        name,
		Balance:     bal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := wallets.Create(context.Background(), w); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	return w
}

func balanceOf(t *testing.T, wallets *wallet.MemoryRepository, workspaceID, id string) decimal.Decimal {
	t.Helper()
	w, err := wallets.FindByID(context.Background(), workspaceID, id)
	if err != nil {
		t.Fatalf("find wallet: %v", err)
	}
	return w.Balance
}

func amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse amount %q: %v", s, err)
	}
	return d
}

var testDate = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestCreateIncomeIncreasesBalance(t *testing.T) {
	engine, wallets, _ := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	w := seedWallet(t, wallets, wsID, "checking", "0")

	_, err := engine.Create(ctx, wsID, CreateInput{
		WalletID: w.ID,
		Amount:   amount(t, "100"),
		Date:     testDate,
		Type:     transaction.TypeIncome,
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}

	if got := balanceOf(t, wallets, wsID, w.ID); !got.Equal(amount(t, "100")) {
		t.Fatalf("expected balance 100, got %s", got)
	}
}

func TestCreateExpenseDecreasesBalance(t *testing.T) {
	engine, wallets, _ := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	w := seedWallet(t, wallets, wsID, "checking", "100")

	_, err := engine.Create(ctx, wsID, CreateInput{
		WalletID: w.ID,
		Amount:   amount(t, "40"),
		Date:     testDate,
		Type:     transaction.TypeExpense,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	if got := balanceOf(t, wallets, wsID, w.ID); !got.Equal(amount(t, "60")) {
		t.Fatalf("expected balance 60, got %s", got)
	}
}

func TestCreateTransferMovesFundsBetweenWallets(t *testing.T) {
	engine, wallets, _ := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	a := seedWallet(t, wallets, wsID, "a", "50")
	b := seedWallet(t, wallets, wsID, "b", "10")

	_, err := engine.Create(ctx, wsID, CreateInput{
		WalletID:   a.ID,
		ToWalletID: b.ID,
		Amount:     amount(t, "30"),
		Date:       testDate,
		Type:       transaction.TypeTransfer,
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	if got := balanceOf(t, wallets, wsID, a.ID); !got.Equal(amount(t, "20")) {
		t.Fatalf("expected source balance 20, got %s", got)
	}
	if got := balanceOf(t, wallets, wsID, b.ID); !got.Equal(amount(t, "40")) {
		t.Fatalf("expected destination balance 40, got %s", got)
	}
}

func TestTransferRollsBackWhenDestinationMissing(t *testing.T) {
	engine, wallets, transactions := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	a := seedWallet(t, wallets, wsID, "a", "50")

	_, err := engine.Create(ctx, wsID, CreateInput{
		WalletID:   a.ID,
		ToWalletID: uuid.NewString(),
		Amount:     amount(t, "30"),
		Date:       testDate,
		Type:       transaction.TypeTransfer,
	})
	if !errors.Is(err, wallet.ErrNotFound) {
		t.Fatalf("expected wallet not found, got %v", err)
	}

	// The whole unit rolled back: source untouched, no row persisted.
	if got := balanceOf(t, wallets, wsID, a.ID); !got.Equal(amount(t, "50")) {
		t.Fatalf("expected source balance 50 after rollback, got %s", got)
	}
	total, err := transactions.Count(ctx, wsID, transaction.Filter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected no persisted transactions, got %d", total)
	}
}

func TestUpdateAmountReversesOldEffect(t *testing.T) {
	engine, wallets, _ := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	w := seedWallet(t, wallets, wsID, "checking", "100")

	created, err := engine.Create(ctx, wsID, CreateInput{
		WalletID: w.ID,
		Amount:   amount(t, "40"),
		Date:     testDate,
		Type:     transaction.TypeExpense,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	newAmount := amount(t, "25")
	updated, err := engine.Update(ctx, wsID, created.ID, UpdateInput{Amount: &newAmount})
	if err != nil {
		t.Fatalf("update amount: %v", err)
	}
	if !updated.Amount.Equal(newAmount) {
		t.Fatalf("expected updated amount 25, got %s", updated.Amount)
	}

	// 100 - 40 + 40 - 25, not 60 - 25.
	if got := balanceOf(t, wallets, wsID, w.ID); !got.Equal(amount(t, "75")) {
		t.Fatalf("expected balance 75, got %s", got)
	}
}

func TestUpdateTypeChangeSwapsDirection(t *testing.T) {
	engine, wallets, _ := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	w := seedWallet(t, wallets, wsID, "checking", "100")

	created, err := engine.Create(ctx, wsID, CreateInput{
		WalletID: w.ID,
		Amount:   amount(t, "20"),
		Date:     testDate,
		Type:     transaction.TypeExpense,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	income := transaction.TypeIncome
	if _, err := engine.Update(ctx, wsID, created.ID, UpdateInput{Type: &income}); err != nil {
		t.Fatalf("update type: %v", err)
	}

	// Undo -20, apply +20: net +40 from the post-expense balance of 80.
	if got := balanceOf(t, wallets, wsID, w.ID); !got.Equal(amount(t, "120")) {
		t.Fatalf("expected balance 120, got %s", got)
	}
}

func TestUpdateWalletReassignmentMovesEffect(t *testing.T) {
	engine, wallets, _ := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	a := seedWallet(t, wallets, wsID, "a", "100")
	b := seedWallet(t, wallets, wsID, "b", "100")

	created, err := engine.Create(ctx, wsID, CreateInput{
		WalletID: a.ID,
		Amount:   amount(t, "30"),
		Date:     testDate,
		Type:     transaction.TypeExpense,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	if _, err := engine.Update(ctx, wsID, created.ID, UpdateInput{WalletID: &b.ID}); err != nil {
		t.Fatalf("reassign wallet: %v", err)
	}

	if got := balanceOf(t, wallets, wsID, a.ID); !got.Equal(amount(t, "100")) {
		t.Fatalf("expected old wallet restored to 100, got %s", got)
	}
	if got := balanceOf(t, wallets, wsID, b.ID); !got.Equal(amount(t, "70")) {
		t.Fatalf("expected new wallet at 70, got %s", got)
	}
}

func TestUpdateRollsBackWhenNewWalletMissing(t *testing.T) {
	engine, wallets, _ := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	w := seedWallet(t, wallets, wsID, "checking", "100")

	created, err := engine.Create(ctx, wsID, CreateInput{
		WalletID: w.ID,
		Amount:   amount(t, "40"),
		Date:     testDate,
		Type:     transaction.TypeExpense,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	missing := uuid.NewString()
	_, err = engine.Update(ctx, wsID, created.ID, UpdateInput{WalletID: &missing})
	if !errors.Is(err, wallet.ErrNotFound) {
		t.Fatalf("expected wallet not found, got %v", err)
	}

	// The whole unit rolled back: the reversal was undone with it and the
	// row still points at the original wallet.
	if got := balanceOf(t, wallets, wsID, w.ID); !got.Equal(amount(t, "60")) {
		t.Fatalf("expected balance still 60 after rollback, got %s", got)
	}
	fetched, err := engine.Get(ctx, wsID, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.WalletID != w.ID {
		t.Fatalf("expected row still on wallet %s, got %s", w.ID, fetched.WalletID)
	}
}

type deltaOrderRecorder struct {
	*wallet.MemoryRepository
	order []string
}

func (r *deltaOrderRecorder) ApplyBalanceDelta(ctx context.Context, workspaceID, id string, delta decimal.Decimal) error {
	r.order = append(r.order, id)
	return r.MemoryRepository.ApplyBalanceDelta(ctx, workspaceID, id, delta)
}

func TestUpdateAppliesDeltasInAscendingWalletOrder(t *testing.T) {
	recorder := &deltaOrderRecorder{MemoryRepository: wallet.NewMemoryRepository()}
	transactions := transaction.NewMemoryRepository()
	runner := storage.NewMemoryRunner(recorder.MemoryRepository, transactions)
	engine := NewEngine(recorder, transactions, runner, logging.Discard())

	ctx := context.Background()
	wsID := uuid.NewString()
	a := seedWallet(t, recorder.MemoryRepository, wsID, "a", "100")
	b := seedWallet(t, recorder.MemoryRepository, wsID, "b", "100")
	c := seedWallet(t, recorder.MemoryRepository, wsID, "c", "100")

	created, err := engine.Create(ctx, wsID, CreateInput{
		WalletID:   a.ID,
		ToWalletID: b.ID,
		Amount:     amount(t, "30"),
		Date:       testDate,
		Type:       transaction.TypeTransfer,
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	// Reversal touches a and b, reapplication touches c and a. All four
	// deltas must land as one ascending sequence, not two ordered halves.
	recorder.order = nil
	if _, err := engine.Update(ctx, wsID, created.ID, UpdateInput{WalletID: &c.ID, ToWalletID: &a.ID}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(recorder.order) != 4 {
		t.Fatalf("expected 4 delta applications, got %d", len(recorder.order))
	}
	if !sort.StringsAreSorted(recorder.order) {
		t.Fatalf("expected ascending wallet order, got %v", recorder.order)
	}
}

func TestTransferBecomingExpenseReleasesDestination(t *testing.T) {
	engine, wallets, _ := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	a := seedWallet(t, wallets, wsID, "a", "100")
	b := seedWallet(t, wallets, wsID, "b", "10")

	created, err := engine.Create(ctx, wsID, CreateInput{
		WalletID:   a.ID,
		ToWalletID: b.ID,
		Amount:     amount(t, "25"),
		Date:       testDate,
		Type:       transaction.TypeTransfer,
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	expense := transaction.TypeExpense
	updated, err := engine.Update(ctx, wsID, created.ID, UpdateInput{Type: &expense})
	if err != nil {
		t.Fatalf("update to expense: %v", err)
	}
	if updated.ToWalletID != "" {
		t.Fatalf("expected destination cleared, got %q", updated.ToWalletID)
	}

	// A stays at 75 (still an outflow of 25); B returns to its pre-transfer 10.
	if got := balanceOf(t, wallets, wsID, a.ID); !got.Equal(amount(t, "75")) {
		t.Fatalf("expected source balance 75, got %s", got)
	}
	if got := balanceOf(t, wallets, wsID, b.ID); !got.Equal(amount(t, "10")) {
		t.Fatalf("expected destination balance 10, got %s", got)
	}
}

func TestDeleteReversesEffectOnce(t *testing.T) {
	engine, wallets, _ := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	w := seedWallet(t, wallets, wsID, "checking", "100")

	created, err := engine.Create(ctx, wsID, CreateInput{
		WalletID: w.ID,
		Amount:   amount(t, "40"),
		Date:     testDate,
		Type:     transaction.TypeExpense,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	if err := engine.Delete(ctx, wsID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := balanceOf(t, wallets, wsID, w.ID); !got.Equal(amount(t, "100")) {
		t.Fatalf("expected balance restored to 100, got %s", got)
	}

	// Second delete must not reverse again.
	if err := engine.Delete(ctx, wsID, created.ID); !errors.Is(err, transaction.ErrNotFound) {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
	if got := balanceOf(t, wallets, wsID, w.ID); !got.Equal(amount(t, "100")) {
		t.Fatalf("expected balance unchanged at 100, got %s", got)
	}
}

func TestValidationRejectsWithoutWrites(t *testing.T) {
	engine, wallets, transactions := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	w := seedWallet(t, wallets, wsID, "checking", "100")

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"zero amount", CreateInput{WalletID: w.ID, Amount: decimal.Zero, Date: testDate, Type: transaction.TypeIncome}},
		{"negative amount", CreateInput{WalletID: w.ID, Amount: amount(t, "-5"), Date: testDate, Type: transaction.TypeExpense}},
		{"transfer to self", CreateInput{WalletID: w.ID, ToWalletID: w.ID, Amount: amount(t, "5"), Date: testDate, Type: transaction.TypeTransfer}},
		{"transfer without destination", CreateInput{WalletID: w.ID, Amount: amount(t, "5"), Date: testDate, Type: transaction.TypeTransfer}},
		{"destination on income", CreateInput{WalletID: w.ID, ToWalletID: uuid.NewString(), Amount: amount(t, "5"), Date: testDate, Type: transaction.TypeIncome}},
		{"unknown type", CreateInput{WalletID: w.ID, Amount: amount(t, "5"), Date: testDate, Type: "refund"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Create(ctx, wsID, tc.input)
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if got := balanceOf(t, wallets, wsID, w.ID); !got.Equal(amount(t, "100")) {
		t.Fatalf("expected balance untouched at 100, got %s", got)
	}
	total, err := transactions.Count(ctx, wsID, transaction.Filter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected no rows written, got %d", total)
	}
}

func TestSoftDeletedWalletRejectsNewTransactions(t *testing.T) {
	engine, wallets, _ := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	w := seedWallet(t, wallets, wsID, "old card", "35")

	if err := wallets.SoftDelete(ctx, wsID, w.ID); err != nil {
		t.Fatalf("soft delete wallet: %v", err)
	}

	_, err := engine.Create(ctx, wsID, CreateInput{
		WalletID: w.ID,
		Amount:   amount(t, "10"),
		Date:     testDate,
		Type:     transaction.TypeIncome,
	})
	if !errors.Is(err, wallet.ErrNotFound) {
		t.Fatalf("expected wallet not found, got %v", err)
	}
}

func TestCrossWorkspaceAccessIsNotFound(t *testing.T) {
	engine, wallets, _ := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	otherWS := uuid.NewString()
	w := seedWallet(t, wallets, wsID, "checking", "100")

	created, err := engine.Create(ctx, wsID, CreateInput{
		WalletID: w.ID,
		Amount:   amount(t, "10"),
		Date:     testDate,
		Type:     transaction.TypeExpense,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := engine.Get(ctx, otherWS, created.ID); !errors.Is(err, transaction.ErrNotFound) {
		t.Fatalf("expected not found across workspaces, got %v", err)
	}
	if err := engine.Delete(ctx, otherWS, created.ID); !errors.Is(err, transaction.ErrNotFound) {
		t.Fatalf("expected delete not found across workspaces, got %v", err)
	}
}

func TestListPagination(t *testing.T) {
	engine, wallets, _ := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	w := seedWallet(t, wallets, wsID, "checking", "0")

	// 45 income events on distinct days; newest date sorts first.
	for i := 0; i < 45; i++ {
		_, err := engine.Create(ctx, wsID, CreateInput{
			WalletID:    w.ID,
			Amount:      amount(t, "1"),
			Date:        testDate.AddDate(0, 0, i),
			Type:        transaction.TypeIncome,
			Description: fmt.Sprintf("day %d", i),
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	page, err := engine.List(ctx, wsID, transaction.Filter{}, 2, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if page.Total != 45 {
		t.Fatalf("expected total 45, got %d", page.Total)
	}
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", page.TotalPages)
	}
	if len(page.Items) != 20 {
		t.Fatalf("expected 20 items, got %d", len(page.Items))
	}
	// Page 2 holds items 21-40 of the date-descending order: days 24 down to 5.
	if page.Items[0].Description != "day 24" {
		t.Fatalf("expected first item 'day 24', got %q", page.Items[0].Description)
	}
	if page.Items[19].Description != "day 5" {
		t.Fatalf("expected last item 'day 5', got %q", page.Items[19].Description)
	}
}

func TestBalanceMatchesTransactionHistory(t *testing.T) {
	engine, wallets, transactions := newTestEngine(t)
	ctx := context.Background()
	wsID := uuid.NewString()
	a := seedWallet(t, wallets, wsID, "a", "0")
	b := seedWallet(t, wallets, wsID, "b", "0")

	var created []transaction.Transaction
	mk := func(input CreateInput) {
		t.Helper()
		tx, err := engine.Create(ctx, wsID, input)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		created = append(created, tx)
	}

	mk(CreateInput{WalletID: a.ID, Amount: amount(t, "500"), Date: testDate, Type: transaction.TypeIncome})
	mk(CreateInput{WalletID: a.ID, Amount: amount(t, "120.50"), Date: testDate, Type: transaction.TypeExpense})
	mk(CreateInput{WalletID: a.ID, ToWalletID: b.ID, Amount: amount(t, "60.25"), Date: testDate, Type: transaction.TypeTransfer})
	mk(CreateInput{WalletID: b.ID, Amount: amount(t, "14.99"), Date: testDate, Type: transaction.TypeExpense})

	newAmount := amount(t, "99.50")
	if _, err := engine.Update(ctx, wsID, created[1].ID, UpdateInput{Amount: &newAmount}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := engine.Delete(ctx, wsID, created[3].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Recompute each balance from the surviving history and compare.
	for _, w := range []wallet.Wallet{a, b} {
		live, err := transactions.List(ctx, wsID, transaction.Filter{WalletID: w.ID}, 100, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		sum := decimal.Zero
		for _, tx := range live {
			switch {
			case tx.Type == transaction.TypeIncome && tx.WalletID == w.ID:
				sum = sum.Add(tx.Amount)
			case tx.Type == transaction.TypeExpense && tx.WalletID == w.ID:
				sum = sum.Sub(tx.Amount)
			case tx.Type == transaction.TypeTransfer && tx.WalletID == w.ID:
				sum = sum.Sub(tx.Amount)
			case tx.Type == transaction.TypeTransfer && tx.ToWalletID == w.ID:
				sum = sum.Add(tx.Amount)
			}
		}
		if got := balanceOf(t, wallets, wsID, w.ID); !got.Equal(sum) {
			t.Fatalf("wallet %s balance %s diverged from history sum %s", w.Name, got, sum)
		}
	}
}
