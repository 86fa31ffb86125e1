package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walletbook/walletbook/internal/storage"
	"github.com/walletbook/walletbook/internal/transaction"
	"github.com/walletbook/walletbook/internal/wallet"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Engine keeps wallet balances consistent with transaction history. It is
// the sole writer of balance deltas: every create, update and delete runs
// its transaction-row write and its balance application(s) inside one unit
// of work, so either both persist or neither does.
type Engine struct {
	wallets      wallet.Repository
	transactions transaction.Repository
	runner       storage.Runner
	logger       *slog.Logger
}

// NewEngine constructs a ledger engine over the given stores.
func NewEngine(wallets wallet.Repository, transactions transaction.Repository, runner storage.Runner, logger *slog.Logger) *Engine {
	return &Engine{wallets: wallets, transactions: transactions, runner: runner, logger: logger}
}

// CreateInput captures a new transaction event.
type CreateInput struct {
	WalletID    string
	ToWalletID  string
	CategoryID  string
	Amount      decimal.Decimal
	Date        time.Time
	Type        transaction.Type
	Description string
	Note        string
}

// UpdateInput is a patch: nil fields keep their current value.
type UpdateInput struct {
	WalletID    *string
	ToWalletID  *string
	CategoryID  *string
	Amount      *decimal.Decimal
	Date        *time.Time
	Type        *transaction.Type
	Description *string
	Note        *string
}

// Page is one page of a transaction listing.
type Page struct {
	Items      []transaction.Transaction
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// Create validates the input, inserts the transaction row and applies its
// balance effect, all in one unit of work. A missing or soft-deleted wallet
// aborts the unit and nothing persists.
func (e *Engine) Create(ctx context.Context, workspaceID string, input CreateInput) (transaction.Transaction, error) {
	now := time.Now().UTC()
	t := transaction.Transaction{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		WalletID:    input.WalletID,
		ToWalletID:  input.ToWalletID,
		CategoryID:  input.CategoryID,
		Amount:      input.Amount,
		Date:        input.Date.UTC(),
		Type:        input.Type,
		Description: input.Description,
		Note:        input.Note,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validate(t); err != nil {
		return transaction.Transaction{}, err
	}

	deltas := effect(t)
	err := e.runner.InTx(ctx, func(ctx context.Context) error {
		if err := e.transactions.Create(ctx, t); err != nil {
			return err
		}
		return e.apply(ctx, workspaceID, deltas)
	})
	if err != nil {
		return transaction.Transaction{}, e.classify("create", workspaceID, t.ID, deltas, err)
	}

	return t, nil
}

// Update edits a transaction by reversing its old balance effect and applying
// the new one, in one unit of work. Type changes, wallet reassignment and
// amount-only edits all go through this single reverse-and-reapply path.
func (e *Engine) Update(ctx context.Context, workspaceID, id string, patch UpdateInput) (transaction.Transaction, error) {
	var (
		updated   transaction.Transaction
		attempted []Delta
	)
	err := e.runner.InTx(ctx, func(ctx context.Context) error {
		old, err := e.transactions.FindByID(ctx, workspaceID, id)
		if err != nil {
			return err
		}

		next := applyPatch(old, patch)
		if err := validate(next); err != nil {
			return err
		}

		if err := e.transactions.Update(ctx, next); err != nil {
			return err
		}

		fresh, err := e.transactions.FindByID(ctx, workspaceID, id)
		if err != nil {
			return err
		}

		// Reversal and reapplication go through a single sorted pass so every
		// wallet an edit touches is locked in ascending id order. Two passes
		// would each be ordered internally but not against each other, and
		// opposing concurrent updates could deadlock.
		attempted = append(negate(effect(old)), effect(fresh)...)
		if err := e.apply(ctx, workspaceID, attempted); err != nil {
			return err
		}

		updated = fresh
		return nil
	})
	if err != nil {
		return transaction.Transaction{}, e.classify("update", workspaceID, id, attempted, err)
	}

	return updated, nil
}

// Delete soft-deletes a transaction and reverses its balance effect in one
// unit of work. A transaction that is already deleted reports not found, so
// repeated deletes can never reverse a balance twice.
func (e *Engine) Delete(ctx context.Context, workspaceID, id string) error {
	var attempted []Delta
	err := e.runner.InTx(ctx, func(ctx context.Context) error {
		old, err := e.transactions.FindByID(ctx, workspaceID, id)
		if err != nil {
			return err
		}

		if err := e.transactions.SoftDelete(ctx, workspaceID, id); err != nil {
			return err
		}

		attempted = negate(effect(old))
		return e.apply(ctx, workspaceID, attempted)
	})
	if err != nil {
		return e.classify("delete", workspaceID, id, attempted, err)
	}
	return nil
}

// Get returns a single live transaction.
func (e *Engine) Get(ctx context.Context, workspaceID, id string) (transaction.Transaction, error) {
	return e.transactions.FindByID(ctx, workspaceID, id)
}

// List returns a page of live transactions ordered by (date desc, created_at
// desc). Total and total pages come from a count under the same filter
// predicate as the page query.
func (e *Engine) List(ctx context.Context, workspaceID string, filter transaction.Filter, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	total, err := e.transactions.Count(ctx, workspaceID, filter)
	if err != nil {
		return Page{}, err
	}

	items, err := e.transactions.List(ctx, workspaceID, filter, limit, (page-1)*limit)
	if err != nil {
		return Page{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Page{Items: items, Total: total, Page: page, Limit: limit, TotalPages: totalPages}, nil
}

// apply adds each delta to its wallet balance, in ascending wallet-id order.
func (e *Engine) apply(ctx context.Context, workspaceID string, deltas []Delta) error {
	for _, d := range sortByWallet(deltas) {
		if err := e.wallets.ApplyBalanceDelta(ctx, workspaceID, d.WalletID, d.Amount); err != nil {
			return err
		}
	}
	return nil
}

// classify separates recoverable errors (validation, not found) from
// consistency failures. The latter are logged with full context before being
// surfaced, because they mark a rolled-back attempt that must not drift
// silently.
func (e *Engine) classify(op, workspaceID, txID string, deltas []Delta, err error) error {
	var ve ValidationError
	if errors.As(err, &ve) {
		return err
	}
	if errors.Is(err, wallet.ErrNotFound) || errors.Is(err, transaction.ErrNotFound) {
		return err
	}

	e.logger.Error("ledger unit of work rolled back",
		slog.String("op", op),
		slog.String("workspace_id", workspaceID),
		slog.String("transaction_id", txID),
		slog.String("deltas", formatDeltas(deltas)),
		slog.Any("error", err),
	)
	return &ConsistencyError{Op: op, WorkspaceID: workspaceID, TxID: txID, Err: err}
}

func validate(t transaction.Transaction) error {
	if !t.Type.Valid() {
		return ValidationError{Field: "type", Reason: "must be income, expense or transfer"}
	}
	if t.WalletID == "" {
		return ValidationError{Field: "wallet_id", Reason: "is required"}
	}
	if !t.Amount.IsPositive() {
		return ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if t.Type == transaction.TypeTransfer {
		if t.ToWalletID == "" {
			return ValidationError{Field: "to_wallet_id", Reason: "is required for transfers"}
		}
		if t.ToWalletID == t.WalletID {
			return ValidationError{Field: "to_wallet_id", Reason: "must differ from wallet_id"}
		}
	} else if t.ToWalletID != "" {
		return ValidationError{Field: "to_wallet_id", Reason: "is only allowed for transfers"}
	}
	return nil
}

func applyPatch(t transaction.Transaction, patch UpdateInput) transaction.Transaction {
	if patch.WalletID != nil {
		t.WalletID = *patch.WalletID
	}
	if patch.ToWalletID != nil {
		t.ToWalletID = *patch.ToWalletID
	}
	if patch.CategoryID != nil {
		t.CategoryID = *patch.CategoryID
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Date != nil {
		t.Date = patch.Date.UTC()
	}
	if patch.Type != nil {
		t.Type = *patch.Type
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Note != nil {
		t.Note = *patch.Note
	}
	// A patch that moves a transfer to income or expense drops the
	// destination wallet unless the caller set one explicitly.
	if t.Type != transaction.TypeTransfer && patch.ToWalletID == nil {
		t.ToWalletID = ""
	}
	return t
}

func formatDeltas(deltas []Delta) string {
	parts := make([]string, len(deltas))
	for i, d := range deltas {
		amount := d.Amount.String()
		if !d.Amount.IsNegative() {
			amount = "+" + amount
		}
		parts[i] = fmt.Sprintf("%s:%s", d.WalletID, amount)
	}
	return strings.Join(parts, ",")
}
