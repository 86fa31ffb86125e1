package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/walletbook/walletbook/internal/transaction"
)

// ValidationError reports malformed ledger input. No store writes are
// attempted when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConsistencyError wraps a failure that occurred inside a ledger unit of
// work after writes had begun. The unit is rolled back in full; this error
// must never be swallowed because it marks an attempt that would have left
// a wallet balance out of step with its transaction history.
type ConsistencyError struct {
	Op          string
	WorkspaceID string
	TxID        string
	Err         error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("ledger %s for transaction %s in workspace %s: %v", e.Op, e.TxID, e.WorkspaceID, e.Err)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}

// Delta is the signed amount the ledger adds to one wallet's balance as the
// effect of a transaction.
type Delta struct {
	WalletID string
	Amount   decimal.Decimal
}

// effect computes the balance deltas implied by a transaction:
// income +amount on the source wallet, expense -amount on the source wallet,
// transfer -amount on the source and +amount on the destination.
func effect(t transaction.Transaction) []Delta {
	switch t.Type {
	case transaction.TypeIncome:
		return []Delta{{WalletID: t.WalletID, Amount: t.Amount}}
	case transaction.TypeExpense:
		return []Delta{{WalletID: t.WalletID, Amount: t.Amount.Neg()}}
	case transaction.TypeTransfer:
		return []Delta{
			{WalletID: t.WalletID, Amount: t.Amount.Neg()},
			{WalletID: t.ToWalletID, Amount: t.Amount},
		}
	}
	return nil
}

// negate inverts a set of deltas, undoing the effect they came from.
func negate(deltas []Delta) []Delta {
	out := make([]Delta, len(deltas))
	for i, d := range deltas {
		out[i] = Delta{WalletID: d.WalletID, Amount: d.Amount.Neg()}
	}
	return out
}

// sortByWallet orders deltas by ascending wallet id. Applying them in a fixed
// global order keeps opposing concurrent transfers from deadlocking on each
// other's row locks.
func sortByWallet(deltas []Delta) []Delta {
	sort.Slice(deltas, func(i, j int) bool {
		return deltas[i].WalletID < deltas[j].WalletID
	})
	return deltas
}
