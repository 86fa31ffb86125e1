package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type classifies the financial direction of a transaction. The sign of the
// balance effect is derived from the type; Amount itself stays positive.
type Type string

const (
	TypeIncome   Type = "income"
	TypeExpense  Type = "expense"
	TypeTransfer Type = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t Type) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// Transaction is a single financial event recorded against one wallet, or two
// for transfers. Rows are soft-deleted; a deleted row keeps its data for
// history but carries no balance effect.
type Transaction struct {
	ID          string
	WorkspaceID string
	WalletID    string
	ToWalletID  string // set only for transfers
	CategoryID  string // informational, no ledger effect
	Amount      decimal.Decimal
	Date        time.Time // accounting date, distinct from CreatedAt
	Type        Type
	Description string
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// Filter narrows transaction listings. Zero-valued fields are ignored.
type Filter struct {
	Type       Type
	WalletID   string // matches source or destination
	CategoryID string
	DateFrom   *time.Time
	DateTo     *time.Time
}
