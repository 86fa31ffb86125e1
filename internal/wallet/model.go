package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a named balance-holding account within a workspace (cash, bank
// account, card). Its balance is mutated exclusively through the ledger
// engine's delta application, never assigned directly.
type Wallet struct {
	ID                 string
	WorkspaceID        string
	Name               string
	GroupID            string
	Balance            decimal.Decimal
	IsIncludedInTotals bool
	SortOrder          int
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}
