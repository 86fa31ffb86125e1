package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service exposes wallet lifecycle operations. Balance mutation is not here:
// only the ledger engine applies balance deltas.
type Service struct {
	repo Repository
}

// NewService builds a wallet service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	Name               string
	GroupID            string
	InitialBalance     decimal.Decimal
	IsIncludedInTotals bool
	SortOrder          int
}

// Create provisions a wallet in the workspace. The initial balance defaults
// to zero when the input leaves it unset.
func (s *Service) Create(ctx context.Context, workspaceID string, input CreateInput) (Wallet, error) {
	now := time.Now().UTC()
	w := Wallet{
		ID:                 uuid.NewString(),
		WorkspaceID:        workspaceID,
		Name:               input.Name,
		GroupID:            input.GroupID,
		Balance:            input.InitialBalance,
		IsIncludedInTotals: input.IsIncludedInTotals,
		SortOrder:          input.SortOrder,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return Wallet{}, err
	}

	return w, nil
}

// Get retrieves a wallet by id.
func (s *Service) Get(ctx context.Context, workspaceID, id string) (Wallet, error) {
	return s.repo.FindByID(ctx, workspaceID, id)
}

// List returns all live wallets in the workspace.
func (s *Service) List(ctx context.Context, workspaceID string) ([]Wallet, error) {
	return s.repo.List(ctx, workspaceID)
}

// UpdateInput captures the mutable display fields of a wallet.
type UpdateInput struct {
	Name               string
	GroupID            string
	IsIncludedInTotals bool
	SortOrder          int
}

// Update renames or reorders a wallet.
func (s *Service) Update(ctx context.Context, workspaceID, id string, input UpdateInput) (Wallet, error) {
	w, err := s.repo.FindByID(ctx, workspaceID, id)
	if err != nil {
		return Wallet{}, err
	}

	w.Name = input.Name
	w.GroupID = input.GroupID
	w.IsIncludedInTotals = input.IsIncludedInTotals
	w.SortOrder = input.SortOrder

	if err := s.repo.Update(ctx, w); err != nil {
		return Wallet{}, err
	}

	return s.repo.FindByID(ctx, workspaceID, id)
}

// Delete soft-deletes a wallet. Existing transactions keep referencing it;
// new transactions against it are rejected because lookups exclude deleted
// rows.
func (s *Service) Delete(ctx context.Context, workspaceID, id string) error {
	return s.repo.SoftDelete(ctx, workspaceID, id)
}
