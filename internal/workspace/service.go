package workspace

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidSecret indicates the presented workspace secret did not match.
var ErrInvalidSecret = errors.New("invalid workspace secret")

// Service manages workspace lifecycle and authentication.
type Service struct {
	repo Repository
}

// NewService creates a new workspace service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create provisions a workspace and returns it together with the access
// secret. The plain secret is only available here; the store keeps a bcrypt
// hash.
func (s *Service) Create(ctx context.Context, name string) (Workspace, string, error) {
	if name == "" {
		return Workspace{}, "", errors.New("workspace name is required")
	}

	secret := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return Workspace{}, "", err
	}

	ws := Workspace{
		ID:         uuid.NewString(),
		Name:       name,
		SecretHash: hash,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, ws); err != nil {
		return Workspace{}, "", err
	}

	return ws, secret, nil
}

// Authenticate verifies the secret for a workspace and returns the workspace
// on success.
func (s *Service) Authenticate(ctx context.Context, id, secret string) (Workspace, error) {
	ws, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Workspace{}, err
	}

	if err := bcrypt.CompareHashAndPassword(ws.SecretHash, []byte(secret)); err != nil {
		return Workspace{}, ErrInvalidSecret
	}

	return ws, nil
}
