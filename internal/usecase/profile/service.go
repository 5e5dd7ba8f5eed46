package profile

import (
	"context"

	"github.com/etheron-labs/etheron-backend/internal/domain"
	"github.com/etheron-labs/etheron-backend/internal/state"
)

// UpdateInput represents the input for updating the trading configuration
type UpdateInput struct {
	PayoutWallet   string
	ImportedWallet string
	DisplayName    string
}

// Service handles profile configuration operations
type Service struct {
	store *state.Store
}

// NewService creates a new profile Service instance
func NewService(store *state.Store) *Service {
	return &Service{store: store}
}

// Get returns the current trading configuration
func (s *Service) Get() domain.Profile {
	return s.store.Profile()
}

// Update replaces the trading configuration. An empty display name falls
// back to the default.
func (s *Service) Update(ctx context.Context, input UpdateInput) (domain.Profile, error) {
	p := domain.Profile{
		PayoutWallet:   input.PayoutWallet,
		ImportedWallet: input.ImportedWallet,
		DisplayName:    input.DisplayName,
	}
	if p.DisplayName == "" {
		p.DisplayName = domain.DefaultDisplayName
	}

	if err := s.store.SetProfile(ctx, p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}
