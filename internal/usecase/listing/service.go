package listing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/etheron-labs/etheron-backend/internal/domain"
	"github.com/etheron-labs/etheron-backend/internal/state"
)

// ListAssetInput represents the input for listing a new asset
type ListAssetInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       []byte // raw image bytes, fed to the appraiser
	ImageURL    string // display URL (typically a data URL of the upload)
}

// Service handles asset listing operations
type Service struct {
	store     *state.Store
	appraiser domain.Appraiser
}

// NewService creates a new listing Service instance
func NewService(store *state.Store, appraiser domain.Appraiser) *Service {
	return &Service{
		store:     store,
		appraiser: appraiser,
	}
}

// ListAsset creates a new catalog asset from an upload.
// Logic:
//  1. When name or description is missing, fill them from the appraiser's
//     Describe result
//  2. Attach the cosmetic appraisal text
//  3. Resolve the seller address from the profile
//  4. Validate and prepend to the catalog
//
// Appraiser failures degrade to the fixed fallback values; they never fail
// the listing.
func (s *Service) ListAsset(ctx context.Context, input ListAssetInput) (*domain.Asset, error) {
	if input.Price.IsNegative() {
		return nil, errors.New("asking price must not be negative")
	}

	name := input.Name
	description := input.Description
	if name == "" || description == "" {
		meta, err := s.appraiser.Describe(ctx, input.Image)
		if err != nil {
			meta = domain.FallbackMetadata()
		}
		if name == "" {
			name = meta.Title
		}
		if description == "" {
			description = meta.Description
		}
	}

	appraisal, err := s.appraiser.Appraise(ctx, input.Image, name)
	if err != nil {
		appraisal = domain.FallbackAppraisal
	}

	asset := domain.Asset{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   description,
		Price:         input.Price,
		ImageURL:      input.ImageURL,
		SellerAddress: s.store.Profile().SellerAddress(),
		CreatedAt:     time.Now(),
		Appraisal:     appraisal,
		Sold:          false,
	}

	if err := asset.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.InsertAsset(ctx, asset); err != nil {
		return nil, err
	}

	return &asset, nil
}
