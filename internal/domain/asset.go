package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Asset represents a digital image listed on the marketplace.
type Asset struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"imageUrl"`
	SellerAddress string          `json:"sellerAddress"`
	CreatedAt     time.Time       `json:"createdAt"`
	Appraisal     string          `json:"aiAppraisal,omitempty"`
	Sold          bool            `json:"isSold"`
}

// Validate ensures the asset adheres to domain rules
// Returns an error if validation fails
func (a *Asset) Validate() error {
	if a.ID == "" {
		return errors.New("asset ID cannot be empty")
	}

	if a.Name == "" {
		return errors.New("asset name cannot be empty")
	}

	// Prices are human-entered and denominated in ETHO; zero is a valid
	// giveaway listing, negative is not.
	if a.Price.IsNegative() {
		return errors.New("asset price must not be negative")
	}

	return nil
}
