package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxKind represents the kind of ledger record
type TxKind string

const (
	TxKindPurchase TxKind = "PURCHASE"
	TxKindMint     TxKind = "MINT"
	TxKindTransfer TxKind = "TRANSFER"
)

// TxStatus represents the settlement status of a ledger record.
// A record transitions at most once, PENDING to SUCCESS. FAILED exists in
// the taxonomy but no settlement path produces it.
type TxStatus string

const (
	TxStatusPending TxStatus = "PENDING"
	TxStatusSuccess TxStatus = "SUCCESS"
	TxStatusFailed  TxStatus = "FAILED"
)

// NullAddress is the sentinel provenance address for minted assets.
const NullAddress = "0x0000...0000"

// Transaction represents an immutable ledger entry
type Transaction struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"itemId"`
	Amount    decimal.Decimal `json:"amount"`
	Kind      TxKind          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Status    TxStatus        `json:"status"`
}

// NewIntentID returns a fresh identifier for a purchase intent.
// The mint and payout records settled from the same intent derive their
// identifiers from it, so one settlement is correlated across the ledger.
func NewIntentID() string {
	return "tx-" + uuid.NewString()
}

// MintID derives the mint record identifier for an intent.
func MintID(intentID string) string {
	return "mint-" + intentID
}

// PayoutID derives the seller payout record identifier for an intent.
func PayoutID(intentID string) string {
	return "payout-" + intentID
}

// Validate ensures the transaction adheres to domain rules
// Returns an error if validation fails
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return errors.New("transaction ID cannot be empty")
	}

	if t.ItemID == "" {
		return errors.New("transaction item ID cannot be empty")
	}

	if t.Kind != TxKindPurchase && t.Kind != TxKindMint && t.Kind != TxKindTransfer {
		return errors.New("transaction kind must be PURCHASE, MINT or TRANSFER")
	}

	if t.Status != TxStatusPending && t.Status != TxStatusSuccess && t.Status != TxStatusFailed {
		return errors.New("transaction status must be PENDING, SUCCESS or FAILED")
	}

	if t.Amount.IsNegative() {
		return errors.New("transaction amount must not be negative")
	}

	// Mint records archive the asset into platform custody; they move no funds.
	if t.Kind == TxKindMint && !t.Amount.IsZero() {
		return errors.New("mint transaction amount must be zero")
	}

	return nil
}
