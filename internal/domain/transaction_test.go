package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
		errMsg  string
	}{
		{
			name: "Pending purchase should pass",
			tx: Transaction{
				ID:        "tx-1",
				ItemID:    "a1",
				Amount:    decimal.NewFromInt(100),
				Kind:      TxKindPurchase,
				Timestamp: time.Now(),
				From:      "0xBUY",
				To:        "0xTREASURY",
				Status:    TxStatusPending,
			},
			wantErr: false,
		},
		{
			name: "Zero-amount mint should pass",
			tx: Transaction{
				ID:     "mint-tx-1",
				ItemID: "a1",
				Amount: decimal.Zero,
				Kind:   TxKindMint,
				From:   NullAddress,
				To:     "0xTREASURY",
				Status: TxStatusSuccess,
			},
			wantErr: false,
		},
		{
			name: "Mint moving funds should fail",
			tx: Transaction{
				ID:     "mint-tx-2",
				ItemID: "a1",
				Amount: decimal.NewFromInt(1),
				Kind:   TxKindMint,
				Status: TxStatusSuccess,
			},
			wantErr: true,
			errMsg:  "mint transaction amount must be zero",
		},
		{
			name: "Unknown kind should fail",
			tx: Transaction{
				ID:     "tx-2",
				ItemID: "a1",
				Kind:   TxKind("BURN"),
				Status: TxStatusPending,
			},
			wantErr: true,
			errMsg:  "transaction kind must be PURCHASE, MINT or TRANSFER",
		},
		{
			name: "Unknown status should fail",
			tx: Transaction{
				ID:     "tx-3",
				ItemID: "a1",
				Kind:   TxKindPurchase,
				Status: TxStatus("MAYBE"),
			},
			wantErr: true,
			errMsg:  "transaction status must be PENDING, SUCCESS or FAILED",
		},
		{
			name: "Negative amount should fail",
			tx: Transaction{
				ID:     "tx-4",
				ItemID: "a1",
				Amount: decimal.NewFromInt(-10),
				Kind:   TxKindTransfer,
				Status: TxStatusSuccess,
			},
			wantErr: true,
			errMsg:  "transaction amount must not be negative",
		},
		{
			name: "Missing item reference should fail",
			tx: Transaction{
				ID:     "tx-5",
				Kind:   TxKindPurchase,
				Status: TxStatusPending,
			},
			wantErr: true,
			errMsg:  "transaction item ID cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDerivedIDs(t *testing.T) {
	intentID := NewIntentID()

	assert.True(t, strings.HasPrefix(intentID, "tx-"))
	assert.Equal(t, "mint-"+intentID, MintID(intentID))
	assert.Equal(t, "payout-"+intentID, PayoutID(intentID))

	// Fresh intents never collide
	assert.NotEqual(t, intentID, NewIntentID())
}
