package settlement

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/etheron-labs/etheron-backend/internal/adapter/docstore/memory"
	"github.com/etheron-labs/etheron-backend/internal/domain"
	"github.com/etheron-labs/etheron-backend/internal/state"
)

const testTreasury = "0xTREASURY"

// MockPublisher is a mock implementation of SettlementPublisher for testing
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishSettlement(ctx context.Context, records []domain.Transaction) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *state.Store) {
	t.Helper()

	store := state.NewStore(memory.NewStore())
	require.NoError(t, store.Load(context.Background()))

	if cfg.TreasuryAddress == "" {
		cfg.TreasuryAddress = testTreasury
	}
	return NewEngine(store, nil, cfg), store
}

func seedAsset(t *testing.T, store *state.Store, id string, price int64, sold bool) {
	t.Helper()
	require.NoError(t, store.InsertAsset(context.Background(), domain.Asset{
		ID:            id,
		Name:          "Asset " + id,
		Price:         decimal.NewFromInt(price),
		SellerAddress: "0xSELL",
		Sold:          sold,
	}))
}

func seedIdentity(t *testing.T, store *state.Store, wallet string) {
	t.Helper()
	require.NoError(t, store.SetProfile(context.Background(), domain.Profile{
		ImportedWallet: wallet,
		DisplayName:    "Trader",
	}))
}

func TestStagePurchase_StandardFlow(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, Config{})
	seedIdentity(t, store, "0xBUY")
	seedAsset(t, store, "a1", 100, false)

	record, err := engine.StagePurchase(ctx, "a1")

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, domain.TxKindPurchase, record.Kind)
	assert.Equal(t, domain.TxStatusPending, record.Status)
	assert.Equal(t, "a1", record.ItemID)
	assert.True(t, decimal.NewFromInt(100).Equal(record.Amount))
	assert.Equal(t, "0xBUY", record.From)
	assert.Equal(t, testTreasury, record.To)

	staged, ok := engine.Staged()
	require.True(t, ok)
	assert.Equal(t, record.ID, staged.ID)

	// Staging touches neither the ledger nor the catalog
	assert.Empty(t, store.Ledger())
	asset, _ := store.FindAsset("a1")
	assert.False(t, asset.Sold)
}

func TestStagePurchase_NoIdentity(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, Config{})
	seedAsset(t, store, "a1", 100, false)

	record, err := engine.StagePurchase(ctx, "a1")

	assert.ErrorIs(t, err, domain.ErrNoIdentity)
	assert.Nil(t, record)
	_, ok := engine.Staged()
	assert.False(t, ok)
}

func TestStagePurchase_UnknownAsset(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, Config{})
	seedIdentity(t, store, "0xBUY")

	_, err := engine.StagePurchase(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

func TestStagePurchase_SoldAssetRejected(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, Config{})
	seedIdentity(t, store, "0xBUY")
	seedAsset(t, store, "a1", 100, true)

	record, err := engine.StagePurchase(ctx, "a1")

	assert.ErrorIs(t, err, domain.ErrAssetSold)
	assert.Nil(t, record)
	assert.Empty(t, store.Ledger())
}

func TestStagePurchase_SecondStageReplacesFirst(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, Config{})
	seedIdentity(t, store, "0xBUY")
	seedAsset(t, store, "a1", 100, false)
	seedAsset(t, store, "a2", 200, false)

	first, err := engine.StagePurchase(ctx, "a1")
	require.NoError(t, err)
	second, err := engine.StagePurchase(ctx, "a2")
	require.NoError(t, err)

	staged, ok := engine.Staged()
	require.True(t, ok)
	assert.Equal(t, second.ID, staged.ID)
	assert.NotEqual(t, first.ID, staged.ID)
}

func TestConfirmPurchase_WithSellerPayout(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, Config{SellerPayout: true})
	seedIdentity(t, store, "0xBUY")
	seedAsset(t, store, "a1", 100, false)

	staged, err := engine.StagePurchase(ctx, "a1")
	require.NoError(t, err)

	result, err := engine.ConfirmPurchase(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)

	// Newest-first: MINT, TRANSFER, PURCHASE, correlated to the intent
	require.Len(t, result.Records, 3)

	mint := result.Records[0]
	assert.Equal(t, domain.TxKindMint, mint.Kind)
	assert.Equal(t, domain.MintID(staged.ID), mint.ID)
	assert.True(t, mint.Amount.IsZero())
	assert.Equal(t, domain.NullAddress, mint.From)
	assert.Equal(t, testTreasury, mint.To)
	assert.Equal(t, domain.TxStatusSuccess, mint.Status)

	payout := result.Records[1]
	assert.Equal(t, domain.TxKindTransfer, payout.Kind)
	assert.Equal(t, domain.PayoutID(staged.ID), payout.ID)
	assert.True(t, decimal.NewFromInt(100).Equal(payout.Amount))
	assert.Equal(t, testTreasury, payout.From)
	assert.Equal(t, "0xSELL", payout.To)
	assert.Equal(t, domain.TxStatusSuccess, payout.Status)

	purchase := result.Records[2]
	assert.Equal(t, domain.TxKindPurchase, purchase.Kind)
	assert.Equal(t, staged.ID, purchase.ID)
	assert.True(t, decimal.NewFromInt(100).Equal(purchase.Amount))
	assert.Equal(t, domain.TxStatusSuccess, purchase.Status)

	// The ledger gained the records as a contiguous prefix and the asset
	// ownership mutated in the same step
	ledger := store.Ledger()
	require.Len(t, ledger, 3)
	assert.Equal(t, mint.ID, ledger[0].ID)
	assert.Equal(t, payout.ID, ledger[1].ID)
	assert.Equal(t, purchase.ID, ledger[2].ID)

	asset, found := store.FindAsset("a1")
	require.True(t, found)
	assert.True(t, asset.Sold)
	assert.True(t, result.Asset.Sold)

	// The intent slot folded back for the next trade
	_, ok := engine.Staged()
	assert.False(t, ok)
}

func TestConfirmPurchase_TreasuryOnlyVariant(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, Config{SellerPayout: false})
	seedIdentity(t, store, "0xBUY")
	seedAsset(t, store, "a1", 100, false)

	_, err := engine.StagePurchase(ctx, "a1")
	require.NoError(t, err)

	result, err := engine.ConfirmPurchase(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)

	// No payout leg: MINT then PURCHASE only
	require.Len(t, result.Records, 2)
	assert.Equal(t, domain.TxKindMint, result.Records[0].Kind)
	assert.Equal(t, domain.TxKindPurchase, result.Records[1].Kind)
}

func TestConfirmPurchase_NoStagedIntentIsNoOp(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, Config{})

	result, err := engine.ConfirmPurchase(ctx)

	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, store.Ledger())
}

func TestConfirmPurchase_VanishedAssetDiscardsIntent(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, Config{})
	seedIdentity(t, store, "0xBUY")

	// Stage directly against an asset that is about to vanish
	require.NoError(t, store.Stage(domain.Transaction{
		ID:     domain.NewIntentID(),
		ItemID: "ghost",
		Kind:   domain.TxKindPurchase,
		Status: domain.TxStatusPending,
	}))

	result, err := engine.ConfirmPurchase(ctx)

	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
	assert.Nil(t, result)
	assert.Empty(t, store.Ledger())
	_, ok := engine.Staged()
	assert.False(t, ok)
}

func TestCancelPurchase_LeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, Config{})
	seedIdentity(t, store, "0xBUY")
	seedAsset(t, store, "a1", 100, false)

	catalogBefore := store.Catalog()
	ledgerBefore := store.Ledger()

	_, err := engine.StagePurchase(ctx, "a1")
	require.NoError(t, err)
	require.NoError(t, engine.CancelPurchase())

	assert.Equal(t, catalogBefore, store.Catalog())
	assert.Equal(t, ledgerBefore, store.Ledger())
	_, ok := engine.Staged()
	assert.False(t, ok)

	// Cancelling again is a no-op
	assert.NoError(t, engine.CancelPurchase())
}

func TestConfirmPurchase_PublishesRecords(t *testing.T) {
	ctx := context.Background()
	store := state.NewStore(memory.NewStore())
	require.NoError(t, store.Load(ctx))
	seedIdentity(t, store, "0xBUY")
	seedAsset(t, store, "a1", 100, false)

	mockPublisher := new(MockPublisher)
	engine := NewEngine(store, mockPublisher, Config{TreasuryAddress: testTreasury, SellerPayout: true})

	mockPublisher.On("PublishSettlement", ctx, mock.MatchedBy(func(records []domain.Transaction) bool {
		return len(records) == 3 &&
			records[0].Kind == domain.TxKindMint &&
			records[1].Kind == domain.TxKindTransfer &&
			records[2].Kind == domain.TxKindPurchase
	})).Return(nil)

	_, err := engine.StagePurchase(ctx, "a1")
	require.NoError(t, err)
	_, err = engine.ConfirmPurchase(ctx)
	require.NoError(t, err)

	mockPublisher.AssertExpectations(t)
}

func TestConfirmPurchase_PublishFailureDoesNotFailSettlement(t *testing.T) {
	ctx := context.Background()
	store := state.NewStore(memory.NewStore())
	require.NoError(t, store.Load(ctx))
	seedIdentity(t, store, "0xBUY")
	seedAsset(t, store, "a1", 100, false)

	mockPublisher := new(MockPublisher)
	mockPublisher.On("PublishSettlement", mock.Anything, mock.Anything).
		Return(assert.AnError)

	engine := NewEngine(store, mockPublisher, Config{TreasuryAddress: testTreasury})

	_, err := engine.StagePurchase(ctx, "a1")
	require.NoError(t, err)

	result, err := engine.ConfirmPurchase(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)

	asset, _ := store.FindAsset("a1")
	assert.True(t, asset.Sold)
	mockPublisher.AssertExpectations(t)
}
