package settlement

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/etheron-labs/etheron-backend/internal/domain"
	"github.com/etheron-labs/etheron-backend/internal/state"
)

// Config carries the deployment policy for the settlement engine
type Config struct {
	// TreasuryAddress is the platform's custodial destination for purchase
	// funds and minted assets.
	TreasuryAddress string

	// SettleDelay is the simulated settlement latency between confirmation
	// and the records becoming visible.
	SettleDelay time.Duration

	// SellerPayout controls whether settlement emits a TRANSFER record
	// paying the seller from the treasury. When false all funds stay with
	// the treasury and no payout record is produced.
	SellerPayout bool
}

// Settlement is the outcome of a confirmed purchase: the ledger records
// produced, newest first, and the asset after its ownership mutation.
type Settlement struct {
	Asset   domain.Asset
	Records []domain.Transaction
}

// Engine converts purchase intents into ledger records and asset ownership
// mutations through an explicit two-phase stage/confirm protocol. It is the
// sole mutator of the store's staged-intent slot.
type Engine struct {
	store     *state.Store
	publisher domain.SettlementPublisher
	cfg       Config
}

// NewEngine creates a new settlement engine. The publisher may be nil, in
// which case finalized records are not broadcast.
func NewEngine(store *state.Store, publisher domain.SettlementPublisher, cfg Config) *Engine {
	return &Engine{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
	}
}

// StagePurchase stages a purchase intent against an asset for review.
// Preconditions: a usable trading identity is configured, the asset exists
// and is unsold. A second stage replaces the prior one.
func (e *Engine) StagePurchase(ctx context.Context, assetID string) (*domain.Transaction, error) {
	identity := e.store.Profile().TradingIdentity()
	if identity == "" {
		return nil, domain.ErrNoIdentity
	}

	asset, ok := e.store.FindAsset(assetID)
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	if asset.Sold {
		return nil, domain.ErrAssetSold
	}

	record := domain.Transaction{
		ID:        domain.NewIntentID(),
		ItemID:    asset.ID,
		Amount:    asset.Price,
		Kind:      domain.TxKindPurchase,
		Timestamp: time.Now(),
		From:      identity,
		To:        e.cfg.TreasuryAddress,
		Status:    domain.TxStatusPending,
	}

	if err := e.store.Stage(record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Staged returns the purchase intent currently under review, if any
func (e *Engine) Staged() (domain.Transaction, bool) {
	return e.store.Staged()
}

// CancelPurchase discards the staged intent with no ledger or catalog
// mutation. It is a no-op when nothing is staged and fails once settlement
// has been triggered.
func (e *Engine) CancelPurchase() error {
	return e.store.CancelStage()
}

// ConfirmPurchase finalizes the staged intent. After the simulated
// settlement delay it produces, newest first, a MINT record, optionally a
// seller TRANSFER record, and the PURCHASE record flipped to SUCCESS, then
// marks the asset sold. Ledger and catalog mutate as one observable unit.
//
// With no staged intent it is a no-op returning (nil, nil). When the asset
// vanished since staging, the intent is discarded and ErrAssetNotFound is
// returned.
func (e *Engine) ConfirmPurchase(ctx context.Context) (*Settlement, error) {
	pending, ok := e.store.BeginSettle()
	if !ok {
		return nil, nil
	}

	// Simulated network latency. Settlement is not abortable once
	// triggered, so the context is deliberately not consulted here.
	if e.cfg.SettleDelay > 0 {
		time.Sleep(e.cfg.SettleDelay)
	}

	asset, ok := e.store.FindAsset(pending.ItemID)
	if !ok {
		e.store.DiscardSettling()
		return nil, domain.ErrAssetNotFound
	}

	now := time.Now()
	records := []domain.Transaction{
		{
			ID:        domain.MintID(pending.ID),
			ItemID:    asset.ID,
			Amount:    decimal.Zero,
			Kind:      domain.TxKindMint,
			Timestamp: now,
			From:      domain.NullAddress,
			To:        e.cfg.TreasuryAddress,
			Status:    domain.TxStatusSuccess,
		},
	}

	if e.cfg.SellerPayout && asset.SellerAddress != "" {
		records = append(records, domain.Transaction{
			ID:        domain.PayoutID(pending.ID),
			ItemID:    asset.ID,
			Amount:    asset.Price,
			Kind:      domain.TxKindTransfer,
			Timestamp: now,
			From:      e.cfg.TreasuryAddress,
			To:        asset.SellerAddress,
			Status:    domain.TxStatusSuccess,
		})
	}

	purchase := pending
	purchase.Status = domain.TxStatusSuccess
	records = append(records, purchase)

	if err := e.store.ApplySettlement(ctx, asset.ID, records); err != nil {
		return nil, err
	}
	asset.Sold = true

	if e.publisher != nil {
		if err := e.publisher.PublishSettlement(ctx, records); err != nil {
			log.Printf("Failed to publish settlement %s: %v", pending.ID, err)
		}
	}

	return &Settlement{Asset: asset, Records: records}, nil
}
