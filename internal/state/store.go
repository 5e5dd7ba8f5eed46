package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/etheron-labs/etheron-backend/internal/domain"
)

// Document keys used against the underlying DocumentStore.
const (
	KeyCatalog = "catalog"
	KeyLedger  = "ledger"
	KeyProfile = "profile"
)

// stagedIntent is the single in-flight purchase slot. Once settling is set
// the slot can no longer be replaced or cancelled.
type stagedIntent struct {
	record   domain.Transaction
	settling bool
}

// Store owns the catalog, ledger, profile and the staged-intent slot. All
// mutations go through it, and every mutation persists the affected
// document before returning. The three documents are written independently;
// a crash between writes can leave them mutually inconsistent.
type Store struct {
	mu   sync.RWMutex
	docs domain.DocumentStore

	catalog []domain.Asset       // newest first
	ledger  []domain.Transaction // newest first
	profile domain.Profile
	staged  *stagedIntent
}

// NewStore creates a Store backed by the given document store. Call Load
// before use.
func NewStore(docs domain.DocumentStore) *Store {
	return &Store{
		docs:    docs,
		profile: domain.DefaultProfile(),
	}
}

// Load reads the three documents from the document store. An absent or
// malformed document is treated as empty state, never as a hard failure;
// only the document store itself erroring is propagated.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var catalog []domain.Asset
	if err := s.loadDocument(ctx, KeyCatalog, &catalog); err != nil {
		return err
	}
	s.catalog = catalog

	var ledger []domain.Transaction
	if err := s.loadDocument(ctx, KeyLedger, &ledger); err != nil {
		return err
	}
	s.ledger = ledger

	profile := domain.DefaultProfile()
	if err := s.loadDocument(ctx, KeyProfile, &profile); err != nil {
		return err
	}
	if profile.DisplayName == "" {
		profile.DisplayName = domain.DefaultDisplayName
	}
	s.profile = profile

	return nil
}

// loadDocument unmarshals one stored document into v, leaving v untouched
// when the document is absent or malformed.
func (s *Store) loadDocument(ctx context.Context, key string, v interface{}) error {
	raw, ok, err := s.docs.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load %s document: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Printf("Discarding malformed %s document: %v", key, err)
	}
	return nil
}

func (s *Store) saveDocument(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", key, err)
	}
	if err := s.docs.Save(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to save %s document: %w", key, err)
	}
	return nil
}

// Catalog returns the listed assets, newest first
func (s *Store) Catalog() []domain.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Asset, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// FindAsset retrieves an asset by ID
func (s *Store) FindAsset(id string) (domain.Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.catalog {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Asset{}, false
}

// InsertAsset prepends a new asset to the catalog and persists it
func (s *Store) InsertAsset(ctx context.Context, asset domain.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog = append([]domain.Asset{asset}, s.catalog...)
	return s.saveDocument(ctx, KeyCatalog, s.catalog)
}

// Ledger returns the settlement records, newest first
func (s *Store) Ledger() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// Profile returns the current trading configuration
func (s *Store) Profile() domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// SetProfile replaces the trading configuration and persists it
func (s *Store) SetProfile(ctx context.Context, profile domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile = profile
	return s.saveDocument(ctx, KeyProfile, profile)
}

// Staged returns the pending purchase record, if any
func (s *Store) Staged() (domain.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.staged == nil {
		return domain.Transaction{}, false
	}
	return s.staged.record, true
}

// Stage installs a pending purchase record, replacing any prior staged
// intent (one trade under review at a time). Staging is rejected while a
// settlement is in flight.
func (s *Store) Stage(record domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staged != nil && s.staged.settling {
		return domain.ErrSettlementInFlight
	}
	s.staged = &stagedIntent{record: record}
	return nil
}

// CancelStage discards the staged intent without touching the ledger or
// catalog. It is a no-op when nothing is staged and fails once settlement
// has been triggered.
func (s *Store) CancelStage() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staged == nil {
		return nil
	}
	if s.staged.settling {
		return domain.ErrSettlementInFlight
	}
	s.staged = nil
	return nil
}

// BeginSettle marks the staged intent as settling and returns its record.
// The second return value is false when there is nothing to settle, either
// because no intent is staged or because settlement is already in flight.
func (s *Store) BeginSettle() (domain.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staged == nil || s.staged.settling {
		return domain.Transaction{}, false
	}
	s.staged.settling = true
	return s.staged.record, true
}

// DiscardSettling drops an in-flight intent whose asset vanished before
// settlement could complete.
func (s *Store) DiscardSettling() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staged != nil && s.staged.settling {
		s.staged = nil
	}
}

// ApplySettlement finalizes a settlement as one observable unit: the
// records are prepended to the ledger, the asset is marked sold and the
// staged slot is cleared under a single lock acquisition. The catalog and
// ledger documents are then persisted.
func (s *Store) ApplySettlement(ctx context.Context, assetID string, records []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, a := range s.catalog {
		if a.ID == assetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.staged = nil
		return domain.ErrAssetNotFound
	}

	s.catalog[idx].Sold = true
	s.ledger = append(append([]domain.Transaction{}, records...), s.ledger...)
	s.staged = nil

	if err := s.saveDocument(ctx, KeyCatalog, s.catalog); err != nil {
		return err
	}
	return s.saveDocument(ctx, KeyLedger, s.ledger)
}
