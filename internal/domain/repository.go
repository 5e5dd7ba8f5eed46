package domain

import (
	"context"
	"encoding/json"
)

// DocumentStore defines the interface for durable key-value persistence of
// whole JSON documents. Three keys are in use: catalog, ledger, profile.
// There is no transactionality across keys.
type DocumentStore interface {
	// Load retrieves a stored document. The second return value is false
	// when no document exists under the key.
	Load(ctx context.Context, key string) (json.RawMessage, bool, error)

	// Save overwrites the document stored under the key
	Save(ctx context.Context, key string, doc json.RawMessage) error
}

// ImageMetadata is the advisory title/description pair produced for an
// uploaded image.
type ImageMetadata struct {
	Title       string `json:"name"`
	Description string `json:"description"`
}

// Fallback values used whenever the appraisal collaborator fails. The
// listing flow must complete normally on any collaborator failure.
const (
	FallbackAppraisal    = "AI Appraisal failed to generate. Manual review recommended."
	UnavailableAppraisal = "Appraisal service currently unavailable."
)

// FallbackMetadata returns the metadata used when image description fails
func FallbackMetadata() ImageMetadata {
	return ImageMetadata{
		Title:       "New Acquisition",
		Description: "A unique digital asset uploaded to the Etheron platform.",
	}
}

// Appraiser defines the interface for the image-understanding collaborator.
// Implementations are expected to degrade to the fallback values rather
// than fail; callers still guard against a non-nil error by applying the
// fallbacks themselves.
type Appraiser interface {
	// Describe generates a title and description for an image
	Describe(ctx context.Context, image []byte) (ImageMetadata, error)

	// Appraise generates a cosmetic market appraisal for a named image
	Appraise(ctx context.Context, image []byte, name string) (string, error)
}

// SettlementPublisher defines the interface for broadcasting finalized
// settlement records. Publishing is fire-and-forget: a failure must never
// affect the settlement itself.
type SettlementPublisher interface {
	PublishSettlement(ctx context.Context, records []Transaction) error
}
