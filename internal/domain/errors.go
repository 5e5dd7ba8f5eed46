package domain

import "errors"

var (
	// ErrNoIdentity is returned when a purchase is staged without a usable
	// trading identity. Callers surface this as a prompt to configure one.
	ErrNoIdentity = errors.New("no trading identity configured")

	// ErrAssetNotFound is returned when the referenced asset does not exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrAssetSold is returned when staging a purchase against a sold asset.
	ErrAssetSold = errors.New("asset already sold")

	// ErrSettlementInFlight is returned when an intent is mutated after its
	// confirmation has been triggered. Settlement cannot be aborted.
	ErrSettlementInFlight = errors.New("settlement already in flight")
)
