package domain

// DefaultDisplayName is assigned to profiles that never set a name.
const DefaultDisplayName = "Anonymous Trader"

// Profile represents the user's trading configuration
type Profile struct {
	PayoutWallet   string `json:"payoutWallet"`
	ImportedWallet string `json:"importedWallet"`
	DisplayName    string `json:"displayName"`
}

// DefaultProfile returns the profile used before the user configures anything
func DefaultProfile() Profile {
	return Profile{DisplayName: DefaultDisplayName}
}

// TradingIdentity returns the address used as the buyer side of a purchase.
// Empty means no usable identity is configured.
func (p Profile) TradingIdentity() string {
	return p.ImportedWallet
}

// SellerAddress returns the payout destination for a new listing: the
// dedicated payout wallet when set, otherwise the trading identity.
func (p Profile) SellerAddress() string {
	if p.PayoutWallet != "" {
		return p.PayoutWallet
	}
	return p.ImportedWallet
}
