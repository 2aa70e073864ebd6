package models

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// AssetClass describes one transferable asset. The native class has an empty
// Mint; fungible tokens are keyed by their mint address.
type AssetClass struct {
	Symbol        string `yaml:"symbol" json:"symbol"`
	Mint          string `yaml:"mint" json:"mint,omitempty"`
	Precision     int    `yaml:"precision" json:"precision"`
	Network       string `yaml:"network" json:"network,omitempty"`
	PrimeWalletId string `yaml:"prime_wallet_id" json:"prime_wallet_id,omitempty"`
}

// IsNative reports whether the class is the wallet's native balance.
func (a AssetClass) IsNative() bool {
	return a.Mint == ""
}

// Human renders an amount of smallest units using the class precision.
func (a AssetClass) Human(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(a.Precision))
}

// AssetRegistry resolves asset-class keys (empty for native, mint otherwise).
type AssetRegistry struct {
	Native AssetClass
	Tokens map[string]AssetClass
}

func (r *AssetRegistry) Lookup(assetClass string) (AssetClass, bool) {
	if r == nil {
		return AssetClass{}, false
	}
	if assetClass == "" {
		return r.Native, r.Native.Symbol != ""
	}
	a, ok := r.Tokens[assetClass]
	return a, ok
}
