package models

// AssetClass represents the type of financial asset
type AssetClass string

const (
	AssetClassEquity    AssetClass = "EQUITY"
	AssetClassCrypto    AssetClass = "CRYPTO"
	AssetClassCommodity AssetClass = "COMMODITY"
	AssetClassUnknown   AssetClass = "UNKNOWN"
)

// Valid reports whether the class is one of the known asset classes.
func (c AssetClass) Valid() bool {
	switch c {
	case AssetClassEquity, AssetClassCrypto, AssetClassCommodity, AssetClassUnknown:
		return true
	}
	return false
}
