package catalog

import "fmt"

// IsOnSale reports whether the sale price actually applies: it must be
// enabled, positive and strictly below the regular price.
func IsOnSale(price float64, saleEnabled bool, salePrice float64) bool {
	return saleEnabled && salePrice > 0 && salePrice < price
}

// EffectivePrice is the price a customer pays right now.
func EffectivePrice(price float64, saleEnabled bool, salePrice float64) float64 {
	if IsOnSale(price, saleEnabled, salePrice) {
		return salePrice
	}
	return price
}

// ValidateSaleFields guards admin writes against inverted or missing sale
// pricing.
func ValidateSaleFields(price float64, saleEnabled bool, salePrice float64) error {
	if !saleEnabled {
		return nil
	}
	if salePrice <= 0 {
		return fmt.Errorf("salePrice must be greater than 0")
	}
	if salePrice >= price {
		return fmt.Errorf("salePrice must be less than price")
	}
	return nil
}
