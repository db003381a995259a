package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ValidateConfig checks that the configuration is complete and returns the
// first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.Owner == (common.Address{}) {
		return ErrZeroOwner
	}

	prices := []struct {
		name  string
		value *uint256.Int
	}{
		{"drop_unit_price", cfg.DropUnitPrice},
		{"one_day_price", cfg.OneDayPrice},
		{"one_week_price", cfg.OneWeekPrice},
		{"one_month_price", cfg.OneMonthPrice},
		{"lifetime_price", cfg.LifetimePrice},
		{"listing_fee", cfg.ListingFee},
	}
	for _, p := range prices {
		if p.value == nil {
			return fmt.Errorf("%w: %s", ErrNilPrice, p.name)
		}
	}
	return nil
}
