package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Config holds the engine-wide price table and the administrator identity.
// All amounts are denominated in the smallest native-currency unit.
type Config struct {
	Owner         common.Address // administrator; sole identity allowed to mutate the table
	DropUnitPrice *uint256.Int   // fee charged per recipient in a distribution batch
	OneDayPrice   *uint256.Int   // 1-day membership price
	OneWeekPrice  *uint256.Int   // 7-day membership price
	OneMonthPrice *uint256.Int   // 30-day membership price
	LifetimePrice *uint256.Int   // lifetime membership price
	ListingFee    *uint256.Int   // base token-listing fee before discount
}

// DefaultConfig returns the price table the engine ships with. The owner is
// left zero and must be set by the embedding application before use.
func DefaultConfig() Config {
	return Config{
		DropUnitPrice: uint256.NewInt(2_000_000_000_000_000),     // 0.002
		OneDayPrice:   uint256.NewInt(900_000_000_000_000_000),   // 0.9
		OneWeekPrice:  uint256.NewInt(1_250_000_000_000_000_000), // 1.25
		OneMonthPrice: uint256.NewInt(2_000_000_000_000_000_000), // 2
		LifetimePrice: uint256.NewInt(2_500_000_000_000_000_000), // 2.5
		ListingFee:    uint256.NewInt(5_000_000_000_000_000_000), // 5
	}
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	out := Config{Owner: c.Owner}
	if c.DropUnitPrice != nil {
		out.DropUnitPrice = c.DropUnitPrice.Clone()
	}
	if c.OneDayPrice != nil {
		out.OneDayPrice = c.OneDayPrice.Clone()
	}
	if c.OneWeekPrice != nil {
		out.OneWeekPrice = c.OneWeekPrice.Clone()
	}
	if c.OneMonthPrice != nil {
		out.OneMonthPrice = c.OneMonthPrice.Clone()
	}
	if c.LifetimePrice != nil {
		out.LifetimePrice = c.LifetimePrice.Clone()
	}
	if c.ListingFee != nil {
		out.ListingFee = c.ListingFee.Clone()
	}
	return out
}

// SaveConfig writes cfg to path in "key = value" form. Parent directories
// are created if they do not exist.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# libmultisend configuration\n")
	fmt.Fprintf(&b, "owner = %s\n", cfg.Owner.Hex())
	fmt.Fprintf(&b, "drop_unit_price = %s\n", decOrZero(cfg.DropUnitPrice))
	fmt.Fprintf(&b, "one_day_price = %s\n", decOrZero(cfg.OneDayPrice))
	fmt.Fprintf(&b, "one_week_price = %s\n", decOrZero(cfg.OneWeekPrice))
	fmt.Fprintf(&b, "one_month_price = %s\n", decOrZero(cfg.OneMonthPrice))
	fmt.Fprintf(&b, "lifetime_price = %s\n", decOrZero(cfg.LifetimePrice))
	fmt.Fprintf(&b, "listing_fee = %s\n", decOrZero(cfg.ListingFee))

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

// LoadConfig reads a configuration file written by SaveConfig. Blank lines
// and lines starting with '#' are ignored.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("config: open file: %w", err)
	}
	defer f.Close()

	cfg := Config{}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return Config{}, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if err := applyLine(&cfg, key, value); err != nil {
			return Config{}, fmt.Errorf("%w: line %d: %q: %w", ErrInvalidConfigLine, lineNo, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("config: read file: %w", err)
	}
	return cfg, nil
}

// applyLine sets one key/value pair on cfg.
func applyLine(cfg *Config, key, value string) error {
	switch key {
	case "owner":
		if !common.IsHexAddress(value) {
			return fmt.Errorf("%w: %q", ErrInvalidAmount, value)
		}
		cfg.Owner = common.HexToAddress(value)
		return nil
	case "drop_unit_price":
		return setAmount(&cfg.DropUnitPrice, value)
	case "one_day_price":
		return setAmount(&cfg.OneDayPrice, value)
	case "one_week_price":
		return setAmount(&cfg.OneWeekPrice, value)
	case "one_month_price":
		return setAmount(&cfg.OneMonthPrice, value)
	case "lifetime_price":
		return setAmount(&cfg.LifetimePrice, value)
	case "listing_fee":
		return setAmount(&cfg.ListingFee, value)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
}

// setAmount parses a decimal amount into dst.
func setAmount(dst **uint256.Int, value string) error {
	n, err := uint256.FromDecimal(value)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	*dst = n
	return nil
}

// decOrZero renders an amount as decimal, treating nil as zero.
func decOrZero(n *uint256.Int) string {
	if n == nil {
		return "0"
	}
	return n.Dec()
}
