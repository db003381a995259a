package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  *uint256.Int
		want string
	}{
		{"DropUnitPrice", cfg.DropUnitPrice, "2000000000000000"},
		{"OneDayPrice", cfg.OneDayPrice, "900000000000000000"},
		{"OneWeekPrice", cfg.OneWeekPrice, "1250000000000000000"},
		{"OneMonthPrice", cfg.OneMonthPrice, "2000000000000000000"},
		{"LifetimePrice", cfg.LifetimePrice, "2500000000000000000"},
		{"ListingFee", cfg.ListingFee, "5000000000000000000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got.Dec() != tc.want {
				t.Errorf("got %s, want %s", tc.got.Dec(), tc.want)
			}
		})
	}

	if cfg.Owner != (common.Address{}) {
		t.Error("default Owner should be zero until set by the embedder")
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Owner = common.HexToAddress("0x704ab0925fF80b69fDBb32892346B6c945Af79E9")
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("complete config should validate, got %v", err)
	}

	zeroOwner := DefaultConfig()
	if err := ValidateConfig(zeroOwner); !errors.Is(err, ErrZeroOwner) {
		t.Errorf("zero owner: got %v, want ErrZeroOwner", err)
	}

	missing := DefaultConfig()
	missing.Owner = cfg.Owner
	missing.ListingFee = nil
	if err := ValidateConfig(missing); !errors.Is(err, ErrNilPrice) {
		t.Errorf("nil price: got %v, want ErrNilPrice", err)
	}
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Owner = common.HexToAddress("0x704ab0925fF80b69fDBb32892346B6c945Af79E9")

	clone := cfg.Clone()
	clone.DropUnitPrice.SetUint64(1)
	if cfg.DropUnitPrice.Uint64() == 1 {
		t.Error("Clone should not share amount pointers with the original")
	}
	if clone.Owner != cfg.Owner {
		t.Error("Clone should carry the owner")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	original := Config{
		Owner:         common.HexToAddress("0x704ab0925fF80b69fDBb32892346B6c945Af79E9"),
		DropUnitPrice: uint256.NewInt(2_000_000_000_000_000),
		OneDayPrice:   uint256.NewInt(900_000_000_000_000_000),
		OneWeekPrice:  uint256.NewInt(1_250_000_000_000_000_000),
		OneMonthPrice: uint256.NewInt(2_000_000_000_000_000_000),
		LifetimePrice: uint256.NewInt(2_500_000_000_000_000_000),
		ListingFee:    uint256.NewInt(5_000_000_000_000_000_000),
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Owner", loaded.Owner.Hex(), original.Owner.Hex()},
		{"DropUnitPrice", loaded.DropUnitPrice.Dec(), original.DropUnitPrice.Dec()},
		{"OneDayPrice", loaded.OneDayPrice.Dec(), original.OneDayPrice.Dec()},
		{"OneWeekPrice", loaded.OneWeekPrice.Dec(), original.OneWeekPrice.Dec()},
		{"OneMonthPrice", loaded.OneMonthPrice.Dec(), original.OneMonthPrice.Dec()},
		{"LifetimePrice", loaded.LifetimePrice.Dec(), original.LifetimePrice.Dec()},
		{"ListingFee", loaded.ListingFee.Dec(), original.ListingFee.Dec()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config")

	cfg := DefaultConfig()
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

// ---------------------------------------------------------------------------
// LoadConfig error tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "this-is-not-key-value\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfigLine) {
		t.Errorf("LoadConfig bad line: got %v, want ErrInvalidConfigLine", err)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "surprise = 1\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfigLine) {
		t.Errorf("LoadConfig unknown key: got %v, want ErrInvalidConfigLine", err)
	}
}

func TestLoadConfigBadAmount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "listing_fee = five\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("LoadConfig bad amount: got %v, want ErrInvalidAmount", err)
	}
}

func TestLoadConfigCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := `# This is a comment

listing_fee = 5000000000000000000

# trailing comment
drop_unit_price = 2000000000000000
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ListingFee.Dec() != "5000000000000000000" {
		t.Errorf("listing_fee: got %s", cfg.ListingFee.Dec())
	}
	if cfg.DropUnitPrice.Dec() != "2000000000000000" {
		t.Errorf("drop_unit_price: got %s", cfg.DropUnitPrice.Dec())
	}
}
