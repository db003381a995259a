package pricing

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Book holds the discount overrides the fee computations consult: one map
// keyed by address (premium-membership discount) and one keyed by token
// address (listing-fee discount). Absence of an entry means 0% discount.
// Entries persist until explicitly overwritten.
type Book struct {
	mu         sync.RWMutex
	membership map[common.Address]uint8
	listing    map[common.Address]uint8
}

// NewBook creates an empty discount book.
func NewBook() *Book {
	return &Book{
		membership: make(map[common.Address]uint8),
		listing:    make(map[common.Address]uint8),
	}
}

// SetMembershipDiscount sets the membership-price discount for addr.
func (b *Book) SetMembershipDiscount(addr common.Address, percent uint8) error {
	if percent > 100 {
		return fmt.Errorf("%w: %d", ErrPercentRange, percent)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.membership[addr] = percent
	return nil
}

// MembershipDiscount returns the discount percent for addr, 0 if unset.
func (b *Book) MembershipDiscount(addr common.Address) uint8 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.membership[addr]
}

// SetListingDiscount sets the listing-fee discount for token.
func (b *Book) SetListingDiscount(token common.Address, percent uint8) error {
	if percent > 100 {
		return fmt.Errorf("%w: %d", ErrPercentRange, percent)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listing[token] = percent
	return nil
}

// ListingDiscount returns the discount percent for token, 0 if unset.
func (b *Book) ListingDiscount(token common.Address) uint8 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.listing[token]
}

// Discounted applies a percentage discount to base:
// base * (100 - percent) / 100, truncating toward zero.
func Discounted(base *uint256.Int, percent uint8) *uint256.Int {
	if percent > 100 {
		percent = 100
	}
	out := new(uint256.Int).Mul(base, uint256.NewInt(uint64(100-percent)))
	return out.Div(out, uint256.NewInt(100))
}

// BatchFee returns the fee for a distribution batch of count recipients.
func BatchFee(unitPrice *uint256.Int, count int) *uint256.Int {
	if count <= 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Mul(unitPrice, uint256.NewInt(uint64(count)))
}

// Snapshot captures the discount maps for persistence.
type Snapshot struct {
	Membership map[common.Address]uint8
	Listing    map[common.Address]uint8
}

// Snapshot returns a deep copy of the book's state.
func (b *Book) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap := Snapshot{
		Membership: make(map[common.Address]uint8, len(b.membership)),
		Listing:    make(map[common.Address]uint8, len(b.listing)),
	}
	for k, v := range b.membership {
		snap.Membership[k] = v
	}
	for k, v := range b.listing {
		snap.Listing[k] = v
	}
	return snap
}

// Restore replaces the book's state with the snapshot.
func (b *Book) Restore(snap Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.membership = make(map[common.Address]uint8, len(snap.Membership))
	b.listing = make(map[common.Address]uint8, len(snap.Listing))
	for k, v := range snap.Membership {
		b.membership[k] = v
	}
	for k, v := range snap.Listing {
		b.listing[k] = v
	}
}
