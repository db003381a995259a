package transfer

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AccountBook is an in-memory native-currency ledger. It backs the engine in
// tests and in hosts that keep balances in process.
type AccountBook struct {
	mu       sync.Mutex
	balances map[common.Address]*uint256.Int
}

// Compile-time interface check.
var _ Ledger = (*AccountBook)(nil)

// NewAccountBook creates an empty account book.
func NewAccountBook() *AccountBook {
	return &AccountBook{balances: make(map[common.Address]*uint256.Int)}
}

// Mint credits amount to addr out of nothing.
func (b *AccountBook) Mint(addr common.Address, amount *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(addr, amount)
}

// Transfer moves amount between accounts, failing without side effects if
// the sender's balance is short.
func (b *AccountBook) Transfer(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bal, ok := b.balances[from]
	if !ok || bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds,
			from.Hex(), b.balanceLocked(from).Dec(), amount.Dec())
	}
	bal.Sub(bal, amount)
	b.credit(to, amount)
	return nil
}

// BalanceOf returns a copy of addr's balance.
func (b *AccountBook) BalanceOf(addr common.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balanceLocked(addr)
}

func (b *AccountBook) balanceLocked(addr common.Address) *uint256.Int {
	if bal, ok := b.balances[addr]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

func (b *AccountBook) credit(addr common.Address, amount *uint256.Int) {
	if bal, ok := b.balances[addr]; ok {
		bal.Add(bal, amount)
		return
	}
	b.balances[addr] = amount.Clone()
}
