package transfer

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TokenBook is an in-memory fungible token. A non-zero burn percent makes it
// deflationary: every transfer delivers amount*(100-burn)/100 while debiting
// the full amount from the sender.
type TokenBook struct {
	mu       sync.Mutex
	burn     uint8
	balances map[common.Address]*uint256.Int
}

var _ ERC20 = (*TokenBook)(nil)

// NewTokenBook creates a fungible token that delivers transfers in full.
func NewTokenBook() *TokenBook {
	return &TokenBook{balances: make(map[common.Address]*uint256.Int)}
}

// NewDeflationaryTokenBook creates a fee-on-transfer token burning
// burnPercent of every transfer.
func NewDeflationaryTokenBook(burnPercent uint8) *TokenBook {
	return &TokenBook{burn: burnPercent, balances: make(map[common.Address]*uint256.Int)}
}

// Mint credits amount of the token to addr.
func (t *TokenBook) Mint(addr common.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(addr, amount)
}

// TransferFrom moves amount from one holder to another, burning the
// configured cut on the way.
func (t *TokenBook) TransferFrom(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	bal, ok := t.balances[from]
	if !ok || bal.Lt(amount) {
		return fmt.Errorf("%w: token balance of %s short of %s", ErrInsufficientFunds, from.Hex(), amount.Dec())
	}
	bal.Sub(bal, amount)
	delivered := amount.Clone()
	if t.burn > 0 {
		delivered.Mul(delivered, uint256.NewInt(uint64(100-t.burn)))
		delivered.Div(delivered, uint256.NewInt(100))
	}
	t.credit(to, delivered)
	return nil
}

// BalanceOf returns a copy of addr's token balance.
func (t *TokenBook) BalanceOf(addr common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if bal, ok := t.balances[addr]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

func (t *TokenBook) credit(addr common.Address, amount *uint256.Int) {
	if bal, ok := t.balances[addr]; ok {
		bal.Add(bal, amount)
		return
	}
	t.balances[addr] = amount.Clone()
}

// NFTBook is an in-memory non-fungible token collection.
type NFTBook struct {
	mu     sync.Mutex
	owners map[uint64]common.Address
}

var (
	_ ERC721        = (*NFTBook)(nil)
	_ ERC721Batcher = (*NFTBook)(nil)
)

// NewNFTBook creates an empty collection.
func NewNFTBook() *NFTBook {
	return &NFTBook{owners: make(map[uint64]common.Address)}
}

// Mint assigns count consecutive ids starting at firstID to owner.
func (n *NFTBook) Mint(owner common.Address, firstID, count uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id := firstID; id < firstID+count; id++ {
		n.owners[id] = owner
	}
}

// TransferFrom moves ownership of id, failing if from is not the owner.
func (n *NFTBook) TransferFrom(from, to common.Address, id uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.transferLocked(from, to, id)
}

// BatchTransferFrom moves each ids[i] to tos[i] in order, failing atomically
// on the first ownership violation.
func (n *NFTBook) BatchTransferFrom(from common.Address, tos []common.Address, ids []uint64) error {
	if len(tos) != len(ids) {
		return fmt.Errorf("%w: %d recipients, %d ids", ErrLengthMismatch, len(tos), len(ids))
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, id := range ids {
		if owner, ok := n.owners[id]; !ok || owner != from {
			return fmt.Errorf("%w: id %d", ErrNotOwner, id)
		}
	}
	for i, id := range ids {
		if err := n.transferLocked(from, tos[i], id); err != nil {
			return err
		}
	}
	return nil
}

// OwnerOf returns the owner of id.
func (n *NFTBook) OwnerOf(id uint64) (common.Address, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	owner, ok := n.owners[id]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: id %d", ErrUnknownToken, id)
	}
	return owner, nil
}

func (n *NFTBook) transferLocked(from, to common.Address, id uint64) error {
	owner, ok := n.owners[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownToken, id)
	}
	if owner != from {
		return fmt.Errorf("%w: id %d owned by %s", ErrNotOwner, id, owner.Hex())
	}
	n.owners[id] = to
	return nil
}

// MultiTokenBook is an in-memory multi-token (id, amount) collection.
type MultiTokenBook struct {
	mu       sync.Mutex
	balances map[uint64]map[common.Address]uint64
}

var _ ERC1155 = (*MultiTokenBook)(nil)

// NewMultiTokenBook creates an empty multi-token collection.
func NewMultiTokenBook() *MultiTokenBook {
	return &MultiTokenBook{balances: make(map[uint64]map[common.Address]uint64)}
}

// MintBatch credits amounts[i] units of ids[i] to owner.
func (m *MultiTokenBook) MintBatch(owner common.Address, ids, amounts []uint64) error {
	if len(ids) != len(amounts) {
		return fmt.Errorf("%w: %d ids, %d amounts", ErrLengthMismatch, len(ids), len(amounts))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		if m.balances[id] == nil {
			m.balances[id] = make(map[common.Address]uint64)
		}
		m.balances[id][owner] += amounts[i]
	}
	return nil
}

// SafeTransferFrom moves amount units of id between addresses.
func (m *MultiTokenBook) SafeTransferFrom(from, to common.Address, id, amount uint64, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transferLocked(from, to, id, amount)
}

// SafeBatchTransferFrom moves amounts[i] units of ids[i] to one recipient.
func (m *MultiTokenBook) SafeBatchTransferFrom(from, to common.Address, ids, amounts []uint64, _ []byte) error {
	if len(ids) != len(amounts) {
		return fmt.Errorf("%w: %d ids, %d amounts", ErrLengthMismatch, len(ids), len(amounts))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		if err := m.transferLocked(from, to, id, amounts[i]); err != nil {
			return err
		}
	}
	return nil
}

// BalanceOf returns how many units of id addr holds.
func (m *MultiTokenBook) BalanceOf(addr common.Address, id uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[id][addr]
}

func (m *MultiTokenBook) transferLocked(from, to common.Address, id, amount uint64) error {
	if amount == 0 {
		return nil
	}
	held := m.balances[id][from]
	if held < amount {
		return fmt.Errorf("%w: id %d balance %d short of %d", ErrInsufficientFunds, id, held, amount)
	}
	m.balances[id][from] = held - amount
	m.balances[id][to] += amount
	return nil
}
