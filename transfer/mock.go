package transfer

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MockLedger is a test double for Ledger. All function fields must be set
// before the corresponding method is called.
type MockLedger struct {
	TransferFn  func(from, to common.Address, amount *uint256.Int) error
	BalanceOfFn func(addr common.Address) *uint256.Int
}

func (m *MockLedger) Transfer(from, to common.Address, amount *uint256.Int) error {
	return m.TransferFn(from, to, amount)
}
func (m *MockLedger) BalanceOf(addr common.Address) *uint256.Int {
	return m.BalanceOfFn(addr)
}

// MockERC20 is a test double for ERC20.
type MockERC20 struct {
	TransferFromFn func(from, to common.Address, amount *uint256.Int) error
	BalanceOfFn    func(addr common.Address) *uint256.Int
}

func (m *MockERC20) TransferFrom(from, to common.Address, amount *uint256.Int) error {
	return m.TransferFromFn(from, to, amount)
}
func (m *MockERC20) BalanceOf(addr common.Address) *uint256.Int {
	return m.BalanceOfFn(addr)
}

// MockERC721 is a test double for ERC721.
type MockERC721 struct {
	TransferFromFn func(from, to common.Address, id uint64) error
	OwnerOfFn      func(id uint64) (common.Address, error)
}

func (m *MockERC721) TransferFrom(from, to common.Address, id uint64) error {
	return m.TransferFromFn(from, to, id)
}
func (m *MockERC721) OwnerOf(id uint64) (common.Address, error) {
	return m.OwnerOfFn(id)
}
