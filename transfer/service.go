package transfer

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Ledger is the native-currency transfer primitive the engine settles
// through. Implementations must either deliver the full amount or fail;
// a failed transfer aborts the invocation that issued it.
type Ledger interface {
	// Transfer moves amount from one account to another.
	Transfer(from, to common.Address, amount *uint256.Int) error

	// BalanceOf returns the current balance of addr.
	BalanceOf(addr common.Address) *uint256.Int
}

// ERC20 is the fungible-token callee. Implementations may deliver less than
// the requested amount per transfer (fee-on-transfer tokens); callers that
// set the deflationary flag must not assume requested equals delivered.
type ERC20 interface {
	// TransferFrom moves amount from one holder to another on the engine's
	// behalf. The engine uses it both to pull tokens into custody and to
	// move tokens out of its own holding account.
	TransferFrom(from, to common.Address, amount *uint256.Int) error

	// BalanceOf returns the token holdings of addr.
	BalanceOf(addr common.Address) *uint256.Int
}

// ERC721 is the non-fungible single-token callee.
type ERC721 interface {
	// TransferFrom moves ownership of token id between addresses.
	TransferFrom(from, to common.Address, id uint64) error

	// OwnerOf returns the current owner of token id.
	OwnerOf(id uint64) (common.Address, error)
}

// ERC721Batcher is the optional batch-capable variant of ERC721. Tokens that
// implement it can move several ids in one call; the result is semantically
// identical to repeated TransferFrom.
type ERC721Batcher interface {
	BatchTransferFrom(from common.Address, tos []common.Address, ids []uint64) error
}

// ERC1155 is the non-fungible multi-token callee.
type ERC1155 interface {
	// SafeTransferFrom moves amount units of token id between addresses.
	SafeTransferFrom(from, to common.Address, id, amount uint64, data []byte) error

	// SafeBatchTransferFrom moves several ids to one recipient in one call.
	SafeBatchTransferFrom(from, to common.Address, ids, amounts []uint64, data []byte) error
}
