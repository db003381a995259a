package engine

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/multisendorg/libmultisend-go/affiliate"
	"github.com/multisendorg/libmultisend-go/pricing"
)

// PriceTable carries the engine's current prices. Snapshots include it so
// owner-set runtime prices survive a restart.
type PriceTable struct {
	DropUnitPrice *uint256.Int
	OneDayPrice   *uint256.Int
	OneWeekPrice  *uint256.Int
	OneMonthPrice *uint256.Int
	LifetimePrice *uint256.Int
	ListingFee    *uint256.Int
}

// Snapshot is the engine's durable state: everything that survives across
// invocations and can be persisted and restored.
type Snapshot struct {
	Members    map[common.Address]int64
	Affiliates affiliate.Snapshot
	Discounts  pricing.Snapshot
	Prices     PriceTable
	Listed     []common.Address
	TrialsUsed []common.Address
}

// Snapshot captures the engine's durable state.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := &Snapshot{
		Members:    e.members.Snapshot(),
		Affiliates: e.affiliates.Snapshot(),
		Discounts:  e.prices.Snapshot(),
		Prices: PriceTable{
			DropUnitPrice: e.cfg.DropUnitPrice.Clone(),
			OneDayPrice:   e.cfg.OneDayPrice.Clone(),
			OneWeekPrice:  e.cfg.OneWeekPrice.Clone(),
			OneMonthPrice: e.cfg.OneMonthPrice.Clone(),
			LifetimePrice: e.cfg.LifetimePrice.Clone(),
			ListingFee:    e.cfg.ListingFee.Clone(),
		},
		Listed:     make([]common.Address, 0, len(e.listed)),
		TrialsUsed: make([]common.Address, 0, len(e.trialUsed)),
	}
	for token := range e.listed {
		snap.Listed = append(snap.Listed, token)
	}
	for token := range e.trialUsed {
		snap.TrialsUsed = append(snap.TrialsUsed, token)
	}
	return snap
}

// Restore replaces the engine's durable state with the snapshot. Price
// fields absent from the snapshot keep their current values.
func (e *Engine) Restore(snap *Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.members.Restore(snap.Members)
	e.affiliates.Restore(snap.Affiliates)
	e.prices.Restore(snap.Discounts)
	restorePrice(&e.cfg.DropUnitPrice, snap.Prices.DropUnitPrice)
	restorePrice(&e.cfg.OneDayPrice, snap.Prices.OneDayPrice)
	restorePrice(&e.cfg.OneWeekPrice, snap.Prices.OneWeekPrice)
	restorePrice(&e.cfg.OneMonthPrice, snap.Prices.OneMonthPrice)
	restorePrice(&e.cfg.LifetimePrice, snap.Prices.LifetimePrice)
	restorePrice(&e.cfg.ListingFee, snap.Prices.ListingFee)
	e.listed = make(map[common.Address]bool, len(snap.Listed))
	for _, token := range snap.Listed {
		e.listed[token] = true
	}
	e.trialUsed = make(map[common.Address]bool, len(snap.TrialsUsed))
	for _, token := range snap.TrialsUsed {
		e.trialUsed[token] = true
	}
}

func restorePrice(dst **uint256.Int, src *uint256.Int) {
	if src != nil {
		*dst = src.Clone()
	}
}
