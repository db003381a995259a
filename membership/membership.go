package membership

import (
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// LifetimeSentinel marks a membership that never expires.
const LifetimeSentinel int64 = math.MaxInt64

// Tier identifies a purchasable membership duration.
type Tier int

const (
	TierOneDay Tier = iota
	TierOneWeek
	TierOneMonth
	TierLifetime
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierOneDay:
		return "one-day"
	case TierOneWeek:
		return "one-week"
	case TierOneMonth:
		return "one-month"
	case TierLifetime:
		return "lifetime"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Duration returns the tier length in seconds. Lifetime returns 0; callers
// must treat it through LifetimeSentinel instead.
func (t Tier) Duration() int64 {
	switch t {
	case TierOneDay:
		return 86400
	case TierOneWeek:
		return 604800
	case TierOneMonth:
		return 30 * 86400
	default:
		return 0
	}
}

// Registry tracks premium-membership expiry per address. A record's expiry
// only ever moves forward (or to LifetimeSentinel) and records are never
// deleted once purchased; an address with no record was never premium.
type Registry struct {
	mu     sync.RWMutex
	expiry map[common.Address]int64
}

// NewRegistry creates an empty membership registry.
func NewRegistry() *Registry {
	return &Registry{expiry: make(map[common.Address]int64)}
}

// IsPremium reports whether addr holds an unexpired membership at time now
// (unix seconds).
func (r *Registry) IsPremium(addr common.Address, now int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.expiry[addr] > now
}

// ExpiryOf returns the recorded expiry for addr and whether a record exists.
func (r *Registry) ExpiryOf(addr common.Address) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.expiry[addr]
	return exp, ok
}

// Purchase records a tier purchase for addr at time now. Re-purchase while
// the current record is still fresh fails with ErrAlreadyMember.
func (r *Registry) Purchase(addr common.Address, tier Tier, now int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.expiry[addr] > now {
		return fmt.Errorf("%w: %s", ErrAlreadyMember, addr.Hex())
	}
	if tier == TierLifetime {
		r.expiry[addr] = LifetimeSentinel
		return nil
	}
	r.expiry[addr] = now + tier.Duration()
	return nil
}

// Snapshot returns a copy of all membership records.
func (r *Registry) Snapshot() map[common.Address]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[common.Address]int64, len(r.expiry))
	for k, v := range r.expiry {
		snap[k] = v
	}
	return snap
}

// Restore replaces all membership records with the snapshot.
func (r *Registry) Restore(snap map[common.Address]int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expiry = make(map[common.Address]int64, len(snap))
	for k, v := range snap {
		r.expiry[k] = v
	}
}
