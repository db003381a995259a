package affiliate

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Void is the sentinel binding meaning "no commission-earning affiliate".
// Self-referrals and unresolvable codes bind to it.
var Void = common.Address{}

// VoidCode is the code string reported for a Void binding.
const VoidCode = "void"

// Record is one affiliate's registration.
type Record struct {
	Owner   common.Address // payout address
	Code    string         // human-readable referral code
	Percent uint8          // commission percent of the collected fee
	Active  bool           // false once removed; lookups then pay nothing
}

// Registry maps referral codes to affiliates and tracks the one-time
// referral binding of each user. At most one active record claims a given
// code at a time. Bindings are first-write-wins and never erased, even when
// the bound affiliate is later removed.
type Registry struct {
	mu     sync.RWMutex
	byCode map[string]*Record
	byAddr map[common.Address]*Record
	bound  map[common.Address]common.Address // user -> affiliate owner or Void
}

// NewRegistry creates an empty affiliate registry.
func NewRegistry() *Registry {
	return &Registry{
		byCode: make(map[string]*Record),
		byAddr: make(map[common.Address]*Record),
		bound:  make(map[common.Address]common.Address),
	}
}

// Add registers addr as an affiliate under code with the given commission
// percent. Fails if the code is already claimed by an active record.
func (r *Registry) Add(addr common.Address, code string, percent uint8) error {
	if percent > 100 {
		return fmt.Errorf("%w: %d", ErrPercentRange, percent)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.byCode[code]; ok && rec.Active {
		return fmt.Errorf("%w: %q", ErrDuplicateCode, code)
	}
	rec := &Record{Owner: addr, Code: code, Percent: percent, Active: true}
	r.byCode[code] = rec
	r.byAddr[addr] = rec
	return nil
}

// Remove deactivates the affiliate registered at addr. Its code stops
// resolving and commission lookups for it return zero; existing bindings
// are left in place.
func (r *Registry) Remove(addr common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byAddr[addr]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAffiliate, addr.Hex())
	}
	rec.Active = false
	return nil
}

// CodeExists reports whether code resolves to an active affiliate.
func (r *Registry) CodeExists(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byCode[code]
	return ok && rec.Active
}

// IsAffiliate reports whether addr holds an active affiliate registration.
func (r *Registry) IsAffiliate(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byAddr[addr]
	return ok && rec.Active
}

// Resolve returns the active affiliate owning code.
func (r *Registry) Resolve(code string) (common.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byCode[code]
	if !ok || !rec.Active {
		return Void, false
	}
	return rec.Owner, true
}

// Bind associates user with the affiliate that code resolves to and returns
// the resulting binding. First write wins: once bound (possibly to Void), a
// later call with a different code is a no-op. A code owned by the user
// itself, or one that does not resolve, binds Void.
func (r *Registry) Bind(user common.Address, code string) common.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.bound[user]; ok {
		return owner
	}
	owner := Void
	if rec, ok := r.byCode[code]; ok && rec.Active && rec.Owner != user {
		owner = rec.Owner
	}
	r.bound[user] = owner
	return owner
}

// BoundTo returns the affiliate user is bound to and whether any binding
// (including a Void one) exists.
func (r *Registry) BoundTo(user common.Address) (common.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.bound[user]
	return owner, ok
}

// BindingCode returns the code of the affiliate user is bound to, or
// VoidCode when the user is unbound, bound to Void, or bound to an
// affiliate that no longer has a record.
func (r *Registry) BindingCode(user common.Address) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.bound[user]
	if !ok || owner == Void {
		return VoidCode
	}
	rec, ok := r.byAddr[owner]
	if !ok {
		return VoidCode
	}
	return rec.Code
}

// Commission computes the payout owed on a collected fee for the affiliate
// user is bound to: fee * percent / 100, truncating. It returns the payee
// and zero when the user is unbound, bound to Void, or bound to a removed
// affiliate.
func (r *Registry) Commission(fee *uint256.Int, user common.Address) (common.Address, *uint256.Int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.bound[user]
	if !ok || owner == Void {
		return Void, new(uint256.Int)
	}
	rec, ok := r.byAddr[owner]
	if !ok || !rec.Active {
		return Void, new(uint256.Int)
	}
	cut := new(uint256.Int).Mul(fee, uint256.NewInt(uint64(rec.Percent)))
	cut.Div(cut, uint256.NewInt(100))
	return owner, cut
}
