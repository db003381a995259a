package affiliate

import "github.com/ethereum/go-ethereum/common"

// Snapshot captures affiliate records and user bindings for persistence.
type Snapshot struct {
	Records  []Record
	Bindings map[common.Address]common.Address
}

// Snapshot returns a deep copy of the registry state. Records are collected
// from both indexes: a deactivated affiliate whose code was later reclaimed
// still has bindings pointing at it and must survive the round trip.
// Records are listed in no particular order.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := Snapshot{
		Records:  make([]Record, 0, len(r.byAddr)),
		Bindings: make(map[common.Address]common.Address, len(r.bound)),
	}
	seen := make(map[*Record]bool, len(r.byAddr))
	for _, rec := range r.byAddr {
		seen[rec] = true
		snap.Records = append(snap.Records, *rec)
	}
	for _, rec := range r.byCode {
		if !seen[rec] {
			snap.Records = append(snap.Records, *rec)
		}
	}
	for user, owner := range r.bound {
		snap.Bindings[user] = owner
	}
	return snap
}

// Restore replaces the registry state with the snapshot. When several
// records carry the same code, the active one claims the code index.
func (r *Registry) Restore(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCode = make(map[string]*Record, len(snap.Records))
	r.byAddr = make(map[common.Address]*Record, len(snap.Records))
	r.bound = make(map[common.Address]common.Address, len(snap.Bindings))
	for i := range snap.Records {
		rec := snap.Records[i]
		if cur, ok := r.byAddr[rec.Owner]; !ok || !cur.Active {
			r.byAddr[rec.Owner] = &rec
		}
		if cur, ok := r.byCode[rec.Code]; !ok || !cur.Active {
			r.byCode[rec.Code] = &rec
		}
	}
	for user, owner := range snap.Bindings {
		r.bound[user] = owner
	}
}
