package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/multisendorg/libmultisend-go/affiliate"
	"github.com/multisendorg/libmultisend-go/config"
	"github.com/multisendorg/libmultisend-go/membership"
	"github.com/multisendorg/libmultisend-go/pricing"
	"github.com/multisendorg/libmultisend-go/transfer"
)

// Engine is the batched value-distribution engine. It owns the price table,
// the membership and affiliate ledgers, the token listing and free-trial
// records, and settles every operation through a native-currency ledger.
//
// Each public operation is one invocation: it either fully succeeds or
// leaves no state change and no net transfer behind. Operations are
// serialized; Engine methods must not be re-entered from transfer callbacks.
type Engine struct {
	mu         sync.Mutex
	cfg        config.Config
	prices     *pricing.Book
	members    *membership.Registry
	affiliates *affiliate.Registry
	ledger     transfer.Ledger
	account    common.Address // custody account; drained back to zero every invocation
	listed     map[common.Address]bool
	trialUsed  map[common.Address]bool
	log        *zap.Logger
	now        func() int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithClock sets the time source (unix seconds). Defaults to time.Now.
func WithClock(now func() int64) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine settling through ledger, holding in-flight value in
// account. The configuration must validate and account must be distinct
// from the zero address.
func New(cfg config.Config, account common.Address, ledger transfer.Ledger, opts ...Option) (*Engine, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if account == (common.Address{}) {
		return nil, ErrZeroAccount
	}
	if ledger == nil {
		return nil, ErrNilLedger
	}
	e := &Engine{
		cfg:        cfg.Clone(),
		prices:     pricing.NewBook(),
		members:    membership.NewRegistry(),
		affiliates: affiliate.NewRegistry(),
		ledger:     ledger,
		account:    account,
		listed:     make(map[common.Address]bool),
		trialUsed:  make(map[common.Address]bool),
		log:        zap.NewNop(),
		now:        func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Call identifies one external invocation: the trusted caller identity and
// the native-currency value attached to it.
type Call struct {
	Caller common.Address
	Value  *uint256.Int
}

// value returns the attached value, treating nil as zero.
func (c Call) value() *uint256.Int {
	if c.Value == nil {
		return new(uint256.Int)
	}
	return c.Value.Clone()
}

// Owner returns the administrator address.
func (e *Engine) Owner() common.Address { return e.cfg.Owner }

// Account returns the engine's custody account.
func (e *Engine) Account() common.Address { return e.account }

// DropUnitPrice returns the current per-recipient batch fee.
func (e *Engine) DropUnitPrice() *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.DropUnitPrice.Clone()
}

// CheckIsPremiumMember reports whether addr holds an unexpired membership.
func (e *Engine) CheckIsPremiumMember(addr common.Address) bool {
	return e.members.IsPremium(addr, e.now())
}

// CheckIsListedToken reports whether token distribution fees are waived for
// all callers of token.
func (e *Engine) CheckIsListedToken(token common.Address) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listed[token]
}

// TokenHasFreeTrial reports whether token has never been distributed.
func (e *Engine) TokenHasFreeTrial(token common.Address) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.trialUsed[token]
}

// GetListingFeeForToken returns the listing fee for token after discount.
func (e *Engine) GetListingFeeForToken(token common.Address) *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return pricing.Discounted(e.cfg.ListingFee, e.prices.ListingDiscount(token))
}

// AffiliateCodeExists reports whether code resolves to an active affiliate.
func (e *Engine) AffiliateCodeExists(code string) bool {
	return e.affiliates.CodeExists(code)
}

// IsAffiliate reports whether addr holds an active affiliate registration.
func (e *Engine) IsAffiliate(addr common.Address) bool {
	return e.affiliates.IsAffiliate(addr)
}

// IsAffiliatedWith returns the referral code addr is bound to, or "void".
func (e *Engine) IsAffiliatedWith(addr common.Address) string {
	return e.affiliates.BindingCode(addr)
}

// ---------------------------------------------------------------------------
// Owner-only administration
// ---------------------------------------------------------------------------

// requireOwner gates owner-only operations.
func (e *Engine) requireOwner(caller common.Address) error {
	if caller != e.cfg.Owner {
		return fmt.Errorf("%w: caller %s", ErrUnauthorized, caller.Hex())
	}
	return nil
}

// AddAffiliate registers an affiliate under code with the given commission
// percent of every fee collected from users it refers.
func (e *Engine) AddAffiliate(caller, addr common.Address, code string, percent uint8) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.affiliates.Add(addr, code, percent); err != nil {
		return err
	}
	e.log.Info("affiliate added",
		zap.String("affiliate", addr.Hex()),
		zap.String("code", code),
		zap.Uint8("percent", percent))
	return nil
}

// RemoveAffiliate deactivates an affiliate. Its code stops resolving and no
// further commission accrues to it; past payouts are untouched.
func (e *Engine) RemoveAffiliate(caller, addr common.Address) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.affiliates.Remove(addr); err != nil {
		return err
	}
	e.log.Info("affiliate removed", zap.String("affiliate", addr.Hex()))
	return nil
}

// SetPremiumMembershipDiscount sets the membership-price discount for addr.
func (e *Engine) SetPremiumMembershipDiscount(caller, addr common.Address, percent uint8) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	return e.prices.SetMembershipDiscount(addr, percent)
}

// SetTokenListingFeeDiscount sets the listing-fee discount for token.
func (e *Engine) SetTokenListingFeeDiscount(caller, token common.Address, percent uint8) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	return e.prices.SetListingDiscount(token, percent)
}

// SetDropUnitPrice replaces the per-recipient batch fee.
func (e *Engine) SetDropUnitPrice(caller common.Address, price *uint256.Int) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if price == nil {
		return fmt.Errorf("%w: drop_unit_price", config.ErrNilPrice)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.DropUnitPrice = price.Clone()
	return nil
}

// SetMembershipPrice replaces the price of one membership tier.
func (e *Engine) SetMembershipPrice(caller common.Address, tier membership.Tier, price *uint256.Int) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if price == nil {
		return fmt.Errorf("%w: %s", config.ErrNilPrice, tier)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	switch tier {
	case membership.TierOneDay:
		e.cfg.OneDayPrice = price.Clone()
	case membership.TierOneWeek:
		e.cfg.OneWeekPrice = price.Clone()
	case membership.TierOneMonth:
		e.cfg.OneMonthPrice = price.Clone()
	case membership.TierLifetime:
		e.cfg.LifetimePrice = price.Clone()
	}
	return nil
}

// SetTokenListingFee replaces the base token-listing fee.
func (e *Engine) SetTokenListingFee(caller common.Address, price *uint256.Int) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if price == nil {
		return fmt.Errorf("%w: listing_fee", config.ErrNilPrice)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.ListingFee = price.Clone()
	return nil
}

// ---------------------------------------------------------------------------
// Settlement pipeline
// ---------------------------------------------------------------------------

// pay executes one native transfer and records its inverse in the journal.
func (e *Engine) pay(j *journal, from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	if err := e.ledger.Transfer(from, to, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrPayoutFailed, err)
	}
	amt := amount.Clone()
	j.record(func() error { return e.ledger.Transfer(to, from, amt) })
	return nil
}

// bindOnFee records the caller's referral binding. Called only on
// fee-collecting interactions; the binding is first-write-wins.
func (e *Engine) bindOnFee(j *journal, user common.Address, code string) common.Address {
	snap := e.affiliates.Snapshot()
	bound := e.affiliates.Bind(user, code)
	j.record(func() error { e.affiliates.Restore(snap); return nil })
	return bound
}

// settleFee disburses one collected fee: the affiliate's cut first, the
// remainder to the owner, and the overpayment back to the caller. The
// attached value must already be in custody. Returns the commission paid.
func (e *Engine) settleFee(j *journal, caller common.Address, value, fee *uint256.Int) (*uint256.Int, error) {
	cut := new(uint256.Int)
	if !fee.IsZero() {
		var payee common.Address
		payee, cut = e.affiliates.Commission(fee, caller)
		if err := e.pay(j, e.account, payee, cut); err != nil {
			return nil, err
		}
		ownerTake := new(uint256.Int).Sub(fee, cut)
		if err := e.pay(j, e.account, e.cfg.Owner, ownerTake); err != nil {
			return nil, err
		}
	}
	refund := new(uint256.Int).Sub(value, fee)
	if err := e.pay(j, e.account, caller, refund); err != nil {
		return nil, err
	}
	return cut, nil
}

// rollback unwinds the journal after a failed invocation.
func (e *Engine) rollback(j *journal, invocation string) {
	if err := j.unwind(); err != nil {
		e.log.Error("rollback incomplete",
			zap.String("invocation", invocation),
			zap.Error(err))
	}
}
