package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/multisendorg/libmultisend-go/membership"
	"github.com/multisendorg/libmultisend-go/pricing"
)

// BecomeOneDayMember purchases a 1-day premium membership. The optional
// referral code binds the caller to an affiliate on first use.
func (e *Engine) BecomeOneDayMember(call Call, code string) error {
	return e.becomeMember(call, membership.TierOneDay, code)
}

// BecomeOneWeekMember purchases a 7-day premium membership.
func (e *Engine) BecomeOneWeekMember(call Call, code string) error {
	return e.becomeMember(call, membership.TierOneWeek, code)
}

// BecomeOneMonthMember purchases a 30-day premium membership.
func (e *Engine) BecomeOneMonthMember(call Call, code string) error {
	return e.becomeMember(call, membership.TierOneMonth, code)
}

// BecomeLifetimeMember purchases a membership that never expires.
func (e *Engine) BecomeLifetimeMember(call Call, code string) error {
	return e.becomeMember(call, membership.TierLifetime, code)
}

// tierPriceLocked returns the undiscounted price of tier.
func (e *Engine) tierPriceLocked(tier membership.Tier) *uint256.Int {
	switch tier {
	case membership.TierOneDay:
		return e.cfg.OneDayPrice
	case membership.TierOneWeek:
		return e.cfg.OneWeekPrice
	case membership.TierOneMonth:
		return e.cfg.OneMonthPrice
	default:
		return e.cfg.LifetimePrice
	}
}

// becomeMember runs the shared purchase pipeline: price lookup with
// discount, freshness check, referral binding, fee split, refund.
func (e *Engine) becomeMember(call Call, tier membership.Tier, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	invocation := uuid.NewString()
	now := e.now()
	value := call.value()
	fee := pricing.Discounted(e.tierPriceLocked(tier), e.prices.MembershipDiscount(call.Caller))

	if e.members.IsPremium(call.Caller, now) {
		return fmt.Errorf("%w: %s", ErrAlreadyMember, call.Caller.Hex())
	}
	if value.Lt(fee) {
		return fmt.Errorf("%w: need %s, got %s", ErrInsufficientPayment, fee.Dec(), value.Dec())
	}

	j := &journal{}
	commission, err := func() (*uint256.Int, error) {
		snap := e.members.Snapshot()
		if err := e.members.Purchase(call.Caller, tier, now); err != nil {
			return nil, err
		}
		j.record(func() error { e.members.Restore(snap); return nil })

		if !fee.IsZero() {
			e.bindOnFee(j, call.Caller, code)
		}

		if err := e.pay(j, call.Caller, e.account, value); err != nil {
			return nil, err
		}
		return e.settleFee(j, call.Caller, value, fee)
	}()
	if err != nil {
		e.rollback(j, invocation)
		return err
	}

	e.log.Info("membership purchased",
		zap.String("invocation", invocation),
		zap.String("caller", call.Caller.Hex()),
		zap.Stringer("tier", tier),
		zap.String("fee", fee.Dec()),
		zap.String("commission", commission.Dec()))
	return nil
}
