package engine

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/multisendorg/libmultisend-go/pricing"
)

// GrantTokenListing lists token without charge. Owner-only.
func (e *Engine) GrantTokenListing(caller, token common.Address) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listed[token] = true
	e.log.Info("token listing granted", zap.String("token", token.Hex()))
	return nil
}

// RevokeGrantedTokenListing delists token. Owner-only.
func (e *Engine) RevokeGrantedTokenListing(caller, token common.Address) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.listed, token)
	e.log.Info("token listing revoked", zap.String("token", token.Hex()))
	return nil
}

// PurchaseTokenListing lists token permanently in exchange for the
// discounted listing fee, settled through the same commission and refund
// pipeline as membership purchases.
func (e *Engine) PurchaseTokenListing(call Call, token common.Address, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	invocation := uuid.NewString()
	value := call.value()
	fee := pricing.Discounted(e.cfg.ListingFee, e.prices.ListingDiscount(token))

	if value.Lt(fee) {
		return fmt.Errorf("%w: need %s, got %s", ErrInsufficientPayment, fee.Dec(), value.Dec())
	}

	j := &journal{}
	commission, err := func() (*uint256.Int, error) {
		if !e.listed[token] {
			e.listed[token] = true
			j.record(func() error { delete(e.listed, token); return nil })
		}
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

	e.log.Info("token listing purchased",
		zap.String("invocation", invocation),
		zap.String("caller", call.Caller.Hex()),
		zap.String("token", token.Hex()),
		zap.String("fee", fee.Dec()),
		zap.String("commission", commission.Dec()))
	return nil
}
