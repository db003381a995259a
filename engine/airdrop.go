package engine

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/multisendorg/libmultisend-go/pricing"
	"github.com/multisendorg/libmultisend-go/transfer"
)

// AirdropNativeCurrency transfers amounts[i] of native currency to
// recipients[i] in order. The attached value must cover the declared total
// plus the batch fee; the fee is waived entirely for premium members.
func (e *Engine) AirdropNativeCurrency(call Call, recipients []common.Address, amounts []*uint256.Int, total *uint256.Int, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	invocation := uuid.NewString()
	value := call.value()

	if len(recipients) != len(amounts) {
		return fmt.Errorf("%w: %d recipients, %d amounts", ErrLengthMismatch, len(recipients), len(amounts))
	}
	if err := checkTotal(amounts, total); err != nil {
		return err
	}

	fee := new(uint256.Int)
	if !e.members.IsPremium(call.Caller, e.now()) {
		fee = pricing.BatchFee(e.cfg.DropUnitPrice, len(recipients))
	}
	required := new(uint256.Int).Add(fee, total)
	if value.Lt(required) {
		return fmt.Errorf("%w: need %s, got %s", ErrInsufficientPayment, required.Dec(), value.Dec())
	}

	j := &journal{}
	commission, err := func() (*uint256.Int, error) {
		if !fee.IsZero() {
			e.bindOnFee(j, call.Caller, code)
		}

		if err := e.pay(j, call.Caller, e.account, value); err != nil {
			return nil, err
		}
		for i, rcpt := range recipients {
			if err := e.pay(j, e.account, rcpt, amounts[i]); err != nil {
				return nil, err
			}
		}
		remaining := new(uint256.Int).Sub(value, total)
		return e.settleFee(j, call.Caller, remaining, fee)
	}()
	if err != nil {
		e.rollback(j, invocation)
		return err
	}

	e.log.Info("native airdrop settled",
		zap.String("invocation", invocation),
		zap.String("caller", call.Caller.Hex()),
		zap.Int("drops", len(recipients)),
		zap.String("total", total.Dec()),
		zap.String("fee", fee.Dec()),
		zap.String("commission", commission.Dec()))
	return nil
}

// ERC20Airdrop distributes a fungible token to many recipients. The fee is
// waived for premium callers, listed tokens, and a token's first-ever
// distribution (its free trial, consumed on this call regardless of who
// invoked it). With deflationary set, the token may deliver less than
// requested per transfer and the engine distributes at most what actually
// arrived in custody. The optimized path moves tokens caller→recipient
// directly, skipping the custody hop; behavior is otherwise identical.
func (e *Engine) ERC20Airdrop(call Call, tokenAddr common.Address, token transfer.ERC20, recipients []common.Address, amounts []*uint256.Int, total *uint256.Int, deflationary, optimized bool, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	invocation := uuid.NewString()
	value := call.value()

	if token == nil {
		return ErrNilToken
	}
	if len(recipients) != len(amounts) {
		return fmt.Errorf("%w: %d recipients, %d amounts", ErrLengthMismatch, len(recipients), len(amounts))
	}
	if err := checkTotal(amounts, total); err != nil {
		return err
	}

	waived := e.members.IsPremium(call.Caller, e.now()) || e.listed[tokenAddr] || !e.trialUsed[tokenAddr]
	fee := new(uint256.Int)
	if !waived {
		fee = pricing.BatchFee(e.cfg.DropUnitPrice, len(recipients))
	}
	if value.Lt(fee) {
		return fmt.Errorf("%w: need %s, got %s", ErrInsufficientPayment, fee.Dec(), value.Dec())
	}

	j := &journal{}
	commission, err := func() (*uint256.Int, error) {
		if !e.trialUsed[tokenAddr] {
			e.trialUsed[tokenAddr] = true
			j.record(func() error { delete(e.trialUsed, tokenAddr); return nil })
		}
		if !fee.IsZero() {
			e.bindOnFee(j, call.Caller, code)
		}

		if err := e.pay(j, call.Caller, e.account, value); err != nil {
			return nil, err
		}
		if optimized {
			if err := e.sendTokensDirect(j, token, call.Caller, recipients, amounts); err != nil {
				return nil, err
			}
		} else {
			if err := e.sendTokensCustodial(j, token, call.Caller, recipients, amounts, total, deflationary); err != nil {
				return nil, err
			}
		}
		return e.settleFee(j, call.Caller, value, fee)
	}()
	if err != nil {
		e.rollback(j, invocation)
		return err
	}

	e.log.Info("token airdrop settled",
		zap.String("invocation", invocation),
		zap.String("caller", call.Caller.Hex()),
		zap.String("token", tokenAddr.Hex()),
		zap.Int("drops", len(recipients)),
		zap.Bool("waived", waived),
		zap.String("fee", fee.Dec()),
		zap.String("commission", commission.Dec()))
	return nil
}

// sendTokensDirect moves amounts[i] caller→recipients[i] with no custody hop.
func (e *Engine) sendTokensDirect(j *journal, token transfer.ERC20, from common.Address, recipients []common.Address, amounts []*uint256.Int) error {
	for i, rcpt := range recipients {
		if err := e.sendToken(j, token, from, rcpt, amounts[i]); err != nil {
			return err
		}
	}
	return nil
}

// sendTokensCustodial pulls the declared total into the engine's holding
// account and distributes from there. For deflationary tokens it measures
// what actually arrived and never sends more than remains.
func (e *Engine) sendTokensCustodial(j *journal, token transfer.ERC20, from common.Address, recipients []common.Address, amounts []*uint256.Int, total *uint256.Int, deflationary bool) error {
	before := token.BalanceOf(e.account)
	if err := e.sendToken(j, token, from, e.account, total); err != nil {
		return err
	}

	if !deflationary {
		for i, rcpt := range recipients {
			if err := e.sendToken(j, token, e.account, rcpt, amounts[i]); err != nil {
				return err
			}
		}
		return nil
	}

	remaining := new(uint256.Int).Sub(token.BalanceOf(e.account), before)
	for i, rcpt := range recipients {
		if remaining.IsZero() {
			break
		}
		amt := amounts[i].Clone()
		if remaining.Lt(amt) {
			amt = remaining.Clone()
		}
		if err := e.sendToken(j, token, e.account, rcpt, amt); err != nil {
			return err
		}
		remaining.Sub(remaining, amt)
	}
	return nil
}

// sendToken executes one token transfer and records its inverse.
func (e *Engine) sendToken(j *journal, token transfer.ERC20, from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	if err := token.TransferFrom(from, to, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrPayoutFailed, err)
	}
	amt := amount.Clone()
	j.record(func() error { return token.TransferFrom(to, from, amt) })
	return nil
}

// ERC721Airdrop transfers token ids[i] to recipients[i]. The fee is waived
// for premium callers. With useBatch set and a batch-capable token, all ids
// move in one call; the result is identical either way.
func (e *Engine) ERC721Airdrop(call Call, token transfer.ERC721, recipients []common.Address, ids []uint64, useBatch bool, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	invocation := uuid.NewString()
	value := call.value()

	if token == nil {
		return ErrNilToken
	}
	if len(recipients) != len(ids) {
		return fmt.Errorf("%w: %d recipients, %d ids", ErrLengthMismatch, len(recipients), len(ids))
	}

	fee := new(uint256.Int)
	if !e.members.IsPremium(call.Caller, e.now()) {
		fee = pricing.BatchFee(e.cfg.DropUnitPrice, len(recipients))
	}
	if value.Lt(fee) {
		return fmt.Errorf("%w: need %s, got %s", ErrInsufficientPayment, fee.Dec(), value.Dec())
	}

	j := &journal{}
	commission, err := func() (*uint256.Int, error) {
		if !fee.IsZero() {
			e.bindOnFee(j, call.Caller, code)
		}

		if err := e.pay(j, call.Caller, e.account, value); err != nil {
			return nil, err
		}

		batcher, canBatch := token.(transfer.ERC721Batcher)
		if useBatch && canBatch {
			if err := batcher.BatchTransferFrom(call.Caller, recipients, ids); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrPayoutFailed, err)
			}
			caller := call.Caller
			tos := append([]common.Address(nil), recipients...)
			moved := append([]uint64(nil), ids...)
			j.record(func() error {
				for i := len(moved) - 1; i >= 0; i-- {
					if err := token.TransferFrom(tos[i], caller, moved[i]); err != nil {
						return err
					}
				}
				return nil
			})
		} else {
			for i, rcpt := range recipients {
				if err := token.TransferFrom(call.Caller, rcpt, ids[i]); err != nil {
					return nil, fmt.Errorf("%w: %w", ErrPayoutFailed, err)
				}
				caller, to, id := call.Caller, rcpt, ids[i]
				j.record(func() error { return token.TransferFrom(to, caller, id) })
			}
		}
		return e.settleFee(j, call.Caller, value, fee)
	}()
	if err != nil {
		e.rollback(j, invocation)
		return err
	}

	e.log.Info("nft airdrop settled",
		zap.String("invocation", invocation),
		zap.String("caller", call.Caller.Hex()),
		zap.Int("drops", len(recipients)),
		zap.String("fee", fee.Dec()),
		zap.String("commission", commission.Dec()))
	return nil
}

// ERC1155Airdrop transfers amounts[i] units of token ids[i] to
// recipients[i]. Fee, waiver, commission, and refund behave as in
// AirdropNativeCurrency.
func (e *Engine) ERC1155Airdrop(call Call, token transfer.ERC1155, recipients []common.Address, ids, amounts []uint64, useBatch bool, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	invocation := uuid.NewString()
	value := call.value()

	if token == nil {
		return ErrNilToken
	}
	if len(recipients) != len(ids) || len(recipients) != len(amounts) {
		return fmt.Errorf("%w: %d recipients, %d ids, %d amounts",
			ErrLengthMismatch, len(recipients), len(ids), len(amounts))
	}

	fee := new(uint256.Int)
	if !e.members.IsPremium(call.Caller, e.now()) {
		fee = pricing.BatchFee(e.cfg.DropUnitPrice, len(recipients))
	}
	if value.Lt(fee) {
		return fmt.Errorf("%w: need %s, got %s", ErrInsufficientPayment, fee.Dec(), value.Dec())
	}

	j := &journal{}
	commission, err := func() (*uint256.Int, error) {
		if !fee.IsZero() {
			e.bindOnFee(j, call.Caller, code)
		}

		if err := e.pay(j, call.Caller, e.account, value); err != nil {
			return nil, err
		}
		for i, rcpt := range recipients {
			var err error
			if useBatch {
				err = token.SafeBatchTransferFrom(call.Caller, rcpt, []uint64{ids[i]}, []uint64{amounts[i]}, nil)
			} else {
				err = token.SafeTransferFrom(call.Caller, rcpt, ids[i], amounts[i], nil)
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrPayoutFailed, err)
			}
			caller, to, id, amt := call.Caller, rcpt, ids[i], amounts[i]
			j.record(func() error { return token.SafeTransferFrom(to, caller, id, amt, nil) })
		}
		return e.settleFee(j, call.Caller, value, fee)
	}()
	if err != nil {
		e.rollback(j, invocation)
		return err
	}

	e.log.Info("multi-token airdrop settled",
		zap.String("invocation", invocation),
		zap.String("caller", call.Caller.Hex()),
		zap.Int("drops", len(recipients)),
		zap.String("fee", fee.Dec()),
		zap.String("commission", commission.Dec()))
	return nil
}

// checkTotal verifies the declared total equals the sum of amounts before
// any transfer work starts.
func checkTotal(amounts []*uint256.Int, total *uint256.Int) error {
	if total == nil {
		return fmt.Errorf("%w: nil total", ErrAmountMismatch)
	}
	sum := new(uint256.Int)
	for _, a := range amounts {
		if a == nil {
			return fmt.Errorf("%w: nil amount", ErrAmountMismatch)
		}
		sum.Add(sum, a)
	}
	if !sum.Eq(total) {
		return fmt.Errorf("%w: declared %s, sum %s", ErrAmountMismatch, total.Dec(), sum.Dec())
	}
	return nil
}
