package engine

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multisendorg/libmultisend-go/config"
	"github.com/multisendorg/libmultisend-go/membership"
	"github.com/multisendorg/libmultisend-go/transfer"
)

var (
	ownerAddr = makeAddr(0xA1)
	custody   = makeAddr(0xEE)
)

func makeAddr(seed byte) common.Address {
	var a common.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

// seqAddr returns a distinct non-zero address per index.
func seqAddr(i int) common.Address {
	var a common.Address
	a[0] = 0xD0
	a[18] = byte(i >> 8)
	a[19] = byte(i)
	return a
}

func dec(s string) *uint256.Int { return uint256.MustFromDecimal(s) }

type fixture struct {
	engine *Engine
	book   *transfer.AccountBook
	now    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Owner = ownerAddr
	f := &fixture{
		book: transfer.NewAccountBook(),
		now:  1_700_000_000,
	}
	e, err := New(cfg, custody, f.book, WithClock(func() int64 { return f.now }))
	require.NoError(t, err)
	f.engine = e
	return f
}

func (f *fixture) fund(addr common.Address, amount string) {
	f.book.Mint(addr, dec(amount))
}

func (f *fixture) bal(addr common.Address) *uint256.Int {
	return f.book.BalanceOf(addr)
}

// requireDrained asserts the custody account holds nothing between
// invocations.
func requireDrained(t *testing.T, f *fixture) {
	t.Helper()
	require.True(t, f.bal(custody).IsZero(), "custody account holds %s", f.bal(custody).Dec())
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Owner = ownerAddr
	book := transfer.NewAccountBook()

	t.Run("zero custody account", func(t *testing.T) {
		_, err := New(cfg, common.Address{}, book)
		assert.ErrorIs(t, err, ErrZeroAccount)
	})

	t.Run("nil ledger", func(t *testing.T) {
		_, err := New(cfg, custody, nil)
		assert.ErrorIs(t, err, ErrNilLedger)
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := config.DefaultConfig()
		_, err := New(bad, custody, book)
		assert.ErrorIs(t, err, config.ErrZeroOwner)
	})

	t.Run("config is copied", func(t *testing.T) {
		mine := config.DefaultConfig()
		mine.Owner = ownerAddr
		e, err := New(mine, custody, book)
		require.NoError(t, err)
		mine.DropUnitPrice.SetUint64(1)
		assert.Equal(t, "2000000000000000", e.DropUnitPrice().Dec())
	})
}

func TestMembershipTiers(t *testing.T) {
	tests := []struct {
		name     string
		buy      func(e *Engine, call Call) error
		price    string
		duration int64 // 0 means never expires
	}{
		{
			name:     "one day",
			buy:      func(e *Engine, call Call) error { return e.BecomeOneDayMember(call, "") },
			price:    "900000000000000000",
			duration: 86400,
		},
		{
			name:     "one week",
			buy:      func(e *Engine, call Call) error { return e.BecomeOneWeekMember(call, "") },
			price:    "1250000000000000000",
			duration: 7 * 86400,
		},
		{
			name:     "one month",
			buy:      func(e *Engine, call Call) error { return e.BecomeOneMonthMember(call, "") },
			price:    "2000000000000000000",
			duration: 30 * 86400,
		},
		{
			name:  "lifetime",
			buy:   func(e *Engine, call Call) error { return e.BecomeLifetimeMember(call, "") },
			price: "2500000000000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			user := makeAddr(0x11)
			f.fund(user, "10000000000000000000")

			err := tt.buy(f.engine, Call{Caller: user, Value: dec(tt.price)})
			require.NoError(t, err)

			assert.True(t, f.engine.CheckIsPremiumMember(user))
			assert.Equal(t, tt.price, f.bal(ownerAddr).Dec())
			want := new(uint256.Int).Sub(dec("10000000000000000000"), dec(tt.price))
			assert.Equal(t, want.Dec(), f.bal(user).Dec())
			requireDrained(t, f)

			if tt.duration == 0 {
				f.now += 100 * 365 * 86400
				assert.True(t, f.engine.CheckIsPremiumMember(user))
				return
			}
			f.now += tt.duration - 1
			assert.True(t, f.engine.CheckIsPremiumMember(user))
			f.now += 2
			assert.False(t, f.engine.CheckIsPremiumMember(user))
		})
	}
}

func TestMembershipAlreadyMember(t *testing.T) {
	f := newFixture(t)
	user := makeAddr(0x11)
	f.fund(user, "10000000000000000000")

	require.NoError(t, f.engine.BecomeOneDayMember(Call{Caller: user, Value: dec("900000000000000000")}, ""))
	err := f.engine.BecomeOneDayMember(Call{Caller: user, Value: dec("900000000000000000")}, "")
	assert.ErrorIs(t, err, ErrAlreadyMember)

	// An expired membership can be bought again.
	f.now += 86401
	require.NoError(t, f.engine.BecomeOneDayMember(Call{Caller: user, Value: dec("900000000000000000")}, ""))
	assert.True(t, f.engine.CheckIsPremiumMember(user))
	requireDrained(t, f)
}

func TestMembershipInsufficientPayment(t *testing.T) {
	f := newFixture(t)
	user := makeAddr(0x11)
	f.fund(user, "10000000000000000000")

	err := f.engine.BecomeLifetimeMember(Call{Caller: user, Value: dec("2499999999999999999")}, "")
	assert.ErrorIs(t, err, ErrInsufficientPayment)
	assert.False(t, f.engine.CheckIsPremiumMember(user))
	assert.Equal(t, "10000000000000000000", f.bal(user).Dec())
	assert.True(t, f.bal(ownerAddr).IsZero())
	requireDrained(t, f)
}

func TestMembershipDiscount(t *testing.T) {
	f := newFixture(t)
	user := makeAddr(0x11)
	f.fund(user, "10000000000000000000")

	require.NoError(t, f.engine.SetPremiumMembershipDiscount(ownerAddr, user, 50))

	// Half price is now enough; 0.45 instead of 0.9.
	err := f.engine.BecomeOneDayMember(Call{Caller: user, Value: dec("450000000000000000")}, "")
	require.NoError(t, err)
	assert.True(t, f.engine.CheckIsPremiumMember(user))
	assert.Equal(t, "450000000000000000", f.bal(ownerAddr).Dec())
	requireDrained(t, f)
}

func TestMembershipOverpaymentRefunded(t *testing.T) {
	f := newFixture(t)
	user := makeAddr(0x11)
	f.fund(user, "3000000000000000000")

	err := f.engine.BecomeLifetimeMember(Call{Caller: user, Value: dec("3000000000000000000")}, "")
	require.NoError(t, err)

	assert.Equal(t, "500000000000000000", f.bal(user).Dec())
	assert.Equal(t, "2500000000000000000", f.bal(ownerAddr).Dec())
	requireDrained(t, f)
}

func TestMembershipCommission(t *testing.T) {
	f := newFixture(t)
	aff := makeAddr(0x22)
	user := makeAddr(0x11)
	f.fund(user, "3000000000000000000")

	require.NoError(t, f.engine.AddAffiliate(ownerAddr, aff, "aff3", 33))

	err := f.engine.BecomeLifetimeMember(Call{Caller: user, Value: dec("3000000000000000000")}, "aff3")
	require.NoError(t, err)

	// 33% of 2.5, truncating; the owner takes the rest.
	assert.Equal(t, "825000000000000000", f.bal(aff).Dec())
	assert.Equal(t, "1675000000000000000", f.bal(ownerAddr).Dec())
	assert.Equal(t, "500000000000000000", f.bal(user).Dec())
	assert.Equal(t, "aff3", f.engine.IsAffiliatedWith(user))
	requireDrained(t, f)
}

func TestSelfReferralBindsVoid(t *testing.T) {
	f := newFixture(t)
	aff := makeAddr(0x22)
	f.fund(aff, "3000000000000000000")

	require.NoError(t, f.engine.AddAffiliate(ownerAddr, aff, "mine", 33))

	err := f.engine.BecomeLifetimeMember(Call{Caller: aff, Value: dec("2500000000000000000")}, "mine")
	require.NoError(t, err)

	// No commission back to the buyer; the owner keeps the whole fee.
	assert.Equal(t, "void", f.engine.IsAffiliatedWith(aff))
	assert.Equal(t, "500000000000000000", f.bal(aff).Dec())
	assert.Equal(t, "2500000000000000000", f.bal(ownerAddr).Dec())
}

func TestReferralBindingFirstWriteWins(t *testing.T) {
	f := newFixture(t)
	aff := makeAddr(0x22)
	user := makeAddr(0x11)
	f.fund(user, "10000000000000000000")

	recipients := make([]common.Address, 13)
	amounts := make([]*uint256.Int, 13)
	total := new(uint256.Int)
	for i := range recipients {
		recipients[i] = seqAddr(i + 1)
		amounts[i] = uint256.NewInt(1000)
		total.Add(total, amounts[i])
	}

	// First fee-paying interaction carries no usable code: the caller is
	// bound to void for good.
	err := f.engine.AirdropNativeCurrency(Call{Caller: user, Value: dec("1000000000000000000")}, recipients, amounts, total, "aff1")
	require.NoError(t, err)
	assert.Equal(t, "void", f.engine.IsAffiliatedWith(user))

	require.NoError(t, f.engine.AddAffiliate(ownerAddr, aff, "aff1", 20))

	err = f.engine.AirdropNativeCurrency(Call{Caller: user, Value: dec("1000000000000000000")}, recipients, amounts, total, "aff1")
	require.NoError(t, err)
	assert.Equal(t, "void", f.engine.IsAffiliatedWith(user))
	assert.True(t, f.bal(aff).IsZero())
	requireDrained(t, f)
}

func TestRemovedAffiliateStopsAccruing(t *testing.T) {
	f := newFixture(t)
	aff := makeAddr(0x22)
	user := makeAddr(0x11)
	f.fund(user, "10000000000000000000")

	require.NoError(t, f.engine.AddAffiliate(ownerAddr, aff, "aff1", 25))

	require.NoError(t, f.engine.BecomeOneDayMember(Call{Caller: user, Value: dec("900000000000000000")}, "aff1"))
	assert.Equal(t, "225000000000000000", f.bal(aff).Dec())

	require.NoError(t, f.engine.RemoveAffiliate(ownerAddr, aff))
	assert.False(t, f.engine.AffiliateCodeExists("aff1"))
	assert.False(t, f.engine.IsAffiliate(aff))

	// Membership lapses, the user buys again: the binding survives but pays
	// nothing once the affiliate is gone.
	f.now += 86401
	require.NoError(t, f.engine.BecomeOneDayMember(Call{Caller: user, Value: dec("900000000000000000")}, "aff1"))
	assert.Equal(t, "225000000000000000", f.bal(aff).Dec())
	requireDrained(t, f)
}

func TestAffiliateQueries(t *testing.T) {
	f := newFixture(t)
	aff := makeAddr(0x22)

	assert.False(t, f.engine.AffiliateCodeExists("aff1"))
	require.NoError(t, f.engine.AddAffiliate(ownerAddr, aff, "aff1", 20))
	assert.True(t, f.engine.AffiliateCodeExists("aff1"))
	assert.True(t, f.engine.IsAffiliate(aff))
	assert.Equal(t, "void", f.engine.IsAffiliatedWith(makeAddr(0x11)))
}

func TestOwnerOnlyOperations(t *testing.T) {
	f := newFixture(t)
	stranger := makeAddr(0x99)
	token := makeAddr(0x33)

	tests := []struct {
		name string
		call func() error
	}{
		{"add affiliate", func() error { return f.engine.AddAffiliate(stranger, makeAddr(0x22), "x", 10) }},
		{"remove affiliate", func() error { return f.engine.RemoveAffiliate(stranger, makeAddr(0x22)) }},
		{"membership discount", func() error { return f.engine.SetPremiumMembershipDiscount(stranger, makeAddr(0x11), 50) }},
		{"listing discount", func() error { return f.engine.SetTokenListingFeeDiscount(stranger, token, 50) }},
		{"drop unit price", func() error { return f.engine.SetDropUnitPrice(stranger, uint256.NewInt(1)) }},
		{"membership price", func() error { return f.engine.SetMembershipPrice(stranger, membership.TierOneDay, uint256.NewInt(1)) }},
		{"listing fee", func() error { return f.engine.SetTokenListingFee(stranger, uint256.NewInt(1)) }},
		{"grant listing", func() error { return f.engine.GrantTokenListing(stranger, token) }},
		{"revoke listing", func() error { return f.engine.RevokeGrantedTokenListing(stranger, token) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), ErrUnauthorized)
		})
	}
}

func TestRuntimePriceChanges(t *testing.T) {
	f := newFixture(t)
	user := makeAddr(0x11)
	f.fund(user, "10000000000000000000")

	require.NoError(t, f.engine.SetMembershipPrice(ownerAddr, membership.TierOneDay, dec("1000000000000000000")))
	err := f.engine.BecomeOneDayMember(Call{Caller: user, Value: dec("900000000000000000")}, "")
	assert.ErrorIs(t, err, ErrInsufficientPayment)
	require.NoError(t, f.engine.BecomeOneDayMember(Call{Caller: user, Value: dec("1000000000000000000")}, ""))

	require.NoError(t, f.engine.SetDropUnitPrice(ownerAddr, uint256.NewInt(5_000_000_000_000_000)))
	assert.Equal(t, "5000000000000000", f.engine.DropUnitPrice().Dec())

	assert.ErrorIs(t, f.engine.SetDropUnitPrice(ownerAddr, nil), config.ErrNilPrice)
	assert.ErrorIs(t, f.engine.SetMembershipPrice(ownerAddr, membership.TierOneWeek, nil), config.ErrNilPrice)
	assert.ErrorIs(t, f.engine.SetTokenListingFee(ownerAddr, nil), config.ErrNilPrice)
}

func TestSnapshotRestore(t *testing.T) {
	f := newFixture(t)
	aff := makeAddr(0x22)
	user := makeAddr(0x11)
	token := makeAddr(0x33)
	f.fund(user, "10000000000000000000")

	require.NoError(t, f.engine.AddAffiliate(ownerAddr, aff, "aff1", 20))
	require.NoError(t, f.engine.BecomeLifetimeMember(Call{Caller: user, Value: dec("2500000000000000000")}, "aff1"))
	require.NoError(t, f.engine.SetPremiumMembershipDiscount(ownerAddr, makeAddr(0x44), 30))
	require.NoError(t, f.engine.GrantTokenListing(ownerAddr, token))

	snap := f.engine.Snapshot()

	g := newFixture(t)
	g.engine.Restore(snap)

	assert.True(t, g.engine.CheckIsPremiumMember(user))
	assert.True(t, g.engine.AffiliateCodeExists("aff1"))
	assert.Equal(t, "aff1", g.engine.IsAffiliatedWith(user))
	assert.True(t, g.engine.CheckIsListedToken(token))
}

func TestSnapshotCarriesRuntimePrices(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.SetDropUnitPrice(ownerAddr, dec("7000000000000000")))
	require.NoError(t, f.engine.SetMembershipPrice(ownerAddr, membership.TierOneDay, dec("1000000000000000000")))
	require.NoError(t, f.engine.SetTokenListingFee(ownerAddr, dec("4000000000000000000")))

	snap := f.engine.Snapshot()

	g := newFixture(t)
	g.engine.Restore(snap)

	assert.Equal(t, "7000000000000000", g.engine.DropUnitPrice().Dec())
	assert.Equal(t, "4000000000000000000", g.engine.GetListingFeeForToken(makeAddr(0x51)).Dec())

	// The raised one-day price holds: the old price is no longer enough.
	user := makeAddr(0x11)
	g.fund(user, "10000000000000000000")
	err := g.engine.BecomeOneDayMember(Call{Caller: user, Value: dec("900000000000000000")}, "")
	assert.ErrorIs(t, err, ErrInsufficientPayment)
	require.NoError(t, g.engine.BecomeOneDayMember(Call{Caller: user, Value: dec("1000000000000000000")}, ""))
}
