package cash

import (
	"testing"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/coin"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/store"
	"github.com/iov-one/swapkeep/swaptest"
	"github.com/iov-one/swapkeep/swaptest/assert"
)

func TestIssueAndMove(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()

	alice := swaptest.RandomAddr(t)
	bob := swaptest.RandomAddr(t)

	assert.Nil(t, ctrl.Issue(db, alice, coin.NewCoin(100, "IOV")))
	assert.Nil(t, ctrl.Issue(db, alice, coin.NewCoin(5, "ETH")))

	bal, err := ctrl.Balance(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, coin.Coins{coin.NewCoinp(5, "ETH"), coin.NewCoinp(100, "IOV")}, bal)

	assert.Nil(t, ctrl.MoveCoins(db, alice, bob, coin.NewCoin(40, "IOV")))
	bal, err = ctrl.Balance(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(60, "IOV"), bal.Balance("IOV"))
	bal, err = ctrl.Balance(db, bob)
	assert.Nil(t, err)
	assert.Equal(t, coin.Coins{coin.NewCoinp(40, "IOV")}, bal)

	// Moving everything removes the ticker from the wallet.
	assert.Nil(t, ctrl.MoveCoins(db, bob, alice, coin.NewCoin(40, "IOV")))
	bal, err = ctrl.Balance(db, bob)
	assert.Nil(t, err)
	assert.Equal(t, true, bal.IsEmpty())

	// Moving to self changes nothing.
	assert.Nil(t, ctrl.MoveCoins(db, alice, alice, coin.NewCoin(10, "IOV")))
	bal, err = ctrl.Balance(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(100, "IOV"), bal.Balance("IOV"))
}

func TestMoveCoinsFailures(t *testing.T) {
	alice := swaptest.RandomAddr(t)
	bob := swaptest.RandomAddr(t)

	cases := map[string]struct {
		src, dest swapkeep.Address
		amount    coin.Coin
		wantErr   *errors.Error
	}{
		"insufficient funds": {
			src: alice, dest: bob, amount: coin.NewCoin(101, "IOV"),
			wantErr: errors.ErrInsufficientAmount,
		},
		"unknown ticker": {
			src: alice, dest: bob, amount: coin.NewCoin(1, "DAI"),
			wantErr: errors.ErrInsufficientAmount,
		},
		"empty sender": {
			src: bob, dest: alice, amount: coin.NewCoin(1, "IOV"),
			wantErr: errors.ErrInsufficientAmount,
		},
		"zero amount": {
			src: alice, dest: bob, amount: coin.NewCoin(0, "IOV"),
			wantErr: errors.ErrAmount,
		},
		"negative amount": {
			src: alice, dest: bob, amount: coin.NewCoin(-1, "IOV"),
			wantErr: errors.ErrAmount,
		},
		"invalid destination": {
			src: alice, dest: swapkeep.Address("short"), amount: coin.NewCoin(1, "IOV"),
			wantErr: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController()
			assert.Nil(t, ctrl.Issue(db, alice, coin.NewCoin(100, "IOV")))

			err := ctrl.MoveCoins(db, tc.src, tc.dest, tc.amount)
			assert.IsErr(t, tc.wantErr, err)

			bal, err := ctrl.Balance(db, alice)
			assert.Nil(t, err)
			assert.Equal(t, coin.NewCoin(100, "IOV"), bal.Balance("IOV"))
		})
	}
}

func TestTransferFrom(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()

	owner := swaptest.RandomAddr(t)
	spender := swaptest.RandomAddr(t)
	dest := swaptest.RandomAddr(t)

	assert.Nil(t, ctrl.Issue(db, owner, coin.NewCoin(100, "IOV")))

	// Without an allowance nothing can be moved.
	err := ctrl.TransferFrom(db, spender, owner, dest, coin.NewCoin(10, "IOV"))
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Nil(t, ctrl.Approve(db, owner, spender, coin.NewCoin(30, "IOV")))
	allowed, err := ctrl.Allowance(db, owner, spender, "IOV")
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(30, "IOV"), allowed)

	// Allowance too small.
	err = ctrl.TransferFrom(db, spender, owner, dest, coin.NewCoin(31, "IOV"))
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Nil(t, ctrl.TransferFrom(db, spender, owner, dest, coin.NewCoin(20, "IOV")))
	allowed, err = ctrl.Allowance(db, owner, spender, "IOV")
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(10, "IOV"), allowed)

	bal, err := ctrl.Balance(db, dest)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(20, "IOV"), bal.Balance("IOV"))

	// Using up the allowance removes it.
	assert.Nil(t, ctrl.TransferFrom(db, spender, owner, dest, coin.NewCoin(10, "IOV")))
	allowed, err = ctrl.Allowance(db, owner, spender, "IOV")
	assert.Nil(t, err)
	assert.Equal(t, true, allowed.IsZero())

	// The owner does not need an allowance.
	assert.Nil(t, ctrl.TransferFrom(db, owner, owner, dest, coin.NewCoin(70, "IOV")))
	bal, err = ctrl.Balance(db, owner)
	assert.Nil(t, err)
	assert.Equal(t, true, bal.IsEmpty())
}

func TestTransferFromInsufficientBalanceKeepsAllowance(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()

	owner := swaptest.RandomAddr(t)
	spender := swaptest.RandomAddr(t)

	assert.Nil(t, ctrl.Issue(db, owner, coin.NewCoin(5, "IOV")))
	assert.Nil(t, ctrl.Approve(db, owner, spender, coin.NewCoin(10, "IOV")))

	cache := db.CacheWrap()
	err := ctrl.TransferFrom(cache, spender, owner, spender, coin.NewCoin(10, "IOV"))
	assert.IsErr(t, errors.ErrInsufficientAmount, err)
	cache.Discard()

	allowed, err := ctrl.Allowance(db, owner, spender, "IOV")
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(10, "IOV"), allowed)
}

func TestApprove(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()

	owner := swaptest.RandomAddr(t)
	spender := swaptest.RandomAddr(t)

	assert.Nil(t, ctrl.Approve(db, owner, spender, coin.NewCoin(10, "IOV")))
	// A new approval replaces the old one.
	assert.Nil(t, ctrl.Approve(db, owner, spender, coin.NewCoin(3, "IOV")))
	allowed, err := ctrl.Allowance(db, owner, spender, "IOV")
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(3, "IOV"), allowed)

	// Allowances are per ticker.
	allowed, err = ctrl.Allowance(db, owner, spender, "ETH")
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(0, "ETH"), allowed)

	// Zero revokes.
	assert.Nil(t, ctrl.Approve(db, owner, spender, coin.NewCoin(0, "IOV")))
	allowed, err = ctrl.Allowance(db, owner, spender, "IOV")
	assert.Nil(t, err)
	assert.Equal(t, true, allowed.IsZero())

	assert.IsErr(t, errors.ErrAmount, ctrl.Approve(db, owner, spender, coin.NewCoin(-1, "IOV")))
	assert.IsErr(t, coin.ErrCurrency, ctrl.Approve(db, owner, spender, coin.NewCoin(1, "x")))
	assert.IsErr(t, errors.ErrInput, ctrl.Approve(db, nil, spender, coin.NewCoin(1, "IOV")))
}
