package swap

//go:generate mockgen -package swap -source adapters.go -destination adapters_mock.go

import (
	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/coin"
	"github.com/iov-one/swapkeep/x/cash"
	"github.com/iov-one/swapkeep/x/nft"
)

// FungibleLedger is the token ledger the escrow pulls deposits from.
type FungibleLedger interface {
	// Balance returns the amount of the traded token held by the owner.
	Balance(db swapkeep.ReadOnlyKVStore, owner swapkeep.Address) (coin.Coin, error)
	// TransferFrom moves amount from the owner to the destination on
	// behalf of the spender. The spender must be authorized by the owner
	// unless both are the same.
	TransferFrom(db swapkeep.KVStore, spender, owner, to swapkeep.Address, amount coin.Coin) error
	// IsAuthorized returns true if the spender may move the traded amount
	// out of the owner's wallet.
	IsAuthorized(db swapkeep.ReadOnlyKVStore, owner, spender swapkeep.Address) (bool, error)
}

// UniqueRegistry is the registry of unique assets.
type UniqueRegistry interface {
	OwnerOf(db swapkeep.ReadOnlyKVStore, id []byte) (swapkeep.Address, error)
	// Transfer moves the asset to a new owner. The spender must be the
	// owner or an approved operator.
	Transfer(db swapkeep.KVStore, spender swapkeep.Address, id []byte, to swapkeep.Address) error
	// IsAuthorized returns true if the asset belongs to the owner and the
	// spender is allowed to transfer it.
	IsAuthorized(db swapkeep.ReadOnlyKVStore, owner swapkeep.Address, id []byte, spender swapkeep.Address) (bool, error)
}

var _ UniqueRegistry = nft.Registry{}

// CashLedger exposes a single token of the cash ledger as a
// FungibleLedger.
type CashLedger struct {
	ctrl   cash.Controller
	amount coin.Coin
}

var _ FungibleLedger = CashLedger{}

// NewCashLedger returns a ledger trading the ticker of given amount.
// Authorization is granted when the allowance covers that amount.
func NewCashLedger(ctrl cash.Controller, amount coin.Coin) CashLedger {
	return CashLedger{ctrl: ctrl, amount: amount}
}

func (l CashLedger) Balance(db swapkeep.ReadOnlyKVStore, owner swapkeep.Address) (coin.Coin, error) {
	cs, err := l.ctrl.Balance(db, owner)
	if err != nil {
		return coin.Coin{}, err
	}
	return cs.Balance(l.amount.Ticker), nil
}

func (l CashLedger) TransferFrom(db swapkeep.KVStore, spender, owner, to swapkeep.Address, amount coin.Coin) error {
	return l.ctrl.TransferFrom(db, spender, owner, to, amount)
}

func (l CashLedger) IsAuthorized(db swapkeep.ReadOnlyKVStore, owner, spender swapkeep.Address) (bool, error) {
	if owner.Equals(spender) {
		return true, nil
	}
	allowed, err := l.ctrl.Allowance(db, owner, spender, l.amount.Ticker)
	if err != nil {
		return false, err
	}
	return allowed.IsGTE(l.amount), nil
}
