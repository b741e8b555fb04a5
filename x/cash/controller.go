package cash

import (
	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/coin"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/orm"
)

// Controller manages wallet balances and spending allowances.
type Controller struct {
	wallets    orm.ModelBucket
	allowances orm.ModelBucket
}

// NewController returns a controller operating on the "cash" and
// "allowance" buckets.
func NewController() Controller {
	return Controller{
		wallets:    orm.NewModelBucket("cash"),
		allowances: orm.NewModelBucket("allowance"),
	}
}

// Balance returns all coins held by given address. An address that never
// received anything has an empty balance.
func (c Controller) Balance(db swapkeep.ReadOnlyKVStore, addr swapkeep.Address) (coin.Coins, error) {
	w, err := c.wallet(db, addr)
	if err != nil {
		return nil, err
	}
	return coin.Coins(w.Coins).Clone(), nil
}

func (c Controller) wallet(db swapkeep.ReadOnlyKVStore, addr swapkeep.Address) (*Wallet, error) {
	if err := addr.Validate(); err != nil {
		return nil, errors.Wrap(err, "wallet address")
	}
	var w Wallet
	switch err := c.wallets.One(db, addr, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return &Wallet{}, nil
	default:
		return nil, err
	}
}

func (c Controller) saveWallet(db swapkeep.KVStore, addr swapkeep.Address, cs coin.Coins) error {
	if cs.IsEmpty() {
		if err := c.wallets.Delete(db, addr); err != nil && !errors.ErrNotFound.Is(err) {
			return err
		}
		return nil
	}
	return c.wallets.Put(db, addr, &Wallet{Coins: cs})
}

// Issue creates given amount of coins out of thin air and assigns them to
// the destination wallet.
func (c Controller) Issue(db swapkeep.KVStore, dest swapkeep.Address, amount coin.Coin) error {
	if err := validPositive(amount); err != nil {
		return err
	}
	w, err := c.wallet(db, dest)
	if err != nil {
		return err
	}
	cs, err := coin.Coins(w.Coins).Add(amount)
	if err != nil {
		return err
	}
	return c.saveWallet(db, dest, cs)
}

// MoveCoins moves the given amount from src to dest. If src doesn't exist
// or doesn't have sufficient coins, it fails.
func (c Controller) MoveCoins(db swapkeep.KVStore, src, dest swapkeep.Address, amount coin.Coin) error {
	if err := validPositive(amount); err != nil {
		return err
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}

	sender, err := c.wallet(db, src)
	if err != nil {
		return err
	}
	if !coin.Coins(sender.Coins).Contains(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s holds less than %s", src, amount)
	}
	left, err := coin.Coins(sender.Coins).Subtract(amount)
	if err != nil {
		return err
	}
	if err := c.saveWallet(db, src, left); err != nil {
		return err
	}

	// Read the recipient only after the sender was written, so that moving
	// coins to self is a no-op.
	recipient, err := c.wallet(db, dest)
	if err != nil {
		return err
	}
	got, err := coin.Coins(recipient.Coins).Add(amount)
	if err != nil {
		return err
	}
	return c.saveWallet(db, dest, got)
}

// Approve sets the amount that the spender is allowed to move out of the
// owner's wallet. A zero amount revokes the allowance. A new approval
// replaces the previous one for the same ticker.
func (c Controller) Approve(db swapkeep.KVStore, owner, spender swapkeep.Address, amount coin.Coin) error {
	if err := owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := spender.Validate(); err != nil {
		return errors.Wrap(err, "spender")
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if !amount.IsNonNegative() {
		return errors.Wrap(errors.ErrAmount, "allowance cannot be negative")
	}
	key := allowanceKey(owner, spender, amount.Ticker)
	if amount.IsZero() {
		if err := c.allowances.Delete(db, key); err != nil && !errors.ErrNotFound.Is(err) {
			return err
		}
		return nil
	}
	return c.allowances.Put(db, key, &Allowance{Amount: &amount})
}

// Allowance returns the amount of given ticker that the spender may still
// move out of the owner's wallet.
func (c Controller) Allowance(db swapkeep.ReadOnlyKVStore, owner, spender swapkeep.Address, ticker string) (coin.Coin, error) {
	var a Allowance
	switch err := c.allowances.One(db, allowanceKey(owner, spender, ticker), &a); {
	case err == nil:
		return *a.Amount, nil
	case errors.ErrNotFound.Is(err):
		return coin.NewCoin(0, ticker), nil
	default:
		return coin.Coin{}, err
	}
}

// TransferFrom moves coins out of the owner's wallet on behalf of the
// spender. Unless the spender is the owner, the allowance must cover the
// amount and is decreased by it.
func (c Controller) TransferFrom(db swapkeep.KVStore, spender, owner, dest swapkeep.Address, amount coin.Coin) error {
	if err := validPositive(amount); err != nil {
		return err
	}
	if !spender.Equals(owner) {
		allowed, err := c.Allowance(db, owner, spender, amount.Ticker)
		if err != nil {
			return err
		}
		if !allowed.IsGTE(amount) {
			return errors.Wrapf(errors.ErrUnauthorized, "allowance of %s is %s", spender, allowed)
		}
		left, err := allowed.Subtract(amount)
		if err != nil {
			return err
		}
		if err := c.Approve(db, owner, spender, left); err != nil {
			return errors.Wrap(err, "update allowance")
		}
	}
	return c.MoveCoins(db, owner, dest, amount)
}

func validPositive(amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount: %s", amount)
	}
	return nil
}
