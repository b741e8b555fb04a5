package nft

import (
	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/orm"
)

// Registry keeps track of token ownership.
type Registry struct {
	tokens orm.ModelBucket
}

// NewRegistry returns a registry that stores tokens in the "nft" bucket.
func NewRegistry() Registry {
	return Registry{tokens: orm.NewModelBucket("nft")}
}

// Token returns the token with given ID.
func (r Registry) Token(db swapkeep.ReadOnlyKVStore, id []byte) (*Token, error) {
	if !isValidTokenID(id) {
		return nil, errors.Wrap(errors.ErrInput, "invalid token id")
	}
	var t Token
	if err := r.tokens.One(db, id, &t); err != nil {
		return nil, errors.Wrapf(err, "token %X", id)
	}
	return &t, nil
}

// Mint creates a new token owned by given address. It fails if a token with
// the same ID already exists.
func (r Registry) Mint(db swapkeep.KVStore, id []byte, owner swapkeep.Address) error {
	if !isValidTokenID(id) {
		return errors.Wrap(errors.ErrInput, "invalid token id")
	}
	switch err := r.tokens.Has(db, id); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "token %X", id)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	return r.tokens.Put(db, id, &Token{ID: id, Owner: owner})
}

// OwnerOf returns the address of the current owner of the token.
func (r Registry) OwnerOf(db swapkeep.ReadOnlyKVStore, id []byte) (swapkeep.Address, error) {
	t, err := r.Token(db, id)
	if err != nil {
		return nil, err
	}
	return t.Owner, nil
}

// Approve allows the operator to transfer the token on behalf of the owner.
// Only the owner can approve, and only one operator is approved at a time.
// A nil operator revokes the approval.
func (r Registry) Approve(db swapkeep.KVStore, owner swapkeep.Address, id []byte, operator swapkeep.Address) error {
	t, err := r.Token(db, id)
	if err != nil {
		return err
	}
	if !t.Owner.Equals(owner) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not the owner", owner)
	}
	t.Approved = operator
	return r.tokens.Put(db, id, t)
}

// IsAuthorized returns true if the spender may transfer the token currently
// owned by the owner. It returns false if the token belongs to someone else.
func (r Registry) IsAuthorized(db swapkeep.ReadOnlyKVStore, owner swapkeep.Address, id []byte, spender swapkeep.Address) (bool, error) {
	t, err := r.Token(db, id)
	if err != nil {
		return false, err
	}
	return t.Owner.Equals(owner) && canTransfer(t, spender), nil
}

// Transfer changes the owner of the token. The spender must be either the
// owner or the approved operator. Any approval is cleared.
func (r Registry) Transfer(db swapkeep.KVStore, spender swapkeep.Address, id []byte, to swapkeep.Address) error {
	t, err := r.Token(db, id)
	if err != nil {
		return err
	}
	if !canTransfer(t, spender) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s cannot transfer token %X", spender, id)
	}
	if err := to.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	t.Owner = to
	t.Approved = nil
	return r.tokens.Put(db, id, t)
}

func canTransfer(t *Token, spender swapkeep.Address) bool {
	if len(spender) == 0 {
		return false
	}
	return t.Owner.Equals(spender) || t.Approved.Equals(spender)
}
