package coin

import (
	"testing"

	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/swaptest/assert"
)

func TestCoinsAdd(t *testing.T) {
	var cs Coins

	cs, err := cs.Add(NewCoin(10, "IOV"))
	assert.Nil(t, err)
	cs, err = cs.Add(NewCoin(3, "ETH"))
	assert.Nil(t, err)
	cs, err = cs.Add(NewCoin(5, "IOV"))
	assert.Nil(t, err)

	assert.Nil(t, cs.Validate())
	assert.Equal(t, Coins{NewCoinp(3, "ETH"), NewCoinp(15, "IOV")}, cs)
	assert.Equal(t, NewCoin(15, "IOV"), cs.Balance("IOV"))
	assert.Equal(t, NewCoin(0, "DAI"), cs.Balance("DAI"))

	// Adding zero changes nothing.
	same, err := cs.Add(NewCoin(0, "DAI"))
	assert.Nil(t, err)
	assert.Equal(t, cs, same)

	// Removing all of a ticker drops it from the set.
	left, err := cs.Subtract(NewCoin(3, "ETH"))
	assert.Nil(t, err)
	assert.Equal(t, Coins{NewCoinp(15, "IOV")}, left)

	// The original collection is not modified.
	assert.Equal(t, NewCoin(3, "ETH"), cs.Balance("ETH"))
}

func TestCoinsContains(t *testing.T) {
	cs := Coins{NewCoinp(3, "ETH"), NewCoinp(15, "IOV")}

	assert.Equal(t, true, cs.Contains(NewCoin(15, "IOV")))
	assert.Equal(t, true, cs.Contains(NewCoin(1, "ETH")))
	assert.Equal(t, false, cs.Contains(NewCoin(16, "IOV")))
	assert.Equal(t, false, cs.Contains(NewCoin(1, "DAI")))
}

func TestCoinsValidate(t *testing.T) {
	cases := map[string]struct {
		coins   Coins
		wantErr *errors.Error
	}{
		"empty is valid": {
			coins: nil,
		},
		"normalized": {
			coins: Coins{NewCoinp(1, "ETH"), NewCoinp(2, "IOV")},
		},
		"not sorted": {
			coins:   Coins{NewCoinp(2, "IOV"), NewCoinp(1, "ETH")},
			wantErr: errors.ErrState,
		},
		"duplicated ticker": {
			coins:   Coins{NewCoinp(2, "IOV"), NewCoinp(1, "IOV")},
			wantErr: errors.ErrState,
		},
		"zero value": {
			coins:   Coins{NewCoinp(0, "IOV")},
			wantErr: errors.ErrAmount,
		},
		"nil coin": {
			coins:   Coins{nil},
			wantErr: errors.ErrEmpty,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.coins.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}
