package nft

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/store"
	"github.com/iov-one/swapkeep/swaptest"
	"github.com/iov-one/swapkeep/swaptest/assert"
)

func TestGenesis(t *testing.T) {
	const genesis = `
	{
		"nft": [
			{"id": "asset-1", "owner": "E28AE9A6EB94FC88B73EB7CBD6B87BF93EB9BEF0"},
			{"id": "asset-2", "owner": "hex:F28AE9A6EB94FC88B73EB7CBD6B87BF93EB9BEF0"}
		]
	}
	`
	var opts swapkeep.Options
	if err := json.Unmarshal([]byte(genesis), &opts); err != nil {
		t.Fatalf("cannot unmarshal genesis: %s", err)
	}
	db := store.MemStore()
	assert.Nil(t, Initializer{}.FromGenesis(opts, db))

	reg := NewRegistry()
	owner, err := reg.OwnerOf(db, []byte("asset-1"))
	assert.Nil(t, err)
	assert.Equal(t, swaptest.DecodeAddr(t, "E28AE9A6EB94FC88B73EB7CBD6B87BF93EB9BEF0"), owner)

	owner, err = reg.OwnerOf(db, []byte("asset-2"))
	assert.Nil(t, err)
	assert.Equal(t, swaptest.DecodeAddr(t, "F28AE9A6EB94FC88B73EB7CBD6B87BF93EB9BEF0"), owner)
}

func TestGenesisFailures(t *testing.T) {
	cases := map[string]struct {
		genesis string
		wantErr *errors.Error
	}{
		"duplicated id": {
			genesis: `{"nft": [
				{"id": "asset-1", "owner": "E28AE9A6EB94FC88B73EB7CBD6B87BF93EB9BEF0"},
				{"id": "asset-1", "owner": "F28AE9A6EB94FC88B73EB7CBD6B87BF93EB9BEF0"}
			]}`,
			wantErr: errors.ErrDuplicate,
		},
		"missing owner": {
			genesis: `{"nft": [{"id": "asset-1"}]}`,
			wantErr: errors.ErrInput,
		},
		"id too short": {
			genesis: `{"nft": [{"id": "a", "owner": "E28AE9A6EB94FC88B73EB7CBD6B87BF93EB9BEF0"}]}`,
			wantErr: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var opts swapkeep.Options
			if err := json.Unmarshal([]byte(tc.genesis), &opts); err != nil {
				t.Fatalf("cannot unmarshal genesis: %s", err)
			}
			assert.IsErr(t, tc.wantErr, Initializer{}.FromGenesis(opts, store.MemStore()))
		})
	}
}
