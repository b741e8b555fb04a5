package swapkeep

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/swapkeep/errors"
)

func TestReadOptions(t *testing.T) {
	var opts Options
	if err := json.Unmarshal([]byte(`{"foo": {"num": 7}, "bad": {"num": "x"}}`), &opts); err != nil {
		t.Fatalf("cannot unmarshal: %s", err)
	}

	var got struct{ Num int }
	if err := opts.ReadOptions("foo", &got); err != nil {
		t.Fatalf("cannot read: %s", err)
	}
	if got.Num != 7 {
		t.Fatalf("want 7, got %d", got.Num)
	}

	got.Num = 3
	if err := opts.ReadOptions("missing", &got); err != nil {
		t.Fatalf("missing key must not fail: %s", err)
	}
	if got.Num != 3 {
		t.Fatal("missing key must not modify the destination")
	}

	if err := opts.ReadOptions("bad", &got); err == nil {
		t.Fatal("want an error for a wrong type")
	}
}

type recordingInit struct {
	name  string
	calls *[]string
	err   error
}

func (r recordingInit) FromGenesis(Options, KVStore) error {
	*r.calls = append(*r.calls, r.name)
	return r.err
}

func TestChainInitializers(t *testing.T) {
	var calls []string
	init := ChainInitializers(
		recordingInit{name: "a", calls: &calls},
		recordingInit{name: "b", calls: &calls, err: errors.ErrInput},
		recordingInit{name: "c", calls: &calls},
	)
	if err := init.FromGenesis(nil, nil); !errors.ErrInput.Is(err) {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}
