package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/coin"
	"github.com/iov-one/swapkeep/crypto"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/eventlog"
	"github.com/iov-one/swapkeep/gconf"
	"github.com/iov-one/swapkeep/store"
	"github.com/iov-one/swapkeep/swaptest"
	"github.com/iov-one/swapkeep/x/cash"
	"github.com/iov-one/swapkeep/x/nft"
	"github.com/iov-one/swapkeep/x/swap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAsset = "asset-1"

var testAmount = coin.NewCoin(1000, "IOV")

type fixture struct {
	db       swapkeep.CacheableKVStore
	cash     cash.Controller
	nft      nft.Registry
	escrow   *swap.Escrow
	clock    *swaptest.Clock
	journal  *eventlog.Memory
	handler  http.Handler
	conf     swap.Configuration
	alice    crypto.PrivateKey // fungible depositor
	bob      crypto.PrivateKey // unique asset depositor
	stranger crypto.PrivateKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:       store.MemStore(),
		cash:     cash.NewController(),
		nft:      nft.NewRegistry(),
		clock:    swaptest.NewClock(time.Unix(1500000000, 0)),
		journal:  eventlog.NewMemory(10),
		alice:    swaptest.NewKey(),
		bob:      swaptest.NewKey(),
		stranger: swaptest.NewKey(),
	}
	alice := f.alice.PublicKey().Address()
	bob := f.bob.PublicKey().Address()
	f.conf = swap.Configuration{
		Escrow:            swap.EscrowCondition([]byte{1}).Address(),
		FungibleDepositor: alice,
		UniqueDepositor:   bob,
		Amount:            coin.NewCoinp(testAmount.Whole, testAmount.Ticker),
		AssetID:           testAsset,
		Timeout:           swapkeep.AsDuration(time.Hour),
	}
	require.NoError(t, gconf.Save(f.db, "swap", &f.conf))
	require.NoError(t, f.cash.Issue(f.db, alice, coin.NewCoin(5000, "IOV")))
	require.NoError(t, f.nft.Mint(f.db, []byte(testAsset), bob))

	esc, err := swap.NewEscrow(f.db, swap.NewCashLedger(f.cash, testAmount), f.nft)
	require.NoError(t, err)
	esc.Subscribe(f.journal)
	f.escrow = esc

	srv := New(esc, f.cash, f.nft, Options{
		MaxSkew: time.Minute,
		Now:     f.clock.Now,
		Journal: f.journal,
	})
	f.handler = srv.Handler()
	return f
}

func (f *fixture) do(t *testing.T, key crypto.Signer, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if key != nil {
		require.NoError(t, SignRequest(req, key, f.clock.Now()))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestSwapOverHTTP(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, f.alice, http.MethodPost, "/v1/cash/approve", map[string]string{"amount": "1000 IOV"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var allowance allowanceResponse
	decode(t, rec, &allowance)
	assert.Equal(t, testAmount, allowance.Amount)
	assert.Equal(t, f.conf.Escrow, allowance.Spender)

	rec = f.do(t, f.bob, http.MethodPost, "/v1/nft/approve", map[string]string{"id": testAsset})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, f.alice, http.MethodPost, "/v1/escrow/deposit/fungible", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var state escrowResponse
	decode(t, rec, &state)
	require.NotNil(t, state.Record.FungibleHeld)
	assert.Equal(t, testAmount, *state.Record.FungibleHeld)
	assert.False(t, state.Due)
	assert.Equal(t, "none", state.Action)

	rec = f.do(t, f.bob, http.MethodPost, "/v1/escrow/deposit/unique", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &state)
	assert.True(t, state.Record.UniqueHeld)
	assert.True(t, state.Due)
	assert.Equal(t, "swap", state.Action)

	due, payload := f.escrow.IsActionDue(f.clock.Context())
	require.True(t, due)
	require.NoError(t, f.escrow.PerformAction(f.clock.Context(), payload))

	rec = f.do(t, nil, http.MethodGet, "/v1/nft/owner/"+testAsset, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var token tokenResponse
	decode(t, rec, &token)
	assert.Equal(t, f.alice.PublicKey().Address(), token.Owner)

	rec = f.do(t, nil, http.MethodGet, "/v1/cash/balance/"+f.bob.PublicKey().Address().String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var balance balanceResponse
	decode(t, rec, &balance)
	assert.Equal(t, testAmount, balance.Coins.Balance("IOV"))

	rec = f.do(t, nil, http.MethodGet, "/v1/events", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var events struct {
		Events []struct {
			Sequence int64  `json:"sequence"`
			Kind     string `json:"kind"`
		} `json:"events"`
	}
	decode(t, rec, &events)
	require.Len(t, events.Events, 3)
	assert.Equal(t, "deposit_received", events.Events[0].Kind)
	assert.Equal(t, "deposit_received", events.Events[1].Kind)
	assert.Equal(t, "swap_executed", events.Events[2].Kind)
}

func TestEscrowErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, nil, http.MethodPost, "/v1/escrow/deposit/fungible", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, f.stranger, http.MethodPost, "/v1/escrow/deposit/fungible", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, f.alice, http.MethodPost, "/v1/escrow/withdraw", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp errorResponse
	decode(t, rec, &resp)
	code, _ := errors.Info(swap.ErrNothingToWithdraw, false)
	assert.Equal(t, code, resp.Code)

	// Without an allowance the ledger refuses the transfer.
	rec = f.do(t, f.alice, http.MethodPost, "/v1/escrow/deposit/fungible", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, f.alice, http.MethodPost, "/v1/cash/approve", map[string]string{"amount": "1000 IOV"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(t, f.alice, http.MethodPost, "/v1/escrow/deposit/fungible", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(t, f.alice, http.MethodPost, "/v1/cash/approve", map[string]string{"amount": "1000 IOV"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(t, f.alice, http.MethodPost, "/v1/escrow/deposit/fungible", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, f.alice, http.MethodPost, "/v1/escrow/withdraw", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var state escrowResponse
	decode(t, rec, &state)
	assert.Nil(t, state.Record.FungibleHeld)
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]struct {
		key        crypto.Signer
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		"unknown field": {
			key:        f.alice,
			method:     http.MethodPost,
			path:       "/v1/cash/approve",
			body:       map[string]string{"amount": "1 IOV", "color": "red"},
			wantStatus: http.StatusBadRequest,
		},
		"malformed amount": {
			key:        f.alice,
			method:     http.MethodPost,
			path:       "/v1/cash/approve",
			body:       map[string]string{"amount": "one IOV"},
			wantStatus: http.StatusBadRequest,
		},
		"negative amount": {
			key:        f.alice,
			method:     http.MethodPost,
			path:       "/v1/cash/approve",
			body:       map[string]string{"amount": "-1 IOV"},
			wantStatus: http.StatusBadRequest,
		},
		"missing asset id": {
			key:        f.bob,
			method:     http.MethodPost,
			path:       "/v1/nft/approve",
			body:       map[string]string{},
			wantStatus: http.StatusBadRequest,
		},
		"approve asset of someone else": {
			key:        f.alice,
			method:     http.MethodPost,
			path:       "/v1/nft/approve",
			body:       map[string]string{"id": testAsset},
			wantStatus: http.StatusForbidden,
		},
		"unknown asset": {
			method:     http.MethodGet,
			path:       "/v1/nft/owner/no-such-asset",
			wantStatus: http.StatusNotFound,
		},
		"malformed address": {
			method:     http.MethodGet,
			path:       "/v1/cash/balance/zzz",
			wantStatus: http.StatusBadRequest,
		},
		"invalid events limit": {
			method:     http.MethodGet,
			path:       "/v1/events?limit=0",
			wantStatus: http.StatusBadRequest,
		},
		"wrong method": {
			method:     http.MethodGet,
			path:       "/v1/escrow/withdraw",
			wantStatus: http.StatusMethodNotAllowed,
		},
		"health": {
			method:     http.MethodGet,
			path:       "/healthz",
			wantStatus: http.StatusOK,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			rec := f.do(t, tc.key, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestNftApproveRevoke(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, f.bob, http.MethodPost, "/v1/nft/approve", map[string]string{"id": testAsset})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var token tokenResponse
	decode(t, rec, &token)
	assert.Equal(t, f.conf.Escrow, token.Approved)

	rec = f.do(t, f.bob, http.MethodPost, "/v1/nft/approve", map[string]interface{}{"id": testAsset, "revoke": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token = tokenResponse{}
	decode(t, rec, &token)
	assert.Empty(t, token.Approved)

	// Without the approval the escrow cannot take the asset.
	rec = f.do(t, f.bob, http.MethodPost, "/v1/escrow/deposit/unique", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, nil, http.MethodGet, "/v1/escrow", nil)
	generated := rec.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, generated)

	again := f.do(t, nil, http.MethodGet, "/v1/escrow", nil)
	assert.NotEqual(t, generated, again.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "trace-42")
	echo := httptest.NewRecorder()
	f.handler.ServeHTTP(echo, req)
	assert.Equal(t, "trace-42", echo.Header().Get(HeaderRequestID))

	// Rejected signatures still carry the identifier.
	unsigned := f.do(t, nil, http.MethodPost, "/v1/escrow/withdraw", nil)
	assert.Equal(t, http.StatusUnauthorized, unsigned.Code)
	assert.NotEmpty(t, unsigned.Header().Get(HeaderRequestID))
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)

	f.do(t, nil, http.MethodGet, "/v1/escrow", nil)
	f.do(t, f.stranger, http.MethodPost, "/v1/escrow/deposit/unique", nil)

	rec := f.do(t, nil, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `swapkeep_http_requests_total{route="GET /v1/escrow",status="200"} 1`), body)
	assert.True(t, strings.Contains(body, `swapkeep_http_requests_total{route="POST /v1/escrow/deposit/unique",status="403"} 1`), body)
}

func TestMetricsObserveEvents(t *testing.T) {
	m := NewMetrics()
	ctx := swaptest.BlockTimeCtx(time.Unix(1500000000, 0))

	m.OnEvent(ctx, swap.Event{Kind: swap.EventDepositReceived, Side: swap.SideFungible})
	m.OnEvent(ctx, swap.Event{Kind: swap.EventDepositReceived, Side: swap.SideUnique})
	m.OnEvent(ctx, swap.Event{Kind: swap.EventSwapExecuted})

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[mf.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[mf.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, float64(3), values["swapkeep_events_total"])
	assert.Equal(t, float64(0), values["swapkeep_fungible_held"])
	assert.Equal(t, float64(0), values["swapkeep_unique_held"])
}

func TestStatusCode(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"nil":               {err: nil, want: http.StatusOK},
		"unauthorized":      {err: errors.Wrap(errors.ErrUnauthorized, "x"), want: http.StatusForbidden},
		"already deposited": {err: swap.ErrAlreadyDeposited, want: http.StatusConflict},
		"nothing":           {err: swap.ErrNothingToWithdraw, want: http.StatusConflict},
		"not ready":         {err: swap.ErrUpkeepNotReady, want: http.StatusConflict},
		"transfer failed":   {err: errors.Wrap(swap.ErrTransferFailed, "x"), want: http.StatusUnprocessableEntity},
		"input":             {err: errors.ErrInput, want: http.StatusBadRequest},
		"currency":          {err: coin.ErrCurrency, want: http.StatusBadRequest},
		"not found":         {err: errors.ErrNotFound, want: http.StatusNotFound},
		"database":          {err: errors.ErrDatabase, want: http.StatusInternalServerError},
		"unregistered":      {err: io.EOF, want: http.StatusInternalServerError},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCode(tc.err))
		})
	}
}
