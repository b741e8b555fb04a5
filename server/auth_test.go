package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iov-one/swapkeep/swaptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifierMiddleware(t *testing.T) {
	now := time.Unix(1500000000, 0)
	key := swaptest.NewKey()
	other := swaptest.NewKey()

	cases := map[string]struct {
		prepare    func(t *testing.T, r *http.Request)
		wantStatus int
	}{
		"valid signature": {
			prepare: func(t *testing.T, r *http.Request) {
				require.NoError(t, SignRequest(r, key, now))
			},
			wantStatus: http.StatusOK,
		},
		"small clock difference is accepted": {
			prepare: func(t *testing.T, r *http.Request) {
				require.NoError(t, SignRequest(r, key, now.Add(-30*time.Second)))
			},
			wantStatus: http.StatusOK,
		},
		"missing headers": {
			prepare:    func(t *testing.T, r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		"stale timestamp": {
			prepare: func(t *testing.T, r *http.Request) {
				require.NoError(t, SignRequest(r, key, now.Add(-2*time.Minute)))
			},
			wantStatus: http.StatusUnauthorized,
		},
		"timestamp from the future": {
			prepare: func(t *testing.T, r *http.Request) {
				require.NoError(t, SignRequest(r, key, now.Add(2*time.Minute)))
			},
			wantStatus: http.StatusUnauthorized,
		},
		"key of someone else": {
			prepare: func(t *testing.T, r *http.Request) {
				require.NoError(t, SignRequest(r, key, now))
				r.Header.Set(HeaderPubKey, other.PublicKey().String())
			},
			wantStatus: http.StatusUnauthorized,
		},
		"malformed key": {
			prepare: func(t *testing.T, r *http.Request) {
				require.NoError(t, SignRequest(r, key, now))
				r.Header.Set(HeaderPubKey, "xyz")
			},
			wantStatus: http.StatusUnauthorized,
		},
		"tampered path": {
			prepare: func(t *testing.T, r *http.Request) {
				require.NoError(t, SignRequest(r, key, now))
				r.URL.Path = "/v1/other"
			},
			wantStatus: http.StatusUnauthorized,
		},
		"tampered nonce": {
			prepare: func(t *testing.T, r *http.Request) {
				require.NoError(t, SignRequest(r, key, now))
				r.Header.Set(HeaderNonce, "another-nonce")
			},
			wantStatus: http.StatusUnauthorized,
		},
		"missing nonce": {
			prepare: func(t *testing.T, r *http.Request) {
				require.NoError(t, SignRequest(r, key, now))
				r.Header.Del(HeaderNonce)
			},
			wantStatus: http.StatusUnauthorized,
		},
		"oversized nonce": {
			prepare: func(t *testing.T, r *http.Request) {
				require.NoError(t, SignRequest(r, key, now))
				r.Header.Set(HeaderNonce, strings.Repeat("n", maxNonceSize+1))
			},
			wantStatus: http.StatusUnauthorized,
		},
		"tampered body": {
			prepare: func(t *testing.T, r *http.Request) {
				require.NoError(t, SignRequest(r, key, now))
				r.Body = http.NoBody
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			v := &Verifier{MaxSkew: time.Minute, Now: func() time.Time { return now }}
			var gotBody string
			h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				caller, ok := Caller(r.Context())
				require.True(t, ok)
				assert.Equal(t, key.PublicKey().Address(), caller)
				raw, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				gotBody = string(raw)
				w.WriteHeader(http.StatusOK)
			}))

			r := httptest.NewRequest(http.MethodPost, "/v1/escrow/withdraw", strings.NewReader(`{"a":1}`))
			tc.prepare(t, r)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			assert.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantStatus == http.StatusOK {
				// The body is still readable after the verification.
				assert.Equal(t, `{"a":1}`, gotBody)
			}
		})
	}
}

func TestSignBytes(t *testing.T) {
	got := SignBytes("1500000000", "n1", "POST", "/v1/escrow/withdraw", []byte("{}"))
	assert.Equal(t, "1500000000n1POST/v1/escrow/withdraw{}", string(got))
}

func TestVerifierRejectsReplay(t *testing.T) {
	now := time.Unix(1500000000, 0)
	key := swaptest.NewKey()
	v := &Verifier{MaxSkew: time.Minute, Now: func() time.Time { return now }}
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	signed := httptest.NewRequest(http.MethodPost, "/v1/escrow/withdraw", strings.NewReader(`{}`))
	require.NoError(t, SignRequest(signed, key, now))
	send := func() int {
		r := httptest.NewRequest(http.MethodPost, "/v1/escrow/withdraw", strings.NewReader(`{}`))
		r.Header = signed.Header.Clone()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusUnauthorized, send())

	// A fresh nonce for the same body is accepted.
	require.NoError(t, SignRequest(signed, key, now))
	assert.Equal(t, http.StatusOK, send())

	// Once stale, the copy fails the timestamp check and the remembered
	// nonces are dropped on the next accepted request.
	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusUnauthorized, send())
	require.NoError(t, SignRequest(signed, key, now))
	assert.Equal(t, http.StatusOK, send())
	v.mu.Lock()
	assert.Len(t, v.seen, 1)
	v.mu.Unlock()
}

func TestVerifierFailedSignatureDoesNotBurnNonce(t *testing.T) {
	now := time.Unix(1500000000, 0)
	key := swaptest.NewKey()
	v := &Verifier{MaxSkew: time.Minute, Now: func() time.Time { return now }}
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPost, "/v1/escrow/withdraw", strings.NewReader(`{}`))
	require.NoError(t, SignRequest(r, key, now))
	header := r.Header.Clone()

	forged := httptest.NewRequest(http.MethodPost, "/v1/escrow/withdraw", strings.NewReader(`{"x":1}`))
	forged.Header = header.Clone()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifierRejectsLargeBody(t *testing.T) {
	now := time.Unix(1500000000, 0)
	key := swaptest.NewKey()
	v := &Verifier{MaxSkew: time.Minute, Now: func() time.Time { return now }}
	called := false
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	body := strings.Repeat("a", maxBodySize+1)
	r := httptest.NewRequest(http.MethodPost, "/v1/escrow/withdraw", strings.NewReader(body))
	// Signed over the complete body, so truncation would fail the signature.
	require.NoError(t, SignRequest(r, key, now))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	assert.False(t, called)

	// The limit itself is accepted.
	r = httptest.NewRequest(http.MethodPost, "/v1/escrow/withdraw", strings.NewReader(body[1:]))
	require.NoError(t, SignRequest(r, key, now))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
