package server

import (
	"bytes"
	"context"
	"encoding/hex"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/crypto"
	"github.com/iov-one/swapkeep/errors"
	"github.com/pborman/uuid"
)

const (
	HeaderPubKey    = "X-Swap-Pubkey"
	HeaderTimestamp = "X-Swap-Timestamp"
	HeaderNonce     = "X-Swap-Nonce"
	HeaderSignature = "X-Swap-Signature"
)

const (
	// maxBodySize limits the size of a signed request body.
	maxBodySize = 1 << 20
	// maxNonceSize limits the memory a single remembered request takes.
	maxNonceSize = 64
)

var (
	errMissingSignature = errors.Register(1100, "missing request signature")
	errStaleTimestamp   = errors.Register(1101, "stale request timestamp")
	errInvalidSignature = errors.Register(1102, "invalid request signature")
	errReplayedRequest  = errors.Register(1103, "replayed request")
	errBodyTooLarge     = errors.Register(1104, "request body too large")
)

// Verifier authenticates signed requests. Every nonce is accepted once per
// public key while its timestamp is within MaxSkew. The zero value is
// usable but accepts no clock difference.
type Verifier struct {
	// MaxSkew is the largest accepted difference between the request
	// timestamp and the server clock.
	MaxSkew time.Duration
	Now     func() time.Time

	mu sync.Mutex
	// seen maps public key and nonce to the time the request timestamp
	// becomes stale.
	seen map[string]time.Time
}

type callerKey struct{}

// Caller returns the authenticated address of the request signer.
func Caller(ctx context.Context) (swapkeep.Address, bool) {
	a, ok := ctx.Value(callerKey{}).(swapkeep.Address)
	return a, ok
}

// Middleware rejects requests without a valid signature and passes the
// signer address to the next handler.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := v.verify(w, r)
		if err != nil {
			status := http.StatusUnauthorized
			if errBodyTooLarge.Is(err) {
				status = http.StatusRequestEntityTooLarge
			}
			writeError(w, r, status, err)
			return
		}
		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (v *Verifier) verify(w http.ResponseWriter, r *http.Request) (swapkeep.Address, error) {
	pubHex := r.Header.Get(HeaderPubKey)
	sigHex := r.Header.Get(HeaderSignature)
	tsHeader := r.Header.Get(HeaderTimestamp)
	nonce := r.Header.Get(HeaderNonce)
	if pubHex == "" || sigHex == "" || tsHeader == "" || nonce == "" {
		return nil, errMissingSignature
	}
	if len(nonce) > maxNonceSize {
		return nil, errors.Wrap(errMissingSignature, "nonce too long")
	}

	ts, err := strconv.ParseInt(tsHeader, 10, 64)
	if err != nil {
		return nil, errors.Wrap(errMissingSignature, "malformed timestamp")
	}
	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}
	reqTime := time.Unix(ts, 0)
	if now.Sub(reqTime) > v.MaxSkew || reqTime.Sub(now) > v.MaxSkew {
		return nil, errStaleTimestamp
	}

	pub, err := crypto.ParsePublicKey(pubHex)
	if err != nil {
		return nil, errors.Wrap(errInvalidSignature, "malformed public key")
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, errors.Wrap(errInvalidSignature, "malformed signature")
	}
	body, err := readBody(r, http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.Wrapf(errBodyTooLarge, "limit is %d bytes", tooLarge.Limit)
		}
		return nil, errors.Wrapf(errors.ErrInput, "read body: %s", err)
	}
	if !pub.Verify(SignBytes(tsHeader, nonce, r.Method, r.URL.Path, body), sig) {
		return nil, errInvalidSignature
	}
	if !v.remember(pubHex+"/"+nonce, reqTime.Add(v.MaxSkew), now) {
		return nil, errReplayedRequest
	}
	return pub.Address(), nil
}

// remember records a verified request until it expires. It returns false if
// the request was already recorded.
func (v *Verifier) remember(key string, expires, now time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.seen == nil {
		v.seen = make(map[string]time.Time)
	}
	for k, exp := range v.seen {
		if exp.Before(now) {
			delete(v.seen, k)
		}
	}
	if _, ok := v.seen[key]; ok {
		return false
	}
	v.seen[key] = expires
	return true
}

// SignBytes returns the message a client must sign: the timestamp, the
// nonce, the method, the path and the body, concatenated.
func SignBytes(timestamp, nonce, method, path string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(timestamp)
	b.WriteString(nonce)
	b.WriteString(method)
	b.WriteString(path)
	b.Write(body)
	return b.Bytes()
}

// SignRequest sets the signature headers of the request with a fresh random
// nonce. The body, if any, is read and restored.
func SignRequest(r *http.Request, key crypto.Signer, now time.Time) error {
	body, err := readBody(r, r.Body)
	if err != nil {
		return err
	}
	ts := strconv.FormatInt(now.Unix(), 10)
	nonce := uuid.New()
	sig, err := key.Sign(SignBytes(ts, nonce, r.Method, r.URL.Path, body))
	if err != nil {
		return err
	}
	r.Header.Set(HeaderPubKey, key.PublicKey().String())
	r.Header.Set(HeaderTimestamp, ts)
	r.Header.Set(HeaderNonce, nonce)
	r.Header.Set(HeaderSignature, hex.EncodeToString(sig))
	return nil
}

// readBody reads src, which wraps the request body, and replaces the body
// with an in memory copy.
func readBody(r *http.Request, src io.ReadCloser) ([]byte, error) {
	if r.Body == nil {
		return []byte{}, nil
	}
	defer src.Close()
	body, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
