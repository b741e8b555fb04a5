package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/coin"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/eventlog"
	"github.com/iov-one/swapkeep/x/cash"
	"github.com/iov-one/swapkeep/x/nft"
	"github.com/iov-one/swapkeep/x/swap"
	"github.com/pborman/uuid"
	"github.com/tendermint/tendermint/libs/log"
)

// HeaderRequestID carries the request identifier. A missing one is
// generated and returned in the response.
const HeaderRequestID = "X-Request-Id"

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 1000
)

// Options configures the server.
type Options struct {
	// Addr is the listen address, for example ":8080".
	Addr string
	// MaxSkew bounds the age of a signed request.
	MaxSkew time.Duration
	// Now is the server clock. It is used as the block time of every
	// request. Defaults to time.Now.
	Now     func() time.Time
	Logger  log.Logger
	Journal eventlog.Journal
	Metrics *Metrics
}

// Server serves the escrow HTTP API.
type Server struct {
	escrow     *swap.Escrow
	cash       cash.Controller
	nft        nft.Registry
	journal    eventlog.Journal
	metrics    *Metrics
	verifier   *Verifier
	now        func() time.Time
	logger     log.Logger
	httpServer *http.Server
}

// New returns a server operating on the given escrow. The cash controller
// and the registry must use the same store as the escrow.
func New(esc *swap.Escrow, ctrl cash.Controller, reg nft.Registry, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}

	s := &Server{
		escrow:   esc,
		cash:     ctrl,
		nft:      reg,
		journal:  opts.Journal,
		metrics:  opts.Metrics,
		verifier: &Verifier{MaxSkew: opts.MaxSkew, Now: opts.Now},
		now:      opts.Now,
		logger:   opts.Logger.With("module", "server"),
	}

	mux := http.NewServeMux()
	s.handle(mux, "GET /v1/escrow", false, s.handleEscrow)
	s.handle(mux, "POST /v1/escrow/deposit/fungible", true, s.handleDepositFungible)
	s.handle(mux, "POST /v1/escrow/deposit/unique", true, s.handleDepositUnique)
	s.handle(mux, "POST /v1/escrow/withdraw", true, s.handleWithdraw)
	s.handle(mux, "POST /v1/cash/approve", true, s.handleCashApprove)
	s.handle(mux, "GET /v1/cash/balance/{address}", false, s.handleBalance)
	s.handle(mux, "POST /v1/nft/approve", true, s.handleNftApprove)
	s.handle(mux, "GET /v1/nft/owner/{id}", false, s.handleOwner)
	s.handle(mux, "GET /v1/events", false, s.handleEvents)
	s.handle(mux, "GET /healthz", false, s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}
	return s
}

func (s *Server) handle(mux *http.ServeMux, pattern string, signed bool, fn http.HandlerFunc) {
	var h http.Handler = fn
	if signed {
		h = s.verifier.Middleware(h)
	}
	h = s.withContext(h)
	mux.Handle(pattern, s.metrics.instrument(pattern, h))
}

// withContext sets the block time and the logger used by the escrow.
func (s *Server) withContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.New()
		}
		w.Header().Set(HeaderRequestID, reqID)

		ctx := swapkeep.WithBlockTime(r.Context(), s.now())
		ctx = swapkeep.WithLogger(ctx, s.logger)
		ctx = swapkeep.WithLogInfo(ctx, "request_id", reqID, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Handler returns the root handler of the server.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("API listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type escrowResponse struct {
	Configuration swap.Configuration `json:"configuration"`
	Record        *swap.EscrowRecord `json:"record"`
	Due           bool               `json:"due"`
	Action        string             `json:"action"`
}

func (s *Server) escrowState(ctx context.Context) escrowResponse {
	resp := escrowResponse{
		Configuration: s.escrow.Configuration(),
		Record:        s.escrow.Record(),
		Action:        swap.ActionNone.String(),
	}
	due, payload := s.escrow.IsActionDue(ctx)
	resp.Due = due
	var p swap.UpkeepPayload
	if due && p.Unmarshal(payload) == nil {
		resp.Action = p.Action.String()
	}
	return resp
}

func (s *Server) handleEscrow(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.escrowState(r.Context()))
}

func (s *Server) handleDepositFungible(w http.ResponseWriter, r *http.Request) {
	s.escrowCall(w, r, s.escrow.DepositFungible)
}

func (s *Server) handleDepositUnique(w http.ResponseWriter, r *http.Request) {
	s.escrowCall(w, r, s.escrow.DepositUniqueAsset)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.escrowCall(w, r, s.escrow.DenyAndWithdraw)
}

func (s *Server) escrowCall(w http.ResponseWriter, r *http.Request, op func(context.Context, swapkeep.Address) error) {
	caller, _ := Caller(r.Context())
	if err := op(r.Context(), caller); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.escrowState(r.Context()))
}

type cashApproveRequest struct {
	// Spender defaults to the escrow.
	Spender swapkeep.Address `json:"spender,omitempty"`
	Amount  coin.Coin        `json:"amount"`
}

type allowanceResponse struct {
	Owner   swapkeep.Address `json:"owner"`
	Spender swapkeep.Address `json:"spender"`
	Amount  coin.Coin        `json:"amount"`
}

func (s *Server) handleCashApprove(w http.ResponseWriter, r *http.Request) {
	var req cashApproveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if len(req.Spender) == 0 {
		req.Spender = s.escrow.Configuration().Escrow
	}
	caller, _ := Caller(r.Context())
	var allowance coin.Coin
	err := s.escrow.Update(r.Context(), func(db swapkeep.KVStore) error {
		if err := s.cash.Approve(db, caller, req.Spender, req.Amount); err != nil {
			return err
		}
		var err error
		allowance, err = s.cash.Allowance(db, caller, req.Spender, req.Amount.Ticker)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, allowanceResponse{
		Owner:   caller,
		Spender: req.Spender,
		Amount:  allowance,
	})
}

type balanceResponse struct {
	Address swapkeep.Address `json:"address"`
	Coins   coin.Coins       `json:"coins"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := swapkeep.ParseAddress(r.PathValue("address"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var coins coin.Coins
	err = s.escrow.View(func(db swapkeep.ReadOnlyKVStore) error {
		var err error
		coins, err = s.cash.Balance(db, addr)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if coins == nil {
		coins = coin.Coins{}
	}
	writeJSON(w, http.StatusOK, balanceResponse{Address: addr, Coins: coins})
}

type nftApproveRequest struct {
	ID string `json:"id"`
	// Operator defaults to the escrow.
	Operator swapkeep.Address `json:"operator,omitempty"`
	// Revoke clears the current approval.
	Revoke bool `json:"revoke,omitempty"`
}

type tokenResponse struct {
	ID       string           `json:"id"`
	Owner    swapkeep.Address `json:"owner"`
	Approved swapkeep.Address `json:"approved,omitempty"`
}

func (s *Server) handleNftApprove(w http.ResponseWriter, r *http.Request) {
	var req nftApproveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.ID == "" {
		s.fail(w, r, errors.Wrap(errors.ErrEmpty, "id"))
		return
	}
	operator := req.Operator
	if req.Revoke {
		operator = nil
	} else if len(operator) == 0 {
		operator = s.escrow.Configuration().Escrow
	}
	caller, _ := Caller(r.Context())
	var token *nft.Token
	err := s.escrow.Update(r.Context(), func(db swapkeep.KVStore) error {
		if err := s.nft.Approve(db, caller, []byte(req.ID), operator); err != nil {
			return err
		}
		var err error
		token, err = s.nft.Token(db, []byte(req.ID))
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		ID:       string(token.ID),
		Owner:    token.Owner,
		Approved: token.Approved,
	})
}

func (s *Server) handleOwner(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var token *nft.Token
	err := s.escrow.View(func(db swapkeep.ReadOnlyKVStore) error {
		var err error
		token, err = s.nft.Token(db, []byte(id))
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		ID:       id,
		Owner:    token.Owner,
		Approved: token.Approved,
	})
}

type eventsResponse struct {
	Events []swap.Event `json:"events"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxEventsLimit {
			s.fail(w, r, errors.Wrapf(errors.ErrInput, "limit must be between 1 and %d", maxEventsLimit))
			return
		}
		limit = n
	}
	events := []swap.Event{}
	if s.journal != nil {
		recent, err := s.journal.Recent(r.Context(), limit)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		events = append(events, recent...)
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

type pinger interface {
	Ping(context.Context) error
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.journal.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.logger.Error("health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "err", err)
	}
	writeError(w, r, status, err)
}

// StatusCode maps an error to the HTTP status returned to the client.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.ErrUnauthorized.Is(err):
		return http.StatusForbidden
	case swap.ErrAlreadyDeposited.Is(err),
		swap.ErrNothingToWithdraw.Is(err),
		swap.ErrUpkeepNotReady.Is(err),
		errors.ErrDuplicate.Is(err):
		return http.StatusConflict
	case swap.ErrTransferFailed.Is(err),
		errors.ErrInsufficientAmount.Is(err):
		return http.StatusUnprocessableEntity
	case errors.ErrNotFound.Is(err):
		return http.StatusNotFound
	case errors.ErrInput.Is(err),
		errors.ErrEmpty.Is(err),
		errors.ErrAmount.Is(err),
		errors.ErrType.Is(err),
		errors.ErrModel.Is(err),
		coin.ErrCurrency.Is(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Code  uint32 `json:"code"`
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	code, msg := errors.Info(err, false)
	writeJSON(w, status, errorResponse{Code: code, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.ErrInput.Is(err) || coin.ErrCurrency.Is(err) {
			return err
		}
		return errors.Wrapf(errors.ErrInput, "invalid json: %s", err)
	}
	return nil
}
