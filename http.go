package sproutbank

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func NewHTTPHandler(svc Service, log *zerolog.Logger) http.Handler {
	hndlr := &httpHandler{
		Svc: svc,
		Log: log,
	}
	mux := chi.NewMux()
	mux.NotFound(HTTPNotFound)
	mux.Route("/accounts", func(r chi.Router) {
		r.Post("/", hndlr.CreateAccount)
		r.Get("/", hndlr.ListAccounts)
		r.Route("/{acctID:[0-9]+}", func(rr chi.Router) {
			rr.Get("/", hndlr.Account)
			rr.Post("/deposit", hndlr.Deposit)
			rr.Post("/withdraw", hndlr.Withdraw)
			rr.Put("/rate", hndlr.UpdateRate)
			rr.Get("/transactions", hndlr.Transactions)
			rr.Get("/statement", hndlr.Statement)
		})
	})

	return mux
}

type httpHandler struct {
	Svc Service
	Log *zerolog.Logger
}

func (h *httpHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Log.Err(err).Str("method", "create_account").Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	defer r.Body.Close()

	acct, err := h.Svc.CreateAccount(req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err = json.NewEncoder(w).Encode(acct); err != nil {
		h.Log.Err(err).Str("method", "create_account").Msg("error encoding response")
	}
}

func (h *httpHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accts, err := h.Svc.ListAccounts()
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(accts); err != nil {
		h.Log.Err(err).Str("method", "list_accounts").Msg("error encoding response")
	}
}

func (h *httpHandler) Account(w http.ResponseWriter, r *http.Request) {
	acctID, err := pathAcctID(r)
	if err != nil {
		h.Log.Err(err).Str("method", "account").Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}

	acct, err := h.Svc.Account(acctID)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(acct); err != nil {
		h.Log.Err(err).Str("method", "account").Msg("error encoding response")
	}
}

func (h *httpHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.charge(w, r, "deposit", h.Svc.Deposit)
}

func (h *httpHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.charge(w, r, "withdraw", h.Svc.Withdraw)
}

func (h *httpHandler) charge(w http.ResponseWriter, r *http.Request, method string, op func(ChargeReq) (*Transaction, error)) {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", method).Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return
	}
	var req ChargeReq
	if err = json.Unmarshal(buf, &req); err != nil {
		h.Log.Err(err).Str("method", method).Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	acctID, err := pathAcctID(r)
	if err != nil {
		h.Log.Err(err).Str("method", method).Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}
	req.AcctID = acctID

	txn, err := op(req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(txn); err != nil {
		h.Log.Err(err).Str("method", method).Msg("error encoding response")
	}
}

func (h *httpHandler) UpdateRate(w http.ResponseWriter, r *http.Request) {
	var req RateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Log.Err(err).Str("method", "update_rate").Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	defer r.Body.Close()

	acctID, err := pathAcctID(r)
	if err != nil {
		h.Log.Err(err).Str("method", "update_rate").Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}
	req.AcctID = acctID

	if err = h.Svc.UpdateInterestRate(req); err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(statusOK)
}

func (h *httpHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	acctID, err := pathAcctID(r)
	if err != nil {
		h.Log.Err(err).Str("method", "transactions").Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}

	txns, err := h.Svc.Transactions(acctID)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	if txns == nil {
		txns = []Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(txns); err != nil {
		h.Log.Err(err).Str("method", "transactions").Msg("error encoding response")
	}
}

func (h *httpHandler) Statement(w http.ResponseWriter, r *http.Request) {
	acctID, err := pathAcctID(r)
	if err != nil {
		h.Log.Err(err).Str("method", "statement").Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	if err = h.Svc.Statement(w, StatementReq{AcctID: acctID}); err != nil {
		WriteHTTPError(w, err)
		return
	}
}

var (
	statusOK = []byte(`{"status":"OK"}`)
)

func pathAcctID(r *http.Request) (snowflake.ID, error) {
	return snowflake.ParseString(chi.URLParam(r, "acctID"))
}

func WriteHTTPError(w http.ResponseWriter, err error) {
	var ne error
	defer func() {
		if ne != nil {
			log.Error().
				Err(ne).
				Msg("error response encoding failed")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	errnf := &ErrNotFound{}
	errbr := &ErrBadRequest{}
	switch {
	case errors.As(err, errnf):
		w.WriteHeader(http.StatusNotFound)
		ne = json.NewEncoder(w).Encode(errnf)
	case errors.As(err, errbr):
		w.WriteHeader(http.StatusBadRequest)
		ne = json.NewEncoder(w).Encode(errbr)
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidRate):
		w.WriteHeader(http.StatusBadRequest)
		ne = json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
	case errors.Is(err, ErrInsufficientFunds):
		w.WriteHeader(http.StatusConflict)
		ne = json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
	case errors.Is(err, ErrOverloaded):
		w.WriteHeader(http.StatusServiceUnavailable)
		ne = json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
	default:
		w.WriteHeader(http.StatusInternalServerError)
		ne = json.NewEncoder(w).Encode(map[string]string{"message": "server error"})
	}
}

func HTTPNotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]string{
		"path": r.URL.Path,
	}
	json.NewEncoder(w).Encode(resp)
}
