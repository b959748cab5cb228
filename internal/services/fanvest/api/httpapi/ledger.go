package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/louisbranch/fanvest/internal/services/fanvest/app"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage"
)

type depositRequest struct {
	Account ledger.Account `json:"account"`
	Amount  uint64         `json:"amount"`
}

type ownershipRequest struct {
	Component app.Component  `json:"component"`
	NewOwner  ledger.Account `json:"new_owner"`
}

// eventView is the JSON form of a journaled event.
type eventView struct {
	Seq        uint64    `json:"seq"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Payload    rawJSON   `json:"payload,omitempty"`
	ChainHash  string    `json:"chain_hash"`
	KeyID      string    `json:"key_id"`
}

type eventsResponse struct {
	Events  []eventView `json:"events"`
	NextSeq uint64      `json:"next_seq,omitempty"`
}

type verifyResponse struct {
	Valid         bool   `json:"valid"`
	Checked       uint64 `json:"checked"`
	LastSeq       uint64 `json:"last_seq"`
	LastChainHash string `json:"last_chain_hash,omitempty"`
	Error         string `json:"error,omitempty"`
}

// rawJSON embeds stored payload bytes without re-encoding them.
type rawJSON []byte

func (r rawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	view, err := s.protocol.Balance(chi.URLParam(r, "ledger"), ledger.Account(chi.URLParam(r, "account")))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	var req depositRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.protocol.DepositCapital(r.Context(), account, req.Account, req.Amount); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	view, err := s.protocol.Balance(app.CapitalLedger, req.Account)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	var req ownershipRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.protocol.TransferOwnership(r.Context(), account, req.Component, req.NewOwner); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var after uint64
	if raw := query.Get("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			invalidInput(w, r, "after")
			return
		}
		after = parsed
	}
	limit := storage.DefaultPageSize
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			invalidInput(w, r, "limit")
			return
		}
		limit = storage.NormalizeLimit(parsed)
	}
	events, err := s.protocol.Events(r.Context(), after, limit)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	resp := eventsResponse{Events: make([]eventView, 0, len(events))}
	for _, evt := range events {
		resp.Events = append(resp.Events, eventView{
			Seq:        evt.Seq,
			Type:       string(evt.Type),
			Timestamp:  evt.Timestamp,
			RequestID:  evt.RequestID,
			ActorID:    evt.ActorID,
			EntityType: evt.EntityType,
			EntityID:   evt.EntityID,
			Payload:    rawJSON(evt.PayloadJSON),
			ChainHash:  evt.ChainHash,
			KeyID:      evt.SignatureKeyID,
		})
	}
	if len(events) == limit {
		resp.NextSeq = events[len(events)-1].Seq
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	report, err := s.protocol.VerifyJournal(r.Context())
	resp := verifyResponse{
		Valid:         err == nil,
		Checked:       report.Checked,
		LastSeq:       report.LastSeq,
		LastChainHash: report.LastChainHash,
	}
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusConflict, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
