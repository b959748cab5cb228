package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/raise"
)

type amountRequest struct {
	Amount uint64 `json:"amount"`
}

type amountResponse struct {
	Amount uint64 `json:"amount"`
}

func (s *Server) raiseRoutes(r chi.Router) {
	r.Get("/", s.handleRaise)
	r.Post("/configure", s.handleConfigureRaise)
	r.Post("/contributions", s.handleContribute)
	r.Get("/contributions", s.handleContributions)
	r.Get("/contributions/{account}", s.handleContribution)
	r.Post("/finalize", s.handleFinalize)
	r.Post("/claim", s.handleClaim)
	r.Post("/refund", s.handleRefund)
	r.Post("/kyc/{account}", s.handleKYC(true))
	r.Delete("/kyc/{account}", s.handleKYC(false))
	r.Post("/liquidity/reconcile", s.handleReconcile)
}

func (s *Server) handleRaise(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.protocol.Raise())
}

func (s *Server) handleConfigureRaise(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	var cfg raise.Config
	if !decode(w, r, &cfg) {
		return
	}
	if err := s.protocol.ConfigureRaise(r.Context(), account, cfg); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.protocol.Raise())
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.protocol.Contribute(r.Context(), account, req.Amount); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	contribution, _ := s.protocol.Contribution(account)
	writeJSON(w, http.StatusCreated, contribution)
}

func (s *Server) handleContributions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.protocol.Contributions())
}

func (s *Server) handleContribution(w http.ResponseWriter, r *http.Request) {
	contribution, ok := s.protocol.Contribution(ledger.Account(chi.URLParam(r, "account")))
	if !ok {
		writeError(w, r, s.logger, raise.ErrNoContribution)
		return
	}
	writeJSON(w, http.StatusOK, contribution)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	if err := s.protocol.FinalizeRaise(r.Context(), account); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.protocol.Raise())
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	claimed, err := s.protocol.ClaimTokens(r.Context(), account)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: claimed})
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	refunded, err := s.protocol.Refund(r.Context(), account)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: refunded})
}

func (s *Server) handleKYC(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := caller(w, r)
		if !ok {
			return
		}
		target := ledger.Account(chi.URLParam(r, "account"))
		var err error
		if approve {
			err = s.protocol.ApproveKYC(r.Context(), account, target)
		} else {
			err = s.protocol.RevokeKYC(r.Context(), account, target)
		}
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	receipt, err := s.protocol.ReconcileLiquidity(r.Context(), account)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
