package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/governance"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
)

type delegateRequest struct {
	To ledger.Account `json:"to"`
}

type voteRequest struct {
	Support bool `json:"support"`
}

type proposalResponse struct {
	governance.Proposal
	VotingOpen bool `json:"voting_open"`
}

func (s *Server) governanceRoutes(r chi.Router) {
	r.Get("/config", s.handleDAOConfig)
	r.Put("/config", s.handleUpdateDAOConfig)
	r.Post("/delegate", s.handleDelegate)
	r.Get("/power/{account}", s.handleVotingPower)
	r.Get("/proposals", s.handleProposals)
	r.Post("/proposals", s.handleCreateProposal)
	r.Get("/proposals/{id}", s.handleProposal)
	r.Post("/proposals/{id}/votes", s.handleCastVote)
	r.Post("/proposals/{id}/execute", s.handleExecuteVote)
}

func (s *Server) handleDAOConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.protocol.DAOConfig())
}

func (s *Server) handleUpdateDAOConfig(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	var cfg governance.Config
	if !decode(w, r, &cfg) {
		return
	}
	if err := s.protocol.UpdateDAOConfig(r.Context(), account, cfg); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.protocol.DAOConfig())
}

func (s *Server) handleDelegate(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	var req delegateRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.protocol.DelegateVotingPower(r.Context(), account, req.To); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.protocol.VotingPower(account))
}

func (s *Server) handleVotingPower(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.protocol.VotingPower(ledger.Account(chi.URLParam(r, "account"))))
}

func (s *Server) handleProposals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.protocol.Proposals())
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	var in governance.ProposalInput
	if !decode(w, r, &in) {
		return
	}
	p, err := s.protocol.CreateProposal(r.Context(), account, in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := s.protocol.Proposal(id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	open, _ := s.protocol.IsVotingOpen(id)
	writeJSON(w, http.StatusOK, proposalResponse{Proposal: p, VotingOpen: open})
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req voteRequest
	if !decode(w, r, &req) {
		return
	}
	ballot, err := s.protocol.CastVote(r.Context(), account, id, req.Support)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ballot)
}

func (s *Server) handleExecuteVote(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := s.protocol.ExecuteVote(r.Context(), account, id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
