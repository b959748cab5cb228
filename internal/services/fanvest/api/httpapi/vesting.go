package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/vesting"
)

type submitRequest struct {
	EvidenceRef string `json:"evidence_ref"`
	Note        string `json:"note"`
}

type extendRequest struct {
	Deadline time.Time `json:"deadline"`
}

type accountRequest struct {
	Account ledger.Account `json:"account"`
}

type overdueResponse struct {
	ID      uint64 `json:"id"`
	Overdue bool   `json:"overdue"`
}

func (s *Server) vestingRoutes(r chi.Router) {
	r.Get("/", s.handleVesting)
	r.Post("/oracles", s.handleAddOracle)
	r.Get("/milestones", s.handleMilestones)
	r.Post("/milestones", s.handleCreateMilestone)
	r.Get("/milestones/{id}", s.handleMilestone)
	r.Get("/milestones/{id}/overdue", s.handleOverdue)
	r.Post("/milestones/{id}/submit", s.handleSubmitMilestone)
	r.Post("/milestones/{id}/attest", s.milestoneAction(s.protocol.AttestMilestone))
	r.Post("/milestones/{id}/vote", s.milestoneAction(s.protocol.RequestMilestoneVote))
	r.Post("/milestones/{id}/expire", s.milestoneAction(s.protocol.ExpireMilestone))
	r.Post("/milestones/{id}/extend", s.handleExtendDeadline)
}

func (s *Server) handleVesting(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.protocol.Vesting())
}

func (s *Server) handleMilestones(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.protocol.Milestones())
}

func (s *Server) handleMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	m, err := s.protocol.Milestone(id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	overdue, err := s.protocol.IsOverdue(id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, overdueResponse{ID: id, Overdue: overdue})
}

func (s *Server) handleCreateMilestone(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	var spec vesting.MilestoneSpec
	if !decode(w, r, &spec) {
		return
	}
	m, err := s.protocol.CreateMilestone(r.Context(), account, spec)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleSubmitMilestone(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req submitRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := s.protocol.SubmitMilestone(r.Context(), account, id, req.EvidenceRef, req.Note)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleExtendDeadline(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req extendRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := s.protocol.ExtendDeadline(r.Context(), account, id, req.Deadline)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type milestoneOp func(ctx context.Context, caller ledger.Account, id uint64) (vesting.Milestone, error)

// milestoneAction serves the body-less milestone transitions.
func (s *Server) milestoneAction(op milestoneOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := caller(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		m, err := op(r.Context(), account, id)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *Server) handleAddOracle(w http.ResponseWriter, r *http.Request) {
	account, ok := caller(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.protocol.AddOracle(r.Context(), account, req.Account); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
