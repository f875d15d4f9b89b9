package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"classroom/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Expenses(r.Context()))
}

func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !bind(w, r, &req) {
		return
	}
	tx, err := s.svc.RecordExpense(r.Context(), mustAmount(req.Amount), req.Description, req.Category)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListWishlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Wishlist(r.Context()))
}

func (s *Server) handleAddPlanned(w http.ResponseWriter, r *http.Request) {
	var req plannedRequest
	if !bind(w, r, &req) {
		return
	}
	priority, err := core.ParsePriority(req.Priority)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := s.svc.AddPlannedExpense(r.Context(), req.Item, mustAmount(req.EstimatedCost), priority)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDeletePlanned(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePlannedExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConvertPlanned buys a wishlist item: it becomes a Materials expense
// and leaves the wishlist.
func (s *Server) handleConvertPlanned(w http.ResponseWriter, r *http.Request) {
	tx, err := s.svc.ConvertToExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}
