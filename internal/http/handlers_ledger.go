package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"classroom/internal/core"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.svc.Overview(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Settings(r.Context()))
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !bind(w, r, &req) {
		return
	}
	settings := core.Settings{
		DailyQuota:     mustAmount(req.DailyQuota),
		CurrencySymbol: req.CurrencySymbol,
	}
	if req.CustomQuotas != nil {
		settings.CustomQuotas = make(map[core.CalendarDate]decimal.Decimal, len(req.CustomQuotas))
		for d, q := range req.CustomQuotas {
			date, _ := core.ParseCalendarDate(d)
			settings.CustomQuotas[date] = mustAmount(q)
		}
	}
	if req.CollectionDays != nil {
		settings.CollectionDays = make(map[core.CalendarDate]bool, len(req.CollectionDays))
		for d, active := range req.CollectionDays {
			date, _ := core.ParseCalendarDate(d)
			settings.CollectionDays[date] = active
		}
	}
	out, err := s.svc.SaveSettings(r.Context(), settings)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetCollectionDay(w http.ResponseWriter, r *http.Request) {
	date, ok := bindDate(w, r)
	if !ok {
		return
	}
	var req collectionDayRequest
	if !bind(w, r, &req) {
		return
	}
	out, err := s.svc.SetCollectionDay(r.Context(), date, *req.Active)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetQuota(w http.ResponseWriter, r *http.Request) {
	date, ok := bindDate(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !bind(w, r, &req) {
		return
	}
	out, err := s.svc.SetCustomQuota(r.Context(), date, mustAmount(req.Amount))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClearQuota(w http.ResponseWriter, r *http.Request) {
	date, ok := bindDate(w, r)
	if !ok {
		return
	}
	out, err := s.svc.ClearCustomQuota(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	date, ok := bindDate(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !bind(w, r, &req) {
		return
	}
	amount := mustAmount(req.Amount)
	if err := s.svc.RecordPayment(r.Context(), chi.URLParam(r, "id"), date, amount); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "amount": amount})
}

func (s *Server) handleTogglePayment(w http.ResponseWriter, r *http.Request) {
	date, ok := bindDate(w, r)
	if !ok {
		return
	}
	amount, err := s.svc.TogglePayment(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "amount": amount})
}

func (s *Server) handleBulkMark(w http.ResponseWriter, r *http.Request) {
	date, ok := bindDate(w, r)
	if !ok {
		return
	}
	var req markRequest
	if !bind(w, r, &req) {
		return
	}
	if err := s.svc.BulkMark(r.Context(), date, *req.Paid); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
