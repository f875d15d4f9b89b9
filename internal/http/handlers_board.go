package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"classroom/internal/core"
)

func (s *Server) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Announcements(r.Context()))
}

func (s *Server) handleAddAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req announcementRequest
	if !bind(w, r, &req) {
		return
	}
	a, err := s.svc.AddAnnouncement(r.Context(), core.Announcement{
		Title:     req.Title,
		Content:   req.Content,
		Author:    req.Author,
		Important: req.Important,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteAnnouncement(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAgenda(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Agenda(r.Context()))
}

func (s *Server) handleAddAgendaItem(w http.ResponseWriter, r *http.Request) {
	var req agendaRequest
	if !bind(w, r, &req) {
		return
	}
	item, err := s.svc.AddAgendaItem(r.Context(), core.AgendaItem{
		Title:       req.Title,
		Date:        core.CalendarDate(req.Date),
		Type:        core.AgendaType(req.Type),
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleDeleteAgendaItem(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteAgendaItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
