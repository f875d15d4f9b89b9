package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"classroom/internal/core"
	"classroom/internal/vision"
)

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Students(r.Context()))
}

func (s *Server) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if !bind(w, r, &req) {
		return
	}
	gender, err := core.ParseGender(req.Gender)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	st, err := s.svc.AddStudent(r.Context(), req.Name, gender)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteStudent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportRoster takes the pasted roster as a plain text body.
func (s *Server) handleImportRoster(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "could not read body")
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "roster text is empty")
		return
	}
	n, err := s.svc.ImportRoster(r.Context(), string(body))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

// handleImportRosterImage takes a multipart upload in the "image" field.
func (s *Server) handleImportRosterImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, vision.MaxImageBytes+1<<16)
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		writeError(w, r, http.StatusUnprocessableEntity, "image file is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, vision.MaxImageBytes+1))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "could not read image")
		return
	}
	if len(image) > vision.MaxImageBytes {
		writeError(w, r, http.StatusRequestEntityTooLarge, "image too large")
		return
	}
	if len(image) == 0 {
		writeError(w, r, http.StatusUnprocessableEntity, "image file is empty")
		return
	}

	n, err := s.svc.ImportRosterImage(r.Context(), image)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}
