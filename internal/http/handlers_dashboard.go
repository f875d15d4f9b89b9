package http

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/shopspring/decimal"

	"classroom/internal/core"
	"classroom/internal/log"
	"classroom/internal/services"
)

var templateFuncs = template.FuncMap{
	"money": core.FormatAmount,
	"cell": func(d *decimal.Decimal) string {
		if d == nil {
			return ""
		}
		return core.FormatAmount("", *d)
	},
	"paid": func(d *decimal.Decimal) bool {
		return d != nil && d.IsPositive()
	},
}

type dashboardData struct {
	services.Overview
	Officer bool
	Symbol  string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	ov, err := s.svc.Overview(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Overview failed", log.FieldError, err)
		http.Error(w, "could not load the ledger", http.StatusInternalServerError)
		return
	}

	data := dashboardData{
		Overview: ov,
		Officer:  RoleFromRequest(r, s.officerToken) == RoleOfficer,
		Symbol:   ov.Settings.CurrencySymbol,
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard template execution failed",
			log.FieldError, err, "template", "dashboard.html")
		http.Error(w, "could not render the dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
