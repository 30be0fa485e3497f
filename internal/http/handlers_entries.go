package http

import (
	"net/http"
	"strings"

	"bookkeep/internal/core"
	"bookkeep/internal/ledger"
	"bookkeep/internal/log"
)

type createEntryResponse struct {
	Entry  core.LedgerEntry    `json:"entry"`
	Report *ledger.MonthReport `json:"report,omitempty"`
}

// handleListEntries serves GET /api/entries?from=&to=.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := s.entries.List(r.Context(), strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to")))
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(view).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var in core.EntryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	in.Date = sanitizeInput(in.Date)
	in.Title = sanitizeInput(in.Title)

	entry, report, err := s.entries.Add(r.Context(), in)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogEntryCreated(r.Context(), entry.ID, entry.Date, entry.Title, entry.Profit.String())

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/entries/"+entry.ID).
		Data(createEntryResponse{Entry: entry, Report: report}).
		Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		ConfirmationRequired("deleting an entry").Write(w)
		return
	}
	removed, err := s.entries.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Data(removed).Write(w)
}

// handleMonthReport serves GET /api/reports/monthly?month=YYYY-MM.
func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	key, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	report, err := s.entries.MonthReport(r.Context(), key)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Data(report).Write(w)
}
