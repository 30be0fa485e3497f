package http

import (
	"net/http"

	"bookkeep/internal/log"
	"bookkeep/internal/services"
)

func (s *Server) handleQueueView(w http.ResponseWriter, r *http.Request) {
	key, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	view, err := s.queue.MonthView(r.Context(), key)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Data(view).Write(w)
}

func (s *Server) handleAddQueueItem(w http.ResponseWriter, r *http.Request) {
	var in services.QueueInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	in.Vendor = sanitizeInput(in.Vendor)
	in.ReceiveDate = sanitizeInput(in.ReceiveDate)
	in.DueDate = sanitizeInput(in.DueDate)

	item, err := s.queue.Add(r.Context(), in)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(item).Write(w)
}

func (s *Server) handleSetQueueStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	item, err := s.queue.SetStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Data(item).Write(w)
}

func (s *Server) handleToggleQueueItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.queue.Toggle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Data(item).Write(w)
}

func (s *Server) handleRenameQueueVendor(w http.ResponseWriter, r *http.Request) {
	var req vendorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	item, err := s.queue.Rename(r.Context(), r.PathValue("id"), sanitizeInput(req.Vendor))
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Data(item).Write(w)
}

func (s *Server) handleDeleteQueueItem(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		ConfirmationRequired("deleting a queue item").Write(w)
		return
	}
	removed, err := s.queue.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Data(removed).Write(w)
}
