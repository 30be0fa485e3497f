package http

import (
	"net/http"

	"bookkeep/internal/core"
	"bookkeep/internal/log"
)

type carryForwardResponse struct {
	Month  core.MonthKey `json:"month"`
	Amount core.Money    `json:"amount"`
}

func (s *Server) handlePaymentView(w http.ResponseWriter, r *http.Request) {
	key, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	view, err := s.payments.MonthView(r.Context(), key)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Data(view).Write(w)
}

func (s *Server) handleAddNewPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	p, err := s.payments.AddNew(r.Context(), sanitizeInput(req.Date), req.Amount)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(p).Write(w)
}

func (s *Server) handleAddPaidPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	p, err := s.payments.AddPaid(r.Context(), sanitizeInput(req.Date), sanitizeInput(req.Name), req.Amount)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(p).Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		ConfirmationRequired("deleting a payment").Write(w)
		return
	}
	removed, err := s.payments.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Data(removed).Write(w)
}

func (s *Server) handleGetCarryForward(w http.ResponseWriter, r *http.Request) {
	key, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	amount, err := s.payments.CarryForward(r.Context(), key)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Data(carryForwardResponse{Month: key, Amount: amount}).Write(w)
}

// handleSetCarryForward replaces the opening balance, so it needs confirmation.
func (s *Server) handleSetCarryForward(w http.ResponseWriter, r *http.Request) {
	key, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	if !confirmed(r) {
		ConfirmationRequired("replacing the carry-forward").Write(w)
		return
	}
	var req carryForwardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	view, err := s.payments.SetCarryForward(r.Context(), key, req.Amount)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Data(view).Write(w)
}
