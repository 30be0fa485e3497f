package http

import (
	"errors"
	"net/http"
	"strings"

	"bookkeep/internal/core"
	"bookkeep/internal/log"
	"bookkeep/internal/services"
)

type importErrorBody struct {
	ErrorBody
	Result services.ImportResult `json:"result"`
}

// handleImport accepts a multipart form with "month" (YYYY-MM) and "file"
// (an .xlsx workbook with one sheet per day).
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, log.OpImport, badRequest("upload exceeds %d bytes", maxErr.Limit))
			return
		}
		writeError(w, r, log.OpImport, badRequest("invalid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	key, err := core.ParseMonthKey(strings.TrimSpace(r.FormValue("month")))
	if err != nil {
		writeError(w, r, log.OpImport, core.Invalid("month", err))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, log.OpImport, badRequest("missing workbook file: %v", err))
		return
	}
	defer file.Close()

	res, err := s.imports.ImportWorkbook(r.Context(), key, file)
	if err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) && len(res.Errors) > 0 {
			NewJSONResponse().
				Status(http.StatusUnprocessableEntity).
				Data(importErrorBody{
					ErrorBody: ErrorBody{Error: ErrorDetail{Code: CodeValidation, Message: "workbook contains invalid rows", Field: ve.Field}},
					Result:    res,
				}).
				Write(w)
			return
		}
		writeError(w, r, log.OpImport, err)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogImport(r.Context(), key.String(), res.Checksum, res.Inserted, res.Duplicate)

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	NewJSONResponse().Status(status).Data(res).Write(w)
}
