// Package http exposes the ledger as a JSON API.
//
// This file holds the request decoding helpers shared by the handlers.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookkeep/internal/core"
)

const maxJSONBody = 1 << 20

// errBadRequest marks malformed request bodies or parameters.
var errBadRequest = errors.New("bad request")

// badRequest wraps a decoding problem so it maps to 400.
func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ParseMonthParams reads the month from "month=YYYY-MM" or from
// "year=YYYY&month=M". Without parameters the month of now is used.
func ParseMonthParams(query url.Values, now time.Time) (core.MonthKey, error) {
	month := strings.TrimSpace(query.Get("month"))
	year := strings.TrimSpace(query.Get("year"))

	if month == "" && year == "" {
		return core.MonthOf(now), nil
	}
	if strings.Contains(month, "-") {
		key, err := core.ParseMonthKey(month)
		if err != nil {
			return core.MonthKey{}, core.Invalid("month", err)
		}
		return key, nil
	}

	key := core.MonthOf(now)
	if year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			return core.MonthKey{}, core.Invalid("year", core.ErrInvalidMonth)
		}
		key.Year = y
	}
	if month != "" {
		m, err := strconv.Atoi(month)
		if err != nil {
			return core.MonthKey{}, core.Invalid("month", core.ErrInvalidMonth)
		}
		key.Month = m
	}
	if err := key.Validate(); err != nil {
		return core.MonthKey{}, core.Invalid("month", err)
	}
	return key, nil
}

// decodeJSON reads one JSON object into dst. Unknown fields are rejected so
// typos in amount names do not silently become zero.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("request body exceeds %d bytes", maxErr.Limit)
		case core.IsValidation(err) || errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrNegativeAmount):
			return core.Invalid("amount", err)
		default:
			return badRequest("invalid JSON: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

type paymentRequest struct {
	Date   string     `json:"date"`
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
}

type carryForwardRequest struct {
	Amount core.Money `json:"amount"`
}

type statusRequest struct {
	Status core.QueueStatus `json:"status"`
}

type vendorRequest struct {
	Vendor string `json:"vendor"`
}
