package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bookkeep/internal/amqp"
	"bookkeep/internal/cache"
	"bookkeep/internal/core"
	"bookkeep/internal/importer"
	"bookkeep/internal/ledger"
	"bookkeep/internal/ports"
)

// importNamespace seeds the deterministic ids of imported entries. An id
// is derived from the month, the workbook checksum and the row position, so
// a retried import maps to the same records while the same file imported
// for another month gets its own.
var importNamespace = uuid.MustParse("6f1c2a7e-8d3b-4c55-9a0e-2b7d4f1e9c31")

// ImportResult summarises one workbook import.
type ImportResult struct {
	Month          core.MonthKey       `json:"month"`
	Checksum       string              `json:"checksum"`
	Duplicate      bool                `json:"duplicate"`
	Inserted       int                 `json:"inserted"`
	AlreadyPresent int                 `json:"alreadyPresent"`
	SkippedRows    int                 `json:"skippedRows"`
	SkippedSheets  []string            `json:"skippedSheets"`
	Errors         []string            `json:"errors,omitempty"`
	Report         *ledger.MonthReport `json:"report,omitempty"`
}

// ImportService loads legacy workbooks into the ledger.
type ImportService struct {
	store       ports.EntryStore
	markers     cache.Markers
	events      EventPublisher
	concurrency int
	now         func() time.Time
}

func NewImportService(store ports.EntryStore, markers cache.Markers, events EventPublisher, concurrency int) *ImportService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ImportService{
		store:       store,
		markers:     markers,
		events:      events,
		concurrency: concurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ImportWorkbook parses the workbook for month key and inserts its rows.
//
// Any invalid row rejects the whole workbook before anything is written.
// A workbook whose checksum was already imported for the month is reported
// as a duplicate and not written again. If inserting fails part way the
// marker is released; rows that did land are recognised by id on retry.
func (s *ImportService) ImportWorkbook(ctx context.Context, key core.MonthKey, r io.Reader) (ImportResult, error) {
	wb, err := importer.Parse(r, key)
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{
		Month:         key,
		Checksum:      wb.Checksum,
		SkippedRows:   wb.SkippedRows,
		SkippedSheets: wb.SkippedSheets,
	}
	if res.SkippedSheets == nil {
		res.SkippedSheets = []string{}
	}
	if len(wb.Errors) > 0 {
		errs := make([]error, len(wb.Errors))
		for i, rowErr := range wb.Errors {
			errs[i] = rowErr
			res.Errors = append(res.Errors, rowErr.Error())
		}
		return res, core.Invalid("rows", errors.Join(errs...))
	}

	markerKey := key.Prefix() + ":" + wb.Checksum
	if s.markers != nil {
		claimed, err := s.markers.Claim(ctx, markerKey)
		if err != nil {
			return res, &core.StoreError{Op: "claim import marker", Err: err, Retryable: true}
		}
		if !claimed {
			slog.InfoContext(ctx, "Workbook already imported, skipping",
				"month", key.String(),
				"checksum", wb.Checksum)
			res.Duplicate = true
			return res, nil
		}
	}

	inserted, present, err := s.insert(ctx, key, wb)
	res.Inserted, res.AlreadyPresent = inserted, present
	if err != nil {
		if s.markers != nil {
			if relErr := s.markers.Release(context.WithoutCancel(ctx), markerKey); relErr != nil {
				slog.WarnContext(ctx, "Failed to release import marker", "key", markerKey, "error", relErr)
			}
		}
		return res, fmt.Errorf("import workbook: %w", err)
	}

	slog.InfoContext(ctx, "Workbook imported",
		"month", key.String(),
		"inserted", inserted,
		"already_present", present,
		"skipped_rows", wb.SkippedRows)

	publish(ctx, s.events, amqp.KindEntries, key)

	entries, err := s.store.ListEntriesByMonth(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Failed to refresh month report after import", "month", key.String(), "error", err)
		return res, nil
	}
	rep := ledger.BuildMonthReport(key, entries)
	res.Report = &rep
	return res, nil
}

func importEntryID(key core.MonthKey, checksum string, row int) string {
	seed := key.Prefix() + "/" + checksum + "/" + strconv.Itoa(row)
	return uuid.NewSHA1(importNamespace, []byte(seed)).String()
}

func (s *ImportService) insert(ctx context.Context, key core.MonthKey, wb *importer.Workbook) (int, int, error) {
	var inserted, present atomic.Int64
	base := s.now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, in := range wb.Inputs {
		id := importEntryID(key, wb.Checksum, i)
		// Offsetting by row index keeps the workbook's order in createdAt.
		entry := in.Entry(id, base.Add(time.Duration(i)*time.Microsecond))
		g.Go(func() error {
			_, err := s.store.AddEntry(gctx, entry)
			switch {
			case errors.Is(err, core.ErrDuplicate):
				present.Add(1)
				return nil
			case err != nil:
				return fmt.Errorf("insert %s %q: %w", entry.Date, entry.Title, err)
			}
			inserted.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return int(inserted.Load()), int(present.Load()), err
}
