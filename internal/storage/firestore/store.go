// Package firestore stores the ledger in Cloud Firestore using the
// collection layout of the original bookkeeping app.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookkeep/internal/core"
	"bookkeep/internal/ledger"
)

type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// New connects to the project's default database. credentialsFile may be
// empty to use application default credentials.
func New(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	if projectID == "" {
		return nil, errors.New("firestore project id is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Store{client: client, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Ping reads a single document reference to verify connectivity.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(carryCollection).Limit(1).Documents(ctx).GetAll()
	return err
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (s *Store) AddEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e = e.Normalize()

	col := s.client.Collection(entriesCollection)
	ref := col.NewDoc()
	if e.ID != "" {
		ref = col.Doc(e.ID)
	}
	if _, err := ref.Create(ctx, newEntryDoc(e)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return core.LedgerEntry{}, fmt.Errorf("create entry %s: %w", ref.ID, core.ErrDuplicate)
		}
		return core.LedgerEntry{}, fmt.Errorf("create entry: %w", err)
	}
	e.ID = ref.ID
	return e, nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) (core.LedgerEntry, error) {
	ref := s.client.Collection(entriesCollection).Doc(id)
	snap, err := ref.Get(ctx)
	if isNotFound(err) {
		return core.LedgerEntry{}, core.ErrNotFound
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get entry: %w", err)
	}
	e, err := decodeEntry(snap.Ref.ID, snap.Data())
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("decode entry %s: %w", id, err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("delete entry: %w", err)
	}
	return e, nil
}

func (s *Store) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	iter := s.client.Collection(entriesCollection).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	return s.collectEntries(ctx, iter)
}

// ListEntriesByMonth uses a range on date alone so no composite index is
// needed, then orders by creation time locally.
func (s *Store) ListEntriesByMonth(ctx context.Context, key core.MonthKey) ([]core.LedgerEntry, error) {
	iter := s.client.Collection(entriesCollection).
		Where("date", ">=", key.Date(1)).
		Where("date", "<=", key.Date(31)).
		Documents(ctx)
	entries, err := s.collectEntries(ctx, iter)
	if err != nil {
		return nil, err
	}
	return ledger.SortByCreated(entries), nil
}

func (s *Store) collectEntries(ctx context.Context, iter *firestore.DocumentIterator) ([]core.LedgerEntry, error) {
	defer iter.Stop()
	out := make([]core.LedgerEntry, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate entries: %w", err)
		}
		e, err := decodeEntry(doc.Ref.ID, doc.Data())
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed ledger entry document", "id", doc.Ref.ID, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) AddPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	col := s.client.Collection(paymentsCollection)
	ref := col.NewDoc()
	if p.ID != "" {
		ref = col.Doc(p.ID)
	}
	if _, err := ref.Create(ctx, newPaymentDoc(p)); err != nil {
		return core.Payment{}, fmt.Errorf("create payment: %w", err)
	}
	p.ID = ref.ID
	return p, nil
}

func (s *Store) DeletePayment(ctx context.Context, id string) (core.Payment, error) {
	ref := s.client.Collection(paymentsCollection).Doc(id)
	snap, err := ref.Get(ctx)
	if isNotFound(err) {
		return core.Payment{}, core.ErrNotFound
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	p, err := decodePayment(snap.Ref.ID, snap.Data())
	if err != nil {
		return core.Payment{}, fmt.Errorf("decode payment %s: %w", id, err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return core.Payment{}, fmt.Errorf("delete payment: %w", err)
	}
	return p, nil
}

func (s *Store) ListPaymentsByMonth(ctx context.Context, key core.MonthKey) ([]core.Payment, error) {
	iter := s.client.Collection(paymentsCollection).
		Where("date", ">=", key.Date(1)).
		Where("date", "<=", key.Date(31)).
		Documents(ctx)
	defer iter.Stop()

	out := make([]core.Payment, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate payments: %w", err)
		}
		p, err := decodePayment(doc.Ref.ID, doc.Data())
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed payment document", "id", doc.Ref.ID, "error", err)
			continue
		}
		out = append(out, p)
	}
	return ledger.FilterPaymentsByMonth(out, key), nil
}

func (s *Store) carryQuery(key core.MonthKey) firestore.Query {
	return s.client.Collection(carryCollection).
		Where("year", "==", key.Year).
		Where("month", "==", key.MonthString())
}

// GetCarryForward returns the most recently written record of the month.
func (s *Store) GetCarryForward(ctx context.Context, key core.MonthKey) (core.CarryForward, bool, error) {
	docs, err := s.carryQuery(key).Documents(ctx).GetAll()
	if err != nil {
		return core.CarryForward{}, false, fmt.Errorf("query carry forward %s: %w", key, err)
	}
	var (
		best  core.CarryForward
		found bool
	)
	for _, doc := range docs {
		cf, err := decodeCarry(doc.Data())
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed carry forward document", "id", doc.Ref.ID, "error", err)
			continue
		}
		if !found || cf.UpdatedAt.After(best.UpdatedAt) {
			best, found = cf, true
		}
	}
	if !found {
		return core.CarryForward{Year: key.Year, Month: key.Month}, false, nil
	}
	return best, true, nil
}

// UpsertCarryForward writes the month under its deterministic id and drops
// any record left under another id, all in one transaction.
func (s *Store) UpsertCarryForward(ctx context.Context, cf core.CarryForward) error {
	if cf.UpdatedAt.IsZero() {
		cf.UpdatedAt = s.now()
	}
	key := cf.Key()
	target := s.client.Collection(carryCollection).Doc(carryDocID(key))

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		stale, err := tx.Documents(s.carryQuery(key)).GetAll()
		if err != nil {
			return err
		}
		if err := tx.Set(target, newCarryDoc(cf)); err != nil {
			return err
		}
		for _, doc := range stale {
			if doc.Ref.ID == target.ID {
				continue
			}
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert carry forward %s: %w", key, err)
	}
	return nil
}

func (s *Store) AddQueueItem(ctx context.Context, q core.QueueItem) (core.QueueItem, error) {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now()
	}
	if q.Seq == 0 {
		q.Seq = q.CreatedAt.UnixNano()
	}
	col := s.client.Collection(queueCollection)
	ref := col.NewDoc()
	if q.ID != "" {
		ref = col.Doc(q.ID)
	}
	if _, err := ref.Create(ctx, newQueueDoc(q)); err != nil {
		return core.QueueItem{}, fmt.Errorf("create queue item: %w", err)
	}
	q.ID = ref.ID
	return q, nil
}

func (s *Store) GetQueueItem(ctx context.Context, id string) (core.QueueItem, error) {
	snap, err := s.client.Collection(queueCollection).Doc(id).Get(ctx)
	if isNotFound(err) {
		return core.QueueItem{}, core.ErrNotFound
	}
	if err != nil {
		return core.QueueItem{}, fmt.Errorf("get queue item: %w", err)
	}
	q, err := decodeQueueItem(snap.Ref.ID, snap.Data())
	if err != nil {
		return core.QueueItem{}, fmt.Errorf("decode queue item %s: %w", id, err)
	}
	return q, nil
}

// UpdateQueueItem changes the mutable fields; seq and createdAt are kept.
func (s *Store) UpdateQueueItem(ctx context.Context, q core.QueueItem) error {
	_, err := s.client.Collection(queueCollection).Doc(q.ID).Update(ctx, []firestore.Update{
		{Path: "vendor", Value: q.Vendor},
		{Path: "amount", Value: q.Amount.Float()},
		{Path: "receiveDate", Value: q.ReceiveDate},
		{Path: "dueDate", Value: q.DueDate},
		{Path: "status", Value: string(q.Status)},
	})
	if isNotFound(err) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update queue item: %w", err)
	}
	return nil
}

func (s *Store) DeleteQueueItem(ctx context.Context, id string) (core.QueueItem, error) {
	q, err := s.GetQueueItem(ctx, id)
	if err != nil {
		return core.QueueItem{}, err
	}
	if _, err := s.client.Collection(queueCollection).Doc(id).Delete(ctx); err != nil {
		return core.QueueItem{}, fmt.Errorf("delete queue item: %w", err)
	}
	return q, nil
}

func (s *Store) ListQueueByMonth(ctx context.Context, key core.MonthKey) ([]core.QueueItem, error) {
	iter := s.client.Collection(queueCollection).
		Where("dueDate", ">=", key.Date(1)).
		Where("dueDate", "<=", key.Date(31)).
		Documents(ctx)
	defer iter.Stop()

	out := make([]core.QueueItem, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate queue: %w", err)
		}
		q, err := decodeQueueItem(doc.Ref.ID, doc.Data())
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed queue document", "id", doc.Ref.ID, "error", err)
			continue
		}
		out = append(out, q)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
