package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookkeep/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent imports.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const entryColumns = `id, date, title, income_cash_cents, income_transfer_cents,
	expense_cash_cents, expense_transfer_cents, total_sales_cents, profit_cents, created_at`

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (core.LedgerEntry, error) {
	var (
		e       core.LedgerEntry
		created int64
	)
	err := s.Scan(&e.ID, &e.Date, &e.Title,
		&e.IncomeCash.Cents, &e.IncomeTransfer.Cents,
		&e.ExpenseCash.Cents, &e.ExpenseTransfer.Cents,
		&e.TotalSales.Cents, &e.Profit.Cents, &created)
	if err != nil {
		return e, err
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	return e, nil
}

// AddEntry inserts the entry, assigning an id and creation time when missing.
func (r *SQLiteRepository) AddEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e = e.Normalize()

	_, err := r.db.ExecContext(ctx, `INSERT INTO ledger_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Date, e.Title,
		e.IncomeCash.Cents, e.IncomeTransfer.Cents,
		e.ExpenseCash.Cents, e.ExpenseTransfer.Cents,
		e.TotalSales.Cents, e.Profit.Cents, e.CreatedAt.UnixNano())
	if isUniqueViolation(err) {
		return core.LedgerEntry{}, fmt.Errorf("insert ledger entry %s: %w", e.ID, core.ErrDuplicate)
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("insert ledger entry: %w", err)
	}

	slog.DebugContext(ctx, "Ledger entry saved to SQLite", "id", e.ID, "date", e.Date, "title", e.Title)
	return e, nil
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id string) (core.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, core.ErrNotFound
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get ledger entry: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = ?`, id); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("delete ledger entry: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM ledger_entries
		ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return collectEntries(rows)
}

func (r *SQLiteRepository) ListEntriesByMonth(ctx context.Context, key core.MonthKey) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM ledger_entries
		WHERE date LIKE ? ORDER BY created_at, rowid`, key.Prefix()+"-%")
	if err != nil {
		return nil, fmt.Errorf("list ledger entries for %s: %w", key, err)
	}
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]core.LedgerEntry, error) {
	defer rows.Close()
	out := make([]core.LedgerEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const paymentColumns = `id, date, name, amount_cents, status, created_at, paid_at`

func scanPayment(s scanner) (core.Payment, error) {
	var (
		p       core.Payment
		status  string
		created int64
		paid    sql.NullInt64
	)
	if err := s.Scan(&p.ID, &p.Date, &p.Name, &p.Amount.Cents, &status, &created, &paid); err != nil {
		return p, err
	}
	p.Status = core.PaymentStatus(status)
	p.CreatedAt = time.Unix(0, created).UTC()
	if paid.Valid {
		t := time.Unix(0, paid.Int64).UTC()
		p.PaidAt = &t
	}
	return p, nil
}

func (r *SQLiteRepository) AddPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	var paidAt sql.NullInt64
	if p.PaidAt != nil {
		paidAt = sql.NullInt64{Int64: p.PaidAt.UnixNano(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Date, p.Name, p.Amount.Cents, string(p.Status), p.CreatedAt.UnixNano(), paidAt)
	if err != nil {
		return core.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) DeletePayment(ctx context.Context, id string) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, core.ErrNotFound
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id); err != nil {
		return core.Payment{}, fmt.Errorf("delete payment: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPaymentsByMonth(ctx context.Context, key core.MonthKey) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE date LIKE ? ORDER BY date, created_at, rowid`, key.Prefix()+"%")
	if err != nil {
		return nil, fmt.Errorf("list payments for %s: %w", key, err)
	}
	defer rows.Close()

	out := make([]core.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetCarryForward(ctx context.Context, key core.MonthKey) (core.CarryForward, bool, error) {
	var (
		cf      = core.CarryForward{Year: key.Year, Month: key.Month}
		updated int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT amount_cents, updated_at FROM carry_forwards
		WHERE year = ? AND month = ?`, key.Year, key.MonthString()).Scan(&cf.Amount.Cents, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return cf, false, nil
	}
	if err != nil {
		return cf, false, fmt.Errorf("get carry forward %s: %w", key, err)
	}
	cf.UpdatedAt = time.Unix(0, updated).UTC()
	return cf, true, nil
}

// UpsertCarryForward replaces the month's record in a single statement.
func (r *SQLiteRepository) UpsertCarryForward(ctx context.Context, cf core.CarryForward) error {
	if cf.UpdatedAt.IsZero() {
		cf.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO carry_forwards (year, month, amount_cents, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (year, month) DO UPDATE SET
			amount_cents = excluded.amount_cents,
			updated_at = excluded.updated_at`,
		cf.Year, cf.Key().MonthString(), cf.Amount.Cents, cf.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert carry forward %s: %w", cf.Key(), err)
	}
	return nil
}

const queueColumns = `seq, id, vendor, amount_cents, receive_date, due_date, status, created_at`

func scanQueueItem(s scanner) (core.QueueItem, error) {
	var (
		q       core.QueueItem
		status  string
		created int64
	)
	if err := s.Scan(&q.Seq, &q.ID, &q.Vendor, &q.Amount.Cents, &q.ReceiveDate, &q.DueDate, &status, &created); err != nil {
		return q, err
	}
	q.Status = core.QueueStatus(status)
	q.CreatedAt = time.Unix(0, created).UTC()
	return q, nil
}

func (r *SQLiteRepository) AddQueueItem(ctx context.Context, q core.QueueItem) (core.QueueItem, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO payment_queue
		(id, vendor, amount_cents, receive_date, due_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Vendor, q.Amount.Cents, q.ReceiveDate, q.DueDate, string(q.Status), q.CreatedAt.UnixNano())
	if err != nil {
		return core.QueueItem{}, fmt.Errorf("insert queue item: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return core.QueueItem{}, fmt.Errorf("queue item sequence: %w", err)
	}
	q.Seq = seq
	return q, nil
}

func (r *SQLiteRepository) GetQueueItem(ctx context.Context, id string) (core.QueueItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM payment_queue WHERE id = ?`, id)
	q, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.QueueItem{}, core.ErrNotFound
	}
	if err != nil {
		return core.QueueItem{}, fmt.Errorf("get queue item: %w", err)
	}
	return q, nil
}

func (r *SQLiteRepository) UpdateQueueItem(ctx context.Context, q core.QueueItem) error {
	res, err := r.db.ExecContext(ctx, `UPDATE payment_queue
		SET vendor = ?, amount_cents = ?, receive_date = ?, due_date = ?, status = ?
		WHERE id = ?`,
		q.Vendor, q.Amount.Cents, q.ReceiveDate, q.DueDate, string(q.Status), q.ID)
	if err != nil {
		return fmt.Errorf("update queue item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update queue item: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteQueueItem(ctx context.Context, id string) (core.QueueItem, error) {
	q, err := r.GetQueueItem(ctx, id)
	if err != nil {
		return core.QueueItem{}, err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM payment_queue WHERE id = ?`, id); err != nil {
		return core.QueueItem{}, fmt.Errorf("delete queue item: %w", err)
	}
	return q, nil
}

func (r *SQLiteRepository) ListQueueByMonth(ctx context.Context, key core.MonthKey) ([]core.QueueItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+queueColumns+` FROM payment_queue
		WHERE due_date LIKE ? ORDER BY due_date, seq`, key.Prefix()+"%")
	if err != nil {
		return nil, fmt.Errorf("list queue for %s: %w", key, err)
	}
	defer rows.Close()

	out := make([]core.QueueItem, 0)
	for rows.Next() {
		q, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
