package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/nekogravitycat/court-season-backend/internal/db"
)

type Repository interface {
	// Create appends e to the queue of its court and start time and sets its
	// position. Callers must hold the court lock.
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, filter Filter) ([]*Entry, error)
	// NextWaiting returns the waiting entry overlapping [start, end) that is
	// first in line, or ErrNotFound.
	NextWaiting(ctx context.Context, courtID string, start, end time.Time) (*Entry, error)
	MarkOffered(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type TxRunner interface {
	WithinCourt(ctx context.Context, courtID string, fn func(repo Repository) error) error
}

var columns = []string{
	"id", "court_id", "user_id", "start_time", "end_time", "email", "phone",
	"position", "status", "offered_at", "created_at",
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var (
		e      Entry
		userID *string
	)
	if err := row.Scan(
		&e.ID, &e.CourtID, &userID, &e.StartTime, &e.EndTime, &e.Email, &e.Phone,
		&e.Position, &e.Status, &e.OfferedAt, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	if userID != nil {
		e.UserID = *userID
	}
	return &e, nil
}

type pgxRepository struct {
	db db.DBTX
}

func NewPgxRepository(conn db.DBTX) Repository {
	return &pgxRepository{db: conn}
}

func (r *pgxRepository) Create(ctx context.Context, e *Entry) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	next := psql.Select("COALESCE(MAX(position), 0) + 1").
		From("public.waitlist_entries").
		Where(squirrel.Eq{"court_id": e.CourtID, "start_time": e.StartTime})

	query, args, err := psql.Insert("public.waitlist_entries").
		Columns("court_id", "user_id", "start_time", "end_time", "email", "phone", "status", "position").
		Values(
			e.CourtID, nullable(e.UserID), e.StartTime, e.EndTime, e.Email, e.Phone, StatusWaiting,
			squirrel.Expr("(?)", next),
		).
		Suffix("RETURNING id, position, status, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create waitlist entry query failed: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&e.ID, &e.Position, &e.Status, &e.CreatedAt); err != nil {
		return fmt.Errorf("create waitlist entry failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Entry, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(columns...).
		From("public.waitlist_entries").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get waitlist entry query failed: %w", err)
	}

	e, err := scanEntry(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get waitlist entry failed: %w", err)
	}
	return e, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Entry, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(columns...).
		From("public.waitlist_entries").
		OrderBy("start_time ASC", "position ASC")

	if filter.CourtID != "" {
		query = query.Where(squirrel.Eq{"court_id": filter.CourtID})
	}
	if filter.StartTime != nil {
		query = query.Where(squirrel.Eq{"start_time": *filter.StartTime})
	}
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list waitlist query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list waitlist failed: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist entry failed: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *pgxRepository) NextWaiting(ctx context.Context, courtID string, start, end time.Time) (*Entry, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(columns...).
		From("public.waitlist_entries").
		Where(squirrel.Eq{"court_id": courtID, "status": StatusWaiting}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start}).
		OrderBy("start_time ASC", "position ASC").
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build next waiting query failed: %w", err)
	}

	e, err := scanEntry(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get next waiting entry failed: %w", err)
	}
	return e, nil
}

func (r *pgxRepository) MarkOffered(ctx context.Context, id string, at time.Time) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.waitlist_entries").
		Set("status", StatusOffered).
		Set("offered_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark offered query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark waitlist entry offered failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.waitlist_entries").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete waitlist entry query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete waitlist entry failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type pgxTxRunner struct {
	tx *db.Transactor
}

func NewTxRunner(tx *db.Transactor) TxRunner {
	return &pgxTxRunner{tx: tx}
}

func (r *pgxTxRunner) WithinCourt(ctx context.Context, courtID string, fn func(repo Repository) error) error {
	return r.tx.WithinLock(ctx, db.CourtLockKey(courtID), func(q db.DBTX) error {
		return fn(NewPgxRepository(q))
	})
}
