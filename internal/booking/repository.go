package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/court-season-backend/internal/db"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error

	BlockingLister
}

// TxRunner runs fn in a transaction holding the court's lock, handing it a
// repository bound to that transaction.
type TxRunner interface {
	WithinCourt(ctx context.Context, courtID string, fn func(repo Repository) error) error
}

// Columns is the select list understood by ScanRow.
var Columns = []string{
	"b.id", "b.court_id", "c.name", "b.user_id",
	"b.start_time", "b.end_time", "b.status", "b.payment_status", "b.price::text",
	"b.seasonal_series_id", "b.parent_booking_id", "b.notes",
	"b.customer_name", "b.customer_email", "b.customer_phone",
	"b.created_at", "b.updated_at",
}

// ScanRow scans a row selected with Columns, followed by any extra destinations.
func ScanRow(row pgx.Row, extra ...any) (*Booking, error) {
	var (
		b      Booking
		userID *string
		price  string
	)
	dest := []any{
		&b.ID, &b.CourtID, &b.CourtName, &userID,
		&b.StartTime, &b.EndTime, &b.Status, &b.PaymentStatus, &price,
		&b.SeasonalSeriesID, &b.ParentBookingID, &b.Notes,
		&b.Customer.Name, &b.Customer.Email, &b.Customer.Phone,
		&b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if userID != nil {
		b.UserID = *userID
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse booking price %q: %w", price, err)
	}
	b.Price = p
	return &b, nil
}

// NullableString maps "" to SQL NULL.
func NullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type pgxRepository struct {
	db db.DBTX
}

func NewPgxRepository(conn db.DBTX) Repository {
	return &pgxRepository{db: conn}
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"court_id", "user_id", "start_time", "end_time", "status", "payment_status", "price",
			"notes", "customer_name", "customer_email", "customer_phone",
		).
		Values(
			b.CourtID, NullableString(b.UserID), b.StartTime, b.EndTime, b.Status, b.PaymentStatus, b.Price.String(),
			b.Notes, b.Customer.Name, b.Customer.Email, b.Customer.Phone,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(Columns...).
		From("public.bookings b").
		Join("public.courts c ON b.court_id = c.id").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := ScanRow(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

var sortColumns = map[string]string{
	"start_time": "b.start_time",
	"end_time":   "b.end_time",
	"created_at": "b.created_at",
	"status":     "b.status",
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(append([]string{}, Columns...), "count(*) OVER() as total_count")...).
		From("public.bookings b").
		Join("public.courts c ON b.court_id = c.id").
		// Series headers are listed through the seasonal series endpoints.
		Where("NOT (b.seasonal_series_id IS NOT NULL AND b.parent_booking_id IS NULL)")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.CourtID != "" {
		query = query.Where(squirrel.Eq{"b.court_id": filter.CourtID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	// Date range filtering (intersection logic)
	if filter.StartTime != nil {
		query = query.Where(squirrel.GtOrEq{"b.end_time": filter.StartTime})
	}
	if filter.EndTime != nil {
		query = query.Where(squirrel.LtOrEq{"b.start_time": filter.EndTime})
	}

	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = "b.start_time"
	}
	orderDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := ScanRow(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBlocking applies the occupancy rule of Booking.Occupies in SQL.
func (r *pgxRepository) ListBlocking(ctx context.Context, courtID string, from, to time.Time, excludeSeriesID string) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(Columns...).
		From("public.bookings b").
		Join("public.courts c ON b.court_id = c.id").
		Where(squirrel.Eq{"b.court_id": courtID}).
		Where(squirrel.Lt{"b.start_time": to}).
		Where(squirrel.Gt{"b.end_time": from}).
		Where("NOT (b.seasonal_series_id IS NOT NULL AND b.parent_booking_id IS NULL)").
		Where(squirrel.Or{
			squirrel.Eq{"b.status": StatusActive},
			squirrel.And{
				squirrel.Eq{"b.status": StatusConfirmed},
				squirrel.Eq{"b.seasonal_series_id": nil},
			},
		}).
		OrderBy("b.start_time ASC")

	if excludeSeriesID != "" {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"b.seasonal_series_id": nil},
			squirrel.NotEq{"b.seasonal_series_id": excludeSeriesID},
		})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list blocking bookings query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list blocking bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := ScanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

type pgxTxRunner struct {
	tx *db.Transactor
}

// NewTxRunner binds repositories to transactions serialized per court.
func NewTxRunner(tx *db.Transactor) TxRunner {
	return &pgxTxRunner{tx: tx}
}

func (r *pgxTxRunner) WithinCourt(ctx context.Context, courtID string, fn func(repo Repository) error) error {
	return r.tx.WithinLock(ctx, db.CourtLockKey(courtID), func(q db.DBTX) error {
		return fn(NewPgxRepository(q))
	})
}
