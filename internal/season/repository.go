package season

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/court-season-backend/internal/booking"
	"github.com/nekogravitycat/court-season-backend/internal/db"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/timeofday"
)

type Repository interface {
	// Create inserts the header and every occurrence. s.ID must be set.
	Create(ctx context.Context, s *Series) error
	GetByID(ctx context.Context, id string) (*Series, error)
	List(ctx context.Context, filter Filter) ([]*Series, int, error)
	// UpdateStatus writes the header and all occurrences in one statement.
	UpdateStatus(ctx context.Context, id string, status booking.Status) error
	UpdatePaymentStatus(ctx context.Context, id string, status booking.PaymentStatus) error
	// ListExpiredActive returns active series headers whose end date is before the given date.
	ListExpiredActive(ctx context.Context, before time.Time) ([]*Series, error)

	booking.BlockingLister
}

// TxRunner runs fn in a transaction holding the court's lock.
type TxRunner interface {
	WithinCourt(ctx context.Context, courtID string, fn func(repo Repository) error) error
}

var headerColumns = []string{
	"b.id", "b.court_id", "c.name", "b.user_id",
	"b.seasonal_start_date", "b.seasonal_end_date", "b.day_of_week",
	"b.series_start_minute", "b.series_end_minute",
	"b.status", "b.payment_status", "b.price::text", "b.notes",
	"b.customer_name", "b.customer_email", "b.customer_phone",
	"b.created_at", "b.updated_at",
}

func scanHeader(row pgx.Row, extra ...any) (*Series, error) {
	var (
		s          Series
		userID     *string
		day        int16
		start, end int
		totalPrice string
	)
	dest := []any{
		&s.ID, &s.CourtID, &s.CourtName, &userID,
		&s.StartDate, &s.EndDate, &day,
		&start, &end,
		&s.Status, &s.PaymentStatus, &totalPrice, &s.Notes,
		&s.Customer.Name, &s.Customer.Email, &s.Customer.Phone,
		&s.CreatedAt, &s.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if userID != nil {
		s.UserID = *userID
	}
	s.DayOfWeek = time.Weekday(day)
	s.StartTime = timeofday.TimeOfDay(start)
	s.EndTime = timeofday.TimeOfDay(end)
	p, err := decimal.NewFromString(totalPrice)
	if err != nil {
		return nil, fmt.Errorf("parse series price %q: %w", totalPrice, err)
	}
	s.TotalPrice = p
	return &s, nil
}

// isHeader restricts a bookings query to series header rows.
var isHeader = squirrel.And{
	squirrel.Expr("b.seasonal_series_id = b.id"),
	squirrel.Eq{"b.parent_booking_id": nil},
}

type pgxRepository struct {
	db db.DBTX
}

func NewPgxRepository(conn db.DBTX) Repository {
	return &pgxRepository{db: conn}
}

func (r *pgxRepository) Create(ctx context.Context, s *Series) error {
	if len(s.Bookings) == 0 {
		return ErrNoOccurrences
	}
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	first, last := s.Bookings[0], s.Bookings[len(s.Bookings)-1]
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"id", "court_id", "user_id", "start_time", "end_time", "status", "payment_status", "price",
			"seasonal_series_id", "day_of_week", "seasonal_start_date", "seasonal_end_date",
			"series_start_minute", "series_end_minute",
			"notes", "customer_name", "customer_email", "customer_phone",
		).
		Values(
			s.ID, booking.NullableString(s.UserID), first.StartTime, last.EndTime, s.Status, s.PaymentStatus, s.TotalPrice.String(),
			s.ID, int(s.DayOfWeek), s.StartDate, s.EndDate,
			int(s.StartTime), int(s.EndTime),
			s.Notes, s.Customer.Name, s.Customer.Email, s.Customer.Phone,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create series query failed: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return fmt.Errorf("create series failed: %w", err)
	}

	batch := &pgx.Batch{}
	for _, b := range s.Bookings {
		query, args, err := psql.Insert("public.bookings").
			Columns(
				"court_id", "user_id", "start_time", "end_time", "status", "payment_status", "price",
				"seasonal_series_id", "parent_booking_id", "day_of_week",
				"notes", "customer_name", "customer_email", "customer_phone",
			).
			Values(
				s.CourtID, booking.NullableString(s.UserID), b.StartTime, b.EndTime, s.Status, s.PaymentStatus, b.Price.String(),
				s.ID, s.ID, int(s.DayOfWeek),
				s.Notes, s.Customer.Name, s.Customer.Email, s.Customer.Phone,
			).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build create occurrence query failed: %w", err)
		}
		batch.Queue(query, args...)
	}

	results := r.db.SendBatch(ctx, batch)
	for _, b := range s.Bookings {
		if err := results.QueryRow().Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			_ = results.Close()
			return fmt.Errorf("create occurrence failed: %w", err)
		}
		b.CourtID = s.CourtID
		b.CourtName = s.CourtName
		b.UserID = s.UserID
		b.Status = s.Status
		b.PaymentStatus = s.PaymentStatus
		b.SeasonalSeriesID = &s.ID
		b.ParentBookingID = &s.ID
		b.Notes = s.Notes
		b.Customer = s.Customer
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("create occurrences failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Series, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(headerColumns...).
		From("public.bookings b").
		Join("public.courts c ON b.court_id = c.id").
		Where(squirrel.Eq{"b.id": id}).
		Where(isHeader).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get series query failed: %w", err)
	}

	s, err := scanHeader(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get series failed: %w", err)
	}

	if s.Bookings, err = r.listOccurrences(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *pgxRepository) listOccurrences(ctx context.Context, seriesID string) ([]*booking.Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(booking.Columns...).
		From("public.bookings b").
		Join("public.courts c ON b.court_id = c.id").
		Where(squirrel.Eq{"b.parent_booking_id": seriesID}).
		OrderBy("b.start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list occurrences query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list occurrences failed: %w", err)
	}
	defer rows.Close()

	var out []*booking.Booking
	for rows.Next() {
		b, err := booking.ScanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan occurrence failed: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Series, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(append([]string{}, headerColumns...), "count(*) OVER() as total_count")...).
		From("public.bookings b").
		Join("public.courts c ON b.court_id = c.id").
		Where(isHeader)

	if filter.CourtID != "" {
		query = query.Where(squirrel.Eq{"b.court_id": filter.CourtID})
	}
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}

	orderDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		orderDir = "ASC"
	}
	query = query.OrderBy("b.seasonal_start_date " + orderDir)

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
		return nil, 0, fmt.Errorf("build list series query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list series failed: %w", err)
	}
	defer rows.Close()

	var (
		out   []*Series
		total int
	)
	for rows.Next() {
		s, err := scanHeader(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan series failed: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list series failed: %w", err)
	}
	return out, total, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, status booking.Status) error {
	return r.updateSeries(ctx, id, "status", status)
}

func (r *pgxRepository) UpdatePaymentStatus(ctx context.Context, id string, status booking.PaymentStatus) error {
	return r.updateSeries(ctx, id, "payment_status", status)
}

func (r *pgxRepository) updateSeries(ctx context.Context, id, column string, value any) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set(column, value).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"seasonal_series_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update series query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update series failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) ListExpiredActive(ctx context.Context, before time.Time) ([]*Series, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(headerColumns...).
		From("public.bookings b").
		Join("public.courts c ON b.court_id = c.id").
		Where(isHeader).
		Where(squirrel.Eq{"b.status": booking.StatusActive}).
		Where(squirrel.Lt{"b.seasonal_end_date": before.Format("2006-01-02")}).
		OrderBy("b.seasonal_end_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list expired series query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expired series failed: %w", err)
	}
	defer rows.Close()

	var out []*Series
	for rows.Next() {
		s, err := scanHeader(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series failed: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pgxRepository) ListBlocking(ctx context.Context, courtID string, from, to time.Time, excludeSeriesID string) ([]*booking.Booking, error) {
	return booking.NewPgxRepository(r.db).ListBlocking(ctx, courtID, from, to, excludeSeriesID)
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
