package court

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/court-season-backend/internal/db"
	"github.com/nekogravitycat/court-season-backend/internal/pricing"
)

// Repository reads courts together with their facility.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Court, error)
}

type pgxRepository struct {
	db db.DBTX
}

// NewPgxRepository creates a court repository over a pool or transaction.
func NewPgxRepository(conn db.DBTX) Repository {
	return &pgxRepository{db: conn}
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Court, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"c.id", "c.facility_id", "c.name", "c.slot_duration_minutes", "c.working_hours",
		"c.pricing_mode", "c.price_per_slot::text", "c.pricing_tiers", "c.is_active", "c.created_at",
		"f.name", "f.timezone", "f.working_hours", "f.default_price_per_slot::text", "f.is_active",
	).
		From("public.courts c").
		Join("public.facilities f ON c.facility_id = f.id").
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get court query failed: %w", err)
	}

	var (
		c             Court
		courtHours    []byte
		facilityHours []byte
		mode          string
		pricePerSlot  *string
		tiersRaw      []byte
		facilityRate  *string
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.FacilityID, &c.Name, &c.SlotDurationMinutes, &courtHours,
		&mode, &pricePerSlot, &tiersRaw, &c.IsActive, &c.CreatedAt,
		&c.Facility.Name, &c.Facility.Timezone, &facilityHours, &facilityRate, &c.Facility.IsActive,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get court failed: %w", err)
	}
	c.Facility.ID = c.FacilityID

	if c.Facility.Location, err = LoadTimezone(c.Facility.Timezone); err != nil {
		return nil, fmt.Errorf("facility %s: %w", c.FacilityID, err)
	}

	if c.WorkingHours, err = DecodeWorkingHours(courtHours); err != nil {
		return nil, fmt.Errorf("court %s: %w", c.ID, err)
	}
	if c.Facility.WorkingHours, err = DecodeWorkingHours(facilityHours); err != nil {
		return nil, fmt.Errorf("facility %s: %w", c.FacilityID, err)
	}

	if c.Facility.DefaultPricePerSlot, err = parseOptionalDecimal(facilityRate); err != nil {
		return nil, fmt.Errorf("facility %s default price: %w", c.FacilityID, err)
	}
	base, err := parseOptionalDecimal(pricePerSlot)
	if err != nil {
		return nil, fmt.Errorf("court %s price: %w", c.ID, err)
	}
	tiers, err := pricing.DecodeTiers(tiersRaw)
	if err != nil {
		return nil, fmt.Errorf("court %s: %w", c.ID, err)
	}
	if c.Pricing, err = pricing.Build(pricing.Mode(mode), base, tiers); err != nil {
		return nil, err
	}

	return &c, nil
}

func parseOptionalDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
