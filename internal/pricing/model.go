package pricing

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/court-season-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/timeofday"
)

var (
	ErrNegativePrice    = apperror.InvalidConfiguration("price must not be negative")
	ErrInvalidTierRange = apperror.InvalidConfiguration("tier start must be before tier end")
	ErrInvalidTierBound = apperror.InvalidConfiguration("tier bounds must be whole hours")
	ErrInvalidTiers     = apperror.InvalidConfiguration("invalid pricing tiers configuration")
	ErrUnknownMode      = apperror.InvalidConfiguration("unknown pricing mode")
)

// Mode is the persisted discriminator of a Pricing policy.
type Mode string

const (
	ModeBasic    Mode = "basic"
	ModeAdvanced Mode = "advanced"
)

// Pricing is either Basic or Advanced.
type Pricing interface {
	Mode() Mode
}

// Basic charges a flat price per slot.
type Basic struct {
	PricePerSlot decimal.Decimal
}

func (Basic) Mode() Mode { return ModeBasic }

// Advanced charges by time-of-day tier. BasePrice is used when no tier is enabled.
type Advanced struct {
	Tiers     []Tier
	BasePrice *decimal.Decimal
}

func (Advanced) Mode() Mode { return ModeAdvanced }

// Tier is a price applying to [StartHour, EndHour) on a 24h clock.
type Tier struct {
	Name      string
	StartHour int
	EndHour   int
	Price     decimal.Decimal
	Enabled   bool
}

// Contains reports whether hour falls inside the tier range.
func (t Tier) Contains(hour int) bool {
	return t.StartHour <= hour && hour < t.EndHour
}

// tierJSON is the JSONB representation stored on courts.pricing_tiers.
type tierJSON struct {
	Name    string          `json:"name"`
	Start   string          `json:"start"`
	End     string          `json:"end"`
	Price   decimal.Decimal `json:"price"`
	Enabled bool            `json:"enabled"`
}

// DecodeTiers parses the JSONB tiers column. Bounds must fall on the hour.
func DecodeTiers(raw []byte) ([]Tier, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var items []tierJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTiers, err)
	}

	tiers := make([]Tier, 0, len(items))
	for _, it := range items {
		start, err := timeofday.Parse(it.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: tier %q start: %v", ErrInvalidTiers, it.Name, err)
		}
		end, err := timeofday.ParseClose(it.End)
		if err != nil {
			return nil, fmt.Errorf("%w: tier %q end: %v", ErrInvalidTiers, it.Name, err)
		}
		if start.Minute() != 0 || end.Minute() != 0 {
			return nil, fmt.Errorf("%w: tier %q %s-%s", ErrInvalidTierBound, it.Name, it.Start, it.End)
		}
		tiers = append(tiers, Tier{
			Name:      it.Name,
			StartHour: start.Hour(),
			EndHour:   end.Hour(),
			Price:     it.Price,
			Enabled:   it.Enabled,
		})
	}
	return tiers, nil
}

// Build assembles a Pricing from its persisted columns and validates it.
// A basic policy without a price yields nil so callers fall back to the
// facility rate.
func Build(mode Mode, pricePerSlot *decimal.Decimal, tiers []Tier) (Pricing, error) {
	if pricePerSlot != nil && pricePerSlot.IsNegative() {
		return nil, ErrNegativePrice
	}

	switch mode {
	case ModeBasic, "":
		if pricePerSlot == nil {
			return nil, nil
		}
		return Basic{PricePerSlot: *pricePerSlot}, nil
	case ModeAdvanced:
		for _, t := range tiers {
			if t.Price.IsNegative() {
				return nil, ErrNegativePrice
			}
			if t.StartHour >= t.EndHour {
				return nil, ErrInvalidTierRange
			}
		}
		return Advanced{Tiers: tiers, BasePrice: pricePerSlot}, nil
	default:
		return nil, ErrUnknownMode
	}
}
