// Package pricing resolves slot prices from basic or time-tiered policies.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/court-season-backend/internal/pkg/timeofday"
)

// Source tells which rule produced a Quote.
type Source string

const (
	SourceTier         Source = "tier"
	SourceBasic        Source = "basic"
	SourceFacilityRate Source = "facility_rate"
	SourceNone         Source = "none"
)

// Quote is a resolved price.
type Quote struct {
	Price  decimal.Decimal
	Source Source
	Tier   string // name of the matched tier, if any
}

// Priced reports whether the quote came from an actual pricing rule.
func (q Quote) Priced() bool {
	return q.Source != SourceNone
}

// Resolve prices a window starting at `at` and lasting durationMinutes.
//
// The matched price is the price of one base slot of baseDurationMinutes and
// is scaled linearly to the requested duration. When the policy yields no
// price the facility rate is used; when that is nil too the quote is zero
// with SourceNone.
func Resolve(p Pricing, facilityRate *decimal.Decimal, at timeofday.TimeOfDay, durationMinutes, baseDurationMinutes int) Quote {
	var (
		q  Quote
		ok bool
	)

	switch v := p.(type) {
	case Basic:
		q, ok = Quote{Price: v.PricePerSlot, Source: SourceBasic}, true
	case Advanced:
		q, ok = resolveAdvanced(v, at.Hour())
	}

	if !ok {
		if facilityRate == nil {
			return Quote{Price: decimal.Zero, Source: SourceNone}
		}
		q = Quote{Price: *facilityRate, Source: SourceFacilityRate}
	}

	q.Price = scale(q.Price, durationMinutes, baseDurationMinutes)
	return q
}

// resolveAdvanced applies the tier ranking:
// containing tier, then the latest-ending tier when the hour is past it,
// then the first enabled tier, then the base price.
func resolveAdvanced(a Advanced, hour int) (Quote, bool) {
	var enabled []Tier
	for _, t := range a.Tiers {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	if len(enabled) == 0 {
		if a.BasePrice == nil {
			return Quote{}, false
		}
		return Quote{Price: *a.BasePrice, Source: SourceBasic}, true
	}

	for _, t := range enabled {
		if t.Contains(hour) {
			return Quote{Price: t.Price, Source: SourceTier, Tier: t.Name}, true
		}
	}

	latest := enabled[0]
	for _, t := range enabled[1:] {
		if t.EndHour > latest.EndHour {
			latest = t
		}
	}
	if hour >= latest.EndHour {
		return Quote{Price: latest.Price, Source: SourceTier, Tier: latest.Name}, true
	}

	first := enabled[0]
	return Quote{Price: first.Price, Source: SourceTier, Tier: first.Name}, true
}

func scale(price decimal.Decimal, durationMinutes, baseDurationMinutes int) decimal.Decimal {
	if price.IsNegative() || durationMinutes <= 0 {
		return decimal.Zero
	}
	if baseDurationMinutes <= 0 || durationMinutes == baseDurationMinutes {
		return price.Round(2)
	}
	scaled := price.Mul(decimal.NewFromInt(int64(durationMinutes))).
		Div(decimal.NewFromInt(int64(baseDurationMinutes)))
	return scaled.Round(2)
}
