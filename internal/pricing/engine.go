package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

var oneHundred = decimal.NewFromInt(100)

// Quote is the computed pricing for one booking. All amounts are rounded
// half-up to 2 fraction digits at the final step only, so intermediate
// arithmetic never accumulates rounding drift.
type Quote struct {
	PeopleCount       int
	BasePrice         decimal.Decimal
	DiscountAmount    decimal.Decimal
	TotalPrice        decimal.Decimal
	CommissionAmount  decimal.Decimal
	AppliedDiscountID *uuid.UUID
}

// Calculate computes the price of booking the tour for peopleCount people.
// Pure, no I/O. The people count is clamped into the tour's declared range as
// a safety net; the order validator is the authoritative rejection point.
func Calculate(tour models.Tour, discounts []models.Discount, commissionRate decimal.Decimal, peopleCount int, now time.Time) Quote {
	people := clampPeople(peopleCount, tour.MinPeople, tour.MaxPeople)

	base := tour.BasePrice.Add(tour.PricePerPerson.Mul(decimal.NewFromInt(int64(people - 1))))

	discount := decimal.Zero
	var appliedID *uuid.UUID
	for i := range discounts {
		d := discounts[i]
		if !d.IsActive {
			continue
		}
		if d.ValidAt(now) {
			discount = discountAmount(d, base)
			id := d.ID
			appliedID = &id
		}
		// only the first active discount is considered, valid or not
		break
	}

	total := base.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	commission := total.Mul(commissionRate).Div(oneHundred)

	return Quote{
		PeopleCount:       people,
		BasePrice:         base.Round(2),
		DiscountAmount:    discount.Round(2),
		TotalPrice:        total.Round(2),
		CommissionAmount:  commission.Round(2),
		AppliedDiscountID: appliedID,
	}
}

func discountAmount(d models.Discount, base decimal.Decimal) decimal.Decimal {
	switch d.Type {
	case enums.DiscountTypePercentage:
		return base.Mul(d.Value).Div(oneHundred)
	case enums.DiscountTypeFixed:
		if d.Value.GreaterThan(base) {
			return base
		}
		return d.Value
	default:
		return decimal.Zero
	}
}

func clampPeople(count, min, max int) int {
	if min > 0 && count < min {
		return min
	}
	if max > 0 && count > max {
		return max
	}
	return count
}
