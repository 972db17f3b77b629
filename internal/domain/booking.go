package domain

import "time"

const (
	// BookingPending exists only for legacy rows; no code path creates it.
	BookingPending   = "pending"
	BookingApproved  = "approved"
	BookingPaid      = "paid"
	BookingCancelled = "cancelled"

	DurationAnnual   = "annual"
	DurationSemester = "semester"

	PeriodFirst  = "first"
	PeriodSecond = "second"
)

// Payers accepted on a booking request.
var Payers = map[string]bool{
	"self":    true,
	"bursary": true,
	"parent":  true,
}

type Booking struct {
	ID                int64
	ListingID         int64
	UserID            int64
	Duration          string
	Period            *string // semester bookings only
	Payer             string
	TotalPrice        float64
	Status            string
	CheckoutSessionID *string
	PaymentIntentID   *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Active reports whether the booking still consumes an occupancy slot.
func (b Booking) Active() bool {
	return b.Status == BookingApproved || b.Status == BookingPaid
}

// TotalPrice computes the booking total: ten months for an annual stay,
// five for a semester.
func TotalPrice(pricePerMonth float64, duration string) float64 {
	switch duration {
	case DurationAnnual:
		return pricePerMonth * 10
	case DurationSemester:
		return pricePerMonth * 5
	}
	return 0
}
