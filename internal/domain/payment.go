package domain

import "time"

const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
)

type Payment struct {
	ID                int64
	BookingID         int64
	ProviderPaymentID string
	Amount            float64
	Status            string
	CreatedAt         time.Time
}

// MinorUnits converts a ZAR amount to cents, truncating like the
// provider expects.
func MinorUnits(amount float64) int64 { return int64(amount * 100) }
