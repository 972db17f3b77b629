package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"unistay/internal/adapters/observability"
	"unistay/internal/domain"
)

// BookingService is the booking engine: it owns the occupancy accounting
// and the one-active-booking rule.
type BookingService struct {
	bookings domain.BookingRepository
	listings domain.ListingRepository
}

func NewBookingService(b domain.BookingRepository, l domain.ListingRepository) *BookingService {
	return &BookingService{bookings: b, listings: l}
}

type CreateBookingInput struct {
	UserID    int64
	ListingID int64
	Duration  string // annual | semester
	Period    string // first | second, semester only
	Payer     string // self | bursary | parent
}

func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	if in.Duration != domain.DurationAnnual && in.Duration != domain.DurationSemester {
		return domain.Booking{}, fmt.Errorf("unknown duration %q", in.Duration)
	}
	if !domain.Payers[in.Payer] {
		return domain.Booking{}, fmt.Errorf("unknown payer %q", in.Payer)
	}

	listing, err := s.listings.GetListing(ctx, in.ListingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !listing.IsAvailable() {
		return domain.Booking{}, domain.ErrListingUnavailable
	}

	b := domain.Booking{
		ListingID:  in.ListingID,
		UserID:     in.UserID,
		Duration:   in.Duration,
		Payer:      in.Payer,
		TotalPrice: domain.TotalPrice(listing.PricePerMonth, in.Duration),
		Status:     domain.BookingApproved,
	}
	if in.Duration == domain.DurationSemester && in.Period != "" {
		p := in.Period
		b.Period = &p
	}

	// The repository re-checks both preconditions atomically; the
	// availability read above is only a fast path for a clean error.
	if err := s.bookings.CreateBooking(ctx, &b); err != nil {
		return domain.Booking{}, err
	}

	observability.BookingsCreated.Inc()
	log.Info().Int64("booking_id", b.ID).Int64("listing_id", b.ListingID).
		Int64("user_id", b.UserID).Str("duration", b.Duration).Msg("booking approved")
	return b, nil
}

// Get returns the booking if the caller owns it or is an admin.
func (s *BookingService) Get(ctx context.Context, id int64, sess domain.Session) (domain.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if b.UserID != sess.UserID && sess.Role != domain.RoleAdmin {
		return domain.Booking{}, domain.ErrForbidden
	}
	return b, nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListBookingsForUser(ctx, userID)
}

func (s *BookingService) List(ctx context.Context, status *string) ([]domain.Booking, error) {
	return s.bookings.ListBookings(ctx, status)
}

// UpdateStatus is the admin transition endpoint. Only cancellation and its
// undo are allowed here; `paid` is owned by the payment bridge.
func (s *BookingService) UpdateStatus(ctx context.Context, id int64, newStatus string) error {
	switch newStatus {
	case domain.BookingCancelled:
		if err := s.bookings.CancelBooking(ctx, id); err != nil {
			return err
		}
		log.Info().Int64("booking_id", id).Msg("booking cancelled, occupancy released")
		return nil
	case domain.BookingApproved:
		return s.bookings.ReinstateBooking(ctx, id)
	default:
		return domain.ErrInvalidTransfer
	}
}
