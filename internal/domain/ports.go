package domain

import (
	"context"
	"time"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	// FindUserConflict returns the sentinel for whichever unique field is
	// already taken, or nil when all three are free.
	FindUserConflict(ctx context.Context, email, studentNumber, idNumber string) error
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUserRole(ctx context.Context, id int64, role string) error
	DeleteUser(ctx context.Context, id int64) error
}

type ListingRepository interface {
	CreateListing(ctx context.Context, l *Listing) error
	UpdateListing(ctx context.Context, l *Listing) error
	// DeleteListing removes the listing together with its images, reviews
	// and favorites in one transaction. Bookings are the caller's guard.
	DeleteListing(ctx context.Context, id int64) error
	GetListing(ctx context.Context, id int64) (Listing, error)
	SearchListings(ctx context.Context, q ListingQuery) (ListingPage, error)
	FeaturedListings(ctx context.Context, n int) ([]Listing, error)
	ListAllListings(ctx context.Context) ([]Listing, error)

	AddListingImages(ctx context.Context, listingID int64, imgs []ListingImage) error
	ListListingImages(ctx context.Context, listingID int64) ([]ListingImage, error)
}

type BookingRepository interface {
	// CreateBooking atomically checks the one-active-booking rule, claims an
	// occupancy slot on the listing and inserts the booking row. It returns
	// ErrDuplicateBooking or ErrListingUnavailable when a precondition fails;
	// no state changes in that case.
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListBookingsForUser(ctx context.Context, userID int64) ([]Booking, error)
	ListBookings(ctx context.Context, status *string) ([]Booking, error)
	SetBookingCheckout(ctx context.Context, id int64, sessionID, paymentIntentID string) error
	// CancelBooking flips an active booking to cancelled and releases its
	// occupancy slot. Idempotent on already-cancelled bookings.
	CancelBooking(ctx context.Context, id int64) error
	// ReinstateBooking undoes a cancellation by re-claiming a slot; fails
	// with ErrListingUnavailable when the listing has filled up since.
	ReinstateBooking(ctx context.Context, id int64) error
	CountBookingsForUser(ctx context.Context, userID int64) (int, error)
	CountBookingsForListing(ctx context.Context, listingID int64) (int, error)
	HasPaidBooking(ctx context.Context, userID, listingID int64) (bool, error)
	// ListUnfinalized returns approved bookings that hold a checkout session
	// created before the cutoff, for reconciliation against the provider.
	ListUnfinalized(ctx context.Context, cutoff time.Time) ([]Booking, error)
}

type PaymentRepository interface {
	// FinalizePayment marks the booking paid and records its payment in one
	// transaction. The bool reports whether this call did the transition;
	// repeated calls are no-ops. ErrBookingNotPayable is returned for
	// cancelled bookings.
	FinalizePayment(ctx context.Context, bookingID int64, providerPaymentID string, amount float64) (bool, error)
	ListSucceededPayments(ctx context.Context) ([]Payment, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, r *Review) error
	ListReviewsForListing(ctx context.Context, listingID int64) ([]Review, error)
	HasReview(ctx context.Context, userID, listingID int64) (bool, error)
}

type FavoriteRepository interface {
	// ToggleFavorite adds or removes the pair and reports whether it is a
	// favorite afterwards.
	ToggleFavorite(ctx context.Context, userID, listingID int64) (bool, error)
	ListFavoriteListings(ctx context.Context, userID int64) ([]Listing, error)
}

// StatsRepository backs the read-only admin dashboard.
type StatsRepository interface {
	CountUsers(ctx context.Context) (int, error)
	CountListings(ctx context.Context) (int, error)
	CountBookingsByStatus(ctx context.Context, status string) (int, error)
	CountAllBookings(ctx context.Context) (int, error)
	TotalRevenue(ctx context.Context) (float64, error)
	OccupancyRows(ctx context.Context) ([]OccupancyRow, error)
}

type OccupancyRow struct {
	Title    string
	Current  int
	Capacity int
}

// CheckoutProvider is the hosted-payment gateway (Stripe in production).
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (CheckoutSession, error)
}

type CheckoutInput struct {
	AmountMinor   int64
	Currency      string
	Name          string
	Description   string
	CustomerEmail string
	BookingID     int64
	UserID        int64
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID              string
	PaymentIntentID string
	URL             string
	PaymentStatus   string // unpaid | paid
}

// SessionStore keeps server-side login sessions keyed by an opaque token.
type SessionStore interface {
	SaveSession(ctx context.Context, token string, s Session, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (Session, bool, error)
	DestroySession(ctx context.Context, token string) error
}

type Session struct {
	UserID    int64  `json:"user_id"`
	Role      string `json:"role"`
	CSRFToken string `json:"csrf_token"`
}
