package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Booking preconditions. The caller must not retry without changing state.
	ErrListingUnavailable = errors.New("listing is fully occupied")
	ErrDuplicateBooking   = errors.New("active booking already exists for this listing")

	// Payment bridge.
	ErrBookingNotPayable = errors.New("booking is not in a payable state")

	// Review gate.
	ErrReviewNotAllowed = errors.New("a paid booking is required to review")
	ErrDuplicateReview  = errors.New("listing already reviewed by this user")

	// Accounts.
	ErrEmailTaken         = errors.New("email already registered")
	ErrStudentNumberTaken = errors.New("student number already registered")
	ErrIDNumberTaken      = errors.New("id number already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Authorization / admin guards.
	ErrForbidden       = errors.New("access denied")
	ErrHasBookings     = errors.New("record has existing bookings")
	ErrSelfRoleChange  = errors.New("cannot change your own role")
	ErrInvalidTransfer = errors.New("status transition not allowed")
)
