package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"unistay/internal/domain"
)

func (r *Repo) CreateBooking(ctx context.Context, b *domain.Booking) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var locked int64
		err := tx.QueryRowContext(ctx, lockListingSQL, b.ListingID).Scan(&locked)
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock listing row: %w", err)
		}

		var active int
		if err := tx.QueryRowContext(ctx, activeBookingExistsSQL, b.UserID, b.ListingID).Scan(&active); err != nil {
			return fmt.Errorf("duplicate booking check: %w", err)
		}
		if active > 0 {
			return domain.ErrDuplicateBooking
		}

		res, err := tx.ExecContext(ctx, claimSlotSQL, b.ListingID)
		if err != nil {
			return fmt.Errorf("claim occupancy slot: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrListingUnavailable
		}

		res, err = tx.ExecContext(ctx, insertBookingSQL,
			b.ListingID, b.UserID, b.Duration, valStr(b.Period), b.Payer, b.TotalPrice, b.Status)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		b.ID, err = res.LastInsertId()
		return err
	})
}

func scanBooking(row interface{ Scan(...any) error }) (domain.Booking, error) {
	var b domain.Booking
	var period, sessID, intentID sql.NullString
	if err := row.Scan(
		&b.ID, &b.ListingID, &b.UserID, &b.Duration, &period, &b.Payer,
		&b.TotalPrice, &b.Status, &sessID, &intentID, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return domain.Booking{}, err
	}
	b.Period = strPtr(period)
	b.CheckoutSessionID = strPtr(sessID)
	b.PaymentIntentID = strPtr(intentID)
	return b, nil
}

func (r *Repo) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, err
}

func (r *Repo) listBookings(ctx context.Context, where string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) ListBookingsForUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return r.listBookings(ctx, `WHERE user_id = ?`, userID)
}

func (r *Repo) ListBookings(ctx context.Context, status *string) ([]domain.Booking, error) {
	if status == nil {
		return r.listBookings(ctx, ``)
	}
	return r.listBookings(ctx, `WHERE status = ?`, *status)
}

func (r *Repo) SetBookingCheckout(ctx context.Context, id int64, sessionID, paymentIntentID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET checkout_session_id = ?, payment_intent_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		sessionID, paymentIntentID, id)
	return err
}

func (r *Repo) CancelBooking(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var listingID int64
		var status string
		err := tx.QueryRowContext(ctx, `SELECT listing_id, status FROM bookings WHERE id = ?`, id).
			Scan(&listingID, &status)
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if status == domain.BookingCancelled {
			return nil // idempotent
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		// Cancelling gives the slot back; a cancelled booking must not keep
		// consuming capacity.
		if _, err := tx.ExecContext(ctx, releaseSlotSQL, listingID); err != nil {
			return fmt.Errorf("release occupancy slot: %w", err)
		}
		return nil
	})
}

func (r *Repo) ReinstateBooking(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var listingID, userID int64
		var status string
		err := tx.QueryRowContext(ctx, `SELECT listing_id, user_id, status FROM bookings WHERE id = ?`, id).
			Scan(&listingID, &userID, &status)
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if status != domain.BookingCancelled {
			return domain.ErrInvalidTransfer
		}

		var locked int64
		if err := tx.QueryRowContext(ctx, lockListingSQL, listingID).Scan(&locked); err != nil {
			return fmt.Errorf("lock listing row: %w", err)
		}

		// The user may have booked the listing again after cancelling this
		// one; reinstating would then hand them two active bookings.
		var active int
		if err := tx.QueryRowContext(ctx, otherActiveBookingExistsSQL, userID, listingID, id).Scan(&active); err != nil {
			return fmt.Errorf("duplicate booking check: %w", err)
		}
		if active > 0 {
			return domain.ErrDuplicateBooking
		}

		res, err := tx.ExecContext(ctx, claimSlotSQL, listingID)
		if err != nil {
			return fmt.Errorf("re-claim occupancy slot: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrListingUnavailable
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE bookings SET status = 'approved', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
		return err
	})
}

func (r *Repo) CountBookingsForUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (r *Repo) CountBookingsForListing(ctx context.Context, listingID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE listing_id = ?`, listingID).Scan(&n)
	return n, err
}

func (r *Repo) HasPaidBooking(ctx context.Context, userID, listingID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE user_id = ? AND listing_id = ? AND status = 'paid'`,
		userID, listingID).Scan(&n)
	return n > 0, err
}

func (r *Repo) ListUnfinalized(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	return r.listBookings(ctx,
		`WHERE status = 'approved' AND checkout_session_id IS NOT NULL AND updated_at < ?`, cutoff)
}
