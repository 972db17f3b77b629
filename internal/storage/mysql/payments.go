package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"unistay/internal/domain"
)

func (r *Repo) FinalizePayment(ctx context.Context, bookingID int64, providerPaymentID string, amount float64) (newlyPaid bool, err error) {
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, markPaidSQL, bookingID)
		if err != nil {
			return fmt.Errorf("mark booking paid: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			var status string
			err := tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, bookingID).Scan(&status)
			if err == sql.ErrNoRows {
				return domain.ErrNotFound
			}
			if err != nil {
				return err
			}
			if status != domain.BookingPaid {
				return domain.ErrBookingNotPayable
			}
			// already paid: fall through and make sure the payment row exists
		}

		if _, err := tx.ExecContext(ctx, insertPaymentSQL, bookingID, providerPaymentID, amount); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		newlyPaid = n == 1
		return nil
	})
	return newlyPaid, err
}

func (r *Repo) ListSucceededPayments(ctx context.Context) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, booking_id, provider_payment_id, amount, status, created_at
FROM payments
WHERE status = 'succeeded'
ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.ProviderPaymentID, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
