package mysql

import (
	"context"

	"unistay/internal/domain"
)

func (r *Repo) count(ctx context.Context, q string, args ...any) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

func (r *Repo) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`)
}

func (r *Repo) CountListings(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM listings`)
}

func (r *Repo) CountAllBookings(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM bookings`)
}

func (r *Repo) CountBookingsByStatus(ctx context.Context, status string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM bookings WHERE status = ?`, status)
}

func (r *Repo) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'succeeded'`).Scan(&total)
	return total, err
}

func (r *Repo) OccupancyRows(ctx context.Context) ([]domain.OccupancyRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT title, current_occupancy, capacity FROM listings ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OccupancyRow
	for rows.Next() {
		var o domain.OccupancyRow
		if err := rows.Scan(&o.Title, &o.Current, &o.Capacity); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
