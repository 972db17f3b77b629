package mysql

import (
	"context"
	"database/sql"

	"unistay/internal/domain"
)

func (r *Repo) ToggleFavorite(ctx context.Context, userID, listingID int64) (nowFavorite bool, err error) {
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM favorites WHERE user_id = ? AND listing_id = ?`, userID, listingID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			nowFavorite = false
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO favorites (user_id, listing_id) VALUES (?, ?)`, userID, listingID); err != nil {
			return err
		}
		nowFavorite = true
		return nil
	})
	return nowFavorite, err
}

func (r *Repo) ListFavoriteListings(ctx context.Context, userID int64) ([]domain.Listing, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT l.id, l.title, l.description, l.room_type, l.price_per_month, l.location,
       l.capacity, l.current_occupancy, l.amenities, l.status, l.admin_id,
       l.created_at, l.updated_at
FROM favorites f
JOIN listings l ON l.id = f.listing_id
WHERE f.user_id = ?
ORDER BY f.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectListings(rows)
}
