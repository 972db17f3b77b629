package mysql

import (
	"context"
	"fmt"
	"strings"

	"unistay/internal/domain"
)

func (r *Repo) CreateReview(ctx context.Context, rv *domain.Review) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (user_id, listing_id, rating, comment) VALUES (?, ?, ?, ?)`,
		rv.UserID, rv.ListingID, rv.Rating, rv.Comment)
	if err != nil {
		// UNIQUE(user_id, listing_id) backs the one-review-per-pair rule.
		if strings.Contains(err.Error(), "Duplicate entry") {
			return domain.ErrDuplicateReview
		}
		return fmt.Errorf("insert review: %w", err)
	}
	rv.ID, err = res.LastInsertId()
	return err
}

func (r *Repo) ListReviewsForListing(ctx context.Context, listingID int64) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, listing_id, rating, comment, created_at
FROM reviews WHERE listing_id = ?
ORDER BY created_at DESC, id DESC`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.ListingID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) HasReview(ctx context.Context, userID, listingID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE user_id = ? AND listing_id = ?`, userID, listingID).Scan(&n)
	return n > 0, err
}
