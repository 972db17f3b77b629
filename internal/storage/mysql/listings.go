package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"unistay/internal/domain"
)

func (r *Repo) CreateListing(ctx context.Context, l *domain.Listing) error {
	amen, _ := json.Marshal(l.Amenities)
	res, err := r.db.ExecContext(ctx, insertListingSQL,
		l.Title, l.Description, l.RoomType, l.PricePerMonth, l.Location,
		l.Capacity, l.CurrentOccupancy, string(amen), l.Status, valInt64(l.AdminID))
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	l.ID, err = res.LastInsertId()
	return err
}

func (r *Repo) UpdateListing(ctx context.Context, l *domain.Listing) error {
	amen, _ := json.Marshal(l.Amenities)
	res, err := r.db.ExecContext(ctx, updateListingSQL,
		l.Title, l.Description, l.RoomType, l.PricePerMonth, l.Location,
		l.Capacity, l.CurrentOccupancy, string(amen), l.Status, l.ID)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 for no-op updates too; distinguish missing rows.
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings WHERE id = ?`, l.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

// DeleteListing is the explicit service-layer cascade: images, reviews and
// favorites go with the listing in one transaction. The booking guard
// lives in the listing service.
func (r *Repo) DeleteListing(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM listing_images WHERE listing_id = ?`,
			`DELETE FROM reviews WHERE listing_id = ?`,
			`DELETE FROM favorites WHERE listing_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func scanListing(row interface{ Scan(...any) error }) (domain.Listing, error) {
	var l domain.Listing
	var amenities []byte
	var adminID sql.NullInt64
	if err := row.Scan(
		&l.ID, &l.Title, &l.Description, &l.RoomType, &l.PricePerMonth,
		&l.Location, &l.Capacity, &l.CurrentOccupancy, &amenities,
		&l.Status, &adminID, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return domain.Listing{}, err
	}
	_ = json.Unmarshal(amenities, &l.Amenities)
	l.AdminID = int64Ptr(adminID)
	return l, nil
}

func (r *Repo) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, err
}

func (r *Repo) SearchListings(ctx context.Context, q domain.ListingQuery) (domain.ListingPage, error) {
	where := []string{`status = 'available'`}
	args := []any{}
	if q.RoomType != nil {
		where = append(where, `room_type = ?`)
		args = append(args, *q.RoomType)
	}
	if q.MinPrice != nil {
		where = append(where, `price_per_month >= ?`)
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, `price_per_month <= ?`)
		args = append(args, *q.MaxPrice)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM listings WHERE `+cond, args...).Scan(&total); err != nil {
		return domain.ListingPage{}, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE `+cond+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...)
	if err != nil {
		return domain.ListingPage{}, err
	}
	defer rows.Close()

	page := domain.ListingPage{Total: total}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return domain.ListingPage{}, err
		}
		page.Items = append(page.Items, l)
	}
	return page, rows.Err()
}

func (r *Repo) FeaturedListings(ctx context.Context, n int) ([]domain.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE status = 'available' ORDER BY RAND() LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectListings(rows)
}

func (r *Repo) ListAllListings(ctx context.Context) ([]domain.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectListings(rows)
}

func collectListings(rows *sql.Rows) ([]domain.Listing, error) {
	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) AddListingImages(ctx context.Context, listingID int64, imgs []domain.ListingImage) error {
	if len(imgs) == 0 {
		return nil
	}
	values := make([]string, 0, len(imgs))
	args := make([]any, 0, len(imgs)*3)
	for _, img := range imgs {
		values = append(values, "(?,?,?)")
		args = append(args, listingID, img.ContentType, img.Data)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO listing_images (listing_id, content_type, data) VALUES `+strings.Join(values, ","), args...)
	return err
}

func (r *Repo) ListListingImages(ctx context.Context, listingID int64) ([]domain.ListingImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, listing_id, content_type, data FROM listing_images WHERE listing_id = ? ORDER BY id`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ListingImage
	for rows.Next() {
		var img domain.ListingImage
		if err := rows.Scan(&img.ID, &img.ListingID, &img.ContentType, &img.Data); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}
