package httpserver

import (
	"time"

	"unistay/internal/domain"
)

// Wire DTOs; the domain structs stay free of json tags.

type listingJSON struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	RoomType         string   `json:"room_type"`
	PricePerMonth    float64  `json:"price_per_month"`
	Location         string   `json:"location"`
	Capacity         int      `json:"capacity"`
	CurrentOccupancy int      `json:"current_occupancy"`
	Amenities        []string `json:"amenities"`
	Status           string   `json:"status"`
}

func toListingJSON(l domain.Listing) listingJSON {
	return listingJSON{
		ID: l.ID, Title: l.Title, Description: l.Description, RoomType: l.RoomType,
		PricePerMonth: l.PricePerMonth, Location: l.Location, Capacity: l.Capacity,
		CurrentOccupancy: l.CurrentOccupancy, Amenities: l.Amenities, Status: l.Status,
	}
}

func toListingsJSON(ls []domain.Listing) []listingJSON {
	out := make([]listingJSON, 0, len(ls))
	for _, l := range ls {
		out = append(out, toListingJSON(l))
	}
	return out
}

type imageJSON struct {
	ID          int64  `json:"id"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

type listingDetailJSON struct {
	listingJSON
	Images        []imageJSON  `json:"images"`
	Reviews       []reviewJSON `json:"reviews"`
	AverageRating float64      `json:"average_rating"`
}

func toListingDetailJSON(d domain.ListingDetail) listingDetailJSON {
	out := listingDetailJSON{
		listingJSON:   toListingJSON(d.Listing),
		Images:        make([]imageJSON, 0, len(d.Images)),
		Reviews:       toReviewsJSON(d.Reviews),
		AverageRating: d.AverageRating,
	}
	for _, img := range d.Images {
		out.Images = append(out.Images, imageJSON{ID: img.ID, ContentType: img.ContentType, Data: img.Data})
	}
	return out
}

type listingPageJSON struct {
	Items []listingJSON `json:"items"`
	Total int           `json:"total"`
}

type bookingJSON struct {
	ID         int64     `json:"id"`
	ListingID  int64     `json:"listing_id"`
	UserID     int64     `json:"user_id"`
	Duration   string    `json:"duration"`
	Period     *string   `json:"period,omitempty"`
	Payer      string    `json:"payer"`
	TotalPrice float64   `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func toBookingJSON(b domain.Booking) bookingJSON {
	return bookingJSON{
		ID: b.ID, ListingID: b.ListingID, UserID: b.UserID, Duration: b.Duration,
		Period: b.Period, Payer: b.Payer, TotalPrice: b.TotalPrice, Status: b.Status,
		CreatedAt: b.CreatedAt,
	}
}

func toBookingsJSON(bs []domain.Booking) []bookingJSON {
	out := make([]bookingJSON, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingJSON(b))
	}
	return out
}

type reviewJSON struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ListingID int64     `json:"listing_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func toReviewJSON(r domain.Review) reviewJSON {
	return reviewJSON{
		ID: r.ID, UserID: r.UserID, ListingID: r.ListingID,
		Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt,
	}
}

func toReviewsJSON(rs []domain.Review) []reviewJSON {
	out := make([]reviewJSON, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReviewJSON(r))
	}
	return out
}

type userJSON struct {
	ID            int64  `json:"id"`
	StudentNumber string `json:"student_number"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	Role          string `json:"role"`
}

func toUserJSON(u domain.User) userJSON {
	return userJSON{
		ID: u.ID, StudentNumber: u.StudentNumber, FullName: u.FullName,
		Email: u.Email, PhoneNumber: u.PhoneNumber, Role: u.Role,
	}
}
