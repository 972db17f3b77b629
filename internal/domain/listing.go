package domain

import "time"

const (
	ListingAvailable     = "available"
	ListingFullyOccupied = "fully_occupied"
)

// Room types accepted by listing create/update.
var RoomTypes = map[string]bool{
	"single":    true,
	"double":    true,
	"shared":    true,
	"studio":    true,
	"apartment": true,
}

type Listing struct {
	ID               int64
	Title            string
	Description      string
	RoomType         string
	PricePerMonth    float64 // ZAR
	Location         string
	Capacity         int
	CurrentOccupancy int
	Amenities        []string
	Status           string
	AdminID          *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsAvailable mirrors the booking precondition: a free slot and an
// available status.
func (l Listing) IsAvailable() bool {
	return l.CurrentOccupancy < l.Capacity && l.Status == ListingAvailable
}

// ListingImage holds inline image data, base64-encoded.
type ListingImage struct {
	ID          int64
	ListingID   int64
	ContentType string
	Data        string
}

type ListingQuery struct {
	RoomType *string
	MinPrice *float64
	MaxPrice *float64
	Limit    int
	Offset   int
}

type ListingPage struct {
	Items []Listing
	Total int
}

// ListingDetail is the read model for the detail page: the listing with
// its images, reviews and mean rating.
type ListingDetail struct {
	Listing
	Images        []ListingImage
	Reviews       []Review
	AverageRating float64
}
