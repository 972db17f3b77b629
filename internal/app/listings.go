package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"unistay/internal/domain"
)

const DefaultPageSize = 12

// ListingService covers browsing and the admin-side listing lifecycle.
type ListingService struct {
	listings  domain.ListingRepository
	bookings  domain.BookingRepository
	reviews   domain.ReviewRepository
	favorites domain.FavoriteRepository
}

func NewListingService(
	l domain.ListingRepository,
	b domain.BookingRepository,
	r domain.ReviewRepository,
	f domain.FavoriteRepository,
) *ListingService {
	return &ListingService{listings: l, bookings: b, reviews: r, favorites: f}
}

func (s *ListingService) Search(ctx context.Context, q domain.ListingQuery) (domain.ListingPage, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = DefaultPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.listings.SearchListings(ctx, q)
}

func (s *ListingService) Featured(ctx context.Context, n int) ([]domain.Listing, error) {
	if n <= 0 {
		n = 3
	}
	return s.listings.FeaturedListings(ctx, n)
}

func (s *ListingService) ListAll(ctx context.Context) ([]domain.Listing, error) {
	return s.listings.ListAllListings(ctx)
}

// Get assembles the detail read model: listing, images, reviews and mean
// rating.
func (s *ListingService) Get(ctx context.Context, id int64) (domain.ListingDetail, error) {
	l, err := s.listings.GetListing(ctx, id)
	if err != nil {
		return domain.ListingDetail{}, err
	}
	imgs, err := s.listings.ListListingImages(ctx, id)
	if err != nil {
		return domain.ListingDetail{}, err
	}
	reviews, err := s.reviews.ListReviewsForListing(ctx, id)
	if err != nil {
		return domain.ListingDetail{}, err
	}
	return domain.ListingDetail{
		Listing:       l,
		Images:        imgs,
		Reviews:       reviews,
		AverageRating: AverageRating(reviews),
	}, nil
}

type ListingInput struct {
	Title            string
	Description      string
	RoomType         string
	PricePerMonth    float64
	Location         string
	Capacity         int
	CurrentOccupancy int
	Amenities        []string
	Images           []domain.ListingImage
}

func (in ListingInput) validate() error {
	if !domain.RoomTypes[in.RoomType] {
		return fmt.Errorf("unknown room type %q", in.RoomType)
	}
	if in.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1")
	}
	if in.CurrentOccupancy < 0 || in.CurrentOccupancy > in.Capacity {
		return fmt.Errorf("occupancy must be between 0 and capacity")
	}
	if in.PricePerMonth <= 0 {
		return fmt.Errorf("price per month must be positive")
	}
	return nil
}

// statusFor keeps the listing invariant when admins set occupancy by hand.
func statusFor(occupancy, capacity int) string {
	if occupancy >= capacity {
		return domain.ListingFullyOccupied
	}
	return domain.ListingAvailable
}

func (s *ListingService) Create(ctx context.Context, in ListingInput, adminID int64) (domain.Listing, error) {
	if err := in.validate(); err != nil {
		return domain.Listing{}, err
	}
	l := domain.Listing{
		Title:            in.Title,
		Description:      in.Description,
		RoomType:         in.RoomType,
		PricePerMonth:    in.PricePerMonth,
		Location:         in.Location,
		Capacity:         in.Capacity,
		CurrentOccupancy: in.CurrentOccupancy,
		Amenities:        in.Amenities,
		Status:           statusFor(in.CurrentOccupancy, in.Capacity),
		AdminID:          &adminID,
	}
	if err := s.listings.CreateListing(ctx, &l); err != nil {
		return domain.Listing{}, err
	}
	if err := s.listings.AddListingImages(ctx, l.ID, in.Images); err != nil {
		return domain.Listing{}, err
	}
	log.Info().Int64("listing_id", l.ID).Str("title", l.Title).Msg("listing created")
	return l, nil
}

func (s *ListingService) Update(ctx context.Context, id int64, in ListingInput) (domain.Listing, error) {
	if err := in.validate(); err != nil {
		return domain.Listing{}, err
	}
	l, err := s.listings.GetListing(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	l.Title = in.Title
	l.Description = in.Description
	l.RoomType = in.RoomType
	l.PricePerMonth = in.PricePerMonth
	l.Location = in.Location
	l.Capacity = in.Capacity
	l.CurrentOccupancy = in.CurrentOccupancy
	l.Amenities = in.Amenities
	l.Status = statusFor(in.CurrentOccupancy, in.Capacity)

	if err := s.listings.UpdateListing(ctx, &l); err != nil {
		return domain.Listing{}, err
	}
	if err := s.listings.AddListingImages(ctx, l.ID, in.Images); err != nil {
		return domain.Listing{}, err
	}
	return l, nil
}

// Delete refuses while bookings exist, then cascades images, reviews and
// favorites explicitly.
func (s *ListingService) Delete(ctx context.Context, id int64) error {
	n, err := s.bookings.CountBookingsForListing(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrHasBookings
	}
	return s.listings.DeleteListing(ctx, id)
}

func (s *ListingService) ToggleFavorite(ctx context.Context, userID, listingID int64) (bool, error) {
	if _, err := s.listings.GetListing(ctx, listingID); err != nil {
		return false, err
	}
	return s.favorites.ToggleFavorite(ctx, userID, listingID)
}

func (s *ListingService) Favorites(ctx context.Context, userID int64) ([]domain.Listing, error) {
	return s.favorites.ListFavoriteListings(ctx, userID)
}
