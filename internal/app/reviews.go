package app

import (
	"context"
	"fmt"

	"unistay/internal/domain"
)

// ReviewService gates review submission on a paid booking and computes
// listing ratings on read.
type ReviewService struct {
	reviews  domain.ReviewRepository
	bookings domain.BookingRepository
}

func NewReviewService(r domain.ReviewRepository, b domain.BookingRepository) *ReviewService {
	return &ReviewService{reviews: r, bookings: b}
}

func (s *ReviewService) Submit(ctx context.Context, userID, listingID int64, rating int, comment string) (domain.Review, error) {
	if rating < 1 || rating > 5 {
		return domain.Review{}, fmt.Errorf("rating must be between 1 and 5")
	}

	paid, err := s.bookings.HasPaidBooking(ctx, userID, listingID)
	if err != nil {
		return domain.Review{}, err
	}
	if !paid {
		return domain.Review{}, domain.ErrReviewNotAllowed
	}

	exists, err := s.reviews.HasReview(ctx, userID, listingID)
	if err != nil {
		return domain.Review{}, err
	}
	if exists {
		return domain.Review{}, domain.ErrDuplicateReview
	}

	rv := domain.Review{UserID: userID, ListingID: listingID, Rating: rating, Comment: comment}
	// the repository maps a concurrent duplicate insert to ErrDuplicateReview
	if err := s.reviews.CreateReview(ctx, &rv); err != nil {
		return domain.Review{}, err
	}
	return rv, nil
}

// ListForListing returns a listing's reviews with the arithmetic mean
// rating, 0 when there are none.
func (s *ReviewService) ListForListing(ctx context.Context, listingID int64) ([]domain.Review, float64, error) {
	reviews, err := s.reviews.ListReviewsForListing(ctx, listingID)
	if err != nil {
		return nil, 0, err
	}
	return reviews, AverageRating(reviews), nil
}

func AverageRating(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
