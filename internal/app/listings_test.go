package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unistay/internal/app"
	"unistay/internal/domain"
)

func listingSvc(store *memStore) *app.ListingService {
	return app.NewListingService(store, store, store, store)
}

func validListingInput() app.ListingInput {
	return app.ListingInput{
		Title:         "Res A",
		Description:   "walking distance from campus",
		RoomType:      "single",
		PricePerMonth: 1200,
		Location:      "Braamfontein",
		Capacity:      4,
		Amenities:     []string{"wifi", "laundry"},
	}
}

func TestCreateListing(t *testing.T) {
	store := newMemStore()
	svc := listingSvc(store)

	in := validListingInput()
	in.Images = []domain.ListingImage{{ContentType: "image/png", Data: "aGVsbG8="}}
	l, err := svc.Create(context.Background(), in, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingAvailable, l.Status)
	require.NotNil(t, l.AdminID)
	assert.Equal(t, int64(42), *l.AdminID)

	imgs, err := store.ListListingImages(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Len(t, imgs, 1)
}

func TestListingInputValidation(t *testing.T) {
	svc := listingSvc(newMemStore())

	cases := map[string]func(*app.ListingInput){
		"bad room type":       func(in *app.ListingInput) { in.RoomType = "penthouse" },
		"zero capacity":       func(in *app.ListingInput) { in.Capacity = 0 },
		"negative occupancy":  func(in *app.ListingInput) { in.CurrentOccupancy = -1 },
		"occupancy over cap":  func(in *app.ListingInput) { in.CurrentOccupancy = 5 },
		"non-positive price":  func(in *app.ListingInput) { in.PricePerMonth = 0 },
	}
	for name, mutate := range cases {
		in := validListingInput()
		mutate(&in)
		_, err := svc.Create(context.Background(), in, 1)
		assert.Error(t, err, name)
	}
}

func TestUpdateListingRecomputesStatus(t *testing.T) {
	store := newMemStore()
	svc := listingSvc(store)

	l, err := svc.Create(context.Background(), validListingInput(), 1)
	require.NoError(t, err)

	in := validListingInput()
	in.Capacity, in.CurrentOccupancy = 2, 2
	updated, err := svc.Update(context.Background(), l.ID, in)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingFullyOccupied, updated.Status)
}

func TestDeleteListingWithBookings(t *testing.T) {
	store := newMemStore()
	svc := listingSvc(store)

	l, err := svc.Create(context.Background(), validListingInput(), 1)
	require.NoError(t, err)

	b := domain.Booking{UserID: 1, ListingID: l.ID, Duration: domain.DurationAnnual, Payer: "self", Status: domain.BookingApproved}
	require.NoError(t, store.CreateBooking(context.Background(), &b))

	err = svc.Delete(context.Background(), l.ID)
	assert.ErrorIs(t, err, domain.ErrHasBookings)

	_, err = store.GetListing(context.Background(), l.ID)
	assert.NoError(t, err, "guarded delete must leave the listing")
}

func TestToggleFavorite(t *testing.T) {
	store := newMemStore()
	svc := listingSvc(store)

	l, err := svc.Create(context.Background(), validListingInput(), 1)
	require.NoError(t, err)

	on, err := svc.ToggleFavorite(context.Background(), 7, l.ID)
	require.NoError(t, err)
	assert.True(t, on)

	favs, err := svc.Favorites(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	on, err = svc.ToggleFavorite(context.Background(), 7, l.ID)
	require.NoError(t, err)
	assert.False(t, on)

	_, err = svc.ToggleFavorite(context.Background(), 7, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetListingDetail(t *testing.T) {
	store := newMemStore()
	svc := listingSvc(store)

	l, err := svc.Create(context.Background(), validListingInput(), 1)
	require.NoError(t, err)

	store.reviews = append(store.reviews,
		domain.Review{ID: 1, ListingID: l.ID, UserID: 1, Rating: 4},
		domain.Review{ID: 2, ListingID: l.ID, UserID: 2, Rating: 2},
	)

	detail, err := svc.Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.Title, detail.Title)
	assert.Len(t, detail.Reviews, 2)
	assert.Equal(t, 3.0, detail.AverageRating)
}
