package app_test

import (
	"context"
	"sync"
	"time"

	"unistay/internal/domain"
)

// memStore is an in-memory implementation of the repository ports with the
// same conditional-update semantics as the MySQL layer.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]domain.User
	listings  map[int64]domain.Listing
	images    map[int64][]domain.ListingImage
	bookings  map[int64]domain.Booking
	payments  map[int64]domain.Payment // keyed by booking id
	reviews   []domain.Review
	favorites map[[2]int64]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[int64]domain.User{},
		listings:  map[int64]domain.Listing{},
		images:    map[int64][]domain.ListingImage{},
		bookings:  map[int64]domain.Booking{},
		payments:  map[int64]domain.Payment{},
		favorites: map[[2]int64]bool{},
	}
}

func (m *memStore) id() int64 { m.nextID++; return m.nextID }

func (m *memStore) addListing(l domain.Listing) domain.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == 0 {
		l.ID = m.id()
	}
	if l.Status == "" {
		l.Status = domain.ListingAvailable
	}
	m.listings[l.ID] = l
	return l
}

func (m *memStore) addUser(u domain.User) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.id()
	}
	m.users[u.ID] = u
	return u
}

// ---- ListingRepository ----

func (m *memStore) CreateListing(ctx context.Context, l *domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.id()
	m.listings[l.ID] = *l
	return nil
}

func (m *memStore) UpdateListing(ctx context.Context, l *domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listings[l.ID]; !ok {
		return domain.ErrNotFound
	}
	m.listings[l.ID] = *l
	return nil
}

func (m *memStore) DeleteListing(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.listings, id)
	delete(m.images, id)
	kept := m.reviews[:0]
	for _, r := range m.reviews {
		if r.ListingID != id {
			kept = append(kept, r)
		}
	}
	m.reviews = kept
	for k := range m.favorites {
		if k[1] == id {
			delete(m.favorites, k)
		}
	}
	return nil
}

func (m *memStore) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, nil
}

func (m *memStore) SearchListings(ctx context.Context, q domain.ListingQuery) (domain.ListingPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.Listing
	for _, l := range m.listings {
		if l.Status != domain.ListingAvailable {
			continue
		}
		if q.RoomType != nil && l.RoomType != *q.RoomType {
			continue
		}
		if q.MinPrice != nil && l.PricePerMonth < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && l.PricePerMonth > *q.MaxPrice {
			continue
		}
		items = append(items, l)
	}
	return domain.ListingPage{Items: items, Total: len(items)}, nil
}

func (m *memStore) FeaturedListings(ctx context.Context, n int) ([]domain.Listing, error) {
	page, _ := m.SearchListings(ctx, domain.ListingQuery{})
	if len(page.Items) > n {
		page.Items = page.Items[:n]
	}
	return page.Items, nil
}

func (m *memStore) ListAllListings(ctx context.Context) ([]domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Listing
	for _, l := range m.listings {
		out = append(out, l)
	}
	return out, nil
}

func (m *memStore) AddListingImages(ctx context.Context, listingID int64, imgs []domain.ListingImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[listingID] = append(m.images[listingID], imgs...)
	return nil
}

func (m *memStore) ListListingImages(ctx context.Context, listingID int64) ([]domain.ListingImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.images[listingID], nil
}

// ---- BookingRepository ----

func (m *memStore) CreateBooking(ctx context.Context, b *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.bookings {
		if other.UserID == b.UserID && other.ListingID == b.ListingID && other.Active() {
			return domain.ErrDuplicateBooking
		}
	}
	l, ok := m.listings[b.ListingID]
	if !ok {
		return domain.ErrNotFound
	}
	if !l.IsAvailable() {
		return domain.ErrListingUnavailable
	}
	l.CurrentOccupancy++
	if l.CurrentOccupancy >= l.Capacity {
		l.Status = domain.ListingFullyOccupied
	}
	m.listings[l.ID] = l

	b.ID = m.id()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	m.bookings[b.ID] = *b
	return nil
}

func (m *memStore) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (m *memStore) ListBookingsForUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListBookings(ctx context.Context, status *string) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booking
	for _, b := range m.bookings {
		if status == nil || b.Status == *status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) SetBookingCheckout(ctx context.Context, id int64, sessionID, paymentIntentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.CheckoutSessionID = &sessionID
	b.PaymentIntentID = &paymentIntentID
	m.bookings[id] = b
	return nil
}

func (m *memStore) CancelBooking(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	if b.Status == domain.BookingCancelled {
		return nil
	}
	b.Status = domain.BookingCancelled
	m.bookings[id] = b

	if l, ok := m.listings[b.ListingID]; ok && l.CurrentOccupancy > 0 {
		l.CurrentOccupancy--
		if l.CurrentOccupancy < l.Capacity {
			l.Status = domain.ListingAvailable
		}
		m.listings[l.ID] = l
	}
	return nil
}

func (m *memStore) ReinstateBooking(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	if b.Status != domain.BookingCancelled {
		return domain.ErrInvalidTransfer
	}
	for _, other := range m.bookings {
		if other.ID != id && other.UserID == b.UserID && other.ListingID == b.ListingID &&
			other.Status != domain.BookingCancelled {
			return domain.ErrDuplicateBooking
		}
	}
	l := m.listings[b.ListingID]
	if !l.IsAvailable() {
		return domain.ErrListingUnavailable
	}
	l.CurrentOccupancy++
	if l.CurrentOccupancy >= l.Capacity {
		l.Status = domain.ListingFullyOccupied
	}
	m.listings[l.ID] = l
	b.Status = domain.BookingApproved
	m.bookings[id] = b
	return nil
}

func (m *memStore) CountBookingsForUser(ctx context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountBookingsForListing(ctx context.Context, listingID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if b.ListingID == listingID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) HasPaidBooking(ctx context.Context, userID, listingID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.UserID == userID && b.ListingID == listingID && b.Status == domain.BookingPaid {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListUnfinalized(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.Status == domain.BookingApproved && b.CheckoutSessionID != nil && b.UpdatedAt.Before(cutoff) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ---- PaymentRepository ----

func (m *memStore) FinalizePayment(ctx context.Context, bookingID int64, providerPaymentID string, amount float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return false, domain.ErrNotFound
	}
	newly := false
	switch b.Status {
	case domain.BookingApproved:
		b.Status = domain.BookingPaid
		m.bookings[bookingID] = b
		newly = true
	case domain.BookingPaid:
	default:
		return false, domain.ErrBookingNotPayable
	}
	if _, exists := m.payments[bookingID]; !exists {
		m.payments[bookingID] = domain.Payment{
			ID: m.id(), BookingID: bookingID, ProviderPaymentID: providerPaymentID,
			Amount: amount, Status: domain.PaymentSucceeded, CreatedAt: time.Now(),
		}
	}
	return newly, nil
}

func (m *memStore) ListSucceededPayments(ctx context.Context) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Payment
	for _, p := range m.payments {
		if p.Status == domain.PaymentSucceeded {
			out = append(out, p)
		}
	}
	return out, nil
}

// ---- ReviewRepository ----

func (m *memStore) CreateReview(ctx context.Context, r *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.reviews {
		if other.UserID == r.UserID && other.ListingID == r.ListingID {
			return domain.ErrDuplicateReview
		}
	}
	r.ID = m.id()
	r.CreatedAt = time.Now()
	m.reviews = append(m.reviews, *r)
	return nil
}

func (m *memStore) ListReviewsForListing(ctx context.Context, listingID int64) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Review
	for _, r := range m.reviews {
		if r.ListingID == listingID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) HasReview(ctx context.Context, userID, listingID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.UserID == userID && r.ListingID == listingID {
			return true, nil
		}
	}
	return false, nil
}

// ---- FavoriteRepository ----

func (m *memStore) ToggleFavorite(ctx context.Context, userID, listingID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]int64{userID, listingID}
	if m.favorites[k] {
		delete(m.favorites, k)
		return false, nil
	}
	m.favorites[k] = true
	return true, nil
}

func (m *memStore) ListFavoriteListings(ctx context.Context, userID int64) ([]domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Listing
	for k := range m.favorites {
		if k[0] == userID {
			if l, ok := m.listings[k[1]]; ok {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

// ---- UserRepository ----

func (m *memStore) CreateUser(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.id()
	u.CreatedAt = time.Now()
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) GetUser(ctx context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *memStore) FindUserConflict(ctx context.Context, email, studentNumber, idNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		switch {
		case u.Email == email:
			return domain.ErrEmailTaken
		case u.StudentNumber == studentNumber:
			return domain.ErrStudentNumberTaken
		case u.IDNumber == idNumber:
			return domain.ErrIDNumberTaken
		}
	}
	return nil
}

func (m *memStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memStore) UpdateUserRole(ctx context.Context, id int64, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	m.users[id] = u
	return nil
}

func (m *memStore) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// ---- StatsRepository ----

func (m *memStore) CountUsers(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func (m *memStore) CountListings(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listings), nil
}

func (m *memStore) CountAllBookings(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings), nil
}

func (m *memStore) CountBookingsByStatus(ctx context.Context, status string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if b.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memStore) TotalRevenue(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, p := range m.payments {
		if p.Status == domain.PaymentSucceeded {
			total += p.Amount
		}
	}
	return total, nil
}

func (m *memStore) OccupancyRows(ctx context.Context) ([]domain.OccupancyRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.OccupancyRow
	for _, l := range m.listings {
		out = append(out, domain.OccupancyRow{Title: l.Title, Current: l.CurrentOccupancy, Capacity: l.Capacity})
	}
	return out, nil
}

// fakeProvider records checkout calls and serves canned sessions.
type fakeProvider struct {
	mu       sync.Mutex
	created  []domain.CheckoutInput
	sessions map[string]domain.CheckoutSession
	fail     bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: map[string]domain.CheckoutSession{}}
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, in domain.CheckoutInput) (domain.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return domain.CheckoutSession{}, context.DeadlineExceeded
	}
	f.created = append(f.created, in)
	sess := domain.CheckoutSession{
		ID:              "cs_fake_1",
		PaymentIntentID: "pi_fake_1",
		URL:             "https://checkout.example.com/cs_fake_1",
		PaymentStatus:   "unpaid",
	}
	f.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakeProvider) GetCheckoutSession(ctx context.Context, id string) (domain.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[id]
	if !ok {
		return domain.CheckoutSession{}, domain.ErrNotFound
	}
	return sess, nil
}
