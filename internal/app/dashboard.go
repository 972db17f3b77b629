package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"unistay/internal/domain"
)

// DashboardService is the read-only admin aggregator. Nothing is cached;
// every call recomputes from the store.
type DashboardService struct {
	stats    domain.StatsRepository
	payments domain.PaymentRepository
}

func NewDashboardService(s domain.StatsRepository, p domain.PaymentRepository) *DashboardService {
	return &DashboardService{stats: s, payments: p}
}

type DashboardStats struct {
	TotalUsers        int     `json:"total_users"`
	TotalListings     int     `json:"total_listings"`
	TotalBookings     int     `json:"total_bookings"`
	ApprovedBookings  int     `json:"approved_bookings"`
	PaidBookings      int     `json:"paid_bookings"`
	CancelledBookings int     `json:"cancelled_bookings"`
	TotalRevenue      float64 `json:"total_revenue"`
}

// Stats fans the independent counts out concurrently; the store is the
// only shared resource and each count is a single read.
func (s *DashboardService) Stats(ctx context.Context) (DashboardStats, error) {
	var out DashboardStats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) { out.TotalUsers, err = s.stats.CountUsers(ctx); return })
	g.Go(func() (err error) { out.TotalListings, err = s.stats.CountListings(ctx); return })
	g.Go(func() (err error) { out.TotalBookings, err = s.stats.CountAllBookings(ctx); return })
	g.Go(func() (err error) {
		out.ApprovedBookings, err = s.stats.CountBookingsByStatus(ctx, domain.BookingApproved)
		return
	})
	g.Go(func() (err error) {
		out.PaidBookings, err = s.stats.CountBookingsByStatus(ctx, domain.BookingPaid)
		return
	})
	g.Go(func() (err error) {
		out.CancelledBookings, err = s.stats.CountBookingsByStatus(ctx, domain.BookingCancelled)
		return
	})
	g.Go(func() (err error) { out.TotalRevenue, err = s.stats.TotalRevenue(ctx); return })

	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}
	return out, nil
}

type OccupancyEntry struct {
	Title    string  `json:"title"`
	Current  int     `json:"current"`
	Capacity int     `json:"capacity"`
	Rate     float64 `json:"occupancy_rate"` // percent
}

func (s *DashboardService) OccupancyReport(ctx context.Context) ([]OccupancyEntry, error) {
	rows, err := s.stats.OccupancyRows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]OccupancyEntry, 0, len(rows))
	for _, r := range rows {
		e := OccupancyEntry{Title: r.Title, Current: r.Current, Capacity: r.Capacity}
		if r.Capacity > 0 {
			e.Rate = float64(r.Current) / float64(r.Capacity) * 100
		}
		out = append(out, e)
	}
	return out, nil
}

type RevenueReport struct {
	Payments []domain.Payment `json:"payments"`
	Total    float64          `json:"total"`
}

func (s *DashboardService) Revenue(ctx context.Context) (RevenueReport, error) {
	payments, err := s.payments.ListSucceededPayments(ctx)
	if err != nil {
		return RevenueReport{}, err
	}
	var total float64
	for _, p := range payments {
		total += p.Amount
	}
	return RevenueReport{Payments: payments, Total: total}, nil
}
