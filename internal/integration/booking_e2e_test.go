//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"unistay/internal/domain"
	mysqlrepo "unistay/internal/storage/mysql"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/migrations)", k)
	}
	return v
}

// applyMigrations runs the *.up.sql files in lexical order against the
// container database.
func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .up.sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=unistay",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/unistay?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func TestBookingLifecycle_EndToEnd(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	student := domain.User{
		StudentNumber: "220000001", FullName: "Thandi Mokoena",
		Email: "thandi@uni.ac.za", PasswordHash: "x",
		IDNumber: "0101015800089", PhoneNumber: "0821234567", Role: domain.RoleUser,
	}
	if err := repo.CreateUser(ctx, &student); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	rival := domain.User{
		StudentNumber: "220000002", FullName: "Sipho Dlamini",
		Email: "sipho@uni.ac.za", PasswordHash: "x",
		IDNumber: "0202025800086", PhoneNumber: "0837654321", Role: domain.RoleUser,
	}
	if err := repo.CreateUser(ctx, &rival); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	listing := domain.Listing{
		Title: "Single at Res A", Description: "close to campus", RoomType: "single",
		PricePerMonth: 1000, Location: "Braamfontein", Capacity: 1,
		Amenities: []string{"wifi"}, Status: domain.ListingAvailable, AdminID: nil,
	}
	if err := repo.CreateListing(ctx, &listing); err != nil {
		t.Fatalf("CreateListing: %v", err)
	}

	// book the only slot
	booking := domain.Booking{
		ListingID: listing.ID, UserID: student.ID,
		Duration: domain.DurationAnnual, Payer: "self",
		TotalPrice: 10000, Status: domain.BookingApproved,
	}
	if err := repo.CreateBooking(ctx, &booking); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	got, err := repo.GetListing(ctx, listing.ID)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if got.CurrentOccupancy != 1 || got.Status != domain.ListingFullyOccupied {
		t.Fatalf("listing after booking: occupancy=%d status=%s", got.CurrentOccupancy, got.Status)
	}

	// same user again: duplicate; another user: full
	dup := domain.Booking{ListingID: listing.ID, UserID: student.ID, Duration: domain.DurationAnnual, Payer: "self", TotalPrice: 10000, Status: domain.BookingApproved}
	if err := repo.CreateBooking(ctx, &dup); !errors.Is(err, domain.ErrDuplicateBooking) {
		t.Fatalf("duplicate booking: got %v", err)
	}
	full := domain.Booking{ListingID: listing.ID, UserID: rival.ID, Duration: domain.DurationAnnual, Payer: "self", TotalPrice: 10000, Status: domain.BookingApproved}
	if err := repo.CreateBooking(ctx, &full); !errors.Is(err, domain.ErrListingUnavailable) {
		t.Fatalf("full listing booking: got %v", err)
	}

	// finalize twice; exactly one payment lands
	newly, err := repo.FinalizePayment(ctx, booking.ID, "pi_e2e_1", booking.TotalPrice)
	if err != nil || !newly {
		t.Fatalf("first finalize: newly=%v err=%v", newly, err)
	}
	newly, err = repo.FinalizePayment(ctx, booking.ID, "pi_e2e_1", booking.TotalPrice)
	if err != nil || newly {
		t.Fatalf("second finalize: newly=%v err=%v", newly, err)
	}
	payments, err := repo.ListSucceededPayments(ctx)
	if err != nil {
		t.Fatalf("ListSucceededPayments: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("want 1 payment, got %d", len(payments))
	}

	paidBooking, err := repo.GetBooking(ctx, booking.ID)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if paidBooking.Status != domain.BookingPaid {
		t.Fatalf("booking status after finalize: %s", paidBooking.Status)
	}

	// paid booking unlocks exactly one review
	ok, err := repo.HasPaidBooking(ctx, student.ID, listing.ID)
	if err != nil || !ok {
		t.Fatalf("HasPaidBooking: ok=%v err=%v", ok, err)
	}
	review := domain.Review{UserID: student.ID, ListingID: listing.ID, Rating: 5, Comment: "good year"}
	if err := repo.CreateReview(ctx, &review); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	again := domain.Review{UserID: student.ID, ListingID: listing.ID, Rating: 1, Comment: "second take"}
	if err := repo.CreateReview(ctx, &again); !errors.Is(err, domain.ErrDuplicateReview) {
		t.Fatalf("duplicate review: got %v", err)
	}

	// dashboard numbers reflect the flow
	revenue, err := repo.TotalRevenue(ctx)
	if err != nil {
		t.Fatalf("TotalRevenue: %v", err)
	}
	if revenue != booking.TotalPrice {
		t.Fatalf("revenue: want %v got %v", booking.TotalPrice, revenue)
	}
	paidCount, err := repo.CountBookingsByStatus(ctx, domain.BookingPaid)
	if err != nil || paidCount != 1 {
		t.Fatalf("paid count: n=%d err=%v", paidCount, err)
	}

	// cancellation frees the slot for the rival
	if err := repo.CancelBooking(ctx, booking.ID); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	got, err = repo.GetListing(ctx, listing.ID)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if got.CurrentOccupancy != 0 || got.Status != domain.ListingAvailable {
		t.Fatalf("listing after cancel: occupancy=%d status=%s", got.CurrentOccupancy, got.Status)
	}
	if err := repo.CreateBooking(ctx, &full); err != nil {
		t.Fatalf("rival booking after cancel: %v", err)
	}

	// the student re-books once the rival leaves; the old cancelled booking
	// must not come back as a second active one
	if err := repo.CancelBooking(ctx, full.ID); err != nil {
		t.Fatalf("CancelBooking rival: %v", err)
	}
	rebook := domain.Booking{ListingID: listing.ID, UserID: student.ID, Duration: domain.DurationAnnual, Payer: "self", TotalPrice: 10000, Status: domain.BookingApproved}
	if err := repo.CreateBooking(ctx, &rebook); err != nil {
		t.Fatalf("re-book after cancel: %v", err)
	}
	if err := repo.ReinstateBooking(ctx, booking.ID); !errors.Is(err, domain.ErrDuplicateBooking) {
		t.Fatalf("reinstate with active booking: got %v", err)
	}
	got, err = repo.GetListing(ctx, listing.ID)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if got.CurrentOccupancy != 1 {
		t.Fatalf("occupancy after rejected reinstate: %d", got.CurrentOccupancy)
	}
}
