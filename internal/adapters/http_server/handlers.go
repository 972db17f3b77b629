package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"unistay/internal/adapters/stripe"
	"unistay/internal/app"
	"unistay/internal/domain"
)

type Handlers struct {
	Users     *app.UserService
	Listings  *app.ListingService
	Bookings  *app.BookingService
	Payments  *app.PaymentService
	Reviews   *app.ReviewService
	Dashboard *app.DashboardService

	Sessions   domain.SessionStore
	SessionTTL time.Duration
	Webhook    *stripe.WebhookVerifier

	validate *validator.Validate
}

func NewHandlers(
	users *app.UserService,
	listings *app.ListingService,
	bookings *app.BookingService,
	payments *app.PaymentService,
	reviews *app.ReviewService,
	dashboard *app.DashboardService,
	sessions domain.SessionStore,
	sessionTTL time.Duration,
	webhook *stripe.WebhookVerifier,
) *Handlers {
	return &Handlers{
		Users: users, Listings: listings, Bookings: bookings,
		Payments: payments, Reviews: reviews, Dashboard: dashboard,
		Sessions: sessions, SessionTTL: sessionTTL, Webhook: webhook,
		validate: validator.New(),
	}
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Group(func(r chi.Router) {
		r.Use(Auth(h.Sessions))

		// public
		r.Get("/v1/listings", h.searchListings)
		r.Get("/v1/listings/featured", h.featuredListings)
		r.Get("/v1/listings/{id}", h.getListing)
		r.Get("/v1/listings/{id}/reviews", h.listReviews)
		r.Post("/v1/auth/register", h.register)
		r.Post("/v1/auth/login", h.login)

		// signature-authenticated, never session-authenticated
		r.Post("/v1/payments/webhook", h.paymentWebhook)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)
			r.Post("/v1/auth/logout", h.logout)
			r.Get("/v1/me", h.me)
			r.Get("/v1/me/bookings", h.myBookings)
			r.Get("/v1/me/favorites", h.myFavorites)
			r.Post("/v1/listings/{id}/bookings", h.createBooking)
			r.Post("/v1/listings/{id}/reviews", h.createReview)
			r.Post("/v1/listings/{id}/favorite", h.toggleFavorite)
			r.Get("/v1/bookings/{id}", h.getBooking)
			r.Post("/v1/bookings/{id}/checkout", h.startCheckout)
			r.Get("/v1/bookings/{id}/confirmation", h.bookingConfirmation)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/v1/admin/dashboard", h.dashboard)
			r.Get("/v1/admin/occupancy", h.occupancy)
			r.Get("/v1/admin/revenue", h.revenue)
			r.Get("/v1/admin/listings", h.adminListListings)
			r.Post("/v1/admin/listings", h.adminCreateListing)
			r.Put("/v1/admin/listings/{id}", h.adminUpdateListing)
			r.Delete("/v1/admin/listings/{id}", h.adminDeleteListing)
			r.Get("/v1/admin/bookings", h.adminListBookings)
			r.Post("/v1/admin/bookings/{id}/status", h.adminSetBookingStatus)
			r.Get("/v1/admin/users", h.adminListUsers)
			r.Post("/v1/admin/users/{id}/promote", h.adminPromoteUser)
			r.Post("/v1/admin/users/{id}/demote", h.adminDemoteUser)
			r.Delete("/v1/admin/users/{id}", h.adminDeleteUser)
		})
	})
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain sentinels onto problem responses. Anything
// unrecognized is a 500 with the detail withheld.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrReviewNotAllowed):
		writeProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, domain.ErrListingUnavailable),
		errors.Is(err, domain.ErrDuplicateBooking),
		errors.Is(err, domain.ErrDuplicateReview),
		errors.Is(err, domain.ErrBookingNotPayable),
		errors.Is(err, domain.ErrHasBookings),
		errors.Is(err, domain.ErrInvalidTransfer),
		errors.Is(err, domain.ErrSelfRoleChange),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrStudentNumberTaken),
		errors.Is(err, domain.ErrIDNumberTaken):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled service error")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// decodeValid decodes the JSON body into v and runs struct validation.
// A false return means the response has been written.
func (h *Handlers) decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "failed to decode request body")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			writeProblem(w, http.StatusBadRequest, "Bad Request", verr.Error())
			return false
		}
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid request")
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}
