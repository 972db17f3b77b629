package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"unistay/internal/adapters/stripe"
	"unistay/internal/app"
	"unistay/internal/domain"
)

type bookingRequest struct {
	Duration string `json:"duration" validate:"required,oneof=annual semester"`
	Period   string `json:"period" validate:"omitempty,oneof=first second"`
	Payer    string `json:"payer" validate:"required,oneof=self bursary parent"`
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	listingID, ok := idParam(w, r)
	if !ok {
		return
	}
	sess, _ := sessionFrom(r.Context())

	var req bookingRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	if req.Duration == domain.DurationSemester && req.Period == "" {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "semester bookings need a period")
		return
	}

	b, err := h.Bookings.Create(r.Context(), app.CreateBookingInput{
		UserID:    sess.UserID,
		ListingID: listingID,
		Duration:  req.Duration,
		Period:    req.Period,
		Payer:     req.Payer,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toBookingJSON(b))
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sess, _ := sessionFrom(r.Context())

	b, err := h.Bookings.Get(r.Context(), id, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toBookingJSON(b))
}

func (h *Handlers) startCheckout(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sess, _ := sessionFrom(r.Context())

	url, err := h.Payments.StartCheckout(r.Context(), id, sess.UserID)
	if err != nil {
		// a provider-side failure is the upstream's fault, not the client's
		if !errors.Is(err, domain.ErrNotFound) &&
			!errors.Is(err, domain.ErrForbidden) &&
			!errors.Is(err, domain.ErrBookingNotPayable) {
			writeProblem(w, http.StatusBadGateway, "Bad Gateway", "checkout provider unavailable")
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"checkout_url": url})
}

func (h *Handlers) bookingConfirmation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sess, _ := sessionFrom(r.Context())

	b, err := h.Payments.ConfirmRedirect(r.Context(), id, sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"booking": toBookingJSON(b),
		"paid":    b.Status == domain.BookingPaid,
	})
}

// paymentWebhook is the only state-changing payment channel. The payload
// is trusted solely on its signature; unverifiable events are dropped
// with a 400 so the provider retries signed ones and gives up on junk.
func (h *Handlers) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "unreadable body")
		return
	}

	event, err := h.Webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.Warn().Err(err).Msg("webhook rejected")
		writeProblem(w, http.StatusBadRequest, "Bad Request", "signature verification failed")
		return
	}

	if event.Type != stripe.EventCheckoutCompleted {
		// acknowledged so the provider stops resending event types we ignore
		w.WriteHeader(http.StatusOK)
		return
	}

	err = h.Payments.CheckoutCompleted(r.Context(), event.Session.BookingID, event.Session.PaymentIntent, event.Session.PaymentStatus)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrBookingNotPayable) {
			// nothing a retry can fix
			log.Warn().Err(err).Int64("booking_id", event.Session.BookingID).Msg("webhook event not applicable")
			w.WriteHeader(http.StatusOK)
			return
		}
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
