package httpserver

import (
	"net/http"

	"unistay/internal/app"
	"unistay/internal/domain"
)

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Dashboard.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

func (h *Handlers) occupancy(w http.ResponseWriter, r *http.Request) {
	report, err := h.Dashboard.OccupancyReport(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func (h *Handlers) revenue(w http.ResponseWriter, r *http.Request) {
	report, err := h.Dashboard.Revenue(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

type listingRequest struct {
	Title            string   `json:"title" validate:"required,min=3,max=200"`
	Description      string   `json:"description" validate:"max=5000"`
	RoomType         string   `json:"room_type" validate:"required"`
	PricePerMonth    float64  `json:"price_per_month" validate:"required,gt=0"`
	Location         string   `json:"location" validate:"required,max=300"`
	Capacity         int      `json:"capacity" validate:"required,min=1"`
	CurrentOccupancy int      `json:"current_occupancy" validate:"min=0"`
	Amenities        []string `json:"amenities" validate:"dive,max=80"`
	Images           []struct {
		ContentType string `json:"content_type" validate:"required"`
		Data        string `json:"data" validate:"required,base64"`
	} `json:"images" validate:"dive"`
}

func (req listingRequest) toInput() app.ListingInput {
	in := app.ListingInput{
		Title:            req.Title,
		Description:      req.Description,
		RoomType:         req.RoomType,
		PricePerMonth:    req.PricePerMonth,
		Location:         req.Location,
		Capacity:         req.Capacity,
		CurrentOccupancy: req.CurrentOccupancy,
		Amenities:        req.Amenities,
	}
	for _, img := range req.Images {
		in.Images = append(in.Images, domain.ListingImage{ContentType: img.ContentType, Data: img.Data})
	}
	return in
}

func (h *Handlers) adminListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Listings.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toListingsJSON(listings))
}

func (h *Handlers) adminCreateListing(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())

	var req listingRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	l, err := h.Listings.Create(r.Context(), req.toInput(), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toListingJSON(l))
}

func (h *Handlers) adminUpdateListing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req listingRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	l, err := h.Listings.Update(r.Context(), id, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toListingJSON(l))
}

func (h *Handlers) adminDeleteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Listings.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) adminListBookings(w http.ResponseWriter, r *http.Request) {
	var status *string
	if v := r.URL.Query().Get("status"); v != "" {
		switch v {
		case domain.BookingPending, domain.BookingApproved, domain.BookingPaid, domain.BookingCancelled:
			status = &v
		default:
			writeProblem(w, http.StatusBadRequest, "Bad Request", "unknown booking status")
			return
		}
	}
	bookings, err := h.Bookings.List(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toBookingsJSON(bookings))
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved cancelled"`
}

func (h *Handlers) adminSetBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	if err := h.Bookings.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) adminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, toUserJSON(u))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handlers) adminPromoteUser(w http.ResponseWriter, r *http.Request) {
	h.adminSetRole(w, r, domain.RoleAdmin)
}

func (h *Handlers) adminDemoteUser(w http.ResponseWriter, r *http.Request) {
	h.adminSetRole(w, r, domain.RoleUser)
}

func (h *Handlers) adminSetRole(w http.ResponseWriter, r *http.Request, role string) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sess, _ := sessionFrom(r.Context())

	if err := h.Users.SetRole(r.Context(), sess.UserID, id, role); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sess, _ := sessionFrom(r.Context())

	if err := h.Users.Delete(r.Context(), sess.UserID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
