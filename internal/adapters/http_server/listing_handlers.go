package httpserver

import (
	"net/http"
	"strconv"

	"unistay/internal/app"
	"unistay/internal/domain"
)

func (h *Handlers) searchListings(w http.ResponseWriter, r *http.Request) {
	var q domain.ListingQuery
	qs := r.URL.Query()

	if v := qs.Get("room_type"); v != "" {
		if !domain.RoomTypes[v] {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "unknown room type")
			return
		}
		q.RoomType = &v
	}
	if v := qs.Get("min_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "min_price must be a non-negative number")
			return
		}
		q.MinPrice = &f
	}
	if v := qs.Get("max_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "max_price must be a non-negative number")
			return
		}
		q.MaxPrice = &f
	}
	if v := qs.Get("limit"); v != "" {
		q.Limit, _ = strconv.Atoi(v)
	}
	if v := qs.Get("page"); v != "" {
		page, _ := strconv.Atoi(v)
		if page > 1 {
			limit := q.Limit
			if limit <= 0 {
				limit = app.DefaultPageSize
			}
			q.Offset = (page - 1) * limit
		}
	}

	page, err := h.Listings.Search(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, listingPageJSON{Items: toListingsJSON(page.Items), Total: page.Total})
}

func (h *Handlers) featuredListings(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	listings, err := h.Listings.Featured(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toListingsJSON(listings))
}

func (h *Handlers) getListing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	detail, err := h.Listings.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toListingDetailJSON(detail))
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	reviews, avg, err := h.Reviews.ListForListing(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"reviews":        toReviewsJSON(reviews),
		"average_rating": avg,
	})
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sess, _ := sessionFrom(r.Context())

	var req reviewRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	rv, err := h.Reviews.Submit(r.Context(), sess.UserID, id, req.Rating, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toReviewJSON(rv))
}

func (h *Handlers) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sess, _ := sessionFrom(r.Context())

	favorited, err := h.Listings.ToggleFavorite(r.Context(), sess.UserID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"favorited": favorited})
}

func (h *Handlers) myFavorites(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())
	listings, err := h.Listings.Favorites(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toListingsJSON(listings))
}
