package httpserver

import (
	"net/http"

	"unistay/internal/app"
	"unistay/internal/domain"

	redisad "unistay/internal/adapters/redis"
)

type registerRequest struct {
	StudentNumber string `json:"student_number" validate:"required,numeric,min=6,max=12"`
	FullName      string `json:"full_name" validate:"required,min=2,max=120"`
	Email         string `json:"email" validate:"required,email"`
	IDNumber      string `json:"id_number" validate:"required,len=13,numeric"`
	PhoneNumber   string `json:"phone_number" validate:"required,min=10,max=15"`
	Password      string `json:"password" validate:"required,min=8,max=72"`
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	u, err := h.Users.Register(r.Context(), app.RegisterInput{
		StudentNumber: req.StudentNumber,
		FullName:      req.FullName,
		Email:         req.Email,
		IDNumber:      req.IDNumber,
		PhoneNumber:   req.PhoneNumber,
		Password:      req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toUserJSON(u))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	u, err := h.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := redisad.NewToken()
	if err != nil {
		writeError(w, err)
		return
	}
	csrf, err := redisad.NewToken()
	if err != nil {
		writeError(w, err)
		return
	}
	sess := domain.Session{UserID: u.ID, Role: u.Role, CSRFToken: csrf}
	if err := h.Sessions.SaveSession(r.Context(), token, sess, h.SessionTTL); err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, r, http.StatusOK, map[string]any{
		"user":       toUserJSON(u),
		"csrf_token": sess.CSRFToken,
	})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if err := h.Sessions.DestroySession(r.Context(), c.Value); err != nil {
			writeError(w, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())
	u, err := h.Users.Get(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toUserJSON(u))
}

func (h *Handlers) myBookings(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())
	bookings, err := h.Bookings.ListForUser(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toBookingsJSON(bookings))
}
