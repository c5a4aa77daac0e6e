package http

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/travel-agency/internal/domain"
)

type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := domain.NewUser(req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.stores.Users.CreateUser(r.Context(), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.stores.Users.GetUserByUsername(r.Context(), req.Username)
	if errors.Is(err, domain.ErrNotFound) {
		h.writeError(w, r, domain.ErrBadCredentials)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := user.Authenticate(req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
