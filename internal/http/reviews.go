package http

import (
	"net/http"

	"github.com/robertarktes/travel-agency/internal/domain"
)

type reviewRequest struct {
	UserID    int64  `json:"user_id" validate:"gt=0"`
	PackageID int64  `json:"package_id" validate:"gt=0"`
	Rating    int    `json:"rating" validate:"gte=1,lte=5"`
	Comment   string `json:"comment"`
}

type reviewResponse struct {
	Message string        `json:"message"`
	Review  domain.Review `json:"review"`
}

func (h *Handlers) AddReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	review, inserted, err := h.stores.Reviews.UpsertReview(r.Context(), domain.Review{
		UserID:    req.UserID,
		PackageID: req.PackageID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	msg := "Review updated successfully"
	if inserted {
		msg = "Review added successfully"
	}
	writeJSON(w, http.StatusCreated, reviewResponse{Message: msg, Review: review})
}

func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.stores.Reviews.ListReviews(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *Handlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.stores.Reviews.DeleteReview(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Review deleted successfully"})
}
