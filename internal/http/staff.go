package http

import (
	"net/http"

	"github.com/robertarktes/travel-agency/internal/domain"
)

type createStaffRequest struct {
	Name  string `json:"name" validate:"required"`
	Role  string `json:"role" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

func (h *Handlers) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.stores.Staff.ListStaff(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (h *Handlers) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.stores.Staff.CreateStaff(r.Context(), domain.Staff{
		Name:  req.Name,
		Role:  req.Role,
		Phone: domain.NormalizePhone(req.Phone, h.cfg.StaffPhoneRegion),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req domain.StaffUpdate
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Phone != nil {
		phone := domain.NormalizePhone(*req.Phone, h.cfg.StaffPhoneRegion)
		req.Phone = &phone
	}

	updated, err := h.stores.Staff.UpdateStaff(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.stores.Staff.DeleteStaff(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Staff deleted successfully."})
}
