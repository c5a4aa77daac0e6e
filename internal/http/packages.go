package http

import (
	"net/http"
	"strconv"

	"github.com/robertarktes/travel-agency/internal/domain"
)

type createPackageRequest struct {
	Type     string `json:"type" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Price    *int64 `json:"price" validate:"required,gte=0"`
	Slot     *int   `json:"slot" validate:"required,gte=0,lte=2147483647"`
	Location string `json:"location" validate:"required"`
	Duration int    `json:"duration" validate:"gt=0,lte=2147483647"`
}

func (h *Handlers) ListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.stores.Packages.ListPackages(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, packages)
}

func (h *Handlers) GetPackage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.stores.Packages.GetPackage(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) SearchPackages(w http.ResponseWriter, r *http.Request) {
	var req domain.PackageSearch
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	packages, err := h.stores.Packages.SearchPackages(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, packages)
}

func (h *Handlers) AvailablePackages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AvailableFilter{
		Type:     q.Get("type"),
		Location: q.Get("location"),
	}
	if raw := q.Get("price"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(w, r, validationErrors{{Field: "price", Message: "must be an integer"}})
			return
		}
		filter.MaxPrice = &price
	}

	packages, err := h.stores.Packages.AvailablePackages(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, packages)
}

func (h *Handlers) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var req createPackageRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.stores.Packages.CreatePackage(r.Context(), domain.Package{
		Type:     req.Type,
		Name:     req.Name,
		Price:    *req.Price,
		Slot:     *req.Slot,
		Location: req.Location,
		Duration: req.Duration,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req domain.PackageUpdate
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Slot != nil {
		loggerFrom(r, h.logger).WithField("package_id", id).WithField("slot", *req.Slot).
			Warn("package slot overwritten outside the booking ledger")
	}

	updated, err := h.stores.Packages.UpdatePackage(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeletePackage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.stores.Packages.DeletePackage(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Package deleted successfully"})
}
