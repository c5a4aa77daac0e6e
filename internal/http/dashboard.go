package http

import "net/http"

func (h *Handlers) Availability(w http.ResponseWriter, r *http.Request) {
	a, err := h.stores.Dashboard.Availability(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) Revenue(w http.ResponseWriter, r *http.Request) {
	series, err := h.stores.Dashboard.MonthlyRevenue(r.Context(), h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *Handlers) MonthlyBookings(w http.ResponseWriter, r *http.Request) {
	series, err := h.stores.Dashboard.MonthlyBookings(r.Context(), h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}
