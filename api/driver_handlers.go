package api

import (
	"net/http"

	"taxiapp/pkg/models"
)

func (h *Handler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	driver, err := h.svc.Driver().Register(r.Context(), bodyFrom[*models.DriverCreate](r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, driver)
}

func (h *Handler) GetDriver(w http.ResponseWriter, r *http.Request) {
	id, err := driverID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	driver, err := h.svc.Driver().Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, driver)
}

// DeleteDriver removes the driver and, with it, the owned car.
func (h *Handler) DeleteDriver(w http.ResponseWriter, r *http.Request) {
	id, err := driverID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	n, err := h.svc.Driver().Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
