package api

import (
	"net/http"

	"taxiapp/pkg/filter"
	"taxiapp/pkg/models"
)

// GetCar returns the driver's car. The optional filter query parameter
// narrows the match with "where" and projects the result with "fields".
func (h *Handler) GetCar(w http.ResponseWriter, r *http.Request) {
	id, err := driverID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	f, err := filter.ParseFilter(r.URL.Query().Get("filter"), models.CarSchema)
	if err != nil {
		writeError(w, r, h.log, badRequest(err))
		return
	}
	var where *filter.Where
	if f != nil {
		where = f.Where
	}

	car, err := h.svc.DriverCar().Get(r.Context(), id, where)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if f != nil && f.Fields != nil {
		writeJSON(w, http.StatusOK, f.Fields.Project(car.Fields()))
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (h *Handler) CreateCar(w http.ResponseWriter, r *http.Request) {
	id, err := driverID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	car, err := h.svc.DriverCar().Create(r.Context(), id, bodyFrom[*models.CarCreate](r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (h *Handler) PatchCar(w http.ResponseWriter, r *http.Request) {
	id, err := driverID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	where, err := filter.ParseWhere(r.URL.Query().Get("where"), models.CarSchema)
	if err != nil {
		writeError(w, r, h.log, badRequest(err))
		return
	}
	n, err := h.svc.DriverCar().Patch(r.Context(), id, bodyFrom[*models.CarPatch](r), where)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) DeleteCar(w http.ResponseWriter, r *http.Request) {
	id, err := driverID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	where, err := filter.ParseWhere(r.URL.Query().Get("where"), models.CarSchema)
	if err != nil {
		writeError(w, r, h.log, badRequest(err))
		return
	}
	n, err := h.svc.DriverCar().Delete(r.Context(), id, where)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
