package api

import (
	"net/http"

	"pharmacy/m/internal/apperror"
	"pharmacy/m/internal/service"
)

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	meds, err := h.svc.ListMedicines(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, meds)
}

func (h *Handler) lowStockMedicines(w http.ResponseWriter, r *http.Request) {
	meds, err := h.svc.ListLowStock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, meds)
}

func (h *Handler) expiringMedicines(w http.ResponseWriter, r *http.Request) {
	days, _, err := queryInt(r, "days")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	meds, err := h.svc.ListExpiring(r.Context(), int(days))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, meds)
}

func (h *Handler) getMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "medicine")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	med, err := h.svc.GetMedicine(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, med)
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	var req service.MedicineInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	med, err := h.svc.CreateMedicine(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, med)
}

func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "medicine")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req service.MedicineInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	med, err := h.svc.UpdateMedicine(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, med)
}

// adjustStock takes the delta from the query string or from a JSON body.
func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "medicine")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	delta, ok, err := queryInt(r, "delta")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		var payload struct {
			Delta *int64 `json:"delta"`
		}
		if err := decodeJSON(r, &payload); err != nil {
			h.fail(w, r, err)
			return
		}
		if payload.Delta == nil {
			h.fail(w, r, apperror.InvalidInput("delta is required"))
			return
		}
		delta = *payload.Delta
	}
	med, err := h.svc.AdjustStock(r.Context(), id, delta)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, med)
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "medicine")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.DeleteMedicine(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
