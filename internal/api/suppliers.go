package api

import (
	"net/http"

	"pharmacy/m/internal/service"
)

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.svc.ListSuppliers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, suppliers)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "supplier")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sup, err := h.svc.GetSupplier(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sup)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req service.SupplierInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sup, err := h.svc.CreateSupplier(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sup)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "supplier")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req service.SupplierInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sup, err := h.svc.UpdateSupplier(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sup)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "supplier")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.DeleteSupplier(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
