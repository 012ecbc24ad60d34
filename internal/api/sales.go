package api

import (
	"net/http"

	"pharmacy/m/internal/service"
)

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.svc.ListSales(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "sale")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

// createSale records the authenticated user as the seller.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req service.SaleInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	seller := currentUser(r).ID
	req.SellerID = &seller
	sale, err := h.svc.CreateSale(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "sale")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req service.SaleUpdate
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sale, err := h.svc.UpdateSale(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "sale")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.DeleteSale(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
