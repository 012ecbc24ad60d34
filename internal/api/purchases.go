package api

import (
	"net/http"

	"pharmacy/m/internal/service"
)

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.svc.ListPurchases(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, purchases)
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "purchase")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	purchase, err := h.svc.GetPurchase(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, purchase)
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req service.PurchaseInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	purchase, err := h.svc.CreatePurchase(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, purchase)
}

func (h *Handler) updatePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "purchase")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req service.PurchaseUpdate
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	purchase, err := h.svc.UpdatePurchase(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, purchase)
}

func (h *Handler) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "purchase")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.DeletePurchase(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
