package api

import (
	"net/http"

	"pharmacy/m/internal/apperror"
	"pharmacy/m/internal/service"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req service.UserInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.svc.CreateUser(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "user")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req service.UserUpdate
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.svc.UpdateUser(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) setUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "user")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Active == nil {
		h.fail(w, r, apperror.InvalidInput("active is required"))
		return
	}
	user, err := h.svc.SetUserStatus(r.Context(), id, *req.Active)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "user")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resetUserPassword accepts an empty body to fall back to the default password.
func (h *Handler) resetUserPassword(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "user")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req struct {
		NewPassword *string `json:"new_password"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	if err := h.svc.ResetPassword(r.Context(), id, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password reset"})
}
