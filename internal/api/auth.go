package api

import (
	"net/http"

	"pharmacy/m/domain"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int64        `json:"expires_in"`
	User      *domain.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Username
	}
	user, err := h.svc.Authenticate(r.Context(), identifier, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int64(h.tokens.TTL().Seconds()),
		User:      user,
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, currentUser(r))
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.ChangePassword(r.Context(), currentUser(r), req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
