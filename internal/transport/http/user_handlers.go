package http

import (
	"fmt"
	"net/http"

	"photo-quest-service/internal/domain"
)

type credentialsRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrMissingField, err))
		return
	}
	user, err := h.users.Register(r.Context(), req.UserID, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string `json:"message"`
		UserID  string `json:"userId"`
	}{Message: "User registered successfully", UserID: user.ID})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrMissingField, err))
		return
	}
	if err := h.users.Login(r.Context(), req.UserID, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Login successful"})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		h.writeError(w, r, fmt.Errorf("%w: userId is required", domain.ErrMissingField))
		return
	}
	ok, err := h.users.Exists(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "User does not exist"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "User exists"})
}

func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	points, err := h.quests.Points(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"points": points})
}
