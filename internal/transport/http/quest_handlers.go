package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"photo-quest-service/internal/app"
	"photo-quest-service/internal/domain"
)

type createQuestRequest struct {
	Prompt  string   `json:"prompt"`
	HostID  string   `json:"hostId"`
	UserIDs []string `json:"userIds"`
	Image   string   `json:"image"`
	Photo   string   `json:"photo"`
	Time    float64  `json:"time"`
}

type completeQuestRequest struct {
	QuestID string  `json:"questId"`
	UserID  string  `json:"userId"`
	Image   string  `json:"image"`
	Photo   string  `json:"photo"`
	Time    float64 `json:"time"`
}

type questsResponse struct {
	Quests []domain.Quest `json:"quests"`
}

func (h *Handler) CreateQuest(w http.ResponseWriter, r *http.Request) {
	var req createQuestRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrMissingField, err))
		return
	}
	image, err := decodeImage(firstNonEmpty(req.Image, req.Photo))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.quests.CreateQuest(r.Context(), app.CreateQuestRequest{
		Prompt:         req.Prompt,
		HostID:         req.HostID,
		InvitedUserIDs: req.UserIDs,
		HostImage:      image,
		HostTimeTaken:  req.Time,
	})
	if err != nil {
		h.writeQuestError(w, r, err, res.QuestID)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string `json:"message"`
		app.CreateQuestResult
	}{Message: "Quest created successfully", CreateQuestResult: res})
}

func (h *Handler) CompleteQuest(w http.ResponseWriter, r *http.Request) {
	var req completeQuestRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrMissingField, err))
		return
	}
	image, err := decodeImage(firstNonEmpty(req.Image, req.Photo))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.quests.SubmitPhoto(r.Context(), app.Submission{
		QuestID:   req.QuestID,
		UserID:    req.UserID,
		Image:     image,
		TimeTaken: req.Time,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		app.SubmissionResult
	}{Message: "Quest completed successfully", SubmissionResult: res})
}

func (h *Handler) QuestDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.quests.QuestDetails(r.Context(), chi.URLParam(r, "questID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) PendingQuests(w http.ResponseWriter, r *http.Request) {
	h.listQuests(w, r, h.quests.PendingQuests)
}

func (h *Handler) CompletedQuests(w http.ResponseWriter, r *http.Request) {
	h.listQuests(w, r, h.quests.CompletedQuests)
}

func (h *Handler) listQuests(w http.ResponseWriter, r *http.Request, list func(context.Context, string) ([]domain.Quest, error)) {
	quests, err := list(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questsResponse{Quests: quests})
}

func (h *Handler) GetPrompt(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"prompt": h.quests.RandomPrompt()})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
