package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"photo-quest-service/internal/app"
)

// maxBodyBytes bounds JSON bodies, which carry base64 photos.
const maxBodyBytes = 16 << 20

// Handler serves the quest HTTP API.
type Handler struct {
	quests *app.QuestService
	users  *app.UserService
	ws     *WSHandler
	logger logrus.FieldLogger
}

func NewHandler(quests *app.QuestService, users *app.UserService, feed *app.Feed, logger logrus.FieldLogger) *Handler {
	return &Handler{
		quests: quests,
		users:  users,
		ws:     NewWSHandler(quests, feed, logger),
		logger: logger,
	}
}

// Router builds the chi router with every route mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", h.ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/get-user", h.GetUser)
		r.Get("/get-points", h.GetPoints)

		r.Get("/pending-quests", h.PendingQuests)
		r.Get("/completed-quests", h.CompletedQuests)
		r.Get("/get-prompt", h.GetPrompt)
		r.Post("/create-quest", h.CreateQuest)
		r.Post("/complete-quest", h.CompleteQuest)
		r.Get("/quest-details/{questID}", h.QuestDetails)
	})
	return r
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	QuestID string `json:"questId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeQuestError(w, r, err, "")
}

// writeQuestError is writeError for failures that happen after a quest was
// stored; a non-empty questID is echoed so the client can still find it.
func (h *Handler) writeQuestError(w http.ResponseWriter, r *http.Request, err error, questID string) {
	status := statusFor(err)
	log := h.logger.WithError(err).WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"status":     status,
		"request_id": middleware.GetReqID(r.Context()),
	})
	if questID != "" {
		log = log.WithField("quest_id", questID)
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request rejected")
	}
	writeJSON(w, status, messageResponse{Message: messageFor(status), Error: err.Error(), QuestID: questID})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}).Info("http request")
		})
	}
}
