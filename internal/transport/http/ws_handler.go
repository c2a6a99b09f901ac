package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"photo-quest-service/internal/app"
)

// WSHandler streams one quest's events to a websocket client.
type WSHandler struct {
	quests   *app.QuestService
	feed     *app.Feed
	logger   logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(quests *app.QuestService, feed *app.Feed, logger logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		quests: quests,
		feed:   feed,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type string `json:"type"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS sends the current quest details, then every event for the quest.
// Clients may send {"type":"details"} to get a fresh snapshot.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	questID := r.URL.Query().Get("questId")
	if questID == "" {
		http.Error(w, "missing questId", http.StatusBadRequest)
		return
	}
	details, err := h.quests.QuestDetails(r.Context(), questID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()
	// Drop the HTTP server's request deadlines; the feed is long-lived.
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})

	events, cancel := h.feed.Subscribe(questID)
	defer cancel()
	log := h.logger.WithField("quest_id", questID)
	log.Debug("feed subscriber joined")

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "event", Payload: event}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if enqueue(send, writerDone, outboundMessage[any]{Type: "details", Payload: details}) {
		h.readLoop(conn, r, questID, send, writerDone)
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
	log.Debug("feed subscriber left")
}

// readLoop answers client messages until the connection fails or the writer
// goroutine has exited.
func (h *WSHandler) readLoop(conn *websocket.Conn, r *http.Request, questID string, send chan<- outboundMessage[any], writerDone <-chan struct{}) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var reply outboundMessage[any]
		var inbound inboundMessage
		if err := json.Unmarshal(raw, &inbound); err != nil {
			reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid message"}}
		} else {
			switch inbound.Type {
			case "details":
				fresh, err := h.quests.QuestDetails(r.Context(), questID)
				if err != nil {
					reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				} else {
					reply = outboundMessage[any]{Type: "details", Payload: fresh}
				}
			default:
				reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
			}
		}
		if !enqueue(send, writerDone, reply) {
			return
		}
	}
}

// enqueue hands msg to the writer, or reports false once the writer is gone.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}
