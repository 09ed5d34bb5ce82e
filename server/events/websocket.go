package events

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

// Frame is one message pushed to a websocket client.
type Frame struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

var topics = []string{
	TopicManifestReady,
	TopicManifestError,
	TopicTaskProgress,
	TopicTaskStatus,
	TopicTaskCompleted,
	TopicTaskFailed,
	TopicTaskSettled,
}

// WebSocket upgrades the request and streams every bus topic to the
// client until it disconnects. A slow client loses frames rather than
// stalling the publishers.
func WebSocket(bus EventBus.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", slog.Any("err", err))
			return
		}

		frames := make(chan Frame, 128)

		handlers := make(map[string]any, len(topics))
		for _, topic := range topics {
			topic := topic
			handler := func(payload any) {
				select {
				case frames <- Frame{Topic: topic, Payload: payload}:
				default:
				}
			}
			handlers[topic] = handler
			// transactional: per-topic delivery stays in publish order
			if err := bus.SubscribeAsync(topic, handler, true); err != nil {
				slog.Error("websocket subscribe failed", slog.String("topic", topic), slog.Any("err", err))
			}
		}

		defer func() {
			for topic, handler := range handlers {
				bus.Unsubscribe(topic, handler)
			}
			conn.Close()
		}()

		// the read pump only detects disconnects
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case frame := <-frames:
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(frame); err != nil {
					return
				}
			}
		}
	}
}
