package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestWebSocketDeliversTaskEventsInPublishOrder(t *testing.T) {
	t.Parallel()

	bus := EventBus.New()

	srv := httptest.NewServer(WebSocket(bus))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	res.Body.Close()

	// the handler registers its subscriptions right after the upgrade
	time.Sleep(100 * time.Millisecond)

	const n = 100
	for i := 0; i < n; i++ {
		bus.Publish(TopicTaskProgress, TaskProgressPayload{Id: "task-1", Percent: i})
	}

	for i := 0; i < n; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

		var frame struct {
			Topic   string              `json:"topic"`
			Payload TaskProgressPayload `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&frame))

		require.Equal(t, TopicTaskProgress, frame.Topic)
		require.Equal(t, i, frame.Payload.Percent, "frame %d arrived out of order", i)
	}
}
