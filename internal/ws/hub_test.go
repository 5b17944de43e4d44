package ws_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/mpetrashov/user-geo-service/internal/models"
	"github.com/mpetrashov/user-geo-service/internal/ws"
)

type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	assert.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	assert.NoError(t, err)

	var event wireEvent
	assert.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestHub_Snapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLister := ws.NewMockUserLister(ctrl)
	hub := ws.NewHub(mockLister)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	t.Run("request_users answered with users_list", func(t *testing.T) {
		mockLister.EXPECT().
			List(gomock.Any()).
			Return([]models.User{
				{ID: "u2", Name: "Grace", CreatedAt: 2000},
				{ID: "u1", Name: "Ada", CreatedAt: 1000},
			}, nil)

		conn := dialHub(t, srv)
		defer conn.Close()

		assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"request_users"}`)))

		event := readEvent(t, conn)
		assert.Equal(t, models.EventUsersList, event.Event)

		var users []models.User
		assert.NoError(t, json.Unmarshal(event.Data, &users))
		assert.Len(t, users, 2)
		assert.Equal(t, "u2", users[0].ID)
	})

	t.Run("empty collection yields an empty array", func(t *testing.T) {
		mockLister.EXPECT().List(gomock.Any()).Return(nil, nil)

		conn := dialHub(t, srv)
		defer conn.Close()

		assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"request_users"}`)))

		event := readEvent(t, conn)
		assert.Equal(t, models.EventUsersList, event.Event)
		assert.Equal(t, "[]", string(event.Data))
	})

	t.Run("fetch failure becomes an error event", func(t *testing.T) {
		mockLister.EXPECT().List(gomock.Any()).Return(nil, errors.New("connection reset"))

		conn := dialHub(t, srv)
		defer conn.Close()

		assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"request_users"}`)))

		event := readEvent(t, conn)
		assert.Equal(t, models.EventError, event.Event)

		var payload models.ErrorPayload
		assert.NoError(t, json.Unmarshal(event.Data, &payload))
		assert.Equal(t, "Failed to fetch users", payload.Message)
	})

	t.Run("unknown messages are ignored", func(t *testing.T) {
		conn := dialHub(t, srv)
		defer conn.Close()

		assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"nonsense"}`)))
		assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))

		assert.NoError(t, conn.SetReadDeadline(time.Now().Add(500*time.Millisecond)))
		_, _, err := conn.ReadMessage()
		assert.Error(t, err)
	})
}

func TestHub_Broadcast(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLister := ws.NewMockUserLister(ctrl)
	hub := ws.NewHub(mockLister)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	first := dialHub(t, srv)
	defer first.Close()
	second := dialHub(t, srv)
	defer second.Close()

	// Let both registrations land before publishing.
	time.Sleep(100 * time.Millisecond)

	user := models.User{ID: "u1", Name: "Ada", Timezone: "America/New_York"}

	t.Run("created events reach every client", func(t *testing.T) {
		hub.OnUserAdded(user)

		for _, conn := range []*websocket.Conn{first, second} {
			event := readEvent(t, conn)
			assert.Equal(t, models.EventUserCreated, event.Event)

			var got models.User
			assert.NoError(t, json.Unmarshal(event.Data, &got))
			assert.Equal(t, "u1", got.ID)
			assert.Equal(t, "America/New_York", got.Timezone)
		}
	})

	t.Run("updated events carry the event name", func(t *testing.T) {
		hub.OnUserChanged(user)

		event := readEvent(t, first)
		assert.Equal(t, models.EventUserUpdated, event.Event)
		readEvent(t, second)
	})

	t.Run("deleted events carry the event name", func(t *testing.T) {
		hub.OnUserRemoved(user)

		event := readEvent(t, first)
		assert.Equal(t, models.EventUserDeleted, event.Event)
		readEvent(t, second)
	})
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLister := ws.NewMockUserLister(ctrl)
	hub := ws.NewHub(mockLister)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)
	cancel()

	assert.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
