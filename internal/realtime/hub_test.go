package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripgather/tripgather-backend/pkg/config"
)

type staticAuthorizer struct {
	allowed map[uuid.UUID]bool
	err     error
}

func (s staticAuthorizer) CanJoin(_ context.Context, _ uuid.UUID, roomID uuid.UUID) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.allowed[roomID], nil
}

func newTestServer(t *testing.T, hub *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(context.Background(), conn, userID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame Frame
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func sendFrame(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Frame{Event: event, Data: raw}))
}

func waitForRoomSize(t *testing.T, hub *Hub, room string, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.RoomSize(room) == want }, 2*time.Second, 10*time.Millisecond)
}

func TestHubJoinRoomAndReceive(t *testing.T) {
	groupID := uuid.New()
	userID := uuid.New()
	hub := NewHub(HubParams{
		Config:     config.RealtimeConfig{SendBuffer: 8},
		Authorizer: staticAuthorizer{allowed: map[uuid.UUID]bool{groupID: true}},
	})
	conn := newTestServer(t, hub, userID)

	sendFrame(t, conn, "joinRoom", groupID.String())
	waitForRoomSize(t, hub, groupID.String(), 1)

	require.NoError(t, hub.Publish(context.Background(), groupID.String(), EventTravelVoteCreated, map[string]string{
		"voteUuid":  "v1",
		"groupUuid": groupID.String(),
	}))

	frame := readFrame(t, conn)
	assert.Equal(t, EventTravelVoteCreated, frame.Event)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	assert.Equal(t, "v1", payload["voteUuid"])
}

func TestHubPersonalRoomJoinedOnAttach(t *testing.T) {
	userID := uuid.New()
	hub := NewHub(HubParams{})
	conn := newTestServer(t, hub, userID)
	waitForRoomSize(t, hub, userID.String(), 1)

	require.NoError(t, hub.Publish(context.Background(), userID.String(), EventFriendRequestReceived, map[string]string{"from": "x"}))
	assert.Equal(t, EventFriendRequestReceived, readFrame(t, conn).Event)
}

func TestHubRejectsUnauthorizedJoin(t *testing.T) {
	hub := NewHub(HubParams{Authorizer: staticAuthorizer{}})
	conn := newTestServer(t, hub, uuid.New())
	room := uuid.New().String()

	sendFrame(t, conn, "joinRoom", room)
	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame.Event)
	assert.Contains(t, string(frame.Data), "not a member")
	assert.Equal(t, 0, hub.RoomSize(room))
}

func TestHubAuthorizerErrorIsMasked(t *testing.T) {
	hub := NewHub(HubParams{Authorizer: staticAuthorizer{err: errors.New("db down")}})
	conn := newTestServer(t, hub, uuid.New())

	sendFrame(t, conn, "joinRoom", uuid.New().String())
	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame.Event)
	assert.NotContains(t, string(frame.Data), "db down")
}

func TestHubRejectsMalformedRoom(t *testing.T) {
	hub := NewHub(HubParams{Authorizer: staticAuthorizer{}})
	conn := newTestServer(t, hub, uuid.New())

	sendFrame(t, conn, "joinRoom", "not-a-uuid")
	frame := readFrame(t, conn)
	assert.Contains(t, string(frame.Data), "uuid")
}

func TestHubLeaveRoomStopsDelivery(t *testing.T) {
	room := uuid.New()
	hub := NewHub(HubParams{Authorizer: staticAuthorizer{allowed: map[uuid.UUID]bool{room: true}}})
	conn := newTestServer(t, hub, uuid.New())

	sendFrame(t, conn, "joinRoom", room.String())
	waitForRoomSize(t, hub, room.String(), 1)
	sendFrame(t, conn, "leaveRoom", strings.ToUpper(room.String()))
	waitForRoomSize(t, hub, room.String(), 0)
}

func TestHubDisconnectCleansMembership(t *testing.T) {
	userID := uuid.New()
	hub := NewHub(HubParams{})
	conn := newTestServer(t, hub, userID)
	waitForRoomSize(t, hub, userID.String(), 1)

	require.NoError(t, conn.Close())
	waitForRoomSize(t, hub, userID.String(), 0)
}

func TestHubDeliverDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(HubParams{Config: config.RealtimeConfig{SendBuffer: 1}})
	c := newClient(hub, nil, uuid.New())
	hub.register(c)
	hub.join(c, "room")

	assert.Equal(t, 1, hub.Deliver("room", "e", []byte("a")))
	assert.Equal(t, 0, hub.Deliver("room", "e", []byte("b")))
	assert.Equal(t, 0, hub.Deliver("missing", "e", []byte("c")))

	hub.unregister(c)
	hub.unregister(c)
	assert.Equal(t, 0, hub.RoomSize("room"))
}

func TestMembershipAuthorizer(t *testing.T) {
	user := uuid.New()
	group := uuid.New()
	auth := NewMembershipAuthorizer(
		func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil },
		func(_ context.Context, _ uuid.UUID, room uuid.UUID) (bool, error) { return room == group, nil },
	)

	ok, err := auth.CanJoin(context.Background(), user, group)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.CanJoin(context.Background(), user, user)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.CanJoin(context.Background(), user, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisBrokerDispatchDeliversLocally(t *testing.T) {
	hub := NewHub(HubParams{Config: config.RealtimeConfig{SendBuffer: 4}})
	c := newClient(hub, nil, uuid.New())
	hub.register(c)
	hub.join(c, "room-1")

	broker, err := NewRedisBroker(stubPubSub{}, "", hub, nil)
	require.NoError(t, err)

	frame, err := encodeFrame(EventReceiveMessage, map[string]string{"message": "hi"})
	require.NoError(t, err)
	body, err := json.Marshal(relayMessage{Room: "room-1", Event: EventReceiveMessage, Frame: frame})
	require.NoError(t, err)

	assert.Equal(t, 1, broker.dispatch(context.Background(), string(body)))
	assert.Equal(t, 0, broker.dispatch(context.Background(), "{"))
	assert.JSONEq(t, string(frame), string(<-c.send))
}

func TestRedisBrokerPublishEncodesEnvelope(t *testing.T) {
	stub := &recordingPubSub{}
	broker, err := NewRedisBroker(stub, "chan", NewHub(HubParams{}), nil)
	require.NoError(t, err)

	require.NoError(t, broker.Publish(context.Background(), "room-1", EventScheduleCreated, map[string]string{"title": "trip"}))
	require.Len(t, stub.published, 1)
	assert.Equal(t, "chan", stub.channel)

	var msg relayMessage
	require.NoError(t, json.Unmarshal(stub.published[0], &msg))
	assert.Equal(t, "room-1", msg.Room)
	assert.Equal(t, EventScheduleCreated, msg.Event)
	assert.Contains(t, string(msg.Frame), `"event":"scheduleCreated"`)
}

func TestRecorderCollectsEvents(t *testing.T) {
	rec := &Recorder{}
	require.NoError(t, rec.Publish(context.Background(), "r", "a", 1))
	require.NoError(t, rec.Publish(context.Background(), "r", "b", 2))
	assert.Len(t, rec.Named("a"), 1)
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), "r", "a", nil))
}
