package realtime

import (
	"context"
	"encoding/json"
	"sync"
)

// Event names emitted to rooms.
const (
	EventReceiveMessage           = "receiveMessage"
	EventTravelVoteCreated        = "travelVoteCreated"
	EventVoteParticipationUpdated = "voteParticipationUpdated"
	EventScheduleCreated          = "scheduleCreated"
	EventGroupMemberLeft          = "groupMemberLeft"
	EventFriendRequestReceived    = "friendRequestReceived"
	EventFriendRequestAccepted    = "friendRequestAccepted"

	eventJoinRoom  = "joinRoom"
	eventLeaveRoom = "leaveRoom"
	eventError     = "error"
)

// Publisher emits an event to every socket joined to room. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, room, event string, payload any) error
}

// Frame is the websocket wire format in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }

// Recorded is one event captured by a Recorder.
type Recorded struct {
	Room    string
	Event   string
	Payload any
}

// Recorder keeps published events in memory; services use it in tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
	Err    error
}

func (r *Recorder) Publish(_ context.Context, room, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, Recorded{Room: room, Event: event, Payload: payload})
	return nil
}

// Named returns the recorded events matching event.
func (r *Recorder) Named(event string) []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Recorded
	for _, e := range r.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
