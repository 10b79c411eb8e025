package transport

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event names on the wire
const (
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
	EventConnectError = "connect_error"
	EventChat         = "msg"
	EventPresence     = "presence"
	EventWhisper      = "whisper"
	EventMute         = "mute"
	EventUnmute       = "unmute"
	EventUpdateUsers  = "updateUsers"

	EventMessage = "message"
	EventJoin    = "join"
	EventLeave   = "leave"
	EventKick    = "kick"
	EventReport  = "report"
)

// ErrClosed is returned by Emit once the channel is closed or was never opened
var ErrClosed = errors.New("channel is not connected")

// Channel is the part of the real-time transport the chat core uses
type Channel interface {
	Emit(event string, payload any) error
	Online() []string
	IsOnline(username string) bool
}

// Source delivers incoming events
type Source interface {
	Events() <-chan Event
}

// Event is one incoming envelope, or a locally synthesised lifecycle event
type Event struct {
	Name string
	Data json.RawMessage
	Err  error
}

// Decode unmarshals the event payload into v
func (e Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no payload", e.Name)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Name, err)
	}
	return nil
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encode(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", event, err)
		}
		data = raw
	}
	return json.Marshal(envelope{Event: event, Data: data})
}

func decode(frame []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Event{}, fmt.Errorf("decoding envelope: %w", err)
	}
	if env.Event == "" {
		return Event{}, fmt.Errorf("envelope without event name")
	}
	return Event{Name: env.Event, Data: env.Data}, nil
}

// ChatMessage is a broadcast chat line
type ChatMessage struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Text     string `json:"text"`
}

// Notice announces a join or leave
type Notice struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Text     string `json:"text"`
}

// Presence lists the connected usernames
type Presence struct {
	Online []string `json:"online"`
}

// Kick asks the server to disconnect target
type Kick struct {
	Target string `json:"target"`
	By     string `json:"by"`
}

// Mute notifies target of a mute lasting Duration seconds
type Mute struct {
	Target   string `json:"target"`
	Duration int    `json:"duration"`
}

// Unmute lifts a mute
type Unmute struct {
	Target string `json:"target"`
}

// Whisper is a private message to one connection
type Whisper struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

// Report flags a user for moderator review
type Report struct {
	Target string `json:"target"`
	By     string `json:"by"`
	Reason string `json:"reason"`
}

// UserEntry is one element of an updateUsers broadcast
type UserEntry struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
