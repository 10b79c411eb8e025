package chat

import (
	"encoding/json"
	"fmt"

	"github.com/frostneek/FrostChat/pkg/authorization"
	"github.com/frostneek/FrostChat/pkg/transport"
)

func (c *Client) handleEvent(ev transport.Event) (bool, error) {
	switch ev.Name {
	case transport.EventConnect:
		c.display.Success("Connected to the server.")
		if c.state == waitingConnect {
			c.enter(chooseMode)
		}

	case transport.EventConnectError:
		c.display.Error(fmt.Sprintf("Error connecting to the server: %v", ev.Err))
		return c.dropped(ev.Err)

	case transport.EventDisconnect:
		c.display.Error("Disconnected from the server.")
		return c.dropped(ev.Err)

	case transport.EventChat:
		c.showChat(ev)

	case transport.EventJoin, transport.EventLeave:
		var n transport.Notice
		if c.decode(ev, &n) {
			c.display.Info(n.Text)
		}

	case transport.EventWhisper:
		var w transport.Whisper
		if c.decode(ev, &w) && w.To == c.session.Username() {
			c.display.Whisper(w.From, w.Message)
		}

	case transport.EventMute:
		var m transport.Mute
		if c.decode(ev, &m) && m.Target == c.session.Username() {
			c.engine.ApplySelfMute(m.Duration)
			c.display.Warn(fmt.Sprintf("You have been muted for %d seconds.", m.Duration))
		}

	case transport.EventUnmute:
		var u transport.Unmute
		if c.decode(ev, &u) && u.Target == c.session.Username() {
			c.engine.ClearSelfMute()
			c.display.Success("You have been unmuted.")
		}

	case transport.EventKick:
		var k transport.Kick
		if c.decode(ev, &k) && k.Target == c.session.Username() {
			c.display.Warn(fmt.Sprintf("You have been kicked by %s.", k.By))
		}

	default:
		c.logger.Debug("Ignoring event", "event", ev.Name)
	}
	return false, nil
}

// showChat prints an incoming chat line unless it is the echo of our own
func (c *Client) showChat(ev transport.Event) {
	var msg transport.ChatMessage
	if err := json.Unmarshal(ev.Data, &msg); err != nil {
		// older servers relay a preformatted string
		var text string
		if json.Unmarshal(ev.Data, &text) != nil {
			c.logger.Warn("Dropping malformed chat event", "error", err)
			return
		}
		c.display.Info(text)
		return
	}

	if msg.ID != "" && msg.ID == c.lastSent {
		return
	}
	c.display.Chat(msg.Username, authorization.Role(msg.Role), msg.Text)
}

func (c *Client) decode(ev transport.Event, v any) bool {
	if err := ev.Decode(v); err != nil {
		c.logger.Warn("Dropping malformed event", "event", ev.Name, "error", err)
		return false
	}
	return true
}

func (c *Client) dropped(err error) (bool, error) {
	if c.onDrop == nil || c.onDrop(err) {
		return true, ErrDisconnected
	}
	return false, nil
}
