package transport

import (
	"encoding/json"
	"sync"
)

// Emitted is one event recorded by MemoryChannel
type Emitted struct {
	Event   string
	Payload any
}

// MemoryChannel implements Channel without a network
type MemoryChannel struct {
	mu       sync.Mutex
	emitted  []Emitted
	online   []string
	failNext error
	events   chan Event
}

// NewMemoryChannel creates a channel whose presence list is online
func NewMemoryChannel(online ...string) *MemoryChannel {
	return &MemoryChannel{
		online: append([]string(nil), online...),
		events: make(chan Event, defaultBuffer),
	}
}

// Emit implements Channel
func (m *MemoryChannel) Emit(event string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.emitted = append(m.emitted, Emitted{Event: event, Payload: payload})
	return nil
}

// Online implements Channel
func (m *MemoryChannel) Online() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.online...)
}

// IsOnline implements Channel
func (m *MemoryChannel) IsOnline(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range m.online {
		if name == username {
			return true
		}
	}
	return false
}

// SetOnline replaces the presence list
func (m *MemoryChannel) SetOnline(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = append([]string(nil), names...)
}

// FailNextEmit makes the next Emit return err
func (m *MemoryChannel) FailNextEmit(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Emitted returns every recorded event
func (m *MemoryChannel) Emitted() []Emitted {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Emitted(nil), m.emitted...)
}

// Named returns the recorded events called event
func (m *MemoryChannel) Named(event string) []Emitted {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Emitted
	for _, e := range m.emitted {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets recorded events
func (m *MemoryChannel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitted = nil
}

// Events implements Source
func (m *MemoryChannel) Events() <-chan Event {
	return m.events
}

// Inject queues an incoming event as if the server had sent it
func (m *MemoryChannel) Inject(event string, payload any) error {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = raw
	}
	if event == EventPresence {
		if p, ok := payload.(Presence); ok {
			m.SetOnline(p.Online...)
		}
	}
	m.events <- Event{Name: event, Data: data}
	return nil
}

// InjectError queues a lifecycle event carrying err
func (m *MemoryChannel) InjectError(event string, err error) {
	m.events <- Event{Name: event, Err: err}
}
