package moderation

import (
	"sync"
	"time"
)

// MuteRegistry maps muted usernames to their expiry. It is not persisted.
type MuteRegistry struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMuteRegistry creates an empty registry
func NewMuteRegistry() *MuteRegistry {
	return &MuteRegistry{entries: make(map[string]time.Time)}
}

// Set records or overwrites the expiry for username
func (r *MuteRegistry) Set(username string, expiry time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[username] = expiry
}

// Remove deletes the entry, reporting whether one existed
func (r *MuteRegistry) Remove(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[username]; !ok {
		return false
	}
	delete(r.entries, username)
	return true
}

// Expire removes the entry only if it still carries expiry. A timer from
// an earlier mute, or one that fires after a manual unmute, is a no-op.
func (r *MuteRegistry) Expire(username string, expiry time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.entries[username]
	if !ok || !current.Equal(expiry) {
		return false
	}
	delete(r.entries, username)
	return true
}

// Expiry returns the recorded expiry for username
func (r *MuteRegistry) Expiry(username string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiry, ok := r.entries[username]
	return expiry, ok
}

// IsMuted reports whether username has an entry
func (r *MuteRegistry) IsMuted(username string) bool {
	_, ok := r.Expiry(username)
	return ok
}

// Len returns the number of entries
func (r *MuteRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
