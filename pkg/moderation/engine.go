package moderation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	golog "github.com/fclairamb/go-log"
	"github.com/google/uuid"

	"github.com/frostneek/FrostChat/pkg/audit"
	"github.com/frostneek/FrostChat/pkg/authentication"
	"github.com/frostneek/FrostChat/pkg/authorization"
	"github.com/frostneek/FrostChat/pkg/filter"
	"github.com/frostneek/FrostChat/pkg/logging"
	"github.com/frostneek/FrostChat/pkg/transport"
	"github.com/frostneek/FrostChat/pkg/users"
)

// Actor is the user performing an action, resolved from the store per command
type Actor struct {
	Username string
	Role     authorization.Role
}

// Options wires an Engine to its collaborators. Store, Channel, Audit and
// Hasher are required.
type Options struct {
	Store     *users.Store
	Channel   transport.Channel
	Audit     *audit.Log
	Hasher    authentication.PasswordHasher
	Filter    filter.Filter // nil leaves chat text untouched
	Scheduler Scheduler     // nil uses time.AfterFunc
	Clock     func() time.Time
	NewID     func() string
	Logger    golog.Logger

	// OnAuditError is called when an action succeeded but its audit entry
	// could not be written
	OnAuditError func(error)
}

// Engine performs chat and moderation actions: it validates, mutates the
// account set or mute registry, emits on the channel and writes audit entries.
type Engine struct {
	store     *users.Store
	channel   transport.Channel
	audit     *audit.Log
	hasher    authentication.PasswordHasher
	filter    filter.Filter
	scheduler Scheduler
	now       func() time.Time
	newID     func() string
	logger    golog.Logger
	onAudit   func(error)

	mutes *MuteRegistry

	mu         sync.Mutex
	selfExpiry time.Time
}

// NewEngine creates an Engine
func NewEngine(opts Options) *Engine {
	e := &Engine{
		store:     opts.Store,
		channel:   opts.Channel,
		audit:     opts.Audit,
		hasher:    opts.Hasher,
		filter:    opts.Filter,
		scheduler: opts.Scheduler,
		now:       opts.Clock,
		newID:     opts.NewID,
		logger:    logging.Or(opts.Logger).With("component", "moderation"),
		onAudit:   opts.OnAuditError,
		mutes:     NewMuteRegistry(),
	}
	if e.filter == nil {
		e.filter = filter.Identity
	}
	if e.scheduler == nil {
		e.scheduler = TimerScheduler
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

// Mutes exposes the registry of users this client muted
func (e *Engine) Mutes() *MuteRegistry {
	return e.mutes
}

// SetAuditErrorHandler replaces the OnAuditError callback
func (e *Engine) SetAuditErrorHandler(fn func(error)) {
	e.onAudit = fn
}

func (e *Engine) record(c audit.Category, message string) {
	if err := e.audit.Append(c, message); err != nil && e.onAudit != nil {
		e.onAudit(err)
	}
}

func authorize(actor Actor, role authorization.Role) error {
	if !authorization.IsAuthorized(actor.Role, role) {
		return ErrPermissionDenied
	}
	return nil
}

// SendChat filters text, audits the original when the filter changed it,
// and broadcasts the cleaned message
func (e *Engine) SendChat(actor Actor, text string) (transport.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return transport.ChatMessage{}, ErrEmptyMessage
	}
	if e.SelfMuted() {
		return transport.ChatMessage{}, ErrMuted
	}

	cleaned := e.filter.Clean(text)
	if cleaned != text {
		e.record(audit.Profanity, fmt.Sprintf("User %s sent a message on %s: %s",
			actor.Username, e.now().UTC().Format(time.RFC3339), text))
	}

	msg := transport.ChatMessage{
		ID:       e.newID(),
		Username: actor.Username,
		Role:     string(actor.Role),
		Text:     cleaned,
	}
	if err := e.channel.Emit(transport.EventMessage, msg); err != nil {
		return msg, fmt.Errorf("sending message: %w", err)
	}
	return msg, nil
}

// Kick asks the server to disconnect target.
//
// The router requires Admin for /kick before this runs, so the Moderator
// check below only applies to direct callers.
func (e *Engine) Kick(actor Actor, target string) error {
	if err := authorize(actor, authorization.Moderator); err != nil {
		return err
	}
	if target == actor.Username {
		return ErrSelfTarget
	}
	if !e.store.Exists(target) {
		return ErrTargetNotFound
	}

	if err := e.channel.Emit(transport.EventKick, transport.Kick{Target: target, By: actor.Username}); err != nil {
		return fmt.Errorf("kicking %s: %w", target, err)
	}
	e.record(audit.Kick, fmt.Sprintf("%s kicked %s", actor.Username, target))
	return nil
}

// Mute silences target for seconds and schedules the automatic unmute
func (e *Engine) Mute(actor Actor, target string, seconds int) error {
	if err := authorize(actor, authorization.Moderator); err != nil {
		return err
	}
	if seconds <= 0 {
		return ErrInvalidDuration
	}
	if !e.store.Exists(target) {
		return ErrTargetNotFound
	}
	if target == actor.Username {
		return ErrSelfTarget
	}
	if !e.channel.IsOnline(target) {
		return ErrNotConnected
	}

	if err := e.channel.Emit(transport.EventMute, transport.Mute{Target: target, Duration: seconds}); err != nil {
		return fmt.Errorf("muting %s: %w", target, err)
	}

	duration := time.Duration(seconds) * time.Second
	expiry := e.now().Add(duration)
	e.mutes.Set(target, expiry)
	e.scheduler.Schedule(duration, func() {
		if e.mutes.Expire(target, expiry) {
			e.logger.Info("Mute expired", "username", target)
		}
	})

	e.record(audit.Mute, fmt.Sprintf("%s muted %s for %d seconds", actor.Username, target, seconds))
	return nil
}

// Unmute lifts a mute this client placed
func (e *Engine) Unmute(actor Actor, target string) error {
	if err := authorize(actor, authorization.Moderator); err != nil {
		return err
	}
	if !e.store.Exists(target) {
		return ErrTargetNotFound
	}
	if !e.mutes.Remove(target) {
		return ErrNotMuted
	}

	if err := e.channel.Emit(transport.EventUnmute, transport.Unmute{Target: target}); err != nil {
		return fmt.Errorf("unmuting %s: %w", target, err)
	}
	e.record(audit.Mute, fmt.Sprintf("%s unmuted %s", actor.Username, target))
	return nil
}

// Whisper delivers a private message to one connected user
func (e *Engine) Whisper(actor Actor, target, message string) error {
	if err := authorize(actor, authorization.User); err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	if !e.store.Exists(target) {
		return ErrTargetNotFound
	}
	if !e.channel.IsOnline(target) {
		return ErrNotConnected
	}

	w := transport.Whisper{To: target, From: actor.Username, Message: message}
	if err := e.channel.Emit(transport.EventWhisper, w); err != nil {
		return fmt.Errorf("whispering to %s: %w", target, err)
	}
	e.record(audit.Whisper, fmt.Sprintf("%s whispered to %s: %s", actor.Username, target, message))
	return nil
}

// Promote assigns role to target. It returns the previous role.
func (e *Engine) Promote(actor Actor, target, role string) (authorization.Role, error) {
	return e.changeRole(actor, target, role, audit.Promotion, "promoted")
}

// Demote assigns role to target. Like Promote it does not check the
// direction of the change.
func (e *Engine) Demote(actor Actor, target, role string) (authorization.Role, error) {
	return e.changeRole(actor, target, role, audit.Demotion, "demoted")
}

func (e *Engine) changeRole(actor Actor, target, role string, c audit.Category, verb string) (authorization.Role, error) {
	if err := authorize(actor, authorization.Admin); err != nil {
		return "", err
	}
	if !authorization.IsValid(role) {
		return "", ErrInvalidRole
	}
	if !e.store.Exists(target) {
		return "", ErrTargetNotFound
	}
	if target == actor.Username {
		return "", ErrSelfTarget
	}

	newRole := authorization.Role(role)
	old, err := e.store.SetRole(target, newRole)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return "", ErrTargetNotFound
		}
		return "", err
	}

	if err := e.channel.Emit(transport.EventUpdateUsers, e.userList()); err != nil {
		e.logger.Warn("Failed to broadcast user list", "error", err)
	}
	e.record(c, fmt.Sprintf("%s %s %s from %s to %s", actor.Username, verb, target, old, newRole))
	return old, nil
}

func (e *Engine) userList() []transport.UserEntry {
	list := e.store.PublicList()
	out := make([]transport.UserEntry, len(list))
	for i, p := range list {
		out[i] = transport.UserEntry{Username: p.Username, Role: string(p.Role)}
	}
	return out
}

// CreateAccount adds an account on behalf of an admin. Unknown role names
// fall back to User; the effective role is returned.
func (e *Engine) CreateAccount(actor Actor, username, password, role string) (authorization.Role, error) {
	if err := authorize(actor, authorization.Admin); err != nil {
		return "", err
	}
	if e.store.Exists(username) {
		return "", ErrUsernameTaken
	}

	effective := authorization.Default
	if authorization.IsValid(role) {
		effective = authorization.Role(role)
	}

	hash, err := e.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	if err := e.store.Add(users.Account{Username: username, Password: hash, Role: effective}); err != nil {
		return "", err
	}
	e.logger.Info("Account created", "username", username, "role", effective, "by", actor.Username)
	return effective, nil
}

// DeleteAccount removes an account on behalf of an admin
func (e *Engine) DeleteAccount(actor Actor, username string) error {
	if err := authorize(actor, authorization.Admin); err != nil {
		return err
	}
	if err := e.store.Remove(username); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return ErrTargetNotFound
		}
		return err
	}
	e.logger.Info("Account deleted", "username", username, "by", actor.Username)
	return nil
}

// Report flags target for review by moderators
func (e *Engine) Report(actor Actor, target, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrEmptyMessage
	}
	if !e.store.Exists(target) {
		return ErrTargetNotFound
	}

	e.record(audit.Report, fmt.Sprintf("%s reported %s: %s", actor.Username, target, reason))
	if err := e.channel.Emit(transport.EventReport, transport.Report{Target: target, By: actor.Username, Reason: reason}); err != nil {
		return fmt.Errorf("reporting %s: %w", target, err)
	}
	return nil
}

// ListOnline returns the connected users in channel order with their roles.
// Names missing from the store are listed as User.
func (e *Engine) ListOnline() []users.Public {
	names := e.channel.Online()
	out := make([]users.Public, 0, len(names))
	for _, name := range names {
		role := authorization.Default
		if acct, ok := e.store.FindByUsername(name); ok {
			role = acct.Role
		}
		out = append(out, users.Public{Username: name, Role: role})
	}
	return out
}

// ApplySelfMute records a mute the server placed on the local user
func (e *Engine) ApplySelfMute(seconds int) {
	if seconds <= 0 {
		return
	}
	duration := time.Duration(seconds) * time.Second
	expiry := e.now().Add(duration)

	e.mu.Lock()
	e.selfExpiry = expiry
	e.mu.Unlock()

	e.scheduler.Schedule(duration, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.selfExpiry.Equal(expiry) {
			e.selfExpiry = time.Time{}
		}
	})
}

// ClearSelfMute lifts a mute on the local user
func (e *Engine) ClearSelfMute() {
	e.mu.Lock()
	e.selfExpiry = time.Time{}
	e.mu.Unlock()
}

// SelfMuted reports whether the local user is currently muted
func (e *Engine) SelfMuted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.selfExpiry.IsZero()
}

// SelfMuteRemaining returns how long the local mute lasts
func (e *Engine) SelfMuteRemaining() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selfExpiry.IsZero() {
		return 0
	}
	if d := e.selfExpiry.Sub(e.now()); d > 0 {
		return d
	}
	return 0
}
