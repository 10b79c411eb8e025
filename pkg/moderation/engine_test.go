package moderation

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostneek/FrostChat/pkg/audit"
	"github.com/frostneek/FrostChat/pkg/authentication"
	"github.com/frostneek/FrostChat/pkg/authorization"
	"github.com/frostneek/FrostChat/pkg/filter"
	"github.com/frostneek/FrostChat/pkg/transport"
	"github.com/frostneek/FrostChat/pkg/users"
)

// manualScheduler runs scheduled callbacks only when the test fires them
type manualScheduler struct {
	tasks []scheduled
}

type scheduled struct {
	d  time.Duration
	fn func()
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) {
	s.tasks = append(s.tasks, scheduled{d: d, fn: fn})
}

func (s *manualScheduler) fire(i int) {
	s.tasks[i].fn()
}

type fixture struct {
	engine    *Engine
	store     *users.Store
	source    *users.MemorySource
	channel   *transport.MemoryChannel
	fs        afero.Fs
	scheduler *manualScheduler
	now       time.Time
}

var (
	owner = Actor{Username: "olga", Role: authorization.Owner}
	admin = Actor{Username: "alice", Role: authorization.Admin}
	mod   = Actor{Username: "mo", Role: authorization.Moderator}
	user  = Actor{Username: "bob", Role: authorization.User}
)

// darn is the only word the test filter knows
var censorDarn = filter.Func(func(s string) string {
	return strings.ReplaceAll(s, "darn", "****")
})

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		source: users.NewMemorySource(
			users.Account{Username: "olga", Password: "x", Role: authorization.Owner},
			users.Account{Username: "alice", Password: "x", Role: authorization.Admin},
			users.Account{Username: "mo", Password: "x", Role: authorization.Moderator},
			users.Account{Username: "bob", Password: "x", Role: authorization.User},
			users.Account{Username: "carol", Password: "x", Role: authorization.Trial},
		),
		channel:   transport.NewMemoryChannel("alice", "bob", "mo", "ghost"),
		fs:        afero.NewMemMapFs(),
		scheduler: &manualScheduler{},
		now:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.store = users.NewStore(f.source, nil)
	require.NoError(t, f.store.Load())

	clock := func() time.Time { return f.now }
	log := audit.New(f.fs, audit.Config{}, nil)
	log.SetClock(clock)

	ids := 0
	f.engine = NewEngine(Options{
		Store:     f.store,
		Channel:   f.channel,
		Audit:     log,
		Hasher:    authentication.NewArgon2idVerifierWithParams(64, 1, 1),
		Filter:    censorDarn,
		Scheduler: f.scheduler,
		Clock:     clock,
		NewID: func() string {
			ids++
			return "id-" + strconv.Itoa(ids)
		},
	})
	return f
}

func (f *fixture) auditLines(t *testing.T, path string) []string {
	t.Helper()
	if ok, _ := afero.Exists(f.fs, path); !ok {
		return nil
	}
	data, err := afero.ReadFile(f.fs, path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestSendChat(t *testing.T) {
	t.Run("clean text is broadcast without an audit entry", func(t *testing.T) {
		f := newFixture(t)
		msg, err := f.engine.SendChat(user, "hello all")
		require.NoError(t, err)

		assert.Equal(t, transport.ChatMessage{ID: "id-1", Username: "bob", Role: "User", Text: "hello all"}, msg)
		assert.Equal(t, msg, f.channel.Named(transport.EventMessage)[0].Payload)
		assert.Empty(t, f.auditLines(t, audit.DefaultProfanityPath))
	})

	t.Run("filtered text is broadcast and the original audited", func(t *testing.T) {
		f := newFixture(t)
		msg, err := f.engine.SendChat(user, "darn it")
		require.NoError(t, err)

		assert.Equal(t, "**** it", msg.Text)
		lines := f.auditLines(t, audit.DefaultProfanityPath)
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "User bob sent a message on 2024-05-01T12:00:00Z: darn it")
	})

	t.Run("empty text", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.SendChat(user, "   ")
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.Empty(t, f.channel.Emitted())
	})

	t.Run("emit failure is returned", func(t *testing.T) {
		f := newFixture(t)
		f.channel.FailNextEmit(transport.ErrClosed)
		_, err := f.engine.SendChat(user, "hi")
		assert.ErrorIs(t, err, transport.ErrClosed)
	})
}

func TestKick(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.engine.Kick(user, "carol"), ErrPermissionDenied)
	assert.ErrorIs(t, f.engine.Kick(mod, "mo"), ErrSelfTarget)
	assert.ErrorIs(t, f.engine.Kick(mod, "nobody"), ErrTargetNotFound)

	require.NoError(t, f.engine.Kick(mod, "bob"))
	kicks := f.channel.Named(transport.EventKick)
	require.Len(t, kicks, 1)
	assert.Equal(t, transport.Kick{Target: "bob", By: "mo"}, kicks[0].Payload)

	lines := f.auditLines(t, audit.DefaultPromotionsPath)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], " - mo kicked bob"))
}

func TestMute(t *testing.T) {
	t.Run("expires after the duration", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.engine.Mute(mod, "bob", 30))

		expiry, ok := f.engine.Mutes().Expiry("bob")
		require.True(t, ok)
		assert.Equal(t, f.now.Add(30*time.Second), expiry)
		require.Len(t, f.scheduler.tasks, 1)
		assert.Equal(t, 30*time.Second, f.scheduler.tasks[0].d)
		assert.Equal(t, transport.Mute{Target: "bob", Duration: 30}, f.channel.Named(transport.EventMute)[0].Payload)

		f.scheduler.fire(0)
		assert.False(t, f.engine.Mutes().IsMuted("bob"))
	})

	t.Run("unmute before expiry", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.engine.Mute(mod, "bob", 30))
		require.NoError(t, f.engine.Unmute(mod, "bob"))
		assert.False(t, f.engine.Mutes().IsMuted("bob"))
		assert.Len(t, f.channel.Named(transport.EventUnmute), 1)

		f.scheduler.fire(0)
		assert.Equal(t, 0, f.engine.Mutes().Len())
	})

	t.Run("stale timer leaves a newer mute alone", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.engine.Mute(mod, "bob", 30))
		f.now = f.now.Add(10 * time.Second)
		require.NoError(t, f.engine.Mute(mod, "bob", 60))

		f.scheduler.fire(0)
		assert.True(t, f.engine.Mutes().IsMuted("bob"))
		f.scheduler.fire(1)
		assert.False(t, f.engine.Mutes().IsMuted("bob"))
	})

	t.Run("preconditions", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.engine.Mute(user, "carol", 10), ErrPermissionDenied)
		assert.ErrorIs(t, f.engine.Mute(mod, "bob", 0), ErrInvalidDuration)
		assert.ErrorIs(t, f.engine.Mute(mod, "nobody", 10), ErrTargetNotFound)
		assert.ErrorIs(t, f.engine.Mute(mod, "mo", 10), ErrSelfTarget)
		assert.ErrorIs(t, f.engine.Mute(mod, "carol", 10), ErrNotConnected)
		assert.Equal(t, 0, f.engine.Mutes().Len())
		assert.Empty(t, f.channel.Emitted())
	})

	t.Run("unmute a user who is not muted", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.engine.Unmute(mod, "bob"), ErrNotMuted)
		assert.ErrorIs(t, f.engine.Unmute(mod, "nobody"), ErrTargetNotFound)
		assert.ErrorIs(t, f.engine.Unmute(user, "bob"), ErrPermissionDenied)
	})
}

func TestWhisper(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.engine.Whisper(user, "alice", "psst over here"))
	assert.Equal(t, transport.Whisper{To: "alice", From: "bob", Message: "psst over here"},
		f.channel.Named(transport.EventWhisper)[0].Payload)
	assert.Len(t, f.auditLines(t, audit.DefaultPromotionsPath), 1)

	assert.ErrorIs(t, f.engine.Whisper(user, "carol", "hi"), ErrNotConnected)
	assert.ErrorIs(t, f.engine.Whisper(user, "ghost", "hi"), ErrTargetNotFound)
	assert.ErrorIs(t, f.engine.Whisper(user, "alice", " "), ErrEmptyMessage)
	assert.ErrorIs(t, f.engine.Whisper(Actor{Username: "x", Role: "Guest"}, "alice", "hi"), ErrPermissionDenied)
}

func TestChangeRole(t *testing.T) {
	t.Run("promote persists, broadcasts and audits", func(t *testing.T) {
		f := newFixture(t)
		saves := f.source.Saves()

		old, err := f.engine.Promote(admin, "bob", "Moderator")
		require.NoError(t, err)
		assert.Equal(t, authorization.User, old)

		acct, _ := f.store.FindByUsername("bob")
		assert.Equal(t, authorization.Moderator, acct.Role)
		assert.Equal(t, saves+1, f.source.Saves())

		updates := f.channel.Named(transport.EventUpdateUsers)
		require.Len(t, updates, 1)
		list := updates[0].Payload.([]transport.UserEntry)
		assert.Contains(t, list, transport.UserEntry{Username: "bob", Role: "Moderator"})
		assert.Len(t, list, 5)

		lines := f.auditLines(t, audit.DefaultPromotionsPath)
		require.Len(t, lines, 1)
		assert.True(t, strings.HasSuffix(lines[0], " - alice promoted bob from User to Moderator"))
	})

	t.Run("demote has no direction check", func(t *testing.T) {
		f := newFixture(t)
		old, err := f.engine.Demote(admin, "carol", "Head")
		require.NoError(t, err)
		assert.Equal(t, authorization.Trial, old)

		lines := f.auditLines(t, audit.DefaultPromotionsPath)
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "alice demoted carol from Trial to Head")
	})

	t.Run("self target is refused at every rank", func(t *testing.T) {
		f := newFixture(t)
		for _, actor := range []Actor{owner, admin} {
			_, err := f.engine.Promote(actor, actor.Username, "Owner")
			assert.ErrorIs(t, err, ErrSelfTarget)
			_, err = f.engine.Demote(actor, actor.Username, "User")
			assert.ErrorIs(t, err, ErrSelfTarget)
		}
		_, err := f.engine.Promote(user, "bob", "Owner")
		assert.Error(t, err)
		assert.Empty(t, f.channel.Emitted())
	})

	t.Run("invalid role and missing target", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.Promote(admin, "bob", "moderator")
		assert.ErrorIs(t, err, ErrInvalidRole)
		_, err = f.engine.Promote(admin, "nobody", "Moderator")
		assert.ErrorIs(t, err, ErrTargetNotFound)
	})

	t.Run("storage failure leaves the role unchanged", func(t *testing.T) {
		f := newFixture(t)
		f.source.FailNextSave(errors.New("disk full"))
		_, err := f.engine.Promote(admin, "bob", "Moderator")
		assert.ErrorIs(t, err, users.ErrStorageWrite)

		acct, _ := f.store.FindByUsername("bob")
		assert.Equal(t, authorization.User, acct.Role)
		assert.Empty(t, f.auditLines(t, audit.DefaultPromotionsPath))
	})
}

func TestAccounts(t *testing.T) {
	t.Run("create with default role", func(t *testing.T) {
		f := newFixture(t)
		role, err := f.engine.CreateAccount(admin, "dave", "pw2", "")
		require.NoError(t, err)
		assert.Equal(t, authorization.User, role)

		acct, ok := f.store.FindByUsername("dave")
		require.True(t, ok)
		assert.NotEqual(t, "pw2", acct.Password)
	})

	t.Run("create with explicit role", func(t *testing.T) {
		f := newFixture(t)
		role, err := f.engine.CreateAccount(admin, "dave", "pw2", "Trial")
		require.NoError(t, err)
		assert.Equal(t, authorization.Trial, role)

		role, err = f.engine.CreateAccount(admin, "erin", "pw2", "TRIAL")
		require.NoError(t, err)
		assert.Equal(t, authorization.User, role)
	})

	t.Run("create refused", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.CreateAccount(mod, "dave", "pw2", "")
		assert.ErrorIs(t, err, ErrPermissionDenied)
		_, err = f.engine.CreateAccount(admin, "bob", "pw2", "")
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.engine.DeleteAccount(mod, "bob"), ErrPermissionDenied)
		assert.ErrorIs(t, f.engine.DeleteAccount(admin, "nobody"), ErrTargetNotFound)
		require.NoError(t, f.engine.DeleteAccount(admin, "bob"))
		assert.False(t, f.store.Exists("bob"))
	})
}

func TestReport(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.engine.Report(user, "carol", "spamming links"))
	lines := f.auditLines(t, audit.DefaultProfanityPath)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "bob reported carol: spamming links")
	assert.Equal(t, transport.Report{Target: "carol", By: "bob", Reason: "spamming links"},
		f.channel.Named(transport.EventReport)[0].Payload)

	assert.ErrorIs(t, f.engine.Report(user, "nobody", "x"), ErrTargetNotFound)
	assert.ErrorIs(t, f.engine.Report(user, "carol", ""), ErrEmptyMessage)
}

func TestListOnline(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []users.Public{
		{Username: "alice", Role: authorization.Admin},
		{Username: "bob", Role: authorization.User},
		{Username: "mo", Role: authorization.Moderator},
		{Username: "ghost", Role: authorization.User},
	}, f.engine.ListOnline())
}

func TestSelfMute(t *testing.T) {
	f := newFixture(t)

	f.engine.ApplySelfMute(20)
	assert.True(t, f.engine.SelfMuted())
	assert.Equal(t, 20*time.Second, f.engine.SelfMuteRemaining())
	_, err := f.engine.SendChat(user, "hello")
	assert.ErrorIs(t, err, ErrMuted)

	f.scheduler.fire(0)
	assert.False(t, f.engine.SelfMuted())

	f.engine.ApplySelfMute(20)
	f.engine.ClearSelfMute()
	_, err = f.engine.SendChat(user, "hello")
	assert.NoError(t, err)
}

func TestAuditFailure(t *testing.T) {
	f := newFixture(t)
	var reported []error
	f.engine.audit = audit.New(afero.NewReadOnlyFs(afero.NewMemMapFs()), audit.Config{}, nil)
	f.engine.SetAuditErrorHandler(func(err error) { reported = append(reported, err) })

	require.NoError(t, f.engine.Kick(mod, "bob"), "the kick itself still succeeds")
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], audit.ErrWriteFailed)
}

func TestMuteRegistry(t *testing.T) {
	r := NewMuteRegistry()
	at := time.Unix(100, 0)

	r.Set("bob", at)
	assert.False(t, r.Expire("bob", at.Add(time.Second)))
	assert.True(t, r.Expire("bob", at))
	assert.False(t, r.Expire("bob", at))
	assert.False(t, r.Remove("bob"))
}
