package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/frostneek/FrostChat/pkg/authorization"
	"github.com/frostneek/FrostChat/pkg/logging"
	"github.com/frostneek/FrostChat/pkg/moderation"
	"github.com/frostneek/FrostChat/pkg/session"
	"github.com/frostneek/FrostChat/pkg/transport"
)

// Action tells the caller what to do after a line was handled
type Action int

const (
	ActionNone Action = iota
	ActionClear
	ActionLogout
)

// Output receives the results the router shows to the user
type Output interface {
	Info(msg string)
	Success(msg string)
	Warn(msg string)
	Chat(username string, role authorization.Role, text string)
	List(title string, items []string)
}

type handler func(r *Router, actor moderation.Actor, cmd Command) (Action, error)

type definition struct {
	name    string
	aliases []string
	minRole authorization.Role // empty means any logged in user
	minArgs int
	usage   string
	summary string
	run     handler
}

// Router dispatches input lines for the logged in user
type Router struct {
	engine  *moderation.Engine
	session *session.Session
	out     Output
	onSent  func(transport.ChatMessage)

	table  []*definition
	byName map[string]*definition
}

// NewRouter creates a Router with the full command table
func NewRouter(engine *moderation.Engine, sess *session.Session, out Output) *Router {
	r := &Router{
		engine:  engine,
		session: sess,
		out:     out,
		table:   builtins(),
		byName:  make(map[string]*definition),
	}
	for _, def := range r.table {
		r.byName[def.name] = def
		for _, alias := range def.aliases {
			r.byName[alias] = def
		}
	}
	return r
}

// OnSent registers a callback for every chat message this client broadcasts
func (r *Router) OnSent(fn func(transport.ChatMessage)) {
	r.onSent = fn
}

// Handle processes one input line. Errors are for the user: pass them to
// Describe. A deleted account yields ActionLogout with the error.
func (r *Router) Handle(line string) (Action, error) {
	acct, err := r.session.Current()
	if err != nil {
		if errors.Is(err, session.ErrAccountGone) {
			return ActionLogout, err
		}
		return ActionNone, err
	}
	actor := moderation.Actor{Username: acct.Username, Role: acct.Role}

	cmd, ok := Parse(line)
	if !ok {
		return ActionNone, r.chat(actor, line)
	}

	def, ok := r.byName[cmd.Name]
	if !ok {
		logging.Access.LogCommand(cmd.Name, actor.Username, "unknown")
		return ActionNone, &UnknownCommandError{Raw: line}
	}

	if def.minRole != "" && !authorization.IsAuthorized(actor.Role, def.minRole) {
		logging.Access.LogCommand(def.name, actor.Username, "denied", "role", actor.Role)
		return ActionNone, ErrPermissionDenied
	}
	if len(cmd.Args) < def.minArgs {
		logging.Access.LogCommand(def.name, actor.Username, "usage")
		return ActionNone, &UsageError{Command: def.name, Usage: def.usage}
	}

	action, err := def.run(r, actor, cmd)
	if err != nil {
		logging.Access.LogCommand(def.name, actor.Username, "failed", "error", err)
		return action, err
	}
	logging.Access.LogCommand(def.name, actor.Username, "ok")
	return action, nil
}

func (r *Router) chat(actor moderation.Actor, line string) error {
	msg, err := r.engine.SendChat(actor, line)
	if err != nil {
		return err
	}
	r.out.Chat("You", actor.Role, msg.Text)
	if r.onSent != nil {
		r.onSent(msg)
	}
	return nil
}

func fail(cmd, target string, err error) error {
	return &ActionError{Command: cmd, Target: target, Err: err}
}

func builtins() []*definition {
	return []*definition{
		{name: "help", aliases: []string{"?"}, usage: "/help", summary: "Display this help message", run: (*Router).help},
		{name: "clear", usage: "/clear", summary: "Clear the screen", run: (*Router).clear},
		{name: "logout", usage: "/logout", summary: "Log out of the chat", run: (*Router).logout},
		{name: "kick", minRole: authorization.Admin, minArgs: 1, usage: "/kick <username>", summary: "Kick a user", run: (*Router).kick},
		{name: "list", aliases: []string{"online"}, usage: "/list", summary: "Display online users", run: (*Router).list},
		{name: "whisper", aliases: []string{"w", "msg"}, minArgs: 2, usage: "/whisper <username> <message>", summary: "Send a private message", run: (*Router).whisper},
		{name: "promote", minRole: authorization.Admin, minArgs: 2, usage: "/promote <username> <role>", summary: "Set a user's role", run: (*Router).promote},
		{name: "demote", minRole: authorization.Admin, minArgs: 2, usage: "/demote <username> <role>", summary: "Set a user's role", run: (*Router).demote},
		{name: "report", minArgs: 2, usage: "/report <username> <reason>", summary: "Report a user to the moderators", run: (*Router).report},
		{name: "mute", minArgs: 2, usage: "/mute <username> <seconds>", summary: "Mute a user (Moderator+ only)", run: (*Router).mute},
		{name: "unmute", minArgs: 1, usage: "/unmute <username>", summary: "Unmute a user (Moderator+ only)", run: (*Router).unmute},
		{name: "delacc", minRole: authorization.Admin, minArgs: 1, usage: "/delacc <username>", summary: "Delete an account", run: (*Router).deleteAccount},
		{name: "newacc", minRole: authorization.Admin, minArgs: 2, usage: "/newacc <username> <password> [role]", summary: "Create an account", run: (*Router).newAccount},
	}
}

func (r *Router) help(_ moderation.Actor, _ Command) (Action, error) {
	lines := make([]string, 0, len(r.table))
	for _, def := range r.table {
		line := fmt.Sprintf("%s - %s", def.usage, def.summary)
		if len(def.aliases) > 0 {
			line += fmt.Sprintf(" (aliases: /%s)", strings.Join(def.aliases, ", /"))
		}
		if def.minRole != "" {
			line += fmt.Sprintf(" (%s+ only)", def.minRole)
		}
		lines = append(lines, line)
	}
	r.out.List("Available Commands:", lines)
	r.out.List("Available Roles:", []string{strings.Join(authorization.Names(), ", ")})
	return ActionNone, nil
}

func (r *Router) clear(_ moderation.Actor, _ Command) (Action, error) {
	return ActionClear, nil
}

func (r *Router) logout(_ moderation.Actor, _ Command) (Action, error) {
	if err := r.session.Logout(); err != nil {
		return ActionNone, err
	}
	return ActionLogout, nil
}

func (r *Router) kick(actor moderation.Actor, cmd Command) (Action, error) {
	target := cmd.Arg(0)
	if err := r.engine.Kick(actor, target); err != nil {
		return ActionNone, fail("kick", target, err)
	}
	r.out.Success(fmt.Sprintf("User %s has been kicked.", target))
	return ActionNone, nil
}

func (r *Router) list(_ moderation.Actor, _ Command) (Action, error) {
	online := r.engine.ListOnline()
	items := make([]string, len(online))
	for i, u := range online {
		items[i] = fmt.Sprintf("%s - %s", u.Username, u.Role)
	}
	r.out.List("Online Users:", items)
	return ActionNone, nil
}

func (r *Router) whisper(actor moderation.Actor, cmd Command) (Action, error) {
	target := cmd.Arg(0)
	if err := r.engine.Whisper(actor, target, cmd.Rest(1)); err != nil {
		return ActionNone, fail("whisper to", target, err)
	}
	r.out.Info(fmt.Sprintf("You whispered to %s: %s", target, cmd.Rest(1)))
	return ActionNone, nil
}

func (r *Router) promote(actor moderation.Actor, cmd Command) (Action, error) {
	target, role := cmd.Arg(0), cmd.Arg(1)
	if _, err := r.engine.Promote(actor, target, role); err != nil {
		return ActionNone, fail("promote", target, err)
	}
	r.out.Success(fmt.Sprintf("User %s has been promoted to %s.", target, role))
	return ActionNone, nil
}

func (r *Router) demote(actor moderation.Actor, cmd Command) (Action, error) {
	target, role := cmd.Arg(0), cmd.Arg(1)
	if _, err := r.engine.Demote(actor, target, role); err != nil {
		return ActionNone, fail("demote", target, err)
	}
	r.out.Success(fmt.Sprintf("User %s has been demoted to %s.", target, role))
	return ActionNone, nil
}

func (r *Router) report(actor moderation.Actor, cmd Command) (Action, error) {
	target := cmd.Arg(0)
	if err := r.engine.Report(actor, target, cmd.Rest(1)); err != nil {
		return ActionNone, fail("report", target, err)
	}
	r.out.Success(fmt.Sprintf("Your report about %s has been filed.", target))
	return ActionNone, nil
}

func (r *Router) mute(actor moderation.Actor, cmd Command) (Action, error) {
	target := cmd.Arg(0)
	seconds, err := strconv.Atoi(cmd.Arg(1))
	if err != nil {
		return ActionNone, fail("mute", target, moderation.ErrInvalidDuration)
	}
	if err := r.engine.Mute(actor, target, seconds); err != nil {
		return ActionNone, fail("mute", target, err)
	}
	r.out.Success(fmt.Sprintf("User %s has been muted for %d seconds.", target, seconds))
	return ActionNone, nil
}

func (r *Router) unmute(actor moderation.Actor, cmd Command) (Action, error) {
	target := cmd.Arg(0)
	if err := r.engine.Unmute(actor, target); err != nil {
		return ActionNone, fail("unmute", target, err)
	}
	r.out.Success(fmt.Sprintf("User %s has been unmuted.", target))
	return ActionNone, nil
}

func (r *Router) deleteAccount(actor moderation.Actor, cmd Command) (Action, error) {
	target := cmd.Arg(0)
	if err := r.engine.DeleteAccount(actor, target); err != nil {
		return ActionNone, fail("delete", target, err)
	}
	r.out.Success(fmt.Sprintf("User %s has been deleted successfully.", target))
	return ActionNone, nil
}

func (r *Router) newAccount(actor moderation.Actor, cmd Command) (Action, error) {
	username := cmd.Arg(0)
	role, err := r.engine.CreateAccount(actor, username, cmd.Arg(1), cmd.Arg(2))
	if err != nil {
		return ActionNone, fail("create", username, err)
	}
	r.out.Success(fmt.Sprintf("User %s has been created successfully with role %s.", username, role))
	return ActionNone, nil
}
