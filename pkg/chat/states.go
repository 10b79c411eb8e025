package chat

import (
	"errors"
	"strings"

	"github.com/frostneek/FrostChat/pkg/commands"
	"github.com/frostneek/FrostChat/pkg/session"
)

type state int

const (
	waitingConnect state = iota
	chooseMode
	loginUsername
	loginPassword
	offerSignup
	signupUsername
	signupPassword
	chatting
)

var stateNames = [...]string{
	waitingConnect: "waiting_connect",
	chooseMode:     "choose_mode",
	loginUsername:  "login_username",
	loginPassword:  "login_password",
	offerSignup:    "offer_signup",
	signupUsername: "signup_username",
	signupPassword: "signup_password",
	chatting:       "chatting",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

const (
	promptMode           = "Would you like to signup or login? (signup/login) "
	promptUsername       = "Enter your username: "
	promptPassword       = "Enter your password: "
	promptOfferSignup    = "Do you want to create a new account? (yes/no) "
	promptNewUsername    = "Enter your new username: "
	promptNewPassword    = "Enter your new password: "
	promptChat           = "» "
	messageChatCleared   = "Chat Cleared"
	messageTooFast       = "You are sending messages too quickly. Slow down."
	messageInvalidMode   = "Invalid input. Please enter 'signup' or 'login'."
	messageUsernameTaken = "Username already exists. Please choose a different username."
)

// enter switches state and asks the prompt that belongs to it
func (c *Client) enter(s state) {
	c.logger.Debug("State change", "from", c.state, "to", s)
	c.state = s

	switch s {
	case chooseMode:
		c.ask(promptMode, false)
	case loginUsername:
		c.display.Info("Please Login")
		c.ask(promptUsername, false)
	case loginPassword:
		c.ask(promptPassword, true)
	case offerSignup:
		c.ask(promptOfferSignup, false)
	case signupUsername:
		c.ask(promptNewUsername, false)
	case signupPassword:
		c.ask(promptNewPassword, true)
	case chatting:
		c.ask(promptChat, false)
	}
}

// step handles the answer to the prompt of the current state
func (c *Client) step(text string) {
	switch c.state {
	case chooseMode:
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "signup":
			c.enter(signupUsername)
		case "login":
			c.enter(loginUsername)
		default:
			c.display.Clear()
			c.display.Warn(messageInvalidMode)
			c.enter(chooseMode)
		}

	case loginUsername:
		c.username = strings.TrimSpace(text)
		c.enter(loginPassword)

	case loginPassword:
		username := c.username
		c.username = ""
		if err := c.session.Login(username, text); err != nil {
			c.display.Clear()
			c.display.Warn(commands.Describe(err))
			if errors.Is(err, session.ErrAuthFailed) {
				c.enter(offerSignup)
			} else {
				c.enter(chooseMode)
			}
			return
		}
		c.display.Clear()
		c.display.Success("Login successful!")
		c.enter(chatting)

	case offerSignup:
		if strings.EqualFold(strings.TrimSpace(text), "yes") {
			c.enter(signupUsername)
		} else {
			c.enter(loginUsername)
		}

	case signupUsername:
		c.username = strings.TrimSpace(text)
		c.enter(signupPassword)

	case signupPassword:
		username := c.username
		c.username = ""
		if err := c.session.Signup(username, text); err != nil {
			if errors.Is(err, session.ErrUsernameTaken) {
				c.display.Warn(messageUsernameTaken)
			} else {
				c.display.Warn(commands.Describe(err))
			}
			c.enter(signupUsername)
			return
		}
		c.display.Clear()
		c.display.Success("Account created successfully!")
		c.enter(chatting)

	case chatting:
		c.chat(text)

	default:
		c.logger.Warn("Input in a state without a prompt", "state", c.state)
	}
}

func (c *Client) chat(line string) {
	if strings.TrimSpace(line) == "" {
		c.enter(chatting)
		return
	}

	if _, isCommand := commands.Parse(line); !isCommand && c.limiter != nil && !c.limiter.Allow() {
		c.display.Warn(messageTooFast)
		c.enter(chatting)
		return
	}

	action, err := c.router.Handle(line)
	if err != nil {
		c.display.Warn(commands.Describe(err))
	}

	switch action {
	case commands.ActionClear:
		c.display.Clear()
		c.display.Warn(messageChatCleared)
		c.enter(chatting)
	case commands.ActionLogout:
		if errors.Is(err, session.ErrAccountGone) {
			username := c.session.Username()
			if lerr := c.session.Logout(); lerr != nil {
				c.logger.Debug("Logout after account deletion failed", "username", username, "error", lerr)
			} else {
				c.logger.Info("Logged out because the account was deleted", "username", username)
			}
		} else {
			c.display.Clear()
			c.display.Success("Logout successful!")
		}
		c.enter(chooseMode)
	default:
		c.enter(chatting)
	}
}
