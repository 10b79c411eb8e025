package audit

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies an audit entry and decides which file it lands in
type Category string

const (
	Promotion Category = "promotion"
	Demotion  Category = "demotion"
	Profanity Category = "profanity"
	Report    Category = "report"
	Kick      Category = "kick"
	Mute      Category = "mute"
	Whisper   Category = "whisper"
)

// Policy decides which categories are written
type Policy string

const (
	// PolicyLegacy writes every category, matching the historical log files
	PolicyLegacy Policy = "legacy"
	// PolicyCategory writes moderation and content incidents only; mute and
	// whisper entries are dropped
	PolicyCategory Policy = "category"
)

// ParsePolicy validates a configured policy name. Empty means legacy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(s)); p {
	case "":
		return PolicyLegacy, nil
	case PolicyLegacy, PolicyCategory:
		return p, nil
	default:
		return "", fmt.Errorf("unknown audit policy %q", s)
	}
}

// Allows reports whether entries of category c are written under p
func (p Policy) Allows(c Category) bool {
	if p != PolicyCategory {
		return true
	}
	switch c {
	case Mute, Whisper:
		return false
	}
	return true
}

// ErrWriteFailed is returned when an entry could not be appended
var ErrWriteFailed = errors.New("audit log write failed")

// Config holds the two log file paths
type Config struct {
	ProfanityPath  string
	PromotionsPath string
	Policy         Policy
}

const (
	DefaultProfanityPath  = "logs/profanity-reports.txt"
	DefaultPromotionsPath = "logs/promotions-demotions.txt"
)
