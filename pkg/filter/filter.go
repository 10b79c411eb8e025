package filter

import (
	"strings"

	goaway "github.com/TwiN/go-away"
)

// Filter cleans outgoing chat text. Implementations must be pure.
type Filter interface {
	Clean(text string) string
}

// Func adapts a plain function to Filter
type Func func(string) string

// Clean implements Filter
func (f Func) Clean(text string) string {
	return f(text)
}

// Identity leaves text untouched
var Identity Filter = Func(func(s string) string { return s })

// ProfanityFilter censors profane words with asterisks
type ProfanityFilter struct {
	detector *goaway.ProfanityDetector
}

// NewProfanityFilter returns a filter over the default dictionary plus
// extra, matched case-insensitively
func NewProfanityFilter(extra ...string) *ProfanityFilter {
	detector := goaway.NewProfanityDetector()
	if words := normalize(extra); len(words) > 0 {
		profanities := append(append([]string(nil), goaway.DefaultProfanities...), words...)
		detector = detector.WithCustomDictionary(profanities, goaway.DefaultFalsePositives, goaway.DefaultFalseNegatives)
	}
	return &ProfanityFilter{detector: detector}
}

func normalize(words []string) []string {
	var out []string
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Clean implements Filter
func (f *ProfanityFilter) Clean(text string) string {
	return f.detector.Censor(text)
}

// IsProfane reports whether text would be changed by Clean
func (f *ProfanityFilter) IsProfane(text string) bool {
	return f.detector.IsProfane(text)
}
