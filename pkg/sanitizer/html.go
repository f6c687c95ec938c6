// Package sanitizer cleans user supplied text before it is written to the
// database.
package sanitizer

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Mode selects how a value is cleaned.
type Mode string

const (
	// None keeps the value as is.
	None Mode = ""
	// Plain strips every tag and trims surrounding whitespace.
	Plain Mode = "plain"
	// RichText keeps basic formatting tags and safe links.
	RichText Mode = "richtext"
)

var (
	strictPolicy *bluemonday.Policy
	richPolicy   *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		richPolicy = bluemonday.NewPolicy()
		richPolicy.AllowStandardURLs()
		richPolicy.AllowElements(
			"p", "br", "h2", "h3",
			"strong", "b", "em", "i", "u",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
		)
		richPolicy.AllowAttrs("href").OnElements("a")
		richPolicy.RequireNoFollowOnLinks(true)
	})
}

// StripHTML removes all markup.
func StripHTML(s string) string {
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// SanitizeHTML keeps basic formatting and drops scripts, event handlers and
// javascript: URLs.
func SanitizeHTML(s string) string {
	initPolicies()
	return richPolicy.Sanitize(s)
}

// Sanitize applies mode to s.
func Sanitize(mode Mode, s string) string {
	switch mode {
	case Plain:
		return StripHTML(s)
	case RichText:
		return SanitizeHTML(s)
	default:
		return s
	}
}

// Value sanitizes v when it is a string and returns other values unchanged.
func Value(mode Mode, v any) any {
	if s, ok := v.(string); ok && mode != None {
		return Sanitize(mode, s)
	}
	return v
}
