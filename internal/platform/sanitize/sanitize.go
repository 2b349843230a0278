// Package sanitize defends free text and identifiers before they are embedded
// in outbound URLs or rendered back to a client.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	displayPolicy = bluemonday.StrictPolicy()

	controlChars = regexp.MustCompile(`[\x{0000}-\x{001F}\x{007F}-\x{009F}]`)
	whitespace   = regexp.MustCompile(`\s+`)
	// Arabic letters, Latin letters, digits, whitespace and a small
	// punctuation set; everything else is dropped.
	nameWhitelist = regexp.MustCompile(`[^\x{0600}-\x{06FF}a-zA-Z0-9\s\-_.،,()؟?!]+`)
	phoneChars    = regexp.MustCompile(`[^\d+\s\-()]`)
	nonDigits     = regexp.MustCompile(`\D`)
)

// ForDisplay entity-encodes the text so it is inert if ever rendered as
// HTML. Escaping first keeps the literal content visible; the policy then
// guards against anything the escape pass missed.
func ForDisplay(text string) string {
	if text == "" {
		return ""
	}
	return displayPolicy.Sanitize(html.EscapeString(text))
}

// ForURLText prepares free text for embedding in a URL query: display
// sanitization, control characters removed, whitespace runs collapsed, and
// the result trimmed.
func ForURLText(text string) string {
	if text == "" {
		return ""
	}
	cleaned := ForDisplay(text)
	cleaned = controlChars.ReplaceAllString(cleaned, "")
	cleaned = whitespace.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Name restricts product, service and person names to Arabic letters, Latin
// letters, digits, whitespace and basic punctuation.
func Name(text string) string {
	if text == "" {
		return ""
	}
	cleaned := controlChars.ReplaceAllString(text, "")
	return strings.TrimSpace(nameWhitelist.ReplaceAllString(cleaned, ""))
}

// PhoneDigits keeps only digits, plus signs, spaces, hyphens and parentheses.
func PhoneDigits(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(phoneChars.ReplaceAllString(text, ""))
}

// DigitsOnly strips everything but decimal digits.
func DigitsOnly(text string) string {
	return nonDigits.ReplaceAllString(text, "")
}
