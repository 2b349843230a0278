// Package whatsapp builds validated wa.me deep links. Every feature that
// contacts the business funnels through BuildURL; nothing else in the
// repository may compose an outbound messaging link.
package whatsapp

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/safi-group/api/internal/platform/sanitize"
)

const linkDomain = "https://wa.me"

// Phone number validity bounds (digits after stripping formatting).
const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// ErrInvalidNumber indicates the phone number failed the 10-15 digit rule.
var ErrInvalidNumber = errors.New("whatsapp: invalid phone number")

// IsValidNumber reports whether the phone number contains 10 to 15 digits
// once all non-digit characters are stripped.
func IsValidNumber(phone string) bool {
	digits := sanitize.DigitsOnly(phone)
	return len(digits) >= minPhoneDigits && len(digits) <= maxPhoneDigits
}

// BuildURL composes a wa.me deep link for the digits-only phone with the
// sanitized message URL-encoded in the text parameter. It never produces a
// link for a number failing IsValidNumber.
func BuildURL(phone, message string) (string, error) {
	if !IsValidNumber(phone) {
		return "", ErrInvalidNumber
	}
	digits := sanitize.DigitsOnly(phone)
	// wa.me renders "+" literally, so spaces must travel as %20.
	encoded := strings.ReplaceAll(url.QueryEscape(sanitize.ForURLText(message)), "+", "%20")
	return fmt.Sprintf("%s/%s?text=%s", linkDomain, digits, encoded), nil
}

// Opener opens a link in a separate context (a browser tab, a queued
// notification, a test recorder). Implementations must not leak an opener or
// referrer back to the site.
type Opener interface {
	Open(link string) error
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(link string) error

// Open implements Opener.
func (f OpenerFunc) Open(link string) error { return f(link) }

// OpenSafely builds the link and hands it to the opener. It reports success
// and never propagates an error: an invalid number or a failed open is a hard
// stop for this action only, never a fallback to a raw URL.
func OpenSafely(opener Opener, logger *zap.Logger, phone, message string) bool {
	if logger == nil {
		logger = zap.NewNop()
	}
	link, err := BuildURL(phone, message)
	if err != nil {
		logger.Warn("whatsapp link rejected", zap.Error(err))
		return false
	}
	if opener == nil {
		return false
	}
	if err := opener.Open(link); err != nil {
		logger.Warn("whatsapp open failed", zap.Error(err))
		return false
	}
	return true
}
