package internal

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrorClass categorizes a failed acquisition attempt
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	// ClassCredentialMissing: an optional cookie source was absent
	ClassCredentialMissing
	// ClassTransient: network trouble or timeouts
	ClassTransient
	// ClassActionable: sign-in required, blocked, forbidden or unavailable
	ClassActionable
	// ClassPermissionDenied: the OS refused access to a browser credential store
	ClassPermissionDenied
	// ClassMirrorExhausted: every path, mirror included, came back empty
	ClassMirrorExhausted
)

// String returns the class name used in logs and diagnostics
func (c ErrorClass) String() string {
	switch c {
	case ClassCredentialMissing:
		return "credential_missing"
	case ClassTransient:
		return "transient"
	case ClassActionable:
		return "actionable"
	case ClassPermissionDenied:
		return "permission_denied"
	case ClassMirrorExhausted:
		return "mirror_exhausted"
	default:
		return "none"
	}
}

// rank orders the retryable classes by how much they tell the user.
// Classes outside the ranking never replace a ranked failure.
func (c ErrorClass) rank() int {
	switch c {
	case ClassActionable:
		return 3
	case ClassTransient:
		return 2
	case ClassCredentialMissing:
		return 1
	default:
		return 0
	}
}

// Outranks reports whether c is more informative than other
func (c ErrorClass) Outranks(other ErrorClass) bool {
	return c.rank() > other.rank()
}

// ExtractError is a failure reported by the extraction mechanism. When Class is set
// it takes precedence over message matching.
type ExtractError struct {
	Class   ErrorClass
	Message string
	Err     error
}

func (e *ExtractError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "extraction failed"
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

var (
	ansiEscape = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

	permissionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)operation not permitted`),
		regexp.MustCompile(`(?i)permission denied.*cookie|cookie.*permission denied`),
	}

	actionablePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bsign in\b`),
		regexp.MustCompile(`(?i)\blog ?in required\b`),
		regexp.MustCompile(`(?i)\bblocked\b`),
		regexp.MustCompile(`\b403\b`),
		regexp.MustCompile(`(?i)\bforbidden\b`),
		regexp.MustCompile(`(?i)\bunavailable\b`),
		regexp.MustCompile(`(?i)\bprivate video\b`),
	}

	credentialMissingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)could not find\b`),
		regexp.MustCompile(`(?i)\bcookies? database\b`),
	}
)

// StripANSI removes terminal color sequences from extractor output
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// Classify maps an attempt error to an ErrorClass. Structured tags win over text matching.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}

	var extractErr *ExtractError
	if errors.As(err, &extractErr) && extractErr.Class != ClassNone {
		return extractErr.Class
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ClassTransient
	}

	return ClassifyMessage(err.Error())
}

// ClassifyMessage applies the message matching rules to raw extractor output
func ClassifyMessage(message string) ErrorClass {
	msg := StripANSI(message)

	if matchesAny(permissionPatterns, msg) {
		return ClassPermissionDenied
	}
	if matchesAny(actionablePatterns, msg) {
		return ClassActionable
	}
	if matchesAny(credentialMissingPatterns, msg) {
		return ClassCredentialMissing
	}
	return ClassTransient
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// RemediationHint returns user-facing guidance for a failure
func RemediationHint(class ErrorClass, message string) string {
	lower := strings.ToLower(StripANSI(message))

	switch class {
	case ClassActionable:
		switch {
		case strings.Contains(lower, "confirm your age"):
			return "This video is age-restricted. Sign in to the site in your browser (or import a cookies.txt with `mediafetch cookies import`) and try again."
		case strings.Contains(lower, "sign in") || strings.Contains(lower, "login required") || strings.Contains(lower, "log in required"):
			return "The site asked to sign in. Sign in with your browser or import a cookies.txt with `mediafetch cookies import`, then try again."
		case strings.Contains(lower, "ffmpeg"):
			return "The file could not be decoded. Upload a supported audio or video format."
		case strings.Contains(lower, "unavailable") || strings.Contains(lower, "private video"):
			return "The video is unavailable. It may have been removed or made private."
		default:
			return "Access was blocked (403 Forbidden). Wait a while, switch network (VPN or hotspot), or import a cookies.txt file."
		}
	case ClassTransient:
		return "A network problem or timeout occurred. Try again later."
	case ClassCredentialMissing:
		return "No usable browser cookies were found. Import a cookies.txt file with `mediafetch cookies import`."
	case ClassPermissionDenied:
		return "The OS denied access to the browser's cookie store. Grant this program permission (e.g. Full Disk Access on macOS) or import a cookies.txt file instead."
	case ClassMirrorExhausted:
		return "Every download method failed, including the mirror. Try again later or import a cookies.txt file."
	default:
		return ""
	}
}
