package downloads

import "strings"

// Category is the user-facing failure taxonomy. Engine errors are free
// text, so classification is pattern matching over the raw message.
type Category string

const (
	CategoryInvalidUrl             Category = "invalid_url"
	CategoryNotFound               Category = "not_found"
	CategoryAccessDenied           Category = "access_denied"
	CategoryAuthenticationRequired Category = "authentication_required"
	CategoryNoMediaFound           Category = "no_media_found"
	CategoryNetworkError           Category = "network_error"
	CategoryCookieAccessDenied     Category = "cookie_access_denied"
	CategoryUnexpected             Category = "unexpected"
)

const (
	msgInvalidUrl   = "Invalid URL. Please paste a valid X/Twitter post link."
	msgNotFound     = "Post not found. It may have been deleted or the URL is wrong."
	msgAccessDenied = "Access denied. The post may be private or age-restricted."
	msgAuthRequired = "This post requires authentication. " +
		"Select Chrome or Firefox as cookie source."
	msgNoMediaFound = "No video found in this post. " +
		"It may only contain text or images."
	msgNetworkError = "Network error. Please check your internet connection."
	msgCookieAccess = "Cannot access browser cookies. " +
		"Try Chrome or Firefox instead of Safari, " +
		"or grant Full Disk Access in System Settings."
)

// CategoryMessage returns the fixed template message for a category.
// CategoryUnexpected has none; callers carry the engine text instead.
func CategoryMessage(c Category) string {
	switch c {
	case CategoryInvalidUrl:
		return msgInvalidUrl
	case CategoryNotFound:
		return msgNotFound
	case CategoryAccessDenied:
		return msgAccessDenied
	case CategoryAuthenticationRequired:
		return msgAuthRequired
	case CategoryNoMediaFound:
		return msgNoMediaFound
	case CategoryNetworkError:
		return msgNetworkError
	case CategoryCookieAccessDenied:
		return msgCookieAccess
	}
	return ""
}

// Classify maps a raw engine error message to a category and a fixed
// presentable message. First match wins; only CategoryUnexpected echoes
// the engine text back to the user.
func Classify(raw string) (Category, string) {
	msg := strings.TrimPrefix(raw, "ERROR: ")
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "is not a valid URL"),
		strings.Contains(msg, "Unsupported URL"):
		return CategoryInvalidUrl, msgInvalidUrl

	case strings.Contains(msg, "HTTP Error 404"),
		strings.Contains(msg, "Unable to download"):
		return CategoryNotFound, msgNotFound

	case strings.Contains(msg, "HTTP Error 403"):
		return CategoryAccessDenied, msgAccessDenied

	// "No video could be found" on X almost always means the post is
	// only visible to logged-in accounts, so it is an auth hint, not
	// a missing-media condition.
	case strings.Contains(msg, "No video could be found"),
		strings.Contains(msg, "Sign in"),
		strings.Contains(lower, "login"):
		return CategoryAuthenticationRequired, msgAuthRequired

	case strings.Contains(lower, "no video"):
		return CategoryNoMediaFound, msgNoMediaFound

	case strings.Contains(msg, "urlopen error"),
		strings.Contains(msg, "timed out"):
		return CategoryNetworkError, msgNetworkError

	case strings.Contains(msg, "Operation not permitted") && strings.Contains(msg, "Cookies"):
		return CategoryCookieAccessDenied, msgCookieAccess
	}

	return CategoryUnexpected, msg
}
