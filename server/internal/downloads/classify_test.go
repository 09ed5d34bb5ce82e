package downloads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		category Category
		message  string
	}{
		{
			name:     "http 404",
			raw:      "HTTP Error 404: Not Found",
			category: CategoryNotFound,
			message:  "Post not found. It may have been deleted or the URL is wrong.",
		},
		{
			name:     "error prefix stripped before matching",
			raw:      "ERROR: HTTP Error 404: Not Found",
			category: CategoryNotFound,
			message:  "Post not found. It may have been deleted or the URL is wrong.",
		},
		{
			name:     "unsupported url",
			raw:      "Unsupported URL: https://example.com/foo",
			category: CategoryInvalidUrl,
			message:  "Invalid URL. Please paste a valid X/Twitter post link.",
		},
		{
			name:     "not a valid url",
			raw:      "'xxyy' is not a valid URL",
			category: CategoryInvalidUrl,
			message:  "Invalid URL. Please paste a valid X/Twitter post link.",
		},
		{
			name:     "http 403",
			raw:      "HTTP Error 403: Forbidden",
			category: CategoryAccessDenied,
			message:  "Access denied. The post may be private or age-restricted.",
		},
		{
			name:     "auth hint beats no-media match",
			raw:      "No video could be found in this tweet",
			category: CategoryAuthenticationRequired,
			message:  "This post requires authentication. Select Chrome or Firefox as cookie source.",
		},
		{
			name:     "explicit sign in",
			raw:      "Sign in to confirm you're not a bot",
			category: CategoryAuthenticationRequired,
			message:  "This post requires authentication. Select Chrome or Firefox as cookie source.",
		},
		{
			name:     "login phrasing case-insensitive",
			raw:      "This content requires Login.",
			category: CategoryAuthenticationRequired,
			message:  "This post requires authentication. Select Chrome or Firefox as cookie source.",
		},
		{
			name:     "no media",
			raw:      "There is no video in this tweet",
			category: CategoryNoMediaFound,
			message:  "No video found in this post. It may only contain text or images.",
		},
		{
			name:     "urlopen error",
			raw:      "<urlopen error [Errno 8] nodename nor servname provided>",
			category: CategoryNetworkError,
			message:  "Network error. Please check your internet connection.",
		},
		{
			name:     "timed out",
			raw:      "The read operation timed out",
			category: CategoryNetworkError,
			message:  "Network error. Please check your internet connection.",
		},
		{
			name:     "cookie store permission",
			raw:      "Operation not permitted: '/Users/me/Library/Cookies'",
			category: CategoryCookieAccessDenied,
			message: "Cannot access browser cookies. Try Chrome or Firefox instead of Safari, " +
				"or grant Full Disk Access in System Settings.",
		},
		{
			name:     "unexpected preserves engine text verbatim",
			raw:      "ERROR: something exploded spectacularly",
			category: CategoryUnexpected,
			message:  "something exploded spectacularly",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			category, message := Classify(tt.raw)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.message, message)
		})
	}
}
