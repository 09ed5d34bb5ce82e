package urlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{
			name: "x.com status",
			in:   "https://x.com/someone/status/1234567890",
			want: "https://x.com/someone/status/1234567890",
			ok:   true,
		},
		{
			name: "twitter.com with tracking query",
			in:   "https://twitter.com/someone/status/1234567890?s=20&t=abc",
			want: "https://twitter.com/someone/status/1234567890",
			ok:   true,
		},
		{
			name: "mobile host with video segment",
			in:   "https://mobile.x.com/someone/status/1234567890/video/1",
			want: "https://mobile.x.com/someone/status/1234567890/video/1",
			ok:   true,
		},
		{
			name: "surrounding whitespace",
			in:   "  https://x.com/a_b/status/42  ",
			want: "https://x.com/a_b/status/42",
			ok:   true,
		},
		{name: "profile page", in: "https://x.com/someone", ok: false},
		{name: "wrong host", in: "https://example.com/someone/status/1", ok: false},
		{name: "no scheme", in: "x.com/someone/status/1", ok: false},
		{name: "ftp scheme", in: "ftp://x.com/someone/status/1", ok: false},
		{name: "empty", in: "", ok: false},
		{name: "handle too long", in: "https://x.com/this_handle_is_way_too_long/status/1", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrNotAPostURL)
				assert.False(t, IsPostURL(tt.in))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsPostURL(tt.in))
		})
	}
}
