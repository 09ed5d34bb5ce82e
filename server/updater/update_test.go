package updater

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewerThan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		candidate string
		current   string
		want      bool
	}{
		{"v1.2.0", "1.1.9", true},
		{"1.2.0", "1.2.0", false},
		{"v1.2.0", "1.10.0", false},
		{"2.0", "1.9.9", true},
		{"1.2.1", "1.2", true},
		{"v1.2.0-rc1", "1.1.0", true},
		{"", "1.0.0", false},
		{"1.0.0", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.candidate+" vs "+tt.current, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, newerThan(tt.candidate, tt.current))
		})
	}
}
