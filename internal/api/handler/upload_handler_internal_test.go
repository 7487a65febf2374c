package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"no limit", "Zoë", 0, "Zoë"},
		{"negative limit", "Zoë", -1, "Zoë"},
		{"shorter than limit", "Zoë", 5, "Zoë"},
		{"exact length", "Zoë", 3, "Zoë"},
		{"cut after multibyte rune", "Zoë Müller", 3, "Zoë"},
		{"cut before multibyte rune", "Zoë Müller", 5, "Zoë M"},
		{"cjk", "张伟，高级工程师", 2, "张伟"},
		{"emoji", "🚀🚀🚀", 1, "🚀"},
		{"empty", "", 4, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateRunes(tt.in, tt.n))
		})
	}
}
