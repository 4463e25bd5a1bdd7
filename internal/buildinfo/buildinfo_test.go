package buildinfo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextAccessors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ctx       *Context
		version   string
		buildDate string
	}{
		{"nil context", nil, UnknownValue, UnknownValue},
		{"empty fields", &Context{}, UnknownValue, UnknownValue},
		{"populated", &Context{Version: "v1.2.0", BuildDate: "2026-10-01"}, "v1.2.0", "2026-10-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.version, tt.ctx.GetVersion())
			assert.Equal(t, tt.buildDate, tt.ctx.GetBuildDate())
		})
	}
}

func TestContextString(t *testing.T) {
	t.Parallel()

	s := New("v0.3.1", "2026-09-30").String()
	assert.True(t, strings.HasPrefix(s, "oceanecho v0.3.1 (built 2026-09-30, go"))
}
