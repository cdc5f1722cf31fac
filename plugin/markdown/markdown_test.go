package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	svc := NewService()

	tests := []struct {
		name     string
		source   string
		contains string
	}{
		{
			name:     "plain paragraph",
			source:   "hello world",
			contains: "<p>hello world</p>",
		},
		{
			name:     "bold",
			source:   "**done**",
			contains: "<strong>done</strong>",
		},
		{
			name:     "list",
			source:   "- Standup\n- Review",
			contains: "<li>Standup</li>",
		},
		{
			name:     "strikethrough",
			source:   "~~cancelled~~",
			contains: "<del>cancelled</del>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Render(tt.source)
			require.NoError(t, err)
			assert.Contains(t, got, tt.contains)
		})
	}
}

func TestRenderHardWraps(t *testing.T) {
	svc := NewService()
	got, err := svc.Render("line one\nline two")
	require.NoError(t, err)
	assert.Contains(t, got, "<br>")
}
