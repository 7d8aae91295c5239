package output

import (
	"bytes"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestStylesPlainWriter(t *testing.T) {
	// A bytes.Buffer is not a terminal, so every helper renders plain text.
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	tests := []struct {
		name   string
		render func(string) string
	}{
		{"success", styles.Success},
		{"error", styles.Error},
		{"file path", styles.FilePath},
		{"account", styles.Account},
		{"amount", styles.Amount},
		{"keyword", styles.Keyword},
		{"dim", styles.Dim},
		{"warning", styles.Warning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "Assets:Broker", tt.render("Assets:Broker"))
		})
	}

	assert.Equal(t, "120ms", styles.Timing("120ms", true))
	assert.Equal(t, "12ms", styles.Timing("12ms", false))
	assert.NotZero(t, styles.Renderer())
}
