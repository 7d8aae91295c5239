package ast

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestPosition_String(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want string
	}{
		{"with filename", Position{Filename: "main.yaml", Line: 12, Column: 5}, "main.yaml:12:5"},
		{"without filename", Position{Line: 3, Column: 1}, "3:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pos.String())
		})
	}
}

func TestPosition_IsZero(t *testing.T) {
	assert.True(t, Position{}.IsZero())
	assert.False(t, Position{Line: 1}.IsZero())
	assert.False(t, Position{Filename: "a.yaml"}.IsZero())
}

func TestPosition_GoString(t *testing.T) {
	pos := Position{Filename: "a.yaml", Line: 2, Column: 3}
	assert.Equal(t, `Position{Filename: "a.yaml", Line: 2, Column: 3}`, pos.GoString())
}
