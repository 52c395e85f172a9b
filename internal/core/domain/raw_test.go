package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawDocument_Name(t *testing.T) {
	tests := []struct {
		name string
		raw  RawDocument
		want string
	}{
		{"base of path", RawDocument{URI: "/docs/safety/en60204.txt"}, "en60204.txt"},
		{"metadata wins", RawDocument{URI: "/tmp/upload-123", Metadata: map[string]any{"name": "lvd.pdf"}}, "lvd.pdf"},
		{"empty metadata name ignored", RawDocument{URI: "/docs/ce.md", Metadata: map[string]any{"name": ""}}, "ce.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.raw.Name())
		})
	}
}
