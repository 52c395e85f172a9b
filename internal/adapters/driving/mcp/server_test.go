package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil assistant returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingAssistant)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Assistant: &mockAssistant{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil assistant returns error", func(t *testing.T) {
		ports := &Ports{Documents: &mockDocuments{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingAssistant)
	})

	t.Run("assistant only is valid", func(t *testing.T) {
		ports := &Ports{Assistant: &mockAssistant{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{Assistant: &mockAssistant{}, Documents: &mockDocuments{}}
		assert.NoError(t, ports.Validate())
	})
}
