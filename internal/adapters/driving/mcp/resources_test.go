package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleStatsResource(t *testing.T) {
	assistant := &mockAssistant{stats: &domain.StoreStats{
		DocumentCount: 1,
		ChunkCount:    2,
		Dimensions:    3,
		Documents:     []domain.SourceStats{{Source: "a.txt", Chunks: 2, TotalChars: 40}},
	}}
	server, err := NewServer(&Ports{Assistant: assistant})
	require.NoError(t, err)

	res, err := server.handleStatsResource(context.Background(), readRequest("sercha-assist://stats"))
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var got domain.StoreStats
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &got))
	assert.Equal(t, 2, got.ChunkCount)
}

func TestServer_handleSourceResource(t *testing.T) {
	assistant := &mockAssistant{stats: &domain.StoreStats{
		Documents: []domain.SourceStats{
			{Source: "a.txt", Chunks: 2, TotalChars: 40},
			{Source: "notes/b.md", Chunks: 1, TotalChars: 10},
		},
	}}
	server, err := NewServer(&Ports{Assistant: assistant})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("known source", func(t *testing.T) {
		res, err := server.handleSourceResource(ctx, readRequest("sercha-assist://sources/notes/b.md"))
		require.NoError(t, err)

		var got domain.SourceStats
		require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &got))
		assert.Equal(t, "notes/b.md", got.Source)
		assert.Equal(t, 1, got.Chunks)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := server.handleSourceResource(ctx, readRequest("sercha-assist://sources/missing.txt"))
		assert.Error(t, err)
	})

	t.Run("malformed uri", func(t *testing.T) {
		_, err := server.handleSourceResource(ctx, readRequest("other://sources/a.txt"))
		assert.Error(t, err)
	})
}

func TestExtractSourceName(t *testing.T) {
	assert.Equal(t, "a.txt", extractSourceName("sercha-assist://sources/a.txt"))
	assert.Equal(t, "", extractSourceName("sercha-assist://stats"))
}
