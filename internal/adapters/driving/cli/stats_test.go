package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

func TestStatsCmd_Prints(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.stats = &domain.StoreStats{
		DocumentCount: 2,
		ChunkCount:    3,
		Dimensions:    384,
		TablePath:     "/data/embeddings.json",
		Documents: []domain.SourceStats{
			{Source: "en60204.txt", Chunks: 2, TotalChars: 900},
			{Source: "iso13850.md", Chunks: 1, TotalChars: 120},
		},
	}

	out, err := executeCommand(t, "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Table:      /data/embeddings.json")
	assert.Contains(t, out, "Documents:  2")
	assert.Contains(t, out, "Chunks:     3")
	assert.Contains(t, out, "Dimensions: 384")
	assert.Contains(t, out, "en60204.txt: 2 chunks, 900 chars")
}

func TestStatsCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.stats = &domain.StoreStats{DocumentCount: 1, ChunkCount: 1, Dimensions: 3}

	out, err := executeCommand(t, "stats", "--json")

	require.NoError(t, err)
	var got domain.StoreStats
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Dimensions)
}

func TestStatsCmd_MissingTable(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.assistant.err = domain.ErrStoreNotFound

	_, err := executeCommand(t, "stats")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
	assert.Contains(t, err.Error(), "/data/embeddings.json")
}
