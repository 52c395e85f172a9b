package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConflict(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	local := DocumentVersion{Name: "machinery.txt", Content: []byte("local")}
	remote := DocumentVersion{Name: "machinery.txt", Content: []byte("remote")}

	t.Run("keep local backs up remote", func(t *testing.T) {
		res, err := ResolveConflict(local, remote, KeepLocal, now)
		require.NoError(t, err)
		require.Len(t, res.Kept, 1)
		assert.Equal(t, local, res.Kept[0])
		require.Len(t, res.BackedUp, 1)
		assert.Equal(t, "machinery.txt.20250314T092653Z.bak", res.BackedUp[0].Name)
		assert.Equal(t, []byte("remote"), res.BackedUp[0].Content)
	})

	t.Run("keep remote backs up local", func(t *testing.T) {
		res, err := ResolveConflict(local, remote, KeepRemote, now)
		require.NoError(t, err)
		require.Len(t, res.Kept, 1)
		assert.Equal(t, "machinery.txt", res.Kept[0].Name)
		assert.Equal(t, []byte("remote"), res.Kept[0].Content)
		require.Len(t, res.BackedUp, 1)
		assert.Equal(t, []byte("local"), res.BackedUp[0].Content)
	})

	t.Run("keep both renames remote", func(t *testing.T) {
		res, err := ResolveConflict(local, remote, KeepBoth, now)
		require.NoError(t, err)
		require.Len(t, res.Kept, 2)
		assert.Equal(t, "machinery.txt", res.Kept[0].Name)
		assert.Equal(t, "machinery-20250314T092653Z.txt", res.Kept[1].Name)
		assert.Empty(t, res.BackedUp)
	})

	t.Run("unknown policy", func(t *testing.T) {
		_, err := ResolveConflict(local, remote, ConflictPolicy("ask"), now)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})
}

func TestSiblingName(t *testing.T) {
	assert.Equal(t, "notes-1.md", SiblingName("notes.md", "1"))
	assert.Equal(t, "README-1", SiblingName("README", "1"))
}
