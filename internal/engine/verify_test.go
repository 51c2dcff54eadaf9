package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyGroup(t *testing.T) {
	root, groups := scanTree(t, [][2]string{{"a", "same"}, {"b", "same"}, {"c", "same"}})
	require.Len(t, groups, 1)

	changed, err := Verify(context.Background(), groups[0], BLAKE3)
	require.NoError(t, err)
	assert.Empty(t, changed)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b"), []byte("diff"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(root, "c")))

	changed, err = Verify(context.Background(), groups[0], BLAKE3)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "b"), filepath.Join(root, "c")}, changed)
}

func TestVerifyCanceled(t *testing.T) {
	_, groups := scanTree(t, [][2]string{{"a", "same"}, {"b", "same"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Verify(ctx, groups[0], BLAKE3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaleSet(t *testing.T) {
	root, groups := scanTree(t, [][2]string{{"a", "same"}, {"b", "same"}, {"c", "same"}})
	g := groups[0]
	keeper, _ := SelectKeeper(g, KeepFirst)

	stale, err := staleSet(context.Background(), g, keeper, BLAKE3)
	require.NoError(t, err)
	assert.Empty(t, stale)

	c := filepath.Join(root, "c")
	require.NoError(t, os.WriteFile(c, []byte("SAME"), 0o644))
	stale, err = staleSet(context.Background(), g, keeper, BLAKE3)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.ErrorIs(t, stale[c], ErrVerifyMismatch)

	require.NoError(t, os.WriteFile(keeper.Path, []byte("SAME"), 0o644))
	stale, err = staleSet(context.Background(), g, keeper, BLAKE3)
	require.NoError(t, err)
	assert.Len(t, stale, 3, "a changed keeper taints the group")
	assert.ErrorIs(t, stale[filepath.Join(root, "b")], ErrVerifyMismatch)
}
