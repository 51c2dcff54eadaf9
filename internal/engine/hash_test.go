package engine

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"
)

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func blake3Digest(t *testing.T, path string) string {
	t.Helper()
	d, err := Hasher{Algorithm: BLAKE3}.FullDigest(context.Background(), path)
	require.NoError(t, err)
	return d
}

func TestFullDigestBLAKE3(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "test.txt"), []byte("hello world"))

	h1 := blake3Digest(t, path)
	want := blake3.Sum256([]byte("hello world"))
	assert.Equal(t, hex.EncodeToString(want[:]), h1)

	path2 := writeFile(t, filepath.Join(dir, "test2.txt"), []byte("hello world"))
	assert.Equal(t, h1, blake3Digest(t, path2))

	path3 := writeFile(t, filepath.Join(dir, "test3.txt"), []byte("different content"))
	assert.NotEqual(t, h1, blake3Digest(t, path3))
}

func TestFullDigestEmptyFile(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "empty.txt"), nil)
	assert.Len(t, blake3Digest(t, path), 64)
}

func TestFullDigestMissingFile(t *testing.T) {
	_, err := Hasher{Algorithm: BLAKE3}.FullDigest(context.Background(), "/nonexistent/file")
	assert.Error(t, err)
}

func TestFullDigestSHA256(t *testing.T) {
	dir := t.TempDir()
	// Larger than one chunk so the streaming loop runs more than once.
	data := bytes.Repeat([]byte("0123456789abcdef"), 3*fullChunk/16+7)
	path := writeFile(t, filepath.Join(dir, "big.bin"), data)

	got, err := Hasher{Algorithm: SHA256}.FullDigest(context.Background(), path)
	require.NoError(t, err)
	want := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestFullDigestRateLimited(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte("z"), 200*1024)
	path := writeFile(t, filepath.Join(dir, "f"), data)

	h := Hasher{Algorithm: BLAKE3, Limiter: NewBWLimiter(100 << 20)}
	got, err := h.FullDigest(context.Background(), path)
	require.NoError(t, err)
	want := blake3.Sum256(data)
	assert.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestFullDigestCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "f"), []byte("data"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Hasher{}.FullDigest(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"", BLAKE3, false},
		{"blake3", BLAKE3, false},
		{"BLAKE3", BLAKE3, false},
		{"sha256", SHA256, false},
		{"SHA-256", SHA256, false},
		{"md5", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownAlgorithm)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPartialDigest(t *testing.T) {
	dir := t.TempDir()

	t.Run("identical content matches", func(t *testing.T) {
		a := writeFile(t, filepath.Join(dir, "a"), []byte("same"))
		b := writeFile(t, filepath.Join(dir, "b"), []byte("same"))
		da, err := PartialDigest(a, 4)
		require.NoError(t, err)
		db, err := PartialDigest(b, 4)
		require.NoError(t, err)
		assert.Equal(t, da, db)
	})

	t.Run("size is part of the digest", func(t *testing.T) {
		a := writeFile(t, filepath.Join(dir, "c"), []byte("same"))
		da, err := PartialDigest(a, 4)
		require.NoError(t, err)
		db, err := PartialDigest(a, 5)
		require.NoError(t, err)
		assert.NotEqual(t, da, db)
	})

	t.Run("tail is read for large files", func(t *testing.T) {
		base := bytes.Repeat([]byte("m"), 3*partialChunk)
		other := bytes.Clone(base)
		other[len(other)-1] = 'x'
		a := writeFile(t, filepath.Join(dir, "big1"), base)
		b := writeFile(t, filepath.Join(dir, "big2"), other)
		da, err := PartialDigest(a, int64(len(base)))
		require.NoError(t, err)
		db, err := PartialDigest(b, int64(len(other)))
		require.NoError(t, err)
		assert.NotEqual(t, da, db)
	})

	t.Run("middle is not read", func(t *testing.T) {
		base := bytes.Repeat([]byte("m"), 3*partialChunk)
		other := bytes.Clone(base)
		other[len(other)/2] = 'x'
		a := writeFile(t, filepath.Join(dir, "mid1"), base)
		b := writeFile(t, filepath.Join(dir, "mid2"), other)
		da, err := PartialDigest(a, int64(len(base)))
		require.NoError(t, err)
		db, err := PartialDigest(b, int64(len(other)))
		require.NoError(t, err)
		assert.Equal(t, da, db)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := PartialDigest(filepath.Join(dir, "missing"), 1)
		assert.Error(t, err)
	})
}
