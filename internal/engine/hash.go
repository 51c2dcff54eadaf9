package engine

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
	"golang.org/x/time/rate"
)

const (
	// partialChunk is the number of bytes read from each end of a file for
	// the partial digest.
	partialChunk = 4096

	// fullChunk is the read size used while streaming a full digest.
	fullChunk = 64 * 1024
)

// Algorithm names a full-digest hash function.
type Algorithm string

const (
	BLAKE3 Algorithm = "blake3"
	SHA256 Algorithm = "sha256"
)

// ErrUnknownAlgorithm is returned by ParseAlgorithm for unsupported names.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// ParseAlgorithm converts a user-supplied name into an Algorithm. The empty
// string selects BLAKE3.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blake3", "b3":
		return BLAKE3, nil
	case "sha256", "sha-256":
		return SHA256, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// New returns a fresh hash.Hash for the algorithm.
func (a Algorithm) New() hash.Hash {
	if a == SHA256 {
		return sha256.New()
	}
	return blake3.New()
}

func (a Algorithm) String() string {
	if a == "" {
		return string(BLAKE3)
	}
	return string(a)
}

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, fullChunk)
		return &b
	},
}

// PartialDigest returns a cheap fingerprint of the file at path: xxhash64 over
// the size, the first 4 KiB and, for files larger than 8 KiB, the last 4 KiB.
// Collisions are possible; it only narrows the candidates for a full digest.
func PartialDigest(path string, size int64) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d := xxhash.New()
	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(size))
	_, _ = d.Write(sizeBuf[:])

	buf := make([]byte, partialChunk)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("read head %s: %w", path, err)
	}
	_, _ = d.Write(buf[:n])

	if size > 2*partialChunk {
		n, err = f.ReadAt(buf, size-partialChunk)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("read tail %s: %w", path, err)
		}
		_, _ = d.Write(buf[:n])
	}

	return d.Sum64(), nil
}

// Hasher computes full content digests.
type Hasher struct {
	Algorithm Algorithm
	Limiter   *rate.Limiter // nil = unlimited
}

// FullDigest streams the file at path through the configured algorithm and
// returns the hex-encoded digest. The context is checked between chunks.
func (h Hasher) FullDigest(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if h.Limiter != nil {
		r = newRateLimitedReader(ctx, f, h.Limiter)
	}

	bp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bp)
	buf := *bp

	d := h.Algorithm.New()
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			_, _ = d.Write(buf[:n])
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return "", fmt.Errorf("hash %s: %w", path, rerr)
		}
	}

	return hex.EncodeToString(d.Sum(nil)), nil
}
