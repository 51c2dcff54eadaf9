package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrVerifyMismatch is returned when a file no longer has the digest it had
// during the scan.
var ErrVerifyMismatch = errors.New("content changed since scan")

// Verify re-hashes every member of g, bypassing the cache, and reports the
// paths whose content no longer matches the group digest. Unreadable members
// count as changed. Only cancellation is returned as an error.
func Verify(ctx context.Context, g DuplicateGroup, alg Algorithm) ([]string, error) {
	h := Hasher{Algorithm: alg}
	var changed []string
	for _, rec := range g.Files {
		digest, err := h.FullDigest(ctx, rec.Path)
		if err != nil {
			if ctx.Err() != nil {
				return changed, ctx.Err()
			}
			changed = append(changed, rec.Path)
			continue
		}
		if digest != g.Digest {
			changed = append(changed, rec.Path)
		}
	}
	return changed, nil
}

// staleSet verifies g and maps each changed member to the reason it must not
// be acted on. A changed keeper taints the whole group: removing the others
// could destroy the last copy.
func staleSet(ctx context.Context, g DuplicateGroup, keeper FileRecord, alg Algorithm) (map[string]error, error) {
	changed, err := Verify(ctx, g, alg)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return nil, nil
	}

	stale := make(map[string]error, len(g.Files))
	for _, p := range changed {
		if p == keeper.Path {
			keeperErr := fmt.Errorf("keeper %s: %w", keeper.Path, ErrVerifyMismatch)
			for _, rec := range g.Files {
				stale[rec.Path] = keeperErr
			}
			return stale, nil
		}
		stale[p] = fmt.Errorf("verify %s: %w", p, ErrVerifyMismatch)
	}
	return stale, nil
}
