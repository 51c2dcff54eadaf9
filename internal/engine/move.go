package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/bamsammich/dedupe/internal/event"
	"github.com/bamsammich/dedupe/internal/platform"
	"github.com/bamsammich/dedupe/internal/stats"
)

// MoveDuplicates relocates every non-keeper member of each group into dest.
// A name already taken in dest, or planned earlier in this pass, gets a
// numeric suffix (report.txt, report_1.txt, report_2.txt, ...). dest is
// created only when not a dry run. Existing files are never overwritten.
func MoveDuplicates(ctx context.Context, groups []DuplicateGroup, dest string, cfg ActionConfig) ActionResult {
	if !cfg.DryRun {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return ActionResult{Err: fmt.Errorf("create destination %s: %w", dest, err)}
		}
	}

	reserved := make(map[string]struct{})
	pass := &actionPass{
		cfg:    cfg,
		op:     "move",
		evType: event.MoveFile,
		apply: func(rec FileRecord, dryRun bool) (string, error) {
			target := uniqueTarget(dest, filepath.Base(rec.Path), reserved)
			if dryRun {
				reserved[target] = struct{}{}
				return target, nil
			}
			if err := moveFile(rec.Path, target); err != nil {
				return target, err
			}
			reserved[target] = struct{}{}
			return target, nil
		},
		prompt: func(rec FileRecord) string {
			return fmt.Sprintf("Move %s to %s? [y/N] ", rec.Path, dest)
		},
		count: func(c *stats.Collector) { c.AddFilesMoved(1) },
	}
	return pass.run(ctx, groups)
}

// uniqueTarget returns the first of dest/name, dest/stem_1.ext,
// dest/stem_2.ext, ... that neither exists nor is reserved.
func uniqueTarget(dest, name string, reserved map[string]struct{}) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// Dotfile such as ".bashrc": the whole name is the stem.
		stem, ext = name, ""
	}

	candidate := filepath.Join(dest, name)
	for n := 1; taken(candidate, reserved); n++ {
		candidate = filepath.Join(dest, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
	return candidate
}

func taken(path string, reserved map[string]struct{}) bool {
	if _, ok := reserved[path]; ok {
		return true
	}
	_, err := os.Lstat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// moveFile renames src to dst without replacing an existing dst. Across
// filesystems it copies through a temporary file in dst's directory and
// removes src once the copy is in place.
func moveFile(src, dst string) error {
	err := renameNoReplace(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("rename %s -> %s: %w", src, dst, err)
	}
	if err := copyAcross(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return nil
}

func copyAcross(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	tmpName := fmt.Sprintf(".%s.%s.dedupe-tmp", filepath.Base(dst), uuid.New().String()[:8])
	tmpPath := filepath.Join(filepath.Dir(dst), tmpName)

	RegisterTmp(tmpPath)
	defer func() {
		DeregisterTmp(tmpPath)
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create tmp %s: %w", tmpPath, err)
	}
	res, err := platform.CopyFile(out, in, info.Size())
	if err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	slog.Debug("copied across devices", "src", src, "dst", dst, "bytes", res.BytesWritten, "method", res.Method.String())
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := setFileTimes(out, accessTime(info), info.ModTime()); err != nil {
		out.Close()
		return fmt.Errorf("set times %s: %w", tmpPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close tmp %s: %w", tmpPath, err)
	}

	if err := renameNoReplace(tmpPath, dst); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, dst, err)
	}
	return nil
}

// renameChecked is the non-atomic fallback for renameNoReplace.
func renameChecked(oldpath, newpath string) error {
	if _, err := os.Lstat(newpath); err == nil {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: os.ErrExist}
	}
	return os.Rename(oldpath, newpath)
}
