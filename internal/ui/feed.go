package ui

import (
	"fmt"
	"path/filepath"
	"strings"
)

// feedLine describes an event that the user must see individually: skips,
// keeper choices, deletions, moves and failures. ok is false for events
// that only feed the progress display.
func feedLine(ev Event, root string) (line string, isErr bool, ok bool) {
	path := StripRoot(root, ev.Path)
	switch ev.Type {
	case FileSkipped:
		return fmt.Sprintf("skipped  %s  %s", path, errText(ev.Error)), true, true
	case KeepFile:
		return fmt.Sprintf("keep     %s  (%d copies, %s each)", path, ev.Count, FormatBytes(ev.Size)), false, true
	case DeleteFile:
		verb := "delete  "
		if ev.DryRun {
			verb = "would delete"
		}
		return fmt.Sprintf("%s %s", verb, path), false, true
	case MoveFile:
		verb := "move    "
		if ev.DryRun {
			verb = "would move"
		}
		return fmt.Sprintf("%s %s -> %s", verb, path, ev.Target), false, true
	case ActionSkipped:
		return fmt.Sprintf("skipped  %s  %s", path, errText(ev.Error)), false, true
	case ActionFailed:
		return fmt.Sprintf("failed   %s  %s", path, errText(ev.Error)), true, true
	default:
		return "", false, false
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// StripRoot removes a root prefix from a path, returning a clean relative path.
func StripRoot(root, path string) string {
	if root == "" {
		return path
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	if strings.HasPrefix(path, root) {
		return path[len(root):]
	}
	return path
}
