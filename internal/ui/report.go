package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/dedupe/internal/engine"
	"github.com/bamsammich/dedupe/internal/stats"
)

// ReportOptions controls the duplicate report.
type ReportOptions struct {
	Root     string            // stripped from displayed paths
	Keep     engine.KeepPolicy // marks the member that an action would keep
	MaxFiles int               // members listed per group; 0 lists all
}

// WriteReport renders the duplicate groups and a statistics block to w.
// Colors are only emitted when w is a terminal.
func WriteReport(w io.Writer, groups []engine.DuplicateGroup, snap stats.Snapshot, opts ReportOptions) error {
	st := newStyles(lipgloss.NewRenderer(w))
	var b strings.Builder

	if len(groups) == 0 {
		b.WriteString(st.header.Render("no duplicates found"))
		b.WriteString("\n\n")
	}

	for i, g := range groups {
		fmt.Fprintf(&b, "%s %s  %s  %s copies  %s wasted\n",
			st.label.Render(fmt.Sprintf("group %d", i+1)),
			st.digest.Render(ShortDigest(g.Digest)),
			st.size.Render(FormatBytes(g.Size)),
			FormatCount(int64(g.Count())),
			st.wasted.Render(FormatBytes(g.WastedSpace)),
		)

		keeper, _ := engine.SelectKeeper(g, opts.Keep)
		listed := g.Files
		if opts.MaxFiles > 0 && len(listed) > opts.MaxFiles {
			listed = listed[:opts.MaxFiles]
		}
		for _, f := range listed {
			mark, pathStyle := "  ", st.dup
			if f.Path == keeper.Path {
				mark, pathStyle = st.keep.Render("* "), st.keep
			}
			fmt.Fprintf(&b, "  %s%s  %s\n", mark, reportPath(st, pathStyle, opts.Root, f.Path), st.digest.Render(FormatTime(f.ModTime)))
		}
		if hidden := len(g.Files) - len(listed); hidden > 0 {
			fmt.Fprintf(&b, "    %s\n", st.digest.Render(fmt.Sprintf("... %d more", hidden)))
		}
		b.WriteString("\n")
	}

	b.WriteString(st.divider.Render(strings.Repeat("─", 40)))
	b.WriteString("\n")
	writeStat(&b, st, "files scanned", fmt.Sprintf("%s (%s)", FormatCount(snap.FilesScanned), FormatBytes(snap.BytesScanned)))
	writeStat(&b, st, "files hashed", fmt.Sprintf("%s (%s cached)", FormatCount(snap.FilesHashed), FormatCount(snap.CacheHits)))
	if snap.FilesSkipped > 0 {
		writeStat(&b, st, "skipped", st.warn.Render(FormatCount(snap.FilesSkipped)))
	}
	writeStat(&b, st, "groups", FormatCount(snap.Groups))
	writeStat(&b, st, "duplicates", FormatCount(snap.Duplicates))
	writeStat(&b, st, "wasted space", st.wasted.Render(FormatBytes(snap.WastedBytes)))
	writeStat(&b, st, "scan time", FormatDuration(snap.Elapsed))

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteActionSummary renders the outcome of a delete or move pass.
func WriteActionSummary(w io.Writer, op string, res engine.ActionResult, dryRun bool) error {
	st := newStyles(lipgloss.NewRenderer(w))
	var b strings.Builder

	verb := map[string]string{"delete": "deleted", "move": "moved"}[op]
	if verb == "" {
		verb = op
	}
	title := verb
	if dryRun {
		title = "would be " + verb
		b.WriteString(st.warn.Render("dry run: no files were changed"))
		b.WriteString("\n")
	}

	writeStat(&b, st, title, FormatCount(int64(res.Affected)))
	writeStat(&b, st, "space freed", st.wasted.Render(FormatBytes(res.BytesFreed)))
	if res.Skipped > 0 {
		writeStat(&b, st, "skipped", FormatCount(int64(res.Skipped)))
	}
	if res.Failed > 0 {
		writeStat(&b, st, "failed", st.errText.Render(FormatCount(int64(res.Failed))))
		for _, e := range res.Errors {
			fmt.Fprintf(&b, "  %s\n", st.errText.Render(e.Error()))
		}
	}
	if res.Err != nil {
		fmt.Fprintf(&b, "%s\n", st.errText.Render("stopped: "+res.Err.Error()))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeStat(b *strings.Builder, st styles, label, value string) {
	fmt.Fprintf(b, "%s %s\n", st.label.Render(fmt.Sprintf("%-14s", label)), value)
}

// reportPath dims the directory portion of a root-relative path.
func reportPath(st styles, base lipgloss.Style, root, path string) string {
	path = StripRoot(root, path)
	dir, name := filepath.Split(path)
	if dir == "" {
		return base.Render(name)
	}
	return st.dir.Render(dir) + base.Render(name)
}
