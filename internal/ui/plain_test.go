package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/dedupe/internal/event"
	"github.com/bamsammich/dedupe/internal/stats"
)

func runPlain(t *testing.T, p *plainPresenter, evs ...Event) {
	t.Helper()
	events := make(chan Event, len(evs))
	for _, ev := range evs {
		events <- ev
	}
	close(events)
	assert.NoError(t, p.Run(events))
}

func TestPlainPresenterActions(t *testing.T) {
	var out, errOut bytes.Buffer
	p := &plainPresenter{w: &out, errW: &errOut, stats: stats.NewCollector(), root: "/data"}

	runPlain(t, p,
		Event{Type: event.KeepFile, Path: "/data/a.txt", Count: 3, Size: 1024},
		Event{Type: event.DeleteFile, Path: "/data/b.txt"},
		Event{Type: event.DeleteFile, Path: "/data/c.txt", DryRun: true},
	)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "keep")
	assert.Contains(t, lines[0], "a.txt")
	assert.Contains(t, lines[0], "3 copies")
	assert.Contains(t, lines[1], "delete")
	assert.Contains(t, lines[1], "b.txt")
	assert.NotContains(t, lines[1], "/data/")
	assert.Contains(t, lines[2], "would delete c.txt")
	assert.Empty(t, errOut.String())
}

func TestPlainPresenterMove(t *testing.T) {
	var out, errOut bytes.Buffer
	p := &plainPresenter{w: &out, errW: &errOut, stats: stats.NewCollector()}

	runPlain(t, p, Event{Type: event.MoveFile, Path: "x/dup.bin", Target: "/dups/dup_1.bin", DryRun: true})

	assert.Contains(t, out.String(), "would move x/dup.bin -> /dups/dup_1.bin")
}

func TestPlainPresenterFailuresGoToStderr(t *testing.T) {
	var out, errOut bytes.Buffer
	p := &plainPresenter{w: &out, errW: &errOut, stats: stats.NewCollector()}

	runPlain(t, p,
		Event{Type: event.ActionFailed, Path: "locked.bin", Error: assert.AnError},
		Event{Type: event.FileSkipped, Path: "gone.txt", Error: errors.New("file changed during scan")},
	)

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "failed")
	assert.Contains(t, errOut.String(), assert.AnError.Error())
	assert.Contains(t, errOut.String(), "skipped  gone.txt  file changed during scan")
}

func TestPlainPresenterActionSkipped(t *testing.T) {
	var out, errOut bytes.Buffer
	p := &plainPresenter{w: &out, errW: &errOut, stats: stats.NewCollector()}

	runPlain(t, p, Event{Type: event.ActionSkipped, Path: "b.txt", Error: errors.New("declined by user")})

	assert.Contains(t, out.String(), "skipped  b.txt  declined by user")
}

func TestPlainPresenterQuietByDefault(t *testing.T) {
	var out, errOut bytes.Buffer
	p := &plainPresenter{w: &out, errW: &errOut, stats: stats.NewCollector()}

	runPlain(t, p,
		Event{Type: event.ScanStarted, Path: "/data"},
		Event{Type: event.StageComplete, Stage: event.StageWalk, Count: 10},
		Event{Type: event.FileHashed, Path: "a.txt", Digest: "abcdef0123456789", Size: 10},
		Event{Type: event.GroupFound, Digest: "abcdef0123456789", Count: 2},
		Event{Type: event.ScanComplete},
	)

	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestPlainPresenterVerbose(t *testing.T) {
	var out, errOut bytes.Buffer
	p := &plainPresenter{w: &out, errW: &errOut, stats: stats.NewCollector(), verbose: true}

	runPlain(t, p,
		Event{Type: event.ScanStarted, Path: "/data"},
		Event{Type: event.StageComplete, Stage: event.StagePartial, Count: 1200, Size: 4096},
		Event{Type: event.FileHashed, Path: "a.txt", Digest: "abcdef0123456789", Size: 10},
	)

	assert.Contains(t, errOut.String(), "scanning /data")
	assert.Contains(t, errOut.String(), "partial")
	assert.Contains(t, errOut.String(), "1,200 files")
	assert.Contains(t, out.String(), "abcdef012345")
	assert.Contains(t, out.String(), "a.txt")
}

func TestPlainPresenterSummary(t *testing.T) {
	collector := stats.NewCollector()
	collector.AddFilesScanned(100)
	collector.AddFilesHashed(12)
	collector.AddGroup(3, 1024)

	p := &plainPresenter{stats: collector}
	s := p.Summary()
	assert.Contains(t, s, "done ✓")
	assert.Contains(t, s, "files 100")
	assert.Contains(t, s, "hashed 12")
	assert.Contains(t, s, "groups 1")
	assert.Contains(t, s, "wasted 2.0 KiB")
	assert.NotContains(t, s, "freed")
}

func TestQuietPresenterOnlyFailures(t *testing.T) {
	var errOut bytes.Buffer
	p := &quietPresenter{errW: &errOut, stats: stats.NewCollector()}

	events := make(chan Event, 3)
	events <- Event{Type: event.DeleteFile, Path: "a.txt"}
	events <- Event{Type: event.FileSkipped, Path: "b.txt", Error: assert.AnError}
	events <- Event{Type: event.ActionFailed, Path: "c.txt", Error: assert.AnError}
	close(events)

	assert.NoError(t, p.Run(events))
	assert.NotContains(t, errOut.String(), "a.txt")
	assert.NotContains(t, errOut.String(), "b.txt")
	assert.Contains(t, errOut.String(), "failed   c.txt")
	assert.Empty(t, p.Summary())
}

func TestNewPresenterSelection(t *testing.T) {
	collector := stats.NewCollector()
	var out bytes.Buffer

	assert.IsType(t, &quietPresenter{}, NewPresenter(Config{Writer: &out, ErrWriter: &out, Stats: collector, Quiet: true, IsTTY: true}))
	assert.IsType(t, &plainPresenter{}, NewPresenter(Config{Writer: &out, ErrWriter: &out, Stats: collector}))
	assert.IsType(t, &plainPresenter{}, NewPresenter(Config{Writer: &out, ErrWriter: &out, Stats: collector, IsTTY: true, NoProgress: true}))
	assert.IsType(t, &hudPresenter{}, NewPresenter(Config{Writer: &out, ErrWriter: &out, Stats: collector, IsTTY: true}))
}
