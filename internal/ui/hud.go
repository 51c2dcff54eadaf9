package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bamsammich/dedupe/internal/event"
	"github.com/bamsammich/dedupe/internal/stats"
)

// ANSI escape sequences.
const (
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
)

const (
	sparklineWidth   = 20
	progressBarWidth = 20
	hudMinInterval   = 50 * time.Millisecond // don't redraw faster than this
	hudLines         = 2
)

// hudPresenter provides a TTY display: a scrolling feed of skips and actions
// above a 2-line HUD that redraws in place while the scan runs. Every line is
// cut to width so none of them wraps under the cursor-up clear.
type hudPresenter struct {
	w       io.Writer
	stats   stats.ReadTicker
	root    string
	verbose bool
	width   int

	scanning    bool
	stage       string
	candidates  int64 // files awaiting a full digest
	hashTarget  int64 // bytes awaiting a full digest
	hudDrawn    bool
	lastHUDDraw time.Time
}

func (p *hudPresenter) Run(events <-chan Event) error {
	// Fire the first tick quickly to seed the throughput ring, then 1/s.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	// Redraw while a large file is hashing and no events arrive.
	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDrawHUD()

		case <-redrawTicker.C:
			if p.scanning {
				p.drawHUD()
			}

		case <-secTicker.C:
			p.stats.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(time.Second)
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case ScanStarted:
		p.scanning = true
		p.stage = event.StageWalk

	case StageComplete:
		switch ev.Stage {
		case event.StageWalk:
			p.stage = event.StageSize
		case event.StageSize:
			p.stage = event.StagePartial
		case event.StagePartial:
			p.stage = event.StageFull
			p.candidates = ev.Count
			p.hashTarget = ev.Size
		}

	case ScanComplete:
		p.scanning = false
		p.clearHUD()

	case FileHashed:
		if p.verbose {
			p.printAbove(fmt.Sprintf("%s  %10s  %s",
				ShortDigest(ev.Digest), FormatBytes(ev.Size), p.styledPath(ev.Path)))
		}

	default:
		if line, _, ok := feedLine(ev, p.root); ok {
			p.printAbove(line)
		}
	}
}

// printAbove writes a feed line above the HUD and redraws it.
func (p *hudPresenter) printAbove(line string) {
	p.clearHUD()
	fmt.Fprintln(p.w, fitLine(line, p.width))
	if p.scanning {
		p.drawHUD()
	}
}

// maybeDrawHUD redraws the HUD if enough time has passed since the last draw.
func (p *hudPresenter) maybeDrawHUD() {
	if !p.scanning || time.Since(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) drawHUD() {
	snap := p.stats.Snapshot()
	p.clearHUD()

	speed := p.stats.RollingSpeed(10)
	spark := Sparkline(p.stats.SparklineData(sparklineWidth), sparklineWidth)

	// Line 1: hashing throughput.
	throughput := fmt.Sprintf("       %s   %s   %s hashed",
		spark, FormatRate(speed), FormatBytes(snap.BytesHashed))

	// Line 2: stage progress.
	var progress string
	if p.stage == event.StageFull && p.hashTarget > 0 {
		pct := float64(snap.BytesHashed) / float64(p.hashTarget)
		var eta time.Duration
		if speed > 0 {
			remaining := max(p.hashTarget-snap.BytesHashed, 0)
			eta = time.Duration(float64(remaining) / speed * float64(time.Second))
		}
		progress = fmt.Sprintf(" %3.0f%%  %s   %s / %s files   eta %s",
			min(pct, 1)*100, ProgressBar(pct, progressBarWidth),
			FormatCount(snap.FilesHashed), FormatCount(p.candidates),
			FormatETA(eta))
	} else {
		progress = fmt.Sprintf(" %s%-8s%s %s files  %s  %s skipped",
			ansiDim, p.stage, ansiReset,
			FormatCount(snap.FilesScanned), FormatBytes(snap.BytesScanned),
			FormatCount(snap.FilesSkipped))
	}
	fmt.Fprintln(p.w, fitLine(throughput, p.width))
	fmt.Fprintln(p.w, fitLine(progress, p.width))

	p.hudDrawn = true
	p.lastHUDDraw = time.Now()
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	// Move cursor up N lines and clear to end of screen.
	fmt.Fprintf(p.w, "\033[%dA\033[J", hudLines)
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}

// styledPath returns the path relative to the scan root with the directory
// portion dimmed so the file name stands out.
func (p *hudPresenter) styledPath(path string) string {
	path = StripRoot(p.root, path)
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "." || dir == "" {
		return base
	}
	return fmt.Sprintf("%s%s/%s%s", ansiDim, dir, ansiReset, base)
}
