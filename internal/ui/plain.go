package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/dedupe/internal/stats"
)

// plainPresenter writes one line per action to stdout, skips and failures
// to stderr, and periodic scan progress to stderr when not a TTY.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   stats.ReadTicker
	root    string
	verbose bool

	scanning bool
	ticks    int
}

func (p *plainPresenter) Run(events <-chan Event) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			p.ticks++
			if p.scanning && p.ticks%5 == 0 {
				p.printProgress()
			}
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case ScanStarted:
		p.scanning = true
		if p.verbose {
			fmt.Fprintf(p.errW, "scanning %s\n", ev.Path)
		}
	case ScanComplete:
		p.scanning = false
	case StageComplete:
		if p.verbose {
			fmt.Fprintf(p.errW, "stage %-8s %s files  %s\n", ev.Stage, FormatCount(ev.Count), FormatBytes(ev.Size))
		}
	case FileHashed:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  %s  %s\n", ShortDigest(ev.Digest), FormatBytes(ev.Size), StripRoot(p.root, ev.Path))
		}
	default:
		line, isErr, ok := feedLine(ev, p.root)
		if !ok {
			return
		}
		if isErr {
			fmt.Fprintln(p.errW, line)
			return
		}
		fmt.Fprintln(p.w, line)
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	fmt.Fprintf(p.errW, "progress: scanned %s files (%s)  hashed %s  %s\n",
		FormatCount(snap.FilesScanned),
		FormatBytes(snap.BytesScanned),
		FormatCount(snap.FilesHashed),
		FormatRate(p.stats.RollingSpeed(5)),
	)
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
