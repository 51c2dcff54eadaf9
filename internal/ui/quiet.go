package ui

import (
	"fmt"
	"io"

	"github.com/bamsammich/dedupe/internal/stats"
)

// quietPresenter prints nothing but action failures.
type quietPresenter struct {
	errW  io.Writer
	stats stats.Reader
	root  string
}

func (p *quietPresenter) Run(events <-chan Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	return nil
}

func (p *quietPresenter) handleEvent(ev Event) {
	if ev.Type != ActionFailed || p.errW == nil {
		return
	}
	line, _, _ := feedLine(ev, p.root)
	fmt.Fprintln(p.errW, line)
}

func (p *quietPresenter) Summary() string {
	return ""
}
