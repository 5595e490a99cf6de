package main

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"clipreel/internal/annotate"
	"clipreel/internal/ingest"
	"clipreel/internal/pipeline"
)

// stageProgress shows one bar per stage. A new stage replaces the previous
// bar.
type stageProgress struct {
	mu     sync.Mutex
	writer io.Writer
	bar    *progressbar.ProgressBar
}

func newStageProgress(w io.Writer) *stageProgress {
	return &stageProgress{writer: w}
}

// terminalProgress returns bars drawn on w, or nil when w is not a terminal.
func terminalProgress(w io.Writer) *stageProgress {
	if !shouldColorize(w) {
		return nil
	}
	return newStageProgress(w)
}

func (p *stageProgress) options() []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithIngestOptions(
			ingest.WithStartHook(func(total int) { p.start("Copying", total) }),
			ingest.WithEventHook(func(ingest.Event) { p.step() }),
		),
		pipeline.WithAnnotateOptions(
			annotate.WithProgress(
				func(total int) { p.start("Annotating", total) },
				func(string, bool) { p.step() },
			),
		),
	}
}

func (p *stageProgress) start(description string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLocked()
	if total <= 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *stageProgress) step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *stageProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLocked()
}

func (p *stageProgress) finishLocked() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}
