package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"

	"murmur/internal/models"
)

// downloadProgress renders a single updating line on terminals.
type downloadProgress struct {
	mu      sync.Mutex
	out     io.Writer
	last    int
	started bool
}

func newDownloadProgress(out io.Writer) *downloadProgress {
	return &downloadProgress{out: out, last: -1}
}

func (p *downloadProgress) update(desc models.Descriptor, progress models.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = true
	if progress.Percent < 0 {
		fmt.Fprintf(p.out, "\rDownloading %s: %s", desc.ID, humanize.IBytes(uint64(progress.Bytes)))
		return
	}
	pct := int(progress.Percent)
	if pct == p.last {
		return
	}
	p.last = pct
	fmt.Fprintf(p.out, "\rDownloading %s: %3d%% (%s / %s)", desc.ID, pct,
		humanize.IBytes(uint64(progress.Bytes)), humanize.IBytes(uint64(progress.Total)))
}

func (p *downloadProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		fmt.Fprintln(p.out)
		p.started = false
	}
}
