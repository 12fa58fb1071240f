package pluginsync

import (
	"sync"

	"owlsync/internal/ports"
)

// progressTracker forwards progress to a listener, keeping the reported
// percentage non-decreasing and within [0, 100]
type progressTracker struct {
	mu       sync.Mutex
	listener ports.SyncListener
	percent  float64
	status   string
}

func (p *progressTracker) set(percent float64, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if percent > p.percent {
		p.percent = min(percent, 100)
	}
	p.status = status
	p.listener.OnProgress(p.percent, p.status)
}

func (p *progressTracker) advance(delta float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if delta > 0 {
		p.percent = min(p.percent+delta, 100)
	}
	p.listener.OnProgress(p.percent, p.status)
}

func (p *progressTracker) message(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
	p.listener.OnProgress(p.percent, p.status)
}
