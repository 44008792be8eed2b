package crawler

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/executor"
)

// State names the crawler's position in its Initial -> Ready -> Reloading
// -> Ready state machine.
type State int

const (
	StateInitial State = iota
	StateReady
	StateReloading
)

// Crawler owns the published snapshot and the single-flight guard that
// prevents overlapping crawls. Lock ordering: writeMu (single-flight)
// is acquired first and held for the whole crawl; snapMu only guards the
// instant of publishing (or, for update_crawl, the Ready->Reloading
// bookkeeping transition).
type Crawler struct {
	writeMu sync.Mutex

	snapMu   sync.RWMutex
	state    State
	snapshot Ready

	store   *catalog.Store
	logger  arbor.ILogger
	width   int
	probe   func(ctx context.Context, svc catalog.Service, inst catalog.Instance) CrawledInstance
}

// New creates a Crawler. probeFn runs one instance's probe (see Probe in
// probe.go); it is accepted as a parameter so tests can substitute a fake.
func New(store *catalog.Store, logger arbor.ILogger, width int, probeFn func(context.Context, catalog.Service, catalog.Instance) CrawledInstance) *Crawler {
	if width <= 0 {
		width = executor.DefaultWidth()
	}
	return &Crawler{
		store:  store,
		logger: logger,
		width:  width,
		probe:  probeFn,
		state:  StateInitial,
	}
}

// Snapshot returns the currently published snapshot. ok is false only
// while the crawler is in its Initial state (never crawled).
func (c *Crawler) Snapshot() (Ready, bool) {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	if c.state == StateInitial {
		return Ready{}, false
	}
	return c.snapshot, true
}

// State reports the crawler's current state-machine position.
func (c *Crawler) State() State {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.state
}

// Crawl runs one crawl pass if the single-writer lock is free; otherwise
// it is a no-op logged at warn level. Used for the initial Initial->Ready
// transition and by Loop.
func (c *Crawler) Crawl(ctx context.Context) {
	if !c.writeMu.TryLock() {
		if c.logger != nil {
			c.logger.Warn().Msg("crawl already in progress, skipping this tick")
		}
		return
	}
	defer c.writeMu.Unlock()
	c.runCrawl(ctx)
}

// UpdateCrawl transitions a Ready snapshot to Reloading (readers keep
// seeing the previous snapshot) before running the same crawl pass Crawl
// does. Like Crawl, a concurrent crawl in progress makes this a no-op.
func (c *Crawler) UpdateCrawl(ctx context.Context) {
	if !c.writeMu.TryLock() {
		if c.logger != nil {
			c.logger.Warn().Msg("crawl already in progress, skipping reload")
		}
		return
	}
	defer c.writeMu.Unlock()

	c.snapMu.Lock()
	if c.state == StateReady {
		c.state = StateReloading
	}
	c.snapMu.Unlock()

	c.runCrawl(ctx)
}

// runCrawl performs the actual probe-everything-and-publish pass. Callers
// must hold writeMu.
func (c *Crawler) runCrawl(ctx context.Context) {
	data := c.store.Get()

	agg := make(map[string]CrawledService, len(data.Services))
	for _, svc := range data.Services {
		agg[svc.Name] = CrawledService{Name: svc.Name} // pre-seeded, even if every probe fails
	}

	type job struct {
		svc  catalog.Service
		inst catalog.Instance
	}
	var jobs []job
	for _, svc := range data.Services {
		for _, inst := range svc.Instances {
			jobs = append(jobs, job{svc: svc, inst: inst})
		}
	}

	pool := executor.New[struct {
		service string
		result  CrawledInstance
	}](c.width)

	tasks := make([]func() struct {
		service string
		result  CrawledInstance
	}, len(jobs))
	for i, j := range jobs {
		j := j
		tasks[i] = func() struct {
			service string
			result  CrawledInstance
		} {
			return struct {
				service string
				result  CrawledInstance
			}{service: j.svc.Name, result: c.probe(ctx, j.svc, j.inst)}
		}
	}

	results := pool.Run(tasks)
	for _, r := range results {
		cs := agg[r.service]
		cs.Instances = append(cs.Instances, r.result)
		agg[r.service] = cs
	}

	fresh := Ready{ServicesByName: agg, BuiltAt: time.Now()}

	c.snapMu.Lock()
	c.snapshot = fresh
	c.state = StateReady
	c.snapMu.Unlock()

	if c.logger != nil {
		c.logger.Info().Int("services", len(agg)).Int("instances", len(jobs)).Msg("crawl complete")
	}
}

// Loop runs Crawl once immediately, then UpdateCrawl every interval until
// ctx is canceled.
func (c *Crawler) Loop(ctx context.Context, interval time.Duration) {
	c.Crawl(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.UpdateCrawl(ctx)
		}
	}
}
