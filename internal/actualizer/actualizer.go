// Package actualizer implements the offline maintenance engine: refresh
// each service's instance list from its upstream updater, probe every
// instance, update ping history and tags, prune chronically-unhealthy
// instances, and write the catalog back canonicalized.
package actualizer

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/fastside/fastside/internal/actualizer/updaters"
	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/crawler"
	"github.com/fastside/fastside/internal/executor"
	"github.com/fastside/fastside/internal/pinghistory"
	"github.com/fastside/fastside/internal/probeclient"
	"github.com/fastside/fastside/internal/tags"
)

// Config controls one actualize run.
type Config struct {
	MaxParallel int
	Timeout     time.Duration
	Proxies     []probeclient.Proxy
	Only        map[string]struct{} // nil/empty means every catalog service
}

// Actualizer runs the orchestration described in §4.5.
type Actualizer struct {
	registry updaters.Registry
	history  *pinghistory.Store
	logger   arbor.ILogger
	cfg      Config
}

// New creates an Actualizer.
func New(registry updaters.Registry, history *pinghistory.Store, logger arbor.ILogger, cfg Config) *Actualizer {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = executor.DefaultWidth()
	}
	return &Actualizer{registry: registry, history: history, logger: logger, cfg: cfg}
}

// Run mutates data in place (§4.5 steps 1-5), canonicalizes it, and
// returns the summary of what changed. Callers are responsible for
// writing data and the ping history store back out (step 6).
func (a *Actualizer) Run(ctx context.Context, data *catalog.StoredData) *ChangesSummary {
	summary := NewChangesSummary()
	httpClient := &http.Client{Timeout: a.cfg.Timeout}
	tagClient := tags.DefaultHTTPClient()

	for si := range data.Services {
		svc := &data.Services[si]
		if !a.inScope(svc.Name) {
			continue
		}
		a.refreshInstances(ctx, httpClient, svc, summary)
	}

	a.history.SyncServices(liveInstanceURLs(data))

	type probeJob struct {
		svc  *catalog.Service
		inst int
	}
	var jobs []probeJob
	for si := range data.Services {
		svc := &data.Services[si]
		if !a.inScope(svc.Name) {
			continue
		}
		for ii := range svc.Instances {
			jobs = append(jobs, probeJob{svc: svc, inst: ii})
		}
	}

	pool := executor.New[struct{}](a.cfg.MaxParallel)
	tasks := make([]func() struct{}, len(jobs))
	for i, j := range jobs {
		j := j
		tasks[i] = func() struct{} {
			a.probeAndUpdate(ctx, j.svc, &j.svc.Instances[j.inst], tagClient)
			return struct{}{}
		}
	}
	pool.Run(tasks)

	a.prune(data, summary)
	a.reportEmptyServices(data, summary)

	data.Canonicalize()
	return summary
}

// liveInstanceURLs builds the service->instance-URL-set view SyncServices
// needs to drop history for anything no longer in the catalog.
func liveInstanceURLs(data *catalog.StoredData) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(data.Services))
	for _, svc := range data.Services {
		urls := make(map[string]struct{}, len(svc.Instances))
		for _, inst := range svc.Instances {
			urls[inst.URL] = struct{}{}
		}
		out[svc.Name] = urls
	}
	return out
}

func (a *Actualizer) inScope(name string) bool {
	if len(a.cfg.Only) == 0 {
		return true
	}
	_, ok := a.cfg.Only[name]
	return ok
}

// refreshInstances runs step 1-2: call the registered updater if any,
// append URLs not already present, and record additions. Updater failures
// leave the instance list unchanged (normalized).
func (a *Actualizer) refreshInstances(ctx context.Context, client *http.Client, svc *catalog.Service, summary *ChangesSummary) {
	updater := a.registry.Lookup(svc.Name)
	if updater == nil {
		return
	}

	fetched, err := updater.Update(ctx, client)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn().Str("service", svc.Name).Err(err).Msg("updater failed, keeping existing instances")
		}
		return
	}

	existing := make(map[string]struct{}, len(svc.Instances))
	for _, inst := range svc.Instances {
		existing[inst.URL] = struct{}{}
	}

	var added []string
	for _, url := range fetched {
		if _, ok := existing[url]; ok {
			continue
		}
		svc.Instances = append(svc.Instances, catalog.NewInstance(url, nil))
		existing[url] = struct{}{}
		added = append(added, url)
	}

	summary.AddInstances(svc.Name, added)
}

// probeAndUpdate runs step 3: probe the instance with the same semantics
// as the crawler, push the result into its ping history, and recompute
// its tags.
func (a *Actualizer) probeAndUpdate(ctx context.Context, svc *catalog.Service, inst *catalog.Instance, tagClient *http.Client) {
	opts := probeclient.OptionsFromService(*svc, a.cfg.Timeout, a.cfg.Proxies)
	client, err := probeclient.New(opts, inst.Tags)
	var result crawler.CrawledInstance
	if err != nil {
		result = crawler.CrawledInstance{URL: inst.URL, Status: crawler.ProbeStatus{Kind: crawler.StatusBuilder}}
	} else {
		result = crawler.Probe(ctx, client, *svc, *inst)
	}

	now := time.Now()
	h := a.history.For(svc.Name, inst.URL)
	h.Cleanup(now)
	h.Push(now, result.Status.IsOk())

	newTags := tags.Recompute(ctx, tagClient, inst.URL, inst.TagList())
	inst.Tags = tagListToSet(newTags)
}

func tagListToSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// prune runs step 4: remove any instance whose history is ready and below
// the uptime floor, from both the catalog and the history store.
func (a *Actualizer) prune(data *catalog.StoredData, summary *ChangesSummary) {
	candidates := a.history.PruneCandidates()
	if len(candidates) == 0 {
		return
	}

	byService := map[string]map[string]struct{}{}
	for _, key := range candidates {
		set, ok := byService[key.Service]
		if !ok {
			set = map[string]struct{}{}
			byService[key.Service] = set
		}
		set[key.URL] = struct{}{}
		summary.MarkRemoved(key)
	}

	for si := range data.Services {
		svc := &data.Services[si]
		urls, ok := byService[svc.Name]
		if !ok {
			continue
		}
		kept := svc.Instances[:0]
		for _, inst := range svc.Instances {
			if _, prune := urls[inst.URL]; prune {
				a.history.Remove(svc.Name, inst.URL)
				continue
			}
			kept = append(kept, inst)
		}
		svc.Instances = kept
	}
}

// reportEmptyServices runs step 5: flag services with zero instances and
// no deprecation message.
func (a *Actualizer) reportEmptyServices(data *catalog.StoredData, summary *ChangesSummary) {
	for _, svc := range data.Services {
		if len(svc.Instances) == 0 && svc.DeprecatedMessage == "" {
			summary.MarkEmptyWithoutDeprecation(svc.Name)
		}
	}
}
