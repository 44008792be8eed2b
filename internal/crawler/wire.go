package crawler

import (
	"context"
	"time"

	"github.com/fastside/fastside/internal/catalog"
	"github.com/fastside/fastside/internal/probeclient"
)

// NewProbeFunc builds the probe function New expects, wiring the probe
// client factory (§4.1) per instance: each call gets a client scoped to
// that service's redirect policy and that instance's tag-matched proxy.
func NewProbeFunc(timeout time.Duration, proxies []probeclient.Proxy) func(context.Context, catalog.Service, catalog.Instance) CrawledInstance {
	return func(ctx context.Context, svc catalog.Service, inst catalog.Instance) CrawledInstance {
		opts := probeclient.OptionsFromService(svc, timeout, proxies)
		client, err := probeclient.New(opts, inst.Tags)
		if err != nil {
			return CrawledInstance{
				URL:    inst.URL,
				Tags:   inst.Tags,
				Status: ProbeStatus{Kind: StatusBuilder},
			}
		}
		return Probe(ctx, client, svc, inst)
	}
}
