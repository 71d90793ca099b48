// Package keepalive pings the bot's public hostname so free hosting tiers
// do not idle the process.
package keepalive

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/errors"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/hashicorp/go-retryablehttp"
)

// Prober requests one URL on a fixed interval
type Prober struct {
	url      string
	interval time.Duration
	client   *retryablehttp.Client
}

// New creates a prober for https://<hostname>
func New(hostname string, interval time.Duration) *Prober {
	return newProber("https://"+hostname, interval)
}

func newProber(url string, interval time.Duration) *Prober {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = nil

	return &Prober{url: url, interval: interval, client: client}
}

// Run probes until ctx is cancelled
func (p *Prober) Run(ctx context.Context) {
	defer errors.RecoverMiddleware()()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	logger.System(fmt.Sprintf("Keep-alive activo: %s cada %s", p.url, p.interval), "KeepAlive")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

// probe issues one request and returns the status code, 0 on failure
func (p *Prober) probe(ctx context.Context) int {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		logger.Error("🔴 [KEEP_ALIVE_ERR]", "KeepAlive")
		return 0
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logger.Error("🔴 [KEEP_ALIVE_ERR]", "KeepAlive")
		logger.Debug(err.Error(), "KeepAlive")
		return 0
	}
	defer resp.Body.Close()

	logger.Info(fmt.Sprintf("🟢 [KEEP_ALIVE]: Status %d", resp.StatusCode), "KeepAlive")
	return resp.StatusCode
}
