// Package probe checks provider endpoints directly. It is the health
// source for standalone deployments that have no studio server to
// aggregate failure counts for them.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/providerpulse/providerpulse/internal/health"
)

const (
	// SourceName identifies this health source.
	SourceName = "probe"

	// DefaultConcurrency bounds how many targets are probed at once.
	DefaultConcurrency = 4

	// DefaultTimeout is the per-target probe timeout.
	DefaultTimeout = 5 * time.Second
)

// Target is one provider endpoint to probe.
type Target struct {
	// Name identifies the provider.
	Name string

	// URL is requested with a plain GET.
	URL string
}

// ProberConfig holds configuration for the prober.
type ProberConfig struct {
	// Targets are the endpoints to probe.
	Targets []Target

	// Concurrency bounds parallel probes. Default: DefaultConcurrency.
	Concurrency int

	// Timeout per probe. Default: DefaultTimeout.
	Timeout time.Duration

	// Logger for probe diagnostics.
	Logger zerolog.Logger
}

// Prober probes each target and synthesizes health records with
// per-target consecutive failure counts. A failed probe is data, not an
// error: Fetch only fails when its context is canceled.
//
// Probes go through a plain HTTP client on purpose. Retrying inside a
// probe would hide exactly the flakiness the failure counts exist to
// measure.
type Prober struct {
	targets     []Target
	concurrency int
	timeout     time.Duration
	httpClient  *http.Client
	logger      zerolog.Logger

	mu       sync.Mutex
	failures map[string]int
	lastErrs map[string]string
}

var _ health.Source = (*Prober)(nil)

// NewProber creates a prober for the given targets.
func NewProber(cfg ProberConfig) *Prober {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Prober{
		targets:     cfg.Targets,
		concurrency: concurrency,
		timeout:     timeout,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      cfg.Logger,
		failures:    make(map[string]int),
		lastErrs:    make(map[string]string),
	}
}

// Name returns the source name.
func (p *Prober) Name() string {
	return SourceName
}

// Fetch probes every target concurrently and returns one record per
// target. Counts are only updated when the whole cycle completes, so a
// shutdown mid-probe cannot smear cancellation errors into them.
func (p *Prober) Fetch(ctx context.Context) ([]health.ProviderHealth, error) {
	targetsChan := make(chan Target, len(p.targets))
	resultsChan := make(chan probeResult, len(p.targets))

	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.probeWorker(ctx, targetsChan, resultsChan)
		}()
	}

	for _, target := range p.targets {
		targetsChan <- target
	}
	close(targetsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make(map[string]probeResult, len(p.targets))
	for pr := range resultsChan {
		results[pr.name] = pr
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	p.mu.Lock()
	defer p.mu.Unlock()

	records := make([]health.ProviderHealth, 0, len(p.targets))
	for _, target := range p.targets {
		if result, probed := results[target.Name]; probed {
			if result.err != nil {
				p.failures[target.Name]++
				p.lastErrs[target.Name] = result.err.Error()
				p.logger.Debug().
					Str("provider", target.Name).
					Int("consecutive_failures", p.failures[target.Name]).
					Err(result.err).
					Msg("probe failed")
			} else {
				p.failures[target.Name] = 0
				delete(p.lastErrs, target.Name)
			}
		}

		records = append(records, health.ProviderHealth{
			Name:                target.Name,
			ConsecutiveFailures: p.failures[target.Name],
			LastError:           p.lastErrs[target.Name],
			LastCheckedAt:       now,
		})
	}

	return records, nil
}

type probeResult struct {
	name string
	err  error
}

func (p *Prober) probeWorker(ctx context.Context, targets <-chan Target, results chan<- probeResult) {
	for target := range targets {
		select {
		case <-ctx.Done():
			return
		default:
			results <- probeResult{name: target.Name, err: p.probeTarget(ctx, target)}
		}
	}
}

func (p *Prober) probeTarget(ctx context.Context, target Target) error {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, target.URL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}
