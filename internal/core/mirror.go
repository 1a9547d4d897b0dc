package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/logger"
)

const defaultProbeTimeout = 6 * time.Second

// MirrorResolver ranks interchangeable URLs by round-trip latency.
type MirrorResolver struct {
	client   *http.Client
	reporter Reporter
	log      *slog.Logger

	// ProbeTimeout bounds each HEAD request.
	ProbeTimeout time.Duration
}

// NewMirrorResolver creates a resolver. Nil arguments select defaults.
func NewMirrorResolver(client *http.Client, reporter Reporter, log *slog.Logger) *MirrorResolver {
	if client == nil {
		client = http.DefaultClient
	}
	if reporter == nil {
		reporter = NopReporter
	}
	if log == nil {
		log = logger.Discard()
	}
	return &MirrorResolver{
		client:       client,
		reporter:     reporter,
		log:          log,
		ProbeTimeout: defaultProbeTimeout,
	}
}

// Fastest returns the URLs whose probe succeeded, fastest first. An empty
// result means no ordering is available; it is not an error.
func (r *MirrorResolver) Fastest(ctx context.Context, urls []string) []string {
	results := r.Probe(ctx, urls)
	out := make([]string, len(results))
	for i, res := range results {
		out[i] = res.URL
	}
	return out
}

// Probe sends a HEAD request to every URL concurrently and returns the
// successful results sorted by elapsed time. Ties keep input order.
func (r *MirrorResolver) Probe(ctx context.Context, urls []string) []ProbeResult {
	if len(urls) == 0 {
		return nil
	}
	r.reporter.Info(fmt.Sprintf("开始获取最快镜像，可能需要一段时间... (%d 个地址)", len(urls)))

	type outcome struct {
		res ProbeResult
		err error
	}
	outcomes := make([]outcome, len(urls))

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			res, err := r.probeOne(ctx, u)
			outcomes[i] = outcome{res: res, err: err}
		}(i, u)
	}
	wg.Wait()

	var results []ProbeResult
	for i, o := range outcomes {
		if o.err != nil {
			r.log.Warn("mirror probe failed", "url", urls[i], "error", o.err)
			r.reporter.Warn(fmt.Sprintf("获取镜像失败: %s", urls[i]))
			continue
		}
		r.log.Debug("mirror probe ok", "url", o.res.URL,
			"elapsed_ms", o.res.Elapsed.Milliseconds(), "content_length", o.res.ContentLength)
		results = append(results, o.res)
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Elapsed < results[b].Elapsed
	})
	return results
}

func (r *MirrorResolver) probeOne(ctx context.Context, u string) (ProbeResult, error) {
	timeout := r.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return ProbeResult{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	begin := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return ProbeResult{}, err
	}
	_ = resp.Body.Close()
	elapsed := time.Since(begin)

	length := resp.ContentLength
	if length < 0 {
		length = 0
	}
	return ProbeResult{URL: u, Elapsed: elapsed, ContentLength: length}, nil
}
