package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/logger"
)

// downloadRounds is the number of passes over the candidate list.
const downloadRounds = 3

const streamChunkSize = 32 * 1024

// DownloadOptions configures Fetcher.Download.
type DownloadOptions struct {
	Headers            map[string]string
	Params             url.Values
	Cookies            []*http.Cookie
	InsecureSkipVerify bool
	UseProxy           bool
	Proxy              string

	// Timeout bounds a buffered request, or the idle time between two reads
	// of a streamed one. Zero selects 30s.
	Timeout time.Duration

	// Stream copies the body chunk by chunk and reports progress.
	Stream   bool
	Progress ProgressSink
}

type attemptKind int

const (
	attemptOK attemptKind = iota
	attemptRetryable
	attemptFatal
)

// attemptResult is the outcome of one GET against one URL.
type attemptResult struct {
	kind  attemptKind
	bytes int64
	err   error
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

// Fetcher downloads one file from a list of equivalent URLs.
type Fetcher struct {
	reporter  Reporter
	log       *slog.Logger
	newClient func(ClientOptions) (*http.Client, error)
}

// NewFetcher creates a Fetcher. Nil arguments select defaults.
func NewFetcher(reporter Reporter, log *slog.Logger) *Fetcher {
	if reporter == nil {
		reporter = NopReporter
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Fetcher{
		reporter:  reporter,
		log:       log,
		newClient: NewHTTPClient,
	}
}

// Download fetches dest from the first URL that answers with a 2xx status.
// The candidate list is walked in order up to three times. The body is
// written to dest+".part" and renamed into place only when complete, so a
// failed download never replaces a previous file. Every failure is reported
// as ErrDownloadFailed.
func (f *Fetcher) Download(ctx context.Context, urls []string, dest string, opts DownloadOptions) (*DownloadResult, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no candidate URLs", ErrDownloadFailed)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultDownloadTimeout
	}
	if opts.Progress == nil {
		opts.Progress = NopProgress
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating directory: %w", ErrDownloadFailed, err)
	}

	clientTimeout := opts.Timeout
	if opts.Stream {
		// Streamed bodies are bounded by the idle timer instead.
		clientTimeout = 0
	}
	client, err := f.newClient(ClientOptions{
		InsecureSkipVerify: opts.InsecureSkipVerify,
		UseProxy:           opts.UseProxy,
		Proxy:              opts.Proxy,
		Timeout:            clientTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	part := dest + ".part"
	attempts := 0
	var lastErr error

	for round := 1; round <= downloadRounds; round++ {
		for _, u := range urls {
			if err := ctx.Err(); err != nil {
				_ = os.Remove(part)
				return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
			}

			attempts++
			res := f.attempt(ctx, client, u, part, filepath.Base(dest), opts)

			switch res.kind {
			case attemptOK:
				if err := os.Rename(part, dest); err != nil {
					_ = os.Remove(part)
					f.log.Error("moving download into place failed", "path", dest, "error", err)
					return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
				}
				abs, _ := filepath.Abs(dest)
				f.reporter.Info(fmt.Sprintf("下载 %s 成功.. Path: %s", u, abs))
				return &DownloadResult{URL: u, Path: dest, Bytes: res.bytes, Attempts: attempts}, nil

			case attemptRetryable:
				lastErr = res.err
				f.log.Warn("download attempt failed", "url", u, "round", round, "error", res.err)
				f.reporter.Warn(fmt.Sprintf("下载 %s 失败.. 尝试下一个地址..", u))

			case attemptFatal:
				_ = os.Remove(part)
				f.log.Error("download aborted", "url", u, "error", res.err)
				f.reporter.Error(fmt.Sprintf("下载 %s 错误: %v", u, res.err))
				return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, res.err)
			}
		}
	}

	_ = os.Remove(part)
	f.reporter.Error(fmt.Sprintf("下载 %s 超时.. 已尝试 %d 次", filepath.Base(dest), attempts))
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrDownloadFailed, attempts, lastErr)
}

// attempt performs one GET and writes the body to part. Transport and HTTP
// status problems are retryable; local file-system problems and a cancelled
// parent context are fatal.
func (f *Fetcher) attempt(ctx context.Context, client *http.Client, rawURL, part, name string, opts DownloadOptions) attemptResult {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var idle *idleTimer
	if opts.Stream {
		idle = newIdleTimer(opts.Timeout, cancel)
		defer idle.stop()
	}

	retryable := func(err error) attemptResult {
		if ctx.Err() != nil {
			return attemptResult{kind: attemptFatal, err: ctx.Err()}
		}
		if idle != nil && idle.fired() {
			err = fmt.Errorf("no data for %s: %w", opts.Timeout, context.DeadlineExceeded)
		}
		return attemptResult{kind: attemptRetryable, err: err}
	}

	req, err := f.newRequest(reqCtx, rawURL, opts)
	if err != nil {
		return retryable(err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return retryable(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return retryable(&StatusError{URL: rawURL, StatusCode: resp.StatusCode})
	}

	file, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return attemptResult{kind: attemptFatal, err: err}
	}
	defer func() { _ = file.Close() }()

	var written int64
	if !opts.Stream {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retryable(err)
		}
		n, err := file.Write(body)
		if err != nil {
			return attemptResult{kind: attemptFatal, err: err}
		}
		written = int64(n)
	} else {
		abs, _ := filepath.Abs(part)
		f.reporter.Info(fmt.Sprintf("开始下载 %s.. Url: %s.. Path: %s", name, rawURL, abs))

		tracker := opts.Progress.Start(name, resp.ContentLength)
		written, err = streamBody(file, resp.Body, idle, tracker)
		if err != nil {
			tracker.Finish(err)
			if errors.Is(err, errLocalWrite) {
				return attemptResult{kind: attemptFatal, err: err}
			}
			return retryable(err)
		}
		tracker.Finish(nil)
	}

	if err := file.Close(); err != nil {
		return attemptResult{kind: attemptFatal, err: err}
	}
	return attemptResult{kind: attemptOK, bytes: written}
}

func (f *Fetcher) newRequest(ctx context.Context, rawURL string, opts DownloadOptions) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if len(opts.Params) > 0 {
		q := req.URL.Query()
		for k, vs := range opts.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	for _, c := range opts.Cookies {
		req.AddCookie(c)
	}
	return req, nil
}

var errLocalWrite = errors.New("writing download")

// streamBody copies src to dst chunk by chunk, writing every chunk as soon
// as it arrives and reporting the running total.
func streamBody(dst io.Writer, src io.Reader, idle *idleTimer, tracker ProgressTracker) (int64, error) {
	buf := make([]byte, streamChunkSize)
	var total int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if idle != nil {
				idle.reset()
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return total, fmt.Errorf("%w: %w", errLocalWrite, err)
			}
			total += int64(n)
			tracker.Update(total)
		}
		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			return total, readErr
		}
	}
}

// idleTimer cancels a request when no data arrives for the timeout.
type idleTimer struct {
	timeout time.Duration
	timer   *time.Timer
	expired atomic.Bool
}

func newIdleTimer(timeout time.Duration, cancel context.CancelFunc) *idleTimer {
	t := &idleTimer{timeout: timeout}
	t.timer = time.AfterFunc(timeout, func() {
		t.expired.Store(true)
		cancel()
	})
	return t
}

func (t *idleTimer) reset() {
	t.timer.Reset(t.timeout)
}

func (t *idleTimer) stop() {
	t.timer.Stop()
}

func (t *idleTimer) fired() bool {
	return t.expired.Load()
}
