// Package httpfetch implements urlfetcher.Fetcher with a Colly
// collector configured for raw, unpoliced single-shot GETs: revisits
// allowed, no rate limiting, no domain politeness delay. Those colly
// defaults exist for crawling and are explicitly switched off here —
// this package fetches whatever URL it is handed, once, synchronously.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"urlfetcher/internal/urlfetcher"
)

// Fetcher implements urlfetcher.Fetcher using a Colly collector cloned
// per call so concurrent fetches never share OnResponse/OnError state.
type Fetcher struct {
	base   *colly.Collector
	logger *zap.Logger
}

// New constructs a Fetcher. userAgent is sent on every request. The
// collector is built once here, not per fetch; New returns an error
// only if that collector is nil, and the server treats such an error
// as a startup failure.
func New(userAgent string, logger *zap.Logger) (*Fetcher, error) {
	base := colly.NewCollector(colly.UserAgent(userAgent))
	base.AllowURLRevisit = true
	// Deliver 4xx/5xx responses through OnResponse like any other
	// response: an origin error status is a completed fetch.
	base.ParseHTTPErrorResponse = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ForceAttemptHTTP2:     true,
	})
	if base == nil {
		return nil, errors.New("httpfetch: nil collector")
	}
	return &Fetcher{base: base, logger: logger}, nil
}

type fetchOutcome struct {
	resp urlfetcher.Response
}

// Fetch issues a single synchronous GET against url. It never returns
// a Go error: transport failures, malformed URLs, and deadline
// overruns are all folded into Response.ErrorCode so ResolveFetch can
// hand them to the client as ordinary data.
func (f *Fetcher) Fetch(ctx context.Context, url string, timeout time.Duration) urlfetcher.Response {
	collector := f.base.Clone()
	collector.SetRequestTimeout(timeout)

	outcome := make(chan fetchOutcome, 1)
	var once sync.Once
	deliver := func(r urlfetcher.Response) {
		once.Do(func() { outcome <- fetchOutcome{resp: r} })
	}

	collector.OnResponse(func(r *colly.Response) {
		deliver(urlfetcher.Response{
			Header: renderHeader(r),
			Body:   append([]byte{}, r.Body...),
		})
	})

	collector.OnError(func(r *colly.Response, err error) {
		deliver(urlfetcher.Response{ErrorCode: classifyError(err)})
	})

	go func() {
		if err := collector.Visit(url); err != nil {
			deliver(urlfetcher.Response{ErrorCode: classifyError(err)})
			return
		}
		collector.Wait()
	}()

	select {
	case o := <-outcome:
		return o.resp
	case <-ctx.Done():
		return urlfetcher.Response{ErrorCode: urlfetcher.ErrCodeTimeout}
	case <-time.After(timeout):
		return urlfetcher.Response{ErrorCode: urlfetcher.ErrCodeTimeout}
	}
}

// renderHeader reconstructs the raw status-line-plus-headers text a
// client would have seen on the wire, since Colly hands back a parsed
// http.Header rather than the original bytes.
func renderHeader(r *colly.Response) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", r.StatusCode, http.StatusText(r.StatusCode))
	if r.Headers != nil {
		keys := make([]string, 0, len(*r.Headers))
		for k := range *r.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, v := range (*r.Headers)[k] {
				fmt.Fprintf(&b, "%s: %s\r\n", k, v)
			}
		}
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

func classifyError(err error) int32 {
	if err == nil {
		return urlfetcher.ErrCodeTransport
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return urlfetcher.ErrCodeTimeout
	}
	if strings.Contains(err.Error(), "Client.Timeout") || strings.Contains(err.Error(), "timeout") {
		return urlfetcher.ErrCodeTimeout
	}
	return urlfetcher.ErrCodeTransport
}
