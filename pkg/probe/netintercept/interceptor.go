// Package netintercept installs transparent wrappers around the page's
// two request-issuing entry points. The wrappers record every completed
// request into the page-wide network event log (modern path) or hand a
// capture record to the host-supplied callback (legacy path), while the
// caller observes exactly what the unwrapped call would have produced.
package netintercept

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/lcalzada-xor/pagetap/pkg/config"
	"github.com/lcalzada-xor/pagetap/pkg/logger"
	"github.com/lcalzada-xor/pagetap/pkg/models"
	"github.com/lcalzada-xor/pagetap/pkg/page"
)

// GuardFlag marks a page whose entry points are already wrapped.
// Re-running Install against a flagged page is a no-op, so requests are
// never double-counted.
const GuardFlag = "netintercept.installed"

// CaptureFunc receives one record per completed legacy request. The
// host provides it; when nil, completions are simply dropped.
type CaptureFunc func(models.CaptureRecord)

// Install wraps the page's fetch and legacy entry points at most once
// per page load.
func Install(p *page.Page, capture CaptureFunc, log *logger.Logger) {
	if p.Flagged(GuardFlag) {
		return
	}
	p.SetFlag(GuardFlag)
	wrapFetch(p, log)
	wrapLegacy(p, capture, log)
}

func wrapFetch(p *page.Page, log *logger.Logger) {
	orig := p.Fetch
	ev := p.Evidence

	p.Fetch = func(ctx context.Context, target any, opts *page.FetchOptions) (*page.Response, error) {
		method, url, rerr := page.ResolveTarget(target, opts)
		if rerr != nil {
			// Nothing to record; let the original produce whatever
			// error the caller would have seen anyway.
			return orig(ctx, target, opts)
		}

		start := time.Now()
		resp, err := orig(ctx, target, opts)
		if err != nil {
			// Observe, never transform: the error goes back unchanged
			// and only the diagnostic channel hears about it.
			log.Diag("netintercept: fetch "+url, err)
			return nil, err
		}

		body := duplicateBody(resp, log)
		ev.AppendNetworkEvent(models.NetworkEvent{
			Method:       method,
			URL:          url,
			Status:       resp.Status,
			DurationMs:   time.Since(start).Milliseconds(),
			ResponseBody: clip(body),
		})
		return resp, nil
	}
}

// duplicateBody decodes the response body for logging and replaces it
// with an equivalent stream, so the caller still consumes the body
// exactly once. A read failure is replayed to the caller at the point
// it would have occurred unwrapped.
func duplicateBody(resp *page.Response, log *logger.Logger) string {
	if resp.Body == nil {
		return ""
	}
	b, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = page.ReplayBody(b, err)
	if err != nil {
		log.Diag("netintercept: body", err)
		return ""
	}
	return string(b)
}

func clip(s string) string {
	if len(s) > config.MaxBodyCapture {
		return s[:config.MaxBodyCapture]
	}
	return s
}

func wrapLegacy(p *page.Page, capture CaptureFunc, log *logger.Logger) {
	origOpen := p.XHROpen
	origSend := p.XHRSend

	var mu sync.Mutex
	stash := make(map[*page.XHRequest][2]string) // method, url

	p.XHROpen = func(x *page.XHRequest, method, url string) {
		origOpen(x, method, url)
		mu.Lock()
		stash[x] = [2]string{method, url}
		mu.Unlock()
	}

	p.XHRSend = func(x *page.XHRequest, body string) {
		origSend(x, body)

		mu.Lock()
		info := stash[x]
		mu.Unlock()

		// Appending a listener leaves every listener the page attached
		// at its original position; only completions already past are
		// missed, and those never terminate through this hook anyway.
		x.AddEventListener(page.EventLoadEnd, func(x *page.XHRequest) {
			if capture == nil {
				return
			}
			defer func() {
				if r := recover(); r != nil {
					log.Diag("netintercept: capture", fmt.Errorf("%v", r))
				}
			}()
			capture(models.CaptureRecord{
				Method:       info[0],
				URL:          info[1],
				Status:       x.Status,
				RequestBody:  body,
				ResponseBody: x.Response,
			})
		})
	}
}
