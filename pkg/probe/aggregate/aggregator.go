// Package aggregate unifies the other probes' output into the page's
// single ordered sink feed. At install time it drains every DOM marker
// accumulated so far into dom-type sinks, then re-wraps both network
// entry points to inspect bodies for executable-markup markers,
// emitting network-type sinks on match.
//
// The drain is one-time, not a live merge: markers appended after
// installation are not re-emitted.
package aggregate

import (
	"context"
	"io"

	"github.com/lcalzada-xor/pagetap/pkg/heuristics"
	"github.com/lcalzada-xor/pagetap/pkg/logger"
	"github.com/lcalzada-xor/pagetap/pkg/models"
	"github.com/lcalzada-xor/pagetap/pkg/page"
)

// GuardFlag marks a page that already aggregates. Independent of the
// network interceptor's guard: either probe installs without the other.
const GuardFlag = "aggregate.installed"

// Install drains existing DOM markers and layers body inspection over
// both entry points. Idempotent per page.
func Install(p *page.Page, log *logger.Logger) {
	if p.Flagged(GuardFlag) {
		return
	}
	p.SetFlag(GuardFlag)

	drainMarkers(p, log)
	wrapFetch(p)
	wrapLegacy(p)
}

// drainMarkers re-emits every marker collected so far as a dom-type
// sink. Ordering follows the marker log; nothing is deduplicated and
// the marker log itself is left untouched.
func drainMarkers(p *page.Page, log *logger.Logger) {
	markers := p.Evidence.Markers()
	for _, m := range markers {
		p.Evidence.AppendSink(models.Sink{
			Type:     models.SinkDOM,
			Location: m.Path,
			Value:    m.Value,
			Extra:    m.Name,
		})
	}
	log.VV("aggregate: drained %d markers", len(markers))
}

func wrapFetch(p *page.Page) {
	orig := p.Fetch
	ev := p.Evidence

	p.Fetch = func(ctx context.Context, target any, opts *page.FetchOptions) (*page.Response, error) {
		resp, err := orig(ctx, target, opts)
		if err != nil {
			return nil, err
		}
		_, url, rerr := page.ResolveTarget(target, opts)
		if rerr != nil {
			return resp, nil
		}
		if match, ok := inspectBody(resp); ok {
			ev.AppendSink(models.Sink{
				Type:     models.SinkNetwork,
				Location: url,
				Value:    match,
			})
		}
		return resp, nil
	}
}

// inspectBody reads the response text for an executable-markup marker
// and hands the caller back an equivalent stream.
func inspectBody(resp *page.Response) (string, bool) {
	if resp.Body == nil {
		return "", false
	}
	b, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = page.ReplayBody(b, err)
	if err != nil {
		return "", false
	}
	if _, match, ok := heuristics.Match(string(b)); ok {
		return match, true
	}
	return "", false
}

func wrapLegacy(p *page.Page) {
	origSend := p.XHRSend
	ev := p.Evidence

	p.XHRSend = func(x *page.XHRequest, body string) {
		origSend(x, body)
		x.AddEventListener(page.EventLoadEnd, func(x *page.XHRequest) {
			if _, match, ok := heuristics.Match(x.Response); ok {
				ev.AppendSink(models.Sink{
					Type:     models.SinkNetwork,
					Location: x.URL,
					Value:    match,
				})
			}
		})
	}
}
