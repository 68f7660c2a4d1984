// Package page models the scanned page's execution environment: a
// parsed document tree, the two request-issuing entry points the page
// would use, a cooperative task queue standing in for the page's event
// loop, and the page-wide evidence containers the probes write into.
//
// Probes never talk to globals. Every container and entry point hangs
// off an explicit *Page handed to each probe's Install.
package page

import (
	"context"

	"golang.org/x/net/html"

	"github.com/lcalzada-xor/pagetap/pkg/logger"
)

// Page is the in-process stand-in for one scanned page. It lives for
// exactly one page load; nothing on it is ever reset.
type Page struct {
	URL      string
	Document *html.Node
	Evidence *Evidence

	// Diag is the side diagnostic channel. Instrumentation-internal
	// failures go here and nowhere else.
	Diag *logger.Logger

	// Fetch is the modern request entry point. Probes replace it with
	// wrapping implementations; callers must observe no difference.
	Fetch FetchFunc

	// XHROpen and XHRSend are the legacy entry points, hookable the
	// same way.
	XHROpen func(x *XHRequest, method, url string)
	XHRSend func(x *XHRequest, body string)

	transport Transport
	flags     map[string]bool
	queue     []func()
	loaded    bool
	onLoad    []func()
}

// Transport performs the page's real network I/O beneath both entry
// points.
type Transport interface {
	RoundTrip(ctx context.Context, method, url, body string, header map[string]string) (*Response, error)
}

// New creates a page environment around a parsed document. transport
// may be nil for documents that issue no requests (pure DOM scans).
func New(pageURL string, doc *html.Node, transport Transport, diag *logger.Logger) *Page {
	if diag == nil {
		diag = logger.NewLogger(0)
	}
	p := &Page{
		URL:       pageURL,
		Document:  doc,
		Evidence:  NewEvidence(),
		Diag:      diag,
		transport: transport,
		flags:     make(map[string]bool),
	}
	p.Fetch = p.defaultFetch
	p.XHROpen = defaultXHROpen
	p.XHRSend = defaultXHRSend
	return p
}

// Flagged reports whether an installation guard flag is set.
func (p *Page) Flagged(name string) bool {
	return p.flags[name]
}

// SetFlag sets an installation guard flag. Flags survive for the page
// lifetime, which is what makes probe installation idempotent.
func (p *Page) SetFlag(name string) {
	p.flags[name] = true
}

// Enqueue schedules fn on the page's task queue.
func (p *Page) Enqueue(fn func()) {
	p.queue = append(p.queue, fn)
}

// Drain runs queued tasks in FIFO order until the queue is empty,
// including tasks enqueued while draining. Tasks run to completion
// without preemption, like callbacks on the page's own event loop.
func (p *Page) Drain() {
	for len(p.queue) > 0 {
		fn := p.queue[0]
		p.queue = p.queue[1:]
		fn()
	}
}

// OnLoad registers fn to run when initial structural loading finishes.
// If the page already finished loading, fn runs immediately.
func (p *Page) OnLoad(fn func()) {
	if p.loaded {
		fn()
		return
	}
	p.onLoad = append(p.onLoad, fn)
}

// FinishLoad signals structural-load completion. Registered callbacks
// run once, in registration order; later calls are no-ops.
func (p *Page) FinishLoad() {
	if p.loaded {
		return
	}
	p.loaded = true
	for _, fn := range p.onLoad {
		fn()
	}
	p.onLoad = nil
}

// Loaded reports whether FinishLoad has been called.
func (p *Page) Loaded() bool {
	return p.loaded
}
