package page

import (
	"context"
	"io"
)

// XHR ready states, matching the legacy API's terminal-state model.
const (
	XHRUnsent = 0
	XHRDone   = 4
)

// EventLoadEnd fires once a request reaches a terminal state, success
// or failure. Aborted requests never reach it.
const EventLoadEnd = "loadend"

// XHRequest is the legacy event-driven request object. Open stashes the
// method and URL, Send schedules the round trip on the page's task
// queue, and terminal-state listeners fire when the queue drains. A
// listener attached after Send returns therefore still sees the
// completion, exactly like on a real event loop.
type XHRequest struct {
	Method   string
	URL      string
	Status   int
	Response string
	Err      error

	page      *Page
	state     int
	aborted   bool
	body      string
	listeners map[string][]func(*XHRequest)
}

// NewXHRequest creates a legacy request bound to this page's hookable
// entry points.
func (p *Page) NewXHRequest() *XHRequest {
	return &XHRequest{
		page:      p,
		listeners: make(map[string][]func(*XHRequest)),
	}
}

// Open begins the request through the page's current open entry point.
func (x *XHRequest) Open(method, url string) {
	x.page.XHROpen(x, method, url)
}

// Send dispatches the request through the page's current send entry
// point. It returns immediately; completion is delivered on Drain.
func (x *XHRequest) Send(body string) {
	x.page.XHRSend(x, body)
}

// AddEventListener registers fn for an event. Listeners run in
// attachment order and are never reordered by instrumentation.
func (x *XHRequest) AddEventListener(event string, fn func(*XHRequest)) {
	x.listeners[event] = append(x.listeners[event], fn)
}

// Abort cancels a request that has not reached a terminal state. The
// queued completion is discarded; no terminal event ever fires.
func (x *XHRequest) Abort() {
	if x.state != XHRDone {
		x.aborted = true
	}
}

// ReadyState returns the request's current state.
func (x *XHRequest) ReadyState() int {
	return x.state
}

func (x *XHRequest) dispatch(event string) {
	for _, fn := range x.listeners[event] {
		fn(x)
	}
}

// defaultXHROpen stashes method and URL on the request object.
func defaultXHROpen(x *XHRequest, method, url string) {
	x.Method = method
	x.URL = url
}

// defaultXHRSend queues the round trip. The transport runs when the
// page drains its task queue; the terminal state and listeners follow
// in the same task.
func defaultXHRSend(x *XHRequest, body string) {
	x.body = body
	p := x.page
	p.Enqueue(func() {
		if x.aborted {
			return
		}
		if p.transport == nil {
			x.Err = errNoTransport
			x.state = XHRDone
			x.dispatch(EventLoadEnd)
			return
		}
		resp, err := p.transport.RoundTrip(context.Background(), x.Method, x.URL, x.body, nil)
		if err != nil {
			x.Err = err
			x.Status = 0
		} else {
			x.Status = resp.Status
			if resp.Body != nil {
				if b, rerr := io.ReadAll(resp.Body); rerr == nil {
					x.Response = string(b)
				}
				resp.Body.Close()
			}
		}
		x.state = XHRDone
		x.dispatch(EventLoadEnd)
	})
}
