package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var errNoTransport = errors.New("page has no transport")

// FetchFunc is the modern request entry point. target is either a plain
// URL string or a *Request descriptor; opts may be nil.
type FetchFunc func(ctx context.Context, target any, opts *FetchOptions) (*Response, error)

// Request is the descriptor form of a fetch target.
type Request struct {
	Method string            `json:"method"`
	URL    string            `json:"url"`
	Body   string            `json:"body,omitempty"`
	Header map[string]string `json:"header,omitempty"`
}

// FetchOptions carries per-call settings for the string-target form.
type FetchOptions struct {
	Method string
	Body   string
	Header map[string]string
}

// Response is what a fetch resolves to. Body is consumable exactly
// once, like a response stream.
type Response struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
	URL    string
}

// ReplayBody builds a response body that replays already-read bytes
// and, when the original read failed mid-stream, fails at the same
// point. Probes use it to duplicate a body without the caller noticing.
func ReplayBody(b []byte, err error) io.ReadCloser {
	r := io.Reader(bytes.NewReader(b))
	if err != nil {
		r = io.MultiReader(r, errReader{err})
	}
	return io.NopCloser(r)
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

// ResolveTarget normalizes a fetch target into a method and URL,
// whichever form the caller gave. Method defaults to GET.
func ResolveTarget(target any, opts *FetchOptions) (method, url string, err error) {
	switch t := target.(type) {
	case string:
		url = t
	case *Request:
		if t == nil {
			return "", "", fmt.Errorf("nil request descriptor")
		}
		url = t.URL
		method = t.Method
	case Request:
		url = t.URL
		method = t.Method
	default:
		return "", "", fmt.Errorf("unsupported fetch target %T", target)
	}
	if method == "" && opts != nil {
		method = opts.Method
	}
	if method == "" {
		method = http.MethodGet
	}
	if url == "" {
		return "", "", fmt.Errorf("fetch target has no URL")
	}
	return strings.ToUpper(method), url, nil
}

// defaultFetch is the unwrapped entry point: resolve the target and run
// it through the page transport.
func (p *Page) defaultFetch(ctx context.Context, target any, opts *FetchOptions) (*Response, error) {
	method, url, err := ResolveTarget(target, opts)
	if err != nil {
		return nil, err
	}
	if p.transport == nil {
		return nil, errNoTransport
	}
	var body string
	var header map[string]string
	if req, ok := target.(*Request); ok && req != nil {
		body = req.Body
		header = req.Header
	} else if opts != nil {
		body = opts.Body
		header = opts.Header
	}
	return p.transport.RoundTrip(ctx, method, url, body, header)
}
