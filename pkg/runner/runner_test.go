package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/lcalzada-xor/pagetap/pkg/logger"
	"github.com/lcalzada-xor/pagetap/pkg/models"
	"github.com/lcalzada-xor/pagetap/pkg/network"
)

func TestSubresources(t *testing.T) {
	const src = `<html><body>
		<script src="/app.js"></script>
		<script src="/app.js"></script>
		<img src="https://cdn.test/logo.png">
		<img src="">
		<iframe src="frame.html"></iframe>
		<img src="data:image/png;base64,xxx">
	</body></html>`

	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got := Subresources(doc, "https://a.test/dir/")
	want := []string{
		"https://a.test/app.js",
		"https://cdn.test/logo.png",
		"https://a.test/dir/frame.html",
	}
	if len(got) != len(want) {
		t.Fatalf("Got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Subresource %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSubresources_BadPageURL(t *testing.T) {
	doc, _ := html.Parse(strings.NewReader(`<html><body><img src="/x.png"></body></html>`))
	if got := Subresources(doc, "://not-a-url"); got != nil {
		t.Errorf("Got %v for an unparseable page URL, want nil", got)
	}
}

func TestScanPass(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>
			<div onclick="alert(1)">target</div>
			<script src="/app.js"></script>
		</body></html>`))
	})
	mux.HandleFunc("/app.js", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`document.write("<script>injected</scr" + "ipt>");`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	r := NewRunner(DefaultOptions())
	client := network.NewClient(2*time.Second, "", 1, 0)
	log := logger.NewLogger(0)

	rep, err := r.ScanPass(context.Background(), server.URL+"/", client, nil, log)
	if err != nil {
		t.Fatalf("ScanPass failed: %v", err)
	}

	if rep.ScanID == "" {
		t.Error("Report has no scan id")
	}

	// The subresource replay goes through the wrapped fetch, so the
	// interceptor logs it.
	var appJS *models.NetworkEvent
	for i := range rep.NetworkEvents {
		if strings.HasSuffix(rep.NetworkEvents[i].URL, "/app.js") {
			appJS = &rep.NetworkEvents[i]
		}
	}
	if appJS == nil {
		t.Fatalf("No network event for /app.js: %+v", rep.NetworkEvents)
	}
	if appJS.Status != 200 || appJS.Method != "GET" {
		t.Errorf("Event = %+v", appJS)
	}

	// Two scan passes over an unchanged tree double the markers.
	if n := len(rep.Markers); n == 0 || n%2 != 0 {
		t.Errorf("Got %d markers, want an even nonzero count from two passes", n)
	}

	var domSinks, netSinks int
	for _, s := range rep.Sinks {
		switch s.Type {
		case models.SinkDOM:
			domSinks++
		case models.SinkNetwork:
			netSinks++
		}
	}
	if domSinks != len(rep.Markers) {
		t.Errorf("Drained %d dom sinks from %d markers", domSinks, len(rep.Markers))
	}
	if netSinks != 1 {
		t.Errorf("Got %d network sinks, want 1 for the script body", netSinks)
	}
}

func TestScanPass_NoDOM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div onclick="alert(1)">x</div></body></html>`))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.NoDOM = true
	r := NewRunner(opts)
	client := network.NewClient(2*time.Second, "", 1, 0)

	rep, err := r.ScanPass(context.Background(), server.URL+"/", client, nil, logger.NewLogger(0))
	if err != nil {
		t.Fatalf("ScanPass failed: %v", err)
	}
	if len(rep.Markers) != 0 {
		t.Errorf("DOM scanning disabled but %d markers collected", len(rep.Markers))
	}
}

func TestScanPass_Unreachable(t *testing.T) {
	r := NewRunner(DefaultOptions())
	client := network.NewClient(200*time.Millisecond, "", 1, 0)

	_, err := r.ScanPass(context.Background(), "http://127.0.0.1:1/", client, nil, logger.NewLogger(0))
	if err == nil {
		t.Fatal("Expected error for an unreachable target")
	}
}
