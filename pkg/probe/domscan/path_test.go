package domscan

import (
	"testing"

	"golang.org/x/net/html"
)

func TestElementPath_RoundTrip(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div><span>a</span><span>b</span></div>
		<div><p>c</p><span>d</span><span>e</span></div>
	</body></html>`)

	var checked int
	walkElements(doc, func(n *html.Node) {
		path := ElementPath(n)
		if path == "" {
			t.Errorf("Empty path for <%s>", n.Data)
			return
		}
		if got := ResolvePath(doc, path); got != n {
			t.Errorf("Path %q resolved to a different node", path)
		}
		checked++
	})
	if checked < 8 {
		t.Fatalf("Walked only %d elements, test document is wrong", checked)
	}
}

func TestElementPath_Deterministic(t *testing.T) {
	doc := parseDoc(t, `<html><body><div><span>x</span></div></body></html>`)
	var target *html.Node
	walkElements(doc, func(n *html.Node) {
		if n.Data == "span" {
			target = n
		}
	})
	if target == nil {
		t.Fatal("No span in test document")
	}

	first := ElementPath(target)
	second := ElementPath(target)
	if first != second {
		t.Errorf("Paths differ across calls: %q vs %q", first, second)
	}

	want := "html:nth-of-type(1) > body:nth-of-type(1) > div:nth-of-type(1) > span:nth-of-type(1)"
	if first != want {
		t.Errorf("Got path %q, want %q", first, want)
	}
}

func TestElementPath_SiblingIndices(t *testing.T) {
	doc := parseDoc(t, `<html><body><div>a</div><div>b</div><div>c</div></body></html>`)

	var divs []*html.Node
	walkElements(doc, func(n *html.Node) {
		if n.Data == "div" {
			divs = append(divs, n)
		}
	})
	if len(divs) != 3 {
		t.Fatalf("Found %d divs, want 3", len(divs))
	}

	// Same-named siblings get distinct 1-based occurrence indices.
	seen := make(map[string]bool)
	for _, d := range divs {
		path := ElementPath(d)
		if seen[path] {
			t.Errorf("Duplicate path %q for distinct siblings", path)
		}
		seen[path] = true
		if ResolvePath(doc, path) != d {
			t.Errorf("Path %q did not resolve to its own element", path)
		}
	}
}

func TestResolvePath_Stale(t *testing.T) {
	doc := parseDoc(t, `<html><body><div>only one</div></body></html>`)

	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"missing occurrence", "html:nth-of-type(1) > body:nth-of-type(1) > div:nth-of-type(2)"},
		{"wrong tag", "html:nth-of-type(1) > body:nth-of-type(1) > span:nth-of-type(1)"},
		{"malformed segment", "html:nth-of-type(1) > body"},
		{"zero index", "html:nth-of-type(0)"},
		{"garbage", "not a path at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePath(doc, tt.path); got != nil {
				t.Errorf("ResolvePath(%q) = <%s>, want nil", tt.path, got.Data)
			}
		})
	}
}
