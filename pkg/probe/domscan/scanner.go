// Package domscan walks the scanned document's element tree and flags
// attributes and inner markup matching the injection-sink pattern
// table. Every hit becomes a DOM marker carrying a reproducible
// structural path back to the flagged element.
//
// The scan is deliberately non-incremental: it runs once at injection
// time and exactly once more when structural loading finishes. Content
// inserted after the second pass is a known coverage gap.
package domscan

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/lcalzada-xor/pagetap/pkg/heuristics"
	"github.com/lcalzada-xor/pagetap/pkg/logger"
	"github.com/lcalzada-xor/pagetap/pkg/models"
	"github.com/lcalzada-xor/pagetap/pkg/page"
)

// GuardFlag marks a page whose scan passes are already scheduled.
const GuardFlag = "domscan.installed"

// Install runs the first scan pass immediately and registers the second
// for load completion. Idempotent per page.
func Install(p *page.Page, log *logger.Logger) {
	if p.Flagged(GuardFlag) {
		return
	}
	p.SetFlag(GuardFlag)

	Scan(p, log)
	p.OnLoad(func() {
		Scan(p, log)
	})
}

// Scan performs one full synchronous traversal of the page's element
// tree, appending a marker for every heuristic hit. Markers from
// earlier passes are kept as-is, so an unchanged tree yields duplicates
// on the second pass. Returns the number of markers appended.
func Scan(p *page.Page, log *logger.Logger) int {
	if p.Document == nil {
		return 0
	}
	added := 0
	walkElements(p.Document, func(n *html.Node) {
		added += inspectElement(p, n, log)
	})
	log.VV("domscan: pass appended %d markers", added)
	return added
}

func walkElements(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkElements(c, visit)
	}
}

// inspectElement checks one element's attributes and inner markup. A
// failure here is isolated: the traversal of remaining elements always
// continues.
func inspectElement(p *page.Page, n *html.Node, log *logger.Logger) (added int) {
	defer func() {
		if r := recover(); r != nil {
			log.Diag("domscan: element "+n.Data, fmt.Errorf("%v", r))
		}
	}()

	for _, attr := range n.Attr {
		// The serialized name="value" form is what the pattern table
		// understands: handler assignments match on the name, URI
		// schemes and markup fragments on the value.
		serialized := fmt.Sprintf("%s=%q", attr.Key, attr.Val)
		if !heuristics.IsSuspicious(serialized) {
			continue
		}
		m := models.DOMMarker{
			Tag:   n.Data,
			Kind:  models.KindAttribute,
			Name:  attr.Key,
			Value: attr.Val,
			Path:  ElementPath(n),
		}
		if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
			m.Sinks = SinkCalls(attr.Val)
		}
		p.Evidence.AppendMarker(m)
		added++
	}

	if inner := innerMarkup(n); inner != "" && heuristics.IsSuspicious(inner) {
		p.Evidence.AppendMarker(models.DOMMarker{
			Tag:   n.Data,
			Kind:  models.KindInnerMarkup,
			Value: inner,
			Path:  ElementPath(n),
		})
		added++
	}
	return added
}

// innerMarkup serializes the element's children, the equivalent of
// reading its inner HTML.
func innerMarkup(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return sb.String()
		}
	}
	return sb.String()
}
