package domscan

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// PathSeparator joins structural path segments, root first.
const PathSeparator = " > "

// ElementPath builds a reproducible structural identifier for an
// element: one tag:nth-of-type(i) segment per ancestor level, where i
// is the 1-based occurrence index among same-named siblings. In an
// unmodified tree the path resolves back to exactly this element.
func ElementPath(n *html.Node) string {
	var segs []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = parentElement(cur) {
		idx := 1
		for sib := cur.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if sib.Type == html.ElementNode && sib.Data == cur.Data {
				idx++
			}
		}
		segs = append(segs, fmt.Sprintf("%s:nth-of-type(%d)", cur.Data, idx))
	}
	// Built element-to-root; emit root-to-element.
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, PathSeparator)
}

func parentElement(n *html.Node) *html.Node {
	if n.Parent != nil && n.Parent.Type == html.ElementNode {
		return n.Parent
	}
	return nil
}

// ResolvePath walks a structural path from the document root back to
// its element. Returns nil when the tree no longer matches the path.
func ResolvePath(doc *html.Node, path string) *html.Node {
	if path == "" {
		return nil
	}
	cur := doc
	for _, seg := range strings.Split(path, PathSeparator) {
		tag, idx, err := parseSegment(seg)
		if err != nil {
			return nil
		}
		var next *html.Node
		seen := 0
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				seen++
				if seen == idx {
					next = c
					break
				}
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

func parseSegment(seg string) (tag string, idx int, err error) {
	open := strings.Index(seg, ":nth-of-type(")
	if open < 0 || !strings.HasSuffix(seg, ")") {
		return "", 0, fmt.Errorf("malformed path segment %q", seg)
	}
	tag = seg[:open]
	idx, err = strconv.Atoi(seg[open+len(":nth-of-type(") : len(seg)-1])
	if err != nil || idx < 1 {
		return "", 0, fmt.Errorf("malformed occurrence index in %q", seg)
	}
	return tag, idx, nil
}
