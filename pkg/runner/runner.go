// Package runner drives scan passes: it plays the role of the
// orchestrating scanner that injects the probes into a page and drains
// their evidence containers afterwards.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/lcalzada-xor/pagetap/pkg/config"
	"github.com/lcalzada-xor/pagetap/pkg/logger"
	"github.com/lcalzada-xor/pagetap/pkg/models"
	"github.com/lcalzada-xor/pagetap/pkg/network"
	"github.com/lcalzada-xor/pagetap/pkg/output"
	"github.com/lcalzada-xor/pagetap/pkg/page"
	"github.com/lcalzada-xor/pagetap/pkg/probe/aggregate"
	"github.com/lcalzada-xor/pagetap/pkg/probe/domscan"
	"github.com/lcalzada-xor/pagetap/pkg/probe/netintercept"
	"github.com/lcalzada-xor/pagetap/pkg/store"
)

// Runner handles the execution of scan passes
type Runner struct {
	options *Options
}

// NewRunner creates a new Runner instance
func NewRunner(options *Options) *Runner {
	return &Runner{options: options}
}

// Run reads target URLs from stdin and scans them with a worker pool.
func (r *Runner) Run() {
	verboseLevel := 0
	if r.options.Verbose {
		verboseLevel = 1
	}
	if r.options.VeryVerbose {
		verboseLevel = 2
	}
	log := logger.NewLogger(verboseLevel)

	// Create root context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		if !r.options.Silent {
			fmt.Fprintln(os.Stderr, "\n[!] Received interrupt, shutting down...")
		}
		cancel()
	}()

	client := network.NewClient(r.options.Timeout, r.options.Proxy, r.options.Concurrency, r.options.RateLimit)

	var db *store.Store
	if r.options.DatabasePath != "" {
		var err error
		db, err = store.Open(r.options.DatabasePath)
		if err != nil {
			log.Error("open evidence database: %v", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	headerMap := make(map[string]string)
	for _, h := range r.options.Headers {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) == 2 {
			headerMap[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	if !r.options.Silent {
		log.Info("pagetap %s | %d workers, timeout %v", config.Version, r.options.Concurrency, r.options.Timeout)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var (
		statsMu     sync.Mutex
		scannedURLs int
		totalSinks  int
	)
	var outMu sync.Mutex

	for i := 0; i < r.options.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case target, ok := <-jobs:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					rep, err := r.ScanPass(ctx, target, client, headerMap, log)
					if err != nil {
						if err != context.Canceled && !r.options.Silent {
							fmt.Fprintf(os.Stderr, "[!] Error scanning %s: %v\n", target, err)
						}
						continue
					}

					statsMu.Lock()
					scannedURLs++
					totalSinks += len(rep.Sinks)
					statsMu.Unlock()

					if db != nil {
						if err := db.SaveReport(rep); err != nil {
							log.Error("persist %s: %v", target, err)
						}
					}

					if out := output.Format(rep, r.options.OutputFormat); out != "" {
						outMu.Lock()
						fmt.Println(out)
						outMu.Unlock()
					}
				}
			}
		}()
	}

	// Read from Stdin
	sc := bufio.NewScanner(os.Stdin)
	go func() {
		for sc.Scan() {
			if ctx.Err() != nil {
				break
			}
			target := strings.TrimSpace(sc.Text())
			if target == "" {
				continue
			}
			select {
			case jobs <- target:
			case <-ctx.Done():
				close(jobs)
				return
			}
		}
		close(jobs)
	}()

	wg.Wait()

	if !r.options.Silent {
		fmt.Fprintf(os.Stderr, "\n[*] Scan complete: %d URLs processed, %d sinks collected\n", scannedURLs, totalSinks)
	}
}

// ScanPass loads one target, builds its page environment, injects the
// probes in order (network interceptor and DOM scanner first, the
// aggregator after structural load), replays subresources through the
// instrumented entry points, and drains the evidence surface.
func (r *Runner) ScanPass(ctx context.Context, target string, client *network.Client, header map[string]string, log *logger.Logger) (output.Report, error) {
	rep := output.Report{ScanID: uuid.NewString(), URL: target}

	resp, err := client.RoundTrip(ctx, "GET", target, "", header)
	if err != nil {
		return rep, fmt.Errorf("load %s: %w", target, err)
	}
	doc, err := html.Parse(resp.Body)
	resp.Body.Close()
	if err != nil {
		return rep, fmt.Errorf("parse %s: %w", target, err)
	}

	pg := page.New(target, doc, client, log)

	var capMu sync.Mutex
	netintercept.Install(pg, func(rec models.CaptureRecord) {
		capMu.Lock()
		rep.CaptureRecords = append(rep.CaptureRecords, rec)
		capMu.Unlock()
	}, log)
	if !r.options.NoDOM {
		domscan.Install(pg, log)
	}

	// The document arrived fully parsed, so structural loading is done:
	// this triggers the scanner's second pass.
	pg.FinishLoad()

	aggregate.Install(pg, log)

	if !r.options.NoSubresources {
		r.replaySubresources(ctx, pg, log)
	}
	pg.Drain()

	rep.NetworkEvents = pg.Evidence.NetworkEvents()
	rep.Markers = pg.Evidence.Markers()
	rep.Sinks = pg.Evidence.Sinks()
	return rep, nil
}

// replaySubresources re-issues the document's script, image and frame
// sources through the page's own fetch entry point, so the wrapped call
// path sees the traffic the page itself would generate.
func (r *Runner) replaySubresources(ctx context.Context, pg *page.Page, log *logger.Logger) {
	for _, u := range Subresources(pg.Document, pg.URL) {
		if ctx.Err() != nil {
			return
		}
		resp, err := pg.Fetch(ctx, u, nil)
		if err != nil {
			log.Diag("runner: subresource "+u, err)
			continue
		}
		// The interceptor already captured the body; the caller-side
		// copy just gets discarded.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

// Subresources extracts same-page subresource URLs (script/img/iframe
// sources), resolved against the page URL, capped at MaxSubresources.
func Subresources(doc *html.Node, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(out) >= config.MaxSubresources {
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "img", "iframe":
				for _, attr := range n.Attr {
					if attr.Key != "src" || attr.Val == "" {
						continue
					}
					ref, err := base.Parse(attr.Val)
					if err != nil || (ref.Scheme != "http" && ref.Scheme != "https") {
						continue
					}
					u := ref.String()
					if !seen[u] {
						seen[u] = true
						out = append(out, u)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}
