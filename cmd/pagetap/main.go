package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lcalzada-xor/pagetap/pkg/config"
	"github.com/lcalzada-xor/pagetap/pkg/runner"
)

type headerFlags []string

func (h *headerFlags) String() string {
	return fmt.Sprint(*h)
}

func (h *headerFlags) Set(value string) error {
	*h = append(*h, value)
	return nil
}

func main() {
	opts := runner.DefaultOptions()

	// Define flags with both short and long names
	flag.IntVar(&opts.Concurrency, "c", config.DefaultConcurrency, "Concurrency level")
	flag.IntVar(&opts.Concurrency, "concurrency", config.DefaultConcurrency, "Concurrency level")

	flag.DurationVar(&opts.Timeout, "t", config.DefaultTimeout, "Request timeout")
	flag.DurationVar(&opts.Timeout, "timeout", config.DefaultTimeout, "Request timeout")

	flag.StringVar(&opts.Proxy, "x", "", "Proxy URL (e.g. http://127.0.0.1:8080)")
	flag.StringVar(&opts.Proxy, "proxy", "", "Proxy URL (e.g. http://127.0.0.1:8080)")

	flag.Float64Var(&opts.RateLimit, "rl", 0, "Rate limit in requests per second (0 = unlimited)")
	flag.Float64Var(&opts.RateLimit, "rate-limit", 0, "Rate limit in requests per second (0 = unlimited)")

	var headers headerFlags
	flag.Var(&headers, "H", "Custom header (e.g. 'Cookie: session=123')")
	flag.Var(&headers, "header", "Custom header (e.g. 'Cookie: session=123')")

	flag.BoolVar(&opts.Verbose, "v", false, "Verbose output")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Verbose output")

	var veryVerbose bool
	flag.BoolVar(&veryVerbose, "vv", false, "Very verbose output (debugging)")

	flag.BoolVar(&opts.Silent, "s", false, "Silent mode (suppress errors)")
	flag.BoolVar(&opts.Silent, "silent", false, "Silent mode (suppress errors)")

	flag.StringVar(&opts.OutputFormat, "o", "jsonl", "Output format: jsonl, json, human")
	flag.StringVar(&opts.OutputFormat, "output", "jsonl", "Output format: jsonl, json, human")

	flag.StringVar(&opts.DatabasePath, "db", "", "Persist drained evidence to a SQLite database at this path")

	flag.BoolVar(&opts.NoDOM, "no-dom", false, "Disable the DOM sink scanner")
	flag.BoolVar(&opts.NoSubresources, "no-sub", false, "Don't replay subresources through the instrumented fetch")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n  \x1b[38;5;129mpagetap\x1b[0m %s | \x1b[38;5;141m%s\x1b[0m\n", config.Version, config.Author)
		h := `
USAGE:
  cat urls.txt | pagetap [flags]

SCANNING:
  -c,  --concurrency int     Number of concurrent workers (default 10)
  -t,  --timeout duration    Request timeout (default 10s)
  -x,  --proxy string        Proxy URL (e.g. http://127.0.0.1:8080)
  -rl, --rate-limit float    Requests per second (0 = unlimited)
  -H,  --header string       Custom header (e.g. 'Cookie: session=123')

PROBES:
       --no-dom              Disable the DOM sink scanner
       --no-sub              Don't replay subresources through the instrumented fetch

OUTPUT:
  -o,  --output string       Output format: jsonl, json, human (default "jsonl")
       --db string           Persist drained evidence to SQLite
  -v,  --verbose             Verbose output
       -vv                   Very verbose output (debugging)
  -s,  --silent              Silent mode

EXAMPLES:
  echo 'https://target.test/' | pagetap -o human
  cat urls.txt | pagetap -c 20 --db evidence.db -o jsonl
`
		fmt.Fprint(os.Stderr, h)
	}

	flag.Parse()

	opts.Headers = headers
	opts.VeryVerbose = veryVerbose
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	r := runner.NewRunner(opts)
	r.Run()
}
