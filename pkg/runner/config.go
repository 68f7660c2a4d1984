package runner

import (
	"time"

	"github.com/lcalzada-xor/pagetap/pkg/config"
)

// Options holds all configuration options for the runner
type Options struct {
	// Scanning
	Concurrency int
	Timeout     time.Duration
	Proxy       string
	Headers     []string
	RateLimit   float64

	// Probe behavior
	NoSubresources bool // don't replay script/img/iframe sources through the instrumented fetch
	NoDOM          bool // skip the DOM sink scanner

	// Output
	OutputFormat string
	Verbose      bool
	VeryVerbose  bool
	Silent       bool

	// Persistence
	DatabasePath string
}

// DefaultOptions returns a new Options struct with default values
func DefaultOptions() *Options {
	return &Options{
		Concurrency:  config.DefaultConcurrency,
		Timeout:      config.DefaultTimeout,
		OutputFormat: "jsonl",
	}
}
