package config

import "time"

// Version is the current version of pagetap
const Version = "v0.3.0"

// Author is the author of the tool
const Author = "@lcalzada-xor"

// Default Values
const (
	DefaultConcurrency = 10
	DefaultTimeout     = 10 * time.Second
	DefaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/80.0.3987.100 Safari/537.36"

	// MaxBodyCapture bounds how much of a response body is copied into
	// the evidence log. The caller still receives the full body.
	MaxBodyCapture = 512 * 1024

	// MaxSubresources bounds how many same-document subresources the
	// runner replays through the instrumented fetch path per page.
	MaxSubresources = 25
)
