//go:build ruleguard

// Package gorules defines custom linter rules for this codebase's conventions.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// ContextAwareRequest detects http.NewRequest calls and suggests the
// context-aware variant.
//
// The old pattern:
//
//	req, err := http.NewRequest("GET", url, http.NoBody)
//
// Should be:
//
//	req, err := http.NewRequestWithContext(ctx, "GET", url, http.NoBody)
//
// Every network operation in this codebase accepts a context.Context, a
// request built without one cannot be canceled and silently detaches the
// call from the caller's deadline.
//
// See: https://pkg.go.dev/net/http#NewRequestWithContext
func ContextAwareRequest(m dsl.Matcher) {
	m.Match(
		`http.NewRequest($method, $url, $body)`,
	).
		Report("use http.NewRequestWithContext(ctx, $method, $url, $body) so the request honors cancellation and deadlines")
}

// ErrorBeforeUse detects potential nil pointer dereference before error check.
//
// Go 1.25 fixed a compiler bug (Go 1.21-1.24) where nil checks were incorrectly
// delayed. Code that worked before may now correctly panic.
//
// Broken pattern:
//
//	f, err := os.Open(path)
//	name := f.Name()  // PANICS if err != nil
//	if err != nil { ... }
//
// Correct pattern:
//
//	f, err := os.Open(path)
//	if err != nil { ... }
//	name := f.Name()
//
// See: https://go.dev/doc/go1.25#compiler (nil check reordering fix)
func ErrorBeforeUse(m dsl.Matcher) {
	// os.Open/Create followed by method call before error check
	m.Match(
		`$f, $err := os.Open($path); $_ := $f.$method($*_); if $err != nil { $*_ }`,
		`$f, $err := os.Create($path); $_ := $f.$method($*_); if $err != nil { $*_ }`,
		`$f, $err := os.OpenFile($*_); $_ := $f.$method($*_); if $err != nil { $*_ }`,
	).
		Report("potential nil pointer: $f may be nil if $err != nil; check error before using $f.$method()")
}
