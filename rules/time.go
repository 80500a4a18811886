//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// TimeSince detects manual duration computation and suggests time.Since.
//
// The old pattern:
//
//	elapsed := time.Now().Sub(start)
//
// Should be:
//
//	elapsed := time.Since(start)
//
// See: https://pkg.go.dev/time#Since
func TimeSince(m dsl.Matcher) {
	m.Match(
		`time.Now().Sub($x)`,
	).
		Report("use time.Since($x) instead of time.Now().Sub($x)").
		Suggest("time.Since($x)")
}

// MillisecondTimestamps detects manual conversion of millisecond timestamps.
//
// Entry timestamps and pagination cursors are milliseconds since the epoch.
// The old pattern:
//
//	t := time.Unix($ms/1000, 0)
//	ms := t.UnixNano() / int64(time.Millisecond)
//
// Should be:
//
//	t := time.UnixMilli($ms)
//	ms := t.UnixMilli()
//
// The division form silently drops sub-second precision, which shifts
// pagination cursors and archive timestamps.
//
// See: https://pkg.go.dev/time#UnixMilli
func MillisecondTimestamps(m dsl.Matcher) {
	m.Match(
		`time.Unix($ms/1000, 0)`,
	).
		Report("use time.UnixMilli($ms) for millisecond timestamps, the division drops sub-second precision").
		Suggest("time.UnixMilli($ms)")

	m.Match(
		`$t.UnixNano() / int64(time.Millisecond)`,
		`$t.UnixNano() / 1e6`,
	).
		Report("use $t.UnixMilli() instead of dividing UnixNano()").
		Suggest("$t.UnixMilli()")
}

// DeferredTimeSince detects deferred calls to time.Since which evaluate
// the duration at defer time, not at function exit.
//
// Broken pattern:
//
//	func foo() {
//	    start := time.Now()
//	    defer log.Println(time.Since(start))  // Evaluated NOW, not at exit!
//	    // ... work ...
//	}
//
// Correct pattern:
//
//	func foo() {
//	    start := time.Now()
//	    defer func() { log.Println(time.Since(start)) }()
//	    // ... work ...
//	}
//
// See: https://pkg.go.dev/time#Since
func DeferredTimeSince(m dsl.Matcher) {
	m.Match(
		`defer $fn(time.Since($start))`,
		`defer $fn(time.Since($start), $*args)`,
		`defer $fn($arg, time.Since($start))`,
	).
		Report("time.Since($start) is evaluated at defer time, not function exit; wrap in func() to measure actual duration")
}
