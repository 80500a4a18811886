//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// PlainErrorsNew detects string-literal errors.New calls which bypass the
// enhanced error builder.
//
// The old pattern:
//
//	return errors.New("login failed")
//
// Should be:
//
//	return errors.Newf("login failed").
//	    Component("tinybeans").
//	    Category(errors.CategoryAuth).
//	    Build()
//
// The internal errors package shadows the standard library import and its
// New takes an error to wrap, so a string argument means the standard
// library slipped back in. Errors without a component and category do not
// land in the right service log and cannot be matched with IsCategory.
//
// The config validator is exempt, its messages are collected into a
// ValidationError and printed at startup, they never travel through
// category matching.
func PlainErrorsNew(m dsl.Matcher) {
	m.Match(
		`errors.New($msg)`,
	).
		Where(m["msg"].Type.Is("string") && !m.File().Name.Matches(`_test\.go$|validate\.go$`)).
		Report("build errors with errors.Newf($msg).Component(...).Category(...).Build() so they carry telemetry context")
}

// LostErrorCause detects error wrapping that drops the original error.
//
// Broken pattern:
//
//	if err != nil {
//	    return fmt.Errorf("opening archive failed: %v", err)
//	}
//
// Correct pattern:
//
//	if err != nil {
//	    return fmt.Errorf("opening archive failed: %w", err)
//	}
//
// %v flattens the cause to text, errors.Is/As and IsCategory stop working
// downstream.
//
// See: https://pkg.go.dev/fmt#Errorf
func LostErrorCause(m dsl.Matcher) {
	m.Match(
		`fmt.Errorf($fmt, $*_, $err)`,
	).
		Where(m["err"].Type.Is("error") && !m["fmt"].Text.Matches(`%w`)).
		Report("wrap with %w instead of %v so the cause stays matchable with errors.Is and IsCategory")
}
