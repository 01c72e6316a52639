// Package crosscheck compares ordered transaction sequences for structural
// equality.
//
// Compare pairs two sources positionally in iteration order; CompareWithSlice
// does the same against an in-memory baseline. Every pair in the overlap is
// evaluated before a verdict is returned, so one invocation reports every
// diverging position.
//
// Pairing stops when either side is exhausted. Trailing entries on the longer
// side are not compared and do not fail the check unless Options.Strict is
// set; a warning is logged either way.
package crosscheck
