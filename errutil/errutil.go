// Package errutil provides the debug-assertion helpers and sentinel
// error kinds shared across the trie packages.
package errutil

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned by Build when the input keys are not
// sorted ascending, contain a duplicate that is not adjacent, or
// contain the reserved 0x00 byte.
var ErrInvalidInput = errors.New("fst: invalid input")

// ErrCorruptIndex is returned by Load when the serialized stream is
// truncated, has an inconsistent length prefix, or fails a light
// rank/select invariant check.
var ErrCorruptIndex = errors.New("fst: corrupt index")

const debug = false

// Bug panics with a formatted message when debug assertions are
// enabled. It is a no-op in release builds.
func Bug(format string, args ...any) {
	if debug {
		panic(fmt.Sprintf("BUG: "+format, args...))
	}
}

// BugOn panics with a formatted message when cond is true and debug
// assertions are enabled.
func BugOn(cond bool, format string, args ...any) {
	if debug && cond {
		Bug(format, args...)
	}
}

// Wrap attaches context to a sentinel error kind, e.g. Wrap(ErrCorruptIndex, "truncated dense section").
func Wrap(kind error, msg string) error {
	return fmt.Errorf("%s: %w", msg, kind)
}
