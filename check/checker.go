// Package check verifies generated PHP text with an external syntax checker
// and applies best-effort textual repairs when the check fails.
package check

import (
	"context"
)

// Checker is the boundary to an external syntax check: given candidate text
// it reports whether the text is valid and a human-readable diagnostic.
// A non-nil error means the check itself could not be performed (checker
// unreachable, I/O failure) - an environment problem, not a verdict.
type Checker interface {
	Check(ctx context.Context, text string) (valid bool, diagnostic string, err error)
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, text string) (bool, string, error)

func (f CheckerFunc) Check(ctx context.Context, text string) (bool, string, error) {
	return f(ctx, text)
}

// Nop is a Checker that accepts everything. Used when checking is disabled.
var Nop Checker = CheckerFunc(func(context.Context, string) (bool, string, error) {
	return true, "", nil
})
