package convert

import (
	"fmt"

	"cssmap/classmap"
)

// FailureKind classifies fatal per-source failures. A syntax check that
// fails even after repair is NOT fatal - the conversion completes and the
// verdict is carried in the stats instead.
type FailureKind int

const (
	FailureFetch   FailureKind = iota // source bytes could not be retrieved
	FailureGrammar                    // CSS text could not be tokenized at all
	FailureOutput                     // destination exists and overwrite is disabled
)

func (k FailureKind) String() string {
	switch k {
	case FailureFetch:
		return "fetch"
	case FailureGrammar:
		return "grammar"
	case FailureOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Failure is a fatal per-source failure.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failure: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Result is the outcome of converting a single source. Callers decide the
// continuation policy from Err instead of relying on error propagation as
// control flow: a nil Err means the output file was produced (possibly
// flagged invalid in Stats), a non-nil Err is always a *Failure.
type Result struct {
	Source string
	Output string
	Stats  classmap.Stats
	Err    error
}
