package check

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Result is the outcome of validating (and possibly repairing) candidate
// text. Text is the rewritten candidate when a repair succeeded, otherwise
// the original input - repairs are discarded on failure, never applied
// partially.
type Result struct {
	Valid      bool
	Repaired   bool
	Diagnostic string
	Text       string
}

// Validate runs the external check on candidate text. On failure it applies
// the fixed list of repair rules once each, in order, and re-runs the check
// once. A failed repair is a reported outcome, not a fault - only
// environment-level errors from the checker itself are returned as errors
// (and the check is then treated as failed).
func Validate(ctx context.Context, chk Checker, text string, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("validate")

	valid, diag, err := chk.Check(ctx, text)
	if err != nil {
		return Result{Valid: false, Diagnostic: diag, Text: text}, err
	}
	if valid {
		return Result{Valid: true, Text: text}, nil
	}

	log.Debug("Candidate rejected, attempting repair", zap.String("diagnostic", diag))
	repaired := Repair(text, log)

	valid, rediag, err := chk.Check(ctx, repaired)
	if err != nil {
		return Result{Valid: false, Diagnostic: diag, Text: text}, err
	}
	if valid {
		log.Debug("Repair succeeded")
		return Result{Valid: true, Repaired: true, Text: repaired}, nil
	}
	if rediag == "" {
		rediag = diag
	}
	log.Debug("Repair did not help", zap.String("diagnostic", rediag))
	return Result{Valid: false, Diagnostic: rediag, Text: text}, nil
}

type repairRule struct {
	name string
	fn   func(string) string
}

// repairRules are applied once each, in this order - not iteratively and not
// retried when a single rule changes nothing.
var repairRules = []repairRule{
	{"close-missing-block-separator", closeMissingBlockSeparator},
	{"drop-trailing-separator", dropTrailingSeparator},
	{"terminate-quoted-value", terminateQuotedValue},
	{"escape-stray-quotes", escapeStrayQuotes},
	{"escape-media-keys", escapeMediaKeys},
}

// Repair applies all repair rules to the text and returns the rewritten
// result. It does not verify that the result is any better.
func Repair(text string, log *zap.Logger) string {
	if log == nil {
		log = zap.NewNop()
	}
	for _, rule := range repairRules {
		fixed := rule.fn(text)
		if fixed != text {
			log.Debug("Repair rule changed text", zap.String("rule", rule.name))
			text = fixed
		}
	}
	return text
}

var missingBlockSeparator = regexp.MustCompile(`(?m)^(\s*\])\n(\s*')`)

// closeMissingBlockSeparator inserts the separator between a block closing
// bracket and a following key line.
func closeMissingBlockSeparator(text string) string {
	return missingBlockSeparator.ReplaceAllString(text, "$1,\n$2")
}

var trailingSeparator = regexp.MustCompile(`,(\s*[\])])`)

// dropTrailingSeparator removes separators left dangling directly before a
// closing bracket. Trailing commas are legal in modern PHP arrays, so on
// already-valid structure this is harmless and it cures doubled separators.
func dropTrailingSeparator(text string) string {
	return trailingSeparator.ReplaceAllString(text, "$1")
}

var unterminatedScalar = regexp.MustCompile(`(?m)^(\s*'(?:[^'\\]|\\.)*'\s*=>\s*'(?:[^'\\]|\\.)*')[ \t]*$`)

// terminateQuotedValue appends the missing separator after a complete
// key => 'value' pair at end of line.
func terminateQuotedValue(text string) string {
	return unterminatedScalar.ReplaceAllString(text, "$1,")
}

// escapeStrayQuotes escapes unescaped single quotes inside scalar values of
// key => 'value' lines.
func escapeStrayQuotes(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		idx := strings.Index(line, "=> '")
		if idx < 0 {
			continue
		}
		open := idx + len("=> '")
		end := strings.LastIndexByte(line, '\'')
		if end <= open {
			continue
		}
		lines[i] = line[:open] + escapeInner(line[open:end]) + line[end:]
	}
	return strings.Join(lines, "\n")
}

// escapeMediaKeys escapes unescaped quotes and backslashes in parenthesized
// media-query keys ('(...)' => ...).
func escapeMediaKeys(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(trimmed, "'(") {
			continue
		}
		sep := strings.Index(line, "' =>")
		if sep < 0 {
			continue
		}
		open := strings.IndexByte(line, '\'') + 1
		if open <= 0 || sep <= open {
			continue
		}
		lines[i] = line[:open] + escapeInner(line[open:sep]) + line[sep:]
	}
	return strings.Join(lines, "\n")
}

// escapeInner backslash-escapes single quotes that are not escaped yet.
func escapeInner(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	escaped := false
	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			sb.WriteByte(s[i])
			escaped = false
		case s[i] == '\\':
			sb.WriteByte(s[i])
			escaped = true
		case s[i] == '\'':
			sb.WriteString(`\'`)
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
