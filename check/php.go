package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"cssmap/misc"
)

// PHPChecker verifies candidate text by writing it to a temporary file and
// running the PHP CLI linter on it (normally "php -l"). The linter is
// expected to be bounded by itself - no timeout is imposed here.
type PHPChecker struct {
	command string
	args    []string
	log     *zap.Logger
}

// NewPHPChecker creates a checker invoking the given command with the given
// arguments, the candidate file path is appended last.
func NewPHPChecker(command string, args []string, log *zap.Logger) *PHPChecker {
	if log == nil {
		log = zap.NewNop()
	}
	return &PHPChecker{command: command, args: args, log: log.Named("php-lint")}
}

// Check implements the Checker interface.
func (c *PHPChecker) Check(ctx context.Context, text string) (bool, string, error) {
	f, err := os.CreateTemp("", misc.GetAppName()+"-lint.*.php")
	if err != nil {
		return false, "", fmt.Errorf("unable to create temporary file for syntax check: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return false, "", fmt.Errorf("unable to write temporary file for syntax check: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, "", fmt.Errorf("unable to write temporary file for syntax check: %w", err)
	}

	args := append(append([]string{}, c.args...), f.Name())
	out, err := exec.CommandContext(ctx, c.command, args...).CombinedOutput()
	diag := strings.TrimSpace(strings.ReplaceAll(string(out), f.Name(), "<candidate>"))

	if err == nil {
		c.log.Debug("Syntax check passed", zap.Int("bytes", len(text)))
		return true, diag, nil
	}
	var xerr *exec.ExitError
	if errors.As(err, &xerr) {
		// linter ran and rejected the text - a verdict, not a failure
		c.log.Debug("Syntax check failed", zap.String("diagnostic", diag))
		return false, diag, nil
	}
	return false, diag, fmt.Errorf("unable to run syntax checker '%s': %w", c.command, err)
}
