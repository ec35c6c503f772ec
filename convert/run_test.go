package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"cssmap/check"
	"cssmap/classmap"
	"cssmap/config"
	"cssmap/css"
	"cssmap/fetch"
	"cssmap/state"
)

const sampleCSS = `.btn { color: red; padding: 4px; }
.btn:hover { color: darkred; }
@media (min-width: 768px) {
    .btn { color: blue; }
}
#page { margin: 0; }
`

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	// external interpreter may be absent where tests run
	cfg.Checker.Enable = false
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func newTestPipeline(env *state.LocalEnv) *pipeline {
	return &pipeline{
		fetcher: fetch.New(5*time.Second, "test", env.Log),
		parser:  css.NewParser(env.Log),
		builder: classmap.NewBuilder(env.Log),
		checker: check.Nop,
		env:     env,
		log:     env.Log,
	}
}

func writeSampleSource(t *testing.T, dir string) string {
	t.Helper()
	src := filepath.Join(dir, "sample.css")
	if err := os.WriteFile(src, []byte(sampleCSS), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return src
}

func TestProcessSource(t *testing.T) {
	ctx, env := setupTestEnv(t)
	p := newTestPipeline(env)

	dir := t.TempDir()
	src := writeSampleSource(t, dir)

	res := p.processSource(ctx, src, dir)
	if res.Err != nil {
		t.Fatalf("processSource: %v", res.Err)
	}
	if res.Output != filepath.Join(dir, "sample.php") {
		t.Errorf("unexpected output name: %q", res.Output)
	}

	data, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "<?php\n") {
		t.Errorf("output does not start with open tag:\n%s", text)
	}
	if !strings.Contains(text, "return [") {
		t.Errorf("output has no map body:\n%s", text)
	}
	if !strings.Contains(text, "'btn' => [") {
		t.Errorf("class entry is missing:\n%s", text)
	}
	if strings.Contains(text, "page") {
		t.Errorf("non-class selector leaked into output:\n%s", text)
	}

	if res.Stats.Classes != 3 || res.Stats.MediaQueries != 1 || res.Stats.PseudoClasses != 1 {
		t.Errorf("unexpected counters: %+v", res.Stats.Counters)
	}
	if res.Stats.InputBytes != len(sampleCSS) {
		t.Errorf("input size = %d, want %d", res.Stats.InputBytes, len(sampleCSS))
	}
	if res.Stats.OutputBytes != len(data) {
		t.Errorf("output size = %d, want %d", res.Stats.OutputBytes, len(data))
	}
	if !res.Stats.Valid {
		t.Errorf("check verdict must be positive with checking disabled")
	}
}

func TestProcessSourceRoundTrip(t *testing.T) {
	ctx, env := setupTestEnv(t)
	p := newTestPipeline(env)

	dir := t.TempDir()
	src := writeSampleSource(t, dir)

	res := p.processSource(ctx, src, dir)
	if res.Err != nil {
		t.Fatalf("processSource: %v", res.Err)
	}

	data, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	m, err := classmap.Read(data)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	entry, ok := m["btn"]
	if !ok {
		t.Fatalf("class lost on round trip, have %v", m)
	}
	if entry.Default["color"] != "red" || entry.Default["padding"] != "4px" {
		t.Errorf("default set lost on round trip: %v", entry.Default)
	}
	if entry.Media["(min-width: 768px)"]["color"] != "blue" {
		t.Errorf("media set lost on round trip: %v", entry.Media)
	}
}

func TestProcessSourceFetchFailure(t *testing.T) {
	ctx, env := setupTestEnv(t)
	p := newTestPipeline(env)

	dir := t.TempDir()
	res := p.processSource(ctx, filepath.Join(dir, "nothing.css"), dir)
	if res.Err == nil {
		t.Fatal("expected fetch failure")
	}
	var failure *Failure
	if !errors.As(res.Err, &failure) || failure.Kind != FailureFetch {
		t.Errorf("unexpected failure: %v", res.Err)
	}
	if res.Output != "" {
		t.Errorf("failed conversion must not produce output, got %q", res.Output)
	}
}

func TestProcessSourceOverwrite(t *testing.T) {
	ctx, env := setupTestEnv(t)
	p := newTestPipeline(env)

	dir := t.TempDir()
	src := writeSampleSource(t, dir)

	if res := p.processSource(ctx, src, dir); res.Err != nil {
		t.Fatalf("first conversion: %v", res.Err)
	}

	res := p.processSource(ctx, src, dir)
	var failure *Failure
	if res.Err == nil || !errors.As(res.Err, &failure) || failure.Kind != FailureOutput {
		t.Fatalf("second conversion must refuse to overwrite, got %v", res.Err)
	}

	env.Overwrite = true
	if res := p.processSource(ctx, src, dir); res.Err != nil {
		t.Errorf("conversion with overwrite enabled: %v", res.Err)
	}
}
