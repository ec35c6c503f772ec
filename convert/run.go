package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssmap/check"
	"cssmap/classmap"
	"cssmap/css"
	"cssmap/fetch"
	"cssmap/misc"
	"cssmap/state"
)

// Run is the "convert" subcommand action: every SOURCE argument is fetched,
// compiled into a PHP lookup table, verified and written out. Sources are
// processed strictly one at a time, in the order given.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	sources := cmd.Args().Slice()
	if len(sources) == 0 {
		return errors.New("no input source has been specified")
	}

	dst := cmd.String("output")
	if len(dst) == 0 {
		var err error
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	dst, err := filepath.Abs(dst)
	if err != nil {
		return err
	}

	env.Overwrite, env.SkipErrors = cmd.Bool("overwrite"), cmd.Bool("skip-errors")
	if prefix := cmd.String("prefix"); prefix != "" {
		env.Cfg.Document.Prefix = prefix
	}

	timeout := time.Duration(env.Cfg.Fetch.TimeoutSec) * time.Second
	if cmd.IsSet("timeout") {
		timeout = cmd.Duration("timeout")
	}

	p := pipeline{
		fetcher: fetch.New(timeout, env.Cfg.Fetch.UserAgent, log),
		parser:  css.NewParser(log),
		builder: classmap.NewBuilder(log),
		checker: newChecker(env, log),
		env:     env,
		log:     log,
	}

	log.Info("Processing starting", zap.Int("sources", len(sources)), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	var skipped error
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := p.processSource(ctx, src, dst)
		if res.Err == nil {
			logResult(log, res)
			continue
		}
		if !env.SkipErrors {
			return fmt.Errorf("unable to convert '%s': %w", src, res.Err)
		}
		log.Warn("Skipping failed source", zap.String("source", src), zap.Error(res.Err))
		skipped = multierr.Append(skipped, res.Err)
	}

	if n := len(multierr.Errors(skipped)); n > 0 {
		log.Warn("Some sources were skipped", zap.Int("skipped", n), zap.Int("total", len(sources)))
	}
	return nil
}

func newChecker(env *state.LocalEnv, log *zap.Logger) check.Checker {
	if !env.Cfg.Checker.Enable {
		return check.Nop
	}
	return check.NewPHPChecker(env.Cfg.Checker.Command, env.Cfg.Checker.Arguments, log)
}

type pipeline struct {
	fetcher *fetch.Fetcher
	parser  *css.Parser
	builder *classmap.Builder
	checker check.Checker
	env     *state.LocalEnv
	log     *zap.Logger
}

// processSource converts a single source end to end. It never returns both
// an output and an error: a fatal failure leaves no file behind.
func (p *pipeline) processSource(ctx context.Context, src, dst string) Result {
	start := time.Now()
	res := Result{Source: src}

	p.log.Info("Conversion starting", zap.String("from", src))

	data, err := p.fetcher.Fetch(ctx, src)
	if err != nil {
		res.Err = &Failure{Kind: FailureFetch, Err: err}
		return res
	}
	res.Stats.InputBytes = len(data)

	sheet, err := p.parser.Parse(data, src)
	if err != nil {
		res.Err = &Failure{Kind: FailureGrammar, Err: err}
		return res
	}

	m, cnt := p.builder.Build(sheet)
	res.Stats.Counters = cnt

	body := classmap.Body(m)
	verdict, err := check.Validate(ctx, p.checker, body, p.log)
	if err != nil {
		// checker environment problem: report and treat the check as failed,
		// conversion still completes
		p.log.Error("Syntax checker is not usable", zap.Error(err))
	}
	res.Stats.Valid = verdict.Valid
	res.Stats.Diagnostic = verdict.Diagnostic
	res.Stats.Elapsed = time.Since(start)

	meta := classmap.Meta{
		Tool:        misc.GetAppName(),
		Version:     misc.GetVersion(),
		ID:          uuid.New().String(),
		Source:      src,
		GeneratedAt: time.Now(),
	}
	final := assembleOutput(verdict.Text, meta, &res.Stats)

	outputName := buildOutputPath(src, dst, p.env)
	if err := p.writeOutput(outputName, final); err != nil {
		res.Err = err
		return res
	}
	res.Output = outputName

	if p.env.Rpt != nil {
		if !verdict.Valid {
			p.env.Rpt.Store(fmt.Sprintf("failed/%s.php", meta.ID), outputName)
			p.env.Rpt.StoreData(fmt.Sprintf("diagnostics/%s.txt", meta.ID), []byte(verdict.Diagnostic))
		}
		p.env.Rpt.StoreData(fmt.Sprintf("classmap/%s.txt", meta.ID), []byte(m.String()))
	}
	return res
}

// assembleOutput attaches the header with final stats. Output size counts
// the complete file including the header, so the header is rendered twice
// and the second pass fills in the real size.
func assembleOutput(body string, meta classmap.Meta, stats *classmap.Stats) string {
	meta.Stats = *stats
	final := classmap.WithHeader(body, meta)
	for len(final) != meta.Stats.OutputBytes {
		meta.Stats.OutputBytes = len(final)
		final = classmap.WithHeader(body, meta)
	}
	stats.OutputBytes = meta.Stats.OutputBytes
	return final
}

// writeOutput honors the overwrite policy and writes the final text.
func (p *pipeline) writeOutput(outputName, text string) error {
	if _, err := os.Stat(outputName); err == nil {
		if !p.env.Overwrite {
			return &Failure{Kind: FailureOutput, Err: fmt.Errorf("output file already exists: %s", outputName)}
		}
		p.log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return &Failure{Kind: FailureOutput, Err: err}
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return &Failure{Kind: FailureOutput, Err: fmt.Errorf("unable to create output directory: %w", err)}
	}

	if err := os.WriteFile(outputName, []byte(text), 0644); err != nil {
		return &Failure{Kind: FailureOutput, Err: err}
	}
	return nil
}

func logResult(log *zap.Logger, res Result) {
	fields := []zap.Field{
		zap.String("to", res.Output),
		zap.Duration("elapsed", res.Stats.Elapsed),
		zap.Int("classes", res.Stats.Classes),
		zap.Int("media", res.Stats.MediaQueries),
		zap.Int("pseudo", res.Stats.PseudoClasses),
		zap.Int("in", res.Stats.InputBytes),
		zap.Int("out", res.Stats.OutputBytes),
	}
	if res.Stats.Valid {
		log.Info("Conversion completed", fields...)
		return
	}
	log.Warn("Conversion completed with invalid output", append(fields, zap.String("diagnostic", res.Stats.Diagnostic))...)
}
