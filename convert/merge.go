package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssmap/check"
	"cssmap/classmap"
	"cssmap/misc"
	"cssmap/state"
)

// MergeRun is the "merge" subcommand action: previously generated lookup
// tables are read back, combined into one map and written out. A file which
// cannot be read back is reported and contributes nothing to the result, it
// never aborts the merge.
func MergeRun(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("merge")

	inputs, err := collectInputs(cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.New("no input file has been specified")
	}

	env.Overwrite = cmd.Bool("overwrite")

	start := time.Now()
	primary := cmd.String("primary")

	var sources []classmap.Source
	for _, name := range inputs {
		data, err := os.ReadFile(name)
		if err != nil {
			log.Warn("Ignoring unreadable input", zap.String("file", name), zap.Error(err))
			continue
		}
		m, err := classmap.Read(data)
		if err != nil {
			log.Warn("Ignoring input without recognizable map", zap.String("file", name), zap.Error(err))
			continue
		}
		sources = append(sources, classmap.Source{ID: filepath.Base(name), Map: m, Size: len(data)})
	}
	if len(sources) == 0 {
		return errors.New("none of the inputs could be read back")
	}
	if primary != "" && !hasSource(sources, primary) {
		return fmt.Errorf("primary source '%s' is not among the inputs", primary)
	}

	ordered := classmap.OrderSources(sources, primary)
	merged, dups := classmap.Merge(ordered)

	log.Info("Maps merged",
		zap.Int("sources", len(ordered)),
		zap.String("primary", ordered[0].ID),
		zap.Int("classes", len(merged)),
		zap.Int("contested", len(dups)))
	if len(dups) > 0 {
		log.Debug("Duplicate classes", zap.String("details", dups.String()))
	}

	body := classmap.Body(merged)
	verdict, err := check.Validate(ctx, newChecker(env, log), body, log)
	if err != nil {
		log.Error("Syntax checker is not usable", zap.Error(err))
	}

	stats := classmap.Stats{
		Counters: countMap(merged),
		Valid:    verdict.Valid,
		Elapsed:  time.Since(start),
	}
	for _, s := range ordered {
		stats.InputBytes += s.Size
	}
	stats.Diagnostic = verdict.Diagnostic

	meta := classmap.Meta{
		Tool:        misc.GetAppName(),
		Version:     misc.GetVersion(),
		ID:          uuid.New().String(),
		Source:      strings.Join(sourceIDs(ordered), ", "),
		GeneratedAt: time.Now(),
	}
	final := assembleOutput(verdict.Text, meta, &stats)

	outputName := cmd.String("output")
	if outputName == "" {
		outputName = env.Cfg.Document.Prefix + "merged.php"
	}
	if outputName, err = filepath.Abs(outputName); err != nil {
		return err
	}

	p := pipeline{env: env, log: log}
	if err = p.writeOutput(outputName, final); err != nil {
		return fmt.Errorf("unable to write merged map: %w", err)
	}

	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("classmap/%s.txt", meta.ID), []byte(merged.String()))
		if len(dups) > 0 {
			env.Rpt.StoreData(fmt.Sprintf("duplicates/%s.txt", meta.ID), []byte(dups.String()))
		}
	}

	logResult(log, Result{Source: meta.Source, Output: outputName, Stats: stats})
	return nil
}

// collectInputs expands directory arguments into the ".php" files they
// contain, non-recursively, and keeps file arguments as given.
func collectInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			inputs = append(inputs, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".php") {
				inputs = append(inputs, filepath.Join(arg, e.Name()))
			}
		}
	}
	return inputs, nil
}

func hasSource(sources []classmap.Source, id string) bool {
	for _, s := range sources {
		if s.ID == id {
			return true
		}
	}
	return false
}

func sourceIDs(sources []classmap.Source) []string {
	ids := make([]string, len(sources))
	for i, s := range sources {
		ids[i] = s.ID
	}
	return ids
}

// countMap recomputes occurrence counters for a map assembled from already
// compiled tables, where the original per-rule occurrences are gone.
func countMap(m classmap.ClassMap) classmap.Counters {
	var cnt classmap.Counters
	for key, entry := range m {
		if entry == nil || entry.IsEmpty() {
			continue
		}
		cnt.Classes++
		cnt.MediaQueries += len(entry.Media)
		if strings.Contains(key, ":") {
			cnt.PseudoClasses++
		}
	}
	return cnt
}
