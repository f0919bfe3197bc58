package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	kingpin "gopkg.in/alecthomas/kingpin.v2"

	lexical "github.com/goliatone/go-lexical"
	"github.com/goliatone/go-lexical/format"
	"github.com/goliatone/go-lexical/pkg/activity"
	"github.com/goliatone/go-lexical/pkg/state"
)

// errLint is returned when lint found problems; they are already printed.
var errLint = errors.New("lint failed")

type app struct {
	stdout io.Writer
	stderr io.Writer
	kp     *kingpin.Application

	configPath string
	flags      Config

	mergeCmd *kingpin.CmdClause
	merge    struct {
		old, new, output string
		dryRun           bool
	}
	linesCmd *kingpin.CmdClause
	linesArg string
	lintCmd  *kingpin.CmdClause
	lintArg  string
}

func newApp(stdout, stderr io.Writer) *app {
	a := &app{stdout: stdout, stderr: stderr}
	kp := kingpin.New("lexical", "Merge and inspect structured localization documents.")
	kp.UsageWriter(stdout)
	kp.ErrorWriter(stderr)
	kp.Terminate(func(int) {})

	kp.Flag("config", "YAML config file (default lexical.yaml when present).").Short('c').StringVar(&a.configPath)
	kp.Flag("flags", "Write flags, e.g. add|modify|remove-cautious|effective-key.").StringVar(&a.flags.Flags)
	kp.Flag("format", "Codec name; defaults to the file extension.").StringVar(&a.flags.Format)
	kp.Flag("engine", "Filter expression engine.").EnumVar(&a.flags.Engine, lexical.EngineExpr, lexical.EngineCEL, lexical.EngineJS)
	kp.Flag("policy", "Value policy for repeated lines.").EnumVar(&a.flags.Policy, "unique", "append")
	kp.Flag("color", "Colorize diffs.").EnumVar(&a.flags.Color, "auto", "always", "never")
	kp.Flag("actor", "Actor recorded on activity events.").Envar("LEXICAL_ACTOR").StringVar(&a.flags.Actor)
	kp.Flag("include", "Keep lines where name[occurrence]=v1,v2.").StringsVar(&a.flags.Include)
	kp.Flag("exclude", "Drop lines where name[occurrence]=v1,v2.").StringsVar(&a.flags.Exclude)
	kp.Flag("where", "Keep lines where the expression is true.").StringsVar(&a.flags.Where)
	kp.Flag("require", "Parameter names every entry must carry (lint).").StringsVar(&a.flags.Require)
	kp.Flag("verbose", "Log build, filter and reconcile events.").Short('v').BoolVar(&a.flags.Verbose)

	a.mergeCmd = kp.Command("merge", "Merge NEW into OLD.")
	a.mergeCmd.Arg("old", "Existing document.").Required().StringVar(&a.merge.old)
	a.mergeCmd.Arg("new", "Document holding the incoming entries.").Required().StringVar(&a.merge.new)
	a.mergeCmd.Flag("output", "Write the result here instead of OLD.").Short('o').StringVar(&a.merge.output)
	a.mergeCmd.Flag("dry-run", "Print a diff instead of writing.").Short('n').BoolVar(&a.merge.dryRun)

	a.linesCmd = kp.Command("lines", "Print the entries of a document.")
	a.linesCmd.Arg("file", "Document to read.").Required().StringVar(&a.linesArg)

	a.lintCmd = kp.Command("lint", "Check write flags and, optionally, a document.")
	a.lintCmd.Arg("file", "Document to check.").StringVar(&a.lintArg)

	a.kp = kp
	return a
}

func (a *app) run(ctx context.Context, args []string) error {
	command, err := a.kp.Parse(args)
	if err != nil {
		return err
	}
	if command == "" {
		return nil
	}
	cfg, sources, err := resolveConfig(a.configPath, a.flags)
	if err != nil {
		return err
	}
	logger := newLogger(a.stderr, cfg.Verbose)
	logger.Debug("config resolved", slog.Any("sources", sources), slog.String("flags", cfg.Flags))

	switch command {
	case a.mergeCmd.FullCommand():
		return a.runMerge(ctx, cfg, logger)
	case a.linesCmd.FullCommand():
		return a.runLines(cfg, logger)
	case a.lintCmd.FullCommand():
		return a.runLint(cfg)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// builderOptions configures value policy, filter and logging from cfg.
func builderOptions(cfg Config, logger *slog.Logger) ([]lexical.BuilderOption, error) {
	policy, err := cfg.valuePolicy()
	if err != nil {
		return nil, err
	}
	filter, err := newLineFilter(cfg, logger)
	if err != nil {
		return nil, err
	}
	return []lexical.BuilderOption{
		lexical.WithValuePolicy(policy),
		lexical.WithLineFilter(filter),
		lexical.WithBuildLogger(lexical.SlogLogger(logger)),
	}, nil
}

func newLineFilter(cfg Config, logger *slog.Logger) (*lexical.Filter, error) {
	evaluator, err := lexical.NewEvaluator(cfg.Engine, &lexical.MapProgramCache{}, nil)
	if err != nil {
		return nil, err
	}
	filter := lexical.NewFilter(
		lexical.WithFilterEvaluator(evaluator),
		lexical.WithEvaluatorLogger(lexical.SlogLogger(logger)),
		lexical.WithFilterArgs(cfg.Args),
	)
	for _, text := range cfg.Include {
		rule, err := parseValueRule(text)
		if err != nil {
			return nil, fmt.Errorf("include: %w", err)
		}
		filter.Include(rule.name, rule.occurrence, rule.values...)
	}
	for _, text := range cfg.Exclude {
		rule, err := parseValueRule(text)
		if err != nil {
			return nil, fmt.Errorf("exclude: %w", err)
		}
		filter.Exclude(rule.name, rule.occurrence, rule.values...)
	}
	for _, expr := range cfg.Where {
		if err := filter.Where(expr); err != nil {
			return nil, fmt.Errorf("where: %w", err)
		}
	}
	return filter, nil
}

func decodeFile(registry *format.Registry, name, codecName string) (*lexical.Document, error) {
	codec, err := registry.Resolve(codecName, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	doc, err := codec.Decode(data, lexical.DefaultParameterInfos())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return doc, nil
}

func (a *app) runMerge(ctx context.Context, cfg Config, logger *slog.Logger) error {
	flags, err := cfg.writeFlags()
	if err != nil {
		return err
	}
	if lint := flags.Lint(); lint != nil {
		logger.Warn("suspicious write flags", slog.String("flags", flags.String()), slog.Any("lint", lint))
	}
	build, err := builderOptions(cfg, logger)
	if err != nil {
		return err
	}
	registry := format.DefaultRegistry()
	incoming, err := decodeFile(registry, a.merge.new, cfg.Format)
	if err != nil {
		return err
	}

	store, ref, err := mergeStore(registry, a.merge.old, a.merge.output, cfg.Format)
	if err != nil {
		return err
	}
	session := &state.Session{
		Store:     store,
		Formats:   registry,
		Build:     build,
		Reconcile: []lexical.ReconcileOption{lexical.WithReconcileLogger(lexical.SlogLogger(logger))},
		Emitter:   activity.NewEmitter(activity.Hooks{logHook(logger)}, activity.Config{Enabled: cfg.Verbose}),
		Events:    activity.EventInput{ActorID: cfg.Actor},
	}

	if a.merge.dryRun {
		result, err := session.Plan(ctx, ref, incoming.Lines(), flags)
		if err != nil {
			return err
		}
		printDiff(a.stdout, string(result.Before), string(result.After), colorEnabled(cfg.Color, a.stdout))
		printSummary(a.stderr, result.Report)
		return nil
	}
	result, err := session.Write(ctx, ref, incoming.Lines(), flags, state.Meta{})
	if err != nil {
		return err
	}
	printSummary(a.stderr, result.Report)
	return nil
}

// mergeStore reads OLD and writes to output, or back to OLD when output is
// empty. Both files are read and written with one codec. Files are written
// without a meta sidecar.
func mergeStore(registry *format.Registry, old, output, codecName string) (state.Store, state.Ref, error) {
	source := &state.FileStore{Root: filepath.Dir(old), SkipMeta: true}
	sourceRef := state.Ref{Resource: filepath.Base(old), Format: codecName}
	if output == "" || filepath.Clean(output) == filepath.Clean(old) {
		return source, sourceRef, nil
	}
	if codecName == "" {
		from, err := registry.ForPath(old)
		if err != nil {
			return nil, state.Ref{}, err
		}
		to, err := registry.ForPath(output)
		if err != nil {
			return nil, state.Ref{}, err
		}
		if from.Name() != to.Name() {
			return nil, state.Ref{}, fmt.Errorf("output %s must use the format of %s", output, old)
		}
	}
	target := &state.FileStore{Root: filepath.Dir(output), SkipMeta: true}
	return redirectStore{Store: target, source: source, sourceRef: sourceRef},
		state.Ref{Resource: filepath.Base(output), Format: codecName}, nil
}

// redirectStore loads from a fixed source and saves through the embedded
// Store.
type redirectStore struct {
	state.Store
	source    state.Store
	sourceRef state.Ref
}

func (s redirectStore) Load(ctx context.Context, _ state.Ref) ([]byte, state.Meta, bool, error) {
	return s.source.Load(ctx, s.sourceRef)
}

func logHook(logger *slog.Logger) activity.ActivityHook {
	return activity.HookFunc(func(ctx context.Context, event activity.Event) error {
		logger.LogAttrs(ctx, slog.LevelDebug, "activity",
			slog.String("verb", event.Verb),
			slog.String("object", event.ObjectID),
			slog.String("channel", event.Channel),
			slog.String("actor", event.ActorID),
		)
		return nil
	})
}

func printSummary(w io.Writer, report lexical.Report) {
	fmt.Fprintf(w, "%s: added %d, removed %d, modified %d, retained %d\n",
		report.Flags,
		report.Count(lexical.ChangeAdded),
		report.Count(lexical.ChangeRemoved),
		report.Count(lexical.ChangeModified),
		report.Count(lexical.ChangeRetained),
	)
}

func (a *app) runLines(cfg Config, logger *slog.Logger) error {
	build, err := builderOptions(cfg, logger)
	if err != nil {
		return err
	}
	source, err := decodeFile(format.DefaultRegistry(), a.linesArg, cfg.Format)
	if err != nil {
		return err
	}
	doc, err := lexical.Build(source.Lines(), build...)
	if err != nil {
		return err
	}
	for line := range doc.Lines() {
		key := fmt.Sprint(line.Key)
		if line.Placeholder {
			fmt.Fprintf(a.stdout, "%s\n", key)
			continue
		}
		fmt.Fprintf(a.stdout, "%s = %s\n", key, line.Value)
	}
	return nil
}

func (a *app) runLint(cfg Config) error {
	var problems []error
	flags, err := cfg.writeFlags()
	if err != nil {
		problems = append(problems, err)
	} else if lint := flags.Lint(); lint != nil {
		problems = append(problems, lint)
	}
	if a.lintArg != "" {
		doc, err := decodeFile(format.DefaultRegistry(), a.lintArg, cfg.Format)
		if err != nil {
			problems = append(problems, err)
		} else if err := format.Require(doc, cfg.Require...); err != nil {
			problems = append(problems, err)
		}
	}
	if len(problems) == 0 {
		fmt.Fprintln(a.stdout, "ok")
		return nil
	}
	for _, problem := range problems {
		fmt.Fprintln(a.stdout, problem)
	}
	return errLint
}
