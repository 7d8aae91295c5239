package cli

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/robinvdvleuten/beanledger/config"
	"github.com/robinvdvleuten/beanledger/errors"
	"github.com/robinvdvleuten/beanledger/loader"
)

// watchDebounce collapses the burst of events editors emit on save.
const watchDebounce = 100 * time.Millisecond

type CheckCmd struct {
	File   FileOrStdin `help:"Ledger input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Format string      `help:"Output format for ledger errors." enum:"text,json" default:"text"`
	Watch  bool        `help:"Re-run the check whenever a loaded file changes."`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	if !cmd.Watch {
		_, err := cmd.check(globals, ctx.Stdout, ctx.Stderr)
		return err
	}

	if cmd.File.IsStdin() {
		return fmt.Errorf("--watch needs a file argument")
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return cmd.watch(runCtx, globals, ctx.Stdout, ctx.Stderr)
}

// check runs a single check and returns the files it loaded.
func (cmd *CheckCmd) check(globals *Globals, stdout, stderr io.Writer) ([]string, error) {
	s, runCtx, err := globals.openSession("check", &cmd.File)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()
	defer s.reportTelemetry(stderr)

	result, err := s.process(runCtx, &cmd.File)
	if err != nil {
		var parseErr *loader.ParseError
		if stdErrors.As(err, &parseErr) {
			cmd.report(stdout, stderr, []error{parseErr}, sourcesFor(&cmd.File, result))
			printError(stderr, "parse error")
			return nil, NewCommandErrorf(1, "parse error")
		}
		return nil, err
	}

	ledgerErrs, err := s.ledger.Errors(runCtx)
	if err != nil {
		return result.Files, err
	}

	if len(ledgerErrs) > 0 {
		cmd.report(stdout, stderr, errors.Ledger(ledgerErrs), cmd.File.Sources(result))
		message := fmt.Sprintf("%d ledger error(s) found", len(ledgerErrs))
		printError(stderr, message)
		return result.Files, NewCommandErrorf(1, "%s", message)
	}

	if cmd.Format == "json" {
		_, _ = fmt.Fprintln(stdout, errors.NewJSONFormatter().FormatAll(nil))
	}
	printSuccess(stderr, fmt.Sprintf("Check passed (%d directives)", len(result.Directives)))
	return result.Files, nil
}

func (cmd *CheckCmd) report(stdout, stderr io.Writer, errs []error, sources map[string][]byte) {
	if cmd.Format == "json" {
		_, _ = fmt.Fprintln(stdout, errors.NewJSONFormatter().FormatAll(errs))
		return
	}
	_, _ = fmt.Fprintln(stderr, NewErrorRenderer(stderr, sources).RenderAll(errs))
	_, _ = fmt.Fprintln(stderr)
}

// sourcesFor returns the sources available after a failed load.
func sourcesFor(file *FileOrStdin, result *loader.Result) map[string][]byte {
	if result != nil {
		return file.Sources(result)
	}
	sources := make(map[string][]byte)
	if file.IsStdin() {
		sources[file.Filename] = file.Contents
	} else if data, err := os.ReadFile(file.GetAbsoluteFilename()); err == nil {
		sources[file.GetAbsoluteFilename()] = data
	}
	return sources
}

// rerunGlobals returns the globals for watch re-runs, which replace the database
// written by the previous run without asking.
func rerunGlobals(g *Globals) *Globals {
	rerun := *g
	rerun.Force = true
	return &rerun
}

// watch re-runs the check on every change to a loaded file until ctx ends.
func (cmd *CheckCmd) watch(ctx context.Context, globals *Globals, stdout, stderr io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	logger := zap.NewNop()
	if cfg, err := globals.Config(); err == nil {
		if l, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat); err == nil {
			logger = l
		}
	}

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	current := globals
	run := func() {
		files, err := cmd.check(current, stdout, stderr)
		current = rerunGlobals(globals)
		var cmdErr *CommandError
		if err != nil && !stdErrors.As(err, &cmdErr) {
			printError(stderr, err.Error())
		}
		if len(files) == 0 {
			files = []string{cmd.File.GetAbsoluteFilename()}
		}
		// Editors replace files on save, so watch directories and filter by name.
		for _, file := range files {
			watched[file] = true
			dir := filepath.Dir(file)
			if dirs[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				logger.Warn("failed to watch directory", zap.String("dir", dir), zap.Error(err))
				continue
			}
			dirs[dir] = true
		}
		printInfof(stderr, "Watching %d file(s) for changes", len(watched))
	}

	run()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Debug("file changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
				debounce = time.After(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))

		case <-debounce:
			debounce = nil
			run()
		}
	}
}
