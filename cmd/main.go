// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"universal-extractor/internal/config"
	"universal-extractor/internal/formatters"
	"universal-extractor/internal/help"
	"universal-extractor/internal/observability"
	"universal-extractor/internal/parallel"
	"universal-extractor/internal/preprocessors"
	"universal-extractor/internal/validators"
	"universal-extractor/internal/version"
	"universal-extractor/internal/web"

	_ "universal-extractor/internal/formatters/csv"
	_ "universal-extractor/internal/formatters/json"
	_ "universal-extractor/internal/formatters/text"
	_ "universal-extractor/internal/formatters/yaml"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// emptyResultNotice is printed when a definition finds nothing; the output is still written
const emptyResultNotice = "No matching data found. An empty output will be created."

// fileList collects --file values; each value may itself be comma-separated
type fileList []string

func (f *fileList) String() string {
	return strings.Join(*f, ",")
}

func (f *fileList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*f = append(*f, part)
		}
	}
	return nil
}

// cliFlags holds command line flag values
type cliFlags struct {
	files          fileList
	definition     string
	outputFile     string
	outputDir      string
	format         string
	list           bool
	preprocessOnly bool
	markup         string
	configFile     string
	profileName    string
	workers        int
	timeout        time.Duration
	noColor        bool
	debug          bool
	webMode        bool
	webPort        string
	showVersion    bool
	showHelp       bool

	set map[string]bool
}

// isFlagSet reports whether the flag was given explicitly on the command line
func (f *cliFlags) isFlagSet(names ...string) bool {
	for _, name := range names {
		if f.set[name] {
			return true
		}
	}
	return false
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	fs := flag.NewFlagSet("universal-extractor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &cliFlags{}
	fs.Var(&f.files, "file", "Input document; repeat or comma-separate for a batch")
	fs.StringVar(&f.definition, "definition", "", "Definition to apply (see --list)")
	fs.StringVar(&f.outputFile, "output", "", "Path to output file (if not specified, output to stdout)")
	fs.StringVar(&f.outputDir, "output-dir", "", "Directory for {stem}_{definition} output files")
	fs.StringVar(&f.format, "format", "", "Output format: text, json, csv, yaml (default: text)")
	fs.BoolVar(&f.list, "list", false, "List available definitions")
	fs.BoolVar(&f.preprocessOnly, "preprocess-only", false, "Output normalized text and exit")
	fs.BoolVar(&f.preprocessOnly, "p", false, "Output normalized text and exit (alias for --preprocess-only)")
	fs.StringVar(&f.markup, "markup", "", "HTML/Markdown handling: raw or strip")
	fs.StringVar(&f.configFile, "config", "", "Path to configuration file (YAML)")
	fs.StringVar(&f.profileName, "profile", "", "Profile name to use from config file")
	fs.IntVar(&f.workers, "workers", 0, "Concurrent files in batch mode")
	fs.DurationVar(&f.timeout, "timeout", 0, "Per-definition match timeout (0 = none)")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&f.debug, "debug", false, "Emit JSON timing records and processing steps to stderr")
	fs.BoolVar(&f.webMode, "web", false, "Start web server mode")
	fs.StringVar(&f.webPort, "port", "8080", "Port for web server")
	fs.BoolVar(&f.showVersion, "version", false, "Show version information")
	fs.BoolVar(&f.showHelp, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s (use --file)", strings.Join(fs.Args(), " "))
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return f, nil
}

// resolveSettings applies explicitly set flags over the resolved configuration
func resolveSettings(cfg *config.Config, flags *cliFlags) (config.Defaults, error) {
	settings, err := cfg.Resolve(flags.profileName)
	if err != nil {
		return settings, err
	}

	if flags.isFlagSet("definition") {
		settings.Definition = flags.definition
	}
	if flags.isFlagSet("format") {
		settings.Format = flags.format
	}
	if flags.isFlagSet("output-dir") {
		settings.OutputDir = flags.outputDir
	}
	if flags.isFlagSet("markup") {
		settings.Markup = flags.markup
	}
	if flags.isFlagSet("workers") {
		settings.Workers = flags.workers
	}
	if flags.isFlagSet("timeout") {
		settings.MatchTimeout = flags.timeout
	}
	if flags.isFlagSet("no-color") {
		settings.NoColor = flags.noColor
	}
	if flags.isFlagSet("debug") {
		settings.Debug = flags.debug
	}

	if settings.Format == "" {
		settings.Format = "text"
	}
	if _, ok := formatters.Get(settings.Format); !ok {
		return settings, fmt.Errorf("unsupported output format '%s' (available: %s)",
			settings.Format, strings.Join(formatters.List(), ", "))
	}
	if settings.Workers < 0 {
		return settings, fmt.Errorf("--workers must not be negative")
	}
	if settings.MatchTimeout < 0 {
		return settings, fmt.Errorf("--timeout must not be negative")
	}
	return settings, nil
}

// app carries everything a run needs after flags and configuration are resolved
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	flags    *cliFlags
	settings config.Defaults
	catalog  *validators.Catalog
	reader   *preprocessors.TextPreprocessor
	observer *observability.StandardObserver
	status   *color.Color
	warn     *color.Color
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if flags.showVersion {
		fmt.Fprintln(stdout, version.Info())
		fmt.Fprintln(stdout, version.Capabilities(len(validators.Builtins().All()), preprocessors.SupportedExtensions()))
		return 0
	}

	cfg, err := config.LoadConfigOrDefault(flags.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: Error loading config file: %v\n", err)
		fmt.Fprintf(stderr, "Using default configuration\n")
	}

	settings, err := resolveSettings(cfg, flags)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// Colors only make sense on an interactive terminal
	if !isTerminal(stderr) || os.Getenv("NO_COLOR") != "" {
		settings.NoColor = true
	}
	color.NoColor = settings.NoColor

	catalog, err := cfg.Catalog()
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid custom definitions: %v\n", err)
		return 1
	}

	if flags.showHelp {
		h := help.NewSystem(catalog, settings.NoColor)
		h.SetOutput(stdout)
		h.ShowGeneralHelp()
		return 0
	}

	if flags.list {
		h := help.NewSystem(catalog, settings.NoColor)
		h.SetOutput(stdout)
		if flags.isFlagSet("definition") {
			if !h.ShowDefinitionHelp(flags.definition) {
				return 1
			}
			return 0
		}
		h.ShowDefinitionsHelp()
		return 0
	}

	markup, err := preprocessors.ParseMarkupMode(settings.Markup)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	level := observability.ObservabilityOff
	if settings.Debug {
		level = observability.ObservabilityDebug
	}
	observer := observability.NewStandardObserver(level, stderr)
	if observer.DebugObserver != nil {
		observer.DebugObserver.LogDetail("main", fmt.Sprintf("Command line arguments: %v", args))
		observer.DebugObserver.LogDetail("main", fmt.Sprintf(
			"Resolved settings: definition=%q format=%s markup=%s workers=%d timeout=%v profile=%q",
			settings.Definition, settings.Format, markup, settings.Workers, settings.MatchTimeout, flags.profileName))
	}

	reader := preprocessors.NewTextPreprocessor(preprocessors.Options{
		MaxFileSize: settings.MaxFileSize,
		Markup:      markup,
	})
	reader.SetObserver(observer)

	if flags.webMode {
		if err := handleWebMode(flags, catalog, reader, settings, observer); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	a := &app{
		stdout:   stdout,
		stderr:   stderr,
		flags:    flags,
		settings: settings,
		catalog:  catalog,
		reader:   reader,
		observer: observer,
		status:   color.New(color.FgGreen),
		warn:     color.New(color.FgYellow),
	}

	if len(flags.files) == 0 {
		fmt.Fprintln(stderr, "Error: --file is required")
		fmt.Fprintln(stderr, "Use --help for usage or --list to see available definitions.")
		return 1
	}

	if flags.preprocessOnly {
		return a.preprocessOnly()
	}

	def, err := catalog.Lookup(settings.Definition)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, "Use --list to see available definitions.")
		return 1
	}

	if flags.outputFile != "" && len(flags.files) > 1 {
		fmt.Fprintln(stderr, "Error: --output accepts a single --file; use --output-dir for a batch")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(flags.files) == 1 {
		return a.extractOne(ctx, flags.files[0], def)
	}
	return a.extractBatch(ctx, def)
}

// preprocessOnly prints the normalized text of every input
func (a *app) preprocessOnly() int {
	if a.flags.isFlagSet("definition", "format", "output", "output-dir", "timeout") {
		a.warn.Fprintln(a.stderr, "Warning: extraction flags are ignored in preprocess-only mode")
	}

	exitCode := 0
	for i, path := range a.flags.files {
		text, err := a.reader.ReadAsText(path)
		if err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			exitCode = 1
			continue
		}
		if len(a.flags.files) > 1 {
			if i > 0 {
				fmt.Fprintln(a.stdout)
			}
			fmt.Fprintf(a.stdout, "=== %s ===\n", path)
		}
		fmt.Fprintln(a.stdout, text)
	}
	return exitCode
}

// extractOne reads a single document, applies the definition and writes the result
func (a *app) extractOne(ctx context.Context, path string, def *validators.Definition) int {
	a.printPreview(path)

	text, err := a.reader.ReadAsText(path)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}

	extractor := validators.NewExtractor(a.settings.MatchTimeout)
	extractor.SetObserver(a.observer)
	matches, err := extractor.Extract(ctx, def, text, path)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}

	result := formatters.Result{Source: path, Definition: def.Name(), Matches: matches}
	if len(matches) == 0 {
		a.warn.Fprintln(a.stderr, emptyResultNotice)
	}

	target := a.flags.outputFile
	if target == "" && a.settings.OutputDir != "" {
		target = a.suggestedPath(path, def)
	}
	if err := a.emit([]formatters.Result{result}, target); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	if target != "" {
		a.status.Fprintf(a.stderr, "Extracted %d match(es) with '%s' into %s\n", len(matches), def.Name(), target)
	}
	return 0
}

// extractBatch runs every input through the worker pool
func (a *app) extractBatch(ctx context.Context, def *validators.Definition) int {
	workers := a.settings.Workers
	if workers == 0 {
		workers = parallel.DefaultWorkers()
	}

	extractor := validators.NewExtractor(a.settings.MatchTimeout)
	extractor.SetObserver(a.observer)
	processor := parallel.NewParallelProcessor(
		parallel.NewWorkerPool(workers, a.reader, extractor, a.observer), a.observer)

	interactive := isTerminal(a.stderr)
	results, stats := processor.ProcessFilesWithProgress(ctx, a.flags.files, def,
		func(completed, total int, currentFile string) {
			if interactive {
				fmt.Fprintf(a.stderr, "\r[%d/%d] %s", completed, total, filepath.Base(currentFile))
			}
		})
	if interactive {
		fmt.Fprintln(a.stderr)
	}

	exitCode := 0
	var collected []formatters.Result
	for _, res := range results {
		if res.Error != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", res.Error)
			exitCode = 1
			continue
		}
		result := formatters.Result{Source: res.FilePath, Definition: def.Name(), Matches: res.Matches}

		if a.settings.OutputDir == "" {
			collected = append(collected, result)
			continue
		}

		target := a.suggestedPath(res.FilePath, def)
		if len(res.Matches) == 0 {
			a.warn.Fprintf(a.stderr, "%s: %s\n", res.FilePath, emptyResultNotice)
		}
		if err := a.emit([]formatters.Result{result}, target); err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			exitCode = 1
			continue
		}
		a.status.Fprintf(a.stderr, "%s: %d match(es) -> %s\n", res.FilePath, len(res.Matches), target)
	}

	if len(collected) > 0 {
		if err := a.emit(collected, ""); err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			exitCode = 1
		}
	}

	fmt.Fprintf(a.stderr, "Processed %d/%d files (%d failed, %d matches) with %d workers in %v\n",
		stats.ProcessedFiles, stats.TotalFiles, stats.FailedFiles, stats.TotalMatches,
		stats.WorkerCount, stats.TotalDuration.Round(time.Millisecond))
	return exitCode
}

// emit formats results and writes them to target, or to stdout when target is empty
func (a *app) emit(results []formatters.Result, target string) error {
	output, err := formatters.Export(a.settings.Format, results, formatters.FormatterOptions{
		NoColor: a.settings.NoColor || target != "",
	})
	if err != nil {
		return err
	}

	if target == "" {
		if output == "" {
			return nil
		}
		_, err := io.WriteString(a.stdout, output)
		if err == nil && !strings.HasSuffix(output, "\n") {
			_, err = io.WriteString(a.stdout, "\n")
		}
		return err
	}
	return formatters.WriteFile(target, output)
}

func (a *app) suggestedPath(sourcePath string, def *validators.Definition) string {
	ext := formatters.GetFormatInfo(a.settings.Format).Extension
	return filepath.Join(a.settings.OutputDir, formatters.SuggestedFileName(sourcePath, def.Name(), ext))
}

// printPreview shows the decorative document line before extraction
func (a *app) printPreview(path string) {
	info := preprocessors.Describe(path)
	line := fmt.Sprintf("%s: %s, %d bytes", info.Name, info.Format, info.Size)
	if info.PageCount > 0 {
		line += fmt.Sprintf(", %d page(s)", info.PageCount)
	}
	if info.PDFVersion != "" {
		line += ", PDF " + info.PDFVersion
	}
	color.New(color.FgHiBlack).Fprintln(a.stderr, line)
}

func handleWebMode(flags *cliFlags, catalog *validators.Catalog, reader *preprocessors.TextPreprocessor, settings config.Defaults, observer *observability.StandardObserver) error {
	// Validate that --file flag is not used with web mode
	if len(flags.files) > 0 {
		return fmt.Errorf("--web flag cannot be used with --file flag\n"+
			"Web mode starts a server - upload files to http://localhost:%s/extract", flags.webPort)
	}
	if flags.isFlagSet("output", "output-dir", "list", "preprocess-only", "p") {
		return fmt.Errorf("--web flag cannot be combined with --output, --output-dir, --list or --preprocess-only")
	}

	port, err := validatePort(flags.webPort)
	if err != nil {
		return fmt.Errorf("port validation failed: %w", err)
	}

	extractor := validators.NewExtractor(settings.MatchTimeout)
	extractor.SetObserver(observer)
	return web.NewWebServer(port, catalog, reader, extractor, observer).Start()
}

// validatePort validates that the port string is a valid port number
func validatePort(portStr string) (string, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", fmt.Errorf("invalid port format '%s': must be a number", portStr)
	}

	if port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}

	if port < 1024 && os.Geteuid() != 0 {
		return "", fmt.Errorf("port %d requires root privileges (ports below 1024 are privileged)", port)
	}

	return portStr, nil
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
