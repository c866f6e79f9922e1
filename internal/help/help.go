// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"universal-extractor/internal/preprocessors"
	"universal-extractor/internal/validators"

	"github.com/fatih/color"
)

// System prints usage and the definition catalog
type System struct {
	catalog *validators.Catalog
	out     io.Writer
	noColor bool
	colors  map[string]*color.Color
}

// NewSystem creates a new help system for the given catalog
func NewSystem(catalog *validators.Catalog, noColor bool) *System {
	// Disable colors if requested
	if noColor {
		color.NoColor = true
	}

	return &System{
		catalog: catalog,
		out:     os.Stdout,
		noColor: noColor,
		colors: map[string]*color.Color{
			"title":    color.New(color.FgWhite, color.Bold),
			"header":   color.New(color.FgBlue, color.Bold),
			"item":     color.New(color.FgCyan),
			"emphasis": color.New(color.FgWhite, color.Bold),
			"negative": color.New(color.FgRed),
			"muted":    color.New(color.FgHiBlack),
			"example":  color.New(color.FgMagenta),
		},
	}
}

// SetOutput redirects help output
func (h *System) SetOutput(w io.Writer) {
	h.out = w
}

// ShowGeneralHelp displays general help information
func (h *System) ShowGeneralHelp() {
	h.colors["title"].Fprintln(h.out, "Universal Extractor - Pattern Extraction From Documents")
	fmt.Fprintln(h.out, "=======================================================")
	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "USAGE:")
	fmt.Fprintln(h.out, "  universal-extractor --file <path> --definition <name> [options]")
	fmt.Fprintln(h.out, "  universal-extractor --web [--port <port>]  # Web server mode")
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "OPTIONS:")
	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  --file\t<path>\tInput document; repeat or comma-separate for a batch")
	fmt.Fprintln(w, "  --definition\t<name>\tDefinition to apply (name, case-insensitive, or underscored form)")
	fmt.Fprintln(w, "  --output\t<path>\tOutput file (single input only; default: stdout)")
	fmt.Fprintln(w, "  --output-dir\t<dir>\tWrite {stem}_{definition}.txt per input into this directory")
	fmt.Fprintln(w, "  --format\t<format>\tOutput format: text, json, csv, yaml (default: text)")
	fmt.Fprintln(w, "  --list\t\tList available definitions and exit")
	fmt.Fprintln(w, "  --preprocess-only, -p\t\tPrint the normalized text and exit")
	fmt.Fprintln(w, "  --markup\t<mode>\tHTML/Markdown handling: raw or strip (default: raw)")
	fmt.Fprintln(w, "  --config\t<path>\tPath to configuration file (YAML)")
	fmt.Fprintln(w, "  --profile\t<name>\tProfile name to use from config file")
	fmt.Fprintln(w, "  --workers\t<n>\tConcurrent files in batch mode (default: number of CPUs)")
	fmt.Fprintln(w, "  --timeout\t<duration>\tPer-definition match timeout, e.g. 5s (default: none)")
	fmt.Fprintln(w, "  --no-color\t\tDisable colored output")
	fmt.Fprintln(w, "  --debug\t\tEmit JSON timing records and processing steps to stderr")
	fmt.Fprintln(w, "  --web\t\tStart web server mode")
	fmt.Fprintln(w, "  --port\t<port>\tPort for web server (default: 8080, only used with --web)")
	fmt.Fprintln(w, "  --version\t\tShow version information")
	fmt.Fprintln(w, "  --help\t\tShow this help message")
	w.Flush()

	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "SUPPORTED FORMATS:")
	fmt.Fprintf(h.out, "  %s\n", strings.Join(preprocessors.SupportedExtensions(), " "))

	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "EXAMPLES:")
	h.colors["example"].Fprintln(h.out, "  universal-extractor --file report.pdf --definition \"E-mail address\"")
	h.colors["example"].Fprintln(h.out, "  universal-extractor --file a.docx,b.odt --definition IBAN --output-dir ./out")
	h.colors["example"].Fprintln(h.out, "  universal-extractor --file notes.md --preprocess-only --markup strip")
	h.colors["example"].Fprintln(h.out, "  universal-extractor --list")

	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "CONFIGURATION:")
	fmt.Fprintln(h.out, "  Default config: <user config dir>/universal-extractor/config.yaml")
	fmt.Fprintln(h.out, "  Project config: universal-extractor.yaml or .universal-extractor.yaml (in current directory)")
	fmt.Fprintln(h.out, "  Environment: UNIVERSAL_EXTRACTOR_CONFIG_DIR - Override config directory")
}

// ShowDefinitionsHelp lists the catalog in declaration order
func (h *System) ShowDefinitionsHelp() {
	h.colors["title"].Fprintln(h.out, "Available Definitions")
	fmt.Fprintln(h.out, "=====================")
	fmt.Fprintln(h.out)

	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	h.colors["header"].Fprintln(w, "  NAME\tOPTIONS\tDESCRIPTION")
	h.colors["header"].Fprintln(w, "  ----\t-------\t-----------")
	for _, def := range h.catalog.All() {
		fmt.Fprint(w, "  ")
		h.colors["emphasis"].Fprint(w, def.Name())
		description := def.Description()
		if !def.Builtin() {
			description = strings.TrimSpace(description + " (custom)")
		}
		fmt.Fprintf(w, "\t%s\t%s\n", def.Options(), description)
	}
	w.Flush()

	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, "For the pattern of a specific definition, use:")
	h.colors["example"].Fprintln(h.out, "  universal-extractor --list --definition <name>")
}

// ShowDefinitionHelp displays one definition with its pattern
func (h *System) ShowDefinitionHelp(name string) bool {
	def, err := h.catalog.Lookup(name)
	if err != nil {
		h.colors["negative"].Fprintf(h.out, "Error: Definition '%s' not found.\n", name)
		fmt.Fprintln(h.out, "Use 'universal-extractor --list' to see a list of available definitions.")
		return false
	}

	h.colors["title"].Fprintln(h.out, def.Name())
	fmt.Fprintln(h.out, strings.Repeat("=", len(def.Name())))
	if def.Description() != "" {
		fmt.Fprintln(h.out, def.Description())
	}
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "PATTERN:")
	fmt.Fprint(h.out, "  ")
	h.colors["item"].Fprintln(h.out, def.Pattern())
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "OPTIONS:")
	fmt.Fprintf(h.out, "  %s\n", def.Options())
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "OUTPUT FILE:")
	h.colors["muted"].Fprintf(h.out, "  <document>_%s.txt\n", def.FileName())
	return true
}
