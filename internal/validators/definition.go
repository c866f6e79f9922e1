// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package validators

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dlclark/regexp2"
)

// Sentinel errors for errors.Is checks
var (
	ErrPatternCompilation = errors.New("pattern compilation failed")
	ErrMatchTimeout       = errors.New("pattern match timed out")
	ErrUnknownDefinition  = errors.New("unknown extraction definition")
)

// MatchOptions are the regular expression flags of a definition
type MatchOptions struct {
	IgnoreCase bool
	Multiline  bool
}

// DefaultMatchOptions has both flags on
var DefaultMatchOptions = MatchOptions{IgnoreCase: true, Multiline: true}

func (o MatchOptions) regexOptions() regexp2.RegexOptions {
	opts := regexp2.None
	if o.IgnoreCase {
		opts |= regexp2.IgnoreCase
	}
	if o.Multiline {
		opts |= regexp2.Multiline
	}
	return opts
}

// String renders the flags for help output
func (o MatchOptions) String() string {
	var flags []string
	if o.IgnoreCase {
		flags = append(flags, "ignore-case")
	}
	if o.Multiline {
		flags = append(flags, "multiline")
	}
	if len(flags) == 0 {
		return "none"
	}
	return strings.Join(flags, ",")
}

// PatternError reports a definition whose pattern does not compile
type PatternError struct {
	Name    string
	Pattern string
	Cause   error
}

func (pe *PatternError) Error() string {
	return fmt.Sprintf("definition %q: invalid pattern %q: %v", pe.Name, pe.Pattern, pe.Cause)
}

func (pe *PatternError) Unwrap() error { return pe.Cause }

func (pe *PatternError) Is(target error) bool { return target == ErrPatternCompilation }

// Definition is an immutable named pattern.
// The compiled matcher is built on first use and published with a compare-and-swap, so racing callers
// may each compile once but all end up sharing the same matcher.
type Definition struct {
	name        string
	pattern     string
	options     MatchOptions
	description string
	builtin     bool

	matcher atomic.Pointer[regexp2.Regexp]
	timed   sync.Map // time.Duration -> *regexp2.Regexp
}

// NewDefinition creates a definition; its pattern is compiled lazily
func NewDefinition(name, pattern string, options MatchOptions, description string) *Definition {
	return &Definition{
		name:        name,
		pattern:     pattern,
		options:     options,
		description: description,
	}
}

func (d *Definition) Name() string          { return d.name }
func (d *Definition) Pattern() string       { return d.pattern }
func (d *Definition) Options() MatchOptions { return d.options }
func (d *Definition) Description() string   { return d.description }

// Builtin reports whether the definition belongs to the fixed catalog
func (d *Definition) Builtin() bool { return d.builtin }

// FileName is the name with spaces replaced by underscores, used in output file names
func (d *Definition) FileName() string {
	return strings.ReplaceAll(d.name, " ", "_")
}

// String returns the display name
func (d *Definition) String() string { return d.name }

// Compile builds the matcher if it is not cached yet
func (d *Definition) Compile() error {
	_, err := d.regex(0)
	return err
}

// regex returns the shared matcher, or a per-timeout variant when timeout is positive
func (d *Definition) regex(timeout time.Duration) (*regexp2.Regexp, error) {
	if timeout <= 0 {
		if re := d.matcher.Load(); re != nil {
			return re, nil
		}
		re, err := d.compile(regexp2.DefaultMatchTimeout)
		if err != nil {
			return nil, err
		}
		if d.matcher.CompareAndSwap(nil, re) {
			return re, nil
		}
		return d.matcher.Load(), nil
	}

	if cached, ok := d.timed.Load(timeout); ok {
		return cached.(*regexp2.Regexp), nil
	}
	re, err := d.compile(timeout)
	if err != nil {
		return nil, err
	}
	actual, _ := d.timed.LoadOrStore(timeout, re)
	return actual.(*regexp2.Regexp), nil
}

func (d *Definition) compile(timeout time.Duration) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(d.pattern, d.options.regexOptions())
	if err != nil {
		return nil, &PatternError{Name: d.name, Pattern: d.pattern, Cause: err}
	}
	re.MatchTimeout = timeout
	return re, nil
}
