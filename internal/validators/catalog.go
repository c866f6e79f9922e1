// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package validators

import (
	"fmt"
	"strings"
)

var builtinOnlyMultiline = MatchOptions{Multiline: true}

// builtins is the fixed catalog in declaration order. It is never mutated after init.
var builtins = []*Definition{
	builtin("E-mail address",
		`\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`,
		DefaultMatchOptions,
		"Extracts e-mail addresses."),
	builtin("Phone number",
		`\b(?:\+?\d{1,3}[\s.-]?)?(?:\(?\d{2,4}\)?[\s.-]?){2,4}\d{2,4}\b`,
		builtinOnlyMultiline,
		"Extracts phone numbers with optional country code and separators."),
	builtin("Social network handles",
		`(?<!\S)@[A-Za-z0-9._]{3,32}\b`,
		builtinOnlyMultiline,
		"Extracts @handles that start a word."),
	builtin("Dates",
		`\b(?:\d{4}-\d{2}-\d{2}|\d{2}[\/.-]\d{2}[\/.-]\d{4})\b`,
		DefaultMatchOptions,
		"Extracts ISO dates and dd/mm/yyyy style dates."),
	builtin("Credit card number",
		`\b(?:\d[ -]?){13,16}\b`,
		builtinOnlyMultiline,
		"Extracts 13 to 16 digit runs with optional spaces or dashes. No checksum validation."),
	builtin("IBAN",
		`\b[A-Z]{2}\d{2}[A-Z0-9]{8,30}\b`,
		DefaultMatchOptions,
		"Extracts international bank account numbers."),
	builtin("BIC/SWIFT",
		`\b[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}([A-Z0-9]{3})?\b`,
		DefaultMatchOptions,
		"Extracts bank identifier codes."),
	builtin("IPv4 addresses",
		`\b(?:(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\.){3}(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\b`,
		builtinOnlyMultiline,
		"Extracts dotted-quad IPv4 addresses."),
	builtin("IPv6",
		`\b(?:[A-F0-9]{1,4}:){7}[A-F0-9]{1,4}\b|\b(?:[A-F0-9]{1,4}:){1,7}:|\b:(?:[A-F0-9]{1,4}:){1,7}[A-F0-9]{1,4}\b`,
		DefaultMatchOptions,
		"Extracts full and compressed IPv6 addresses."),
	builtin("MD5",
		`\b[A-F0-9]{32}\b`,
		DefaultMatchOptions,
		"Extracts 32 character hex digests."),
	builtin("SHA1",
		`\b[A-F0-9]{40}\b`,
		DefaultMatchOptions,
		"Extracts 40 character hex digests."),
	builtin("SHA256",
		`\b[A-F0-9]{64}\b`,
		DefaultMatchOptions,
		"Extracts 64 character hex digests."),
}

// builtin compiles eagerly so a broken catalog entry fails at startup
func builtin(name, pattern string, options MatchOptions, description string) *Definition {
	d := NewDefinition(name, pattern, options, description)
	d.builtin = true
	if err := d.Compile(); err != nil {
		panic(err)
	}
	return d
}

var defaultCatalog = &Catalog{definitions: builtins}

// Catalog is an ordered, read-only set of definitions
type Catalog struct {
	definitions []*Definition
}

// Builtins returns the process-wide catalog of fixed definitions
func Builtins() *Catalog {
	return defaultCatalog
}

// All returns the built-in definitions in declaration order
func All() []*Definition {
	return defaultCatalog.All()
}

// Lookup resolves a built-in definition by name
func Lookup(name string) (*Definition, error) {
	return defaultCatalog.Lookup(name)
}

// WithCustom returns a new catalog with the given definitions appended after the existing ones.
// Names must be non-empty and unique ignoring case; custom patterns are not compiled here.
func (c *Catalog) WithCustom(custom ...*Definition) (*Catalog, error) {
	seen := make(map[string]bool, len(c.definitions)+len(custom))
	for _, d := range c.definitions {
		seen[strings.ToUpper(d.Name())] = true
	}

	definitions := make([]*Definition, 0, len(c.definitions)+len(custom))
	definitions = append(definitions, c.definitions...)
	for _, d := range custom {
		name := strings.TrimSpace(d.Name())
		if name == "" {
			return nil, fmt.Errorf("custom definition with pattern %q has no name", d.Pattern())
		}
		if d.Pattern() == "" {
			return nil, fmt.Errorf("custom definition %q has an empty pattern", name)
		}
		key := strings.ToUpper(name)
		if seen[key] {
			return nil, fmt.Errorf("custom definition %q conflicts with an existing definition", name)
		}
		seen[key] = true
		definitions = append(definitions, d)
	}
	return &Catalog{definitions: definitions}, nil
}

// All returns the definitions in catalog order
func (c *Catalog) All() []*Definition {
	out := make([]*Definition, len(c.definitions))
	copy(out, c.definitions)
	return out
}

// Names returns the display names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.definitions))
	for i, d := range c.definitions {
		names[i] = d.Name()
	}
	return names
}

// Lookup finds a definition by exact name, then ignoring case, then by its underscored file name form
func (c *Catalog) Lookup(name string) (*Definition, error) {
	name = strings.TrimSpace(name)
	for _, d := range c.definitions {
		if d.Name() == name {
			return d, nil
		}
	}
	for _, d := range c.definitions {
		if strings.EqualFold(d.Name(), name) {
			return d, nil
		}
	}
	for _, d := range c.definitions {
		if strings.EqualFold(d.FileName(), name) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDefinition, name)
}
