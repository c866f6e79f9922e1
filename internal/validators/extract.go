// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package validators

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"universal-extractor/internal/observability"
)

// Extract runs a definition over text with no timeout.
// The result is trimmed, deduplicated and sorted ignoring case; it is empty, never nil, when nothing matches.
func Extract(def *Definition, text string) ([]string, error) {
	return ExtractContext(context.Background(), def, text, 0)
}

// ExtractContext is Extract with cancellation and an optional per-match timeout.
// A zero timeout leaves matching unbounded.
func ExtractContext(ctx context.Context, def *Definition, text string, timeout time.Duration) ([]string, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrUnknownDefinition)
	}
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}

	re, err := def.regex(timeout)
	if err != nil {
		return nil, err
	}

	var matches []string
	m, err := re.FindStringMatch(text)
	for m != nil && err == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if value := strings.TrimSpace(m.String()); value != "" {
			matches = append(matches, value)
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return nil, fmt.Errorf("definition %q: %w: %w", def.Name(), ErrMatchTimeout, err)
	}

	return normalize(matches), nil
}

// normalize sorts ignoring case and keeps the first of each case-insensitive run.
// The sort is stable, so among equal keys the earliest match in the text survives.
func normalize(matches []string) []string {
	keys := make([]string, len(matches))
	order := make([]int, len(matches))
	for i, m := range matches {
		keys[i] = foldKey(m)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]] < keys[order[b]]
	})

	result := make([]string, 0, len(matches))
	last := ""
	for n, i := range order {
		if n > 0 && keys[i] == last {
			continue
		}
		last = keys[i]
		result = append(result, matches[i])
	}
	return result
}

// foldKey is the comparison key for ordinal case-insensitive equality and ordering
func foldKey(s string) string {
	return strings.ToUpper(s)
}

// Extractor applies definitions with a shared timeout and reports timings to an observer
type Extractor struct {
	Timeout  time.Duration
	observer *observability.StandardObserver
}

// NewExtractor creates an extractor; a zero timeout leaves matching unbounded
func NewExtractor(timeout time.Duration) *Extractor {
	return &Extractor{Timeout: timeout}
}

// SetObserver sets the observability component
func (e *Extractor) SetObserver(observer *observability.StandardObserver) {
	e.observer = observer
}

// Extract runs def over text that was read from sourcePath. sourcePath is only used for logging.
func (e *Extractor) Extract(ctx context.Context, def *Definition, text, sourcePath string) ([]string, error) {
	finishTiming := e.observer.StartTiming("pattern_extractor", "extract", sourcePath)
	var finishStep func(bool, string)
	if e.observer != nil && e.observer.DebugObserver != nil {
		finishStep = e.observer.DebugObserver.StartStep("pattern_extractor", "extract", sourcePath)
	}

	matches, err := ExtractContext(ctx, def, text, e.Timeout)

	metadata := map[string]interface{}{
		"content_length": len(text),
	}
	if def != nil {
		metadata["definition"] = def.Name()
	}
	if err != nil {
		metadata["error"] = err.Error()
	} else {
		metadata["match_count"] = len(matches)
	}
	finishTiming(err == nil, metadata)
	if finishStep != nil {
		if err != nil {
			finishStep(false, fmt.Sprintf("Extraction failed: %v", err))
		} else {
			finishStep(true, fmt.Sprintf("Found %d unique matches", len(matches)))
		}
	}

	return matches, err
}
