// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"universal-extractor/internal/formatters"
)

// JSONResponse represents the top-level response structure for JSON/YAML output
type JSONResponse struct {
	Results []JSONResult `json:"results" yaml:"results"`
}

// JSONResult represents one extraction in JSON/YAML format
type JSONResult struct {
	Source     string   `json:"source" yaml:"source"`
	Definition string   `json:"definition" yaml:"definition"`
	Count      int      `json:"count" yaml:"count"`
	Matches    []string `json:"matches" yaml:"matches"`
}

// ConvertResults converts extraction results to the JSON/YAML structure.
// Matches is always a list, never null, so empty results stay distinguishable from missing ones.
func ConvertResults(results []formatters.Result) JSONResponse {
	converted := make([]JSONResult, 0, len(results))
	for _, r := range results {
		matches := r.Matches
		if matches == nil {
			matches = []string{}
		}
		converted = append(converted, JSONResult{
			Source:     r.Source,
			Definition: r.Definition,
			Count:      len(matches),
			Matches:    matches,
		})
	}
	return JSONResponse{Results: converted}
}
