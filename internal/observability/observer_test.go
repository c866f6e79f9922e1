// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilObserverIsNoop(t *testing.T) {
	var o *StandardObserver
	assert.Equal(t, ObservabilityOff, o.Level())

	finish := o.StartTiming("component", "op", "file.txt")
	require.NotNil(t, finish)
	finish(true, nil)
	o.LogOperation(StandardObservabilityData{Component: "x"})
}

func TestStartTiming_DebugWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	o := NewStandardObserver(ObservabilityDebug, &buf)

	finish := o.StartTiming("pattern_extractor", "extract", "a.txt")
	finish(true, map[string]interface{}{"match_count": 3, "content_length": 42})
	finish = o.StartTiming("text_preprocessor", "process_file", "b.pdf")
	finish(false, map[string]interface{}{"error": "boom"})

	var records []StandardObservabilityData
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var rec StandardObservabilityData
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)

	assert.Equal(t, "pattern_extractor", records[0].Component)
	assert.True(t, records[0].Success)
	assert.Equal(t, 3, records[0].MatchCount)
	assert.Equal(t, 42, records[0].ContentLength)
	assert.True(t, strings.HasPrefix(records[0].RequestID, "req-"))

	assert.False(t, records[1].Success)
	assert.Equal(t, "boom", records[1].Error)
	assert.NotEqual(t, records[0].RequestID, records[1].RequestID)
}

func TestMetricsLevelIsSilent(t *testing.T) {
	var buf bytes.Buffer
	o := NewStandardObserver(ObservabilityMetrics, &buf)
	o.StartTiming("c", "op", "f")(true, nil)

	assert.Empty(t, buf.String())
	assert.Nil(t, o.DebugObserver)
}

func TestDebugObserverSteps(t *testing.T) {
	var buf bytes.Buffer
	o := NewStandardObserver(ObservabilityDebug, &buf)
	require.NotNil(t, o.DebugObserver)

	done := o.DebugObserver.StartStep("text_preprocessor", "process_file", "a.docx")
	o.DebugObserver.LogDetail("text_preprocessor", "main part word/document.xml")
	done(false, "malformed container")

	out := buf.String()
	assert.Contains(t, out, "-> text_preprocessor: process_file (a.docx)")
	assert.Contains(t, out, "   text_preprocessor: main part word/document.xml")
	assert.Contains(t, out, "<- text_preprocessor: process_file failed")

	var nilDebug *DebugObserver
	nilDebug.StartStep("c", "s", "f")(true, "")
	nilDebug.LogDetail("c", "ignored")
}
