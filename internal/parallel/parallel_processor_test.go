// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"universal-extractor/internal/preprocessors"
	"universal-extractor/internal/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func emailDefinition(t *testing.T) *validators.Definition {
	t.Helper()
	def, err := validators.Lookup("E-mail address")
	require.NoError(t, err)
	return def
}

func TestProcessFiles_OrderedResultsAndIsolatedFailures(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.txt", "b@x.com a@x.com"),
		filepath.Join(dir, "missing.txt"),
		writeFile(t, dir, "c.csv", "name,mail\nzed,Z@x.com"),
		writeFile(t, dir, "d.exe", "MZ"),
		writeFile(t, dir, "e.md", ""),
	}

	pp := NewParallelProcessor(NewWorkerPool(3, nil, nil, nil), nil)

	var calls atomic.Int32
	results, stats := pp.ProcessFilesWithProgress(context.Background(), paths, emailDefinition(t), func(completed, total int, _ string) {
		calls.Add(1)
		assert.Equal(t, 5, total)
		assert.LessOrEqual(t, completed, total)
	})

	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, paths[i], r.FilePath)
		assert.Equal(t, "E-mail address", r.Definition)
	}

	assert.NoError(t, results[0].Error)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, results[0].Matches)
	assert.True(t, errors.Is(results[1].Error, preprocessors.ErrNotFound))
	assert.Equal(t, []string{"Z@x.com"}, results[2].Matches)
	assert.True(t, errors.Is(results[3].Error, preprocessors.ErrUnsupportedFormat))
	assert.NoError(t, results[4].Error)
	assert.Empty(t, results[4].Matches)

	assert.Equal(t, int32(5), calls.Load())
	assert.Equal(t, 5, stats.TotalFiles)
	assert.Equal(t, 3, stats.ProcessedFiles)
	assert.Equal(t, 2, stats.FailedFiles)
	assert.Equal(t, 3, stats.TotalMatches)
	assert.Equal(t, 3, stats.WorkerCount)
}

func TestRun_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "a@x.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewWorkerPool(2, nil, nil, nil).Run(ctx, []*Job{
		{JobID: "1", FilePath: path, Definition: emailDefinition(t)},
		{JobID: "2", FilePath: path, Definition: emailDefinition(t)},
	}, nil)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Error, context.Canceled)
	}
}

func TestRun_MissingDefinition(t *testing.T) {
	results := NewWorkerPool(1, nil, nil, nil).Run(context.Background(), []*Job{{JobID: "x", FilePath: "a.txt"}}, nil)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, validators.ErrUnknownDefinition)
}

type stubReader map[string]string

func (s stubReader) ReadAsText(path string) (string, error) {
	text, ok := s[path]
	if !ok {
		return "", errors.New("no such stub")
	}
	return text, nil
}

func TestRun_CustomReader(t *testing.T) {
	reader := stubReader{"one": "10.0.0.1", "two": "192.168.0.1 10.0.0.1"}
	def, err := validators.Lookup("IPv4 addresses")
	require.NoError(t, err)

	results := NewWorkerPool(4, reader, validators.NewExtractor(0), nil).Run(context.Background(), []*Job{
		{JobID: "1", FilePath: "one", Definition: def},
		{JobID: "2", FilePath: "two", Definition: def},
	}, nil)

	assert.Equal(t, []string{"10.0.0.1"}, results[0].Matches)
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.1"}, results[1].Matches)
}

func TestNewWorkerPool_MinimumOneWorker(t *testing.T) {
	assert.Equal(t, 1, NewWorkerPool(0, nil, nil, nil).Workers())
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
	assert.LessOrEqual(t, DefaultWorkers(), 8)
}
