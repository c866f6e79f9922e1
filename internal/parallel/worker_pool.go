// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"time"

	"universal-extractor/internal/observability"
	"universal-extractor/internal/preprocessors"
	"universal-extractor/internal/validators"

	"golang.org/x/sync/errgroup"
)

// TextReader is the Format Reader side of a job
type TextReader interface {
	ReadAsText(filePath string) (string, error)
}

// WorkerPool reads files and applies a definition with bounded concurrency.
// Failures are terminal per job: a failed job never retries and never stops its siblings.
type WorkerPool struct {
	workers   int
	reader    TextReader
	extractor *validators.Extractor
	observer  *observability.StandardObserver
}

// Job represents a file processing task
type Job struct {
	JobID      string
	FilePath   string
	Definition *validators.Definition
}

// Result represents processing results
type Result struct {
	JobID      string
	FilePath   string
	Definition string
	Matches    []string
	Error      error
	Duration   time.Duration
}

// NewWorkerPool creates a worker pool. A nil reader uses the default Format Reader,
// a nil extractor applies definitions without a timeout.
func NewWorkerPool(workers int, reader TextReader, extractor *validators.Extractor, observer *observability.StandardObserver) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if reader == nil {
		reader = preprocessors.NewTextPreprocessor(preprocessors.Options{})
	}
	if extractor == nil {
		extractor = validators.NewExtractor(0)
	}
	return &WorkerPool{
		workers:   workers,
		reader:    reader,
		extractor: extractor,
		observer:  observer,
	}
}

// Workers returns the concurrency limit
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Run processes jobs and returns one result per job in submission order.
// onDone, when set, is called after each job from the goroutine that ran it.
// Jobs not started before ctx is cancelled carry ctx.Err().
func (wp *WorkerPool) Run(ctx context.Context, jobs []*Job, onDone func(*Result)) []*Result {
	results := make([]*Result, len(jobs))

	g := new(errgroup.Group)
	g.SetLimit(wp.workers)
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			results[i] = &Result{JobID: job.JobID, FilePath: job.FilePath, Definition: definitionName(job), Error: err}
			continue
		}
		g.Go(func() error {
			results[i] = wp.processJob(ctx, job)
			if onDone != nil {
				onDone(results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// processJob executes a single job
func (wp *WorkerPool) processJob(ctx context.Context, job *Job) *Result {
	start := time.Now()
	finishTiming := wp.observer.StartTiming("worker_pool", "process_job", job.FilePath)

	result := &Result{
		JobID:      job.JobID,
		FilePath:   job.FilePath,
		Definition: definitionName(job),
	}

	switch {
	case ctx.Err() != nil:
		result.Error = ctx.Err()
	case job.Definition == nil:
		result.Error = fmt.Errorf("%w: job %s has no definition", validators.ErrUnknownDefinition, job.JobID)
	default:
		text, err := wp.reader.ReadAsText(job.FilePath)
		if err != nil {
			result.Error = err
			break
		}
		result.Matches, result.Error = wp.extractor.Extract(ctx, job.Definition, text, job.FilePath)
	}

	result.Duration = time.Since(start)
	metadata := map[string]interface{}{
		"match_count": len(result.Matches),
		"duration_ms": result.Duration.Milliseconds(),
		"had_error":   result.Error != nil,
	}
	if result.Error != nil {
		metadata["error"] = result.Error.Error()
	}
	finishTiming(result.Error == nil, metadata)

	return result
}

func definitionName(job *Job) string {
	if job.Definition == nil {
		return ""
	}
	return job.Definition.Name()
}
