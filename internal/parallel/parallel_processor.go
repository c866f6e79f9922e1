// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"universal-extractor/internal/observability"
	"universal-extractor/internal/validators"
)

// ParallelProcessor runs one definition over a batch of files
type ParallelProcessor struct {
	workerPool *WorkerPool
	observer   *observability.StandardObserver
}

// ProcessingStats tracks parallel processing statistics
type ProcessingStats struct {
	TotalFiles     int           `json:"total_files"`
	ProcessedFiles int           `json:"processed_files"`
	FailedFiles    int           `json:"failed_files"`
	TotalMatches   int           `json:"total_matches"`
	TotalDuration  time.Duration `json:"total_duration_ms"`
	WorkerCount    int           `json:"worker_count"`
	AvgFileTime    time.Duration `json:"avg_file_time_ms"`
}

// DefaultWorkers is the CPU count capped at 8
func DefaultWorkers() int {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8 // Cap at 8 workers to avoid resource exhaustion
	}
	return workers
}

// NewParallelProcessor creates a new parallel processor around a worker pool
func NewParallelProcessor(workerPool *WorkerPool, observer *observability.StandardObserver) *ParallelProcessor {
	return &ParallelProcessor{
		workerPool: workerPool,
		observer:   observer,
	}
}

// ProgressCallback is called when a file is completed
type ProgressCallback func(completed, total int, currentFile string)

// ProcessFiles processes multiple files in parallel
func (pp *ParallelProcessor) ProcessFiles(ctx context.Context, filePaths []string, def *validators.Definition) ([]*Result, *ProcessingStats) {
	return pp.ProcessFilesWithProgress(ctx, filePaths, def, nil)
}

// ProcessFilesWithProgress processes multiple files in parallel with progress callback.
// Results are in the order of filePaths.
func (pp *ParallelProcessor) ProcessFilesWithProgress(ctx context.Context, filePaths []string, def *validators.Definition, progressCallback ProgressCallback) ([]*Result, *ProcessingStats) {
	start := time.Now()
	finishTiming := pp.observer.StartTiming("parallel_processor", "process_files", "batch")

	jobs := make([]*Job, len(filePaths))
	for i, filePath := range filePaths {
		jobs[i] = &Job{
			JobID:      fmt.Sprintf("job_%d", i),
			FilePath:   filePath,
			Definition: def,
		}
	}

	var mu sync.Mutex
	completed := 0
	onDone := func(result *Result) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if progressCallback != nil {
			progressCallback(completed, len(jobs), result.FilePath)
		}
	}

	results := pp.workerPool.Run(ctx, jobs, onDone)

	stats := &ProcessingStats{
		TotalFiles:  len(jobs),
		WorkerCount: pp.workerPool.Workers(),
	}
	totalDuration := time.Duration(0)
	for _, result := range results {
		totalDuration += result.Duration
		if result.Error != nil {
			stats.FailedFiles++
			pp.observer.LogOperation(observability.StandardObservabilityData{
				Component: "parallel_processor",
				Operation: "file_processing",
				FilePath:  result.FilePath,
				Success:   false,
				Error:     result.Error.Error(),
			})
			continue
		}
		stats.ProcessedFiles++
		stats.TotalMatches += len(result.Matches)
	}
	stats.TotalDuration = time.Since(start)
	stats.AvgFileTime = totalDuration / time.Duration(max(stats.ProcessedFiles, 1))

	finishTiming(stats.FailedFiles == 0, map[string]interface{}{
		"total_files":     stats.TotalFiles,
		"processed_files": stats.ProcessedFiles,
		"failed_files":    stats.FailedFiles,
		"match_count":     stats.TotalMatches,
		"worker_count":    stats.WorkerCount,
		"duration_ms":     stats.TotalDuration.Milliseconds(),
	})

	return results, stats
}
