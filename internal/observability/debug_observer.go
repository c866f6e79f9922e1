// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"fmt"
	"time"
)

// DebugObserver writes human-readable step lines next to the JSON records
type DebugObserver struct {
	parent *StandardObserver
}

func newDebugObserver(parent *StandardObserver) *DebugObserver {
	return &DebugObserver{parent: parent}
}

// StartStep announces a processing step and returns its completion callback
func (d *DebugObserver) StartStep(component, step, filePath string) func(success bool, details string) {
	if d == nil {
		return func(bool, string) {}
	}
	start := time.Now()
	d.printf("-> %s: %s (%s)\n", component, step, filePath)

	return func(success bool, details string) {
		status := "completed"
		if !success {
			status = "failed"
		}
		d.printf("<- %s: %s %s (%dms) %s\n", component, step, status, time.Since(start).Milliseconds(), details)
	}
}

// LogDetail logs a detail within the current step
func (d *DebugObserver) LogDetail(component, detail string) {
	if d == nil {
		return
	}
	d.printf("   %s: %s\n", component, detail)
}

func (d *DebugObserver) printf(format string, args ...interface{}) {
	d.parent.mu.Lock()
	defer d.parent.mu.Unlock()
	fmt.Fprintf(d.parent.writer, format, args...)
}
