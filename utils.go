// Copyright 2026 The objekt-mosaic Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mosaic

import (
	"fmt"
	"io"
	"runtime"

	log "github.com/sirupsen/logrus"
)

var (
	// BufferSize is the (default) size of buffers. Some methods create buffered
	// channels, this parameter controls how big such buffers might be.
	// Usually such buffers store no big data (ints, bools etc.).
	BufferSize = 1000
)

const (
	// MinColumns and MaxColumns is the range of column counts the outer
	// surfaces (command line, web) accept. The core itself accepts every
	// positive count that leads to a valid grid.
	MinColumns = 5
	MaxColumns = 200

	// DefaultColumns is the column count used if nothing else is given.
	DefaultColumns = 50
)

// ValidateColumns returns an error if columns is not in
// [MinColumns, MaxColumns].
func ValidateColumns(columns int) error {
	if columns < MinColumns || columns > MaxColumns {
		return fmt.Errorf("Number of columns must be between %d and %d, got %d",
			MinColumns, MaxColumns, columns)
	}
	return nil
}

// DefaultRoutines returns the number of go routines used if nothing else is
// configured, twice the number of CPUs.
func DefaultRoutines() int {
	res := runtime.NumCPU() * 2
	if res <= 0 {
		res = 4
	}
	return res
}

// ProgressFunc is a function that is used to inform a caller about the progress
// of a called function.
// For example if we process thousands of tiles we might wish to know
// how far the call is and give feedback to the user.
// The called method calls the process function after each iteration with the
// number of items done so far.
//
// Progress functions may be called from different go routines, but never
// concurrently.
type ProgressFunc func(num int)

// ProgressIgnore is a ProgressFunc that does nothing.
func ProgressIgnore(num int) {}

func progressPercent(num, max int) float64 {
	percent := (float64(num) / float64(max)) * 100.0
	if percent > 100.0 {
		percent = 100.0
	}
	return percent
}

func reportProgress(num, max, step int) bool {
	if step == 0 || max == 0 {
		return false
	}
	// always report the last item
	return step < 0 || num%step == 0 || num == max
}

// LoggerProgressFunc is a parameterized ProgressFunc that logs to log.
// The output describes the progress (how many of how many objects processed).
// Log messages may have an addition prefix. max is the total number of elements
// to process and step describes how often to print to the log (for example
// step = 100 every 100 items).
func LoggerProgressFunc(prefix string, max, step int) ProgressFunc {
	return func(num int) {
		if !reportProgress(num, max, step) {
			return
		}
		percent := progressPercent(num, max)
		if prefix == "" {
			log.Printf("Progress: %d of %d (%.1f%%)", num, max, percent)
		} else {
			log.Printf("%s: %d of %d (%.1f%%)", prefix, num, max, percent)
		}
	}
}

// StdProgressFunc is a parameterized ProgressFunc that logs to the
// specified writer. It works as LoggerProgressFunc.
func StdProgressFunc(w io.Writer, prefix string, max, step int) ProgressFunc {
	return func(num int) {
		if !reportProgress(num, max, step) {
			return
		}
		percent := progressPercent(num, max)
		if prefix == "" {
			fmt.Fprintf(w, "Progress: %d of %d (%.1f%%)\n", num, max, percent)
		} else {
			fmt.Fprintf(w, "%s: %d of %d (%.1f%%)\n", prefix, num, max, percent)
		}
	}
}
