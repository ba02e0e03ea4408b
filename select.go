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
	"context"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Nearest returns the index of the tile whose average color has the smallest
// euclidean distance to c. The tiles are compared in palette order and only a
// strictly smaller distance replaces the best tile found so far, so ties are
// won by the tile that comes first.
//
// If the palette is empty -1 is returned.
func (p *Palette) Nearest(c RGB) int {
	best := -1
	var bestDist float64
	for i := 0; i < p.Len(); i++ {
		dist := colorDist(c, p.Tiles[i].Average)
		if best < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}

// Plan is the selection of tiles for each cell of a grid, without the
// composed image.
type Plan struct {
	Grid Grid
	// Indices[row][col] is the index of the tile in the palette.
	Indices [][]int
	// Averages[row][col] is the average color of the cell.
	Averages [][]RGB
}

// Usage returns how often each tile of the palette is used, the result has
// length numTiles.
func (plan *Plan) Usage(numTiles int) []int {
	res := make([]int, numTiles)
	for _, row := range plan.Indices {
		for _, index := range row {
			if index >= 0 && index < numTiles {
				res[index]++
			}
		}
	}
	return res
}

// checkInput validates palette and grid, as done before each composition.
func checkInput(source image.Image, palette *Palette, columns int, ratio Ratio) (Grid, error) {
	if palette.Empty() {
		name := ""
		if palette != nil {
			name = palette.Name
		}
		return Grid{}, &EmptyPaletteError{Name: name}
	}
	return NewGrid(source.Bounds(), columns, ratio)
}

// selectCell computes the average color of a cell and returns the best
// matching tile.
func selectCell(source image.Image, grid Grid, palette *Palette, row, col int) (int, RGB) {
	avg := ComputeRegionAverage(source, grid.Cell(row, col))
	return palette.Nearest(avg), avg
}

// forEachCell calls fn for each cell of the grid in numRoutines go routines.
// The order in which cells are processed is not defined, fn must only touch
// data owned by the cell.
// Before each cell ctx is checked, if it is done the context error is
// returned. progress (if not nil) is called after each cell.
func forEachCell(ctx context.Context, grid Grid, numRoutines int, progress ProgressFunc,
	fn func(row, col int) error) error {
	if numRoutines <= 0 {
		numRoutines = 1
	}
	type job struct {
		row, col int
	}
	jobs := make(chan job, BufferSize)
	group, groupCtx := errgroup.WithContext(ctx)

	// progress functions are not required to be safe for concurrent use
	var progressMutex sync.Mutex
	numDone := 0

	for w := 0; w < numRoutines; w++ {
		group.Go(func() error {
			for next := range jobs {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				if err := fn(next.row, next.col); err != nil {
					return err
				}
				if progress != nil {
					progressMutex.Lock()
					numDone++
					progress(numDone)
					progressMutex.Unlock()
				}
			}
			return nil
		})
	}

	group.Go(func() error {
		defer close(jobs)
		for i := 0; i < grid.Rows; i++ {
			for j := 0; j < grid.Columns; j++ {
				select {
				case jobs <- job{i, j}:
				case <-groupCtx.Done():
					return groupCtx.Err()
				}
			}
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}
	// a cancellation after the last cell still counts
	return ctx.Err()
}

// SelectTiles divides source into a grid with the given number of columns and
// selects the nearest tile from the palette for each cell. Composition uses
// the same selection, SelectTiles is useful to inspect the result without
// creating the image.
//
// It returns an *EmptyPaletteError if the palette is empty and an
// *InvalidGridError if no valid grid exists for the source and columns.
func SelectTiles(ctx context.Context, source image.Image, palette *Palette, columns int,
	opts ComposeOptions) (*Plan, error) {
	grid, err := checkInput(source, palette, columns, opts.AspectRatio())
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		Grid:     grid,
		Indices:  make([][]int, grid.Rows),
		Averages: make([][]RGB, grid.Rows),
	}
	for i := range plan.Indices {
		plan.Indices[i] = make([]int, grid.Columns)
		plan.Averages[i] = make([]RGB, grid.Columns)
	}
	cellErr := forEachCell(ctx, grid, opts.NumRoutines, opts.Progress, func(row, col int) error {
		plan.Indices[row][col], plan.Averages[row][col] = selectCell(source, grid, palette, row, col)
		return nil
	})
	if cellErr != nil {
		return nil, cellErr
	}
	return plan, nil
}
