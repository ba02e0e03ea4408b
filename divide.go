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
	"image"
	"math"
	"math/bits"
)

// Ratio is the aspect ratio height / width of the cells in a mosaic, given as
// a fraction Num / Den.
type Ratio struct {
	Num, Den int
}

// DefaultAspectRatio describes portrait cells of shape 2:3, that is the cell
// height is 1.5 times the cell width.
var DefaultAspectRatio = Ratio{Num: 3, Den: 2}

// Float returns the ratio as a float.
func (r Ratio) Float() float64 {
	return float64(r.Num) / float64(r.Den)
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// TileDivision represents the division of an image into rectangles.
//
// Tiles are not stored in the fashion (x, y) but (y, x). That means each entry
// in the division describes one row of the image.
// The get method does this correctly.
type TileDivision [][]image.Rectangle

// Get returns the rectangle at position div[y][x], that is the rectangle
// in row y and column x.
func (div TileDivision) Get(x, y int) image.Rectangle {
	return div[y][x]
}

// Size returns the number of rectangles in the division.
func (div TileDivision) Size() int {
	res := 0
	for _, row := range div {
		res += len(row)
	}
	return res
}

// Grid describes the division of a source image into cells of the same
// (real valued) size. The number of columns is given, the cell width is
// width / columns and the cell height is the cell width times the aspect
// ratio. The number of rows is the number of complete cell heights that fit
// into the image, remaining pixels at the bottom are not part of the mosaic.
//
// Cell boundaries are real values as well. They are truncated to integer
// pixel positions, thus cells in the same row may differ by one pixel in
// width and cells in the same column by one pixel in height. The average
// color of a cell is computed over exactly those pixels, no area weighting of
// partly covered pixels takes place.
type Grid struct {
	Columns, Rows int
	// Width and Height are the dimensions of the source image.
	Width, Height int
	Ratio         Ratio
	// Origin is the top left corner of the source image.
	Origin image.Point
}

// NewGrid returns the grid for an image with the given bounds. An
// *InvalidGridError is returned if the grid would be degenerate: the image
// is empty, columns or ratio are not positive, a cell would be smaller than
// one pixel or not a single row fits into the image.
func NewGrid(bounds image.Rectangle, columns int, ratio Ratio) (Grid, error) {
	width, height := bounds.Dx(), bounds.Dy()
	invalid := func(reason string) (Grid, error) {
		return Grid{}, &InvalidGridError{
			Reason:  reason,
			Columns: columns,
			Width:   width,
			Height:  height,
		}
	}
	switch {
	case bounds.Empty():
		return invalid("source image has zero area")
	case columns <= 0:
		return invalid("number of columns must be positive")
	case ratio.Num <= 0 || ratio.Den <= 0:
		return invalid(fmt.Sprintf("aspect ratio must be positive, got %s", ratio))
	case columns > width:
		return invalid("tile width is smaller than one pixel")
	}
	// all bounds are computed from these products, yBound(row) never exceeds
	// heightScaled
	widthScaled, widthOK := mulInt(width, ratio.Num)
	columnsScaled, columnsOK := mulInt(columns, ratio.Den)
	heightScaled, heightOK := mulInt(height, columns, ratio.Den)
	if _, ok := mulInt(columns, width); !(ok && widthOK && columnsOK && heightOK) {
		return invalid(fmt.Sprintf("image or aspect ratio %s too large", ratio))
	}
	if widthScaled < columnsScaled {
		return invalid("tile height is smaller than one pixel")
	}
	// rows = floor(height / tileHeight) with
	// tileHeight = (width / columns) * (num / den)
	rows := heightScaled / widthScaled
	if rows <= 0 {
		return invalid("image is not high enough for a single row of tiles")
	}
	return Grid{
		Columns: columns,
		Rows:    rows,
		Width:   width,
		Height:  height,
		Ratio:   ratio,
		Origin:  bounds.Min,
	}, nil
}

// TileWidth returns the real valued width of a cell.
func (g Grid) TileWidth() float64 {
	return float64(g.Width) / float64(g.Columns)
}

// TileHeight returns the real valued height of a cell.
func (g Grid) TileHeight() float64 {
	return g.TileWidth() * g.Ratio.Float()
}

// NumCells returns rows * columns.
func (g Grid) NumCells() int {
	return g.Rows * g.Columns
}

// xBound returns floor(col * tileWidth).
func (g Grid) xBound(col int) int {
	return (col * g.Width) / g.Columns
}

// yBound returns floor(row * tileHeight).
func (g Grid) yBound(row int) int {
	return (row * g.Width * g.Ratio.Num) / (g.Columns * g.Ratio.Den)
}

// OutputCell returns the bounds of the cell in row and column in the output
// image, that is relative to (0, 0).
func (g Grid) OutputCell(row, col int) image.Rectangle {
	return image.Rect(g.xBound(col), g.yBound(row), g.xBound(col+1), g.yBound(row+1))
}

// Cell returns the bounds of the cell in row and column in the source image.
func (g Grid) Cell(row, col int) image.Rectangle {
	return g.OutputCell(row, col).Add(g.Origin)
}

// OutputBounds returns the bounds of the mosaic: The width of the source and
// the height of all rows, starting at (0, 0).
func (g Grid) OutputBounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.yBound(g.Rows))
}

// Divide returns all cells of the source image.
func (g Grid) Divide() TileDivision {
	res := make(TileDivision, g.Rows)
	for i := 0; i < g.Rows; i++ {
		res[i] = make([]image.Rectangle, g.Columns)
		for j := 0; j < g.Columns; j++ {
			res[i][j] = g.Cell(i, j)
		}
	}
	return res
}

// mulInt returns the product of the non-negative factors, ok is false if it
// does not fit into an int.
func mulInt(factors ...int) (res int, ok bool) {
	product := uint64(1)
	for _, f := range factors {
		hi, lo := bits.Mul64(product, uint64(f))
		if hi != 0 || lo > math.MaxInt {
			return 0, false
		}
		product = lo
	}
	return int(product), true
}
