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
	"errors"
	"fmt"
)

var (
	// ErrEmptyPalette is returned when a mosaic should be composed but there
	// is no tile to choose from.
	ErrEmptyPalette = errors.New("Palette is empty, no tiles to compose a mosaic with")

	// ErrInvalidGrid is the error every InvalidGridError matches with
	// errors.Is.
	ErrInvalidGrid = errors.New("Invalid mosaic grid")
)

// DecodeError describes a tile asset that could not be opened or decoded.
// It is reported per tile, a palette build continues without the tile.
type DecodeError struct {
	ID  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("Can't decode tile %s: %v", e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EmptyPaletteError is returned by Compose if the palette contains no tiles.
// It matches ErrEmptyPalette.
type EmptyPaletteError struct {
	// Name is the name of the tile set the palette was built from, might be
	// empty.
	Name string
}

func (e *EmptyPaletteError) Error() string {
	if e.Name == "" {
		return ErrEmptyPalette.Error()
	}
	return fmt.Sprintf("Palette for tile set \"%s\" is empty, no tiles to compose a mosaic with", e.Name)
}

func (e *EmptyPaletteError) Is(target error) bool {
	return target == ErrEmptyPalette
}

// InvalidGridError is returned if the grid derived from the source image and
// the column count is degenerate. Reason names the constraint that failed.
type InvalidGridError struct {
	Reason        string
	Columns       int
	Width, Height int
}

func (e *InvalidGridError) Error() string {
	return fmt.Sprintf("Invalid mosaic grid (%d columns on %dx%d image): %s",
		e.Columns, e.Width, e.Height, e.Reason)
}

func (e *InvalidGridError) Is(target error) bool {
	return target == ErrInvalidGrid
}
