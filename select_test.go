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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blackWhitePalette() *Palette {
	return NewPalette("bw",
		NewTile("black", solidImage(4, 6, black)),
		NewTile("white", solidImage(4, 6, white)),
	)
}

func TestNearest(t *testing.T) {
	palette := blackWhitePalette()
	assert.Equal(t, 0, palette.Nearest(NewRGB(10, 10, 10)))
	assert.Equal(t, 1, palette.Nearest(NewRGB(200, 200, 200)))
}

func TestNearestTieBreak(t *testing.T) {
	mid := NewRGB(127.5, 127.5, 127.5)
	palette := blackWhitePalette()
	assert.Equal(t, 0, palette.Nearest(mid))

	reversed := NewPalette("wb", palette.Tiles[1], palette.Tiles[0])
	assert.Equal(t, 0, reversed.Nearest(mid))
	assert.Equal(t, "white", reversed.Tile(reversed.Nearest(mid)).ID)
}

func TestNearestDuplicateColors(t *testing.T) {
	palette := NewPalette("dup",
		NewTile("a", solidImage(2, 2, white)),
		NewTile("b", solidImage(3, 3, black)),
		NewTile("c", solidImage(1, 1, black)),
	)
	assert.Equal(t, 1, palette.Nearest(NewRGB(1, 2, 3)))
}

func TestNearestEmpty(t *testing.T) {
	assert.Equal(t, -1, NewPalette("empty").Nearest(NewRGB(1, 2, 3)))
	var palette *Palette
	assert.Equal(t, -1, palette.Nearest(NewRGB(1, 2, 3)))
}

// halfImage is black in the left half and white in the right half.
func halfImage(width, height int) *image.NRGBA {
	img := solidImage(width, height, black)
	for y := 0; y < height; y++ {
		for x := width / 2; x < width; x++ {
			img.Set(x, y, white)
		}
	}
	return img
}

func TestSelectTiles(t *testing.T) {
	source := halfImage(600, 900)
	plan, err := SelectTiles(context.Background(), source, blackWhitePalette(), 50,
		ComposeOptions{NumRoutines: 4})
	require.NoError(t, err)
	require.Len(t, plan.Indices, 50)
	for _, row := range plan.Indices {
		require.Len(t, row, 50)
		for col, index := range row {
			if col < 25 {
				assert.Equal(t, 0, index)
			} else {
				assert.Equal(t, 1, index)
			}
		}
	}
	assert.Equal(t, RGB{255, 255, 255}, plan.Averages[3][30])
	assert.Equal(t, []int{1250, 1250}, plan.Usage(2))
}

func TestSelectTilesErrors(t *testing.T) {
	source := halfImage(60, 90)
	_, err := SelectTiles(context.Background(), source, NewPalette("empty"), 10, ComposeOptions{})
	assert.ErrorIs(t, err, ErrEmptyPalette)
	_, err = SelectTiles(context.Background(), source, blackWhitePalette(), 0, ComposeOptions{})
	assert.ErrorIs(t, err, ErrInvalidGrid)
}
