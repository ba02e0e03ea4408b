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
	"image/color"
	"sync"
	"testing"

	"github.com/nfnt/resize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradientImage has a different color in each pixel.
func gradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 255 / width), uint8(y * 255 / height), uint8((x + y) % 256), 255})
		}
	}
	return img
}

// colorPalette contains tiles with different patterns, so scaling them
// matters.
func colorPalette() *Palette {
	tiles := make([]Tile, 0, 8)
	for i := 0; i < 8; i++ {
		img := image.NewNRGBA(image.Rect(0, 0, 8, 12))
		for y := 0; y < 12; y++ {
			for x := 0; x < 8; x++ {
				img.Set(x, y, color.NRGBA{uint8(i * 32), uint8(x * 30), uint8(255 - y*20), 255})
			}
		}
		tiles = append(tiles, NewTile(string(rune('a'+i)), img))
	}
	return NewPalette("colors", tiles...)
}

func TestComposeSolidTiles(t *testing.T) {
	source := halfImage(600, 900)
	opts := ComposeOptions{NumRoutines: 4, Resizer: NewNfntResizer(resize.NearestNeighbor)}
	res, err := Compose(context.Background(), source, blackWhitePalette(), 50, opts)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 600, 900), res.Bounds())
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, res.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, res.RGBAAt(299, 899))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, res.RGBAAt(300, 0))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, res.RGBAAt(599, 899))
}

func TestComposeOutputSize(t *testing.T) {
	// source starting somewhere else than (0, 0)
	source := gradientImage(150, 140).SubImage(image.Rect(20, 10, 120, 110))
	res, err := Compose(context.Background(), source, colorPalette(), 10, ComposeOptions{})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 90), res.Bounds())
}

func TestComposeEmptyPalette(t *testing.T) {
	source := halfImage(60, 90)
	for _, palette := range []*Palette{nil, NewPalette("empty")} {
		res, err := Compose(context.Background(), source, palette, 10, DefaultComposeOptions())
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrEmptyPalette)
		var paletteErr *EmptyPaletteError
		assert.ErrorAs(t, err, &paletteErr)
	}
}

func TestComposeInvalidGrid(t *testing.T) {
	res, err := Compose(context.Background(), halfImage(60, 90), blackWhitePalette(), -1, ComposeOptions{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidGrid)

	res, err = Compose(context.Background(), image.NewRGBA(image.Rectangle{}), blackWhitePalette(), 10, ComposeOptions{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidGrid)
}

func TestComposeIdempotent(t *testing.T) {
	source := gradientImage(203, 311)
	palette := colorPalette()
	opts := ComposeOptions{NumRoutines: 8, Resizer: DefaultResizer}
	first, err := Compose(context.Background(), source, palette, 13, opts)
	require.NoError(t, err)
	second, err := Compose(context.Background(), source, palette, 13, opts)
	require.NoError(t, err)
	assert.Equal(t, first.Bounds(), second.Bounds())
	assert.Equal(t, first.Pix, second.Pix)
}

func TestComposeCellOrder(t *testing.T) {
	source := gradientImage(157, 260)
	palette := colorPalette()
	resizer := NewNfntResizer(resize.Bilinear)
	columns := 11

	res, err := Compose(context.Background(), source, palette, columns,
		ComposeOptions{NumRoutines: 6, Resizer: resizer, CacheSize: 1})
	require.NoError(t, err)

	// compose again, one cell after the other in reverse order
	grid, err := NewGrid(source.Bounds(), columns, DefaultAspectRatio)
	require.NoError(t, err)
	expected := image.NewRGBA(grid.OutputBounds())
	cache := NewImageCache(ImageCacheSize)
	for row := grid.Rows - 1; row >= 0; row-- {
		for col := grid.Columns - 1; col >= 0; col-- {
			tile, _ := selectCell(source, grid, palette, row, col)
			insertTile(expected, grid.OutputCell(row, col), palette, tile, resizer, cache)
		}
	}
	assert.Equal(t, expected.Pix, res.Pix)
}

func TestComposeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Compose(ctx, gradientImage(100, 150), colorPalette(), 10, ComposeOptions{NumRoutines: 2})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComposeProgress(t *testing.T) {
	var m sync.Mutex
	var calls []int
	progress := func(num int) {
		m.Lock()
		defer m.Unlock()
		calls = append(calls, num)
	}
	_, err := Compose(context.Background(), gradientImage(60, 90), colorPalette(), 10,
		ComposeOptions{NumRoutines: 3, Progress: progress})
	require.NoError(t, err)
	require.Len(t, calls, 100)
	assert.Equal(t, 100, calls[len(calls)-1])
}

func TestImageCache(t *testing.T) {
	cache := NewImageCache(2)
	a := solidImage(1, 1, black)
	b := solidImage(1, 1, white)
	assert.Nil(t, cache.Get(0, 1, 1))
	cache.Put(0, 1, 1, a)
	cache.Put(1, 1, 1, b)
	cache.Put(1, 1, 1, a)
	assert.Equal(t, 2, cache.Len())
	assert.Same(t, b, cache.Get(1, 1, 1))
	// full, the first image is removed
	cache.Put(2, 1, 1, a)
	assert.Equal(t, 2, cache.Len())
	assert.Nil(t, cache.Get(0, 1, 1))
	assert.NotNil(t, cache.Get(2, 1, 1))
}
