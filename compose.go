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
	"image/draw"
	"sync"
)

var (
	// ImageCacheSize is the default size of image caches. During composition
	// scaled versions of the tiles are cached, since cells differ by at most
	// one pixel in width and height each tile appears in at most four sizes.
	// It must be a number ≥ 1.
	ImageCacheSize = 256
)

// ComposeOptions controls the composition of a mosaic. The zero value is
// usable, DefaultComposeOptions returns the values used by the outer
// surfaces.
type ComposeOptions struct {
	// Ratio is the aspect ratio of the cells, the zero value means
	// DefaultAspectRatio.
	Ratio Ratio
	// NumRoutines is the number of cells processed concurrently, values ≤ 0
	// mean one go routine.
	NumRoutines int
	// Resizer is used to scale the tiles to the size of the cells, nil means
	// DefaultResizer.
	Resizer ImageResizer
	// CacheSize is the number of scaled tiles to keep in memory, values ≤ 0
	// mean ImageCacheSize.
	CacheSize int
	// Progress is called after each cell, it may be nil.
	Progress ProgressFunc
}

// DefaultComposeOptions returns options with the default aspect ratio,
// DefaultRoutines go routines and the default resizer.
func DefaultComposeOptions() ComposeOptions {
	return ComposeOptions{
		Ratio:       DefaultAspectRatio,
		NumRoutines: DefaultRoutines(),
		Resizer:     DefaultResizer,
		CacheSize:   ImageCacheSize,
	}
}

// AspectRatio returns Ratio or DefaultAspectRatio if Ratio is the zero value.
func (opts ComposeOptions) AspectRatio() Ratio {
	if opts.Ratio == (Ratio{}) {
		return DefaultAspectRatio
	}
	return opts.Ratio
}

func (opts ComposeOptions) resizer() ImageResizer {
	if opts.Resizer == nil {
		return DefaultResizer
	}
	return opts.Resizer
}

func (opts ComposeOptions) cacheSize() int {
	if opts.CacheSize <= 0 {
		return ImageCacheSize
	}
	return opts.CacheSize
}

type cacheKey struct {
	tile, width, height int
}

// ImageCache is used to cache resized versions of tiles during mosaic
// generation. The same tile with the same size appears often in a mosaic and
// resizing an image is not very fast.
// When the cache is full the image added first is removed.
//
// Caches are safe for concurrent use.
type ImageCache struct {
	m           *sync.Mutex
	size        int
	content     map[cacheKey]image.Image
	insertOrder []cacheKey
}

// NewImageCache returns an empty image cache. size is the number of images that
// will be cached. size must be ≥ 1.
func NewImageCache(size int) *ImageCache {
	if size <= 0 {
		size = 1
	}
	return &ImageCache{
		m:           new(sync.Mutex),
		size:        size,
		content:     make(map[cacheKey]image.Image, size),
		insertOrder: make([]cacheKey, 0, size),
	}
}

// Put adds an image to the cache. Usually Put is called after Get: If the
// image was not found in the cache it is scaled and then added to the cache via
// Put.
func (cache *ImageCache) Put(tile, width, height int, img image.Image) {
	cache.m.Lock()
	defer cache.m.Unlock()
	key := cacheKey{tile, width, height}
	// first check if image already in cache, if yes do nothing
	if _, has := cache.content[key]; has {
		return
	}
	if len(cache.insertOrder) >= cache.size {
		// cache full, remove first element from cache
		fst := cache.insertOrder[0]
		cache.insertOrder = cache.insertOrder[1:]
		delete(cache.content, fst)
	}
	cache.insertOrder = append(cache.insertOrder, key)
	cache.content[key] = img
}

// Get returns the image from the cache. If the return value is nil the image
// was not found in the cache and should be added to the cache by Put.
func (cache *ImageCache) Get(tile, width, height int) image.Image {
	cache.m.Lock()
	defer cache.m.Unlock()
	return cache.content[cacheKey{tile, width, height}]
}

// Len returns the number of cached images.
func (cache *ImageCache) Len() int {
	cache.m.Lock()
	defer cache.m.Unlock()
	return len(cache.content)
}

// insertTile scales the tile to the size of area and replaces the pixels of
// area in into. Only pixels inside area are written.
func insertTile(into *image.RGBA, area image.Rectangle, palette *Palette, tile int,
	resizer ImageResizer, cache *ImageCache) {
	tileWidth := area.Dx()
	tileHeight := area.Dy()
	// first try to lookup the image in the cache
	img := cache.Get(tile, tileWidth, tileHeight)
	if img == nil {
		src := palette.Tiles[tile].Image
		if src.Bounds().Dx() == tileWidth && src.Bounds().Dy() == tileHeight {
			img = src
		} else {
			img = resizer.Resize(uint(tileWidth), uint(tileHeight), src)
		}
		cache.Put(tile, tileWidth, tileHeight, img)
	}
	draw.Draw(into, area, img, img.Bounds().Min, draw.Src)
}

// Compose creates a mosaic of source with tiles from palette.
//
// The source is divided into a grid with the given number of columns (see
// Grid), for each cell the tile with the nearest average color is selected
// and scaled into the cell. The result has the width of the source and the
// height of all complete rows.
//
// Cells are processed concurrently and independently of each other, the
// result does not depend on the order. Before a cell is processed ctx is
// checked, if it is done the context error is returned.
//
// If the palette is empty an *EmptyPaletteError is returned, if the grid is
// not valid an *InvalidGridError. In case of any error no image is returned.
func Compose(ctx context.Context, source image.Image, palette *Palette, columns int,
	opts ComposeOptions) (*image.RGBA, error) {
	grid, err := checkInput(source, palette, columns, opts.AspectRatio())
	if err != nil {
		return nil, err
	}
	res := image.NewRGBA(grid.OutputBounds())
	cache := NewImageCache(opts.cacheSize())
	resizer := opts.resizer()
	cellErr := forEachCell(ctx, grid, opts.NumRoutines, opts.Progress, func(row, col int) error {
		tile, _ := selectCell(source, grid, palette, row, col)
		// each cell writes only into its own rectangle, no locking required
		insertTile(res, grid.OutputCell(row, col), palette, tile, resizer, cache)
		return nil
	})
	if cellErr != nil {
		return nil, cellErr
	}
	return res, nil
}

// ComposeDefault calls Compose with DefaultComposeOptions and a context that
// is never done.
func ComposeDefault(source image.Image, palette *Palette, columns int) (*image.RGBA, error) {
	return Compose(context.Background(), source, palette, columns, DefaultComposeOptions())
}
