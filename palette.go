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

	log "github.com/sirupsen/logrus"
)

// Tile is a decoded candidate image together with its average color.
// Tiles are created once when a palette is built and never changed
// afterwards, the image must not be modified.
type Tile struct {
	ID      string
	Image   *image.NRGBA
	Average RGB
}

// NewTile returns a tile for an already decoded image. img is copied into a
// new buffer and its average color is computed.
func NewTile(id string, img image.Image) Tile {
	buffer := ToNRGBA(img)
	return Tile{ID: id, Image: buffer, Average: ComputeAverageColor(buffer)}
}

// Palette is the set of tiles available when composing a mosaic. The order of
// the tiles is the order of the tile set it was built from, it decides ties
// when selecting tiles.
//
// A palette is never modified after it was built and is thus safe for
// concurrent use.
type Palette struct {
	// Name is the name of the tile set.
	Name  string
	Tiles []Tile
}

// NewPalette returns a palette with the given tiles.
func NewPalette(name string, tiles ...Tile) *Palette {
	return &Palette{Name: name, Tiles: tiles}
}

// Len returns the number of tiles, a nil palette has length 0.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Tiles)
}

// Empty returns true if there are no tiles in the palette.
func (p *Palette) Empty() bool {
	return p.Len() == 0
}

// Tile returns the tile at position i.
func (p *Palette) Tile(i int) Tile {
	return p.Tiles[i]
}

// IDs returns the ids of all tiles.
func (p *Palette) IDs() []string {
	res := make([]string, p.Len())
	for i := range res {
		res[i] = p.Tiles[i].ID
	}
	return res
}

// BuildOptions controls how a palette is built.
type BuildOptions struct {
	// NumRoutines is the number of tiles decoded concurrently, values ≤ 0 mean
	// one go routine.
	NumRoutines int
	// Progress is called after each tile, it may be nil.
	Progress ProgressFunc
}

// BuildPalette decodes all assets of the set and computes their average
// colors. Decoding happens concurrently in opts.NumRoutines go routines, the
// resulting palette contains the tiles in the order of set.Assets().
//
// Assets that can't be decoded are not fatal: they are left out of the
// palette and returned in the list of decode errors. Assets with an id that
// was seen before are skipped as well. The only error returned is the
// error of ctx if it is done before all tiles are processed.
//
// The palette may be empty, this is only an error once a mosaic should be
// composed.
func BuildPalette(ctx context.Context, set TileSet, opts BuildOptions) (*Palette, []*DecodeError, error) {
	assets := set.Assets()
	numAssets := len(assets)
	// no more go routines than tiles
	numRoutines := IntMin(opts.NumRoutines, numAssets)
	if numRoutines <= 0 {
		numRoutines = 1
	}
	progress := opts.Progress
	if progress == nil {
		progress = ProgressIgnore
	}

	type job struct {
		pos   int
		asset ImageAsset
	}

	type result struct {
		pos  int
		tile Tile
		err  *DecodeError
	}

	// results are stored by position so the palette order does not depend on
	// which go routine finishes first
	results := make([]result, numAssets)
	jobs := make(chan job, BufferSize)
	done := make(chan result, BufferSize)

	for w := 0; w < numRoutines; w++ {
		go func() {
			for next := range jobs {
				if ctx.Err() != nil {
					// drain without work, the caller returns the context error
					done <- result{pos: next.pos}
					continue
				}
				img, decodeErr := decodeAsset(next.asset)
				if decodeErr != nil {
					done <- result{pos: next.pos, err: decodeErr}
					continue
				}
				done <- result{pos: next.pos, tile: NewTile(next.asset.ID(), img)}
			}
		}()
	}

	go func() {
		for i, asset := range assets {
			jobs <- job{pos: i, asset: asset}
		}
		close(jobs)
	}()

	for i := 0; i < numAssets; i++ {
		next := <-done
		results[next.pos] = next
		progress(i + 1)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	palette := NewPalette(set.Name())
	palette.Tiles = make([]Tile, 0, numAssets)
	var skipped []*DecodeError
	seen := make(map[string]bool, numAssets)
	for i, res := range results {
		id := assets[i].ID()
		if res.err != nil {
			log.WithFields(log.Fields{
				log.ErrorKey: res.err.Err,
				"tile":       id,
				"set":        set.Name(),
			}).Warn("Can't decode tile, skipping it")
			skipped = append(skipped, res.err)
			continue
		}
		if seen[id] {
			log.WithFields(log.Fields{
				"tile": id,
				"set":  set.Name(),
			}).Warn("Duplicate tile id, skipping it")
			continue
		}
		seen[id] = true
		palette.Tiles = append(palette.Tiles, res.tile)
	}
	log.WithFields(log.Fields{
		"set":     set.Name(),
		"tiles":   palette.Len(),
		"skipped": len(skipped),
	}).Debug("Built palette")
	return palette, skipped, nil
}
