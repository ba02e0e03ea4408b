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
	"fmt"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTileSet(t *testing.T, num int) *StaticTileSet {
	set := NewStaticTileSet("test")
	for i := 0; i < num; i++ {
		c := color.NRGBA{uint8(i * 10), uint8(255 - i*10), 42, 255}
		set.Members = append(set.Members, pngAsset(t, fmt.Sprintf("tile-%02d", i), solidImage(3, 2, c)))
	}
	return set
}

func TestBuildPalette(t *testing.T) {
	set := testTileSet(t, 20)
	var calls int
	palette, skipped, err := BuildPalette(context.Background(), set,
		BuildOptions{NumRoutines: 5, Progress: func(num int) { calls = num }})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, "test", palette.Name)
	require.Equal(t, 20, palette.Len())
	assert.Equal(t, 20, calls)
	for i, tile := range palette.Tiles {
		assert.Equal(t, fmt.Sprintf("tile-%02d", i), tile.ID)
		assert.Equal(t, NewRGB(float64(i*10), float64(255-i*10), 42), tile.Average)
		assert.Equal(t, 3, tile.Image.Bounds().Dx())
	}
}

func TestBuildPaletteSkipsBroken(t *testing.T) {
	set := testTileSet(t, 6)
	set.Members[2] = MemAsset{Name: "broken", Data: []byte("no image")}
	palette, skipped, err := BuildPalette(context.Background(), set, BuildOptions{NumRoutines: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"tile-00", "tile-01", "tile-03", "tile-04", "tile-05"}, palette.IDs())
	require.Len(t, skipped, 1)
	assert.Equal(t, "broken", skipped[0].ID)
	assert.Error(t, skipped[0].Unwrap())
	assert.Contains(t, skipped[0].Error(), "broken")
}

func TestBuildPaletteAllBroken(t *testing.T) {
	set := NewStaticTileSet("broken",
		MemAsset{Name: "a", Data: nil},
		MemAsset{Name: "b", Data: []byte{1, 2, 3}},
	)
	palette, skipped, err := BuildPalette(context.Background(), set, BuildOptions{})
	require.NoError(t, err)
	assert.True(t, palette.Empty())
	assert.Len(t, skipped, 2)
}

func TestBuildPaletteDuplicates(t *testing.T) {
	set := NewStaticTileSet("dup",
		pngAsset(t, "a", solidImage(2, 2, black)),
		pngAsset(t, "a", solidImage(2, 2, white)),
		pngAsset(t, "b", solidImage(2, 2, white)),
	)
	palette, skipped, err := BuildPalette(context.Background(), set, BuildOptions{NumRoutines: 2})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, []string{"a", "b"}, palette.IDs())
	assert.Equal(t, RGB{}, palette.Tile(0).Average)
}

func TestBuildPaletteRebuild(t *testing.T) {
	set := testTileSet(t, 10)
	first, _, err := BuildPalette(context.Background(), set, BuildOptions{NumRoutines: 1})
	require.NoError(t, err)
	second, _, err := BuildPalette(context.Background(), set, BuildOptions{NumRoutines: 7})
	require.NoError(t, err)
	require.Equal(t, first.Len(), second.Len())
	for i := range first.Tiles {
		assert.Equal(t, first.Tiles[i].Average, second.Tiles[i].Average)
		assert.Equal(t, first.Tiles[i].Image.Pix, second.Tiles[i].Image.Pix)
	}
}

func TestBuildPaletteFewTiles(t *testing.T) {
	palette, skipped, err := BuildPalette(context.Background(), testTileSet(t, 3), BuildOptions{NumRoutines: 64})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, []string{"tile-00", "tile-01", "tile-02"}, palette.IDs())

	palette, skipped, err = BuildPalette(context.Background(), NewStaticTileSet("none"), BuildOptions{NumRoutines: 4})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.True(t, palette.Empty())
}

func TestBuildPaletteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	palette, skipped, err := BuildPalette(ctx, testTileSet(t, 5), BuildOptions{NumRoutines: 2})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, palette)
	assert.Nil(t, skipped)
}

func TestNewTileCopies(t *testing.T) {
	img := solidImage(2, 2, white)
	tile := NewTile("white", img.SubImage(img.Bounds()))
	img.Set(0, 0, black)
	assert.Equal(t, white, tile.Image.NRGBAAt(0, 0))
	assert.Equal(t, NewRGB(255, 255, 255), tile.Average)
}
