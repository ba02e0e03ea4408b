// Package mosaic creates photo mosaics from a source image and a library of
// small candidate images (tiles).
//
// The tiles of a tile set are decoded once and reduced to their average
// color, the result is a Palette. To compose a mosaic the source image is
// divided into a grid of portrait cells (2:3 by default) with a given number
// of columns. Each cell is replaced by the tile whose average color is
// nearest to the average color of the cell, using the euclidean distance in
// RGB space.
//
// A Session keeps the palette of the selected tile set between compositions.
// The web package and the executables in cmd are thin layers around this
// package.
package mosaic
