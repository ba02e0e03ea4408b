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
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB is a color with red, green and blue components. The components are mean
// sample values over some pixel region and are not clamped, callers may only
// assume that they were computed from 8-bit samples.
type RGB struct {
	R, G, B float64
}

// NewRGB returns a new RGB color.
func NewRGB(r, g, b float64) RGB {
	return RGB{R: r, G: g, B: b}
}

// Vector returns the components as a vector (r, g, b), this way vector metrics
// can be applied to colors.
func (c RGB) Vector() []float64 {
	return []float64{c.R, c.G, c.B}
}

// Dist returns the euclidean distance between the two colors.
func (c RGB) Dist(other RGB) float64 {
	return EuclideanDistance(c.Vector(), other.Vector())
}

// Hex returns the color in the form #rrggbb, components are rounded and
// clamped to [0, 255] first.
func (c RGB) Hex() string {
	cf := colorful.Color{R: c.R / 255.0, G: c.G / 255.0, B: c.B / 255.0}
	return cf.Clamped().Hex()
}

// NRGBA rounds the color to the nearest opaque 8-bit color.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: roundSample(c.R), G: roundSample(c.G), B: roundSample(c.B), A: 0xff}
}

func roundSample(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}

// ComputeAverageColor computes the average color of an image, that is the
// arithmetic mean of each channel over all pixels. Alpha is ignored.
//
// Sums are accumulated as uint64 and divided as float64, nothing is rounded.
// An empty image has the average color (0, 0, 0).
func ComputeAverageColor(img image.Image) RGB {
	return ComputeRegionAverage(img, img.Bounds())
}

// ComputeRegionAverage works as ComputeAverageColor but only considers the
// pixels of img inside area.
func ComputeRegionAverage(img image.Image, area image.Rectangle) RGB {
	bounds := area.Intersect(img.Bounds())

	// don't do anything for empty images
	if bounds.Empty() {
		return RGB{}
	}
	var r, g, b uint64
	switch typed := img.(type) {
	case *image.NRGBA:
		r, g, b = sumNRGBA(typed, bounds)
	case *image.RGBA:
		r, g, b = sumRGBA(typed, bounds)
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				// non-premultiplied, so alpha does not scale the samples
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				r += uint64(c.R)
				g += uint64(c.G)
				b += uint64(c.B)
			}
		}
	}
	numPixels := float64(bounds.Dx()) * float64(bounds.Dy())
	return RGB{
		R: float64(r) / numPixels,
		G: float64(g) / numPixels,
		B: float64(b) / numPixels,
	}
}

func sumNRGBA(img *image.NRGBA, bounds image.Rectangle) (r, g, b uint64) {
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		i := img.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r += uint64(img.Pix[i])
			g += uint64(img.Pix[i+1])
			b += uint64(img.Pix[i+2])
			i += 4
		}
	}
	return
}

// sumRGBA works on premultiplied pixels, opaque pixels are read directly and
// all others are converted.
func sumRGBA(img *image.RGBA, bounds image.Rectangle) (r, g, b uint64) {
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		i := img.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.Pix[i+3] == 0xff {
				r += uint64(img.Pix[i])
				g += uint64(img.Pix[i+1])
				b += uint64(img.Pix[i+2])
			} else {
				c := color.NRGBAModel.Convert(color.RGBA{
					R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3],
				}).(color.NRGBA)
				r += uint64(c.R)
				g += uint64(c.G)
				b += uint64(c.B)
			}
			i += 4
		}
	}
	return
}
