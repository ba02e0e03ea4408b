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
	"image/draw"
	_ "image/gif" // register gif decoder
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp" // register bmp decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register webp decoder
)

// SupportedImageFunc is a function that takes a file extension and decides if
// this file extension is supported.
//
// The extension passed to this function could be for example ".txt" or ".jpg".
// JPGAndPNG and CommonImageFormats are implementations.
type SupportedImageFunc func(ext string) bool

// JPGAndPNG is an implementation of SupportedImageFunc accepting jpg and png
// file extensions.
func JPGAndPNG(ext string) bool {
	ext = strings.ToLower(ext)
	switch ext {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

// CommonImageFormats accepts all formats a decoder is registered for: jpg,
// png, gif, bmp and webp.
func CommonImageFormats(ext string) bool {
	ext = strings.ToLower(ext)
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp":
		return true
	default:
		return false
	}
}

// ToNRGBA returns img as *image.NRGBA with bounds starting at (0, 0). The
// image is always copied, so the result does not share memory with img.
func ToNRGBA(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	res := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(res, res.Bounds(), img, bounds.Min, draw.Src)
	return res
}

// ImageResizer resizes an image to the given width and height.
//
// Implementations must be deterministic and safe for concurrent use.
type ImageResizer interface {
	Resize(width, height uint, img image.Image) image.Image
}

// NfntResizer uses the nfnt/resize package to resize an image.
type NfntResizer struct {
	// InterP is the interpolation function to use.
	InterP resize.InterpolationFunction
}

// NewNfntResizer returns a new resizer given the interpolation function.
func NewNfntResizer(interP resize.InterpolationFunction) NfntResizer {
	return NfntResizer{interP}
}

// Resize calls nfnt/resize methods.
func (resizer NfntResizer) Resize(width, height uint, img image.Image) image.Image {
	return resize.Resize(width, height, img, resizer.InterP)
}

// ScalerResizer resizes images with a scaler from golang.org/x/image/draw.
type ScalerResizer struct {
	Scaler xdraw.Scaler
}

// NewScalerResizer returns a new resizer using the given scaler, for example
// xdraw.NearestNeighbor or xdraw.CatmullRom.
func NewScalerResizer(scaler xdraw.Scaler) ScalerResizer {
	return ScalerResizer{Scaler: scaler}
}

// Resize scales img into a new image of exactly width x height.
func (resizer ScalerResizer) Resize(width, height uint, img image.Image) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	resizer.Scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// InterPFromString returns the nfnt interpolation function with the given
// name: "nearest", "bilinear", "bicubic", "mitchell", "lanczos2" or
// "lanczos3".
func InterPFromString(s string) (resize.InterpolationFunction, error) {
	switch strings.ToLower(s) {
	case "nearest", "nearestneighbor":
		return resize.NearestNeighbor, nil
	case "bilinear":
		return resize.Bilinear, nil
	case "bicubic":
		return resize.Bicubic, nil
	case "mitchell", "mitchellnetravali":
		return resize.MitchellNetravali, nil
	case "lanczos2":
		return resize.Lanczos2, nil
	case "lanczos3":
		return resize.Lanczos3, nil
	default:
		return resize.NearestNeighbor, fmt.Errorf("Unknown interpolation function: %s", s)
	}
}

// InterPString returns the name of an nfnt interpolation function, the
// inverse of InterPFromString.
func InterPString(interP resize.InterpolationFunction) string {
	switch interP {
	case resize.NearestNeighbor:
		return "nearest"
	case resize.Bilinear:
		return "bilinear"
	case resize.Bicubic:
		return "bicubic"
	case resize.MitchellNetravali:
		return "mitchell"
	case resize.Lanczos2:
		return "lanczos2"
	case resize.Lanczos3:
		return "lanczos3"
	default:
		return fmt.Sprintf("InterpolationFunction(%d)", interP)
	}
}

// ResizerNames lists all names accepted by ResizerFromString.
var ResizerNames = []string{
	"nearest", "bilinear", "bicubic", "mitchell", "lanczos2", "lanczos3",
	"x-nearest", "x-bilinear", "x-catmullrom",
}

// ResizerFromString returns a resizer by name. Names with an "x-" prefix use
// the scalers from golang.org/x/image/draw, all others nfnt/resize.
func ResizerFromString(s string) (ImageResizer, error) {
	switch strings.ToLower(s) {
	case "x-nearest":
		return NewScalerResizer(xdraw.NearestNeighbor), nil
	case "x-bilinear":
		return NewScalerResizer(xdraw.BiLinear), nil
	case "x-catmullrom":
		return NewScalerResizer(xdraw.CatmullRom), nil
	}
	interP, err := InterPFromString(s)
	if err != nil {
		return nil, err
	}
	return NewNfntResizer(interP), nil
}

var (
	// DefaultResizer is the resizer used to scale tiles into their cells if
	// nothing else is configured. Bilinear keeps some detail of the tile when
	// it is shrunk.
	DefaultResizer ImageResizer = NewNfntResizer(resize.Bilinear)
)

// EncodeImage writes img to w in the given format ("png", "jpg" or "jpeg").
// jpgQuality is only used for jpeg and must be between 1 and 100.
func EncodeImage(w io.Writer, format string, img image.Image, jpgQuality int) error {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpgQuality})
	case "png":
		return png.Encode(w, img)
	default:
		return fmt.Errorf("Unsupported output format: %s, expected jpg or png", format)
	}
}

// SaveImage writes img to file, the format is chosen by the file extension.
func SaveImage(file string, img image.Image, jpgQuality int) error {
	ext := strings.TrimPrefix(filepath.Ext(file), ".")
	if !JPGAndPNG("." + ext) {
		return fmt.Errorf("Unsupported file type: %s, expected .jpg or .png", file)
	}
	outFile, outErr := os.Create(file)
	if outErr != nil {
		return outErr
	}
	if encErr := EncodeImage(outFile, ext, img, jpgQuality); encErr != nil {
		outFile.Close()
		return encErr
	}
	return outFile.Close()
}
