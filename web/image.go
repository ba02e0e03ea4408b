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

package web

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	mosaic "github.com/daffod-l/objekt-mosaic"
)

var (
	// ErrEmptyImage is returned by DecodeBase64Image if there is no data.
	ErrEmptyImage = errors.New("No image data given")

	// ErrImageTooLarge is returned by DecodeBase64Image if the image has more
	// pixels than allowed.
	ErrImageTooLarge = errors.New("Image is too large")
)

// Encode encodes the image in the given format ("png" or "jpg") and returns
// the base64 representation.
func Encode(img image.Image, format string, quality int) (string, error) {
	var w strings.Builder
	encoder := base64.NewEncoder(base64.StdEncoding, &w)
	err := mosaic.EncodeImage(encoder, format, img, quality)
	if err != nil {
		return "", err
	}
	err = encoder.Close()
	if err != nil {
		return "", err
	}
	return w.String(), nil
}

// EncodePNG returns the base64 encoded png of the image.
func EncodePNG(img image.Image) (string, error) {
	return Encode(img, "png", 0)
}

// EncodeJPEG returns the base64 encoded jpeg of the image.
func EncodeJPEG(img image.Image, quality int) (string, error) {
	return Encode(img, "jpg", quality)
}

// DecodeBase64Image decodes a base64 encoded image. Data URLs as produced by
// browsers ("data:image/png;base64,...") are accepted as well.
//
// If maxPixels is positive the size is read from the image header first and
// images with more pixels are rejected with an error matching
// ErrImageTooLarge, before the pixels are decoded.
func DecodeBase64Image(s string, maxPixels int64) (image.Image, error) {
	if strings.HasPrefix(s, "data:") {
		if pos := strings.Index(s, ","); pos >= 0 {
			s = s[pos+1:]
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyImage
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if maxPixels > 0 {
		config, _, configErr := image.DecodeConfig(bytes.NewReader(data))
		if configErr != nil {
			return nil, configErr
		}
		if pixels := int64(config.Width) * int64(config.Height); pixels > maxPixels {
			return nil, fmt.Errorf("%w: %dx%d has more than %d pixels",
				ErrImageTooLarge, config.Width, config.Height, maxPixels)
		}
	}
	img, _, decodeErr := image.Decode(bytes.NewReader(data))
	return img, decodeErr
}
