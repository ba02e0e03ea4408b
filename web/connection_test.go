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
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionID(t *testing.T) {
	id, err := GenConnectionID()
	require.NoError(t, err)
	parsed, err := ParseConnectionID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	_, err = ParseConnectionID("no-uuid")
	assert.Error(t, err)
}

func TestMemStorage(t *testing.T) {
	storage := NewMemStorage()
	id, err := GenConnectionID()
	require.NoError(t, err)
	_, err = storage.Get(id)
	assert.ErrorIs(t, err, ErrConnNotFound)

	state := NewState(nil, 1)
	require.NoError(t, storage.Set(id, state))
	got, err := storage.Get(id)
	require.NoError(t, err)
	assert.Same(t, state, got)
	assert.NotNil(t, got.Session())

	require.NoError(t, storage.Delete(id))
	assert.Equal(t, 0, storage.Len())
}

func TestMemStorageFilter(t *testing.T) {
	storage := NewMemStorage()
	oldID, _ := GenConnectionID()
	newID, _ := GenConnectionID()
	old := NewState(nil, 1)
	old.Touch(time.Now().UTC().Add(-2 * time.Hour))
	require.NoError(t, storage.Set(oldID, old))
	require.NoError(t, storage.Set(newID, NewState(nil, 1)))

	require.NoError(t, storage.Filter(time.Hour))
	assert.Equal(t, 1, storage.Len())
	_, err := storage.Get(newID)
	assert.NoError(t, err)
	_, err = storage.Get(oldID)
	assert.ErrorIs(t, err, ErrConnNotFound)
}

func TestRunFilter(t *testing.T) {
	storage := NewMemStorage()
	id, _ := GenConnectionID()
	state := NewState(nil, 1)
	state.Touch(time.Now().UTC().Add(-time.Minute))
	require.NoError(t, storage.Set(id, state))
	done := RunFilter(storage, time.Second, 10*time.Millisecond)
	defer close(done)
	assert.Eventually(t, func() bool { return storage.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEncodeDecode(t *testing.T) {
	img := solid(5, 4, color.NRGBA{10, 20, 30, 255})
	for _, format := range []string{"png", "jpg"} {
		encoded, err := Encode(img, format, 90)
		require.NoError(t, err)
		decoded, err := DecodeBase64Image(encoded, 0)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 5, 4), decoded.Bounds())
		decoded, err = DecodeBase64Image("data:image/"+format+";base64,"+encoded, 20)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 5, 4), decoded.Bounds())
		_, err = DecodeBase64Image(encoded, 19)
		assert.ErrorIs(t, err, ErrImageTooLarge)
	}
	_, err := Encode(img, "tiff", 90)
	assert.Error(t, err)

	_, err = DecodeBase64Image("data:image/png;base64,", 0)
	assert.ErrorIs(t, err, ErrEmptyImage)
	_, err = DecodeBase64Image("aGVsbG8=", 0)
	assert.Error(t, err)
}
