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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateColumns(t *testing.T) {
	assert.NoError(t, ValidateColumns(MinColumns))
	assert.NoError(t, ValidateColumns(DefaultColumns))
	assert.NoError(t, ValidateColumns(MaxColumns))
	assert.Error(t, ValidateColumns(MinColumns-1))
	assert.Error(t, ValidateColumns(MaxColumns+1))
}

func TestStdProgressFunc(t *testing.T) {
	var buf bytes.Buffer
	progress := StdProgressFunc(&buf, "Tiles", 5, 2)
	for i := 1; i <= 5; i++ {
		progress(i)
	}
	expected := "Tiles: 2 of 5 (40.0%)\n" +
		"Tiles: 4 of 5 (80.0%)\n" +
		"Tiles: 5 of 5 (100.0%)\n"
	assert.Equal(t, expected, buf.String())

	buf.Reset()
	StdProgressFunc(&buf, "", 3, -1)(1)
	assert.Equal(t, "Progress: 1 of 3 (33.3%)\n", buf.String())

	buf.Reset()
	StdProgressFunc(&buf, "", 3, 0)(3)
	assert.Empty(t, buf.String())
}
