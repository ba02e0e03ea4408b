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
	"errors"
	"image"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrNoTileSet is returned by a session if a mosaic should be composed before
// a tile set was selected.
var ErrNoTileSet = errors.New("No tile set selected")

// Selection identifies the tiles a palette is built from: a tile set and
// optionally a subset of its members.
type Selection struct {
	Set     string
	Members []string
}

func (s Selection) key() string {
	members := append([]string(nil), s.Members...)
	sort.Strings(members)
	return s.Set + "\x00" + strings.Join(members, "\x00")
}

// Session holds the palette of the currently selected tile set. The palette
// is built when a selection is made and reused for all compositions until
// the selection changes.
//
// Sessions are safe for concurrent use: Compose calls may run concurrently,
// a new palette becomes visible only once it is completely built.
// BuildOptions and Options must not be changed while the session is in use.
type Session struct {
	Library      *TileLibrary
	BuildOptions BuildOptions
	Options      ComposeOptions

	m         *sync.RWMutex
	selection *Selection
	palette   *Palette
	skipped   []*DecodeError
	// generation is incremented for each selection that builds a palette
	generation uint64
}

// NewSession returns a session for the given library with default options.
func NewSession(library *TileLibrary) *Session {
	return &Session{
		Library:      library,
		BuildOptions: BuildOptions{NumRoutines: DefaultRoutines()},
		Options:      DefaultComposeOptions(),
		m:            new(sync.RWMutex),
	}
}

// SelectTileSet selects the tile set with the given name, restricted to
// members if not empty, and builds its palette. If the same selection is
// already active the cached palette is kept.
//
// The palette is returned together with the tiles that could not be decoded.
// If another selection is started while the palette is built, the palette is
// still returned but the newer selection stays active.
func (s *Session) SelectTileSet(ctx context.Context, name string, members ...string) (*Palette, []*DecodeError, error) {
	selection := Selection{Set: name, Members: members}
	s.m.Lock()
	if s.selection != nil && s.selection.key() == selection.key() {
		palette, skipped := s.palette, s.skipped
		s.m.Unlock()
		return palette, skipped, nil
	}
	s.generation++
	generation := s.generation
	s.m.Unlock()

	set, setErr := s.Library.Get(name)
	if setErr != nil {
		return nil, nil, setErr
	}
	set, setErr = FilterMembers(set, members...)
	if setErr != nil {
		return nil, nil, setErr
	}
	palette, skipped, buildErr := BuildPalette(ctx, set, s.BuildOptions)
	if buildErr != nil {
		return nil, nil, buildErr
	}

	s.m.Lock()
	defer s.m.Unlock()
	if generation != s.generation {
		log.WithFields(log.Fields{
			"set":     name,
			"members": len(members),
		}).Debug("Selection was replaced while building its palette")
		return palette, skipped, nil
	}
	s.selection = &selection
	s.palette = palette
	s.skipped = skipped
	log.WithFields(log.Fields{
		"set":     name,
		"members": len(members),
		"tiles":   palette.Len(),
	}).Info("Selected tile set")
	return palette, skipped, nil
}

// Selection returns the active selection, nil if there is none.
func (s *Session) Selection() *Selection {
	s.m.RLock()
	defer s.m.RUnlock()
	if s.selection == nil {
		return nil
	}
	res := *s.selection
	return &res
}

// Palette returns the palette of the active selection, nil if there is none.
func (s *Session) Palette() *Palette {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.palette
}

// Skipped returns the tiles of the active selection that could not be
// decoded.
func (s *Session) Skipped() []*DecodeError {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.skipped
}

// Reset drops the active selection and its palette, palettes still being
// built are not activated.
func (s *Session) Reset() {
	s.m.Lock()
	defer s.m.Unlock()
	s.generation++
	s.selection = nil
	s.palette = nil
	s.skipped = nil
}

// Compose composes a mosaic with the palette of the active selection, see
// Compose for details.
func (s *Session) Compose(ctx context.Context, source image.Image, columns int) (*image.RGBA, error) {
	palette := s.Palette()
	if palette == nil {
		return nil, ErrNoTileSet
	}
	return Compose(ctx, source, palette, columns, s.Options)
}
