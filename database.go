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
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ImageAsset is a candidate tile that can be opened and decoded. It is
// identified by an id that must be unique within a tile set.
//
// Implementations must be safe for concurrent use.
type ImageAsset interface {
	ID() string
	Open() (io.ReadCloser, error)
}

// FileAsset is an image file on the filesystem, its id is the path relative
// to the tile set root.
type FileAsset struct {
	Root, Path string
}

// ID returns the relative path of the file.
func (a FileAsset) ID() string {
	return a.Path
}

// AbsPath returns the path of the file joined with the root.
func (a FileAsset) AbsPath() string {
	return filepath.Join(a.Root, a.Path)
}

// Open opens the file.
func (a FileAsset) Open() (io.ReadCloser, error) {
	return os.Open(a.AbsPath())
}

// MemAsset is an encoded image held in memory.
type MemAsset struct {
	Name string
	Data []byte
}

// ID returns the name of the asset.
func (a MemAsset) ID() string {
	return a.Name
}

// Open returns a reader over the data.
func (a MemAsset) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(a.Data)), nil
}

// DecodeAsset opens and decodes the asset. Any error is returned as a
// *DecodeError.
func DecodeAsset(asset ImageAsset) (image.Image, error) {
	img, err := decodeAsset(asset)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func decodeAsset(asset ImageAsset) (image.Image, *DecodeError) {
	r, openErr := asset.Open()
	if openErr != nil {
		return nil, &DecodeError{ID: asset.ID(), Err: openErr}
	}
	defer r.Close()
	img, _, decodeErr := image.Decode(r)
	if decodeErr != nil {
		return nil, &DecodeError{ID: asset.ID(), Err: decodeErr}
	}
	if img.Bounds().Empty() {
		return nil, &DecodeError{ID: asset.ID(), Err: errors.New("Image is empty")}
	}
	return img, nil
}

// TileSet is a named collection of candidate tiles, for example the default
// set or the set of one special class.
type TileSet interface {
	Name() string
	Assets() []ImageAsset
}

// StaticTileSet is a TileSet with a fixed list of members.
type StaticTileSet struct {
	SetName string
	Members []ImageAsset
}

// NewStaticTileSet returns a new tile set.
func NewStaticTileSet(name string, members ...ImageAsset) *StaticTileSet {
	return &StaticTileSet{SetName: name, Members: members}
}

// Name returns the name of the set.
func (s *StaticTileSet) Name() string {
	return s.SetName
}

// Assets returns the members of the set.
func (s *StaticTileSet) Assets() []ImageAsset {
	return s.Members
}

// FilterMembers returns a tile set that contains only those assets from set
// with an id in ids, in the order of set. If ids is empty set is returned.
// Unknown ids result in an error.
func FilterMembers(set TileSet, ids ...string) (TileSet, error) {
	if len(ids) == 0 {
		return set, nil
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = false
	}
	assets := set.Assets()
	res := make([]ImageAsset, 0, len(ids))
	for _, asset := range assets {
		if _, has := wanted[asset.ID()]; has {
			wanted[asset.ID()] = true
			res = append(res, asset)
		}
	}
	for _, id := range ids {
		if !wanted[id] {
			return nil, fmt.Errorf("Tile set \"%s\" has no member %s", set.Name(), id)
		}
	}
	return NewStaticTileSet(set.Name(), res...), nil
}

// LoadFSTileSet creates a tile set from all images in root. If recursive is
// true sub directories are searched as well. filter decides which files are
// considered images, if it is nil CommonImageFormats is used.
//
// The members are sorted by their path relative to root.
func LoadFSTileSet(name, root string, recursive bool, filter SupportedImageFunc) (*StaticTileSet, error) {
	root, absErr := filepath.Abs(root)
	if absErr != nil {
		return nil, absErr
	}
	if filter == nil {
		filter = CommonImageFormats
	}
	var paths []string
	var err error
	if recursive {
		paths, err = listRecursive(root, filter)
	} else {
		paths, err = listNonRecursive(root, filter)
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	res := NewStaticTileSet(name)
	res.Members = make([]ImageAsset, len(paths))
	for i, path := range paths {
		res.Members[i] = FileAsset{Root: root, Path: path}
	}
	return res, nil
}

func listRecursive(root string, filter SupportedImageFunc) ([]string, error) {
	var res []string
	walkFunc := func(path string, info os.FileInfo, err error) error {
		switch {
		case err != nil:
			return err
		case !info.IsDir() && filter(filepath.Ext(path)):
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			res = append(res, rel)
			return nil
		default:
			return nil
		}
	}
	if err := filepath.Walk(root, walkFunc); err != nil {
		return nil, err
	}
	return res, nil
}

func listNonRecursive(root string, filter SupportedImageFunc) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var res []string
	for _, entry := range entries {
		if !entry.IsDir() && filter(filepath.Ext(entry.Name())) {
			res = append(res, entry.Name())
		}
	}
	return res, nil
}

// TileLibrary is a named collection of tile sets.
//
// It is safe for concurrent use.
type TileLibrary struct {
	m    *sync.RWMutex
	sets map[string]TileSet
}

// NewTileLibrary returns a library containing the given sets.
func NewTileLibrary(sets ...TileSet) *TileLibrary {
	lib := &TileLibrary{
		m:    new(sync.RWMutex),
		sets: make(map[string]TileSet, len(sets)),
	}
	for _, set := range sets {
		lib.sets[set.Name()] = set
	}
	return lib
}

// Add adds a set, a set with the same name is replaced.
func (lib *TileLibrary) Add(set TileSet) {
	lib.m.Lock()
	defer lib.m.Unlock()
	lib.sets[set.Name()] = set
}

// Get returns the set with the given name.
func (lib *TileLibrary) Get(name string) (TileSet, error) {
	lib.m.RLock()
	defer lib.m.RUnlock()
	if set, has := lib.sets[name]; has {
		return set, nil
	}
	return nil, fmt.Errorf("Unknown tile set: %s", name)
}

func (lib *TileLibrary) has(name string) bool {
	lib.m.RLock()
	defer lib.m.RUnlock()
	_, has := lib.sets[name]
	return has
}

// Names returns the sorted names of all sets.
func (lib *TileLibrary) Names() []string {
	lib.m.RLock()
	defer lib.m.RUnlock()
	res := make([]string, 0, len(lib.sets))
	for name := range lib.sets {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// Len returns the number of sets.
func (lib *TileLibrary) Len() int {
	lib.m.RLock()
	defer lib.m.RUnlock()
	return len(lib.sets)
}

// LoadFSTileLibrary creates a library from a directory: Each sub directory
// of root is a tile set (named by the directory) containing all images in
// that sub directory and below. Images directly in root form the set
// DefaultSetName if there are any and no sub directory has that name, if
// there is one the images are ignored with a warning.
func LoadFSTileLibrary(root string, filter SupportedImageFunc) (*TileLibrary, error) {
	root, absErr := filepath.Abs(root)
	if absErr != nil {
		return nil, absErr
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	lib := NewTileLibrary()
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		set, setErr := LoadFSTileSet(entry.Name(), filepath.Join(root, entry.Name()), true, filter)
		if setErr != nil {
			return nil, setErr
		}
		lib.Add(set)
	}
	top, topErr := LoadFSTileSet(DefaultSetName, root, false, filter)
	if topErr != nil {
		return nil, topErr
	}
	switch {
	case len(top.Members) == 0:
	case lib.has(DefaultSetName):
		// the sub directory wins, its members are never replaced
		log.WithFields(log.Fields{
			"dir":    root,
			"set":    DefaultSetName,
			"images": len(top.Members),
		}).Warn("Directory contains images and a default sub directory, ignoring the images")
	default:
		lib.Add(top)
	}
	return lib, nil
}

// DefaultSetName is the name of the tile set used if nothing else is
// selected.
const DefaultSetName = "default"
