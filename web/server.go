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
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	mosaic "github.com/daffod-l/objekt-mosaic"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrAlreadyHandled is returned by handlers that already wrote an error
	// response.
	ErrAlreadyHandled = errors.New("Error was already handled")
)

const (
	VarKey   = "var"
	ValueKey = "value"

	// DefaultMaxBodySize is the maximal size of request bodies, images are
	// sent base64 encoded.
	DefaultMaxBodySize = 32 << 20

	// DefaultMaxSourcePixels is the maximal number of pixels of an uploaded
	// image, 40 megapixels.
	DefaultMaxSourcePixels = 40_000_000
)

// Context is shared by all handlers.
type Context struct {
	Storage     ConnectionStorage
	Library     *mosaic.TileLibrary
	NumRoutines int
	MaxBodySize int64

	// MaxSourcePixels limits width * height of uploaded images, values ≤ 0
	// mean no limit.
	MaxSourcePixels int64
}

// NewContext returns a new context with default values.
func NewContext(storage ConnectionStorage, library *mosaic.TileLibrary) *Context {
	return &Context{
		Storage:         storage,
		Library:         library,
		NumRoutines:     mosaic.DefaultRoutines(),
		MaxBodySize:     DefaultMaxBodySize,
		MaxSourcePixels: DefaultMaxSourcePixels,
	}
}

// HandlerFunc handles a request, the returned data is written as json.
// If an error is returned and it is not ErrAlreadyHandled an internal server
// error is written.
type HandlerFunc func(context *Context, w http.ResponseWriter, r *http.Request) (interface{}, error)

func ToHTTPFunc(context *Context, handler HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if jsonData, err := handler(context, w, r); err != nil {
			if err != ErrAlreadyHandled {
				log.WithError(err).Error("Error in request")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		} else {
			jData, jErr := json.Marshal(jsonData)
			if jErr != nil {
				log.WithError(jErr).Error("Internal error: Can't marshal json")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write(jData)
		}
	}
}

// JSONMap is the decoded body of a request.
type JSONMap map[string]interface{}

func (m JSONMap) GetString(key string) (string, error) {
	val, has := m[key]
	if !has {
		return "", fmt.Errorf("Key not found: %s", key)
	}
	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("Entry for %s not of type string", key)
	}
	return str, nil
}

// GetInt returns an integer, json numbers are decoded as float64 and must
// not have a fractional part.
func (m JSONMap) GetInt(key string) (int, error) {
	asFloat, err := m.GetFloat(key)
	if err != nil {
		return -1, err
	}
	if asFloat != math.Trunc(asFloat) {
		return -1, fmt.Errorf("Entry for %s not of type int", key)
	}
	return int(asFloat), nil
}

func (m JSONMap) GetFloat(key string) (float64, error) {
	val, has := m[key]
	if !has {
		return -1.0, fmt.Errorf("Key not found: %s", key)
	}
	asFloat, ok := val.(float64)
	if !ok {
		return -1.0, fmt.Errorf("Entry for %s not of type number", key)
	}
	return asFloat, nil
}

func (m JSONMap) GetBool(key string) (bool, error) {
	val, has := m[key]
	if !has {
		return false, fmt.Errorf("Key not found: %s", key)
	}
	asBool, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("Entry for %s not of type bool", key)
	}
	return asBool, nil
}

// GetStrings returns a list of strings, a missing key is an empty list.
func (m JSONMap) GetStrings(key string) ([]string, error) {
	val, has := m[key]
	if !has || val == nil {
		return nil, nil
	}
	list, ok := val.([]interface{})
	if !ok {
		return nil, fmt.Errorf("Entry for %s not of type list", key)
	}
	res := make([]string, len(list))
	for i, elem := range list {
		str, ok := elem.(string)
		if !ok {
			return nil, fmt.Errorf("Entry %d of %s not of type string", i, key)
		}
		res[i] = str
	}
	return res, nil
}

func (m JSONMap) Has(key string) bool {
	_, has := m[key]
	return has
}

func (m JSONMap) GetConnection() (ConnectionID, error) {
	str, lookupErr := m.GetString("connection")
	var id ConnectionID
	if lookupErr != nil {
		return id, lookupErr
	}
	return ParseConnectionID(str)
}

// ProcessRequest decodes the json body of the request.
func ProcessRequest(context *Context, w http.ResponseWriter, r *http.Request) (JSONMap, error) {
	if r.Body == nil {
		http.Error(w, "No request body given", http.StatusBadRequest)
		return nil, ErrAlreadyHandled
	}
	body := r.Body
	if context.MaxBodySize > 0 {
		body = http.MaxBytesReader(w, r.Body, context.MaxBodySize)
	}
	dec := json.NewDecoder(body)
	m := make(map[string]interface{})
	err := dec.Decode(&m)
	if err != nil {
		http.Error(w,
			fmt.Sprintf("Invalid request, expected valid JSON, got: %s", err.Error()),
			http.StatusBadRequest)
		return nil, ErrAlreadyHandled
	}
	return m, nil
}

// StateHandlerFunc handles a request of a known client.
type StateHandlerFunc func(state *State, context *Context, w http.ResponseWriter, r *http.Request, jsonMap JSONMap) (interface{}, error)

// StateHandlerToHTTPFunc looks up the state of the connection given in the
// request and calls handler.
func StateHandlerToHTTPFunc(context *Context, handler StateHandlerFunc) http.HandlerFunc {
	stateHandler := func(context *Context, w http.ResponseWriter, r *http.Request) (interface{}, error) {
		json, jsonErr := ProcessRequest(context, w, r)
		if jsonErr != nil {
			return nil, jsonErr
		}
		// get connection from json dict
		connectionID, connectionKeyErr := json.GetConnection()
		if connectionKeyErr != nil {
			http.Error(w, connectionKeyErr.Error(), http.StatusBadRequest)
			return nil, ErrAlreadyHandled
		}
		// get connection from context
		state, connErr := context.Storage.Get(connectionID)
		if connErr != nil {
			http.Error(w, connErr.Error(), http.StatusBadRequest)
			return nil, ErrAlreadyHandled
		}
		state.Touch(time.Now().UTC())
		return handler(state, context, w, r, json)
	}
	return ToHTTPFunc(context, stateHandler)
}

// InitHandler creates a new connection.
func InitHandler(context *Context, w http.ResponseWriter, r *http.Request) (interface{}, error) {
	id, idErr := GenConnectionID()
	if idErr != nil {
		return nil, idErr
	}
	if setErr := context.Storage.Set(id, NewState(context.Library, context.NumRoutines)); setErr != nil {
		return nil, setErr
	}
	res := map[string]string{
		"connection": id.String(),
	}
	return res, nil
}

// SetsHandler lists the tile sets and their number of members.
func SetsHandler(context *Context, w http.ResponseWriter, r *http.Request) (interface{}, error) {
	names := context.Library.Names()
	sets := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		set, setErr := context.Library.Get(name)
		if setErr != nil {
			continue
		}
		assets := set.Assets()
		members := make([]string, len(assets))
		for i, asset := range assets {
			members[i] = asset.ID()
		}
		sets = append(sets, map[string]interface{}{
			"name":    name,
			"members": members,
		})
	}
	return map[string]interface{}{"sets": sets}, nil
}

// SelectHandler selects a tile set (key "set", default is the default set)
// and optionally some of its members (key "members") for the connection and
// builds the palette.
func SelectHandler(state *State, context *Context, w http.ResponseWriter, r *http.Request, jsonMap JSONMap) (interface{}, error) {
	name := mosaic.DefaultSetName
	if jsonMap.Has("set") {
		var nameErr error
		name, nameErr = jsonMap.GetString("set")
		if nameErr != nil {
			http.Error(w, nameErr.Error(), http.StatusBadRequest)
			return nil, ErrAlreadyHandled
		}
	}
	members, membersErr := jsonMap.GetStrings("members")
	if membersErr != nil {
		http.Error(w, membersErr.Error(), http.StatusBadRequest)
		return nil, ErrAlreadyHandled
	}
	palette, skipped, selectErr := state.session.SelectTileSet(r.Context(), name, members...)
	if selectErr != nil {
		if r.Context().Err() != nil {
			return nil, selectErr
		}
		http.Error(w, selectErr.Error(), http.StatusBadRequest)
		return nil, ErrAlreadyHandled
	}
	tiles := make([]map[string]string, palette.Len())
	for i, tile := range palette.Tiles {
		tiles[i] = map[string]string{
			"id":      tile.ID,
			"average": tile.Average.Hex(),
		}
	}
	skippedList := make([]map[string]string, len(skipped))
	for i, decodeErr := range skipped {
		skippedList[i] = map[string]string{
			"id":    decodeErr.ID,
			"error": decodeErr.Err.Error(),
		}
	}
	res := map[string]interface{}{
		"set":     name,
		"tiles":   tiles,
		"skipped": skippedList,
	}
	return res, nil
}

// GetVarHandler returns all variables of the connection.
func GetVarHandler(state *State, context *Context, w http.ResponseWriter, r *http.Request, jsonMap JSONMap) (interface{}, error) {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	res := map[string]interface{}{
		"columns":      state.columns,
		"jpeg-quality": state.jpgQuality,
		"format":       state.format,
		"interp":       state.interp,
	}
	return res, nil
}

// SetVarHandler sets one variable (key "var") to a new value (key "value").
func SetVarHandler(state *State, context *Context, w http.ResponseWriter, r *http.Request, jsonMap JSONMap) (interface{}, error) {
	varName, varErr := jsonMap.GetString(VarKey)
	if varErr != nil {
		http.Error(w, varErr.Error(), http.StatusBadRequest)
		return nil, ErrAlreadyHandled
	}
	state.mutex.Lock()
	defer state.mutex.Unlock()
	var argErr error
	switch varName {
	case "columns":
		var columns int
		columns, argErr = jsonMap.GetInt(ValueKey)
		if argErr != nil {
			break
		}
		if argErr = mosaic.ValidateColumns(columns); argErr != nil {
			break
		}
		state.columns = columns
	case "jpeg-quality":
		var newQuality int
		newQuality, argErr = jsonMap.GetInt(ValueKey)
		if argErr != nil {
			break
		}
		if newQuality < 1 || newQuality > 100 {
			argErr = fmt.Errorf("jpeg-quality must be a value between 1 and 100, got %d", newQuality)
			break
		}
		state.jpgQuality = newQuality
	case "format":
		var format string
		format, argErr = jsonMap.GetString(ValueKey)
		if argErr != nil {
			break
		}
		switch format {
		case "png", "jpg":
			state.format = format
		default:
			argErr = fmt.Errorf("format must be png or jpg, got %s", format)
		}
	case "interp":
		var interpName string
		interpName, argErr = jsonMap.GetString(ValueKey)
		if argErr != nil {
			break
		}
		if _, parseErr := mosaic.ResizerFromString(interpName); parseErr != nil {
			argErr = parseErr
			break
		}
		state.interp = interpName
	default:
		http.Error(w, fmt.Sprintf("Invalid variable name %s", varName), http.StatusBadRequest)
		return nil, ErrAlreadyHandled
	}
	if argErr != nil {
		http.Error(w, argErr.Error(), http.StatusBadRequest)
		return nil, ErrAlreadyHandled
	}
	res := map[string]bool{"success": true}
	return res, nil
}

// MosaicHandler composes a mosaic of the image (key "image", base64 or data
// URL) with the palette of the connection. The number of columns can be
// given (key "columns"), otherwise the value of the connection is used.
func MosaicHandler(state *State, context *Context, w http.ResponseWriter, r *http.Request, jsonMap JSONMap) (interface{}, error) {
	state.mutex.Lock()
	columns, format, quality, interp := state.columns, state.format, state.jpgQuality, state.interp
	state.mutex.Unlock()

	if jsonMap.Has("columns") {
		var columnsErr error
		columns, columnsErr = jsonMap.GetInt("columns")
		if columnsErr == nil {
			columnsErr = mosaic.ValidateColumns(columns)
		}
		if columnsErr != nil {
			http.Error(w, columnsErr.Error(), http.StatusBadRequest)
			return nil, ErrAlreadyHandled
		}
	}
	encoded, imageErr := jsonMap.GetString("image")
	if imageErr != nil {
		http.Error(w, imageErr.Error(), http.StatusBadRequest)
		return nil, ErrAlreadyHandled
	}
	source, decodeErr := DecodeBase64Image(encoded, context.MaxSourcePixels)
	if decodeErr != nil {
		http.Error(w, fmt.Sprintf("Can't decode image: %s", decodeErr.Error()), http.StatusBadRequest)
		return nil, ErrAlreadyHandled
	}
	palette := state.session.Palette()
	if palette == nil {
		http.Error(w, mosaic.ErrNoTileSet.Error(), http.StatusBadRequest)
		return nil, ErrAlreadyHandled
	}
	resizer, resizerErr := mosaic.ResizerFromString(interp)
	if resizerErr != nil {
		return nil, resizerErr
	}
	opts := state.session.Options
	opts.Resizer = resizer

	start := time.Now()
	img, composeErr := mosaic.Compose(r.Context(), source, palette, columns, opts)
	if composeErr != nil {
		if errors.Is(composeErr, mosaic.ErrEmptyPalette) || errors.Is(composeErr, mosaic.ErrInvalidGrid) {
			http.Error(w, composeErr.Error(), http.StatusBadRequest)
			return nil, ErrAlreadyHandled
		}
		return nil, composeErr
	}
	// can't fail, Compose validated the grid
	grid, _ := mosaic.NewGrid(source.Bounds(), columns, opts.AspectRatio())
	log.WithFields(log.Fields{
		"columns": grid.Columns,
		"rows":    grid.Rows,
		"tiles":   palette.Len(),
		"took":    time.Since(start),
	}).Info("Composed mosaic")
	data, encodeErr := Encode(img, format, quality)
	if encodeErr != nil {
		return nil, encodeErr
	}
	res := map[string]interface{}{
		"image":       data,
		"format":      format,
		"columns":     grid.Columns,
		"rows":        grid.Rows,
		"width":       img.Bounds().Dx(),
		"height":      img.Bounds().Dy(),
		"tile-width":  grid.TileWidth(),
		"tile-height": grid.TileHeight(),
	}
	return res, nil
}

// DefaultHandlers registers all handlers on mux, if mux is nil
// http.DefaultServeMux is used.
func DefaultHandlers(context *Context, mux *http.ServeMux) {
	if mux == nil {
		mux = http.DefaultServeMux
	}
	mux.HandleFunc("/api/init", ToHTTPFunc(context, InitHandler))
	mux.HandleFunc("/api/sets", ToHTTPFunc(context, SetsHandler))
	mux.HandleFunc("/api/select", StateHandlerToHTTPFunc(context, SelectHandler))
	mux.HandleFunc("/api/get", StateHandlerToHTTPFunc(context, GetVarHandler))
	mux.HandleFunc("/api/set", StateHandlerToHTTPFunc(context, SetVarHandler))
	mux.HandleFunc("/api/mosaic", StateHandlerToHTTPFunc(context, MosaicHandler))
}
