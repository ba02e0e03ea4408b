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
	"errors"
	"sync"
	"time"

	mosaic "github.com/daffod-l/objekt-mosaic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ConnectionID identifies a client. Each client has its own State.
type ConnectionID uuid.UUID

// GenConnectionID returns a new random id.
func GenConnectionID() (ConnectionID, error) {
	id, idErr := uuid.NewRandom()
	return ConnectionID(id), idErr
}

// ParseConnectionID parses the string representation of an id.
func ParseConnectionID(s string) (ConnectionID, error) {
	id, err := uuid.Parse(s)
	return ConnectionID(id), err
}

func (id ConnectionID) String() string {
	return uuid.UUID(id).String()
}

// State is the state of one client: the session with the selected tile set
// and the variables that control the output.
type State struct {
	mutex          *sync.Mutex
	created        time.Time
	lastConnection time.Time
	session        *mosaic.Session
	columns        int
	jpgQuality     int
	format         string
	interp         string
}

// NewState returns a new state with default values and a session for the
// given library.
func NewState(library *mosaic.TileLibrary, numRoutines int) *State {
	now := time.Now().UTC()
	session := mosaic.NewSession(library)
	session.BuildOptions.NumRoutines = numRoutines
	session.Options.NumRoutines = numRoutines

	return &State{
		mutex:          new(sync.Mutex),
		created:        now,
		lastConnection: now,
		session:        session,
		columns:        mosaic.DefaultColumns,
		jpgQuality:     100,
		format:         "png",
		interp:         "bilinear",
	}
}

// Session returns the session of the client.
func (s *State) Session() *mosaic.Session {
	return s.session
}

// Touch sets the time of the last connection to now.
func (s *State) Touch(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastConnection = now
}

// Expired returns true if the last connection is at least maxAge ago.
func (s *State) Expired(now time.Time, maxAge time.Duration) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	age := now.Sub(s.lastConnection)
	return age >= maxAge
}

var (
	// ErrConnNotFound is returned by a ConnectionStorage if there is no state
	// for a connection.
	ErrConnNotFound = errors.New("Connection not found")
)

// ConnectionStorage stores the states of all clients.
//
// Implementations must be safe for concurrent use.
type ConnectionStorage interface {
	Get(conn ConnectionID) (*State, error)
	Set(conn ConnectionID, state *State) error
	Delete(conn ConnectionID) error
	Filter(maxAge time.Duration) error
}

// MemStorage is a ConnectionStorage keeping everything in memory.
type MemStorage struct {
	mutex   *sync.RWMutex
	connMap map[ConnectionID]*State
}

// NewMemStorage returns an empty storage.
func NewMemStorage() *MemStorage {
	m := new(sync.RWMutex)
	connMap := make(map[ConnectionID]*State, 1000)
	return &MemStorage{
		mutex:   m,
		connMap: connMap,
	}
}

func (s *MemStorage) Get(conn ConnectionID) (*State, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	state, has := s.connMap[conn]
	if has {
		return state, nil
	}
	return nil, ErrConnNotFound
}

func (s *MemStorage) Set(conn ConnectionID, state *State) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.connMap[conn] = state
	return nil
}

func (s *MemStorage) Delete(conn ConnectionID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.connMap, conn)
	return nil
}

// Len returns the number of stored connections.
func (s *MemStorage) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.connMap)
}

// Filter removes all states that are expired.
func (s *MemStorage) Filter(maxAge time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	now := time.Now().UTC()
	for id, state := range s.connMap {
		if state.Expired(now, maxAge) {
			delete(s.connMap, id)
		}
	}
	return nil
}

// RunFilter calls Filter on the storage every interval until the returned
// channel is closed.
func RunFilter(storage ConnectionStorage, maxAge, interval time.Duration) chan<- struct{} {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := storage.Filter(maxAge); err != nil {
					log.WithError(err).Error("Can't remove expired connections")
				}
			}
		}
	}()
	return done
}
