package allocation

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Store keeps every scheme in memory and writes the whole state back to
// its data file after each mutation. The in-memory copy stays authoritative
// when a write fails. A Store is not safe for concurrent use.
type Store struct {
	path  string
	state *State
}

// NewStore loads the data file at path, migrating legacy layouts, and makes
// sure at least one scheme exists and one is current.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultDataFile
	}
	s := &Store{path: path, state: &State{Schemes: []*Scheme{}}}
	s.load()
	if len(s.state.Schemes) == 0 {
		_, _ = s.CreateDefaultScheme()
	}
	if s.state.CurrentSchemeId == nil && len(s.state.Schemes) > 0 {
		id := s.state.Schemes[0].Id
		s.state.CurrentSchemeId = &id
		_ = s.Save()
	}
	return s
}

// ReadStore loads the data file at path without ever writing it back.
// Legacy layouts are upgraded in memory only and a missing selection falls
// back to the first scheme. Unreadable or malformed files are returned as
// errors instead of being replaced with an empty state.
func ReadStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultDataFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	state, _, err := decodeState(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	if state.CurrentSchemeId == nil && len(state.Schemes) > 0 {
		id := state.Schemes[0].Id
		state.CurrentSchemeId = &id
	}
	return &Store{path: path, state: state}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Errorf("failed to read data file %s, starting with empty state, err: %s", s.path, err)
		}
		return
	}
	state, migrated, err := decodeState(data)
	if err != nil {
		log.Errorf("failed to load data file %s, starting with empty state, err: %s", s.path, err)
		return
	}
	s.state = state
	if migrated {
		log.Infof("migrated legacy data layout in %s", s.path)
		_ = s.Save()
	}
}

// Save serializes the entire state and overwrites the data file
func (s *Store) Save() error {
	data, err := encodeState(s.state)
	if err != nil {
		log.Errorf("failed to encode state, err: %s", err)
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		log.Errorf("failed to save data to %s, err: %s", s.path, err)
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		log.Errorf("failed to save data to %s, err: %s", s.path, err)
		return errors.Wrapf(err, "failed to replace %s", s.path)
	}
	log.Debugf("state saved to %s", s.path)
	return nil
}

func encodeState(state *State) ([]byte, error) {
	out := *state
	if out.Schemes == nil {
		out.Schemes = []*Scheme{}
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return nil, errors.Wrap(err, "failed to marshal state")
	}
	return buf.Bytes(), nil
}

func (s *Store) scheme(id int) *Scheme {
	for _, sc := range s.state.Schemes {
		if sc.Id == id {
			return sc
		}
	}
	return nil
}

func (s *Store) current() *Scheme {
	if s.state.CurrentSchemeId == nil {
		return nil
	}
	return s.scheme(*s.state.CurrentSchemeId)
}

// currentOrDefault returns the current scheme, creating the default one
// when nothing is selected. A failed write of the new scheme is reported by
// the caller's own Save.
func (s *Store) currentOrDefault() *Scheme {
	if sc := s.current(); sc != nil {
		return sc
	}
	id, _ := s.CreateDefaultScheme()
	return s.scheme(id)
}
