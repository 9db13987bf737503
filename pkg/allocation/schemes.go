package allocation

import log "github.com/sirupsen/logrus"

func (s *Store) nextSchemeId() (id int) {
	for _, sc := range s.state.Schemes {
		if sc.Id > id {
			id = sc.Id
		}
	}
	return id + 1
}

// CreateDefaultScheme appends an empty default scheme and selects it if no
// scheme is current.
func (s *Store) CreateDefaultScheme() (int, error) {
	sc := newScheme(s.nextSchemeId(), DefaultSchemeName)
	s.state.Schemes = append(s.state.Schemes, sc)
	if s.current() == nil {
		id := sc.Id
		s.state.CurrentSchemeId = &id
	}
	log.Infof("created default scheme %d", sc.Id)
	return sc.Id, s.Save()
}

// AddScheme appends an empty scheme without touching the current selection
func (s *Store) AddScheme(name string) (int, error) {
	sc := newScheme(s.nextSchemeId(), name)
	s.state.Schemes = append(s.state.Schemes, sc)
	log.Debugf("added scheme %d: %s", sc.Id, name)
	return sc.Id, s.Save()
}

func (s *Store) UpdateScheme(id int, name string) (bool, error) {
	sc := s.scheme(id)
	if sc == nil {
		return false, nil
	}
	sc.Name = name
	return true, s.Save()
}

// DeleteScheme removes the scheme with everything it owns. When the current
// scheme goes away the first remaining one is selected. Unknown ids are a no-op.
func (s *Store) DeleteScheme(id int) error {
	kept := make([]*Scheme, 0, len(s.state.Schemes))
	for _, sc := range s.state.Schemes {
		if sc.Id != id {
			kept = append(kept, sc)
		}
	}
	s.state.Schemes = kept
	if s.state.CurrentSchemeId != nil && *s.state.CurrentSchemeId == id {
		if len(kept) > 0 {
			first := kept[0].Id
			s.state.CurrentSchemeId = &first
		} else {
			s.state.CurrentSchemeId = nil
		}
	}
	return s.Save()
}

func (s *Store) SetCurrentScheme(id int) (bool, error) {
	if s.scheme(id) == nil {
		return false, nil
	}
	s.state.CurrentSchemeId = &id
	return true, s.Save()
}

// CurrentSchemeId reports the selected scheme id, false when none is selected
func (s *Store) CurrentSchemeId() (int, bool) {
	if s.state.CurrentSchemeId == nil {
		return 0, false
	}
	return *s.state.CurrentSchemeId, true
}

func (s *Store) CurrentScheme() *Scheme {
	if sc := s.current(); sc != nil {
		return sc.copy()
	}
	return nil
}

func (s *Store) Scheme(id int) *Scheme {
	if sc := s.scheme(id); sc != nil {
		return sc.copy()
	}
	return nil
}

func (s *Store) Schemes() []*Scheme {
	schemes := make([]*Scheme, 0, len(s.state.Schemes))
	for _, sc := range s.state.Schemes {
		schemes = append(schemes, sc.copy())
	}
	return schemes
}
