package allocation

import (
	"encoding/json"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// decodeState parses the data file and upgrades the two legacy layouts:
// the pre-scheme layout with top-level gpus/tasks/allocations, and the
// intermediate layout where gpus were still shared by all schemes.
func decodeState(data []byte) (state *State, migrated bool, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, errors.Wrap(err, "malformed data file")
	}
	if _, ok := raw["schemes"]; !ok {
		state, err = migratePreScheme(raw)
		if err != nil {
			return nil, false, err
		}
		normalize(state)
		return state, true, nil
	}
	state = &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, false, errors.Wrap(err, "malformed schemes")
	}
	migrated, err = migrateSharedGpus(state, raw)
	if err != nil {
		return nil, false, err
	}
	normalize(state)
	return state, migrated, nil
}

func migratePreScheme(raw map[string]json.RawMessage) (*State, error) {
	scheme := newScheme(1, DefaultSchemeName)
	if err := decodeKey(raw, "gpus", &scheme.Gpus); err != nil {
		return nil, err
	}
	if err := decodeKey(raw, "tasks", &scheme.Tasks); err != nil {
		return nil, err
	}
	if err := decodeKey(raw, "allocations", &scheme.Allocations); err != nil {
		return nil, err
	}
	log.Infof("moving %d gpus, %d tasks and %d allocations into scheme %q",
		len(scheme.Gpus), len(scheme.Tasks), len(scheme.Allocations), scheme.Name)
	id := scheme.Id
	return &State{Schemes: []*Scheme{scheme}, CurrentSchemeId: &id}, nil
}

func migrateSharedGpus(state *State, raw map[string]json.RawMessage) (bool, error) {
	var shared []Gpu
	if err := decodeKey(raw, "gpus", &shared); err != nil {
		return false, err
	}
	if len(shared) == 0 {
		return false, nil
	}
	for _, sc := range state.Schemes {
		if sc != nil && len(sc.Gpus) == 0 {
			log.Infof("copying %d shared gpus into scheme %d", len(shared), sc.Id)
			sc.Gpus = append([]Gpu{}, shared...)
		}
	}
	return true, nil
}

func decodeKey(raw map[string]json.RawMessage, key string, dst interface{}) error {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return errors.Wrapf(err, "malformed %s", key)
	}
	return nil
}

// normalize fills in missing lists, collapses duplicate allocation keys to
// the last value seen, drops zero-sized allocations and clears a current
// scheme id that points nowhere.
func normalize(state *State) {
	schemes := make([]*Scheme, 0, len(state.Schemes))
	for _, sc := range state.Schemes {
		if sc == nil {
			continue
		}
		if sc.Gpus == nil {
			sc.Gpus = []Gpu{}
		}
		if sc.Tasks == nil {
			sc.Tasks = []Task{}
		}
		allocations := make([]Allocation, 0, len(sc.Allocations))
		seen := map[[2]int]int{}
		for _, a := range sc.Allocations {
			key := [2]int{a.TaskId, a.GpuId}
			if idx, ok := seen[key]; ok {
				allocations[idx].MemoryUsage = a.MemoryUsage
				continue
			}
			seen[key] = len(allocations)
			allocations = append(allocations, a)
		}
		sc.Allocations = allocations
		sc.filterAllocations(func(a Allocation) bool { return a.MemoryUsage != 0 })
		for _, g := range sc.Gpus {
			if g.TotalMemory <= 0 {
				log.Warnf("gpu %d in scheme %d has non-positive total memory: %v", g.Id, sc.Id, g.TotalMemory)
			}
		}
		schemes = append(schemes, sc)
	}
	state.Schemes = schemes
	if state.CurrentSchemeId != nil {
		found := false
		for _, sc := range state.Schemes {
			if sc.Id == *state.CurrentSchemeId {
				found = true
				break
			}
		}
		if !found {
			log.Warnf("current scheme %d not found, resetting selection", *state.CurrentSchemeId)
			state.CurrentSchemeId = nil
		}
	}
}
