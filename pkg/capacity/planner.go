// Package capacity validates user input and enforces the gpu capacity policy
// before anything reaches the allocation store, which only checks existence.
package capacity

import (
	"github.com/AccessibleAI/gpu-memory-planner/pkg/allocation"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Source is what the capacity check needs to read
type Source interface {
	Gpu(id int) *allocation.Gpu
	Task(id int) *allocation.Task
	AllocationsByGpu(gpuId int) []allocation.Allocation
}

// Available is the gpu memory left for taskId: total memory minus every
// allocation on the gpu except the one taskId already holds there.
func Available(src Source, taskId, gpuId int) (float64, error) {
	gpu := src.Gpu(gpuId)
	if gpu == nil {
		return 0, errors.Wrapf(ErrUnknownGpu, "gpu %d", gpuId)
	}
	used := 0.0
	for _, a := range src.AllocationsByGpu(gpuId) {
		if a.TaskId == taskId {
			continue
		}
		used += a.MemoryUsage
	}
	return gpu.TotalMemory - used, nil
}

// CheckAllocation tells whether taskId may hold memoryUsage on gpuId
func CheckAllocation(src Source, taskId, gpuId int, memoryUsage float64) error {
	if err := ValidateUsage(memoryUsage); err != nil {
		return err
	}
	if src.Task(taskId) == nil {
		return errors.Wrapf(ErrUnknownTask, "task %d", taskId)
	}
	available, err := Available(src, taskId, gpuId)
	if err != nil {
		return err
	}
	if memoryUsage > available {
		return errors.Wrapf(ErrExceedsCapacity, "requested %vGB, available %vGB", memoryUsage, available)
	}
	return nil
}

// Planner is the validating front of the allocation store. Every front end
// goes through it instead of calling the store mutations directly.
type Planner struct {
	store *allocation.Store
}

func NewPlanner(store *allocation.Store) *Planner {
	return &Planner{store: store}
}

func (p *Planner) Store() *allocation.Store {
	return p.store
}

func (p *Planner) AddScheme(name string) (int, error) {
	if err := ValidateName(name); err != nil {
		return 0, err
	}
	return p.store.AddScheme(name)
}

func (p *Planner) RenameScheme(id int, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	return p.store.UpdateScheme(id, name)
}

func (p *Planner) AddGpu(name string, totalMemory float64) (int, error) {
	if err := ValidateGpu(name, totalMemory); err != nil {
		return 0, err
	}
	return p.store.AddGpu(name, totalMemory)
}

// UpdateGpu rejects a non-positive total memory, keeping the previous value
func (p *Planner) UpdateGpu(id int, name string, totalMemory float64) (bool, error) {
	if err := ValidateGpu(name, totalMemory); err != nil {
		return false, err
	}
	return p.store.UpdateGpu(id, name, totalMemory)
}

func (p *Planner) AddTask(name, description string) (int, error) {
	if err := ValidateName(name); err != nil {
		return 0, err
	}
	return p.store.AddTask(name, description)
}

func (p *Planner) UpdateTask(id int, name, description string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	return p.store.UpdateTask(id, name, description)
}

// SetAllocation checks capacity and stores the amount. Zero removes the
// allocation without a capacity check, so an over-committed gpu can always
// be relieved.
func (p *Planner) SetAllocation(taskId, gpuId int, memoryUsage float64) error {
	if p.store.CurrentScheme() == nil {
		return ErrNoScheme
	}
	if err := ValidateUsage(memoryUsage); err != nil {
		return err
	}
	if memoryUsage == 0 {
		_, err := p.store.DeleteAllocation(taskId, gpuId)
		return err
	}
	if err := CheckAllocation(p.store, taskId, gpuId, memoryUsage); err != nil {
		log.Debugf("rejected allocation of %vGB for task %d on gpu %d, err: %s", memoryUsage, taskId, gpuId, err)
		return err
	}
	_, err := p.store.AddAllocation(taskId, gpuId, memoryUsage)
	return err
}
