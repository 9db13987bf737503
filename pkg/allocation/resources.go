package allocation

import log "github.com/sirupsen/logrus"

// AddGpu appends a gpu to the current scheme, creating the default scheme
// first when none is selected.
func (s *Store) AddGpu(name string, totalMemory float64) (int, error) {
	sc := s.currentOrDefault()
	gpu := Gpu{Id: sc.nextGpuId(), Name: name, TotalMemory: totalMemory}
	sc.Gpus = append(sc.Gpus, gpu)
	log.Debugf("added gpu %d (%s, %vGB) to scheme %d", gpu.Id, name, totalMemory, sc.Id)
	return gpu.Id, s.Save()
}

func (s *Store) UpdateGpu(id int, name string, totalMemory float64) (bool, error) {
	sc := s.current()
	if sc == nil {
		return false, nil
	}
	idx := sc.gpuIndex(id)
	if idx < 0 {
		return false, nil
	}
	sc.Gpus[idx].Name = name
	sc.Gpus[idx].TotalMemory = totalMemory
	return true, s.Save()
}

// DeleteGpu removes the gpu and every allocation on it. It only reports
// false when there is no current scheme.
func (s *Store) DeleteGpu(id int) (bool, error) {
	sc := s.current()
	if sc == nil {
		return false, nil
	}
	sc.filterAllocations(func(a Allocation) bool { return a.GpuId != id })
	if idx := sc.gpuIndex(id); idx >= 0 {
		sc.Gpus = append(sc.Gpus[:idx], sc.Gpus[idx+1:]...)
		log.Debugf("deleted gpu %d from scheme %d", id, sc.Id)
	}
	return true, s.Save()
}

func (s *Store) Gpu(id int) *Gpu {
	sc := s.current()
	if sc == nil {
		return nil
	}
	if idx := sc.gpuIndex(id); idx >= 0 {
		gpu := sc.Gpus[idx]
		return &gpu
	}
	return nil
}

func (s *Store) Gpus() []Gpu {
	sc := s.current()
	if sc == nil {
		return []Gpu{}
	}
	return append([]Gpu{}, sc.Gpus...)
}

func (s *Store) AddTask(name, description string) (int, error) {
	sc := s.currentOrDefault()
	task := Task{Id: sc.nextTaskId(), Name: name, Description: description}
	sc.Tasks = append(sc.Tasks, task)
	log.Debugf("added task %d (%s) to scheme %d", task.Id, name, sc.Id)
	return task.Id, s.Save()
}

func (s *Store) UpdateTask(id int, name, description string) (bool, error) {
	sc := s.current()
	if sc == nil {
		return false, nil
	}
	idx := sc.taskIndex(id)
	if idx < 0 {
		return false, nil
	}
	sc.Tasks[idx].Name = name
	sc.Tasks[idx].Description = description
	return true, s.Save()
}

// DeleteTask removes the task and every allocation it holds
func (s *Store) DeleteTask(id int) (bool, error) {
	sc := s.current()
	if sc == nil {
		return false, nil
	}
	sc.filterAllocations(func(a Allocation) bool { return a.TaskId != id })
	if idx := sc.taskIndex(id); idx >= 0 {
		sc.Tasks = append(sc.Tasks[:idx], sc.Tasks[idx+1:]...)
		log.Debugf("deleted task %d from scheme %d", id, sc.Id)
	}
	return true, s.Save()
}

func (s *Store) Task(id int) *Task {
	sc := s.current()
	if sc == nil {
		return nil
	}
	if idx := sc.taskIndex(id); idx >= 0 {
		task := sc.Tasks[idx]
		return &task
	}
	return nil
}

func (s *Store) Tasks() []Task {
	sc := s.current()
	if sc == nil {
		return []Task{}
	}
	return append([]Task{}, sc.Tasks...)
}

// AddAllocation sets the memory a task holds on a gpu, overwriting an
// existing record for the same pair. A zero amount removes the pair so that
// zero-sized allocations are never persisted. Task and gpu ids are not checked.
func (s *Store) AddAllocation(taskId, gpuId int, memoryUsage float64) (bool, error) {
	if memoryUsage == 0 {
		return s.DeleteAllocation(taskId, gpuId)
	}
	sc := s.current()
	if sc == nil {
		return false, nil
	}
	if idx := sc.allocationIndex(taskId, gpuId); idx >= 0 {
		sc.Allocations[idx].MemoryUsage = memoryUsage
	} else {
		sc.Allocations = append(sc.Allocations, Allocation{TaskId: taskId, GpuId: gpuId, MemoryUsage: memoryUsage})
	}
	log.Debugf("task %d uses %vGB on gpu %d in scheme %d", taskId, memoryUsage, gpuId, sc.Id)
	return true, s.Save()
}

func (s *Store) DeleteAllocation(taskId, gpuId int) (bool, error) {
	sc := s.current()
	if sc == nil {
		return false, nil
	}
	sc.filterAllocations(func(a Allocation) bool { return !(a.TaskId == taskId && a.GpuId == gpuId) })
	return true, s.Save()
}

func (s *Store) AllocationsByGpu(gpuId int) []Allocation {
	return s.allocations(func(a Allocation) bool { return a.GpuId == gpuId })
}

func (s *Store) AllocationsByTask(taskId int) []Allocation {
	return s.allocations(func(a Allocation) bool { return a.TaskId == taskId })
}

func (s *Store) Allocations() []Allocation {
	return s.allocations(func(Allocation) bool { return true })
}

func (s *Store) allocations(match func(a Allocation) bool) []Allocation {
	res := []Allocation{}
	sc := s.current()
	if sc == nil {
		return res
	}
	for _, a := range sc.Allocations {
		if match(a) {
			res = append(res, a)
		}
	}
	return res
}
