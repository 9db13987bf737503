package allocation

const (
	DefaultDataFile   = "gpu_data.json"
	DefaultSchemeName = "默认方案"
)

type Gpu struct {
	Id          int     `json:"id"`
	Name        string  `json:"name"`
	TotalMemory float64 `json:"total_memory"`
}

type Task struct {
	Id          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Allocation is the memory a task occupies on a gpu, unique per (TaskId, GpuId)
type Allocation struct {
	TaskId      int     `json:"task_id"`
	GpuId       int     `json:"gpu_id"`
	MemoryUsage float64 `json:"memory_usage"`
}

type Scheme struct {
	Id          int          `json:"id"`
	Name        string       `json:"name"`
	Gpus        []Gpu        `json:"gpus"`
	Tasks       []Task       `json:"tasks"`
	Allocations []Allocation `json:"allocations"`
}

// State is the persisted document
type State struct {
	Schemes         []*Scheme `json:"schemes"`
	CurrentSchemeId *int      `json:"current_scheme_id"`
}

func newScheme(id int, name string) *Scheme {
	return &Scheme{
		Id:          id,
		Name:        name,
		Gpus:        []Gpu{},
		Tasks:       []Task{},
		Allocations: []Allocation{},
	}
}

func (s *Scheme) copy() *Scheme {
	c := &Scheme{Id: s.Id, Name: s.Name}
	c.Gpus = append([]Gpu{}, s.Gpus...)
	c.Tasks = append([]Task{}, s.Tasks...)
	c.Allocations = append([]Allocation{}, s.Allocations...)
	return c
}

func (s *Scheme) gpuIndex(id int) int {
	for i, g := range s.Gpus {
		if g.Id == id {
			return i
		}
	}
	return -1
}

func (s *Scheme) taskIndex(id int) int {
	for i, t := range s.Tasks {
		if t.Id == id {
			return i
		}
	}
	return -1
}

func (s *Scheme) allocationIndex(taskId, gpuId int) int {
	for i, a := range s.Allocations {
		if a.TaskId == taskId && a.GpuId == gpuId {
			return i
		}
	}
	return -1
}

func (s *Scheme) nextGpuId() (id int) {
	for _, g := range s.Gpus {
		if g.Id > id {
			id = g.Id
		}
	}
	return id + 1
}

func (s *Scheme) nextTaskId() (id int) {
	for _, t := range s.Tasks {
		if t.Id > id {
			id = t.Id
		}
	}
	return id + 1
}

// filterAllocations keeps only the allocations accepted by keep
func (s *Scheme) filterAllocations(keep func(a Allocation) bool) {
	kept := make([]Allocation, 0, len(s.Allocations))
	for _, a := range s.Allocations {
		if keep(a) {
			kept = append(kept, a)
		}
	}
	s.Allocations = kept
}
