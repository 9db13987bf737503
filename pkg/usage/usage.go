// Package usage derives per-gpu memory summaries from the allocation store.
// Summaries are recomputed on every call, nothing is cached.
package usage

import "github.com/AccessibleAI/gpu-memory-planner/pkg/allocation"

// Source is the read side of the allocation store
type Source interface {
	Gpu(id int) *allocation.Gpu
	Gpus() []allocation.Gpu
	Task(id int) *allocation.Task
	AllocationsByGpu(gpuId int) []allocation.Allocation
}

type TaskAllocation struct {
	allocation.Allocation
	TaskName string `json:"task_name"`
}

type GpuUsage struct {
	Gpu         allocation.Gpu   `json:"gpu"`
	TotalMemory float64          `json:"total_memory"`
	UsedMemory  float64          `json:"used_memory"`
	FreeMemory  float64          `json:"free_memory"`
	Allocations []TaskAllocation `json:"allocations"`
}

// TaskShare is the memory a single task name holds on a gpu
type TaskShare struct {
	TaskName string  `json:"task_name"`
	Memory   float64 `json:"memory"`
}

// GetGpuUsage summarises a gpu of the current scheme, nil if it does not exist.
// Allocations of deleted tasks count towards used memory but are left out of
// the enriched allocation list. Free memory is not clamped at zero.
func GetGpuUsage(src Source, gpuId int) *GpuUsage {
	gpu := src.Gpu(gpuId)
	if gpu == nil {
		return nil
	}
	u := &GpuUsage{
		Gpu:         *gpu,
		TotalMemory: gpu.TotalMemory,
		Allocations: []TaskAllocation{},
	}
	for _, a := range src.AllocationsByGpu(gpuId) {
		u.UsedMemory += a.MemoryUsage
		if task := src.Task(a.TaskId); task != nil {
			u.Allocations = append(u.Allocations, TaskAllocation{Allocation: a, TaskName: task.Name})
		}
	}
	u.FreeMemory = u.TotalMemory - u.UsedMemory
	return u
}

// GetAllGpuUsage summarises every gpu of the current scheme in order
func GetAllGpuUsage(src Source) []*GpuUsage {
	usages := []*GpuUsage{}
	for _, g := range src.Gpus() {
		if u := GetGpuUsage(src, g.Id); u != nil {
			usages = append(usages, u)
		}
	}
	return usages
}

// TaskBreakdown sums memory per task name, in first seen order
func (u *GpuUsage) TaskBreakdown() []TaskShare {
	var shares []TaskShare
	idx := map[string]int{}
	for _, a := range u.Allocations {
		if i, ok := idx[a.TaskName]; ok {
			shares[i].Memory += a.MemoryUsage
			continue
		}
		idx[a.TaskName] = len(shares)
		shares = append(shares, TaskShare{TaskName: a.TaskName, Memory: a.MemoryUsage})
	}
	return shares
}

func (u *GpuUsage) UsedPercent() float64 {
	if u.TotalMemory <= 0 {
		return 0
	}
	return u.UsedMemory * 100 / u.TotalMemory
}
