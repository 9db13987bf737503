package main

import (
	"github.com/AccessibleAI/gpu-memory-planner/pkg/allocation"
	"github.com/AccessibleAI/gpu-memory-planner/pkg/capacity"
	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var allocCmd = &cobra.Command{
	Use:     "alloc",
	Aliases: []string{"a", "allocation"},
	Short:   "manage task memory allocations on gpus",
}

var allocSetCmd = &cobra.Command{
	Use:   "set TASK_ID GPU_ID MEMORY_GB",
	Short: "set the memory a task uses on a gpu, 0 removes the allocation",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		p := openPlanner()
		taskId := parseId("task", args[0])
		gpuId := parseId("gpu", args[1])
		memory := parseMemory(args[2])
		if err := p.SetAllocation(taskId, gpuId, memory); err != nil {
			if available, aErr := capacity.Available(p.Store(), taskId, gpuId); aErr == nil {
				log.Errorf("available on gpu %d: %s", gpuId, formatGb(available))
			}
			log.Fatal(err)
		}
		listAllocations(p.Store(), 0, 0)
	},
}

var allocDeleteCmd = &cobra.Command{
	Use:     "delete TASK_ID GPU_ID",
	Aliases: []string{"rm"},
	Short:   "remove a task allocation from a gpu",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		p := openPlanner()
		ok, err := p.Store().DeleteAllocation(parseId("task", args[0]), parseId("gpu", args[1]))
		if !ok {
			log.Fatal("no current scheme")
		}
		mustSave(err)
		listAllocations(p.Store(), 0, 0)
	},
}

var allocListParams = []param{
	{name: "gpu", shorthand: "g", value: 0, usage: "only allocations on this gpu id"},
	{name: "task", shorthand: "t", value: 0, usage: "only allocations of this task id"},
}

var allocListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "list allocations of the current scheme",
	Run: func(cmd *cobra.Command, args []string) {
		listAllocations(openPlanner().Store(), viper.GetInt("gpu"), viper.GetInt("task"))
	},
}

func listAllocations(store *allocation.Store, gpuId, taskId int) {
	allocations := store.Allocations()
	if gpuId != 0 {
		allocations = store.AllocationsByGpu(gpuId)
	}
	if taskId != 0 {
		byTask := []allocation.Allocation{}
		for _, a := range allocations {
			if a.TaskId == taskId {
				byTask = append(byTask, a)
			}
		}
		allocations = byTask
	}
	to := &TableOutput{}
	to.header = table.Row{"Task", "GPU", "Memory"}
	var total float64
	for _, a := range allocations {
		total += a.MemoryUsage
		to.body = append(to.body, table.Row{taskName(store.Task(a.TaskId), a.TaskId), gpuName(store.Gpu(a.GpuId), a.GpuId), formatGb(a.MemoryUsage)})
	}
	to.footer = table.Row{len(allocations), "", formatGb(total)}
	printOutput(to, allocations)
}

func taskName(t *allocation.Task, id int) interface{} {
	if t == nil {
		return id
	}
	return t.Name
}

func gpuName(g *allocation.Gpu, id int) interface{} {
	if g == nil {
		return id
	}
	return g.Name
}
