package main

import (
	"github.com/AccessibleAI/gpu-memory-planner/pkg/allocation"
	"github.com/AccessibleAI/gpu-memory-planner/pkg/usage"
	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var gpuCmd = &cobra.Command{
	Use:     "gpu",
	Aliases: []string{"gpus"},
	Short:   "manage gpus of the current scheme",
}

var gpuAddCmd = &cobra.Command{
	Use:   "add NAME TOTAL_MEMORY_GB",
	Short: "add a gpu",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		p := openPlanner()
		id, err := p.AddGpu(args[0], parseMemory(args[1]))
		if err != nil && id == 0 {
			log.Fatal(err)
		}
		mustSave(err)
		log.Infof("gpu %d added", id)
		listGpus(p.Store())
	},
}

var gpuUpdateCmd = &cobra.Command{
	Use:   "update ID NAME TOTAL_MEMORY_GB",
	Short: "change gpu name and total memory",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		p := openPlanner()
		id := parseId("gpu", args[0])
		ok, err := p.UpdateGpu(id, args[1], parseMemory(args[2]))
		exitOnRejected(ok, err, "gpu", id)
		listGpus(p.Store())
	},
}

var gpuDeleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "delete a gpu and its allocations",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := openPlanner()
		ok, err := p.Store().DeleteGpu(parseId("gpu", args[0]))
		if !ok {
			log.Fatal("no current scheme")
		}
		mustSave(err)
		listGpus(p.Store())
	},
}

var gpusGetCmd = &cobra.Command{
	Use:     "gpus",
	Aliases: []string{"g", "gpu"},
	Short:   "list gpus of the current scheme",
	Run: func(cmd *cobra.Command, args []string) {
		listGpus(openPlanner().Store())
	},
}

func listGpus(store *allocation.Store) {
	gpus := store.Gpus()
	to := &TableOutput{}
	to.header = table.Row{"Id", "Name", "Total", "Used", "Free"}
	var total float64
	for _, g := range gpus {
		u := usage.GetGpuUsage(store, g.Id)
		total += g.TotalMemory
		to.body = append(to.body, table.Row{g.Id, g.Name, formatGb(g.TotalMemory), formatGb(u.UsedMemory), formatGb(u.FreeMemory)})
	}
	to.footer = table.Row{len(gpus), "", formatGb(total), "", ""}
	printOutput(to, gpus)
}
