package main

import (
	"github.com/AccessibleAI/gpu-memory-planner/pkg/allocation"
	"github.com/AccessibleAI/gpu-memory-planner/pkg/palette"
	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"t", "tasks"},
	Short:   "manage tasks of the current scheme",
}

var taskAddCmd = &cobra.Command{
	Use:   "add NAME [DESCRIPTION]",
	Short: "add a task",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		p := openPlanner()
		id, err := p.AddTask(args[0], optionalArg(args, 1))
		if err != nil && id == 0 {
			log.Fatal(err)
		}
		mustSave(err)
		log.Infof("task %d added", id)
		listTasks(p.Store())
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update ID NAME [DESCRIPTION]",
	Short: "change task name and description",
	Args:  cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		p := openPlanner()
		id := parseId("task", args[0])
		ok, err := p.UpdateTask(id, args[1], optionalArg(args, 2))
		exitOnRejected(ok, err, "task", id)
		listTasks(p.Store())
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "delete a task and its allocations",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := openPlanner()
		ok, err := p.Store().DeleteTask(parseId("task", args[0]))
		if !ok {
			log.Fatal("no current scheme")
		}
		mustSave(err)
		listTasks(p.Store())
	},
}

var tasksGetCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"t", "task"},
	Short:   "list tasks of the current scheme",
	Run: func(cmd *cobra.Command, args []string) {
		listTasks(openPlanner().Store())
	},
}

func optionalArg(args []string, idx int) string {
	if len(args) > idx {
		return args[idx]
	}
	return ""
}

func taskNames(tasks []allocation.Task) (names []string) {
	for _, t := range tasks {
		names = append(names, t.Name)
	}
	return
}

func listTasks(store *allocation.Store) {
	tasks := store.Tasks()
	colors := palette.NewFromConfig().Assign(taskNames(tasks))
	to := &TableOutput{}
	to.header = table.Row{"Id", "Name", "Description", "Allocated", "Color"}
	for _, t := range tasks {
		var allocated float64
		for _, a := range store.AllocationsByTask(t.Id) {
			allocated += a.MemoryUsage
		}
		c := colors[t.Name]
		to.body = append(to.body, table.Row{t.Id, c.Term.Sprint(t.Name), t.Description, formatGb(allocated), c.Hex})
	}
	to.footer = table.Row{len(tasks), "", "", "", ""}
	printOutput(to, tasks)
}
