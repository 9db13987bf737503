package main

import (
	"github.com/AccessibleAI/gpu-memory-planner/pkg/allocation"
	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var schemeCmd = &cobra.Command{
	Use:     "scheme",
	Aliases: []string{"s", "schemes"},
	Short:   "manage gpu schemes",
}

var schemeAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "add a scheme, the current scheme does not change",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := openPlanner()
		id, err := p.AddScheme(args[0])
		if err != nil && id == 0 {
			log.Fatal(err)
		}
		mustSave(err)
		log.Infof("scheme %d added", id)
		listSchemes(p.Store())
	},
}

var schemeRenameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "rename a scheme",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		p := openPlanner()
		id := parseId("scheme", args[0])
		ok, err := p.RenameScheme(id, args[1])
		exitOnRejected(ok, err, "scheme", id)
		listSchemes(p.Store())
	},
}

var schemeDeleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "delete a scheme with all its gpus, tasks and allocations",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := openPlanner()
		mustSave(p.Store().DeleteScheme(parseId("scheme", args[0])))
		listSchemes(p.Store())
	},
}

var schemeUseCmd = &cobra.Command{
	Use:   "use ID",
	Short: "switch the current scheme",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := openPlanner()
		id := parseId("scheme", args[0])
		ok, err := p.Store().SetCurrentScheme(id)
		exitOnRejected(ok, err, "scheme", id)
		listSchemes(p.Store())
	},
}

var schemesGetCmd = &cobra.Command{
	Use:     "schemes",
	Aliases: []string{"s", "scheme"},
	Short:   "list schemes",
	Run: func(cmd *cobra.Command, args []string) {
		listSchemes(openPlanner().Store())
	},
}

// exitOnRejected handles the result of an update on an existing record
func exitOnRejected(ok bool, err error, kind string, id int) {
	if err != nil && !ok {
		log.Fatal(err)
	}
	if !ok {
		log.Fatalf("%s %d not found", kind, id)
	}
	mustSave(err)
}

func listSchemes(store *allocation.Store) {
	schemes := store.Schemes()
	current, _ := store.CurrentSchemeId()
	to := &TableOutput{}
	to.header = table.Row{"", "Id", "Name", "GPUs", "Tasks", "Allocations"}
	for _, sc := range schemes {
		marker := ""
		if sc.Id == current {
			marker = "*"
		}
		to.body = append(to.body, table.Row{marker, sc.Id, sc.Name, len(sc.Gpus), len(sc.Tasks), len(sc.Allocations)})
	}
	to.footer = table.Row{"", len(schemes), "", "", "", ""}
	printOutput(to, schemes)
}
