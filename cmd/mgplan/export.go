package main

import (
	"github.com/AccessibleAI/gpu-memory-planner/pkg/metrics"
	"github.com/AccessibleAI/gpu-memory-planner/pkg/usage"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportParams = []param{
	{name: "textfile", shorthand: "", value: "mgplan.prom", usage: "node exporter textfile to write the metrics to"},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "export planned gpu memory of the current scheme as prometheus metrics",
	Run: func(cmd *cobra.Command, args []string) {
		store := openPlanner().Store()
		scheme := ""
		if sc := store.CurrentScheme(); sc != nil {
			scheme = sc.Name
		}
		e := metrics.NewExporter()
		e.Collect(scheme, usage.GetAllGpuUsage(store))
		if err := e.WriteTextfile(viper.GetString("textfile")); err != nil {
			log.Fatal(err)
		}
	},
}
