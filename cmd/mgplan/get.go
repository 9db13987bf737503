package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AccessibleAI/gpu-memory-planner/pkg/allocation"
	"github.com/AccessibleAI/gpu-memory-planner/pkg/palette"
	"github.com/AccessibleAI/gpu-memory-planner/pkg/usage"
	"github.com/AccessibleAI/gpu-memory-planner/pkg/watcher"
	"github.com/atomicgo/cursor"
	"github.com/fsnotify/fsnotify"
	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const barWidth = 30

var getCmd = &cobra.Command{
	Use:     "get",
	Aliases: []string{"g"},
	Short:   "get resources",
}

var usageGetParams = []param{
	{name: "watch", shorthand: "w", value: false, usage: "watch the data file for changes"},
}

var usageGetCmd = &cobra.Command{
	Use:     "usage",
	Aliases: []string{"u"},
	Short:   "show planned memory usage per gpu of the current scheme",
	Run: func(cmd *cobra.Command, args []string) {
		getUsage()
	},
}

type usageView struct {
	Scheme string            `json:"scheme"`
	Gpus   []*usage.GpuUsage `json:"gpus"`
}

func getUsage() {
	to := &TableOutput{}
	to.header = table.Row{"Id", "GPU", "Total", "Used", "Free", "Used %", "Usage", "Tasks"}
	store := openPlanner().Store()
	if !viper.GetBool("watch") {
		renderUsage(to, store, palette.NewFromConfig())
		return
	}

	fw, err := watcher.NewFileWatcher(store.Path())
	if err != nil {
		log.Fatal(err)
	}
	defer fw.Close()

	paletteCh := make(chan bool, 1)
	if viper.ConfigFileUsed() != "" {
		viper.WatchConfig()
		viper.OnConfigChange(func(e fsnotify.Event) {
			log.Debugf("config file changed: %s, reloading palette", e.Name)
			select {
			case paletteCh <- true:
			default:
			}
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	p := palette.NewFromConfig()
	renderUsage(to, store, p)
	for {
		select {
		case <-sigCh:
			cursor.ClearLine()
			log.Info("shutting down")
			return
		case <-paletteCh:
			p = palette.NewFromConfig()
			renderUsage(to, store, p)
		case <-fw.Changed:
			reloaded, err := allocation.ReadStore(store.Path())
			if err != nil {
				log.Debugf("keeping previous view, err: %s", err)
				continue
			}
			store = reloaded
			renderUsage(to, store, p)
		}
	}
}

func renderUsage(to *TableOutput, store *allocation.Store, p *palette.Palette) {
	usages := usage.GetAllGpuUsage(store)
	view := usageView{Gpus: usages}
	if sc := store.CurrentScheme(); sc != nil {
		view.Scheme = sc.Name
	}
	colors := p.Assign(taskNames(store.Tasks()))
	to.body, to.footer = buildUsageTableBody(usages, colors)
	printOutput(to, view)
}

func buildUsageTableBody(usages []*usage.GpuUsage, colors map[string]palette.Color) (body []table.Row, footer table.Row) {
	var total, used, free float64
	for _, u := range usages {
		total += u.TotalMemory
		used += u.UsedMemory
		free += u.FreeMemory
		shares := u.TaskBreakdown()
		var tasks []string
		for _, s := range shares {
			tasks = append(tasks, colorFor(colors, s.TaskName).Term.Sprint(fmt.Sprintf("%s: %s", s.TaskName, formatGb(s.Memory))))
		}
		percent := u.UsedPercent()
		body = append(body, table.Row{
			u.Gpu.Id,
			u.Gpu.Name,
			formatGb(u.TotalMemory),
			formatGb(u.UsedMemory),
			usageColor(percent).Sprint(formatGb(u.FreeMemory)),
			usageColor(percent).Sprint(fmt.Sprintf("%.0f%%", percent)),
			usageBar(u, shares, colors),
			strings.Join(tasks, ", "),
		})
	}
	footer = table.Row{len(usages), "", formatGb(total), formatGb(used), formatGb(free), "", "", ""}
	return body, footer
}

func colorFor(colors map[string]palette.Color, taskName string) palette.Color {
	if c, ok := colors[taskName]; ok {
		return c
	}
	return palette.Unassigned
}

// usageBar draws one stacked segment per task, scaled to the gpu total memory
func usageBar(u *usage.GpuUsage, shares []usage.TaskShare, colors map[string]palette.Color) string {
	if u.TotalMemory <= 0 {
		return ""
	}
	var sb strings.Builder
	cells := 0
	for _, s := range shares {
		n := int(math.Round(s.Memory / u.TotalMemory * barWidth))
		if n == 0 && s.Memory > 0 {
			n = 1
		}
		if cells+n > barWidth {
			n = barWidth - cells
		}
		if n <= 0 {
			continue
		}
		sb.WriteString(colorFor(colors, s.TaskName).Term.Sprint(strings.Repeat("█", n)))
		cells += n
	}
	sb.WriteString(strings.Repeat("░", barWidth-cells))
	return sb.String()
}
