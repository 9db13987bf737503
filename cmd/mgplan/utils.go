package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/AccessibleAI/gpu-memory-planner/pkg/allocation"
	"github.com/AccessibleAI/gpu-memory-planner/pkg/capacity"
	"github.com/atomicgo/cursor"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	colorGood     = text.Colors{text.FgGreen}
	colorWarning  = text.Colors{text.FgYellow}
	colorCritical = text.Colors{text.FgRed}
)

type TableOutput struct {
	data         []byte
	header       table.Row
	footer       table.Row
	body         []table.Row
	lastPosition int
}

func (o *TableOutput) Write(data []byte) (n int, err error) {
	o.data = append(o.data, data...)
	return len(data), nil
}

func (o *TableOutput) print() {
	if o.lastPosition > 0 {
		cursor.ClearLinesUp(o.lastPosition)
	}
	fmt.Printf("%s", o.data)
	o.lastPosition = bytes.Count(o.data, []byte("\n"))
}

func (o *TableOutput) buildTable() {
	o.data = nil
	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(o)
	t.AppendHeader(o.header, rowConfigAutoMerge)
	t.AppendRows(o.body)
	if o.footer != nil {
		t.AppendFooter(o.footer)
	}
	if viper.GetString(flagOutput) == outRaw {
		t.RenderCSV()
		return
	}
	t.SetStyle(table.StyleColoredGreenWhiteOnBlack)
	t.Render()
}

// printOutput writes v as json for -o json, otherwise renders the table
func printOutput(to *TableOutput, v interface{}) {
	if viper.GetString(flagOutput) == outJSON {
		printJSON(v)
		return
	}
	to.buildTable()
	to.print()
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if viper.GetBool(flagPrettyOut) {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		log.Fatalf("failed to encode output, err: %s", err)
	}
}

func openPlanner() *capacity.Planner {
	dataFile := viper.GetString(flagDataFile)
	log.Debugf("loading allocation data from %s", dataFile)
	return capacity.NewPlanner(allocation.NewStore(dataFile))
}

func parseId(kind, raw string) int {
	id, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("bad %s id: %s", kind, raw)
	}
	return id
}

func parseMemory(raw string) float64 {
	v, err := capacity.ParseMemory(raw)
	if err != nil {
		log.Fatalf("bad memory value, err: %s", err)
	}
	return v
}

// mustSave turns a failed write into a warning, the change is kept in memory
// only for the lifetime of this command
func mustSave(err error) {
	if err != nil {
		log.Errorf("change not persisted, err: %s", err)
	}
}

func formatGb(v float64) string {
	return fmt.Sprintf("%.1fGB", v)
}

func usageColor(usedPercent float64) text.Colors {
	switch {
	case usedPercent > 100:
		return colorCritical
	case usedPercent >= 80:
		return colorWarning
	default:
		return colorGood
	}
}
