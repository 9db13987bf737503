package metrics

import (
	"strconv"

	"github.com/AccessibleAI/gpu-memory-planner/pkg/usage"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Exporter renders planned gpu memory as prometheus gauges. It has its own
// registry and writes node-exporter textfiles, there is no http listener.
type Exporter struct {
	registry         *prometheus.Registry
	gpuMemTotal      *prometheus.GaugeVec
	gpuMemUsed       *prometheus.GaugeVec
	gpuMemFree       *prometheus.GaugeVec
	taskMemAllocated *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	gpuLabels := []string{"scheme", "gpu_id", "gpu_name"}
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		gpuMemTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mgplan",
			Subsystem: "gpu",
			Name:      "memory_total_gb",
			Help:      "total memory per gpu",
		}, gpuLabels),
		gpuMemUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mgplan",
			Subsystem: "gpu",
			Name:      "memory_used_gb",
			Help:      "memory allocated to tasks per gpu",
		}, gpuLabels),
		gpuMemFree: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mgplan",
			Subsystem: "gpu",
			Name:      "memory_free_gb",
			Help:      "unallocated memory per gpu, negative when over committed",
		}, gpuLabels),
		taskMemAllocated: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mgplan",
			Subsystem: "task",
			Name:      "memory_allocated_gb",
			Help:      "memory allocated to a task on a gpu",
		}, []string{"scheme", "gpu_id", "gpu_name", "task_id", "task_name"}),
	}
	e.registry.MustRegister(e.gpuMemTotal, e.gpuMemUsed, e.gpuMemFree, e.taskMemAllocated)
	return e
}

// Collect replaces all gauge values with the given usage summaries
func (e *Exporter) Collect(scheme string, usages []*usage.GpuUsage) {
	e.gpuMemTotal.Reset()
	e.gpuMemUsed.Reset()
	e.gpuMemFree.Reset()
	e.taskMemAllocated.Reset()
	for _, u := range usages {
		gpuId := strconv.Itoa(u.Gpu.Id)
		e.gpuMemTotal.WithLabelValues(scheme, gpuId, u.Gpu.Name).Set(u.TotalMemory)
		e.gpuMemUsed.WithLabelValues(scheme, gpuId, u.Gpu.Name).Set(u.UsedMemory)
		e.gpuMemFree.WithLabelValues(scheme, gpuId, u.Gpu.Name).Set(u.FreeMemory)
		for _, a := range u.Allocations {
			e.taskMemAllocated.
				WithLabelValues(scheme, gpuId, u.Gpu.Name, strconv.Itoa(a.TaskId), a.TaskName).
				Set(a.MemoryUsage)
		}
	}
	log.Debugf("collected metrics for %d gpus of scheme %s", len(usages), scheme)
}

func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// WriteTextfile dumps the registry in the text exposition format
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	log.Infof("metrics written to %s", path)
	return nil
}
