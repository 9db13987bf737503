package capacity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AccessibleAI/gpu-memory-planner/pkg/allocation"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func TestCapacity(t *testing.T) {
	log.SetLevel(log.PanicLevel)
	RegisterFailHandler(Fail)
	RunSpecs(t, "Capacity Suite")
}

var _ = Describe("capacity", func() {
	var (
		dir     string
		planner *Planner
		store   *allocation.Store
		gpuId   int
		taskA   int
		taskB   int
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "mgplan-capacity")
		Expect(err).NotTo(HaveOccurred())
		store = allocation.NewStore(filepath.Join(dir, allocation.DefaultDataFile))
		planner = NewPlanner(store)
		gpuId, err = planner.AddGpu("g", 10)
		Expect(err).NotTo(HaveOccurred())
		taskA, _ = planner.AddTask("taskA", "")
		taskB, _ = planner.AddTask("taskB", "")
		Expect(planner.SetAllocation(taskA, gpuId, 6)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	Context("check", func() {
		It("rejects requests above the free memory", func() {
			err := CheckAllocation(store, taskB, gpuId, 5)
			Expect(errors.Cause(err)).To(Equal(ErrExceedsCapacity))
		})

		It("accepts requests that fit exactly", func() {
			Expect(CheckAllocation(store, taskB, gpuId, 4)).To(Succeed())
		})

		It("excludes the task's own allocation from the used memory", func() {
			Expect(CheckAllocation(store, taskA, gpuId, 6)).To(Succeed())
			Expect(CheckAllocation(store, taskA, gpuId, 10)).To(Succeed())
			available, err := Available(store, taskA, gpuId)
			Expect(err).NotTo(HaveOccurred())
			Expect(available).To(Equal(10.0))
		})

		It("rejects negative amounts", func() {
			Expect(errors.Cause(CheckAllocation(store, taskB, gpuId, -1))).To(Equal(ErrNegativeUsage))
		})

		It("rejects unknown gpus and tasks", func() {
			Expect(errors.Cause(CheckAllocation(store, taskB, 99, 1))).To(Equal(ErrUnknownGpu))
			Expect(errors.Cause(CheckAllocation(store, 99, gpuId, 1))).To(Equal(ErrUnknownTask))
		})
	})

	Context("planner", func() {
		It("does not touch the store when a request is rejected", func() {
			Expect(planner.SetAllocation(taskB, gpuId, 5)).NotTo(Succeed())
			Expect(store.AllocationsByTask(taskB)).To(BeEmpty())
		})

		It("stores accepted requests", func() {
			Expect(planner.SetAllocation(taskB, gpuId, 4)).To(Succeed())
			Expect(store.AllocationsByGpu(gpuId)).To(HaveLen(2))
		})

		It("removes the allocation when set to zero", func() {
			Expect(planner.SetAllocation(taskA, gpuId, 0)).To(Succeed())
			Expect(store.AllocationsByGpu(gpuId)).To(BeEmpty())
		})

		It("removes the allocation on an over-committed gpu", func() {
			Expect(planner.SetAllocation(taskB, gpuId, 4)).To(Succeed())
			ok, err := planner.UpdateGpu(gpuId, "g", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(planner.SetAllocation(taskA, gpuId, 0)).To(Succeed())
			allocations := store.AllocationsByGpu(gpuId)
			Expect(allocations).To(HaveLen(1))
			Expect(allocations[0].TaskId).To(Equal(taskB))
		})

		It("keeps the previous total memory on invalid updates", func() {
			ok, err := planner.UpdateGpu(gpuId, "g", 0)
			Expect(errors.Cause(err)).To(Equal(ErrInvalidMemory))
			Expect(ok).To(BeFalse())
			_, err = planner.UpdateGpu(gpuId, "g", -4)
			Expect(err).To(HaveOccurred())
			Expect(store.Gpu(gpuId).TotalMemory).To(Equal(10.0))
		})

		It("rejects empty names", func() {
			_, err := planner.AddGpu("  ", 8)
			Expect(err).To(Equal(ErrEmptyName))
			_, err = planner.AddTask("", "desc")
			Expect(err).To(Equal(ErrEmptyName))
			_, err = planner.AddScheme("")
			Expect(err).To(Equal(ErrEmptyName))
			_, err = planner.RenameScheme(1, "")
			Expect(err).To(Equal(ErrEmptyName))
			_, err = planner.UpdateTask(taskA, "", "")
			Expect(err).To(Equal(ErrEmptyName))
			Expect(store.Gpus()).To(HaveLen(1))
		})

		It("fails without a current scheme", func() {
			Expect(store.DeleteScheme(1)).To(Succeed())
			Expect(planner.SetAllocation(taskA, gpuId, 1)).To(Equal(ErrNoScheme))
		})
	})

	Context("parsing", func() {
		It("parses numbers", func() {
			v, err := ParseMemory(" 24.5 ")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(24.5))
		})

		It("rejects non numeric input", func() {
			for _, raw := range []string{"", "abc", "NaN", "Inf", "12GB"} {
				_, err := ParseMemory(raw)
				Expect(errors.Cause(err)).To(Equal(ErrNotNumeric), raw)
			}
		})
	})
})
