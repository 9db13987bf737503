package allocation

import (
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Loading", func() {
	var (
		dir  string
		path string
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "mgplan-migrate")
		Expect(err).NotTo(HaveOccurred())
		path = filepath.Join(dir, DefaultDataFile)
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	writeFile := func(content string) {
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
	}

	readRaw := func() map[string]json.RawMessage {
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		raw := map[string]json.RawMessage{}
		Expect(json.Unmarshal(data, &raw)).To(Succeed())
		return raw
	}

	Context("pre-scheme layout", func() {
		It("moves top-level lists into one scheme", func() {
			writeFile(`{"gpus":[{"id":1,"name":"A","total_memory":24}],"tasks":[],"allocations":[]}`)
			store := NewStore(path)
			schemes := store.Schemes()
			Expect(schemes).To(HaveLen(1))
			Expect(schemes[0].Gpus).To(Equal([]Gpu{{Id: 1, Name: "A", TotalMemory: 24}}))
			Expect(store.Gpus()).To(HaveLen(1))
		})

		It("keeps tasks and allocations", func() {
			writeFile(`{"gpus":[{"id":1,"name":"A","total_memory":24}],
				"tasks":[{"id":3,"name":"bert","description":"nlp"}],
				"allocations":[{"task_id":3,"gpu_id":1,"memory_usage":12}]}`)
			store := NewStore(path)
			Expect(store.Tasks()).To(Equal([]Task{{Id: 3, Name: "bert", Description: "nlp"}}))
			Expect(store.Allocations()).To(Equal([]Allocation{{TaskId: 3, GpuId: 1, MemoryUsage: 12}}))
		})

		It("rewrites the file in the scheme layout", func() {
			writeFile(`{"gpus":[],"tasks":[],"allocations":[]}`)
			NewStore(path)
			raw := readRaw()
			Expect(raw).To(HaveKey("schemes"))
			Expect(raw).To(HaveKey("current_scheme_id"))
			Expect(raw).NotTo(HaveKey("gpus"))
		})
	})

	Context("shared gpus layout", func() {
		It("copies shared gpus into schemes without their own", func() {
			writeFile(`{"schemes":[{"id":1,"name":"S","gpus":[],"tasks":[],"allocations":[]}],
				"gpus":[{"id":5,"name":"X","total_memory":8}]}`)
			store := NewStore(path)
			Expect(store.Scheme(1).Gpus).To(Equal([]Gpu{{Id: 5, Name: "X", TotalMemory: 8}}))
			Expect(readRaw()).NotTo(HaveKey("gpus"))
		})

		It("leaves schemes with their own gpus alone", func() {
			writeFile(`{"schemes":[
					{"id":1,"name":"S1","gpus":[{"id":1,"name":"own","total_memory":16}],"tasks":[],"allocations":[]},
					{"id":2,"name":"S2","tasks":[],"allocations":[]}],
				"current_scheme_id":2,
				"gpus":[{"id":5,"name":"X","total_memory":8}]}`)
			store := NewStore(path)
			Expect(store.Scheme(1).Gpus).To(Equal([]Gpu{{Id: 1, Name: "own", TotalMemory: 16}}))
			Expect(store.Scheme(2).Gpus).To(Equal([]Gpu{{Id: 5, Name: "X", TotalMemory: 8}}))
			current, _ := store.CurrentSchemeId()
			Expect(current).To(Equal(2))
		})
	})

	Context("normalization", func() {
		It("initializes missing lists", func() {
			writeFile(`{"schemes":[{"id":4,"name":"bare"}],"current_scheme_id":4}`)
			sc := NewStore(path).Scheme(4)
			Expect(sc.Gpus).NotTo(BeNil())
			Expect(sc.Tasks).NotTo(BeNil())
			Expect(sc.Allocations).NotTo(BeNil())
		})

		It("collapses duplicate allocations and drops zero ones", func() {
			writeFile(`{"schemes":[{"id":1,"name":"S","gpus":[],"tasks":[],"allocations":[
				{"task_id":1,"gpu_id":1,"memory_usage":2},
				{"task_id":2,"gpu_id":1,"memory_usage":0},
				{"task_id":1,"gpu_id":1,"memory_usage":5}]}],"current_scheme_id":1}`)
			Expect(NewStore(path).Allocations()).To(Equal([]Allocation{{TaskId: 1, GpuId: 1, MemoryUsage: 5}}))
		})

		It("selects the first scheme when none is current", func() {
			writeFile(`{"schemes":[{"id":3,"name":"a"},{"id":8,"name":"b"}],"current_scheme_id":null}`)
			current, ok := NewStore(path).CurrentSchemeId()
			Expect(ok).To(BeTrue())
			Expect(current).To(Equal(3))
		})

		It("selects the first scheme when the current one is missing", func() {
			writeFile(`{"schemes":[{"id":3,"name":"a"}],"current_scheme_id":12}`)
			current, _ := NewStore(path).CurrentSchemeId()
			Expect(current).To(Equal(3))
		})

		It("creates the default scheme for an empty scheme list", func() {
			writeFile(`{"schemes":[],"current_scheme_id":null}`)
			schemes := NewStore(path).Schemes()
			Expect(schemes).To(HaveLen(1))
			Expect(schemes[0].Id).To(Equal(1))
			Expect(schemes[0].Name).To(Equal(DefaultSchemeName))
		})
	})

	Context("unreadable content", func() {
		It("falls back to a fresh default scheme", func() {
			writeFile(`{not json`)
			store := NewStore(path)
			Expect(store.Schemes()).To(HaveLen(1))
			Expect(store.Gpus()).To(BeEmpty())
		})

		It("falls back when entity fields have the wrong type", func() {
			writeFile(`{"schemes":[{"id":"one","name":"S"}]}`)
			store := NewStore(path)
			Expect(store.Schemes()).To(HaveLen(1))
			Expect(store.Schemes()[0].Name).To(Equal(DefaultSchemeName))
		})
	})

	Context("read-only loading", func() {
		It("reports malformed content and leaves the file alone", func() {
			writeFile(`{"schemes": [`)
			_, err := ReadStore(path)
			Expect(err).To(HaveOccurred())
			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(`{"schemes": [`))
		})

		It("reports a missing file without creating it", func() {
			_, err := ReadStore(path)
			Expect(err).To(HaveOccurred())
			_, err = os.Stat(path)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("upgrades legacy layouts in memory only", func() {
			legacy := `{"gpus":[{"id":1,"name":"A100","total_memory":80}],"tasks":[],"allocations":[]}`
			writeFile(legacy)
			store, err := ReadStore(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Gpus()).To(HaveLen(1))
			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(legacy))
		})

		It("selects the first scheme without saving", func() {
			content := `{"schemes":[{"id":4,"name":"a","gpus":[],"tasks":[],"allocations":[]}]}`
			writeFile(content)
			store, err := ReadStore(path)
			Expect(err).NotTo(HaveOccurred())
			id, ok := store.CurrentSchemeId()
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal(4))
			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(content))
		})
	})

	Context("file format", func() {
		It("writes indented utf-8 without escaping", func() {
			NewStore(path)
			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("\n  \"schemes\": ["))
			Expect(string(data)).To(ContainSubstring(DefaultSchemeName))
		})
	})
})
