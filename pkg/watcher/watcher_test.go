package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AccessibleAI/gpu-memory-planner/pkg/allocation"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	log "github.com/sirupsen/logrus"
)

func TestWatcher(t *testing.T) {
	log.SetLevel(log.PanicLevel)
	RegisterFailHandler(Fail)
	RunSpecs(t, "Watcher Suite")
}

var _ = Describe("data file watcher", func() {
	var (
		dir  string
		path string
		fw   *FileWatcher
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "mgplan-watch")
		Expect(err).NotTo(HaveOccurred())
		path = filepath.Join(dir, allocation.DefaultDataFile)
		allocation.NewStore(path)
		fw, err = NewFileWatcher(path)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(fw.Close()).To(Succeed())
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("signals when the store saves", func() {
		store := allocation.NewStore(path)
		_, err := store.AddGpu("g", 8)
		Expect(err).NotTo(HaveOccurred())
		Eventually(fw.Changed, 5*time.Second).Should(Receive())
	})

	It("keeps a truncated file untouched when reloading", func() {
		Expect(os.WriteFile(path, []byte(`{"sch`), 0644)).To(Succeed())
		Eventually(fw.Changed, 5*time.Second).Should(Receive())
		_, err := allocation.ReadStore(path)
		Expect(err).To(HaveOccurred())
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"sch`))
	})

	It("ignores other files in the directory", func() {
		Expect(os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644)).To(Succeed())
		Consistently(fw.Changed, 500*time.Millisecond).ShouldNot(Receive())
	})
})
