package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clusterlens/clusterlens/pkg/dotdir"
)

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Target", func() {
		It("creates the directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns existing directory without error", func() {
			result, err := m.Target(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(tmpDir))
		})

		It("returns the override dir even when a local .clusterlens dir exists", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".clusterlens"), 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .clusterlens dir when it exists and no override is provided", func() {
			local := filepath.Join(tmpDir, ".clusterlens")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("falls back to and creates ~/.clusterlens", func() {
			work := filepath.Join(tmpDir, "work")
			Expect(os.Mkdir(work, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(work)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			GinkgoT().Setenv("HOME", tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, ".clusterlens")))
			Expect(filepath.Join(tmpDir, ".clusterlens")).To(BeADirectory())
		})
	})

	Describe("Paths", func() {
		It("places reference artifacts under reference/", func() {
			p, err := m.Paths(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Root).To(Equal(tmpDir))
			Expect(p.Snapshot).To(Equal(filepath.Join(tmpDir, "reference", "snapshot.db")))
			Expect(p.Labels).To(Equal(filepath.Join(tmpDir, "reference", "labels.json")))
			Expect(p.Feedback).To(Equal(filepath.Join(tmpDir, "feedback.jsonl")))
			Expect(filepath.Join(tmpDir, "reference")).To(BeADirectory())
		})
	})

	Describe("Or", func() {
		It("prefers the configured value", func() {
			Expect(dotdir.Or("/etc/snap.db", "/default")).To(Equal("/etc/snap.db"))
			Expect(dotdir.Or("", "/default")).To(Equal("/default"))
		})
	})
})
