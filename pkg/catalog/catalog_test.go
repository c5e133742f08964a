package catalog_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clusterlens/clusterlens/pkg/catalog"
)

var _ = Describe("Catalog", func() {
	Describe("Default", func() {
		It("annotates the three original clusters", func() {
			c := catalog.Default()
			Expect(c.Labels()).To(Equal([]string{"0", "13", "3"}))
			Expect(c.Lookup("3")).To(HavePrefix("Somatic Anxiety"))
			Expect(c.Has("13")).To(BeTrue())
		})

		It("falls back for unannotated labels", func() {
			c := catalog.Default()
			Expect(c.Has("7")).To(BeFalse())
			Expect(c.Lookup("7")).To(Equal(catalog.DefaultResponse))
		})
	})

	Describe("Load", func() {
		var tmpDir string

		BeforeEach(func() {
			var err error
			tmpDir, err = os.MkdirTemp("", "catalog-test-*")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tmpDir)
		})

		It("returns the built-in catalog for an empty path", func() {
			c, err := catalog.Load("")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Has("0")).To(BeTrue())
		})

		It("reads responses from a TOML file", func() {
			path := filepath.Join(tmpDir, "catalog.toml")
			content := "version = 0\n\n[responses]\nA = \"alpha\"\n"
			Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())

			c, err := catalog.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Lookup("A")).To(Equal("alpha"))
			Expect(c.Lookup("13")).To(Equal(catalog.DefaultResponse))
		})

		It("rejects an unknown version", func() {
			path := filepath.Join(tmpDir, "catalog.toml")
			Expect(os.WriteFile(path, []byte("version = 9\n"), 0o600)).To(Succeed())

			_, err := catalog.Load(path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported catalog version 9"))
		})

		It("fails on a missing file", func() {
			_, err := catalog.Load(filepath.Join(tmpDir, "missing.toml"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("New", func() {
		It("copies the given mapping", func() {
			src := map[string]string{"A": "alpha"}
			c := catalog.New(src)
			src["A"] = "changed"
			Expect(c.Lookup("A")).To(Equal("alpha"))
		})
	})
})
