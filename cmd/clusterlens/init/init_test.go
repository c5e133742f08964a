package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/clusterlens/clusterlens/cmd/clusterlens/init"
	"github.com/clusterlens/clusterlens/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).NotTo(Succeed())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	execute := func(args ...string) (string, error) {
		cmd := initcmder.NewInitCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	readConfig := func() *config.Config {
		data, err := os.ReadFile(filepath.Join(tmpDir, ".clusterlens", "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		cfg := &config.Config{}
		Expect(toml.Unmarshal(data, cfg)).To(Succeed())
		return cfg
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "clusterlens-init-test-*")
		Expect(err).NotTo(HaveOccurred())
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates .clusterlens with a reference directory", func() {
		_, err := execute()
		Expect(err).NotTo(HaveOccurred())

		Expect(filepath.Join(tmpDir, ".clusterlens")).To(BeADirectory())
		Expect(filepath.Join(tmpDir, ".clusterlens", "reference")).To(BeADirectory())
	})

	It("writes a config.toml with default values", func() {
		_, err := execute()
		Expect(err).NotTo(HaveOccurred())

		cfg := readConfig()
		Expect(cfg.Classifier.K).To(Equal(uint(6)))
		Expect(cfg.Classifier.MinWords).To(Equal(uint(50)))
		Expect(cfg.Embedding.Provider).To(Equal("ollama"))
	})

	It("applies the gemini preset", func() {
		_, err := execute("--preset", "gemini")
		Expect(err).NotTo(HaveOccurred())

		cfg := readConfig()
		Expect(cfg.Embedding.Provider).To(Equal("genai"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
	})

	It("rejects an unknown preset", func() {
		_, err := execute("--preset", "nope")
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))
	})

	It("leaves an existing config alone without --force", func() {
		_, err := execute("--preset", "gemini")
		Expect(err).NotTo(HaveOccurred())

		out, err := execute()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Already initialized"))
		Expect(readConfig().Embedding.Provider).To(Equal("genai"))

		_, err = execute("--force")
		Expect(err).NotTo(HaveOccurred())
		Expect(readConfig().Embedding.Provider).To(Equal("ollama"))
	})
})
