package clusterlenscmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	clusterlenscmder "github.com/clusterlens/clusterlens/cmd/clusterlens"
)

var _ = Describe("NewClusterlensCmd", func() {
	It("registers every subcommand", func() {
		cmd := clusterlenscmder.NewClusterlensCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("init", "config", "index", "predict", "serve", "feedback", "version"))
	})

	It("has the global flags", func() {
		cmd := clusterlenscmder.NewClusterlensCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().ShorthandLookup("d")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("gives serve and predict the shared classifier flags", func() {
		cmd := clusterlenscmder.NewClusterlensCmd()
		for _, name := range []string{"serve", "predict"} {
			sub, _, err := cmd.Find([]string{name})
			Expect(err).NotTo(HaveOccurred())
			for _, flag := range []string{"snapshot", "labels", "catalog", "k", "min-words", "search-mode", "embedding-provider"} {
				Expect(sub.Flags().Lookup(flag)).NotTo(BeNil(), "%s --%s", name, flag)
			}
		}
	})

	It("prints the version", func() {
		cmd := clusterlenscmder.NewClusterlensCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version"})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Version: dev"))
	})
})
