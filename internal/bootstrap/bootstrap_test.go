package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"retailassist.app/relay/core/config"
	"retailassist.app/relay/internal/bootstrap"
	"retailassist.app/relay/internal/meta"
	"retailassist.app/relay/internal/responder"
)

var _ = Describe("Build", func() {
	ctx := context.Background()

	It("wires the seeded memory store and mocks in mock mode", func() {
		c, err := bootstrap.Build(ctx, config.Config{MockMode: true})
		Expect(err).NotTo(HaveOccurred())
		defer c.Close()

		Expect(c.Memory).NotTo(BeNil())
		Expect(c.Generator).To(BeAssignableToTypeOf(responder.MockGenerator{}))
		Expect(c.Sender).To(BeAssignableToTypeOf(&meta.MockSender{}))

		ws, err := c.Stores.Workspaces().GetByPageID(ctx, "100000000000001")
		Expect(err).NotTo(HaveOccurred())
		Expect(ws.Name).To(Equal("Demo Boutique"))
	})

	It("fails on a malformed seed file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "seed.yaml")
		Expect(os.WriteFile(path, []byte("workspaces: [oops"), 0o600)).To(Succeed())

		_, err := bootstrap.Build(ctx, config.Config{MockMode: true, MockSeedFile: path})
		Expect(err).To(MatchError(ContainSubstring("loading mock seed")))
	})

	It("carries the dedupe and token settings into the pipeline", func() {
		cfg := config.Config{Meta: config.MetaConfig{PageAccessToken: "tok", DedupeDeliveries: true}}
		ac := bootstrap.AutomationConfig(cfg)
		Expect(ac.PageAccessToken).To(Equal("tok"))
		Expect(ac.DedupeDeliveries).To(BeTrue())
	})
})
