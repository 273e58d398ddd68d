package sinkset_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arenatapes/cmd/arenatapes/sinkset"
	"github.com/papercomputeco/arenatapes/pkg/config"
	"github.com/papercomputeco/arenatapes/pkg/diagnostics"
	"github.com/papercomputeco/arenatapes/pkg/eventstream/kafka"
	"github.com/papercomputeco/arenatapes/pkg/eventstream/nop"
	"github.com/papercomputeco/arenatapes/pkg/sink/inmemory"
	testutils "github.com/papercomputeco/arenatapes/pkg/utils/test"
)

var _ = Describe("Build", func() {
	var (
		ctx context.Context
		cfg *config.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = config.NewDefaultConfig()
	})

	It("always registers the memory store and the stream", func() {
		set, err := sinkset.Build(ctx, cfg, inmemory.NewStore(), nil, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(set.Close)

		Expect(set.Names()).To(Equal([]string{sinkset.NameMemory, sinkset.NameStream}))
	})

	It("registers file backed sinks that are configured", func() {
		dir := GinkgoT().TempDir()
		cfg.Sinks.JSONDir = filepath.Join(dir, "json")
		cfg.Sinks.SQLitePath = filepath.Join(dir, "arenatapes.db")

		set, err := sinkset.Build(ctx, cfg, inmemory.NewStore(), nil, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(set.Close)

		Expect(set.Names()).To(Equal([]string{
			sinkset.NameMemory, sinkset.NameJSON, sinkset.NameSQLite, sinkset.NameStream,
		}))
	})

	It("delivers a replay to every registered sink", func() {
		dir := GinkgoT().TempDir()
		cfg.Sinks.JSONDir = dir
		memory := inmemory.NewStore()

		set, err := sinkset.Build(ctx, cfg, memory, nil, diagnostics.NewStats())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(set.Close)

		Expect(set.DeliverReplay(ctx, testutils.SampleReplay("m-1"))).To(Succeed())

		stored, err := memory.GetReplay(ctx, "m-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Opponent.Name).To(Equal("Bob"))

		Expect(filepath.Join(dir, "replays", "m-1.json")).To(BeAnExistingFile())
	})

	It("registers the rpc client without dialing", func() {
		cfg.Sinks.RPCTarget = "passthrough:///127.0.0.1:1"

		set, err := sinkset.Build(ctx, cfg, nil, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(set.Close)

		Expect(set.Names()).To(ContainElement(sinkset.NameRPC))
		Expect(set.Names()).NotTo(ContainElement(sinkset.NameMemory))
	})

	It("fails on an unknown stream provider", func() {
		cfg.Stream.Provider = "carrier-pigeon"

		_, err := sinkset.Build(ctx, cfg, inmemory.NewStore(), nil, nil)
		Expect(err).To(MatchError(ContainSubstring("carrier-pigeon")))
	})

	It("wraps sink setup failures with the sink name", func() {
		blocker := filepath.Join(GinkgoT().TempDir(), "file")
		Expect(os.WriteFile(blocker, nil, 0o644)).To(Succeed())
		cfg.Sinks.JSONDir = filepath.Join(blocker, "json")

		_, err := sinkset.Build(ctx, cfg, inmemory.NewStore(), nil, nil)
		Expect(err).To(MatchError(ContainSubstring("creating json sink")))
	})
})

var _ = Describe("NewPublisher", func() {
	It("drops events when no provider is set", func() {
		for _, provider := range []string{"", config.StreamNone} {
			p, err := sinkset.NewPublisher(context.Background(), config.StreamConfig{Provider: provider})
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeAssignableToTypeOf(&nop.Publisher{}))
		}
	})

	It("creates a kafka writer without connecting", func() {
		p, err := sinkset.NewPublisher(context.Background(), config.StreamConfig{
			Provider: config.StreamKafka,
			Target:   "127.0.0.1:9092, 127.0.0.1:9093",
			Topic:    "arenatapes",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&kafka.Publisher{}))
		Expect(p.Close()).To(Succeed())
	})

	It("requires a target for kafka", func() {
		_, err := sinkset.NewPublisher(context.Background(), config.StreamConfig{
			Provider: config.StreamKafka,
			Topic:    "arenatapes",
		})
		Expect(err).To(HaveOccurred())
	})
})
