package nats_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arenatapes/pkg/eventstream"
	"github.com/papercomputeco/arenatapes/pkg/eventstream/nats"
	testutils "github.com/papercomputeco/arenatapes/pkg/utils/test"
)

func startServer() *server.Server {
	ns, err := server.NewServer(&server.Options{
		Port:      -1,
		JetStream: true,
		NoSigs:    true,
		NoLog:     true,
		StoreDir:  GinkgoT().TempDir(),
	})
	Expect(err).NotTo(HaveOccurred())

	go ns.Start()
	Expect(ns.ReadyForConnections(10 * time.Second)).To(BeTrue())
	DeferCleanup(ns.Shutdown)
	return ns
}

var _ = Describe("Subject", func() {
	It("routes by event type", func() {
		replay := eventstream.NewReplayEvent(testutils.SampleReplay("m"), time.Now())
		draft := eventstream.NewDraftEvent(testutils.SampleDraft("d"), time.Now())
		Expect(nats.Subject("arena", replay)).To(Equal("arena.match"))
		Expect(nats.Subject("arena", draft)).To(Equal("arena.draft"))
	})
})

var _ = Describe("Publisher", func() {
	It("requires a url", func() {
		_, err := nats.NewPublisher(nats.Config{})
		Expect(err).To(MatchError(ContainSubstring("url")))
	})

	Context("with an embedded server", func() {
		var (
			ns  *server.Server
			pub *nats.Publisher
		)

		BeforeEach(func() {
			ns = startServer()
			var err error
			pub, err = nats.NewPublisher(nats.Config{URL: ns.ClientURL()})
			Expect(err).NotTo(HaveOccurred())
		})

		It("creates the stream and stores published events", func() {
			ctx := context.Background()
			Expect(pub.Publish(ctx, eventstream.NewReplayEvent(testutils.SampleReplay("m1"), time.Now()))).To(Succeed())
			Expect(pub.Publish(ctx, eventstream.NewDraftEvent(testutils.SampleDraft("d1"), time.Now()))).To(Succeed())
			Expect(pub.Close()).To(Succeed())

			nc, err := natsgo.Connect(ns.ClientURL())
			Expect(err).NotTo(HaveOccurred())
			defer nc.Close()
			js, err := nc.JetStream()
			Expect(err).NotTo(HaveOccurred())

			info, err := js.StreamInfo(nats.DefaultStreamName)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.State.Msgs).To(Equal(uint64(2)))

			msg, err := js.GetMsg(nats.DefaultStreamName, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg.Subject).To(Equal("arenatapes.draft"))

			var event eventstream.Event
			Expect(json.Unmarshal(msg.Data, &event)).To(Succeed())
			Expect(event.Draft.DraftID).To(Equal("d1"))
		})

		It("deduplicates by event id", func() {
			ctx := context.Background()
			event := eventstream.NewReplayEvent(testutils.SampleReplay("m1"), time.Now())
			Expect(pub.Publish(ctx, event)).To(Succeed())
			Expect(pub.Publish(ctx, event)).To(Succeed())
			defer pub.Close()

			nc, err := natsgo.Connect(ns.ClientURL())
			Expect(err).NotTo(HaveOccurred())
			defer nc.Close()
			js, err := nc.JetStream()
			Expect(err).NotTo(HaveOccurred())

			info, err := js.StreamInfo(nats.DefaultStreamName)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.State.Msgs).To(Equal(uint64(1)))
		})

		It("reuses an existing stream", func() {
			other, err := nats.NewPublisher(nats.Config{URL: ns.ClientURL()})
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Close()).To(Succeed())
			Expect(pub.Close()).To(Succeed())
		})
	})
})
