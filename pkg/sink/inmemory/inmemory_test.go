package inmemory_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/sink"
	"github.com/papercomputeco/arenatapes/pkg/sink/inmemory"
	testutils "github.com/papercomputeco/arenatapes/pkg/utils/test"
)

var _ sink.Store = (*inmemory.Store)(nil)

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		store *inmemory.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.NewStore()
	})

	It("stores and retrieves replays by match id", func() {
		replay := testutils.SampleReplay("m-1")
		Expect(store.WriteReplay(ctx, replay)).To(Succeed())

		got, err := store.GetReplay(ctx, "m-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(replay))
		Expect(got).NotTo(BeIdenticalTo(replay))
	})

	It("replaces a replay written twice", func() {
		first := testutils.SampleReplay("m-1")
		second := testutils.SampleReplay("m-1")
		second.EventID = "Play"

		Expect(store.WriteReplay(ctx, first)).To(Succeed())
		Expect(store.WriteReplay(ctx, second)).To(Succeed())

		all, err := store.ListReplays(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].EventID).To(Equal("Play"))
	})

	It("lists replays most recent first", func() {
		older := testutils.SampleReplay("older")
		newer := testutils.SampleReplay("newer")
		newer.CompletedAt = older.CompletedAt.Add(time.Hour)

		Expect(store.WriteReplay(ctx, older)).To(Succeed())
		Expect(store.WriteReplay(ctx, newer)).To(Succeed())

		all, err := store.ListReplays(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all[0].MatchID).To(Equal("newer"))
		Expect(all[1].MatchID).To(Equal("older"))
	})

	It("returns NotFoundError for unknown ids", func() {
		_, err := store.GetReplay(ctx, "missing")
		Expect(err).To(MatchError(sink.NotFoundError{ID: "missing"}))

		_, err = store.GetDraft(ctx, "missing")
		Expect(sink.IsNotFound(err)).To(BeTrue())
	})

	It("stores and lists drafts", func() {
		Expect(store.WriteDraft(ctx, testutils.SampleDraft("d-1"))).To(Succeed())
		Expect(store.WriteDraft(ctx, testutils.SampleDraft("d-2"))).To(Succeed())

		got, err := store.GetDraft(ctx, "d-2")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.PickedCards()).To(Equal([]int{2, 5}))

		all, err := store.ListDrafts(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(2))
		Expect(all[0].DraftID).To(Equal("d-1"))
	})

	It("rejects nil values", func() {
		Expect(store.WriteReplay(ctx, nil)).To(MatchError(arena.ErrNilReplay))
		Expect(store.WriteDraft(ctx, nil)).To(MatchError(arena.ErrNilDraft))
	})
})
