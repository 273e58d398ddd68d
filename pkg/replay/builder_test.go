package replay_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/protocol"
	"github.com/papercomputeco/arenatapes/pkg/replay"
	testutils "github.com/papercomputeco/arenatapes/pkg/utils/test"
)

var (
	alice = testutils.Seat{Name: "Alice", UserID: "U-ALICE", SeatID: 1, TeamID: 1, EventID: "Traditional_Ladder"}
	bob   = testutils.Seat{Name: "Bob", UserID: "U-BOB", SeatID: 2, TeamID: 2, EventID: "Traditional_Ladder"}
)

func classify(raw string) protocol.Event {
	ev, err := protocol.Classify(raw)
	Expect(err).NotTo(HaveOccurred())
	return ev
}

// feed ingests every raw object and returns the indexes that reported ready.
func feed(b *replay.Builder, raws ...string) []int {
	ready := []int{}
	for i, raw := range raws {
		if b.Ingest(classify(raw)) {
			ready = append(ready, i)
		}
	}
	return ready
}

func bestOfThree(matchID string) []string {
	players := []testutils.Player{{Seat: 1, Team: 1}, {Seat: 2, Team: 2}}
	mulliganed := []testutils.Player{{Seat: 1, Team: 1, MulliganCount: 1}, {Seat: 2, Team: 2}}

	return []string{
		testutils.RoomStatePlaying(matchID, alice, bob),
		testutils.SubmitDeck(1, []int{10, 10, 11, 12}, []int{90}),
		testutils.GameState{Seat: 1, MatchID: matchID, GameNumber: 1, ActivePlayer: 2, Players: players, Hand: []int{10, 10, 11, 12, 13, 14, 15}}.String(),
		testutils.MulliganReq(1),
		testutils.MulliganResp(1, false),
		testutils.GameState{Seat: 1, MatchID: matchID, GameNumber: 1, Players: mulliganed, Hand: []int{20, 21, 22, 23, 24, 25, 26}}.String(),
		testutils.MulliganReq(1),
		testutils.MulliganResp(1, true),
		testutils.GameState{Seat: 1, MatchID: matchID, GameNumber: 1, Objects: []testutils.Object{
			{InstanceID: 300, GrpID: 500, Owner: 2, ZoneID: 28, Public: true},
			{InstanceID: 301, GrpID: 600, Owner: 1, ZoneID: 28, Public: true},
			{InstanceID: 302, GrpID: 700, Owner: 2, ZoneID: 35},
		}}.String(),
		testutils.BusinessGame(matchID, 1, []int{501, 500}),
		testutils.SubmitDeck(1, []int{10, 11, 12, 90}, []int{10}),
		testutils.GameState{Seat: 1, MatchID: matchID, GameNumber: 2, ActivePlayer: 1, Players: players, Hand: []int{30, 31, 32, 33, 34, 35, 36}}.String(),
		testutils.MulliganReq(1),
		testutils.MulliganResp(1, true),
		testutils.MatchCompleted(matchID,
			testutils.GameResult(1), testutils.GameResult(2), testutils.GameResult(1), testutils.MatchResult(1)),
	}
}

var _ = Describe("Builder", func() {
	var b *replay.Builder

	BeforeEach(func() {
		b = replay.New()
	})

	Context("with a complete best of three match", func() {
		var built *arena.MatchReplay

		BeforeEach(func() {
			raws := bestOfThree("m-1")
			Expect(feed(b, raws...)).To(Equal([]int{len(raws) - 1}))

			var err error
			built, err = b.Build()
			Expect(err).NotTo(HaveOccurred())
		})

		It("captures identities from the controller seat", func() {
			Expect(built.MatchID).To(Equal("m-1"))
			Expect(built.EventID).To(Equal("Traditional_Ladder"))
			Expect(built.Player).To(Equal(arena.PlayerIdentity{Name: "Alice", UserID: "U-ALICE", SeatID: 1, TeamID: 1}))
			Expect(built.Opponent.Name).To(Equal("Bob"))
			Expect(built.Opponent.SeatID).To(Equal(2))
		})

		It("keeps one decklist per submission in order", func() {
			Expect(built.Decklists).To(HaveLen(2))
			Expect(built.Decklists[0].GameNumber).To(Equal(1))
			Expect(built.Decklists[0].MainDeck).To(Equal([]int{10, 10, 11, 12}))
			Expect(built.Decklists[1].GameNumber).To(Equal(2))
			Expect(built.Decklists[1].Sideboard).To(Equal([]int{10}))
			Expect(built.Decklists[0].SubmittedAt.IsZero()).To(BeFalse())
		})

		It("records every mulligan prompt with its decision", func() {
			Expect(built.Mulligans).To(HaveLen(3))

			first := built.Mulligans[0]
			Expect(first.GameNumber).To(Equal(1))
			Expect(first.Hand).To(Equal([]int{10, 10, 11, 12, 13, 14, 15}))
			Expect(first.KeepCount).To(Equal(7))
			Expect(first.OnPlay).To(BeFalse())
			Expect(first.OpponentHint).To(Equal("Bob"))
			Expect(first.Decision).To(Equal(arena.DecisionMulligan))

			second := built.Mulligans[1]
			Expect(second.KeepCount).To(Equal(6))
			Expect(second.Hand).To(Equal([]int{20, 21, 22, 23, 24, 25, 26}))
			Expect(second.Decision).To(Equal(arena.DecisionAccept))

			third := built.Mulligans[2]
			Expect(third.GameNumber).To(Equal(2))
			Expect(third.OnPlay).To(BeTrue())
			Expect(third.Decision).To(Equal(arena.DecisionAccept))
		})

		It("numbers game results in arrival order and the match result as 0", func() {
			Expect(built.Results).To(HaveLen(4))
			for i, res := range built.Results[:3] {
				Expect(res.Scope).To(Equal(arena.ScopeGame))
				Expect(res.GameNumber).To(Equal(i + 1))
			}
			Expect(built.Results[3].Scope).To(Equal(arena.ScopeMatch))
			Expect(built.Results[3].GameNumber).To(Equal(0))

			Expect(built.GamesWon()).To(Equal(2))
			won, ok := built.MatchWon()
			Expect(ok).To(BeTrue())
			Expect(won).To(BeTrue())
		})

		It("collects publicly revealed and reported opponent cards once each", func() {
			Expect(built.OpponentCards).To(Equal([]int{500, 501}))
		})

		It("stamps the match boundaries", func() {
			Expect(built.StartedAt).To(Equal(time.UnixMilli(1707235200000).UTC()))
			Expect(built.CompletedAt).To(Equal(time.UnixMilli(1707235200000).UTC()))
		})

		It("leaves the builder indistinguishable from a fresh one", func() {
			Expect(b.InFlight()).To(BeFalse())

			fresh := replay.New()
			raws := bestOfThree("m-2")
			Expect(feed(b, raws...)).To(Equal(feed(fresh, raws...)))

			reused, err := b.Build()
			Expect(err).NotTo(HaveOccurred())
			expected, err := fresh.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(reused).To(Equal(expected))
		})
	})

	DescribeTable("emits exactly N mulligans and K results",
		func(mulligans, games int) {
			raws := []string{
				testutils.RoomStatePlaying("m-n", alice, bob),
				testutils.SubmitDeckStringPayload(1, []int{1, 2, 3}, nil),
			}
			for range mulligans {
				raws = append(raws, testutils.MulliganReq(1), testutils.MulliganResp(1, false))
			}
			results := []testutils.Result{}
			for range games {
				results = append(results, testutils.GameResult(2))
			}
			results = append(results, testutils.MatchResult(2))
			raws = append(raws, testutils.MatchCompleted("m-n", results...))

			Expect(feed(b, raws...)).To(Equal([]int{len(raws) - 1}))
			built, err := b.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(built.Mulligans).To(HaveLen(mulligans))
			Expect(built.Results).To(HaveLen(games + 1))
			for i := range games {
				Expect(built.Results[i].GameNumber).To(Equal(i + 1))
				Expect(built.Results[i].Won).To(BeFalse())
			}
			Expect(built.Results[games].GameNumber).To(Equal(0))
		},
		Entry("no mulligans, one game", 0, 1),
		Entry("two mulligans, two games", 2, 2),
		Entry("five mulligans, three games", 5, 3),
	)

	It("fails to build without a controller seat and still resets", func() {
		Expect(b.Ingest(classify(testutils.RoomStatePlaying("m-x", alice, bob)))).To(BeFalse())
		Expect(b.Ingest(classify(testutils.MatchCompleted("m-x", testutils.MatchResult(1))))).To(BeTrue())

		_, err := b.Build()
		Expect(errors.Is(err, arena.ErrInsufficientData)).To(BeTrue())
		Expect(b.InFlight()).To(BeFalse())
	})

	It("fails to build without a player name for the controller seat", func() {
		feed(b,
			testutils.SubmitDeck(1, []int{1}, nil),
			testutils.MatchCompleted("m-y", testutils.MatchResult(1)),
		)

		_, err := b.Build()
		Expect(err).To(MatchError(arena.ErrInsufficientData))
	})

	It("ignores mulligan prompts for the other seat", func() {
		feed(b,
			testutils.RoomStatePlaying("m-z", alice, bob),
			testutils.SubmitDeck(1, []int{1}, nil),
			testutils.MulliganReq(2),
			testutils.MatchCompleted("m-z", testutils.MatchResult(1)),
		)

		built, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(built.Mulligans).To(BeEmpty())
	})

	It("abandons a match superseded by another before completing", func() {
		feed(b,
			testutils.RoomStatePlaying("stale", alice, bob),
			testutils.SubmitDeck(1, []int{1}, nil),
			testutils.RoomStatePlaying("fresh", alice, bob),
			testutils.SubmitDeck(1, []int{2}, nil),
			testutils.MatchCompleted("fresh", testutils.GameResult(1), testutils.MatchResult(1)),
		)
		Expect(b.Abandoned()).To(Equal(1))

		built, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(built.MatchID).To(Equal("fresh"))
		Expect(built.Decklists).To(HaveLen(1))
		Expect(built.Decklists[0].MainDeck).To(Equal([]int{2}))
	})

	It("sorts opponent cards regardless of arrival order", func() {
		raws := []string{
			testutils.RoomStatePlaying("m-9", alice, bob),
			testutils.SubmitDeck(1, []int{10, 11}, nil),
			testutils.GameState{Seat: 1, MatchID: "m-9", GameNumber: 1, Objects: []testutils.Object{
				{InstanceID: 400, GrpID: 700, Owner: 2, ZoneID: 28, Public: true},
			}}.String(),
			testutils.BusinessGame("m-9", 1, []int{900, 100, 500, 700}),
			testutils.MatchCompleted("m-9", testutils.GameResult(2), testutils.MatchResult(2)),
		}
		Expect(feed(b, raws...)).To(Equal([]int{len(raws) - 1}))

		built, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(built.OpponentCards).To(Equal([]int{100, 500, 700, 900}))
	})

	It("ignores draft events", func() {
		Expect(b.Ingest(classify(testutils.DraftPack("d", "QuickDraft_MKM_20240206", 1, 1, []int{1}, 1)))).To(BeFalse())
		Expect(b.InFlight()).To(BeFalse())
	})

	Describe("IsTerminal", func() {
		It("is true only for room states with a final result", func() {
			Expect(replay.IsTerminal(classify(testutils.MatchCompleted("m", testutils.MatchResult(1))))).To(BeTrue())
			Expect(replay.IsTerminal(classify(testutils.RoomStatePlaying("m", alice, bob)))).To(BeFalse())
			Expect(replay.IsTerminal(classify(testutils.MulliganReq(1)))).To(BeFalse())
			Expect(replay.IsTerminal(protocol.NotAnEvent)).To(BeFalse())
		})

		It("does not touch builder state", func() {
			ev := classify(testutils.MatchCompleted("m", testutils.MatchResult(1)))
			Expect(replay.IsTerminal(ev)).To(BeTrue())
			Expect(b.InFlight()).To(BeFalse())
		})
	})
})
