package protocol_test

import (
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arenatapes/pkg/protocol"
	"github.com/papercomputeco/arenatapes/pkg/tokenizer"
	testutils "github.com/papercomputeco/arenatapes/pkg/utils/test"
)

var _ = Describe("Classify", func() {
	Describe("Routes", func() {
		It("evaluates client, room state, then game engine markers", func() {
			routes := protocol.Routes()
			Expect(routes).To(HaveLen(3))
			Expect(routes[0].Kind).To(Equal(protocol.KindClient))
			Expect(routes[1].Kind).To(Equal(protocol.KindRoomState))
			Expect(routes[2].Kind).To(Equal(protocol.KindGre))
		})

		It("returns a copy", func() {
			routes := protocol.Routes()
			routes[0].Marker = "mutated"
			Expect(protocol.Routes()[0].Marker).To(Equal(protocol.MarkerClient))
		})
	})

	Describe("client messages", func() {
		It("decodes a deck submission with an object payload", func() {
			ev, err := protocol.Classify(testutils.SubmitDeck(1, []int{10, 11, 11}, []int{20}))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Kind).To(Equal(protocol.KindClient))

			deck, ok := ev.Client.DeckSubmission()
			Expect(ok).To(BeTrue())
			Expect(deck.DeckCards).To(Equal([]int{10, 11, 11}))
			Expect(deck.SideboardCards).To(Equal([]int{20}))
			Expect(ev.Client.Payload.SystemSeatID).To(Equal(1))
		})

		It("decodes a payload encoded as a JSON string", func() {
			ev, err := protocol.Classify(testutils.SubmitDeckStringPayload(2, []int{5}, nil))
			Expect(err).NotTo(HaveOccurred())

			deck, ok := ev.Client.DeckSubmission()
			Expect(ok).To(BeTrue())
			Expect(deck.DeckCards).To(Equal([]int{5}))
			Expect(ev.Client.Payload.SystemSeatID).To(Equal(2))
		})

		It("decodes mulligan decisions", func() {
			ev, err := protocol.Classify(testutils.MulliganResp(1, true))
			Expect(err).NotTo(HaveOccurred())

			decision, ok := ev.Client.MulliganDecision()
			Expect(ok).To(BeTrue())
			Expect(decision).To(Equal(protocol.MulliganOptionAcceptHand))

			_, ok = ev.Client.DeckSubmission()
			Expect(ok).To(BeFalse())
		})

		It("tolerates a missing payload", func() {
			ev, err := protocol.Classify(`{"clientToMatchServiceMessageType":"ClientToMatchServiceMessageType_AuthenticateRequest","requestId":1}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Kind).To(Equal(protocol.KindClient))
			Expect(ev.Client.Payload).To(BeNil())
		})

		It("wins over an embedded game engine marker", func() {
			raw := `{"clientToMatchServiceMessageType":"x","payload":{"type":"ClientMessageType_Concede"},"note":{"greToClientEvent":{}}}`
			ev, err := protocol.Classify(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Kind).To(Equal(protocol.KindClient))
		})

		It("reports a decode error when the payload is malformed", func() {
			_, err := protocol.Classify(`{"clientToMatchServiceMessageType":"x","payload":"{not json"}`)
			Expect(err).To(HaveOccurred())

			var decodeErr *protocol.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
			Expect(decodeErr.Kind).To(Equal(protocol.KindClient))
		})
	})

	Describe("room state messages", func() {
		It("decodes the playing state with reserved players", func() {
			ev, err := protocol.Classify(testutils.RoomStatePlaying("m-1",
				testutils.Seat{Name: "Alice", UserID: "U1", SeatID: 1, TeamID: 1, EventID: "Ladder"},
				testutils.Seat{Name: "Bob", UserID: "U2", SeatID: 2, TeamID: 2, EventID: "Ladder"},
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Kind).To(Equal(protocol.KindRoomState))
			Expect(ev.RoomState.IsPlaying()).To(BeTrue())
			Expect(ev.RoomState.MatchID()).To(Equal("m-1"))

			players := ev.RoomState.Info().GameRoomConfig.ReservedPlayers
			Expect(players).To(HaveLen(2))
			Expect(players[1].PlayerName).To(Equal("Bob"))
			Expect(players[1].SystemSeatID).To(Equal(2))
			Expect(ev.RoomState.Timestamp.Time).To(Equal(time.UnixMilli(1707235200000).UTC()))
		})

		It("decodes final match results", func() {
			ev, err := protocol.Classify(testutils.MatchCompleted("m-2",
				testutils.GameResult(1), testutils.GameResult(2), testutils.GameResult(1), testutils.MatchResult(1)))
			Expect(err).NotTo(HaveOccurred())

			res, ok := ev.RoomState.FinalResult()
			Expect(ok).To(BeTrue())
			Expect(res.ResultList).To(HaveLen(4))
			Expect(res.ResultList[3].Scope).To(Equal(protocol.ResultScopeMatch))
			Expect(ev.RoomState.IsPlaying()).To(BeFalse())
			Expect(ev.RoomState.MatchID()).To(Equal("m-2"))
		})

		It("reports a decode error for a mistyped event body", func() {
			_, err := protocol.Classify(`{"matchGameRoomStateChangedEvent":"oops"}`)

			var decodeErr *protocol.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
			Expect(decodeErr.Kind).To(Equal(protocol.KindRoomState))
		})
	})

	Describe("game engine messages", func() {
		It("decodes game state messages", func() {
			ev, err := protocol.Classify(testutils.GameState{
				Seat:         1,
				MatchID:      "m-3",
				GameNumber:   2,
				ActivePlayer: 2,
				Players:      []testutils.Player{{Seat: 1, Team: 1, MulliganCount: 1}, {Seat: 2, Team: 2}},
				Hand:         []int{1, 2, 3},
				Objects:      []testutils.Object{{InstanceID: 900, GrpID: 77, Owner: 2, ZoneID: 28, Public: true}},
			}.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Kind).To(Equal(protocol.KindGre))

			msgs := ev.Gre.Event.Messages
			Expect(msgs).To(HaveLen(1))
			gs := msgs[0].GameStateMessage
			Expect(gs).NotTo(BeNil())
			Expect(gs.GameInfo.GameNumber).To(Equal(2))
			Expect(gs.GameInfo.MatchID).To(Equal("m-3"))
			Expect(gs.TurnInfo.ActivePlayer).To(Equal(2))
			Expect(gs.Players[0].MulliganCount).To(Equal(1))
			Expect(gs.Zones[0].Type).To(Equal(protocol.ZoneTypeHand))
			Expect(gs.Zones[0].ObjectInstanceIDs).To(HaveLen(3))
			Expect(gs.GameObjects).To(ContainElement(protocol.GameObject{
				InstanceID: 900, GrpID: 77, OwnerSeatID: 2, ZoneID: 28, Visibility: protocol.VisibilityPublic,
			}))
		})

		It("identifies mulligan prompts by seat", func() {
			ev, err := protocol.Classify(testutils.MulliganReq(1))
			Expect(err).NotTo(HaveOccurred())

			msg := ev.Gre.Event.Messages[0]
			Expect(msg.IsMulliganPromptFor(1)).To(BeTrue())
			Expect(msg.IsMulliganPromptFor(2)).To(BeFalse())
		})

		It("reports a decode error for mistyped messages", func() {
			_, err := protocol.Classify(`{"greToClientEvent":{"greToClientMessages":{"type":1}}}`)

			var decodeErr *protocol.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
			Expect(decodeErr.Kind).To(Equal(protocol.KindGre))
		})
	})

	Describe("business events", func() {
		It("decodes game summaries", func() {
			ev, err := protocol.Classify(testutils.BusinessGame("m-4", 1, []int{300, 301}))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Kind).To(Equal(protocol.KindBusiness))
			Expect(ev.Business.Kind).To(Equal(protocol.BusinessGame))
			Expect(ev.Business.Game.MatchID).To(Equal("m-4"))
			Expect(ev.Business.Game.OpponentCardIDs).To(Equal([]int{300, 301}))
		})

		It("decodes draft packs", func() {
			ev, err := protocol.Classify(testutils.DraftPack("d-1", "PremierDraft_MKM_20240206", 1, 2, []int{1, 2, 3}, 2))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Business.Kind).To(Equal(protocol.BusinessDraftPack))

			pack := ev.Business.DraftPack
			Expect(pack.DraftID).To(Equal("d-1"))
			Expect(pack.PackNumber).To(Equal(1))
			Expect(pack.PickNumber).To(Equal(2))
			Expect(pack.CardsInPack).To(Equal([]int{1, 2, 3}))
			Expect(pack.PickGrpID).To(Equal(2))
			Expect(pack.TimeRemainingOnPick).To(BeNumerically("~", 41.5))
		})

		It("decodes bare pick confirmations", func() {
			ev, err := protocol.Classify(testutils.DraftPick("d-1", 1, 2, 9))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Business.Kind).To(Equal(protocol.BusinessDraftPick))
			Expect(ev.Business.DraftPick.PickGrpID).To(Equal(9))
		})

		It("survives pretty printed input once whitespace is stripped", func() {
			tok := tokenizer.New()
			tok.Feed(testutils.Pretty(testutils.DraftPack("d-2", "QuickDraft_MKM_20240206", 2, 1, []int{4}, 4)))
			raw, ok := tok.Next()
			Expect(ok).To(BeTrue())

			ev, err := protocol.Classify(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Business.Kind).To(Equal(protocol.BusinessDraftPack))
			Expect(ev.Business.DraftPack.EventID).To(Equal("QuickDraft_MKM_20240206"))
		})
	})

	DescribeTable("unrelated objects are not events",
		func(raw string) {
			ev, err := protocol.Classify(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Kind).To(Equal(protocol.KindNotAnEvent))
			Expect(ev.Business).To(BeNil())
		},
		Entry("plain object", `{"formats":[]}`),
		Entry("invalid json", `{notjsonmore}`),
		Entry("envelope without request", `{"id":"x"}`),
		Entry("request that is not json", `{"id":"x","request":"hello"}`),
		Entry("unknown inner record", `{"id":"x","request":"{\"Foo\":1}"}`),
		Entry("mistyped inner record", `{"id":"x","request":"{\"MatchId\":\"m\",\"GameNumber\":\"one\"}"}`),
		Entry("numeric id", `{"id":5,"request":"{\"MatchId\":\"m\",\"GameNumber\":1}"}`),
	)

	Describe("Kind", func() {
		It("has readable names", func() {
			Expect(protocol.KindGre.String()).To(Equal("gre"))
			Expect(protocol.KindRoomState.String()).To(Equal("room_state"))
			Expect(protocol.KindNotAnEvent.String()).To(Equal("not_an_event"))
		})
	})
})

var _ = Describe("Timestamp", func() {
	type holder struct {
		At protocol.Timestamp `json:"at"`
	}

	DescribeTable("accepts the client encodings",
		func(raw string, expected time.Time) {
			var h holder
			Expect(json.Unmarshal([]byte(raw), &h)).To(Succeed())
			Expect(h.At.Time).To(Equal(expected))
		},
		Entry(".NET ticks string", `{"at":"638430048000000000"}`, time.Unix(1707408000, 0).UTC()),
		Entry("unix milliseconds number", `{"at":1707235200000}`, time.UnixMilli(1707235200000).UTC()),
		Entry("rfc3339", `{"at":"2024-02-06T16:00:00Z"}`, time.Date(2024, 2, 6, 16, 0, 0, 0, time.UTC)),
		Entry("empty", `{"at":""}`, time.Time{}),
		Entry("garbage", `{"at":"yesterday"}`, time.Time{}),
	)
})
