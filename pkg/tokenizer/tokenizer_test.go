package tokenizer_test

import (
	"math/rand"
	"slices"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arenatapes/pkg/tokenizer"
)

const sampleLog = `[UnityCrossThreadLogger]1/2/2024 8:00:00 PM
[UnityCrossThreadLogger]==> LogBusinessEvents {"id":"1","request":"{\"DraftId\":\"d\",\"PackNumber\":1}"}
noise } with a stray brace
{ "transactionId": "t1",
  "greToClientEvent": { "greToClientMessages": [ { "type": "GREMessageType_MulliganReq" } ] } }
<== GetFormats(abc) {"formats":[{"name":"Standard"},{"name":"Historic"}]}
trailing words`

func drain(t *tokenizer.Tokenizer) []string {
	return slices.Collect(t.All())
}

func feedSplit(text string, cuts []int) []string {
	t := tokenizer.New()
	var out []string
	prev := 0
	for _, cut := range cuts {
		t.Feed(text[prev:cut])
		out = append(out, drain(t)...)
		prev = cut
	}
	t.Feed(text[prev:])
	return append(out, drain(t)...)
}

var _ = Describe("Tokenizer", func() {
	var t *tokenizer.Tokenizer

	BeforeEach(func() {
		t = tokenizer.New()
	})

	It("extracts top level objects and strips whitespace", func() {
		t.Feed(sampleLog)
		Expect(drain(t)).To(Equal([]string{
			`{"id":"1","request":"{\"DraftId\":\"d\",\"PackNumber\":1}"}`,
			`{"transactionId":"t1","greToClientEvent":{"greToClientMessages":[{"type":"GREMessageType_MulliganReq"}]}}`,
			`{"formats":[{"name":"Standard"},{"name":"Historic"}]}`,
		}))
		Expect(t.InFlight()).To(BeFalse())
	})

	It("returns false when no object is complete", func() {
		t.Feed("nothing to see")
		_, ok := t.Next()
		Expect(ok).To(BeFalse())
	})

	It("continues a partial object across fragments", func() {
		t.Feed(`prefix {"a":{"b"`)
		_, ok := t.Next()
		Expect(ok).To(BeFalse())
		Expect(t.InFlight()).To(BeTrue())
		Expect(t.Depth()).To(Equal(2))

		t.Feed(`:1}}`)
		obj, ok := t.Next()
		Expect(ok).To(BeTrue())
		Expect(obj).To(Equal(`{"a":{"b":1}}`))
	})

	It("yields identical output for every two-way split of the input", func() {
		whole := feedSplit(sampleLog, nil)
		for cut := 1; cut < len(sampleLog); cut++ {
			Expect(feedSplit(sampleLog, []int{cut})).To(Equal(whole), "cut at %d", cut)
		}
	})

	It("yields identical output for random many-way splits of the input", func() {
		whole := feedSplit(sampleLog, nil)
		rng := rand.New(rand.NewSource(42))
		for range 200 {
			n := rng.Intn(12) + 1
			cuts := make([]int, 0, n)
			for range n {
				cuts = append(cuts, rng.Intn(len(sampleLog)))
			}
			slices.Sort(cuts)
			Expect(feedSplit(sampleLog, cuts)).To(Equal(whole), "cuts %v", cuts)
		}
	})

	It("never lets depth go negative and closes once per object", func() {
		text := `}}}{"a":{}}}}{"b":[{},{}]}}`
		closes := 0
		for _, c := range text {
			t.Feed(string(c))
			for range t.All() {
				closes++
			}
			Expect(t.Depth()).To(BeNumerically(">=", 0))
		}
		Expect(closes).To(Equal(2))
	})

	It("does not emit when the combined depth never returns to zero", func() {
		t.Feed("garbage {not {json")
		Expect(drain(t)).To(BeEmpty())
		t.Feed("more}")
		Expect(drain(t)).To(BeEmpty())
		Expect(t.InFlight()).To(BeTrue())
	})

	It("joins an unbalanced prefix with a later closing fragment", func() {
		t.Feed("garbage {not json")
		Expect(drain(t)).To(BeEmpty())
		t.Feed("more}")
		Expect(drain(t)).To(Equal([]string{"{notjsonmore}"}))
	})

	It("drops the partial buffer on reset", func() {
		t.Feed(`{"half":`)
		Expect(drain(t)).To(BeEmpty())
		t.Reset()
		Expect(t.InFlight()).To(BeFalse())

		t.Feed(`"rest"}{"whole":1}`)
		Expect(drain(t)).To(Equal([]string{`{"whole":1}`}))
	})

	It("stops draining when the consumer stops", func() {
		t.Feed(`{"a":1}{"b":2}`)
		for obj := range t.All() {
			Expect(obj).To(Equal(`{"a":1}`))
			break
		}
		obj, ok := t.Next()
		Expect(ok).To(BeTrue())
		Expect(obj).To(Equal(`{"b":2}`))
	})

	Context("with a size cap", func() {
		It("drops an oversized in-flight object", func() {
			t = tokenizer.New(tokenizer.WithMaxObjectBytes(16))
			t.Feed(`{"big":"` + strings.Repeat("x", 64) + `"}{"ok":1}`)
			Expect(drain(t)).To(Equal([]string{`{"ok":1}`}))
			Expect(t.Dropped()).To(Equal(1))
		})

		It("discards nested objects of a dropped object instead of emitting them", func() {
			t = tokenizer.New(tokenizer.WithMaxObjectBytes(16))
			t.Feed(`{"big":"` + strings.Repeat("x", 32) + `","inner":{"matchGameRoomStateChangedEvent":{}}`)
			Expect(drain(t)).To(BeEmpty())
			Expect(t.InFlight()).To(BeTrue())
			Expect(t.Depth()).To(Equal(1))

			t.Feed(`}{"ok":1}`)
			Expect(drain(t)).To(Equal([]string{`{"ok":1}`}))
			Expect(t.InFlight()).To(BeFalse())
			Expect(t.Dropped()).To(Equal(1))
		})

		It("forgets a skipped object on Reset", func() {
			t = tokenizer.New(tokenizer.WithMaxObjectBytes(4))
			t.Feed(`{"big":{"x":1`)
			Expect(drain(t)).To(BeEmpty())

			t.Reset()
			t.Feed(`{"a":1}`)
			Expect(drain(t)).To(Equal([]string{`{"a":1}`}))
		})
	})
})
