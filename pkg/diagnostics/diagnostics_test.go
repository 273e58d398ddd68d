package diagnostics_test

import (
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/diagnostics"
)

func failure(i int) arena.ParseFailure {
	return *arena.NewParseFailure(fmt.Sprintf(`{"n":%d}`, i), errors.New("boom"))
}

var _ = Describe("Collector", func() {
	It("keeps failures in arrival order", func() {
		c := diagnostics.NewCollector()
		c.Add(failure(1))
		c.Add(failure(2))

		snap := c.Snapshot()
		Expect(snap).To(HaveLen(2))
		Expect(snap[0].Raw).To(Equal(`{"n":1}`))
		Expect(snap[1].Raw).To(Equal(`{"n":2}`))
	})

	It("evicts the oldest failures beyond the limit but keeps counting", func() {
		c := diagnostics.NewCollector(diagnostics.WithLimit(3))
		for i := range 5 {
			c.Add(failure(i))
		}

		Expect(c.Len()).To(Equal(3))
		Expect(c.Total()).To(Equal(5))
		Expect(c.Snapshot()[0].Raw).To(Equal(`{"n":2}`))
	})

	It("returns the latest n failures", func() {
		c := diagnostics.NewCollector()
		for i := range 4 {
			c.Add(failure(i))
		}

		latest := c.Latest(2)
		Expect(latest).To(HaveLen(2))
		Expect(latest[1].Raw).To(Equal(`{"n":3}`))
		Expect(c.Latest(0)).To(HaveLen(4))
	})

	It("hands out independent snapshots", func() {
		c := diagnostics.NewCollector()
		c.Add(failure(1))
		snap := c.Snapshot()
		snap[0].Raw = "mutated"
		Expect(c.Snapshot()[0].Raw).To(Equal(`{"n":1}`))
	})

	It("is safe for concurrent writers and readers", func() {
		c := diagnostics.NewCollector(diagnostics.WithLimit(0))
		var wg sync.WaitGroup
		for w := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range 50 {
					c.Add(failure(w*100 + i))
					_ = c.Snapshot()
				}
			}()
		}
		wg.Wait()
		Expect(c.Total()).To(Equal(400))
		Expect(c.Len()).To(Equal(400))
	})
})

var _ = Describe("Stats", func() {
	It("counts events per kind", func() {
		s := diagnostics.NewStats()
		s.IncObjects()
		s.IncObjects()
		s.IncEvent("gre")
		s.IncEvent("gre")
		s.IncEvent("client")
		s.IncReplaysEmitted()
		s.AddDroppedObjects(0)
		s.AddDroppedObjects(2)

		snap := s.Snapshot()
		Expect(snap.Objects).To(Equal(int64(2)))
		Expect(snap.Events).To(Equal(map[string]int64{"gre": 2, "client": 1}))
		Expect(snap.ReplaysEmitted).To(Equal(int64(1)))
		Expect(snap.DroppedObjects).To(Equal(int64(2)))
	})

	It("returns snapshots detached from the counters", func() {
		s := diagnostics.NewStats()
		s.IncEvent("gre")
		snap := s.Snapshot()
		snap.Events["gre"] = 100

		Expect(s.Snapshot().Events["gre"]).To(Equal(int64(1)))
	})

	It("publishes through expvar once", func() {
		s := diagnostics.NewStats()
		s.IncRotations()
		s.Publish("arenatapes_test_stats")
		s.Publish("arenatapes_test_stats")

		v := expvar.Get("arenatapes_test_stats")
		Expect(v).NotTo(BeNil())

		var snap diagnostics.Snapshot
		Expect(json.Unmarshal([]byte(v.String()), &snap)).To(Succeed())
		Expect(snap.Rotations).To(Equal(int64(1)))
	})

	It("tolerates concurrent publishers of the same name", func() {
		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				diagnostics.NewStats().Publish("arenatapes_test_concurrent")
			}()
		}
		Expect(func() { wg.Wait() }).NotTo(Panic())
		Expect(expvar.Get("arenatapes_test_concurrent")).NotTo(BeNil())
	})
})
