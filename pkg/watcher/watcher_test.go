package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arenatapes/pkg/watcher"
)

var _ = Describe("Watcher", func() {
	var (
		dir    string
		path   string
		w      *watcher.Watcher
		cancel context.CancelFunc
		done   chan error
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		path = filepath.Join(dir, "Player.log")
		Expect(os.WriteFile(path, []byte("session one\n"), 0o644)).To(Succeed())

		w = watcher.New(path, nil)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() {
			done <- w.Run(ctx)
		}()

		// Give the watch time to be registered before mutating the directory.
		time.Sleep(100 * time.Millisecond)
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
	})

	It("signals when the log is replaced", func() {
		Expect(os.Rename(path, filepath.Join(dir, "Player-prev.log"))).To(Succeed())
		Expect(os.WriteFile(path, []byte("session two\n"), 0o644)).To(Succeed())

		Eventually(w.Rotations(), 2*time.Second).Should(Receive())
	})

	It("ignores other files in the directory", func() {
		Expect(os.WriteFile(filepath.Join(dir, "other.log"), []byte("x"), 0o644)).To(Succeed())

		Consistently(w.Rotations(), 300*time.Millisecond).ShouldNot(Receive())
	})

	It("coalesces a burst into a single pending signal", func() {
		for range 3 {
			Expect(os.Remove(path)).To(Succeed())
			Expect(os.WriteFile(path, []byte("again\n"), 0o644)).To(Succeed())
		}

		Eventually(w.Rotations(), 2*time.Second).Should(Receive())
		Eventually(func() int { return len(w.Rotations()) }, time.Second).Should(BeNumerically("<=", 1))
	})
})
