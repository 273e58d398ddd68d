package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arenatapes/pkg/dotdir"
)

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		m      *dotdir.Manager
	)

	// chdir moves into dir for the rest of the test.
	chdir := func(dir string) {
		orig, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(func() { _ = os.Chdir(orig) })
	}

	BeforeEach(func() {
		var err error
		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	Describe("Target", func() {
		It("creates an override directory that does not exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))
			Expect(dir).To(BeADirectory())
		})

		It("prefers the override over a local .arenatapes dir", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".arenatapes"), 0o755)).To(Succeed())
			chdir(tmpDir)

			override := filepath.Join(tmpDir, "override")
			result, err := m.Target(override)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(override))
		})

		It("uses the local .arenatapes dir when present", func() {
			local := filepath.Join(tmpDir, ".arenatapes")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			chdir(tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("falls back to a home directory it creates", func() {
			empty := filepath.Join(tmpDir, "empty")
			home := filepath.Join(tmpDir, "home")
			Expect(os.Mkdir(empty, 0o755)).To(Succeed())
			Expect(os.Mkdir(home, 0o755)).To(Succeed())
			chdir(empty)
			GinkgoT().Setenv("HOME", home)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(home, ".arenatapes")))
			Expect(result).To(BeADirectory())
		})
	})

	Describe("Path", func() {
		It("joins a file name onto the target", func() {
			result, err := m.Path(tmpDir, "arenatapes.db")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, "arenatapes.db")))
		})
	})
})
