package logreader_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arenatapes/pkg/logreader"
)

func appendTo(path, text string) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	Expect(err).NotTo(HaveOccurred())
	_, err = f.WriteString(text)
	Expect(err).NotTo(HaveOccurred())
	Expect(f.Close()).To(Succeed())
}

var _ = Describe("Reader", func() {
	var (
		path   string
		reader *logreader.Reader
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "Player.log")
	})

	AfterEach(func() {
		if reader != nil {
			Expect(reader.Close()).To(Succeed())
		}
	})

	It("reports an unavailable source until the file exists", func() {
		reader = logreader.New(path)

		_, err := reader.ReadAvailable()
		Expect(errors.Is(err, logreader.ErrSourceUnavailable)).To(BeTrue())

		appendTo(path, "hello")
		text, err := reader.ReadAvailable()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("hello"))
	})

	It("returns only bytes appended since the last read", func() {
		appendTo(path, "first ")
		reader = logreader.New(path)

		text, err := reader.ReadAvailable()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("first "))

		text, err = reader.ReadAvailable()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(BeEmpty())

		appendTo(path, "second")
		text, err = reader.ReadAvailable()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("second"))
		Expect(reader.Offset()).To(Equal(int64(len("first second"))))
	})

	It("skips existing content when tailing", func() {
		appendTo(path, "old content")
		reader = logreader.New(path, logreader.WithTail(true))

		text, err := reader.ReadAvailable()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(BeEmpty())

		appendTo(path, "new")
		text, err = reader.ReadAvailable()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("new"))
	})

	It("detects a file that shrank below the read offset", func() {
		appendTo(path, "a fairly long first session")
		reader = logreader.New(path)
		_, err := reader.ReadAvailable()
		Expect(err).NotTo(HaveOccurred())

		Expect(os.WriteFile(path, []byte("short"), 0o644)).To(Succeed())
		_, err = reader.ReadAvailable()
		Expect(err).To(MatchError(logreader.ErrTruncated))
	})

	It("starts over after Close", func() {
		appendTo(path, "abc")
		reader = logreader.New(path)
		_, err := reader.ReadAvailable()
		Expect(err).NotTo(HaveOccurred())

		Expect(reader.Close()).To(Succeed())
		text, err := reader.ReadAvailable()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("abc"))
	})

	It("reads content larger than one chunk", func() {
		big := make([]byte, 200<<10)
		for i := range big {
			big[i] = 'x'
		}
		appendTo(path, string(big))
		reader = logreader.New(path)

		text, err := reader.ReadAvailable()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(HaveLen(len(big)))
	})
})
