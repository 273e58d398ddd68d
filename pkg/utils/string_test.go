package utils

import (
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("truncates with ellipsis when over the limit", func() {
		result := Truncate("this is a long string", 10)
		Expect(result).To(Equal("this is a ..."))
	})

	It("backs up to a rune boundary instead of splitting a multibyte rune", func() {
		s := strings.Repeat("a", 9) + "é" + "bbb"
		result := Truncate(s, 10)
		Expect(utf8.ValidString(result)).To(BeTrue())
		Expect(result).To(Equal(strings.Repeat("a", 9) + "..."))
	})

	It("keeps a rune that ends exactly at the limit", func() {
		Expect(Truncate("aé-rest", 3)).To(Equal("aé..."))
	})
})
