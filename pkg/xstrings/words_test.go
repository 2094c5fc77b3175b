package xstrings_test

import (
	"github.com/mudler/LocalArbiter/pkg/xstrings"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Words", func() {
	It("lower-cases and splits on punctuation", func() {
		Expect(xstrings.Words("Lisa, peux-tu m'aider?")).To(Equal([]string{"lisa", "peux", "tu", "m", "aider"}))
	})

	It("returns nothing for empty text", func() {
		Expect(xstrings.Words("")).To(BeEmpty())
	})
})

var _ = Describe("Fields", func() {
	It("keeps case and trims punctuation", func() {
		Expect(xstrings.Fields("@Marie: hello!")).To(Equal([]string{"Marie", "hello"}))
	})
})

var _ = Describe("UniqueSlice", func() {
	It("keeps first occurrences in order", func() {
		Expect(xstrings.UniqueSlice([]string{"b", "a", "b", "c", "a"})).To(Equal([]string{"b", "a", "c"}))
	})
})

var _ = Describe("SameSet", func() {
	It("ignores order and duplicates", func() {
		Expect(xstrings.SameSet([]string{"a", "b"}, []string{"b", "a", "a"})).To(BeTrue())
		Expect(xstrings.SameSet([]string{"a"}, []string{"a", "b"})).To(BeFalse())
		Expect(xstrings.SameSet[string](nil, nil)).To(BeTrue())
	})
})
