package vector_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papyri/bookvec/pkg/vector"
)

func TestVector(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Vector Suite")
}

var _ = Describe("Stage", func() {
	var stage *vector.Stage

	BeforeEach(func() {
		stage = vector.NewStage()
	})

	It("returns the ids staged by each call", func() {
		ids := stage.Put([]vector.Node{
			{ID: "c1", Text: "one"},
			{ID: "c2", Text: "two"},
		})
		Expect(ids).To(Equal([]string{"c1", "c2"}))

		ids = stage.Put([]vector.Node{{ID: "c3", Text: "three"}})
		Expect(ids).To(Equal([]string{"c3"}))
		Expect(stage.Len()).To(Equal(3))
	})

	It("replaces a staged node sharing the same id", func() {
		stage.Put([]vector.Node{
			{ID: "c1", Text: "old"},
			{ID: "c2", Text: "two"},
		})
		stage.Put([]vector.Node{{ID: "c1", Text: "new"}})

		Expect(stage.Len()).To(Equal(2))

		nodes := stage.Nodes()
		Expect(nodes[0].ID).To(Equal("c1"))
		Expect(nodes[0].Text).To(Equal("new"))
	})

	It("holds M entries after adding N nodes with M distinct ids", func() {
		stage.Put([]vector.Node{
			{ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: "c"}, {ID: "b"},
		})
		Expect(stage.Len()).To(Equal(3))
	})

	It("preserves insertion order across overwrites", func() {
		stage.Put([]vector.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}})
		stage.Put([]vector.Node{{ID: "b", Text: "updated"}})

		nodes := stage.Nodes()
		Expect(nodes).To(HaveLen(3))
		Expect(nodes[0].ID).To(Equal("a"))
		Expect(nodes[1].ID).To(Equal("b"))
		Expect(nodes[1].Text).To(Equal("updated"))
		Expect(nodes[2].ID).To(Equal("c"))
	})

	It("is empty after Reset", func() {
		stage.Put([]vector.Node{{ID: "a"}, {ID: "b"}})
		stage.Reset()

		Expect(stage.Len()).To(BeZero())
		Expect(stage.Nodes()).To(BeEmpty())
	})
})

var _ = Describe("FilterByFloor", func() {
	ranked := []vector.Match{
		{ID: "c1", Similarity: 0.9},
		{ID: "c2", Similarity: 0.7},
		{ID: "c3", Similarity: 0.5},
	}

	It("keeps only matches meeting the floor, in rank order", func() {
		kept := vector.FilterByFloor(ranked, 0.6)

		Expect(kept).To(HaveLen(2))
		Expect(kept[0].ID).To(Equal("c1"))
		Expect(kept[1].ID).To(Equal("c2"))
	})

	It("never returns more results as the floor rises", func() {
		prev := len(ranked) + 1
		for _, floor := range []float64{0.0, 0.4, 0.6, 0.8, 1.0} {
			kept := vector.FilterByFloor(ranked, floor)
			Expect(len(kept)).To(BeNumerically("<=", prev))
			for _, m := range kept {
				Expect(m.Similarity).To(BeNumerically(">=", floor))
			}
			prev = len(kept)
		}
	})

	It("returns everything at floor zero", func() {
		Expect(vector.FilterByFloor(ranked, 0)).To(HaveLen(3))
	})
})

var _ = Describe("Similarity", func() {
	It("is one minus cosine distance", func() {
		Expect(vector.Similarity(0.25)).To(BeNumerically("~", 0.75, 1e-12))
	})
})
