package sqlitestore_test

import (
	"context"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papyri/bookvec/pkg/vector"
	"github.com/papyri/bookvec/pkg/vector/sqlitestore"
)

func TestSQLiteStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SQLiteStore Suite")
}

// chunkAt returns a 4-d unit-ish vector whose cosine similarity against the
// probe vector [1,0,0,0] equals sim.
func chunkAt(sim float64) []float64 {
	return []float64{sim, math.Sqrt(1 - sim*sim), 0, 0}
}

var probe = []float64{1, 0, 0, 0}

var _ = Describe("Store", func() {
	var (
		store  *sqlitestore.Store
		logger *zap.Logger
		ctx    context.Context
	)

	BeforeEach(func() {
		logger = zap.NewNop()
		ctx = context.Background()

		var err error
		store, err = sqlitestore.New(sqlitestore.Config{
			DBPath:     ":memory:",
			Dimensions: 4,
		}, logger)
		Expect(err).NotTo(HaveOccurred())

		Expect(store.UpsertBook(ctx, "bk-1", "A Study of Vectors")).To(Succeed())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Describe("New", func() {
		It("requires a database path", func() {
			_, err := sqlitestore.New(sqlitestore.Config{Dimensions: 4}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("requires dimensions", func() {
			_, err := sqlitestore.New(sqlitestore.Config{DBPath: ":memory:"}, logger)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Interface compliance", func() {
		It("implements vector.Store", func() {
			var _ vector.Store = (*sqlitestore.Store)(nil)
		})
	})

	Describe("Persist", func() {
		It("writes staged nodes and clears the stage", func() {
			store.Add([]vector.Node{
				{ID: "c1", Text: "one", PageNum: 1, BookID: "bk-1", Embedding: chunkAt(0.9)},
				{ID: "c2", Text: "two", PageNum: 2, BookID: "bk-1", Embedding: chunkAt(0.7)},
			})

			res, err := store.Persist(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Staged).To(Equal(2))
			Expect(res.Written).To(Equal(2))
			Expect(res.Failed).To(BeZero())

			// With nothing newly staged, a second persist is a no-op.
			res, err = store.Persist(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Staged).To(BeZero())
			Expect(res.Written).To(BeZero())
		})

		It("tolerates a failing row without aborting the batch", func() {
			store.Add([]vector.Node{
				{ID: "c2", Text: "already there", PageNum: 2, BookID: "bk-1", Embedding: chunkAt(0.7)},
			})
			_, err := store.Persist(ctx)
			Expect(err).NotTo(HaveOccurred())

			// Row 2 of 3 now violates the chunk id uniqueness constraint.
			store.Add([]vector.Node{
				{ID: "c1", Text: "one", PageNum: 1, BookID: "bk-1", Embedding: chunkAt(0.9)},
				{ID: "c2", Text: "duplicate", PageNum: 2, BookID: "bk-1", Embedding: chunkAt(0.7)},
				{ID: "c3", Text: "three", PageNum: 3, BookID: "bk-1", Embedding: chunkAt(0.5)},
			})

			res, err := store.Persist(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Staged).To(Equal(3))
			Expect(res.Written).To(Equal(2))
			Expect(res.Failed).To(Equal(1))
			Expect(res.Errors).To(HaveLen(1))
			Expect(res.Errors[0].ID).To(Equal("c2"))

			// The stage is cleared regardless of row failures.
			res, err = store.Persist(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Staged).To(BeZero())

			// Rows 1 and 3 were committed and are queryable.
			qr, err := store.Query(ctx, vector.QueryRequest{Embedding: probe, TopK: 10})
			Expect(err).NotTo(HaveOccurred())
			ids := make([]string, 0, len(qr.Matches))
			for _, m := range qr.Matches {
				ids = append(ids, m.ID)
			}
			Expect(ids).To(ContainElements("c1", "c3"))
		})
	})

	Describe("Query", func() {
		BeforeEach(func() {
			store.Add([]vector.Node{
				{ID: "c1", Text: "closest", PageNum: 10, BookID: "bk-1", Embedding: chunkAt(0.9)},
				{ID: "c2", Text: "middle", PageNum: 20, BookID: "bk-1", Embedding: chunkAt(0.7)},
				{ID: "c3", Text: "farthest", PageNum: 30, BookID: "bk-1", Embedding: chunkAt(0.5)},
			})
			_, err := store.Persist(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns matches ordered by descending similarity", func() {
			qr, err := store.Query(ctx, vector.QueryRequest{Embedding: probe, TopK: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(qr.Matches).To(HaveLen(3))

			Expect(qr.Matches[0].ID).To(Equal("c1"))
			Expect(qr.Matches[1].ID).To(Equal("c2"))
			Expect(qr.Matches[2].ID).To(Equal("c3"))
			Expect(qr.Matches[0].Similarity).To(BeNumerically("~", 0.9, 0.01))
			Expect(qr.Matches[1].Similarity).To(BeNumerically("~", 0.7, 0.01))
			Expect(qr.Matches[2].Similarity).To(BeNumerically("~", 0.5, 0.01))
		})

		It("applies the similarity floor to the top-k rows", func() {
			qr, err := store.Query(ctx, vector.QueryRequest{
				Embedding:       probe,
				TopK:            3,
				SimilarityFloor: 0.6,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(qr.Matches).To(HaveLen(2))
			Expect(qr.Matches[0].ID).To(Equal("c1"))
			Expect(qr.Matches[1].ID).To(Equal("c2"))
		})

		It("never considers more than top-k rows", func() {
			qr, err := store.Query(ctx, vector.QueryRequest{Embedding: probe, TopK: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(qr.Matches).To(HaveLen(2))
		})

		It("attaches book name and page number metadata", func() {
			qr, err := store.Query(ctx, vector.QueryRequest{Embedding: probe, TopK: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(qr.Matches).To(HaveLen(1))
			Expect(qr.Matches[0].BookName).To(Equal("A Study of Vectors"))
			Expect(qr.Matches[0].PageNum).To(Equal(10))
			Expect(qr.Matches[0].Text).To(Equal("closest"))
		})

		It("reports elapsed wall-clock time", func() {
			qr, err := store.Query(ctx, vector.QueryRequest{Embedding: probe, TopK: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(qr.Elapsed).To(BeNumerically(">", 0))
		})

		It("converts backend failures into an empty result", func() {
			// Wrong dimensionality makes the KNN statement fail.
			qr, err := store.Query(ctx, vector.QueryRequest{
				Embedding: []float64{1, 0},
				TopK:      3,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(qr.Matches).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("always reports unsupported", func() {
			store.Add([]vector.Node{
				{ID: "staged", Text: "x", BookID: "bk-1", Embedding: chunkAt(0.9)},
			})

			for _, id := range []string{"staged", "missing"} {
				err := store.Delete(ctx, id)
				Expect(err).To(MatchError(vector.ErrDeleteUnsupported))
			}
		})
	})
})
