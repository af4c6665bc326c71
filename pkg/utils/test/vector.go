package testutils

import (
	"context"

	"github.com/papyri/bookvec/pkg/vector"
)

// MockStore is a test vector store that stages in memory and records
// persisted nodes without any backing database.
type MockStore struct {
	Staged    []vector.Node
	Persisted []vector.Node
	Matches   []vector.Match

	// FailPersist causes Persist to report every staged node as failed.
	FailPersist bool
}

func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Add(nodes []vector.Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		m.Staged = append(m.Staged, n)
		ids = append(ids, n.ID)
	}
	return ids
}

func (m *MockStore) Persist(_ context.Context) (*vector.PersistResult, error) {
	res := &vector.PersistResult{Staged: len(m.Staged)}

	for _, n := range m.Staged {
		if m.FailPersist {
			res.Failed++
			res.Errors = append(res.Errors, vector.RowError{ID: n.ID})
			continue
		}
		m.Persisted = append(m.Persisted, n)
		res.Written++
	}

	m.Staged = nil
	return res, nil
}

func (m *MockStore) Query(_ context.Context, req vector.QueryRequest) (*vector.QueryResult, error) {
	matches := m.Matches
	if req.TopK > 0 && len(matches) > req.TopK {
		matches = matches[:req.TopK]
	}
	return &vector.QueryResult{Matches: vector.FilterByFloor(matches, req.SimilarityFloor)}, nil
}

func (m *MockStore) Delete(_ context.Context, _ string) error {
	return vector.ErrDeleteUnsupported
}

func (m *MockStore) Close() error {
	return nil
}
