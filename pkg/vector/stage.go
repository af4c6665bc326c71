package vector

// Stage is the in-memory staging buffer shared by the store backends: nodes
// added but not yet written durably. Entries keep insertion order; re-adding
// an id overwrites the node in place without moving it.
//
// Stage is owned by exactly one store instance and carries no locking of its
// own.
type Stage struct {
	nodes map[string]Node
	order []string
}

// NewStage returns an empty staging buffer.
func NewStage() *Stage {
	return &Stage{nodes: make(map[string]Node)}
}

// Put stages the given nodes, last write winning on duplicate ids, and
// returns the ids staged by this call.
func (s *Stage) Put(nodes []Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, exists := s.nodes[n.ID]; !exists {
			s.order = append(s.order, n.ID)
		}
		s.nodes[n.ID] = n
		ids = append(ids, n.ID)
	}
	return ids
}

// Len reports the number of distinct staged nodes.
func (s *Stage) Len() int {
	return len(s.nodes)
}

// Nodes returns the staged nodes in insertion order without clearing them.
func (s *Stage) Nodes() []Node {
	out := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Reset clears the buffer. Called after a persist attempt has been committed,
// regardless of how many individual rows failed.
func (s *Stage) Reset() {
	s.nodes = make(map[string]Node)
	s.order = nil
}
