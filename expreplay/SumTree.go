package expreplay

// sumTree is a complete binary tree whose leaves hold transition
// priorities and whose internal nodes hold the sum of the priorities
// beneath them. It supports setting the priority of a leaf and finding
// the leaf within whose cumulative mass a value falls, both in
// O(log n) time.
type sumTree struct {
	nodes    []float64
	capacity int
}

// newSumTree returns a new sumTree with the argument number of leaves,
// all with priority 0
func newSumTree(capacity int) *sumTree {
	return &sumTree{
		nodes:    make([]float64, 2*capacity-1),
		capacity: capacity,
	}
}

// Total returns the sum of all leaf priorities
func (s *sumTree) Total() float64 {
	return s.nodes[0]
}

// Set sets the priority of leaf index to priority, updating the sums
// along the path to the root
func (s *sumTree) Set(index int, priority float64) {
	node := index + s.capacity - 1
	change := priority - s.nodes[node]

	s.nodes[node] = priority
	for node != 0 {
		node = (node - 1) / 2
		s.nodes[node] += change
	}
}

// Priority returns the priority of leaf index
func (s *sumTree) Priority(index int) float64 {
	return s.nodes[index+s.capacity-1]
}

// Get returns the leaf index within whose cumulative priority mass the
// argument value falls, along with that leaf's priority. The argument
// should be in [0, Total()).
func (s *sumTree) Get(mass float64) (int, float64) {
	node := 0
	for {
		left := 2*node + 1
		if left >= len(s.nodes) {
			break
		}

		if mass < s.nodes[left] {
			node = left
		} else {
			mass -= s.nodes[left]
			node = left + 1
		}
	}

	index := node - (s.capacity - 1)
	return index, s.nodes[node]
}
