package routing

// indexMinPQ is a concrete-typed indexed min-priority queue over vertex
// ids. Avoids interface boxing overhead of container/heap and supports
// decrease-key, which the search drivers rely on.
type indexMinPQ struct {
	heap []int     // heap position → vertex
	pos  []int     // vertex → heap position, -1 if absent
	key  []float64 // vertex → current key
}

func newIndexMinPQ(n int) *indexMinPQ {
	pos := make([]int, n)
	for i := range pos {
		pos[i] = -1
	}
	return &indexMinPQ{
		heap: make([]int, 0, 256),
		pos:  pos,
		key:  make([]float64, n),
	}
}

func (pq *indexMinPQ) Len() int { return len(pq.heap) }

func (pq *indexMinPQ) Contains(v int) bool { return pq.pos[v] >= 0 }

// Insert adds vertex v with the given key. v must not be present.
func (pq *indexMinPQ) Insert(v int, key float64) {
	pq.key[v] = key
	pq.pos[v] = len(pq.heap)
	pq.heap = append(pq.heap, v)
	pq.siftUp(len(pq.heap) - 1)
}

// DecreaseKey lowers the key of a present vertex.
func (pq *indexMinPQ) DecreaseKey(v int, key float64) {
	pq.key[v] = key
	pq.siftUp(pq.pos[v])
}

// DelMin removes and returns the vertex with the smallest key.
func (pq *indexMinPQ) DelMin() (int, float64) {
	v := pq.heap[0]
	key := pq.key[v]
	last := len(pq.heap) - 1
	pq.swap(0, last)
	pq.heap = pq.heap[:last]
	pq.pos[v] = -1
	if last > 0 {
		pq.siftDown(0)
	}
	return v, key
}

func (pq *indexMinPQ) swap(i, j int) {
	pq.heap[i], pq.heap[j] = pq.heap[j], pq.heap[i]
	pq.pos[pq.heap[i]] = i
	pq.pos[pq.heap[j]] = j
}

func (pq *indexMinPQ) less(i, j int) bool {
	return pq.key[pq.heap[i]] < pq.key[pq.heap[j]]
}

func (pq *indexMinPQ) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !pq.less(i, parent) {
			break
		}
		pq.swap(i, parent)
		i = parent
	}
}

func (pq *indexMinPQ) siftDown(i int) {
	n := len(pq.heap)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && pq.less(left, smallest) {
			smallest = left
		}
		if right < n && pq.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			break
		}
		pq.swap(i, smallest)
		i = smallest
	}
}
