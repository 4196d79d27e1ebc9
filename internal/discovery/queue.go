package discovery

import (
	"container/heap"
	"log/slog"
	"sync"

	"github.com/nmos-go/node/internal/apiver"
)

// CandidateQueue is a priority-ordered collection of discovered registration
// APIs. Lower numeric priority wins; ties are broken by discovery order, the
// earlier discovery first.
type CandidateQueue struct {
	mu   sync.Mutex
	heap candidateHeap
	seq  uint64
}

// NewCandidateQueue creates an empty queue.
func NewCandidateQueue() *CandidateQueue {
	return &CandidateQueue{}
}

// Push adds a discovered candidate.
func (q *CandidateQueue) Push(c *Candidate) {
	q.mu.Lock()
	defer q.mu.Unlock()
	c.seq = q.seq
	q.seq++
	heap.Push(&q.heap, c)
}

// PopCompatible removes and returns the best candidate whose advertised
// versions include v. Better-ranked but incompatible candidates are skipped
// and stay queued for later selection rounds. Returns nil when no compatible
// candidate is queued.
func (q *CandidateQueue) PopCompatible(v apiver.Version) *Candidate {
	q.mu.Lock()
	defer q.mu.Unlock()

	var skipped []*Candidate
	defer func() {
		for _, c := range skipped {
			heap.Push(&q.heap, c)
		}
	}()

	for q.heap.Len() > 0 {
		c := heap.Pop(&q.heap).(*Candidate)
		if c.Compatible(v) {
			return c
		}
		slog.Debug("Skipping registry candidate without a compatible API version",
			"url", c.URL.String(),
			"node_version", v.String())
		skipped = append(skipped, c)
	}
	return nil
}

// Len returns the number of queued candidates.
func (q *CandidateQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// candidateHeap implements heap.Interface ordered by (priority, seq).
type candidateHeap []*Candidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(*Candidate))
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
