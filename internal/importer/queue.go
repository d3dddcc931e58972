package importer

import "sync/atomic"

// batchQueue hands out each batch exactly once to whichever worker asks
// first.
type batchQueue struct {
	batches [][]string
	next    atomic.Int64
}

func newBatchQueue(paths []string, size int) *batchQueue {
	if size <= 0 {
		size = 1
	}
	q := &batchQueue{}
	for start := 0; start < len(paths); start += size {
		end := min(start+size, len(paths))
		q.batches = append(q.batches, paths[start:end])
	}
	return q
}

// Claim returns the next unclaimed batch and its index. ok is false when
// the queue is drained.
func (q *batchQueue) Claim() (index int, batch []string, ok bool) {
	i := int(q.next.Add(1) - 1)
	if i >= len(q.batches) {
		return 0, nil, false
	}
	return i, q.batches[i], true
}

func (q *batchQueue) Len() int {
	return len(q.batches)
}
