package aerialqc

import (
	"sync"

	"github.com/corona10/goimagehash"
)

// dedupThreshold is the maximum Hamming distance between two dHash values
// below which images are considered perceptually identical.
const dedupThreshold = 10

// dedupFilter is a per-run deduplication filter based on perceptual hashing.
// It is safe for concurrent use.
type dedupFilter struct {
	mu     sync.Mutex
	seen   []dedupEntry
	maxDst int
}

type dedupEntry struct {
	hash *goimagehash.ImageHash
	name string
}

func newDedupFilter() *dedupFilter {
	return &dedupFilter{maxDst: dedupThreshold}
}

// duplicateOf returns the name of a previously seen image that hash is
// perceptually identical to, or "" if there is none. Unique hashes are stored
// under name for future comparisons. A nil hash is never a duplicate.
func (d *dedupFilter) duplicateOf(hash *goimagehash.ImageHash, name string) string {
	if hash == nil {
		return ""
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range d.seen {
		dist, err := hash.Distance(e.hash)
		if err == nil && dist < d.maxDst {
			return e.name
		}
	}

	d.seen = append(d.seen, dedupEntry{hash: hash, name: name})
	return ""
}
