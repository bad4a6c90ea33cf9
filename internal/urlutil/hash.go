package urlutil

import "github.com/cespare/xxhash/v2"

// Hash computes the content-addressed identifier PageDB and the
// scheduler use as a page's hash: xxhash of the normalized URL string.
// Two URLs that normalize to the same string share a hash, which is
// exactly the dedup behavior the normalizer is meant to produce.
func Hash(normalizedURL string) uint64 {
	return xxhash.Sum64String(normalizedURL)
}
