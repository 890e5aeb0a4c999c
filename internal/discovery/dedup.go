package discovery

import "prospect/internal/types"

// filterNew removes duplicates from a batch of candidates: first within the
// batch itself (first occurrence wins, order preserved), then against the
// URLs already persisted for the campaign. Keying is the exact URL string
// after platform normalization; no further canonicalization is attempted.
func filterNew(posts []types.RawPost, known map[string]bool) []types.RawPost {
	seen := make(map[string]bool, len(posts))
	fresh := posts[:0:0]
	for _, p := range posts {
		if p.URL == "" || seen[p.URL] || known[p.URL] {
			continue
		}
		seen[p.URL] = true
		fresh = append(fresh, p)
	}
	return fresh
}
