// Package record turns a compiled schema into records.
package record

import (
	"math/rand/v2"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/tckz/go-jsonl-gen/internal/schema"
)

// Record maps field name to value in schema order. It marshals to a JSON
// object with keys in that order.
type Record = orderedmap.OrderedMap[string, any]

// Generate invokes every field generator of s once.
func Generate(s *schema.Schema, rng *rand.Rand) *Record {
	fields := s.Fields()
	r := orderedmap.New[string, any](len(fields))
	for _, f := range fields {
		r.Set(f.Name, f.Generate(rng))
	}
	return r
}

// Lines generates n independent records. Calling it again yields a fresh
// sequence.
func Lines(s *schema.Schema, rng *rand.Rand, n int) []*Record {
	recs := make([]*Record, 0, n)
	for range n {
		recs = append(recs, Generate(s, rng))
	}
	return recs
}
