// Package schema compiles a field schema into value generators.
//
// A schema is a JSON object mapping a field name to a "type:directive"
// string, for example
//
//	{"id": "str:rand", "age": "int:rand(1, 90)", "kind": "str:['a', 'b']", "at": "timestamp:"}
//
// Compilation resolves every directive once. The resulting generators only
// draw randomness and read the clock at call time.
package schema

import (
	"math/rand/v2"
	"slices"
)

type Type string

const (
	Timestamp Type = "timestamp"
	Str       Type = "str"
	Int       Type = "int"
)

func (t Type) valid() bool {
	switch t {
	case Timestamp, Str, Int:
		return true
	}
	return false
}

// Generator produces one value per call. rng belongs to the caller and must
// not be shared between goroutines.
type Generator func(rng *rand.Rand) any

type Field struct {
	Name      string
	Type      Type
	Directive string

	gen Generator
}

func (f Field) Generate(rng *rand.Rand) any {
	return f.gen(rng)
}

// Schema is an ordered, read-only set of compiled fields. It is safe to
// share between goroutines.
type Schema struct {
	fields []Field
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	return slices.Clone(s.fields)
}

func (s *Schema) Len() int {
	return len(s.fields)
}
