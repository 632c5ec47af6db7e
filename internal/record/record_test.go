package record

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tckz/go-jsonl-gen/internal/logger"
	"github.com/tckz/go-jsonl-gen/internal/schema"
)

func compile(t *testing.T, text string) *schema.Schema {
	t.Helper()
	c, err := schema.NewCompiler(schema.CompilerConfig{Logger: logger.Discard()})
	require.NoError(t, err)
	s, err := c.Compile([]byte(text))
	require.NoError(t, err)
	return s
}

func TestRecord_Generate(t *testing.T) {
	t.Parallel()

	s := compile(t, `{"name": "str:client", "age": "int:50", "none": "int:"}`)
	r := Generate(s, rand.New(rand.NewPCG(1, 1)))

	require.Equal(t, 3, r.Len())
	v, ok := r.Get("name")
	require.True(t, ok)
	require.Equal(t, "client", v)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, `{"name": "client", "age": 50, "none": null}`, string(b))
	require.Equal(t, `{"name":"client","age":50,"none":null}`, string(b))
}

func TestRecord_Lines(t *testing.T) {
	t.Parallel()

	s := compile(t, `{"id": "str:rand", "n": "int:rand(1, 5)"}`)
	rng := rand.New(rand.NewPCG(3, 4))

	first := Lines(s, rng, 10)
	second := Lines(s, rng, 10)
	require.Len(t, first, 10)
	require.Len(t, second, 10)

	ids := map[any]bool{}
	for _, r := range append(first, second...) {
		id, _ := r.Get("id")
		ids[id] = true
		n, _ := r.Get("n")
		require.GreaterOrEqual(t, n.(int), 1)
		require.LessOrEqual(t, n.(int), 5)
	}
	require.Len(t, ids, 20)

	require.Empty(t, Lines(s, rng, 0))
}
