// Package naming derives the per-file suffix of generated output files.
package naming

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
)

const (
	Ext       = ".jsonl"
	Separator = "_"

	randomMax = 10000
)

type Mode string

const (
	Count  Mode = "count"
	Random Mode = "random"
	UUID   Mode = "uuid"
)

var Modes = []Mode{Count, Random, UUID}

func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown naming mode %q, want one of %v", s, Modes)
}

// Suffix resolves the suffix for the file that claimed index. Random suffixes
// may collide; nothing checks for that.
func Suffix(mode Mode, index int, rng *rand.Rand) string {
	switch mode {
	case Random:
		return strconv.Itoa(rng.IntN(randomMax) + 1)
	case UUID:
		return uuid.NewString()
	default:
		return strconv.Itoa(index + 1)
	}
}

// FileName returns base with suffix and extension. The suffix is left out
// when total is 1.
func FileName(base string, mode Mode, index, total int, rng *rand.Rand) string {
	if total == 1 {
		return base + Ext
	}
	return base + Separator + Suffix(mode, index, rng) + Ext
}
