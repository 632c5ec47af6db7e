package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/tckz/go-jsonl-gen/internal/failure"
)

const (
	randMax    = 10000
	quoteChars = `'"\`
)

var randRangeRE = regexp.MustCompile(`^rand\(([0-9]+), ?([0-9]+)\)$`)

type CompilerConfig struct {
	Logger *slog.Logger
	// Clock feeds timestamp fields. Defaults to the real clock.
	Clock clockwork.Clock
}

func (cfg *CompilerConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

type Compiler struct {
	log *slog.Logger
	cfg CompilerConfig
}

func NewCompiler(cfg CompilerConfig) (*Compiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Compiler{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Load reads the schema from input (see Read) and compiles it.
func (c *Compiler) Load(input string) (*Schema, error) {
	text, err := Read(input)
	if err != nil {
		return nil, err
	}
	source := string(text)
	if isSchemaFile(input) {
		source = input
	}
	return c.compile(text, source)
}

// Compile parses schema text and builds a generator per field.
func (c *Compiler) Compile(text []byte) (*Schema, error) {
	return c.compile(text, string(text))
}

func (c *Compiler) compile(text []byte, source string) (*Schema, error) {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, failure.New(failure.Format, source)
	}
	om := orderedmap.New[string, any]()
	if err := json.Unmarshal(trimmed, om); err != nil {
		return nil, failure.Wrap(failure.Format, err, source)
	}

	c.log.Info("schema parsing started", "fields", om.Len())

	fields := make([]Field, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		f, err := c.compileField(pair.Key, pair.Value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	c.log.Info("schema parsing finished, schema OK")
	return &Schema{fields: fields}, nil
}

func (c *Compiler) compileField(name string, raw any) (Field, error) {
	spec, ok := raw.(string)
	if !ok {
		return Field{}, failure.New(failure.DirectiveFormat, name, fmt.Sprint(raw))
	}
	parts := strings.Split(spec, ":")
	if len(parts) != 2 {
		return Field{}, failure.New(failure.DirectiveFormat, name, spec)
	}
	typ, directive := Type(parts[0]), parts[1]
	if !typ.valid() {
		return Field{}, failure.New(failure.Type, parts[0])
	}

	f := Field{Name: name, Type: typ, Directive: directive}
	if typ == Timestamp {
		if directive != "" {
			c.log.Warn("timestamp type does not accept any values, value ignored", "field", name, "value", directive)
		}
		f.gen = c.now
		return f, nil
	}

	gen, err := resolve(typ, directive)
	if err != nil {
		return Field{}, err
	}
	f.gen = gen
	return f, nil
}

// now returns unix seconds with sub-second precision.
func (c *Compiler) now(*rand.Rand) any {
	return float64(c.cfg.Clock.Now().UnixMicro()) / 1e6
}

// resolve picks the first directive shape that matches: empty, rand,
// bracketed list, rand(a, b), literal.
func resolve(typ Type, directive string) (Generator, error) {
	switch {
	case directive == "":
		if typ == Int {
			return constant(nil), nil
		}
		return constant(""), nil

	case directive == "rand":
		if typ == Int {
			return func(rng *rand.Rand) any { return rng.IntN(randMax + 1) }, nil
		}
		return func(*rand.Rand) any { return uuid.NewString() }, nil

	case len(directive) >= 2 && directive[0] == '[' && directive[len(directive)-1] == ']':
		choices, err := parseList(typ, directive)
		if err != nil {
			return nil, err
		}
		return func(rng *rand.Rand) any { return choices[rng.IntN(len(choices))] }, nil

	case randRangeRE.MatchString(directive):
		if typ != Int {
			return nil, failure.New(failure.Value, directive, typ)
		}
		m := randRangeRE.FindStringSubmatch(directive)
		from, err1 := strconv.Atoi(m[1])
		to, err2 := strconv.Atoi(m[2])
		if err := errors.Join(err1, err2); err != nil {
			return nil, failure.Wrap(failure.Value, err, directive, typ)
		}
		if from > to {
			return nil, failure.New(failure.Value, directive, typ)
		}
		// to-from+1 overflows int when the range covers [0, MaxInt].
		span := uint64(to-from) + 1
		return func(rng *rand.Rand) any { return from + int(rng.Uint64N(span)) }, nil
	}

	if typ == Int {
		n, err := strconv.Atoi(strings.TrimSpace(directive))
		if err != nil {
			return nil, failure.Wrap(failure.Value, err, directive, typ)
		}
		return constant(n), nil
	}
	return constant(directive), nil
}

func parseList(typ Type, directive string) ([]any, error) {
	items := strings.Split(directive[1:len(directive)-1], ",")
	choices := make([]any, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if typ == Int {
			n, err := strconv.Atoi(item)
			if err != nil {
				return nil, failure.Wrap(failure.Value, err, directive, typ)
			}
			choices = append(choices, n)
			continue
		}
		choices = append(choices, strings.Trim(item, quoteChars))
	}
	return choices, nil
}

func constant(v any) Generator {
	return func(*rand.Rand) any { return v }
}
