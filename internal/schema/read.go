package schema

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tckz/go-jsonl-gen/internal/failure"
)

const fileExt = ".json"

func isSchemaFile(input string) bool {
	return strings.HasSuffix(input, fileExt)
}

// Read returns the schema text for input. Input ending in .json is a path to
// a schema file, relative paths resolved against the working directory;
// anything else is taken as inline schema text.
func Read(input string) ([]byte, error) {
	if !isSchemaFile(input) {
		return []byte(input), nil
	}
	path, err := filepath.Abs(input)
	if err != nil {
		return nil, failure.Wrap(failure.FileNotFound, err, input)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.Wrap(failure.FileNotFound, err, path)
	}
	return b, nil
}
