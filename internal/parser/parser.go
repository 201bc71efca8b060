package parser

import (
	"errors"
	"fmt"
	"os"

	"github.com/KaramelBytes/pubsift-cli/internal/table"
)

// Options controls how a source file is turned into a table.
type Options struct {
	// Delimiter for CSV. If 0, picks '\t' for .tsv and ',' otherwise.
	Delimiter rune
	// SheetName selects an XLSX sheet; empty means the first sheet.
	SheetName string
}

// Parser defines a tabular source reader.
type Parser interface {
	CanParse(filename string) bool
	Parse(content []byte, filename string, opt Options) (*table.Table, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ParseFile selects a parser based on filename and returns the parsed table.
// Files without a recognised extension are read as CSV.
func ParseFile(path string, opt Options) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	for _, p := range registry {
		if p.CanParse(path) {
			return p.Parse(data, path, opt)
		}
	}
	return csvParser{}.Parse(data, path, opt)
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
}

var (
	// ErrUnsupported indicates a format is not supported.
	ErrUnsupported = errors.New("unsupported source format")
	// ErrNoColumns is returned for a source without a header row.
	ErrNoColumns = errors.New("no columns to parse from file")
)

// ParseDelimiter maps a user-facing delimiter name to a rune. The empty
// string means auto.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", "tab":
		return '\t', nil
	default:
		return 0, fmt.Errorf("%w: delimiter %q (use ',' | ';' | 'tab')", ErrUnsupported, s)
	}
}
