package syntax

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DelimiterPair holds the start and end tokens of a block construct.
type DelimiterPair struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Definition describes how one language is highlighted. Definitions are
// loaded from syntax.d YAML files or compiled in (see builtin.go) and are
// treated as read-only once handed to the line engine.
type Definition struct {
	// Name is shown in the status bar.
	Name string `yaml:"name"`
	// Extensions lists the file extensions, without the leading dot, that
	// select this definition.
	Extensions []string `yaml:"extensions"`
	// Numbers enables numeric literal highlighting.
	Numbers bool `yaml:"numbers"`
	// LineComments lists tokens that start a comment running to end-of-line.
	LineComments []string `yaml:"line_comments"`
	// BlockComment delimits comments that may span lines. Nil disables them.
	BlockComment *DelimiterPair `yaml:"block_comment"`
	// BlockString is the delimiter of strings that may span lines, used for
	// both ends (e.g. Go's backquote). Empty disables them.
	BlockString string `yaml:"block_string"`
	// Quotes holds the single-line string quote characters, one byte each.
	Quotes string `yaml:"quotes"`
	// Keywords1 and Keywords2 are the two keyword groups, highlighted with
	// ClassKeyword1 and ClassKeyword2 respectively.
	Keywords1 []string `yaml:"keywords1"`
	Keywords2 []string `yaml:"keywords2"`
}

// Plain returns the definition used when no language matches: no comments,
// no strings, no keywords, so every byte tokenizes as Normal.
func Plain() *Definition { return &Definition{} }

type keywordGroup struct {
	class Class
	words []string
}

func (d *Definition) keywordGroups() [2]keywordGroup {
	return [2]keywordGroup{
		{ClassKeyword1, d.Keywords1},
		{ClassKeyword2, d.Keywords2},
	}
}

// blockStringDelims widens the single block-string delimiter into the pair
// shape the tokenizer works with, or nil when block strings are disabled.
func (d *Definition) blockStringDelims() *DelimiterPair {
	if d.BlockString == "" {
		return nil
	}
	return &DelimiterPair{Start: d.BlockString, End: d.BlockString}
}

// Matches reports whether the definition applies to the given file name,
// based on its extension.
func (d *Definition) Matches(filename string) bool {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return false
	}
	for _, e := range d.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Validate rejects definitions that would corrupt the tokenizer scan. An
// empty line-comment token or block delimiter matches at every position and
// would classify entire files, so they are configuration errors.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("syntax definition: name is required")
	}
	if len(d.Extensions) == 0 {
		return fmt.Errorf("syntax definition %q: at least one extension is required", d.Name)
	}
	for i, ext := range d.Extensions {
		if ext == "" || strings.HasPrefix(ext, ".") {
			return fmt.Errorf("syntax definition %q: extension %d must be a bare extension, got %q", d.Name, i, ext)
		}
	}
	for _, tok := range d.LineComments {
		if tok == "" {
			return fmt.Errorf("syntax definition %q: line comment tokens must not be empty", d.Name)
		}
	}
	if d.BlockComment != nil && (d.BlockComment.Start == "" || d.BlockComment.End == "") {
		return fmt.Errorf("syntax definition %q: block comment needs both start and end delimiters", d.Name)
	}
	for i := 0; i < len(d.Quotes); i++ {
		if q := d.Quotes[i]; q < '!' || q > '~' {
			return fmt.Errorf("syntax definition %q: quote characters must be printable ASCII, got %q", d.Name, q)
		}
	}
	return nil
}
