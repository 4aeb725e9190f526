// Package kicadsexp provides a lightweight streaming S-expression reader
// for KiCad documents (.kicad_sch, .kicad_sym). Atoms keep track of whether
// they were quoted in the source so that a tree can be written back out
// without changing its meaning.
package kicadsexp

import (
	"io"
	"strings"
)

// Sexp represents an S-expression node.
// It can be either a leaf (atom) or a list.
type Sexp interface {
	// IsLeaf returns true if this is an atom (not a list)
	IsLeaf() bool

	// LeafCount returns the number of elements in a list (1 for atoms)
	LeafCount() int

	// Head returns the first element of a list (the atom itself for atoms)
	Head() Sexp

	// Tail returns the rest of the list after the first element (nil for atoms)
	Tail() Sexp

	// String returns the S-expression text of the node
	String() string
}

// Symbol is a bare atom: keyword, number or unquoted identifier.
type Symbol string

func (s Symbol) IsLeaf() bool   { return true }
func (s Symbol) LeafCount() int { return 1 }
func (s Symbol) Head() Sexp     { return s }
func (s Symbol) Tail() Sexp     { return nil }
func (s Symbol) String() string { return string(s) }

// Quoted is an atom that appeared between double quotes. Its value is
// stored unescaped; String re-quotes it.
type Quoted string

func (q Quoted) IsLeaf() bool   { return true }
func (q Quoted) LeafCount() int { return 1 }
func (q Quoted) Head() Sexp     { return q }
func (q Quoted) Tail() Sexp     { return nil }
func (q Quoted) String() string { return Quote(string(q)) }

// List represents a list of S-expressions
type List struct {
	elements []Sexp
}

// NewList builds a list from the given elements.
func NewList(elements ...Sexp) *List {
	return &List{elements: elements}
}

func (l *List) IsLeaf() bool { return false }

func (l *List) LeafCount() int {
	return len(l.elements)
}

func (l *List) Head() Sexp {
	if len(l.elements) == 0 {
		return nil
	}
	return l.elements[0]
}

func (l *List) Tail() Sexp {
	if len(l.elements) <= 1 {
		return nil
	}
	return &List{elements: l.elements[1:]}
}

func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, elem := range l.elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(elem.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Get returns the element at the given index
func (l *List) Get(index int) Sexp {
	if index < 0 || index >= len(l.elements) {
		return nil
	}
	return l.elements[index]
}

// Len returns the number of elements in the list
func (l *List) Len() int {
	return len(l.elements)
}

// Elements returns a copy of the list elements.
func (l *List) Elements() []Sexp {
	out := make([]Sexp, len(l.elements))
	copy(out, l.elements)
	return out
}

// Atom returns the text of a Symbol or Quoted node.
// The second result is false for lists and nil.
func Atom(s Sexp) (string, bool) {
	switch v := s.(type) {
	case Symbol:
		return string(v), true
	case Quoted:
		return string(v), true
	}
	return "", false
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// Quote returns s as a KiCad quoted string.
func Quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

// Parse parses all top-level S-expressions from an io.Reader.
func Parse(r io.Reader) ([]Sexp, error) {
	parser := NewParser(r)
	return parser.ParseAll()
}

// ParseString parses S-expressions from a string (convenience function)
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}

// ParseOne parses input that must hold exactly one top-level list.
func ParseOne(r io.Reader) (*List, error) {
	exprs, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if len(exprs) != 1 {
		return nil, &SyntaxError{Line: 1, Col: 1, Msg: "expected exactly one top-level expression"}
	}
	list, ok := exprs[0].(*List)
	if !ok {
		return nil, &SyntaxError{Line: 1, Col: 1, Msg: "top-level expression is not a list"}
	}
	return list, nil
}
