package sexp

import (
	"math"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp/kicadsexp"
)

// RoundMM rounds a millimetre value to the 0.1 µm resolution KiCad keeps.
func RoundMM(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		// Normalize -0
		return 0
	}
	return r
}

// FormatNumber writes a coordinate the way KiCad does: shortest decimal
// form, no exponent, no trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(RoundMM(v), 'f', -1, 64)
}

// FormatXY writes "X Y".
func FormatXY(p Position) string {
	return FormatNumber(p.X) + " " + FormatNumber(p.Y)
}

// FormatAt writes "X Y ANGLE" for an (at ...) node.
func FormatAt(p PositionAngle) string {
	return FormatXY(p.Position) + " " + FormatNumber(float64(p.Angle))
}

// FormatBool writes KiCad's yes/no booleans.
func FormatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Quote returns s as a KiCad quoted string.
func Quote(s string) string {
	return kicadsexp.Quote(s)
}

const inlineWidth = 72

// Pretty writes a tree in KiCad's indented layout: short lists stay on one
// line, longer lists put each child list on its own line. Every line is
// prefixed with depth copies of indent.
func Pretty(node kicadsexp.Sexp, indent string, depth int) string {
	var b strings.Builder
	writePretty(&b, node, indent, depth)
	return b.String()
}

func writePretty(b *strings.Builder, node kicadsexp.Sexp, indent string, depth int) {
	prefix := strings.Repeat(indent, depth)

	list, ok := node.(*kicadsexp.List)
	if !ok || fitsInline(list) {
		b.WriteString(prefix)
		b.WriteString(node.String())
		return
	}

	elems := list.Elements()
	b.WriteString(prefix)
	b.WriteByte('(')

	// Leading atoms stay on the opening line
	i := 0
	for ; i < len(elems) && elems[i].IsLeaf(); i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(elems[i].String())
	}

	for ; i < len(elems); i++ {
		b.WriteByte('\n')
		writePretty(b, elems[i], indent, depth+1)
	}

	b.WriteByte('\n')
	b.WriteString(prefix)
	b.WriteByte(')')
}

func fitsInline(list *kicadsexp.List) bool {
	return nesting(list) <= 3 && len(list.String()) <= inlineWidth
}

func nesting(node kicadsexp.Sexp) int {
	list, ok := node.(*kicadsexp.List)
	if !ok {
		return 0
	}
	deepest := 0
	for _, e := range list.Elements() {
		if d := nesting(e); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}
