package design

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/OpenTraceLab/viscosimeter/pkg/catalog"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
)

// Parser reads circuit description files.
type Parser struct {
	parser *participle.Parser[File]
}

// NewParser creates a new description parser.
func NewParser() (*Parser, error) {
	parser, err := participle.Build[File](
		participle.Lexer(DesignLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	return &Parser{parser: parser}, nil
}

// Parse reads a description from r. The name is used in error positions.
func (p *Parser) Parse(name string, r io.Reader) (*Spec, error) {
	file, err := p.parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return file.Spec()
}

// ParseString reads a description from a string.
func (p *Parser) ParseString(name, input string) (*Spec, error) {
	return p.Parse(name, strings.NewReader(input))
}

// ParseFile reads a description from a file path.
func (p *Parser) ParseFile(filename string) (*Spec, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(filename, file)
}

// Parse reads a description with a freshly built parser.
func Parse(name string, r io.Reader) (*Spec, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	return p.Parse(name, r)
}

// ParseFile reads a description file with a freshly built parser.
func ParseFile(filename string) (*Spec, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	return p.ParseFile(filename)
}

// Spec converts the syntax tree into a Spec, checking what the grammar
// cannot: library ids and duplicate part options.
func (f *File) Spec() (*Spec, error) {
	spec := &Spec{Name: f.Name}

	for _, st := range f.Statements {
		switch {
		case st.Net != nil:
			spec.Nets = append(spec.Nets, NetSpec{Name: st.Net.Name, Power: st.Net.Power})

		case st.Part != nil:
			part, err := st.Part.spec()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", st.Pos, err)
			}
			spec.Parts = append(spec.Parts, part)

		case st.Bind != nil:
			spec.Connections = append(spec.Connections, Connection{
				Pin: st.Bind.Pin.spec(),
				Net: st.Bind.Net,
			})

		case st.Join != nil:
			spec.Connections = append(spec.Connections, Connection{
				Pin:   st.Join.A.spec(),
				Other: st.Join.B.spec(),
			})

		case st.Wire != nil:
			spec.Wires = append(spec.Wires, WireSpec{
				Net:  st.Wire.Net,
				From: st.Wire.From.spec(),
				To:   st.Wire.To.spec(),
			})

		case st.Flag != nil:
			spec.Flags = append(spec.Flags, FlagSpec{
				Net: st.Flag.Net,
				At:  st.Flag.At.position(),
			})
		}
	}

	return spec, nil
}

func (d *PartDecl) spec() (PartSpec, error) {
	library, name, err := catalog.SplitLibID(d.LibID)
	if err != nil {
		return PartSpec{}, err
	}
	part := PartSpec{Handle: d.Handle, Library: library, Name: name}

	seen := make(map[string]bool)
	once := func(option string) error {
		if seen[option] {
			return fmt.Errorf("part %s: %s given twice", d.Handle, option)
		}
		seen[option] = true
		return nil
	}

	for _, opt := range d.Options {
		switch {
		case opt.Value != nil:
			if err := once("value"); err != nil {
				return PartSpec{}, err
			}
			part.Value = *opt.Value
		case opt.Footprint != nil:
			if err := once("footprint"); err != nil {
				return PartSpec{}, err
			}
			part.Footprint = *opt.Footprint
		case opt.At != nil:
			if err := once("at"); err != nil {
				return PartSpec{}, err
			}
			pos := opt.At.position()
			part.At = &pos
		}
	}
	return part, nil
}

func (p *PinRef) spec() PinSpec {
	return PinSpec{Handle: p.Handle, Pin: p.Pin}
}

func (p *Point) position() sexp.Position {
	return sexp.Position{X: p.X, Y: p.Y}
}
