package schematic

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
)

// Format renders a schematic in the layout eeschema itself writes.
// Library symbol sources are written as the catalog rendered them,
// re-indented under (lib_symbols ...).
func Format(sch *Schematic) string {
	var b strings.Builder

	version := sch.Version
	if version == 0 {
		version = Version
	}
	generator := sch.Generator
	if generator == "" {
		generator = Generator
	}
	paper := sch.Paper
	if paper == "" {
		paper = DefaultPaper
	}

	fmt.Fprintf(&b, "(kicad_sch (version %d) (generator %s)\n", version, generator)
	fmt.Fprintf(&b, "\n  (uuid %s)\n", sch.UUID)
	fmt.Fprintf(&b, "\n  (paper %s)\n", sexp.Quote(paper))

	// Library symbols
	if len(sch.LibSymbols) == 0 {
		b.WriteString("\n  (lib_symbols)\n")
	} else {
		b.WriteString("\n  (lib_symbols\n")
		for _, ls := range sch.LibSymbols {
			writeIndented(&b, ls.Source, "    ")
		}
		b.WriteString("  )\n")
	}

	for _, w := range sch.Wires {
		writeWire(&b, w)
	}

	for i := range sch.Symbols {
		writeSymbol(&b, &sch.Symbols[i])
	}

	// Sheet instances
	b.WriteString("\n  (sheet_instances\n")
	for _, si := range sch.SheetInstances {
		fmt.Fprintf(&b, "    (path %s (page %s))\n", sexp.Quote(si.Path), sexp.Quote(si.Page))
	}
	b.WriteString("  )\n")

	b.WriteString(")\n")
	return b.String()
}

// writeIndented copies text line by line with the given prefix, dropping
// blank lines and trailing whitespace.
func writeIndented(b *strings.Builder, text, prefix string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

func writeWire(b *strings.Builder, w Wire) {
	points := make([]string, 0, len(w.Points))
	for _, p := range w.Points {
		points = append(points, "(xy "+sexp.FormatXY(p)+")")
	}

	stroke := w.Stroke
	if stroke.Type == "" {
		stroke = sexp.DefaultStroke
	}

	fmt.Fprintf(b, "\n  (wire (pts %s)\n", strings.Join(points, " "))
	fmt.Fprintf(b, "    (stroke (width %s) (type %s))\n", sexp.FormatNumber(stroke.Width), stroke.Type)
	fmt.Fprintf(b, "    (uuid %s)\n", w.UUID)
	b.WriteString("  )\n")
}

func writeSymbol(b *strings.Builder, sym *Symbol) {
	unit := sym.Unit
	if unit == 0 {
		unit = 1
	}
	at := PositionAngle{Position: sym.Position, Angle: sym.Angle}

	fmt.Fprintf(b, "\n  (symbol (lib_id %s) (at %s) (unit %d)\n", sexp.Quote(sym.LibID), sexp.FormatAt(at), unit)
	fmt.Fprintf(b, "    (in_bom %s) (on_board %s) (dnp %s) (fields_autoplaced)\n",
		sexp.FormatBool(sym.InBom), sexp.FormatBool(sym.OnBoard), sexp.FormatBool(sym.DNP))
	fmt.Fprintf(b, "    (uuid %s)\n", sym.UUID)

	for _, p := range sym.Properties {
		writeProperty(b, p)
	}

	for _, pin := range sym.Pins {
		fmt.Fprintf(b, "    (pin %s (uuid %s))\n", sexp.Quote(pin.Number), pin.UUID)
	}

	if len(sym.Instances) > 0 {
		b.WriteString("    (instances\n")
		for _, inst := range sym.Instances {
			instUnit := inst.Unit
			if instUnit == 0 {
				instUnit = 1
			}
			fmt.Fprintf(b, "      (project %s\n", sexp.Quote(inst.Project))
			fmt.Fprintf(b, "        (path %s (reference %s) (unit %d))\n",
				sexp.Quote(inst.Path), sexp.Quote(inst.Reference), instUnit)
			b.WriteString("      )\n")
		}
		b.WriteString("    )\n")
	}

	b.WriteString("  )\n")
}

func writeProperty(b *strings.Builder, p Property) {
	size := p.Effects.Font.Size
	if size.Width == 0 && size.Height == 0 {
		size = sexp.DefaultEffects.Font.Size
	}
	hide := ""
	if p.Effects.Hide {
		hide = " hide"
	}

	fmt.Fprintf(b, "    (property %s %s (at %s)\n", sexp.Quote(p.Key), sexp.Quote(p.Value), sexp.FormatAt(p.Position))
	fmt.Fprintf(b, "      (effects (font (size %s %s))%s)\n",
		sexp.FormatNumber(size.Width), sexp.FormatNumber(size.Height), hide)
	b.WriteString("    )\n")
}
