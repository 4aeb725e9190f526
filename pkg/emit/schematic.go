package emit

import (
	"fmt"
	"slices"

	"github.com/OpenTraceLab/viscosimeter/pkg/circuit"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/schematic"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
)

// Property offsets relative to the symbol anchor.
const (
	referenceOffset = -7.62
	valueOffset     = 7.62
)

// WireEndpointError reports a wire endpoint whose pin is not a member of
// the wire's net.
type WireEndpointError struct {
	Net    string
	Ref    string
	Pin    string
	Actual string // net the pin is on, "" when unbound
}

func (e *WireEndpointError) Error() string {
	if e.Actual == "" {
		return fmt.Sprintf("emit: wire on %q ends at %s.%s, which is unconnected", e.Net, e.Ref, e.Pin)
	}
	return fmt.Sprintf("emit: wire on %q ends at %s.%s, which is on %q", e.Net, e.Ref, e.Pin, e.Actual)
}

// Schematic converts a circuit into a schematic document with fresh
// identifiers.
func (e *Emitter) Schematic(c *circuit.Circuit) (*schematic.Schematic, error) {
	ids := newIDPool(e.opts.IDs)
	project := e.project(c)

	rootID, err := ids.next()
	if err != nil {
		return nil, err
	}
	doc := &schematic.Schematic{
		Version:        schematic.Version,
		Generator:      schematic.Generator,
		UUID:           rootID,
		Paper:          e.opts.Paper,
		SheetInstances: []schematic.SheetInstance{{Path: "/", Page: "1"}},
	}

	// Library symbols, one per distinct template in first-use order.
	for _, comp := range c.Components {
		libID := comp.LibID()
		if doc.GetLibSymbol(libID) != nil {
			continue
		}
		doc.LibSymbols = append(doc.LibSymbols, schematic.LibSymbol{
			Name:   libID,
			Source: comp.Template.Symbol,
		})
	}

	for _, net := range c.Nets {
		for _, seg := range net.Wires {
			wires, err := e.route(c, net, seg, ids)
			if err != nil {
				return nil, err
			}
			doc.Wires = append(doc.Wires, wires...)
		}
	}

	for _, comp := range c.Components {
		sym, err := e.symbol(comp, project, ids)
		if err != nil {
			return nil, err
		}
		doc.Symbols = append(doc.Symbols, sym)
	}

	return doc, nil
}

func (e *Emitter) symbol(comp *circuit.Component, project string, ids *idPool) (schematic.Symbol, error) {
	id, err := ids.next()
	if err != nil {
		return schematic.Symbol{}, err
	}
	pos := comp.Position
	sym := schematic.Symbol{
		LibID:    comp.LibID(),
		Position: pos,
		Unit:     1,
		InBom:    true,
		OnBoard:  true,
		UUID:     id,
		Instances: []schematic.SymbolInstance{{
			Project:   project,
			Path:      "/",
			Reference: comp.Ref,
			Unit:      1,
		}},
	}

	ref := property("Reference", comp.Ref, sexp.Position{X: pos.X, Y: pos.Y + referenceOffset})
	ref.Effects.Hide = comp.Template.Power
	sym.Properties = append(sym.Properties,
		ref,
		property("Value", comp.Value, sexp.Position{X: pos.X, Y: pos.Y + valueOffset}),
		hidden(property("Footprint", comp.Footprint, pos)),
	)
	if ds := comp.Template.Datasheet; ds != "" && ds != "~" {
		sym.Properties = append(sym.Properties, hidden(property("Datasheet", ds, pos)))
	}

	for _, p := range comp.Pins {
		pid, err := ids.next()
		if err != nil {
			return schematic.Symbol{}, err
		}
		sym.Pins = append(sym.Pins, schematic.PinRef{Number: p.Number, UUID: pid})
	}
	return sym, nil
}

func property(key, value string, at sexp.Position) sexp.Property {
	return sexp.Property{
		Key:      key,
		Value:    value,
		Position: sexp.PositionAngle{Position: sexp.Position{X: sexp.RoundMM(at.X), Y: sexp.RoundMM(at.Y)}},
		Effects:  sexp.DefaultEffects,
	}
}

func hidden(p sexp.Property) sexp.Property {
	p.Effects.Hide = true
	return p
}

// route turns a requested segment into one or two axis-aligned wires,
// going vertical first from the start pin.
func (e *Emitter) route(c *circuit.Circuit, net *circuit.Net, seg circuit.Segment, ids *idPool) ([]schematic.Wire, error) {
	from, err := endpoint(c, net, seg.From)
	if err != nil {
		return nil, err
	}
	to, err := endpoint(c, net, seg.To)
	if err != nil {
		return nil, err
	}

	points := []sexp.Position{from}
	if from.X != to.X && from.Y != to.Y {
		points = append(points, sexp.Position{X: from.X, Y: to.Y})
	}
	points = append(points, to)

	var wires []schematic.Wire
	for i := 0; i+1 < len(points); i++ {
		if points[i] == points[i+1] {
			continue
		}
		id, err := ids.next()
		if err != nil {
			return nil, err
		}
		wires = append(wires, schematic.Wire{
			Points: []sexp.Position{points[i], points[i+1]},
			Stroke: sexp.DefaultStroke,
			UUID:   id,
		})
	}
	return wires, nil
}

// endpoint resolves a wire end to the sheet position of a pin on net.
func endpoint(c *circuit.Circuit, net *circuit.Net, ref circuit.PinRef) (sexp.Position, error) {
	comp := c.Component(ref.Ref)
	if comp == nil {
		return sexp.Position{}, &circuit.UnknownComponentError{Ref: ref.Ref}
	}
	pins := comp.ResolvePins(ref.Pin)
	if len(pins) == 0 {
		return sexp.Position{}, &circuit.UnknownPinError{Ref: ref.Ref, Pin: ref.Pin, LibID: comp.LibID()}
	}
	for _, p := range pins {
		if p.Net == net {
			return p.SheetPosition(), nil
		}
	}
	werr := &WireEndpointError{Net: net.Name, Ref: ref.Ref, Pin: ref.Pin}
	if pins[0].Net != nil {
		werr.Actual = pins[0].Net.Name
	}
	return sexp.Position{}, werr
}

func (e *Emitter) schematicText(c *circuit.Circuit) (string, error) {
	doc, err := e.Schematic(c)
	if err != nil {
		return "", err
	}
	text := schematic.Format(doc)
	if err := verifySchematic(text, doc); err != nil {
		return "", err
	}
	return text, nil
}

// verifySchematic reads text back and checks it against the document it
// was rendered from.
func verifySchematic(text string, doc *schematic.Schematic) error {
	back, err := schematic.ParseString(text)
	if err != nil {
		return fmt.Errorf("emit: generated schematic does not parse: %w", err)
	}

	libNames := func(s *schematic.Schematic) []string {
		names := make([]string, 0, len(s.LibSymbols))
		for _, l := range s.LibSymbols {
			names = append(names, l.Name)
		}
		return names
	}
	if got, want := libNames(back), libNames(doc); !slices.Equal(got, want) {
		return fmt.Errorf("emit: generated schematic embeds %v, expected %v", got, want)
	}
	if got, want := back.GetAllReferences(), doc.GetAllReferences(); !slices.Equal(got, want) {
		return fmt.Errorf("emit: generated schematic places %v, expected %v", got, want)
	}
	for _, sym := range back.Symbols {
		if back.GetLibSymbol(sym.LibID) == nil {
			return fmt.Errorf("emit: symbol %s uses %s, which is not embedded", sym.Reference(), sym.LibID)
		}
	}
	if len(back.Wires) != len(doc.Wires) {
		return fmt.Errorf("emit: generated schematic has %d wires, expected %d", len(back.Wires), len(doc.Wires))
	}
	return nil
}
