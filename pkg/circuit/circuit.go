// Package circuit holds the in-memory circuit graph: components placed
// from catalog templates and the nets joining their pins.
package circuit

import (
	"fmt"

	"github.com/OpenTraceLab/viscosimeter/pkg/catalog"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
)

// NetClass separates supply rails from signal nets.
type NetClass int

const (
	SignalNet NetClass = iota
	PowerNet
)

func (c NetClass) String() string {
	if c == PowerNet {
		return "power"
	}
	return "signal"
}

// Circuit is a complete, connected design ready for emission.
type Circuit struct {
	Name       string
	Nets       []*Net       // creation order
	Components []*Component // creation order
	Warnings   []UnboundPinWarning

	nets  map[string]*Net
	comps map[string]*Component
}

// Net is a named electrical connection.
type Net struct {
	Name      string
	Class     NetClass
	Anonymous bool      // created implicitly by a pin-to-pin join
	Pins      []*Pin    // attachment order
	Wires     []Segment // explicit visual wires, empty for label-only nets
}

// Drawn reports whether the net asks for explicit wires in the schematic.
func (n *Net) Drawn() bool {
	return len(n.Wires) > 0
}

// Segment is a requested wire between two component pins.
type Segment struct {
	From PinRef
	To   PinRef
}

// PinRef names a pin of a component by reference designator and pin id.
type PinRef struct {
	Ref string
	Pin string
}

func (r PinRef) String() string {
	return r.Ref + "." + r.Pin
}

// Component is a placed instance of a template.
type Component struct {
	Ref       string
	Template  *catalog.Template
	Value     string
	Footprint string
	Position  sexp.Position
	Pins      []*Pin // template order
}

// LibID returns the template's "Library:Name".
func (c *Component) LibID() string {
	return c.Template.LibID()
}

// Pin returns the pin with the given number.
func (c *Component) Pin(number string) *Pin {
	for _, p := range c.Pins {
		if p.Number == number {
			return p
		}
	}
	return nil
}

// ResolvePins maps a pin identifier to pins, by number first and then by
// name.
func (c *Component) ResolvePins(id string) []*Pin {
	defs := c.Template.ResolvePins(id)
	pins := make([]*Pin, 0, len(defs))
	for _, d := range defs {
		if p := c.Pin(d.Number); p != nil {
			pins = append(pins, p)
		}
	}
	return pins
}

// Pin is one pin of a placed component.
type Pin struct {
	Component *Component
	Number    string
	Name      string
	Type      catalog.PinType
	Net       *Net // nil while unbound
}

func (p *Pin) String() string {
	if p.Name != "" && p.Name != p.Number {
		return fmt.Sprintf("%s.%s (%s)", p.Component.Ref, p.Number, p.Name)
	}
	return p.Component.Ref + "." + p.Number
}

// SheetPosition returns the pin's connection point on the sheet. Library
// symbols use Y up, the sheet uses Y down.
func (p *Pin) SheetPosition() sexp.Position {
	for _, d := range p.Component.Template.Pins {
		if d.Number == p.Number {
			return sexp.Position{
				X: sexp.RoundMM(p.Component.Position.X + d.At.X),
				Y: sexp.RoundMM(p.Component.Position.Y - d.At.Y),
			}
		}
	}
	return p.Component.Position
}

// Net looks a net up by name.
func (c *Circuit) Net(name string) *Net {
	return c.nets[name]
}

// Component looks a component up by reference designator.
func (c *Circuit) Component(ref string) *Component {
	return c.comps[ref]
}

// NetNames returns the net names in creation order.
func (c *Circuit) NetNames() []string {
	names := make([]string, 0, len(c.Nets))
	for _, n := range c.Nets {
		names = append(names, n.Name)
	}
	return names
}

// Extent returns the bounding box of all component positions.
func (c *Circuit) Extent() sexp.BoundingBox {
	bb := sexp.NewBoundingBox()
	for _, comp := range c.Components {
		bb.Expand(comp.Position)
	}
	return bb
}
