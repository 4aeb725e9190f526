// Package design describes circuits declaratively and drives the circuit
// builder from those descriptions. A Spec can be written as a Go literal
// (see Viscosimeter) or parsed from the small text format read by Parse.
package design

import (
	"fmt"

	"github.com/OpenTraceLab/viscosimeter/pkg/catalog"
	"github.com/OpenTraceLab/viscosimeter/pkg/circuit"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
)

// Spec is a complete circuit description.
type Spec struct {
	Name        string
	Nets        []NetSpec
	Parts       []PartSpec
	Connections []Connection // applied in order
	Wires       []WireSpec
	Flags       []FlagSpec
}

// NetSpec declares a net.
type NetSpec struct {
	Name  string
	Power bool
}

// PartSpec places a catalog part. Handle is the name other statements use
// to refer to the part; the reference designator is assigned on build.
type PartSpec struct {
	Handle    string
	Library   string
	Name      string
	Value     string         // empty for the template default
	Footprint string         // empty for the template default
	At        *sexp.Position // nil for automatic placement
}

// PinSpec addresses a pin through a part handle.
type PinSpec struct {
	Handle string
	Pin    string // number or name
}

func (p PinSpec) String() string {
	return p.Handle + "." + p.Pin
}

// Connection either binds a pin to a named net or joins two pins.
type Connection struct {
	Pin   PinSpec
	Net   string  // bind target, empty for a join
	Other PinSpec // join partner
}

// IsJoin reports whether the connection is pin-to-pin.
func (c Connection) IsJoin() bool {
	return c.Net == ""
}

// Bind returns a connection attaching handle.pin to net.
func Bind(handle, pin, net string) Connection {
	return Connection{Pin: PinSpec{Handle: handle, Pin: pin}, Net: net}
}

// Join returns a connection putting two pins on the same net.
func Join(handleA, pinA, handleB, pinB string) Connection {
	return Connection{
		Pin:   PinSpec{Handle: handleA, Pin: pinA},
		Other: PinSpec{Handle: handleB, Pin: pinB},
	}
}

// WireSpec requests an explicit wire between two pins of a net.
type WireSpec struct {
	Net  string
	From PinSpec
	To   PinSpec
}

// FlagSpec places a power flag on a net.
type FlagSpec struct {
	Net string
	At  sexp.Position
}

// UnknownHandleError reports a statement naming a part that was never
// declared.
type UnknownHandleError struct {
	Handle string
}

func (e *UnknownHandleError) Error() string {
	return fmt.Sprintf("design: unknown part handle %q", e.Handle)
}

// Build constructs the circuit described by spec, resolving parts through
// cat. Fatal construction errors are returned as-is (wrapped); unbound pin
// warnings are reported on the circuit.
func Build(spec *Spec, cat catalog.PartCatalog, opts circuit.Options) (*circuit.Circuit, error) {
	b := circuit.NewBuilder(spec.Name, cat, opts)

	for _, n := range spec.Nets {
		class := circuit.SignalNet
		if n.Power {
			class = circuit.PowerNet
		}
		if _, err := b.AddNet(n.Name, class); err != nil {
			return nil, fmt.Errorf("design: %w", err)
		}
	}

	refs := make(map[string]string, len(spec.Parts))
	for _, p := range spec.Parts {
		if _, dup := refs[p.Handle]; dup {
			return nil, fmt.Errorf("design: part handle %q declared twice", p.Handle)
		}
		comp, err := b.AddPart(circuit.PartRequest{
			Library:   p.Library,
			Name:      p.Name,
			Value:     p.Value,
			Footprint: p.Footprint,
			At:        p.At,
		})
		if err != nil {
			return nil, fmt.Errorf("design: part %s: %w", p.Handle, err)
		}
		refs[p.Handle] = comp.Ref
	}

	resolve := func(p PinSpec) (circuit.PinRef, error) {
		ref, ok := refs[p.Handle]
		if !ok {
			return circuit.PinRef{}, &UnknownHandleError{Handle: p.Handle}
		}
		return circuit.PinRef{Ref: ref, Pin: p.Pin}, nil
	}

	for _, conn := range spec.Connections {
		a, err := resolve(conn.Pin)
		if err != nil {
			return nil, err
		}
		if !conn.IsJoin() {
			if err := b.Bind(a.Ref, a.Pin, conn.Net); err != nil {
				return nil, fmt.Errorf("design: bind %s to %s: %w", conn.Pin, conn.Net, err)
			}
			continue
		}
		z, err := resolve(conn.Other)
		if err != nil {
			return nil, err
		}
		if err := b.Join(a, z); err != nil {
			return nil, fmt.Errorf("design: join %s to %s: %w", conn.Pin, conn.Other, err)
		}
	}

	for _, w := range spec.Wires {
		from, err := resolve(w.From)
		if err != nil {
			return nil, err
		}
		to, err := resolve(w.To)
		if err != nil {
			return nil, err
		}
		if err := b.DrawWire(w.Net, from, to); err != nil {
			return nil, fmt.Errorf("design: wire on %s: %w", w.Net, err)
		}
	}

	for _, f := range spec.Flags {
		if _, err := b.AddPowerFlag(f.Net, f.At); err != nil {
			return nil, fmt.Errorf("design: flag on %s: %w", f.Net, err)
		}
	}

	return b.Build()
}
