package circuit

import (
	"fmt"
	"strconv"

	"github.com/OpenTraceLab/viscosimeter/pkg/catalog"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
)

// Power flag template, placed only when Options.PowerFlags is set.
const (
	PowerFlagLibrary = "power"
	PowerFlagName    = "PWR_FLAG"
)

// Automatic placement layout for parts without a position.
const (
	autoPitch   = 2 * sexp.InchMM
	autoPerRow  = 8
	autoMarginY = 2 * sexp.InchMM
)

// Options configures a Builder.
type Options struct {
	// PowerFlags places the PWR_FLAG symbols requested with AddPowerFlag.
	// When false those requests are ignored.
	PowerFlags bool
}

// PartRequest describes one component to place.
type PartRequest struct {
	Library   string
	Name      string
	Value     string         // defaults to the template name
	Footprint string         // defaults to the template footprint
	At        *sexp.Position // nil places the part automatically
}

// Builder assembles a Circuit. It resolves templates through the injected
// catalog, numbers reference designators per prefix and keeps every pin
// on at most one net. It performs no I/O of its own.
type Builder struct {
	catalog  catalog.PartCatalog
	opts     Options
	circuit  *Circuit
	counters map[string]int
	unplaced []*Component
	built    bool
}

// NewBuilder creates a builder for a circuit called name.
func NewBuilder(name string, cat catalog.PartCatalog, opts Options) *Builder {
	return &Builder{
		catalog: cat,
		opts:    opts,
		circuit: &Circuit{
			Name:  name,
			nets:  make(map[string]*Net),
			comps: make(map[string]*Component),
		},
		counters: make(map[string]int),
	}
}

// AddNet declares a named net.
func (b *Builder) AddNet(name string, class NetClass) (*Net, error) {
	if name == "" {
		return nil, fmt.Errorf("circuit: empty net name")
	}
	if _, exists := b.circuit.nets[name]; exists {
		return nil, &DuplicateNetError{Name: name}
	}

	net := &Net{Name: name, Class: class}
	b.circuit.nets[name] = net
	b.circuit.Nets = append(b.circuit.Nets, net)
	return net, nil
}

// AddPart instantiates a template and assigns it the next reference
// designator for its prefix (R1, R2, ...).
func (b *Builder) AddPart(req PartRequest) (*Component, error) {
	tmpl, err := b.catalog.Lookup(req.Library, req.Name)
	if err != nil {
		return nil, fmt.Errorf("circuit: placing %s:%s: %w", req.Library, req.Name, err)
	}

	b.counters[tmpl.RefPrefix]++
	comp := &Component{
		Ref:       tmpl.RefPrefix + strconv.Itoa(b.counters[tmpl.RefPrefix]),
		Template:  tmpl,
		Value:     req.Value,
		Footprint: req.Footprint,
	}
	if comp.Value == "" {
		comp.Value = tmpl.Name
	}
	if comp.Footprint == "" {
		comp.Footprint = tmpl.Footprint
	}

	if req.At != nil {
		comp.Position = sexp.Position{X: sexp.RoundMM(req.At.X), Y: sexp.RoundMM(req.At.Y)}
	} else {
		b.unplaced = append(b.unplaced, comp)
	}

	for _, def := range tmpl.Pins {
		comp.Pins = append(comp.Pins, &Pin{
			Component: comp,
			Number:    def.Number,
			Name:      def.Name,
			Type:      def.Type,
		})
	}

	b.circuit.comps[comp.Ref] = comp
	b.circuit.Components = append(b.circuit.Components, comp)
	return comp, nil
}

// Bind attaches the pins matching pinID on component ref to the named net.
// A pin name shared by several pins binds all of them. Nothing is
// attached when any matched pin is already on a net.
func (b *Builder) Bind(ref, pinID, netName string) error {
	net, ok := b.circuit.nets[netName]
	if !ok {
		return &UnknownNetError{Name: netName}
	}

	pins, err := b.resolve(PinRef{Ref: ref, Pin: pinID})
	if err != nil {
		return err
	}

	for _, p := range pins {
		if p.Net != nil {
			return &DuplicatePinBindingError{Ref: ref, Pin: p.Number, Existing: p.Net.Name, Net: netName}
		}
	}

	attach(net, pins)
	return nil
}

// Join connects two pins directly. The pins end up on the net one of them
// is already on; when neither is bound an anonymous net named after the
// first pin is created, following KiCad's Net-(REF-PadN) convention.
// A declared net already holding that name is left alone.
func (b *Builder) Join(a, z PinRef) error {
	left, err := b.resolve(a)
	if err != nil {
		return err
	}
	right, err := b.resolve(z)
	if err != nil {
		return err
	}

	var target *Net
	for _, p := range append(append([]*Pin{}, left...), right...) {
		if p.Net == nil {
			continue
		}
		if target == nil {
			target = p.Net
			continue
		}
		if p.Net != target {
			return &DuplicatePinBindingError{Ref: p.Component.Ref, Pin: p.Number, Existing: p.Net.Name, Net: target.Name}
		}
	}

	if target == nil {
		target, err = b.AddNet(b.anonymousName(a.Ref, left[0].Number), SignalNet)
		if err != nil {
			return err
		}
		target.Anonymous = true
	}

	attach(target, unbound(left))
	attach(target, unbound(right))
	return nil
}

// anonymousName returns "Net-(REF-PadN)", suffixed with -2, -3, ... when
// a net of that name already exists.
func (b *Builder) anonymousName(ref, pad string) string {
	base := fmt.Sprintf("Net-(%s-Pad%s)", ref, pad)
	name := base
	for i := 2; ; i++ {
		if _, taken := b.circuit.nets[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s-%d", base, i)
	}
}

// DrawWire asks for an explicit wire on net between two pins. Endpoints
// are resolved when the schematic is emitted.
func (b *Builder) DrawWire(netName string, from, to PinRef) error {
	net, ok := b.circuit.nets[netName]
	if !ok {
		return &UnknownNetError{Name: netName}
	}
	net.Wires = append(net.Wires, Segment{From: from, To: to})
	return nil
}

// AddPowerFlag places a PWR_FLAG symbol on a net at the given sheet
// position. It returns nil without error when power flags are disabled.
func (b *Builder) AddPowerFlag(netName string, at sexp.Position) (*Component, error) {
	if !b.opts.PowerFlags {
		return nil, nil
	}
	if _, ok := b.circuit.nets[netName]; !ok {
		return nil, &UnknownNetError{Name: netName}
	}

	flag, err := b.AddPart(PartRequest{Library: PowerFlagLibrary, Name: PowerFlagName, At: &at})
	if err != nil {
		return nil, err
	}
	if err := b.Bind(flag.Ref, "1", netName); err != nil {
		return nil, err
	}
	return flag, nil
}

// Build finishes construction: parts without a position are laid out on a
// grid below the placed ones and unconnected pins are reported as
// warnings. No-connect pins are expected to stay open and are skipped.
func (b *Builder) Build() (*Circuit, error) {
	if b.built {
		return nil, fmt.Errorf("circuit: Build called twice")
	}
	b.built = true

	b.placeRemaining()

	c := b.circuit
	for _, comp := range c.Components {
		for _, p := range comp.Pins {
			if p.Net == nil && p.Type != catalog.NoConnect {
				c.Warnings = append(c.Warnings, UnboundPinWarning{
					Ref:  comp.Ref,
					Pin:  p.Number,
					Name: p.Name,
					Type: string(p.Type),
				})
			}
		}
	}

	return c, nil
}

func (b *Builder) placeRemaining() {
	if len(b.unplaced) == 0 {
		return
	}

	top := autoMarginY
	placed := sexp.NewBoundingBox()
	for _, comp := range b.circuit.Components {
		if !b.isUnplaced(comp) {
			placed.Expand(comp.Position)
		}
	}
	if !placed.IsEmpty() {
		top = placed.Max.Y + autoMarginY
	}

	for i, comp := range b.unplaced {
		pos := sexp.Position{
			X: sexp.InchMM + autoPitch*float64(i%autoPerRow),
			Y: top + autoPitch*float64(i/autoPerRow),
		}
		comp.Position = pos.Snap(sexp.GridMM)
	}
}

func (b *Builder) isUnplaced(comp *Component) bool {
	for _, u := range b.unplaced {
		if u == comp {
			return true
		}
	}
	return false
}

func (b *Builder) resolve(ref PinRef) ([]*Pin, error) {
	comp, ok := b.circuit.comps[ref.Ref]
	if !ok {
		return nil, &UnknownComponentError{Ref: ref.Ref}
	}
	pins := comp.ResolvePins(ref.Pin)
	if len(pins) == 0 {
		return nil, &UnknownPinError{Ref: ref.Ref, Pin: ref.Pin, LibID: comp.LibID()}
	}
	return pins, nil
}

func attach(net *Net, pins []*Pin) {
	for _, p := range pins {
		p.Net = net
		net.Pins = append(net.Pins, p)
	}
}

func unbound(pins []*Pin) []*Pin {
	var out []*Pin
	for _, p := range pins {
		if p.Net == nil {
			out = append(out, p)
		}
	}
	return out
}
