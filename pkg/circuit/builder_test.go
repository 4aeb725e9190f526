package circuit

import (
	"errors"
	"strings"
	"testing"

	"github.com/OpenTraceLab/viscosimeter/pkg/catalog"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
)

func newTestBuilder(opts Options) *Builder {
	return NewBuilder("test", catalog.Builtin(), opts)
}

func mustNet(t *testing.T, b *Builder, name string, class NetClass) *Net {
	t.Helper()
	n, err := b.AddNet(name, class)
	if err != nil {
		t.Fatalf("AddNet(%s) failed: %v", name, err)
	}
	return n
}

func mustPart(t *testing.T, b *Builder, libID, value string, at *sexp.Position) *Component {
	t.Helper()
	lib, name, err := catalog.SplitLibID(libID)
	if err != nil {
		t.Fatal(err)
	}
	c, err := b.AddPart(PartRequest{Library: lib, Name: name, Value: value, At: at})
	if err != nil {
		t.Fatalf("AddPart(%s) failed: %v", libID, err)
	}
	return c
}

func at(x, y float64) *sexp.Position {
	return &sexp.Position{X: x, Y: y}
}

func TestReferenceDesignators(t *testing.T) {
	b := newTestBuilder(Options{})

	parts := []struct {
		libID string
		want  string
	}{
		{"Device:R", "R1"},
		{"Device:R", "R2"},
		{"Sensor_Current:ACS712xLCTR-30A", "U1"},
		{"Connector:Screw_Terminal_01x03", "J1"},
		{"Switch:SW_Push", "SW1"},
		{"Connector:Screw_Terminal_01x02", "J2"},
		{"Device:R", "R3"},
	}

	for _, p := range parts {
		c := mustPart(t, b, p.libID, "", nil)
		if c.Ref != p.want {
			t.Errorf("Expected %s for %s, got %s", p.want, p.libID, c.Ref)
		}
		if !strings.HasPrefix(c.Ref, c.Template.RefPrefix) {
			t.Errorf("Reference %s does not carry prefix %s", c.Ref, c.Template.RefPrefix)
		}
	}

	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	seen := make(map[string]bool)
	for _, comp := range c.Components {
		if seen[comp.Ref] {
			t.Errorf("Duplicate reference %s", comp.Ref)
		}
		seen[comp.Ref] = true
	}
}

func TestDefaults(t *testing.T) {
	b := newTestBuilder(Options{})
	r := mustPart(t, b, "Device:R", "", at(50.8, 25.4))
	if r.Value != "R" {
		t.Errorf("Expected value to default to template name, got %q", r.Value)
	}
	if r.Footprint != "Resistor_SMD:R_0805_2012Metric" {
		t.Errorf("Expected template footprint, got %q", r.Footprint)
	}
	if len(r.Pins) != 2 || r.Pins[0].Number != "1" || r.Pins[0].Type != catalog.Passive {
		t.Errorf("Unexpected pins %+v", r.Pins)
	}
}

func TestUnknownPart(t *testing.T) {
	b := newTestBuilder(Options{})
	_, err := b.AddPart(PartRequest{Library: "Device", Name: "Flux_Capacitor"})

	var unknown *catalog.UnknownPartError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownPartError, got %v", err)
	}
	if unknown.Name != "Flux_Capacitor" {
		t.Errorf("Unexpected name %q", unknown.Name)
	}
}

func TestBindByNumberAndName(t *testing.T) {
	b := newTestBuilder(Options{})
	gnd := mustNet(t, b, "GND", PowerNet)
	v12 := mustNet(t, b, "+12V", PowerNet)
	a := mustPart(t, b, "MCU_Module:Arduino_UNO_R3", "", at(127, 76.2))
	u := mustPart(t, b, "Sensor_Current:ACS712xLCTR-30A", "", at(76.2, 50.8))

	if err := b.Bind(a.Ref, "GND", "GND"); err != nil {
		t.Fatalf("Bind GND failed: %v", err)
	}
	if len(gnd.Pins) != 3 {
		t.Errorf("Expected all three Arduino GND pins on GND, got %d", len(gnd.Pins))
	}

	if err := b.Bind(u.Ref, "IP+", "+12V"); err != nil {
		t.Fatalf("Bind IP+ failed: %v", err)
	}
	if err := b.Bind(u.Ref, "5", "GND"); err != nil {
		t.Fatalf("Bind by number failed: %v", err)
	}

	if got := pinList(v12); got != "U1.1,U1.2" {
		t.Errorf("Expected U1.1,U1.2 on +12V, got %s", got)
	}
	if got := pinList(gnd); got != "A1.6,A1.7,A1.29,U1.5" {
		t.Errorf("Unexpected GND attachment order %s", got)
	}
}

func TestBindErrors(t *testing.T) {
	b := newTestBuilder(Options{})
	mustNet(t, b, "GND", PowerNet)
	mustNet(t, b, "+5V", PowerNet)
	r := mustPart(t, b, "Device:R", "", nil)

	if err := b.Bind(r.Ref, "1", "GND"); err != nil {
		t.Fatalf("First bind failed: %v", err)
	}

	var dup *DuplicatePinBindingError
	err := b.Bind(r.Ref, "1", "+5V")
	if !errors.As(err, &dup) {
		t.Fatalf("Expected DuplicatePinBindingError, got %v", err)
	}
	if dup.Existing != "GND" || dup.Net != "+5V" || dup.Pin != "1" {
		t.Errorf("Unexpected error fields %+v", dup)
	}
	if err := b.Bind(r.Ref, "1", "GND"); !errors.As(err, &dup) {
		t.Errorf("Binding the same net twice must also fail, got %v", err)
	}

	var unknownPin *UnknownPinError
	if err := b.Bind(r.Ref, "3", "GND"); !errors.As(err, &unknownPin) {
		t.Errorf("Expected UnknownPinError, got %v", err)
	}

	var unknownNet *UnknownNetError
	if err := b.Bind(r.Ref, "2", "VBAT"); !errors.As(err, &unknownNet) {
		t.Errorf("Expected UnknownNetError, got %v", err)
	}

	var unknownComp *UnknownComponentError
	if err := b.Bind("R9", "1", "GND"); !errors.As(err, &unknownComp) {
		t.Errorf("Expected UnknownComponentError, got %v", err)
	}

	var dupNet *DuplicateNetError
	if _, err := b.AddNet("GND", SignalNet); !errors.As(err, &dupNet) {
		t.Errorf("Expected DuplicateNetError, got %v", err)
	}
}

func TestBindIsAtomic(t *testing.T) {
	b := newTestBuilder(Options{})
	mustNet(t, b, "IN", SignalNet)
	mustNet(t, b, "OUT", SignalNet)
	u := mustPart(t, b, "Sensor_Current:ACS712xLCTR-30A", "", nil)

	if err := b.Bind(u.Ref, "2", "IN"); err != nil {
		t.Fatal(err)
	}
	// IP+ covers pins 1 and 2; pin 2 is taken so pin 1 must stay free
	if err := b.Bind(u.Ref, "IP+", "OUT"); err == nil {
		t.Fatal("Expected duplicate binding error")
	}
	if u.Pin("1").Net != nil {
		t.Error("Pin 1 was attached by a failed bind")
	}
}

func TestJoin(t *testing.T) {
	b := newTestBuilder(Options{})
	mustNet(t, b, "+12V", PowerNet)
	vm := mustNet(t, b, "VOLTAGE_MONITOR", SignalNet)
	r1 := mustPart(t, b, "Device:R", "48.7k", nil)
	r2 := mustPart(t, b, "Device:R", "31.4k", nil)
	r3 := mustPart(t, b, "Device:R", "", nil)
	r4 := mustPart(t, b, "Device:R", "", nil)

	// Joining onto a bound pin reuses its net
	if err := b.Bind(r1.Ref, "2", "VOLTAGE_MONITOR"); err != nil {
		t.Fatal(err)
	}
	if err := b.Join(PinRef{Ref: r1.Ref, Pin: "2"}, PinRef{Ref: r2.Ref, Pin: "1"}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if got := pinList(vm); got != "R1.2,R2.1" {
		t.Errorf("Expected R1.2,R2.1 on VOLTAGE_MONITOR, got %s", got)
	}

	// Two free pins get an anonymous net
	if err := b.Join(PinRef{Ref: r3.Ref, Pin: "2"}, PinRef{Ref: r4.Ref, Pin: "1"}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	anon := b.circuit.Net("Net-(R3-Pad2)")
	if anon == nil || !anon.Anonymous || anon.Class != SignalNet {
		t.Fatalf("Expected anonymous net Net-(R3-Pad2), got %+v", anon)
	}
	if got := pinList(anon); got != "R3.2,R4.1" {
		t.Errorf("Unexpected anonymous net members %s", got)
	}

	// Pins on two different nets cannot be joined
	if err := b.Bind(r4.Ref, "2", "+12V"); err != nil {
		t.Fatal(err)
	}
	var dup *DuplicatePinBindingError
	if err := b.Join(PinRef{Ref: r1.Ref, Pin: "2"}, PinRef{Ref: r4.Ref, Pin: "2"}); !errors.As(err, &dup) {
		t.Errorf("Expected DuplicatePinBindingError, got %v", err)
	}
}

func TestJoinNameTaken(t *testing.T) {
	b := newTestBuilder(Options{})
	declared := mustNet(t, b, "Net-(R1-Pad2)", SignalNet)
	mustNet(t, b, "Net-(R1-Pad2)-2", SignalNet)
	r1 := mustPart(t, b, "Device:R", "", nil)
	r2 := mustPart(t, b, "Device:R", "", nil)

	if err := b.Join(PinRef{Ref: r1.Ref, Pin: "2"}, PinRef{Ref: r2.Ref, Pin: "1"}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	anon := b.circuit.Net("Net-(R1-Pad2)-3")
	if anon == nil || !anon.Anonymous {
		t.Fatalf("Expected anonymous net Net-(R1-Pad2)-3, got %+v", anon)
	}
	if got := pinList(anon); got != "R1.2,R2.1" {
		t.Errorf("Expected R1.2,R2.1 on the anonymous net, got %s", got)
	}
	if len(declared.Pins) != 0 || declared.Anonymous {
		t.Errorf("Declared net must be left alone, got %+v", declared)
	}
}

func TestUnboundPinWarnings(t *testing.T) {
	b := newTestBuilder(Options{})
	mustNet(t, b, "GND", PowerNet)
	r := mustPart(t, b, "Device:R", "", nil)
	a := mustPart(t, b, "MCU_Module:Arduino_UNO_R3", "", nil)

	if err := b.Bind(r.Ref, "1", "GND"); err != nil {
		t.Fatal(err)
	}
	if err := b.Bind(a.Ref, "GND", "GND"); err != nil {
		t.Fatal(err)
	}

	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// R1.2 plus the 28 Arduino pins that are neither GND nor NC
	if len(c.Warnings) != 29 {
		t.Errorf("Expected 29 warnings, got %d", len(c.Warnings))
	}
	if c.Warnings[0].Ref != "R1" || c.Warnings[0].Pin != "2" {
		t.Errorf("Unexpected first warning %+v", c.Warnings[0])
	}
	for _, w := range c.Warnings {
		if w.Ref == "A1" && w.Pin == "1" {
			t.Error("No-connect pin must not be reported")
		}
	}
	if !strings.Contains(c.Warnings[1].String(), "A1.2 (IOREF") {
		t.Errorf("Unexpected warning text %q", c.Warnings[1].String())
	}
}

func TestPowerFlags(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		b := newTestBuilder(Options{PowerFlags: enabled})
		gnd := mustNet(t, b, "GND", PowerNet)

		flag, err := b.AddPowerFlag("GND", sexp.Position{X: 30.48, Y: 127})
		if err != nil {
			t.Fatalf("AddPowerFlag failed: %v", err)
		}
		c, err := b.Build()
		if err != nil {
			t.Fatal(err)
		}

		if !enabled {
			if flag != nil || len(c.Components) != 0 || len(gnd.Pins) != 0 {
				t.Errorf("Power flag placed while disabled")
			}
			continue
		}

		if flag == nil || flag.Ref != "#FLG1" || !flag.Template.Power {
			t.Fatalf("Unexpected flag %+v", flag)
		}
		if got := pinList(gnd); got != "#FLG1.1" {
			t.Errorf("Expected flag pin on GND, got %s", got)
		}
		if _, err := b.AddPowerFlag("VBAT", sexp.Position{}); err == nil {
			t.Error("Expected error for unknown net")
		}
	}
}

func TestAutoPlacement(t *testing.T) {
	b := newTestBuilder(Options{})
	mustPart(t, b, "Device:R", "", at(50.8, 101.6))
	r2 := mustPart(t, b, "Device:R", "", nil)
	r3 := mustPart(t, b, "Device:R", "", nil)

	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	if r2.Position != (sexp.Position{X: 25.4, Y: 152.4}) {
		t.Errorf("Unexpected R2 position %+v", r2.Position)
	}
	if r3.Position != (sexp.Position{X: 76.2, Y: 152.4}) {
		t.Errorf("Unexpected R3 position %+v", r3.Position)
	}

	ext := c.Extent()
	if ext.Min.Y != 101.6 || ext.Max.Y != 152.4 {
		t.Errorf("Unexpected extent %+v", ext)
	}

	if _, err := b.Build(); err == nil {
		t.Error("Expected second Build to fail")
	}
}

func TestSheetPosition(t *testing.T) {
	b := newTestBuilder(Options{})
	r := mustPart(t, b, "Device:R", "", at(50.8, 25.4))

	if got := r.Pin("1").SheetPosition(); got != (sexp.Position{X: 50.8, Y: 21.59}) {
		t.Errorf("Unexpected pin 1 position %+v", got)
	}
	if got := r.Pin("2").SheetPosition(); got != (sexp.Position{X: 50.8, Y: 29.21}) {
		t.Errorf("Unexpected pin 2 position %+v", got)
	}
}

func pinList(n *Net) string {
	parts := make([]string, 0, len(n.Pins))
	for _, p := range n.Pins {
		parts = append(parts, p.Component.Ref+"."+p.Number)
	}
	return strings.Join(parts, ",")
}
