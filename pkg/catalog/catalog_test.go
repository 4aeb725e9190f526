package catalog

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/schematic"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp/kicadsexp"
)

func TestBuiltinParts(t *testing.T) {
	tests := []struct {
		lib       string
		name      string
		refPrefix string
		footprint string
		pins      int
	}{
		{"Device", "R", "R", "Resistor_SMD:R_0805_2012Metric", 2},
		{"Sensor_Current", "ACS712xLCTR-30A", "U", "Package_SO:SOIC-8_3.9x4.9mm_P1.27mm", 8},
		{"Motor", "Motor_DC", "M", "TerminalBlock_Phoenix:TerminalBlock_Phoenix_MKDS-1,5-2_1x02_P5.00mm_Horizontal", 2},
		{"Connector", "Screw_Terminal_01x02", "J", "TerminalBlock:TerminalBlock_bornier-2_P5.08mm", 2},
		{"Connector", "Screw_Terminal_01x03", "J", "TerminalBlock:TerminalBlock_bornier-3_P5.08mm", 3},
		{"Switch", "SW_Push", "SW", "Button_Switch_THT:SW_PUSH_6mm", 2},
		{"MCU_Module", "Arduino_UNO_R3", "A", "Module:Arduino_UNO_R3", 32},
		{"power", "PWR_FLAG", "#FLG", "", 1},
	}

	cat := Builtin()
	for _, tt := range tests {
		t.Run(tt.lib+":"+tt.name, func(t *testing.T) {
			tmpl, err := cat.Lookup(tt.lib, tt.name)
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}
			if tmpl.RefPrefix != tt.refPrefix {
				t.Errorf("Expected ref prefix %q, got %q", tt.refPrefix, tmpl.RefPrefix)
			}
			if tmpl.Footprint != tt.footprint {
				t.Errorf("Expected footprint %q, got %q", tt.footprint, tmpl.Footprint)
			}
			if len(tmpl.Pins) != tt.pins {
				t.Errorf("Expected %d pins, got %d", tt.pins, len(tmpl.Pins))
			}

			// The symbol text must be a valid lib_symbols entry carrying
			// the same pins as the template.
			if !strings.HasPrefix(tmpl.Symbol, `(symbol "`+tmpl.LibID()+`"`) {
				t.Errorf("Symbol text does not start with the library id:\n%s", firstLine(tmpl.Symbol))
			}
			node, err := kicadsexp.ParseOne(strings.NewReader(tmpl.Symbol))
			if err != nil {
				t.Fatalf("Symbol text does not parse: %v", err)
			}
			lib := schematic.ParseLibSymbol(node)
			if lib.Name != tmpl.LibID() {
				t.Errorf("Expected symbol name %s, got %s", tmpl.LibID(), lib.Name)
			}
			if len(lib.Pins) != len(tmpl.Pins) {
				t.Errorf("Symbol has %d pins, template has %d", len(lib.Pins), len(tmpl.Pins))
			}
		})
	}
}

func TestBuiltinPinTables(t *testing.T) {
	cat := Builtin()

	acs, err := cat.Lookup("Sensor_Current", "ACS712xLCTR-30A")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got := pinNumbers(acs.ResolvePins("IP+")); got != "1,2" {
		t.Errorf("Expected IP+ on pins 1,2, got %s", got)
	}
	if got := pinNumbers(acs.ResolvePins("VIOUT")); got != "7" {
		t.Errorf("Expected VIOUT on pin 7, got %s", got)
	}
	if p := acs.ResolvePins("8"); len(p) != 1 || p[0].Name != "VCC" || p[0].Type != PowerIn {
		t.Errorf("Unexpected pin 8: %+v", p)
	}

	uno, err := cat.Lookup("MCU_Module", "Arduino_UNO_R3")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got := pinNumbers(uno.ResolvePins("GND")); got != "6,7,29" {
		t.Errorf("Expected GND on pins 6,7,29, got %s", got)
	}
	if got := pinNumbers(uno.ResolvePins("A0")); got != "9" {
		t.Errorf("Expected A0 on pin 9, got %s", got)
	}
	if got := pinNumbers(uno.ResolvePins("D7")); got != "22" {
		t.Errorf("Expected D7 on pin 22, got %s", got)
	}
	if p := uno.ResolvePins("1"); len(p) != 1 || p[0].Type != NoConnect {
		t.Errorf("Expected pin 1 to be no_connect, got %+v", p)
	}
	if uno.Datasheet != "https://www.arduino.cc/en/Main/arduinoBoardUno" {
		t.Errorf("Unexpected datasheet %q", uno.Datasheet)
	}

	r, err := cat.Lookup("Device", "R")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if r.Pins[0].Name != "" {
		t.Errorf("Expected unnamed resistor pin, got %q", r.Pins[0].Name)
	}
	if r.Pins[0].At.Y != 3.81 || r.Pins[1].At.Y != -3.81 {
		t.Errorf("Unexpected resistor pin anchors %+v", r.Pins)
	}
	if len(r.ResolvePins("~")) != 0 {
		t.Error("Unnamed pins must not resolve by name")
	}

	flag, err := cat.Lookup("power", "PWR_FLAG")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !flag.Power {
		t.Error("Expected PWR_FLAG to be a power symbol")
	}
}

func TestUnknownPart(t *testing.T) {
	cat := Builtin()

	for _, id := range [][2]string{{"Device", "Q_NPN"}, {"NoSuchLib", "R"}} {
		_, err := cat.Lookup(id[0], id[1])
		var unknown *UnknownPartError
		if !errors.As(err, &unknown) {
			t.Fatalf("Expected UnknownPartError for %s:%s, got %v", id[0], id[1], err)
		}
		if unknown.Library != id[0] || unknown.Name != id[1] {
			t.Errorf("Unexpected error fields %+v", unknown)
		}
	}
}

const customLib = `(kicad_symbol_lib (version 20220914) (generator kicad_symbol_editor)
  (symbol "R" (in_bom yes) (on_board yes)
    (property "Reference" "RX" (at 0 0 0) (effects (font (size 1.27 1.27))))
    (property "Value" "R" (at 0 0 0) (effects (font (size 1.27 1.27))))
    (property "Description" "Custom resistor" (at 0 0 0) (effects (font (size 1.27 1.27)) hide))
    (symbol "R_1_1"
      (pin passive line (at 0 2.54 270) (length 1.27) (name "A") (number "1"))
      (pin passive line (at 0 -2.54 90) (length 1.27) (name "B") (number "2"))
    )
  )
  (symbol "R_Small" (extends "R")
    (property "Reference" "R" (at 0 0 0))
  )
)`

func TestSymbolLibraryFromFS(t *testing.T) {
	lib := NewSymbolLibrary(fstest.MapFS{
		"Custom.kicad_sym": &fstest.MapFile{Data: []byte(customLib)},
	})

	tmpl, err := lib.Lookup("Custom", "R")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if tmpl.RefPrefix != "RX" || tmpl.Description != "Custom resistor" {
		t.Errorf("Unexpected template %+v", tmpl)
	}
	if got := pinNumbers(tmpl.ResolvePins("B")); got != "2" {
		t.Errorf("Expected B on pin 2, got %s", got)
	}

	parts, err := lib.Parts()
	if err != nil {
		t.Fatalf("Parts failed: %v", err)
	}
	if len(parts) != 1 || parts[0].LibID() != "Custom:R" {
		t.Errorf("Expected only Custom:R to be listed, got %d parts", len(parts))
	}
}

func TestDerivedSymbol(t *testing.T) {
	device := strings.Replace(customLib, `(symbol "R_Small" (extends "R")`, `(symbol "R_US" (extends "R")`, 1)
	lib := NewSymbolLibrary(fstest.MapFS{
		"Device.kicad_sym": &fstest.MapFile{Data: []byte(device)},
	})

	tests := []struct {
		name    string
		cat     PartCatalog
		part    string
		derived bool
	}{
		{"library base symbol", lib, "R", false},
		{"library derived symbol", lib, "R_US", true},
		{"chain base symbol", Chain{lib, Builtin()}, "R", false},
		{"chain derived symbol", Chain{lib, Builtin()}, "R_US", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := tt.cat.Lookup("Device", tt.part)
			if !tt.derived {
				if err != nil {
					t.Fatalf("Lookup failed: %v", err)
				}
				if tmpl.RefPrefix != "RX" {
					t.Errorf("Expected ref prefix RX, got %q", tmpl.RefPrefix)
				}
				return
			}

			var derived *DerivedSymbolError
			if !errors.As(err, &derived) {
				t.Fatalf("Expected DerivedSymbolError, got %v", err)
			}
			if derived.Name != "R_US" || derived.Parent != "R" {
				t.Errorf("Unexpected error fields %+v", derived)
			}
			if !strings.Contains(err.Error(), "Device:R_US") {
				t.Errorf("Expected error to name Device:R_US, got %q", err.Error())
			}
		})
	}
}

func TestChain(t *testing.T) {
	custom := NewSymbolLibrary(fstest.MapFS{
		"Device.kicad_sym": &fstest.MapFile{Data: []byte(strings.Replace(
			customLib, `"Reference" "RX"`, `"Reference" "RC"`, 1))},
	})
	chain := Chain{custom, Builtin()}

	r, err := chain.Lookup("Device", "R")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if r.RefPrefix != "RC" {
		t.Errorf("Expected first catalog to win, got prefix %q", r.RefPrefix)
	}

	sw, err := chain.Lookup("Switch", "SW_Push")
	if err != nil {
		t.Fatalf("Expected fallback to builtin catalog: %v", err)
	}
	if sw.RefPrefix != "SW" {
		t.Errorf("Unexpected prefix %q", sw.RefPrefix)
	}

	_, err = chain.Lookup("Device", "L")
	var unknown *UnknownPartError
	if !errors.As(err, &unknown) {
		t.Errorf("Expected UnknownPartError, got %v", err)
	}

	broken := NewSymbolLibrary(fstest.MapFS{
		"Device.kicad_sym": &fstest.MapFile{Data: []byte(`(kicad_symbol_lib (symbol "R"`)},
	})
	if _, err := (Chain{broken, Builtin()}).Lookup("Device", "R"); err == nil || errors.As(err, &unknown) {
		t.Errorf("Expected parse error to stop the chain, got %v", err)
	}
}

func TestParts(t *testing.T) {
	parts, err := Builtin().Parts()
	if err != nil {
		t.Fatalf("Parts failed: %v", err)
	}
	if len(parts) != 8 {
		t.Fatalf("Expected 8 builtin parts, got %d", len(parts))
	}
	if parts[0].LibID() != "Connector:Screw_Terminal_01x02" {
		t.Errorf("Expected sorted listing, first is %s", parts[0].LibID())
	}
}

func TestSplitLibID(t *testing.T) {
	lib, name, err := SplitLibID("Sensor_Current:ACS712xLCTR-30A")
	if err != nil || lib != "Sensor_Current" || name != "ACS712xLCTR-30A" {
		t.Errorf("Unexpected split %q %q %v", lib, name, err)
	}
	for _, bad := range []string{"R", ":R", "Device:"} {
		if _, _, err := SplitLibID(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func pinNumbers(pins []PinDef) string {
	nums := make([]string, 0, len(pins))
	for _, p := range pins {
		nums = append(nums, p.Number)
	}
	return strings.Join(nums, ",")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
