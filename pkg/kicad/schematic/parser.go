package schematic

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp/kicadsexp"
)

// Minimum supported KiCad version for schematics (6.0 = 20211014)
const MinSupportedVersion = 20211014

// ParseFile reads and parses a KiCad schematic file
func ParseFile(filename string) (*Schematic, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// ParseString parses a schematic held in memory
func ParseString(s string) (*Schematic, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads and parses a KiCad schematic from an io.Reader.
// Only the records this package writes are decoded; everything else is
// ignored.
func Parse(r io.Reader) (*Schematic, error) {
	root, err := kicadsexp.ParseOne(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}

	if rootName := sexp.GetNodeName(root); rootName != "kicad_sch" {
		return nil, fmt.Errorf("not a KiCad schematic file: expected 'kicad_sch', got '%s'", rootName)
	}

	sch := &Schematic{}

	if err := parseHeader(root, sch); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if uuidNode, found := sexp.FindNode(root, "uuid"); found {
		if uuid, err := sexp.GetUUID(uuidNode); err == nil {
			sch.UUID = uuid
		}
	}

	if paperNode, found := sexp.FindNode(root, "paper"); found {
		sch.Paper, _ = sexp.GetQuotedString(paperNode, 1)
	}

	if libSymbolsNode, found := sexp.FindNode(root, "lib_symbols"); found {
		sch.LibSymbols = parseLibSymbols(libSymbolsNode)
	}

	sch.Wires = parseWires(root)

	symbols, err := parseSymbols(root)
	if err != nil {
		return nil, err
	}
	sch.Symbols = symbols

	if instancesNode, found := sexp.FindNode(root, "sheet_instances"); found {
		sch.SheetInstances = parseSheetInstances(instancesNode)
	}

	return sch, nil
}

// parseHeader extracts version and generator information
func parseHeader(root kicadsexp.Sexp, sch *Schematic) error {
	versionNode, found := sexp.FindNode(root, "version")
	if !found {
		return fmt.Errorf("missing required 'version' field")
	}

	ver, err := sexp.GetInt(versionNode, 1)
	if err != nil {
		return fmt.Errorf("failed to parse version: %w", err)
	}

	if ver < MinSupportedVersion {
		return fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", ver, MinSupportedVersion)
	}
	sch.Version = ver

	// Older files write the generator bare, newer ones quote it
	if genNode, found := sexp.FindNode(root, "generator"); found {
		sch.Generator, _ = sexp.GetString(genNode, 1)
	}

	if genVerNode, found := sexp.FindNode(root, "generator_version"); found {
		sch.GeneratorVer, _ = sexp.GetString(genVerNode, 1)
	}

	return nil
}

// parseLibSymbols parses embedded library symbols
func parseLibSymbols(node kicadsexp.Sexp) []LibSymbol {
	symbolNodes := sexp.FindAllNodes(node, "symbol")
	symbols := make([]LibSymbol, 0, len(symbolNodes))

	for _, symNode := range symbolNodes {
		symbols = append(symbols, ParseLibSymbol(symNode))
	}

	return symbols
}

// ParseLibSymbol decodes a (symbol "Lib:Name" ...) library definition.
// Pins are collected from the symbol itself and from its nested units.
func ParseLibSymbol(node kicadsexp.Sexp) LibSymbol {
	sym := LibSymbol{Source: node.String()}
	sym.Name, _ = sexp.GetQuotedString(node, 1)

	sym.Pins = parsePins(node)
	for _, unitNode := range sexp.FindAllNodes(node, "symbol") {
		sym.Pins = append(sym.Pins, parsePins(unitNode)...)
	}

	return sym
}

func parsePins(node kicadsexp.Sexp) []Pin {
	var pins []Pin
	for _, pn := range sexp.FindAllNodes(node, "pin") {
		pins = append(pins, parsePin(pn))
	}
	return pins
}

// parsePin parses a pin definition
func parsePin(node kicadsexp.Sexp) Pin {
	pin := Pin{}

	pin.Type, _ = sexp.GetString(node, 1)
	pin.Style, _ = sexp.GetString(node, 2)

	if atNode, found := sexp.FindNode(node, "at"); found {
		pos, _ := sexp.GetPosition(atNode)
		pin.Position = pos.Position
		pin.Angle = pos.Angle
	}

	if lenNode, found := sexp.FindNode(node, "length"); found {
		pin.Length, _ = sexp.GetFloat(lenNode, 1)
	}

	if nameNode, found := sexp.FindNode(node, "name"); found {
		pin.Name, _ = sexp.GetString(nameNode, 1)
	}

	if numNode, found := sexp.FindNode(node, "number"); found {
		pin.Number, _ = sexp.GetString(numNode, 1)
	}

	return pin
}

// parseSymbols parses symbol instances
func parseSymbols(root kicadsexp.Sexp) ([]Symbol, error) {
	symbolNodes := sexp.FindAllNodes(root, "symbol")
	symbols := make([]Symbol, 0, len(symbolNodes))

	for i, symNode := range symbolNodes {
		sym, err := parseSymbol(symNode)
		if err != nil {
			return nil, fmt.Errorf("symbol %d: %w", i+1, err)
		}
		symbols = append(symbols, sym)
	}

	return symbols, nil
}

// parseSymbol parses a single symbol instance
func parseSymbol(node kicadsexp.Sexp) (Symbol, error) {
	sym := Symbol{
		InBom:   true,
		OnBoard: true,
		Unit:    1,
	}

	libNode, found := sexp.FindNode(node, "lib_id")
	if !found {
		return sym, fmt.Errorf("missing lib_id")
	}
	sym.LibID, _ = sexp.GetString(libNode, 1)

	if atNode, found := sexp.FindNode(node, "at"); found {
		pos, err := sexp.GetPosition(atNode)
		if err != nil {
			return sym, fmt.Errorf("%s: %w", sym.LibID, err)
		}
		sym.Position = pos.Position
		sym.Angle = pos.Angle
	}

	if unitNode, found := sexp.FindNode(node, "unit"); found {
		sym.Unit, _ = sexp.GetInt(unitNode, 1)
	}

	if n, found := sexp.FindNode(node, "in_bom"); found {
		v, _ := sexp.GetString(n, 1)
		sym.InBom = v == "yes"
	}
	if n, found := sexp.FindNode(node, "on_board"); found {
		v, _ := sexp.GetString(n, 1)
		sym.OnBoard = v == "yes"
	}
	if n, found := sexp.FindNode(node, "dnp"); found {
		v, _ := sexp.GetString(n, 1)
		sym.DNP = v == "yes"
	}

	if uuidNode, found := sexp.FindNode(node, "uuid"); found {
		sym.UUID, _ = sexp.GetUUID(uuidNode)
	}

	for _, pn := range sexp.FindAllNodes(node, "property") {
		prop, err := sexp.GetProperty(pn)
		if err == nil {
			sym.Properties = append(sym.Properties, prop)
		}
	}

	for _, pn := range sexp.FindAllNodes(node, "pin") {
		ref := PinRef{}
		ref.Number, _ = sexp.GetString(pn, 1)
		if uuidNode, found := sexp.FindNode(pn, "uuid"); found {
			ref.UUID, _ = sexp.GetUUID(uuidNode)
		}
		sym.Pins = append(sym.Pins, ref)
	}

	if instNode, found := sexp.FindNode(node, "instances"); found {
		sym.Instances = parseSymbolInstances(instNode)
	}

	return sym, nil
}

// parseSymbolInstances parses (instances (project "name" (path ...)))
func parseSymbolInstances(node kicadsexp.Sexp) []SymbolInstance {
	var instances []SymbolInstance

	for _, projNode := range sexp.FindAllNodes(node, "project") {
		project, _ := sexp.GetString(projNode, 1)
		for _, pathNode := range sexp.FindAllNodes(projNode, "path") {
			inst := SymbolInstance{Project: project, Unit: 1}
			inst.Path, _ = sexp.GetString(pathNode, 1)
			inst.Reference, _ = sexp.GetChildString(pathNode, "reference")
			if unitNode, found := sexp.FindNode(pathNode, "unit"); found {
				inst.Unit, _ = sexp.GetInt(unitNode, 1)
			}
			instances = append(instances, inst)
		}
	}

	return instances
}

// parseWires parses wire segments
func parseWires(root kicadsexp.Sexp) []Wire {
	wireNodes := sexp.FindAllNodes(root, "wire")
	wires := make([]Wire, 0, len(wireNodes))

	for _, wn := range wireNodes {
		wire := Wire{}

		if ptsNode, found := sexp.FindNode(wn, "pts"); found {
			for _, xy := range sexp.FindAllNodes(ptsNode, "xy") {
				pos, _ := sexp.GetPositionXY(xy)
				wire.Points = append(wire.Points, pos)
			}
		}

		if strokeNode, found := sexp.FindNode(wn, "stroke"); found {
			if widthNode, found := sexp.FindNode(strokeNode, "width"); found {
				wire.Stroke.Width, _ = sexp.GetFloat(widthNode, 1)
			}
			wire.Stroke.Type, _ = sexp.GetChildString(strokeNode, "type")
		}

		if uuidNode, found := sexp.FindNode(wn, "uuid"); found {
			wire.UUID, _ = sexp.GetUUID(uuidNode)
		}

		wires = append(wires, wire)
	}

	return wires
}

// parseSheetInstances parses sheet instance paths
func parseSheetInstances(node kicadsexp.Sexp) []SheetInstance {
	pathNodes := sexp.FindAllNodes(node, "path")
	instances := make([]SheetInstance, 0, len(pathNodes))

	for _, pn := range pathNodes {
		inst := SheetInstance{}
		inst.Path, _ = sexp.GetString(pn, 1)
		inst.Page, _ = sexp.GetChildString(pn, "page")
		instances = append(instances, inst)
	}

	return instances
}
