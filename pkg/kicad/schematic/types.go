// Package schematic models KiCad schematic documents (.kicad_sch): it
// writes them from an in-memory Schematic and reads them back for
// verification.
package schematic

import (
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
)

// Re-export shared types from sexp package for convenience
type Position = sexp.Position
type Angle = sexp.Angle
type PositionAngle = sexp.PositionAngle
type Stroke = sexp.Stroke
type UUID = sexp.UUID
type Effects = sexp.Effects
type Property = sexp.Property

// Format constants written into every generated document.
const (
	// Version is the file format version of KiCad 7.0.
	Version = 20230121
	// Generator is the generator name KiCad accepts without complaint.
	Generator = "eeschema"
	// DefaultPaper is the sheet size used when none is configured.
	DefaultPaper = "A4"
)

// Schematic represents a complete single-sheet KiCad schematic
type Schematic struct {
	Version        int             // File format version
	Generator      string          // Generator info (e.g., "eeschema")
	GeneratorVer   string          // Generator version, only read back
	UUID           UUID            // Root sheet UUID
	Paper          string          // Paper size (e.g., "A4")
	LibSymbols     []LibSymbol     // Embedded library symbols
	Wires          []Wire          // Wire segments
	Symbols        []Symbol        // Symbol instances on the schematic
	SheetInstances []SheetInstance // Sheet instance paths
}

// LibSymbol is an embedded library symbol definition. Source holds the
// complete (symbol "Lib:Name" ...) text and is written verbatim; Pins is
// filled in when a document is read back.
type LibSymbol struct {
	Name   string
	Source string
	Pins   []Pin
}

// Pin represents a pin of a library symbol
type Pin struct {
	Type     string   // Electrical type (passive, power_in, ...)
	Style    string   // Graphic style (line, inverted, ...)
	Position Position // Connection point, symbol coordinates
	Angle    Angle    // Pin direction (0, 90, 180, 270)
	Length   float64  // Pin length
	Name     string   // Pin name
	Number   string   // Pin number
}

// Symbol represents a symbol instance placed on the schematic
type Symbol struct {
	LibID      string           // Library identifier (e.g., "Device:R")
	Position   Position         // Position on schematic
	Angle      Angle            // Rotation angle
	Unit       int              // Unit number (for multi-unit symbols)
	InBom      bool             // Include in BOM
	OnBoard    bool             // Place on board
	DNP        bool             // Do not populate
	UUID       UUID             // Instance UUID
	Properties []Property       // Instance properties (Reference, Value, etc.)
	Pins       []PinRef         // Pin references
	Instances  []SymbolInstance // Per-project reference annotations
}

// PinRef represents a pin reference in a symbol instance
type PinRef struct {
	Number string
	UUID   UUID
}

// SymbolInstance binds a reference designator to a symbol within a
// project sheet path.
type SymbolInstance struct {
	Project   string
	Path      string
	Reference string
	Unit      int
}

// Wire represents a wire segment
type Wire struct {
	Points []Position
	Stroke Stroke
	UUID   UUID
}

// SheetInstance names a sheet path and its page number
type SheetInstance struct {
	Path string
	Page string
}

// Property returns the value of the named property, or "".
func (s *Symbol) Property(key string) string {
	for _, p := range s.Properties {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Reference returns the symbol's reference designator.
func (s *Symbol) Reference() string {
	return s.Property("Reference")
}

// GetSymbol finds a symbol instance by reference designator
func (sch *Schematic) GetSymbol(ref string) *Symbol {
	for i := range sch.Symbols {
		if sch.Symbols[i].Reference() == ref {
			return &sch.Symbols[i]
		}
	}
	return nil
}

// GetSymbolsByLib returns all symbol instances with the given lib_id
func (sch *Schematic) GetSymbolsByLib(libID string) []*Symbol {
	var result []*Symbol
	for i := range sch.Symbols {
		if sch.Symbols[i].LibID == libID {
			result = append(result, &sch.Symbols[i])
		}
	}
	return result
}

// GetAllReferences returns the reference designators of all symbols
func (sch *Schematic) GetAllReferences() []string {
	refs := make([]string, 0, len(sch.Symbols))
	for i := range sch.Symbols {
		refs = append(refs, sch.Symbols[i].Reference())
	}
	return refs
}

// GetLibSymbol finds an embedded library symbol by name
func (sch *Schematic) GetLibSymbol(name string) *LibSymbol {
	for i := range sch.LibSymbols {
		if sch.LibSymbols[i].Name == name {
			return &sch.LibSymbols[i]
		}
	}
	return nil
}
