// Package catalog provides library part templates: the read-only pin
// lists, footprints and symbol graphics that placed components are
// instantiated from.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
)

// PinType is the electrical role of a pin, spelled as in KiCad files.
type PinType string

const (
	Passive       PinType = "passive"
	PowerIn       PinType = "power_in"
	PowerOut      PinType = "power_out"
	Bidirectional PinType = "bidirectional"
	Input         PinType = "input"
	Output        PinType = "output"
	TriState      PinType = "tri_state"
	OpenCollector PinType = "open_collector"
	OpenEmitter   PinType = "open_emitter"
	Unspecified   PinType = "unspecified"
	Free          PinType = "free"
	NoConnect     PinType = "no_connect"
)

// PinDef describes one pin of a template.
type PinDef struct {
	Number string
	Name   string        // empty when the symbol leaves the pin unnamed ("~")
	Type   PinType
	At     sexp.Position // connection point in symbol coordinates (Y up)
}

// Template is a library part. Templates are shared between all components
// instantiated from them and must not be modified.
type Template struct {
	Library     string
	Name        string
	RefPrefix   string
	Footprint   string
	Datasheet   string
	Description string
	Keywords    string
	Power       bool     // power symbol such as PWR_FLAG
	Pins        []PinDef // in symbol order
	Symbol      string   // (symbol "Library:Name" ...) text for lib_symbols
}

// LibID returns the "Library:Name" identifier.
func (t *Template) LibID() string {
	return t.Library + ":" + t.Name
}

// PinsByNumber returns the pins whose number equals id.
func (t *Template) PinsByNumber(id string) []PinDef {
	var out []PinDef
	for _, p := range t.Pins {
		if p.Number == id {
			out = append(out, p)
		}
	}
	return out
}

// PinsByName returns every pin carrying the name id.
func (t *Template) PinsByName(id string) []PinDef {
	var out []PinDef
	for _, p := range t.Pins {
		if p.Name != "" && p.Name == id {
			out = append(out, p)
		}
	}
	return out
}

// ResolvePins looks a pin identifier up by number first and by name
// second. A name shared by several pins resolves to all of them.
func (t *Template) ResolvePins(id string) []PinDef {
	if pins := t.PinsByNumber(id); len(pins) > 0 {
		return pins
	}
	return t.PinsByName(id)
}

// PartCatalog resolves templates by (library, name).
type PartCatalog interface {
	Lookup(library, name string) (*Template, error)
}

// UnknownPartError reports a template lookup miss.
type UnknownPartError struct {
	Library string
	Name    string
}

func (e *UnknownPartError) Error() string {
	return fmt.Sprintf("catalog: unknown part %s:%s", e.Library, e.Name)
}

// DerivedSymbolError reports a lookup of a symbol defined with
// (extends ...). Derived symbols are not resolved against their parent.
type DerivedSymbolError struct {
	Library string
	Name    string
	Parent  string
}

func (e *DerivedSymbolError) Error() string {
	return fmt.Sprintf("catalog: %s:%s extends %q; derived symbols are not supported", e.Library, e.Name, e.Parent)
}

// SplitLibID splits "Library:Name" into its parts.
func SplitLibID(id string) (library, name string, err error) {
	library, name, ok := strings.Cut(id, ":")
	if !ok || library == "" || name == "" {
		return "", "", fmt.Errorf("catalog: invalid library id %q, want Library:Name", id)
	}
	return library, name, nil
}

// Chain queries catalogs in order and returns the first template found.
// Errors other than UnknownPartError stop the search.
type Chain []PartCatalog

// Lookup implements PartCatalog.
func (c Chain) Lookup(library, name string) (*Template, error) {
	for _, cat := range c {
		if cat == nil {
			continue
		}
		t, err := cat.Lookup(library, name)
		if err == nil {
			return t, nil
		}
		var unknown *UnknownPartError
		if !errors.As(err, &unknown) {
			return nil, err
		}
	}
	return nil, &UnknownPartError{Library: library, Name: name}
}
