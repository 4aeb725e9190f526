// Package emit serializes a circuit into KiCad artifacts: a netlist and a
// single-sheet schematic. Every document is checked by reading it back
// before it is returned, so a caller never receives text KiCad would
// reject.
package emit

import (
	"fmt"

	"github.com/OpenTraceLab/viscosimeter/pkg/circuit"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/schematic"
)

// Format selects the artifact to produce.
type Format string

const (
	FormatNetlist   Format = "netlist"
	FormatSchematic Format = "schematic"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatNetlist, FormatSchematic:
		return f, nil
	}
	return "", fmt.Errorf("emit: unknown format %q (want %s or %s)", s, FormatNetlist, FormatSchematic)
}

// Extension returns the file extension KiCad uses for the format.
func (f Format) Extension() string {
	if f == FormatSchematic {
		return ".kicad_sch"
	}
	return ".net"
}

// DefaultTool is written into the netlist (tool ...) field.
const DefaultTool = "viscosimeter"

// Options configures an Emitter. Zero values fall back to defaults.
type Options struct {
	Project string      // project name; defaults to the circuit name
	Paper   string      // schematic paper size; defaults to A4
	Tool    string      // netlist tool field
	IDs     IDGenerator // defaults to random UUIDs
}

// Emitter turns circuits into artifact text.
type Emitter struct {
	opts Options
}

// New creates an emitter.
func New(opts Options) *Emitter {
	if opts.Paper == "" {
		opts.Paper = schematic.DefaultPaper
	}
	if opts.Tool == "" {
		opts.Tool = DefaultTool
	}
	if opts.IDs == nil {
		opts.IDs = UUIDGenerator{}
	}
	return &Emitter{opts: opts}
}

// Emit renders c in the requested format with default options.
func Emit(c *circuit.Circuit, f Format) (string, error) {
	return New(Options{}).Emit(c, f)
}

// Emit renders c in the requested format. Nothing is written anywhere;
// on error no text is returned.
func (e *Emitter) Emit(c *circuit.Circuit, f Format) (string, error) {
	switch f {
	case FormatNetlist:
		return e.netlistText(c)
	case FormatSchematic:
		return e.schematicText(c)
	}
	return "", fmt.Errorf("emit: unknown format %q", f)
}

func (e *Emitter) project(c *circuit.Circuit) string {
	if e.opts.Project != "" {
		return e.opts.Project
	}
	if c.Name != "" {
		return c.Name
	}
	return "untitled"
}
