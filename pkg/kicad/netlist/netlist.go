// Package netlist writes and reads KiCad netlists in the (export
// (version "E") ...) S-expression format understood by Pcbnew.
package netlist

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp/kicadsexp"
)

// FormatVersion is the netlist grammar version written by KiCad 6 and later.
const FormatVersion = "E"

// Net classes written into (class ...).
const (
	ClassDefault = "Default"
	ClassPower   = "Power"
)

// Netlist is a flat listing of components and the nets joining their pins.
type Netlist struct {
	Source     string // Design source, usually the schematic file name
	Tool       string // Generating tool name
	Components []Component
	Nets       []Net
}

// Component is one (comp ...) record.
type Component struct {
	Ref         string
	Value       string
	Footprint   string
	Lib         string
	Part        string
	Description string
}

// Net is one (net ...) record. Codes are assigned from 1 in listing order.
type Net struct {
	Code  int
	Name  string
	Class string
	Nodes []Node
}

// Node attaches one component pin to a net.
type Node struct {
	Ref         string
	Pin         string
	PinFunction string
	PinType     string
}

// Validate checks that net names are unique and that every node refers to
// a listed component.
func (nl *Netlist) Validate() error {
	refs := make(map[string]bool, len(nl.Components))
	for _, c := range nl.Components {
		if refs[c.Ref] {
			return fmt.Errorf("netlist: duplicate component %s", c.Ref)
		}
		refs[c.Ref] = true
	}

	names := make(map[string]bool, len(nl.Nets))
	for _, n := range nl.Nets {
		if names[n.Name] {
			return fmt.Errorf("netlist: duplicate net %q", n.Name)
		}
		names[n.Name] = true
		for _, node := range n.Nodes {
			if !refs[node.Ref] {
				return fmt.Errorf("netlist: net %q references unknown component %s", n.Name, node.Ref)
			}
		}
	}
	return nil
}

// ExportKiCad renders the netlist in KiCad's netlist format.
func (nl *Netlist) ExportKiCad() (string, error) {
	if err := nl.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "(export (version %s)\n", sexp.Quote(FormatVersion))
	b.WriteString("  (design\n")
	fmt.Fprintf(&b, "    (source %s)\n", sexp.Quote(nl.Source))
	fmt.Fprintf(&b, "    (tool %s)\n", sexp.Quote(nl.Tool))
	b.WriteString("  )\n")

	b.WriteString("  (components\n")
	for _, c := range nl.Components {
		fmt.Fprintf(&b, "    (comp (ref %s)\n", sexp.Quote(c.Ref))
		fmt.Fprintf(&b, "      (value %s)\n", sexp.Quote(c.Value))
		if c.Footprint != "" {
			fmt.Fprintf(&b, "      (footprint %s)\n", sexp.Quote(c.Footprint))
		}
		desc := ""
		if c.Description != "" {
			desc = " (description " + sexp.Quote(c.Description) + ")"
		}
		fmt.Fprintf(&b, "      (libsource (lib %s) (part %s)%s)\n", sexp.Quote(c.Lib), sexp.Quote(c.Part), desc)
		b.WriteString("    )\n")
	}
	b.WriteString("  )\n")

	b.WriteString("  (nets\n")
	for i, n := range nl.Nets {
		code := n.Code
		if code == 0 {
			code = i + 1
		}
		class := n.Class
		if class == "" {
			class = ClassDefault
		}
		header := fmt.Sprintf("    (net (code %s) (name %s) (class %s)",
			sexp.Quote(strconv.Itoa(code)), sexp.Quote(n.Name), sexp.Quote(class))
		if len(n.Nodes) == 0 {
			b.WriteString(header + ")\n")
			continue
		}
		b.WriteString(header + "\n")
		for _, node := range n.Nodes {
			fmt.Fprintf(&b, "      (node (ref %s) (pin %s)", sexp.Quote(node.Ref), sexp.Quote(node.Pin))
			if node.PinFunction != "" {
				fmt.Fprintf(&b, " (pinfunction %s)", sexp.Quote(node.PinFunction))
			}
			if node.PinType != "" {
				fmt.Fprintf(&b, " (pintype %s)", sexp.Quote(node.PinType))
			}
			b.WriteString(")\n")
		}
		b.WriteString("    )\n")
	}
	b.WriteString("  )\n")
	b.WriteString(")\n")

	return b.String(), nil
}

// Parse reads a KiCad netlist back into memory.
func Parse(r io.Reader) (*Netlist, error) {
	root, err := kicadsexp.ParseOne(r)
	if err != nil {
		return nil, fmt.Errorf("netlist: %w", err)
	}
	if name := sexp.GetNodeName(root); name != "export" {
		return nil, fmt.Errorf("netlist: expected 'export', got %q", name)
	}

	nl := &Netlist{}
	if design, ok := sexp.FindNode(root, "design"); ok {
		nl.Source, _ = sexp.GetChildString(design, "source")
		nl.Tool, _ = sexp.GetChildString(design, "tool")
	}

	if comps, ok := sexp.FindNode(root, "components"); ok {
		for _, cn := range sexp.FindAllNodes(comps, "comp") {
			c := Component{}
			c.Ref, _ = sexp.GetChildString(cn, "ref")
			c.Value, _ = sexp.GetChildString(cn, "value")
			c.Footprint, _ = sexp.GetChildString(cn, "footprint")
			if ls, ok := sexp.FindNode(cn, "libsource"); ok {
				c.Lib, _ = sexp.GetChildString(ls, "lib")
				c.Part, _ = sexp.GetChildString(ls, "part")
				c.Description, _ = sexp.GetChildString(ls, "description")
			}
			nl.Components = append(nl.Components, c)
		}
	}

	if nets, ok := sexp.FindNode(root, "nets"); ok {
		for _, nn := range sexp.FindAllNodes(nets, "net") {
			n := Net{}
			code, err := sexp.GetChildString(nn, "code")
			if err != nil {
				return nil, fmt.Errorf("netlist: net without code: %w", err)
			}
			if n.Code, err = strconv.Atoi(code); err != nil {
				return nil, fmt.Errorf("netlist: bad net code %q: %w", code, err)
			}
			n.Name, _ = sexp.GetChildString(nn, "name")
			n.Class, _ = sexp.GetChildString(nn, "class")
			for _, node := range sexp.FindAllNodes(nn, "node") {
				nd := Node{}
				nd.Ref, _ = sexp.GetChildString(node, "ref")
				nd.Pin, _ = sexp.GetChildString(node, "pin")
				nd.PinFunction, _ = sexp.GetChildString(node, "pinfunction")
				nd.PinType, _ = sexp.GetChildString(node, "pintype")
				n.Nodes = append(n.Nodes, nd)
			}
			nl.Nets = append(nl.Nets, n)
		}
	}

	return nl, nil
}

// NetNames returns the net names in listing order.
func (nl *Netlist) NetNames() []string {
	names := make([]string, 0, len(nl.Nets))
	for _, n := range nl.Nets {
		names = append(names, n.Name)
	}
	return names
}

// NodeCount returns the total number of pin attachments.
func (nl *Netlist) NodeCount() int {
	total := 0
	for _, n := range nl.Nets {
		total += len(n.Nodes)
	}
	return total
}
