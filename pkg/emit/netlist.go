package emit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/OpenTraceLab/viscosimeter/pkg/circuit"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/netlist"
)

// Netlist converts a circuit into a netlist document. Power symbols carry
// no physical part and are left out, as KiCad does.
func (e *Emitter) Netlist(c *circuit.Circuit) *netlist.Netlist {
	nl := &netlist.Netlist{
		Source: e.project(c) + FormatSchematic.Extension(),
		Tool:   e.opts.Tool,
	}

	for _, comp := range c.Components {
		if comp.Template.Power {
			continue
		}
		nl.Components = append(nl.Components, netlist.Component{
			Ref:         comp.Ref,
			Value:       comp.Value,
			Footprint:   comp.Footprint,
			Lib:         comp.Template.Library,
			Part:        comp.Template.Name,
			Description: comp.Template.Description,
		})
	}

	for i, net := range c.Nets {
		n := netlist.Net{
			Code:  i + 1,
			Name:  net.Name,
			Class: netlist.ClassDefault,
		}
		if net.Class == circuit.PowerNet {
			n.Class = netlist.ClassPower
		}
		for _, p := range net.Pins {
			if p.Component.Template.Power {
				continue
			}
			node := netlist.Node{
				Ref:     p.Component.Ref,
				Pin:     p.Number,
				PinType: string(p.Type),
			}
			if p.Name != "" && p.Name != p.Number {
				node.PinFunction = p.Name
			}
			n.Nodes = append(n.Nodes, node)
		}
		nl.Nets = append(nl.Nets, n)
	}

	return nl
}

func (e *Emitter) netlistText(c *circuit.Circuit) (string, error) {
	text, err := e.Netlist(c).ExportKiCad()
	if err != nil {
		return "", fmt.Errorf("emit: %w", err)
	}

	back, err := netlist.Parse(strings.NewReader(text))
	if err != nil {
		return "", fmt.Errorf("emit: generated netlist does not parse: %w", err)
	}
	if !slices.Equal(back.NetNames(), c.NetNames()) {
		return "", fmt.Errorf("emit: generated netlist lists nets %v, circuit has %v", back.NetNames(), c.NetNames())
	}

	return text, nil
}
