package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/viscosimeter/pkg/circuit"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the connection summary of the design",
	Long: `Build the design without writing any file and print its components,
every net with its member pins, and the pins left unconnected.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	c, err := buildCircuit(cmd, cfg)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), c)
	return nil
}

func printReport(w io.Writer, c *circuit.Circuit) {
	fmt.Fprintln(w, styleTitle.Render(fmt.Sprintf("Circuit %s", c.Name)))
	fmt.Fprintf(w, "%d components, %d nets\n", len(c.Components), len(c.Nets))
	if ext := c.Extent(); !ext.IsEmpty() {
		fmt.Fprintf(w, "placed within (%s, %s) to (%s, %s) mm\n",
			sexp.FormatNumber(ext.Min.X), sexp.FormatNumber(ext.Min.Y),
			sexp.FormatNumber(ext.Max.X), sexp.FormatNumber(ext.Max.Y))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, styleTitle.Render("Components"))
	for _, comp := range c.Components {
		fmt.Fprintf(w, "  %-6s %-36s %s\n", comp.Ref, comp.LibID(), comp.Value)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, styleTitle.Render("Nets"))
	for _, net := range c.Nets {
		pins := make([]string, 0, len(net.Pins))
		for _, p := range net.Pins {
			pins = append(pins, p.String())
		}
		fmt.Fprintf(w, "  %s %s\n", net.Name, styleDim.Render("("+net.Class.String()+")"))
		if len(pins) == 0 {
			fmt.Fprintln(w, "    (no pins)")
			continue
		}
		fmt.Fprintf(w, "    %s\n", strings.Join(pins, ", "))
	}

	if len(c.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styleTitle.Render(fmt.Sprintf("Warnings (%d)", len(c.Warnings))))
		for _, warning := range c.Warnings {
			fmt.Fprintf(w, "  %s\n", styleWarning.Render(warning.String()))
		}
	}
}
