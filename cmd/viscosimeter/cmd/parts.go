package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/viscosimeter/pkg/catalog"
)

var partsCmd = &cobra.Command{
	Use:   "parts [Library:Name]",
	Short: "List the built-in parts",
	Long: `Without an argument: list every built-in part with its reference prefix.
With a Library:Name argument: show the pins of that part, also searching
the configured KiCad symbol directories.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParts,
}

func init() {
	rootCmd.AddCommand(partsCmd)
}

func runParts(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	if len(args) == 0 {
		parts, err := catalog.Builtin().Parts()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, styleTitle.Render(fmt.Sprintf("Built-in parts (%d)", len(parts))))
		for _, t := range parts {
			fmt.Fprintf(w, "  %-36s %-5s %s\n", t.LibID(), t.RefPrefix, styleDim.Render(t.Description))
		}
		return nil
	}

	library, name, err := catalog.SplitLibID(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	t, err := partCatalog(cfg).Lookup(library, name)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, styleTitle.Render(t.LibID()))
	fmt.Fprintf(w, "Reference: %s\n", t.RefPrefix)
	if t.Footprint != "" {
		fmt.Fprintf(w, "Footprint: %s\n", t.Footprint)
	}
	if t.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", t.Description)
	}
	if t.Keywords != "" {
		fmt.Fprintf(w, "Keywords: %s\n", strings.Join(strings.Fields(t.Keywords), ", "))
	}
	fmt.Fprintf(w, "Pins (%d):\n", len(t.Pins))
	for _, p := range t.Pins {
		fmt.Fprintf(w, "  %-4s %-10s %s\n", p.Number, p.Name, styleDim.Render(string(p.Type)))
	}
	return nil
}
