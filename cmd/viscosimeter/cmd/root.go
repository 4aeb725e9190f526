package cmd

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	configPath string
	outDir     string
	designPath string
	powerFlags bool
)

var rootCmd = &cobra.Command{
	Use:   "viscosimeter",
	Short: "Generate the KiCad netlist and schematic of the viscosimeter rig",
	Long: `viscosimeter builds the circuit of an Arduino based viscosimeter rig
(ACS712 current sensor, R1/R2 voltage divider, DC motor, proximity sensor,
push switch, 12 V screw terminal) and writes it as a KiCad netlist and a
KiCad schematic.

Examples:
  viscosimeter                              # write viscosimeter.net and viscosimeter.kicad_sch
  viscosimeter --out-dir build --power-flags
  viscosimeter --design rig.circuit         # build a circuit description file instead
  viscosimeter report                       # print nets and unconnected pins
  viscosimeter parts                        # list the built-in parts`,
	Version:      "0.9.0",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := charmlog.InfoLevel
		if verbose {
			level = charmlog.DebugLevel
		}
		cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
	},
	RunE: runGenerate,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML project file")
	rootCmd.PersistentFlags().StringVarP(&designPath, "design", "d", "", "circuit description file (default: built-in viscosimeter)")
	rootCmd.PersistentFlags().BoolVar(&powerFlags, "power-flags", false, "place PWR_FLAG symbols on the supply nets")

	rootCmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "output directory (default: current directory)")
}
