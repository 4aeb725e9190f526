package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/viscosimeter/internal/config"
	"github.com/OpenTraceLab/viscosimeter/pkg/artifact"
	"github.com/OpenTraceLab/viscosimeter/pkg/catalog"
	"github.com/OpenTraceLab/viscosimeter/pkg/circuit"
	"github.com/OpenTraceLab/viscosimeter/pkg/design"
	"github.com/OpenTraceLab/viscosimeter/pkg/emit"
)

// loadConfig merges defaults, the config file and command line flags, in
// increasing priority.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return config.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("out-dir") {
		cfg.OutputDir = outDir
	}
	if flags.Changed("design") {
		cfg.Design = designPath
	}
	if flags.Changed("power-flags") {
		cfg.PowerFlags = powerFlags
	}
	return cfg, nil
}

// partCatalog puts the built-in parts first, then the configured and
// environment symbol directories.
func partCatalog(cfg config.Config) catalog.Chain {
	dirs := append([]string{}, cfg.SymbolDirs...)
	dirs = append(dirs, config.SymbolDirsFromEnv(os.Getenv)...)
	return append(catalog.Chain{catalog.Builtin()}, catalog.Directories(dirs)...)
}

// buildCircuit loads the design named by cfg and builds it.
func buildCircuit(cmd *cobra.Command, cfg config.Config) (*circuit.Circuit, error) {
	logger := loggerFromContext(cmd.Context())

	spec := design.Viscosimeter()
	if cfg.Design != "" {
		var err error
		if spec, err = design.ParseFile(cfg.Design); err != nil {
			return nil, err
		}
		logger.Debug("loaded design", "file", cfg.Design, "parts", len(spec.Parts), "nets", len(spec.Nets))
	}
	if spec.Name == "" {
		spec.Name = cfg.Project
	}

	c, err := design.Build(spec, partCatalog(cfg), circuit.Options{PowerFlags: cfg.PowerFlags})
	if err != nil {
		return nil, err
	}
	logger.Debug("built circuit", "name", c.Name, "components", len(c.Components), "nets", len(c.Nets))
	return c, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	c, err := buildCircuit(cmd, cfg)
	if err != nil {
		return err
	}
	for _, w := range c.Warnings {
		logger.Warn(w.String())
	}

	emitter := emit.New(emit.Options{Project: cfg.Project, Paper: cfg.Paper})
	results, err := artifact.Write(c, emitter, []artifact.Target{
		{Path: cfg.NetlistPath(), Format: emit.FormatNetlist},
		{Path: cfg.SchematicPath(), Format: emit.FormatSchematic},
	})
	if err != nil {
		return fmt.Errorf("generating %s: %w", c.Name, err)
	}

	for _, r := range results {
		logger.Info("wrote "+string(r.Format), "path", r.Path, "bytes", r.Bytes)
	}
	return nil
}
