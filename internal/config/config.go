// Package config loads project settings for the viscosimeter command:
// an optional TOML file plus the KiCad symbol directories named in the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the settings a run needs.
type Config struct {
	Project    string   `toml:"project"`
	OutputDir  string   `toml:"output_dir"`
	Netlist    string   `toml:"netlist"`
	Schematic  string   `toml:"schematic"`
	Paper      string   `toml:"paper"`
	PowerFlags bool     `toml:"power_flags"`
	SymbolDirs []string `toml:"symbol_dirs"`
	Design     string   `toml:"design"` // description file; empty for the built-in rig
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Project:   "viscosimeter",
		OutputDir: ".",
		Netlist:   "viscosimeter.net",
		Schematic: "viscosimeter.kicad_sch",
		Paper:     "A4",
	}
}

// Load reads a TOML file over the defaults. Keys the file sets replace the
// defaults; unknown keys are an error. Relative paths in the file are
// taken relative to the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("config: %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	base := filepath.Dir(path)
	if md.IsDefined("output_dir") {
		cfg.OutputDir = resolve(base, cfg.OutputDir)
	}
	if cfg.Design != "" {
		cfg.Design = resolve(base, cfg.Design)
	}
	for i, dir := range cfg.SymbolDirs {
		cfg.SymbolDirs[i] = resolve(base, dir)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings no run can use.
func (c Config) Validate() error {
	if c.Netlist == "" || c.Schematic == "" {
		return fmt.Errorf("netlist and schematic file names must not be empty")
	}
	if filepath.Clean(c.Netlist) == filepath.Clean(c.Schematic) {
		return fmt.Errorf("netlist and schematic both write %s", c.Netlist)
	}
	return nil
}

// NetlistPath returns the netlist output path.
func (c Config) NetlistPath() string {
	return filepath.Join(c.OutputDir, c.Netlist)
}

// SchematicPath returns the schematic output path.
func (c Config) SchematicPath() string {
	return filepath.Join(c.OutputDir, c.Schematic)
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// SymbolDirEnv lists the variables KiCad releases use for the stock symbol
// library, newest first.
var SymbolDirEnv = []string{
	"KICAD9_SYMBOL_DIR",
	"KICAD8_SYMBOL_DIR",
	"KICAD7_SYMBOL_DIR",
	"KICAD6_SYMBOL_DIR",
	"KICAD_SYMBOL_DIR",
}

// SymbolDirsFromEnv returns the symbol directories named by SymbolDirEnv,
// in order and without duplicates. getenv is usually os.Getenv.
func SymbolDirsFromEnv(getenv func(string) string) []string {
	var dirs []string
	seen := make(map[string]bool)
	for _, key := range SymbolDirEnv {
		dir := strings.TrimSpace(getenv(key))
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}
