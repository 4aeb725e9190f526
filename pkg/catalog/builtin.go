package catalog

import (
	"embed"
	"io/fs"
)

//go:embed symbols/*.kicad_sym
var builtinSymbols embed.FS

// Builtin returns the catalog shipped with the tool: the parts of the
// viscosimeter rig plus the PWR_FLAG power symbol.
func Builtin() *SymbolLibrary {
	sub, err := fs.Sub(builtinSymbols, "symbols")
	if err != nil {
		panic(err)
	}
	return NewSymbolLibrary(sub)
}
