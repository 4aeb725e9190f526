package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/schematic"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp/kicadsexp"
)

// SymbolFileExt is the extension of KiCad symbol library files.
const SymbolFileExt = ".kicad_sym"

// SymbolLibrary serves templates from KiCad symbol libraries stored as
// <Library>.kicad_sym files in a file system. Files are parsed on first
// use and cached.
type SymbolLibrary struct {
	fsys  fs.FS
	cache map[string]*libraryFile
}

// libraryFile is one parsed .kicad_sym file. derived maps each
// (extends ...) symbol to its parent name.
type libraryFile struct {
	templates map[string]*Template
	derived   map[string]string
}

// NewSymbolLibrary creates a catalog over fsys.
func NewSymbolLibrary(fsys fs.FS) *SymbolLibrary {
	return &SymbolLibrary{
		fsys:  fsys,
		cache: make(map[string]*libraryFile),
	}
}

// Directories builds a catalog over KiCad symbol directories, searched in
// order.
func Directories(dirs []string) Chain {
	chain := make(Chain, 0, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		chain = append(chain, NewSymbolLibrary(os.DirFS(dir)))
	}
	return chain
}

// Lookup implements PartCatalog.
func (l *SymbolLibrary) Lookup(library, name string) (*Template, error) {
	lib, err := l.load(library)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &UnknownPartError{Library: library, Name: name}
		}
		return nil, err
	}

	if parent, ok := lib.derived[name]; ok {
		return nil, &DerivedSymbolError{Library: library, Name: name, Parent: parent}
	}
	t, ok := lib.templates[name]
	if !ok {
		return nil, &UnknownPartError{Library: library, Name: name}
	}
	return t, nil
}

// Parts returns every template of every library, sorted by library id.
func (l *SymbolLibrary) Parts() ([]*Template, error) {
	files, err := fs.Glob(l.fsys, "*"+SymbolFileExt)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	var parts []*Template
	for _, file := range files {
		library := strings.TrimSuffix(path.Base(file), SymbolFileExt)
		lib, err := l.load(library)
		if err != nil {
			return nil, err
		}
		for _, t := range lib.templates {
			parts = append(parts, t)
		}
	}

	sort.Slice(parts, func(i, j int) bool {
		return parts[i].LibID() < parts[j].LibID()
	})
	return parts, nil
}

func (l *SymbolLibrary) load(library string) (*libraryFile, error) {
	if lib, ok := l.cache[library]; ok {
		return lib, nil
	}

	file := library + SymbolFileExt
	f, err := l.fsys.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	root, err := kicadsexp.ParseOne(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", file, err)
	}
	if head := sexp.GetNodeName(root); head != "kicad_symbol_lib" {
		return nil, fmt.Errorf("catalog: %s: expected 'kicad_symbol_lib', got %q", file, head)
	}

	lib := &libraryFile{
		templates: make(map[string]*Template),
		derived:   make(map[string]string),
	}
	for _, node := range sexp.FindAllNodes(root, "symbol") {
		if extends, derived := sexp.FindNode(node, "extends"); derived {
			name, err := sexp.GetQuotedString(node, 1)
			if err != nil {
				return nil, fmt.Errorf("catalog: %s: symbol without name: %w", file, err)
			}
			lib.derived[name], _ = sexp.GetString(extends, 1)
			continue
		}

		t, err := templateFromSymbol(library, node)
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", file, err)
		}
		lib.templates[t.Name] = t
	}

	l.cache[library] = lib
	return lib, nil
}

// templateFromSymbol turns a (symbol "Name" ...) library entry into a
// template. The symbol text is re-emitted under its schematic name
// "Library:Name"; nested unit names keep their plain form.
func templateFromSymbol(library string, node kicadsexp.Sexp) (*Template, error) {
	list, ok := node.(*kicadsexp.List)
	if !ok {
		return nil, fmt.Errorf("symbol entry is not a list")
	}

	name, err := sexp.GetQuotedString(node, 1)
	if err != nil {
		return nil, fmt.Errorf("symbol without name: %w", err)
	}

	props := sexp.GetProperties(node)
	t := &Template{
		Library:     library,
		Name:        name,
		RefPrefix:   props["Reference"].Value,
		Footprint:   props["Footprint"].Value,
		Datasheet:   props["Datasheet"].Value,
		Description: firstNonEmpty(props["Description"].Value, props["ki_description"].Value),
		Keywords:    props["ki_keywords"].Value,
		Power:       sexp.HasSymbol(node, "power"),
	}
	if t.RefPrefix == "" {
		return nil, fmt.Errorf("symbol %s has no Reference property", name)
	}

	lib := schematic.ParseLibSymbol(node)
	seen := make(map[string]bool)
	for _, p := range lib.Pins {
		// Multi-body-style symbols repeat pins per style; keep the first
		if seen[p.Number] {
			continue
		}
		seen[p.Number] = true

		pinName := p.Name
		if pinName == "~" {
			pinName = ""
		}
		t.Pins = append(t.Pins, PinDef{
			Number: p.Number,
			Name:   pinName,
			Type:   PinType(p.Type),
			At:     p.Position,
		})
	}

	elems := list.Elements()
	elems[1] = kicadsexp.Quoted(t.LibID())
	t.Symbol = sexp.Pretty(kicadsexp.NewList(elems...), "  ", 0)

	return t, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
