package sexp

import (
	"fmt"
	"strconv"

	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp/kicadsexp"
)

// S-expression navigation helpers

// FindNode searches for a child node with the given key (first atom)
// Example: FindNode(sexp, "at") finds (at 100 50) in a list
func FindNode(s kicadsexp.Sexp, key string) (kicadsexp.Sexp, bool) {
	for _, item := range SexpToSlice(s) {
		if item.IsLeaf() {
			// Bare flags such as `hide` or `power`
			if v, ok := item.(kicadsexp.Symbol); ok && string(v) == key {
				return item, true
			}
			continue
		}
		if GetNodeName(item) == key {
			return item, true
		}
	}

	return nil, false
}

// FindAllNodes finds all child lists with the given key
func FindAllNodes(s kicadsexp.Sexp, key string) []kicadsexp.Sexp {
	var results []kicadsexp.Sexp

	for _, item := range SexpToSlice(s) {
		if !item.IsLeaf() && GetNodeName(item) == key {
			results = append(results, item)
		}
	}

	return results
}

// SexpToSlice converts an s-expression list to a Go slice.
// Atoms and nil yield an empty slice.
func SexpToSlice(s kicadsexp.Sexp) []kicadsexp.Sexp {
	if list, ok := s.(*kicadsexp.List); ok && list != nil {
		return list.Elements()
	}
	return nil
}

// GetNodeName returns the head atom of a list, or "" when there is none.
func GetNodeName(s kicadsexp.Sexp) string {
	items := SexpToSlice(s)
	if len(items) == 0 {
		return ""
	}
	if v, ok := items[0].(kicadsexp.Symbol); ok {
		return string(v)
	}
	return ""
}

// HasSymbol reports whether a list carries a flag, either as a bare atom
// (`hide`) or in the newer boolean form (`(hide yes)`).
func HasSymbol(s kicadsexp.Sexp, flag string) bool {
	node, ok := FindNode(s, flag)
	if !ok {
		return false
	}
	if node.IsLeaf() {
		return true
	}
	v, err := GetString(node, 1)
	if err != nil {
		// (power) with no argument
		return true
	}
	return v == "yes"
}

// Typed value extraction helpers

// GetString extracts an atom value at the given index in a list.
// Index 0 is the key, 1 is first value, etc. Quoted and bare atoms are
// both accepted.
func GetString(s kicadsexp.Sexp, index int) (string, error) {
	if s == nil || s.IsLeaf() {
		return "", fmt.Errorf("expected list, got leaf")
	}

	items := SexpToSlice(s)
	if index < 0 || index >= len(items) {
		return "", fmt.Errorf("index %d out of bounds (length %d)", index, len(items))
	}

	if v, ok := kicadsexp.Atom(items[index]); ok {
		return v, nil
	}

	return "", fmt.Errorf("expected atom at index %d, got %T", index, items[index])
}

// GetQuotedString extracts a value at the given index that must have been
// quoted in the source, such as the name in (symbol "Device:R" ...).
func GetQuotedString(s kicadsexp.Sexp, index int) (string, error) {
	items := SexpToSlice(s)
	if index < 0 || index >= len(items) {
		return "", fmt.Errorf("index %d out of bounds (length %d)", index, len(items))
	}
	if q, ok := items[index].(kicadsexp.Quoted); ok {
		return string(q), nil
	}
	return "", fmt.Errorf("expected quoted string at index %d, got %T", index, items[index])
}

// GetChildString extracts the first value of a (key value) child node.
func GetChildString(s kicadsexp.Sexp, key string) (string, error) {
	node, ok := FindNode(s, key)
	if !ok || node.IsLeaf() {
		return "", fmt.Errorf("node %q not found", key)
	}
	return GetString(node, 1)
}

// GetFloat extracts a float64 value at the given index
func GetFloat(s kicadsexp.Sexp, index int) (float64, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}

	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse float %q: %w", str, err)
	}

	return val, nil
}

// GetInt extracts an int value at the given index
func GetInt(s kicadsexp.Sexp, index int) (int, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}

	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("failed to parse int %q: %w", str, err)
	}

	return val, nil
}

// Domain-specific extraction helpers

// GetPosition extracts a position from an (at X Y [angle]) node.
// Schematic and symbol library files store millimetres and degrees.
func GetPosition(s kicadsexp.Sexp) (PositionAngle, error) {
	if GetNodeName(s) != "at" {
		return PositionAngle{}, fmt.Errorf("expected (at X Y [angle]) list")
	}

	pos, err := GetPositionXY(s)
	if err != nil {
		return PositionAngle{}, err
	}

	result := PositionAngle{Position: pos}

	// Angle is optional
	if angle, err := GetFloat(s, 3); err == nil {
		result.Angle = Angle(angle)
	}

	return result, nil
}

// GetPositionXY extracts just X,Y coordinates (no angle)
// Used for (xy X Y), (start X Y), (end X Y), etc.
func GetPositionXY(s kicadsexp.Sexp) (Position, error) {
	if s == nil || s.IsLeaf() {
		return Position{}, fmt.Errorf("expected position list")
	}

	x, err := GetFloat(s, 1)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse X: %w", err)
	}

	y, err := GetFloat(s, 2)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse Y: %w", err)
	}

	return Position{X: x, Y: y}, nil
}

// GetUUID extracts the identifier from a (uuid ...) node.
func GetUUID(s kicadsexp.Sexp) (UUID, error) {
	if GetNodeName(s) != "uuid" {
		return "", fmt.Errorf("expected (uuid ...) node")
	}
	v, err := GetString(s, 1)
	if err != nil {
		return "", err
	}
	return UUID(v), nil
}

// GetProperty parses a (property "Key" "Value" (at ...) (effects ...)) node.
func GetProperty(s kicadsexp.Sexp) (Property, error) {
	if GetNodeName(s) != "property" {
		return Property{}, fmt.Errorf("expected property node")
	}

	key, err := GetString(s, 1)
	if err != nil {
		return Property{}, fmt.Errorf("failed to parse property key: %w", err)
	}
	value, err := GetString(s, 2)
	if err != nil {
		return Property{}, fmt.Errorf("failed to parse property %q value: %w", key, err)
	}

	prop := Property{Key: key, Value: value, Effects: DefaultEffects}

	if at, ok := FindNode(s, "at"); ok {
		if pos, err := GetPosition(at); err == nil {
			prop.Position = pos
		}
	}
	if effects, ok := FindNode(s, "effects"); ok {
		prop.Effects.Hide = HasSymbol(effects, "hide")
	}
	// KiCad 8 moved hide out of effects
	if HasSymbol(s, "hide") {
		prop.Effects.Hide = true
	}

	return prop, nil
}

// GetProperties collects all (property ...) children keyed by name.
func GetProperties(s kicadsexp.Sexp) map[string]Property {
	props := make(map[string]Property)
	for _, node := range FindAllNodes(s, "property") {
		if prop, err := GetProperty(node); err == nil {
			props[prop.Key] = prop
		}
	}
	return props
}
