package kicadsexp

import (
	"errors"
	"strings"
	"testing"
)

func TestParseNested(t *testing.T) {
	input := `(kicad_sch (version 20230121) (generator eeschema)
  (paper "A4")
  (lib_symbols (symbol "Device:R" (pin_names (offset 0))))
)`

	exprs, err := ParseString(input)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if len(exprs) != 1 {
		t.Fatalf("Expected 1 top-level expression, got %d", len(exprs))
	}

	root, ok := exprs[0].(*List)
	if !ok {
		t.Fatalf("Expected list, got %T", exprs[0])
	}
	if root.Len() != 5 {
		t.Errorf("Expected 5 elements in root, got %d", root.Len())
	}
	if head, _ := Atom(root.Head()); head != "kicad_sch" {
		t.Errorf("Expected head kicad_sch, got %q", head)
	}

	paper := root.Get(3).(*List)
	if _, ok := paper.Get(1).(Quoted); !ok {
		t.Errorf("Expected paper value to be Quoted, got %T", paper.Get(1))
	}
	if _, ok := root.Get(1).(*List).Get(1).(Symbol); !ok {
		t.Errorf("Expected version value to be a bare Symbol")
	}
}

func TestParseStringEscapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `"hello"`, "hello"},
		{"empty", `""`, ""},
		{"backslash quote", `"say \"hi\""`, `say "hi"`},
		{"doubled quote", `"a""b"`, `a"b`},
		{"newline", `"a\nb"`, "a\nb"},
		{"backslash", `"C:\\lib"`, `C:\lib`},
		{"tilde markup", `"~{RESET}"`, "~{RESET}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exprs, err := ParseString(tt.input)
			if err != nil {
				t.Fatalf("Failed to parse %s: %v", tt.input, err)
			}
			got, ok := exprs[0].(Quoted)
			if !ok {
				t.Fatalf("Expected Quoted, got %T", exprs[0])
			}
			if string(got) != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, string(got))
			}
		})
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	values := []string{"", "+12V", `a "quoted" word`, `back\slash`, "two\nlines", "Net-(R1-Pad2)"}
	for _, v := range values {
		exprs, err := ParseString(Quote(v))
		if err != nil {
			t.Fatalf("Failed to parse %s: %v", Quote(v), err)
		}
		if got, _ := Atom(exprs[0]); got != v {
			t.Errorf("Quote round trip: expected %q, got %q", v, got)
		}
	}
}

func TestListString(t *testing.T) {
	list := NewList(Symbol("property"), Quoted("Value"), Quoted("48.7k"),
		NewList(Symbol("at"), Symbol("50.8"), Symbol("33.02"), Symbol("0")))

	want := `(property "Value" "48.7k" (at 50.8 33.02 0))`
	if got := list.String(); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantCol  int
	}{
		{"unclosed list", "(a\n  (b c)", 1, 1},
		{"stray close", "(a)\n )", 2, 2},
		{"unterminated string", `(a "bc`, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			if err == nil {
				t.Fatalf("Expected error for %q", tt.input)
			}
			var syn *SyntaxError
			if !errors.As(err, &syn) {
				t.Fatalf("Expected *SyntaxError, got %T: %v", err, err)
			}
			if syn.Line != tt.wantLine || syn.Col != tt.wantCol {
				t.Errorf("Expected position %d:%d, got %d:%d", tt.wantLine, tt.wantCol, syn.Line, syn.Col)
			}
		})
	}
}

func TestParseOne(t *testing.T) {
	if _, err := ParseOne(stringsReader("(a) (b)")); err == nil {
		t.Error("Expected error for two top-level expressions")
	}
	if _, err := ParseOne(stringsReader("atom")); err == nil {
		t.Error("Expected error for a top-level atom")
	}
	list, err := ParseOne(stringsReader("(export (version \"E\"))"))
	if err != nil {
		t.Fatalf("ParseOne failed: %v", err)
	}
	if list.Len() != 2 {
		t.Errorf("Expected 2 elements, got %d", list.Len())
	}
}

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
