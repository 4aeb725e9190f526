package design

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// File is a parsed circuit description.
// Example:
//
//	circuit "viscosimeter"
//	net GND power
//	part r1 "Device:R" value "48.7k" at 50.8 25.4
//	bind r1.1 to "+12V"
type File struct {
	Name       string       `( "circuit" @String )?`
	Statements []*Statement `@@*`
}

// Statement is one line of a description.
type Statement struct {
	Pos lexer.Position

	Net  *NetDecl  `  @@`
	Part *PartDecl `| @@`
	Bind *BindStmt `| @@`
	Join *JoinStmt `| @@`
	Wire *WireStmt `| @@`
	Flag *FlagStmt `| @@`
}

// NetDecl declares a net: net GND power
type NetDecl struct {
	Name  string `"net" @( Ident | String )`
	Power bool   `@"power"?`
}

// PartDecl places a part: part r1 "Device:R" value "48.7k" at 50.8 25.4
type PartDecl struct {
	Handle  string        `"part" @Ident`
	LibID   string        `@String`
	Options []*PartOption `@@*`
}

// PartOption is an optional part attribute.
type PartOption struct {
	Value     *string `  "value" @String`
	Footprint *string `| "footprint" @String`
	At        *Point  `| "at" @@`
}

// Point is an X Y pair in millimetres.
type Point struct {
	X float64 `@Number`
	Y float64 `@Number`
}

// PinRef addresses a pin: r1.2, arduino.A0 or acs."IP+"
type PinRef struct {
	Handle string `@Ident Dot`
	Pin    string `@( Number | Ident | String )`
}

// BindStmt attaches a pin to a net: bind r1.1 to "+12V"
type BindStmt struct {
	Pin *PinRef `"bind" @@`
	Net string  `"to" @( Ident | String )`
}

// JoinStmt connects two pins: join r1.2 to r2.1
type JoinStmt struct {
	A *PinRef `"join" @@`
	B *PinRef `"to" @@`
}

// WireStmt draws a wire: wire "+12V" from j2.1 to r1.1
type WireStmt struct {
	Net  string  `"wire" @( Ident | String )`
	From *PinRef `"from" @@`
	To   *PinRef `"to" @@`
}

// FlagStmt places a power flag: flag GND at 25.4 127
type FlagStmt struct {
	Net string `"flag" @( Ident | String )`
	At  *Point `"at" @@`
}
