package circuit

import "fmt"

// DuplicatePinBindingError reports a pin bound to a second net.
type DuplicatePinBindingError struct {
	Ref      string
	Pin      string
	Existing string // net the pin is already on
	Net      string // net requested by the failing bind
}

func (e *DuplicatePinBindingError) Error() string {
	return fmt.Sprintf("circuit: pin %s.%s already bound to net %q, cannot bind to %q", e.Ref, e.Pin, e.Existing, e.Net)
}

// UnknownPinError reports a pin identifier that matches no template pin.
type UnknownPinError struct {
	Ref   string
	Pin   string
	LibID string
}

func (e *UnknownPinError) Error() string {
	return fmt.Sprintf("circuit: %s (%s) has no pin %q", e.Ref, e.LibID, e.Pin)
}

// UnknownComponentError reports a reference designator that was never
// placed.
type UnknownComponentError struct {
	Ref string
}

func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("circuit: unknown component %s", e.Ref)
}

// UnknownNetError reports a bind to a net that was never declared.
type UnknownNetError struct {
	Name string
}

func (e *UnknownNetError) Error() string {
	return fmt.Sprintf("circuit: unknown net %q", e.Name)
}

// DuplicateNetError reports a second declaration of the same net name.
type DuplicateNetError struct {
	Name string
}

func (e *DuplicateNetError) Error() string {
	return fmt.Sprintf("circuit: net %q declared twice", e.Name)
}

// UnboundPinWarning records a pin left unconnected. It never aborts a
// build.
type UnboundPinWarning struct {
	Ref  string
	Pin  string
	Name string
	Type string
}

func (w UnboundPinWarning) String() string {
	if w.Name != "" {
		return fmt.Sprintf("unconnected pin %s.%s (%s, %s)", w.Ref, w.Pin, w.Name, w.Type)
	}
	return fmt.Sprintf("unconnected pin %s.%s (%s)", w.Ref, w.Pin, w.Type)
}
