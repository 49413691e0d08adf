package regions

import (
	"fmt"
	"strings"
)

// Type is a resolved type in a function or closure body.
type Type interface {
	isType()
	// Render prints the type with regions displayed by ctx.
	Render(ctx *Context, verbose bool) string
}

// Param is a generic type parameter of the enclosing function.
type Param struct {
	Name string
}

// Concrete is a non-generic type without regions, such as u32.
type Concrete struct {
	Name string
}

// Ref is a shared reference &'r T.
type Ref struct {
	Region RegionVid
	Elem   Type
}

// ClosureTy is the opaque type of a closure argument.
type ClosureTy struct {
	Path string
}

func (Param) isType()     {}
func (Concrete) isType()  {}
func (Ref) isType()       {}
func (ClosureTy) isType() {}

func (t Param) Render(*Context, bool) string    { return t.Name }
func (t Concrete) Render(*Context, bool) string { return t.Name }
func (t ClosureTy) Render(*Context, bool) string {
	return "[closure " + t.Path + "]"
}

func (t Ref) Render(ctx *Context, verbose bool) string {
	return "&" + ctx.Display(t.Region, verbose) + " " + t.Elem.Render(ctx, verbose)
}

// ClosureKind is the call trait a closure implements.
type ClosureKind int

const (
	KindFn ClosureKind = iota
	KindFnMut
	KindFnOnce
)

// ParseClosureKind maps a written trait name to its kind.
func ParseClosureKind(name string) (ClosureKind, bool) {
	switch name {
	case "Fn":
		return KindFn, true
	case "FnMut":
		return KindFnMut, true
	case "FnOnce":
		return KindFnOnce, true
	}
	return KindFn, false
}

func (k ClosureKind) String() string {
	switch k {
	case KindFnMut:
		return "FnMut"
	case KindFnOnce:
		return "FnOnce"
	default:
		return "Fn"
	}
}

// Marker is the integer type that stands for the kind in closure substs.
func (k ClosureKind) Marker() string {
	switch k {
	case KindFnMut:
		return "i16"
	case KindFnOnce:
		return "i32"
	default:
		return "i8"
	}
}

// Signature renders a closure signature in the "rust-call" tupled form.
func Signature(inputs []Type, ctx *Context, verbose bool) string {
	parts := make([]string, len(inputs))
	for i, in := range inputs {
		parts[i] = in.Render(ctx, verbose)
	}
	tuple := "(" + strings.Join(parts, ", ")
	if len(parts) == 1 {
		tuple += ","
	}
	tuple += ")"
	return fmt.Sprintf("extern \"rust-call\" fn(%s)", tuple)
}
