package regions

import (
	"fmt"

	"github.com/funvibe/regionck/internal/token"
)

// Subject is the left-hand side of an outlives obligation: either a type
// parameter or a region.
type Subject struct {
	Param    string
	Region   RegionVid
	IsRegion bool
}

func TypeSubject(param string) Subject  { return Subject{Param: param} }
func RegionSubject(v RegionVid) Subject { return Subject{Region: v, IsRegion: true} }

func (s Subject) Render(ctx *Context, verbose bool) string {
	if s.IsRegion {
		return ctx.Display(s.Region, verbose)
	}
	return s.Param
}

// Obligation means "Subject must live at least as long as Target". Span is
// where the obligation arose: a call, a require statement, or the closure
// whose requirement it is.
type Obligation struct {
	Subject Subject
	Target  RegionVid
	Span    token.Token
}

// Key identifies an obligation independent of where it arose.
type Key struct {
	Subject Subject
	Target  RegionVid
}

func (o Obligation) Key() Key {
	return Key{Subject: o.Subject, Target: o.Target}
}

// Render prints `T: 'a` or `'b: 'a`.
func (o Obligation) Render(ctx *Context, verbose bool) string {
	return fmt.Sprintf("%s: %s", o.Subject.Render(ctx, verbose), ctx.Display(o.Target, verbose))
}

// TypeOutlives is T: 'r where T may still contain references; the collector
// breaks it into components.
type TypeOutlives struct {
	Type   Type
	Target RegionVid
	Span   token.Token
}

// RegionOutlives is 'longer: 'shorter, an edge longer -> shorter in the
// constraint graph.
type RegionOutlives struct {
	Longer  RegionVid
	Shorter RegionVid
	Span    token.Token
}
