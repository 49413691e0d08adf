package regions

import (
	"errors"
	"fmt"

	"github.com/funvibe/regionck/internal/token"
)

// GenericArg is one entry of a defining type's substitutions.
type GenericArg struct {
	Region *RegionVid
	Type   Type
	Kind   *ClosureKind
	Sig    []Type // closure inputs; only meaningful when IsSig
	IsSig  bool
}

func RegionArg(v RegionVid) GenericArg { return GenericArg{Region: &v} }
func TypeArg(t Type) GenericArg        { return GenericArg{Type: t} }
func KindArg(k ClosureKind) GenericArg { return GenericArg{Kind: &k} }
func SigArg(inputs []Type) GenericArg  { return GenericArg{Sig: inputs, IsSig: true} }

func (a GenericArg) Render(ctx *Context, verbose bool) string {
	switch {
	case a.Region != nil:
		return ctx.Display(*a.Region, verbose)
	case a.Type != nil:
		return a.Type.Render(ctx, verbose)
	case a.Kind != nil:
		return a.Kind.Marker()
	case a.IsSig:
		return Signature(a.Sig, ctx, verbose)
	default:
		return "?"
	}
}

// DefiningType describes a function or closure instantiation for reports.
type DefiningType struct {
	Path    string
	Closure bool
	Substs  []GenericArg
}

type ScopeKind int

const (
	ScopeFn ScopeKind = iota
	ScopeClosure
)

// Scope is one function or closure of a check.
type Scope struct {
	Kind         ScopeKind
	Span         token.Token
	Depth        int
	Defining     DefiningType
	ExternalVids int

	// Requirements are a closure's external requirements, in collection
	// order. Always empty for functions.
	Requirements []Obligation
}

// Status is the state of an obligation.
type Status int

const (
	Collected Status = iota
	Satisfied
	Violated
)

func (s Status) String() string {
	switch s {
	case Satisfied:
		return "satisfied"
	case Violated:
		return "violated"
	default:
		return "collected"
	}
}

var ErrAlreadyJudged = errors.New("obligation already judged")

// Judgement tracks one obligation through Collected -> Satisfied | Violated.
type Judgement struct {
	Obligation Obligation
	status     Status
}

func NewJudgement(o Obligation) *Judgement {
	return &Judgement{Obligation: o}
}

func (j *Judgement) Status() Status { return j.status }

// Settle moves the judgement to a terminal status.
func (j *Judgement) Settle(s Status) error {
	if s == Collected {
		return fmt.Errorf("cannot settle to %s", s)
	}
	if j.status != Collected {
		return fmt.Errorf("%w: %s", ErrAlreadyJudged, j.status)
	}
	j.status = s
	return nil
}

// FnCheck is everything known about one function body after analysis.
type FnCheck struct {
	Name      string
	Span      token.Token
	Annotated bool
	Ctx       *Context
	Where     *WhereClauseSet

	// Scopes lists the function first, then its closures outer-to-inner in
	// source order.
	Scopes []*Scope

	// Judgements are the function-level obligations, in collection order.
	Judgements []*Judgement
}

// Violations returns the violated judgements in order.
func (c *FnCheck) Violations() []*Judgement {
	var out []*Judgement
	for _, j := range c.Judgements {
		if j.Status() == Violated {
			out = append(out, j)
		}
	}
	return out
}

// ObligationViolated is the only error the checker reports about programs.
type ObligationViolated struct {
	Subject string
	Target  string
	Span    token.Token
}

func (e *ObligationViolated) Error() string {
	return fmt.Sprintf("%s does not outlive %s", e.Subject, e.Target)
}

// Violation converts a violated judgement into an error value.
func (c *FnCheck) Violation(j *Judgement, verbose bool) *ObligationViolated {
	return &ObligationViolated{
		Subject: j.Obligation.Subject.Render(c.Ctx, verbose),
		Target:  c.Ctx.Display(j.Obligation.Target, verbose),
		Span:    j.Obligation.Span,
	}
}
