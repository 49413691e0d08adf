package analyzer

import (
	"fmt"

	"github.com/funvibe/regionck/internal/ast"
	"github.com/funvibe/regionck/internal/config"
	"github.com/funvibe/regionck/internal/diagnostics"
	"github.com/funvibe/regionck/internal/regions"
	"github.com/funvibe/regionck/internal/token"
)

// instantiation maps a callee's generics to the caller's regions and types.
type instantiation struct {
	callee  *ast.FnDecl
	regions map[string]regions.RegionVid
	types   map[string]regions.Type
	params  map[string]bool
}

func (c *fnChecker) instantiate(callee *ast.FnDecl) *instantiation {
	inst := &instantiation{
		callee:  callee,
		regions: make(map[string]regions.RegionVid),
		types:   make(map[string]regions.Type),
		params:  make(map[string]bool),
	}
	for _, name := range callee.Lifetimes() {
		inst.regions[name] = c.ctx.Fresh()
	}
	for _, name := range callee.TypeParams() {
		inst.params[name] = true
	}
	return inst
}

func (inst *instantiation) region(l *ast.Lifetime, c *fnChecker) regions.RegionVid {
	if l == nil {
		return c.ctx.Fresh()
	}
	if l.Name == config.StaticLifetime {
		return regions.Static
	}
	return inst.regions[l.Name]
}

// subst maps a callee type into the caller. It returns nil when the type
// mentions a type parameter no argument has bound.
func (inst *instantiation) subst(t ast.TypeExpr, c *fnChecker) regions.Type {
	switch ty := t.(type) {
	case *ast.NamedType:
		if inst.params[ty.Name] {
			return inst.types[ty.Name]
		}
		return regions.Concrete{Name: ty.Name}
	case *ast.RefType:
		elem := inst.subst(ty.Elem, c)
		if elem == nil {
			return nil
		}
		return regions.Ref{Region: inst.region(ty.Lifetime, c), Elem: elem}
	}
	return nil
}

// relate matches an argument type against the callee's parameter type,
// binding type parameters and recording that argument regions outlive the
// parameter regions they flow into.
func (c *fnChecker) relate(param ast.TypeExpr, arg regions.Type, inst *instantiation, span token.Token, s *scopeState) {
	switch p := param.(type) {
	case *ast.NamedType:
		if !inst.params[p.Name] {
			return
		}
		bound, ok := inst.types[p.Name]
		if !ok {
			inst.types[p.Name] = arg
			return
		}
		c.equateTypes(bound, arg, span, s)
	case *ast.RefType:
		ref, ok := arg.(regions.Ref)
		if !ok {
			return
		}
		s.addRegion(ref.Region, inst.region(p.Lifetime, c), span)
		c.relate(p.Elem, ref.Elem, inst, span, s)
	}
}

func (c *fnChecker) equateTypes(a, b regions.Type, span token.Token, s *scopeState) {
	ra, okA := a.(regions.Ref)
	rb, okB := b.(regions.Ref)
	if !okA || !okB {
		return
	}
	s.equate(ra.Region, rb.Region, span)
	c.equateTypes(ra.Elem, rb.Elem, span, s)
}

// walkCall instantiates the callee and records the obligations its
// signature imposes at this call.
func (c *fnChecker) walkCall(st *ast.CallStatement, s *scopeState) {
	callee, ok := c.a.fns[st.Callee.Value]
	if !ok {
		if local, found := s.lookup(st.Callee.Value); found {
			c.walkLocalCall(st, local, s)
			return
		}
		c.errorf(diagnostics.ErrA002, st.Callee.Token, st.Callee.Value)
		return
	}
	if !c.a.valid[callee.Name.Value] {
		// The signature already produced its own diagnostics.
		return
	}
	if len(st.Args) != len(callee.Params) {
		c.errorf(diagnostics.ErrA004, st.Token,
			arityMessage("function `"+callee.Name.Value+"`", "argument", len(callee.Params), len(st.Args)))
		return
	}

	inst := c.instantiate(callee)

	// Plain arguments first: closures need the bindings they produce.
	for i, arg := range st.Args {
		ident, ok := arg.(*ast.Identifier)
		if !ok {
			continue
		}
		t, found := s.lookup(ident.Value)
		if !found {
			c.errorf(diagnostics.ErrA001, ident.Token, ident.Value)
			continue
		}
		c.relate(callee.Params[i].Type, t, inst, ident.Token, s)
	}

	for i, arg := range st.Args {
		closure, ok := arg.(*ast.ClosureExpr)
		if !ok {
			continue
		}
		// Elided regions in the bound's inputs belong to the closure.
		boundary := c.ctx.Len()
		kind, inputs, expected := c.expectedClosure(callee, callee.Params[i].Type, inst)
		ty := c.walkClosure(closure, kind, inputs, expected, boundary, s)
		if named, ok := callee.Params[i].Type.(*ast.NamedType); ok && inst.params[named.Name] {
			if _, bound := inst.types[named.Name]; !bound {
				inst.types[named.Name] = ty
			}
		}
	}

	for _, pred := range callee.Where {
		c.applyPredicate(pred, inst, st.Token, s)
	}
}

// walkLocalCall handles `closure(value);` where closure is a parameter whose
// type carries an `F: FnOnce(..)` bound in the function's where-clause.
func (c *fnChecker) walkLocalCall(st *ast.CallStatement, local regions.Type, s *scopeState) {
	param, ok := local.(regions.Param)
	var inputs []ast.TypeExpr
	if ok {
		inputs, ok = c.sugarInputs(param.Name)
	}
	if !ok {
		c.errorf(diagnostics.ErrA002, st.Callee.Token, st.Callee.Value)
		return
	}
	if len(st.Args) != len(inputs) {
		c.errorf(diagnostics.ErrA004, st.Token,
			arityMessage("closure `"+st.Callee.Value+"`", "argument", len(inputs), len(st.Args)))
		return
	}

	for i, arg := range st.Args {
		ident, ok := arg.(*ast.Identifier)
		if !ok {
			c.errorf(diagnostics.ErrP005, arg.GetToken(), "closures cannot be passed to a closure parameter")
			continue
		}
		t, found := s.lookup(ident.Value)
		if !found {
			c.errorf(diagnostics.ErrA001, ident.Token, ident.Value)
			continue
		}
		want := c.resolveType(inputs[i], c.ctx.Fresh)
		c.flowInto(t, want, ident.Token, s)
	}
}

// sugarInputs returns the inputs of the first `name: Fn*(..)` bound declared
// by the function being checked.
func (c *fnChecker) sugarInputs(name string) ([]ast.TypeExpr, bool) {
	for _, pred := range c.fn.Where {
		if pred.SubjectType == nil || pred.SubjectType.Value != name {
			continue
		}
		for _, b := range pred.Bounds {
			if bound, ok := b.(*ast.TraitBound); ok && bound.Sugar {
				return bound.Inputs, true
			}
		}
	}
	return nil, false
}

// flowInto records that a value of type from is passed where want is
// expected: every reference region of from outlives the matching one in want.
func (c *fnChecker) flowInto(from, want regions.Type, span token.Token, s *scopeState) {
	rf, okF := from.(regions.Ref)
	rw, okW := want.(regions.Ref)
	if !okF || !okW {
		return
	}
	s.addRegion(rf.Region, rw.Region, span)
	c.flowInto(rf.Elem, rw.Elem, span, s)
}

// expectedClosure looks for an `F: FnOnce(..)` bound on the callee parameter
// the closure is passed to.
func (c *fnChecker) expectedClosure(callee *ast.FnDecl, param ast.TypeExpr, inst *instantiation) (regions.ClosureKind, []regions.Type, bool) {
	named, ok := param.(*ast.NamedType)
	if !ok || !inst.params[named.Name] {
		return regions.KindFn, nil, false
	}
	for _, pred := range callee.Where {
		if pred.SubjectType == nil || pred.SubjectType.Value != named.Name {
			continue
		}
		for _, b := range pred.Bounds {
			bound, ok := b.(*ast.TraitBound)
			if !ok || !bound.Sugar {
				continue
			}
			kind, _ := regions.ParseClosureKind(bound.Name)
			inputs := make([]regions.Type, len(bound.Inputs))
			for j, in := range bound.Inputs {
				inputs[j] = inst.subst(in, c)
			}
			return kind, inputs, true
		}
	}
	return regions.KindFn, nil, false
}

// applyPredicate adds one substituted callee where-clause at a call site.
func (c *fnChecker) applyPredicate(pred *ast.Predicate, inst *instantiation, span token.Token, s *scopeState) {
	if pred.SubjectLifetime != nil {
		sub := inst.region(pred.SubjectLifetime, c)
		for _, b := range pred.Bounds {
			if lb, ok := b.(*ast.LifetimeBound); ok {
				s.addRegion(sub, inst.region(lb.Lifetime, c), span)
			}
		}
		return
	}

	subject, bound := inst.types[pred.SubjectType.Value]
	if !bound {
		// A type parameter no argument mentions is unconstrained.
		return
	}
	for _, b := range pred.Bounds {
		switch bd := b.(type) {
		case *ast.LifetimeBound:
			s.addType(subject, inst.region(bd.Lifetime, c), span)
		case *ast.TraitBound:
			if bd.Sugar {
				continue
			}
			if _, isClosure := subject.(regions.ClosureTy); isClosure {
				continue
			}
			args := make([]regions.RegionVid, len(bd.Lifetimes))
			for i, l := range bd.Lifetimes {
				args[i] = inst.region(l, c)
			}
			c.proveTrait(subject, bd.Name, args, span, s)
		}
	}
}

// walkClosure collects a closure body as a nested scope, then hands its
// external requirements to the enclosing scope. Regions numbered below
// boundary are external to the closure.
func (c *fnChecker) walkClosure(expr *ast.ClosureExpr, kind regions.ClosureKind, inputs []regions.Type, expected bool, boundary int, parent *scopeState) regions.Type {
	path := fmt.Sprintf("%s::{closure#%d}", parent.path, parent.closures)
	parent.closures++

	if expr.Kind != "" {
		kind, _ = regions.ParseClosureKind(expr.Kind)
	}

	if expected && len(inputs) != len(expr.Params) {
		c.errorf(diagnostics.ErrA004, expr.Token,
			arityMessage("closure", "argument", len(inputs), len(expr.Params)))
	}

	child := &scopeState{parent: parent, path: path, locals: make(map[string]regions.Type), boundary: boundary}
	sig := make([]regions.Type, len(expr.Params))
	for i, p := range expr.Params {
		var t regions.Type
		switch {
		case p.Type != nil:
			t = c.resolveType(p.Type, c.ctx.Fresh)
		case expected && i < len(inputs) && inputs[i] != nil:
			t = inputs[i]
		default:
			c.errorf(diagnostics.ErrA006, p.Token, p.Name.Value)
			t = regions.Concrete{Name: "_"}
		}
		child.locals[p.Name.Value] = t
		sig[i] = t
	}

	substs := append([]regions.GenericArg(nil), c.fnSubsts...)
	substs = append(substs, regions.KindArg(kind), regions.SigArg(sig))
	child.scope = &regions.Scope{
		Kind:         regions.ScopeClosure,
		Span:         expr.Token,
		Depth:        parent.scope.Depth + 1,
		Defining:     regions.DefiningType{Path: path, Closure: true, Substs: substs},
		ExternalVids: boundary,
	}
	c.scopes = append(c.scopes, child.scope)

	c.walkBlock(expr.Body, child)

	child.scope.Requirements = propagate(child, c.ctx)
	for _, req := range child.scope.Requirements {
		if req.Subject.IsRegion {
			parent.addRegion(req.Subject.Region, req.Target, expr.Token)
		} else {
			parent.addType(regions.Param{Name: req.Subject.Param}, req.Target, expr.Token)
		}
	}

	return regions.ClosureTy{Path: path}
}
