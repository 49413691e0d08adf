package analyzer

import (
	"fmt"

	"github.com/funvibe/regionck/internal/ast"
	"github.com/funvibe/regionck/internal/config"
	"github.com/funvibe/regionck/internal/diagnostics"
	"github.com/funvibe/regionck/internal/regions"
	"github.com/funvibe/regionck/internal/token"
)

// fnChecker collects the obligations of one function body and its closures.
type fnChecker struct {
	a          *Analyzer
	fn         *ast.FnDecl
	ctx        *regions.Context
	lifetimes  map[string]regions.RegionVid
	typeParams map[string]bool
	where      *regions.WhereClauseSet
	fnSubsts   []regions.GenericArg
	scopes     []*regions.Scope
	errors     []*diagnostics.DiagnosticError
}

// constraint is one collected outlives fact; exactly one field is set.
type constraint struct {
	region *regions.RegionOutlives
	ty     *regions.TypeOutlives
}

// scopeState is the collector's view of a function or closure body.
type scopeState struct {
	parent      *scopeState
	scope       *regions.Scope
	path        string
	locals      map[string]regions.Type
	constraints []constraint
	closures    int

	// boundary is the number of region variables allocated before a
	// closure's own; zero for the function scope.
	boundary int
}

// isExternal reports whether v was allocated outside this scope. For the
// function that means universal; for a closure, anything its enclosing
// scopes allocated before it.
func (s *scopeState) isExternal(ctx *regions.Context, v regions.RegionVid) bool {
	if s.parent == nil {
		return ctx.IsUniversal(v)
	}
	return int(v) < s.boundary
}

func (s *scopeState) lookup(name string) (regions.Type, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.locals[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (s *scopeState) addRegion(longer, shorter regions.RegionVid, span token.Token) {
	s.constraints = append(s.constraints, constraint{region: &regions.RegionOutlives{Longer: longer, Shorter: shorter, Span: span}})
}

// addType records t: target, splitting references into their components.
// Concrete and closure types outlive everything.
func (s *scopeState) addType(t regions.Type, target regions.RegionVid, span token.Token) {
	switch ty := t.(type) {
	case regions.Param:
		s.constraints = append(s.constraints, constraint{ty: &regions.TypeOutlives{Type: ty, Target: target, Span: span}})
	case regions.Ref:
		s.addRegion(ty.Region, target, span)
		s.addType(ty.Elem, target, span)
	}
}

func (s *scopeState) equate(a, b regions.RegionVid, span token.Token) {
	if a == b {
		return
	}
	s.addRegion(a, b, span)
	s.addRegion(b, a, span)
}

func (c *fnChecker) errorf(code diagnostics.ErrorCode, tok token.Token, args ...interface{}) {
	c.errors = append(c.errors, diagnostics.NewError(code, tok, args...))
}

// checkFn builds the region context, the where-clause set and every scope of
// one function body.
func (a *Analyzer) checkFn(fn *ast.FnDecl) (*regions.FnCheck, []*diagnostics.DiagnosticError) {
	c := &fnChecker{
		a:          a,
		fn:         fn,
		ctx:        regions.NewContext(),
		lifetimes:  make(map[string]regions.RegionVid),
		typeParams: make(map[string]bool),
	}

	for _, name := range fn.Lifetimes() {
		c.lifetimes[name] = c.ctx.Universal(name)
	}
	for _, name := range fn.TypeParams() {
		c.typeParams[name] = true
	}

	root := &scopeState{path: fn.Name.Value, locals: make(map[string]regions.Type)}
	var paramTypes []regions.Type
	for _, p := range fn.Params {
		t := c.resolveType(p.Type, func() regions.RegionVid { return c.ctx.Universal("'_") })
		root.locals[p.Name.Value] = t
		paramTypes = append(paramTypes, t)
	}
	c.ctx.Seal()

	c.where = c.buildWhere(paramTypes)

	for v := 1; v < c.ctx.NumUniversal(); v++ {
		c.fnSubsts = append(c.fnSubsts, regions.RegionArg(regions.RegionVid(v)))
	}
	for _, name := range fn.TypeParams() {
		c.fnSubsts = append(c.fnSubsts, regions.TypeArg(regions.Param{Name: name}))
	}

	root.scope = &regions.Scope{
		Kind:         regions.ScopeFn,
		Span:         fn.Token,
		Defining:     regions.DefiningType{Path: fn.Name.Value, Substs: c.fnSubsts},
		ExternalVids: c.ctx.NumUniversal(),
	}
	c.scopes = append(c.scopes, root.scope)

	c.walkBlock(fn.Body, root)

	check := &regions.FnCheck{
		Name:      fn.Name.Value,
		Span:      fn.Token,
		Annotated: fn.HasAttr(config.RegionsAttr),
		Ctx:       c.ctx,
		Where:     c.where,
		Scopes:    c.scopes,
	}
	for _, o := range propagate(root, c.ctx) {
		check.Judgements = append(check.Judgements, regions.NewJudgement(o))
	}

	a.Logger.Debug("collected function",
		"fn", fn.Name.Value,
		"scopes", len(c.scopes),
		"regions", c.ctx.Len(),
		"obligations", len(check.Judgements))

	return check, c.errors
}

// resolveType maps a written type in the function's own scope. elided
// supplies the region of a reference written without a lifetime.
func (c *fnChecker) resolveType(t ast.TypeExpr, elided func() regions.RegionVid) regions.Type {
	switch ty := t.(type) {
	case *ast.NamedType:
		if c.typeParams[ty.Name] {
			return regions.Param{Name: ty.Name}
		}
		return regions.Concrete{Name: ty.Name}
	case *ast.RefType:
		var r regions.RegionVid
		if ty.Lifetime == nil {
			r = elided()
		} else {
			r = c.region(ty.Lifetime)
		}
		return regions.Ref{Region: r, Elem: c.resolveType(ty.Elem, elided)}
	}
	return regions.Concrete{Name: "_"}
}

// region resolves a lifetime written inside the function.
func (c *fnChecker) region(l *ast.Lifetime) regions.RegionVid {
	if l.Name == config.StaticLifetime {
		return regions.Static
	}
	if v, ok := c.lifetimes[l.Name]; ok {
		return v
	}
	c.errorf(diagnostics.ErrA005, l.Token, l.Name)
	return regions.Static
}

// buildWhere collects the declared predicates plus the bounds implied by
// reference parameters: &'a T gives T: 'a, &'a &'b T gives 'b: 'a.
func (c *fnChecker) buildWhere(paramTypes []regions.Type) *regions.WhereClauseSet {
	var preds []regions.Obligation
	var traits []regions.TraitBound

	for _, pred := range c.fn.Where {
		var subject regions.Subject
		if pred.SubjectLifetime != nil {
			subject = regions.RegionSubject(c.region(pred.SubjectLifetime))
		} else {
			subject = regions.TypeSubject(pred.SubjectType.Value)
		}
		for _, b := range pred.Bounds {
			switch bound := b.(type) {
			case *ast.LifetimeBound:
				preds = append(preds, regions.Obligation{Subject: subject, Target: c.region(bound.Lifetime), Span: pred.Token})
			case *ast.TraitBound:
				if bound.Sugar || subject.IsRegion {
					continue
				}
				tb := regions.TraitBound{Param: subject.Param, Trait: bound.Name}
				for _, l := range bound.Lifetimes {
					tb.Regions = append(tb.Regions, c.region(l))
				}
				traits = append(traits, tb)
			}
		}
	}

	var implied func(t regions.Type, r regions.RegionVid)
	implied = func(t regions.Type, r regions.RegionVid) {
		switch ty := t.(type) {
		case regions.Param:
			preds = append(preds, regions.Obligation{Subject: regions.TypeSubject(ty.Name), Target: r, Span: c.fn.Token})
		case regions.Ref:
			preds = append(preds, regions.Obligation{Subject: regions.RegionSubject(ty.Region), Target: r, Span: c.fn.Token})
			implied(ty.Elem, ty.Region)
		}
	}
	for _, t := range paramTypes {
		if ref, ok := t.(regions.Ref); ok {
			implied(ref.Elem, ref.Region)
		}
	}

	return regions.NewWhereClauseSet(preds, traits)
}

func (c *fnChecker) walkBlock(block *ast.Block, s *scopeState) {
	for _, stmt := range block.Statements {
		switch st := stmt.(type) {
		case *ast.RequireStatement:
			c.walkRequire(st, s)
		case *ast.CallStatement:
			c.walkCall(st, s)
		}
	}
}

// require T: 'a + Trait<'b>;
func (c *fnChecker) walkRequire(st *ast.RequireStatement, s *scopeState) {
	pred := st.Predicate
	var subjectType regions.Type
	var subjectRegion regions.RegionVid

	if pred.SubjectLifetime != nil {
		subjectRegion = c.region(pred.SubjectLifetime)
	} else if c.typeParams[pred.SubjectType.Value] {
		subjectType = regions.Param{Name: pred.SubjectType.Value}
	} else {
		c.errorf(diagnostics.ErrA009, pred.SubjectType.Token, pred.SubjectType.Value)
		return
	}

	for _, b := range pred.Bounds {
		switch bound := b.(type) {
		case *ast.LifetimeBound:
			target := c.region(bound.Lifetime)
			if subjectType != nil {
				s.addType(subjectType, target, st.Token)
			} else {
				s.addRegion(subjectRegion, target, st.Token)
			}
		case *ast.TraitBound:
			if bound.Sugar {
				continue
			}
			if _, ok := c.a.traits[bound.Name]; !ok {
				c.errorf(diagnostics.ErrA008, bound.Token, bound.Name)
				continue
			}
			var args []regions.RegionVid
			for _, l := range bound.Lifetimes {
				args = append(args, c.region(l))
			}
			c.proveTrait(subjectType, bound.Name, args, bound.Token, s)
		}
	}
}

// proveTrait matches t: Trait<args> against the function's declared trait
// bounds and equates the argument regions with the matched bound's regions.
func (c *fnChecker) proveTrait(t regions.Type, trait string, args []regions.RegionVid, span token.Token, s *scopeState) {
	param, ok := t.(regions.Param)
	if ok {
		for _, tb := range c.where.Traits() {
			if tb.Param != param.Name || tb.Trait != trait || len(tb.Regions) != len(args) {
				continue
			}
			for i, r := range tb.Regions {
				s.equate(args[i], r, span)
			}
			return
		}
	}

	subject := "_"
	if t != nil {
		subject = t.Render(c.ctx, false)
	}
	c.errorf(diagnostics.ErrA003, span, subject+": "+trait)
}

func arityMessage(what, noun string, want, got int) string {
	plural := func(n int) string {
		if n == 1 {
			return fmt.Sprintf("%d %s", n, noun)
		}
		return fmt.Sprintf("%d %ss", n, noun)
	}
	verb := "were"
	if got == 1 {
		verb = "was"
	}
	return fmt.Sprintf("%s takes %s but %d %s supplied", what, plural(want), got, verb)
}
