package analyzer

import (
	"context"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/funvibe/regionck/internal/ast"
	"github.com/funvibe/regionck/internal/config"
	"github.com/funvibe/regionck/internal/diagnostics"
	"github.com/funvibe/regionck/internal/regions"
)

// Analyzer resolves a program's declarations and collects the region
// obligations of every function body.
type Analyzer struct {
	traits map[string]*ast.TraitDecl
	fns    map[string]*ast.FnDecl
	valid  map[string]bool // signature passed validation

	// Jobs bounds how many function bodies are collected at once.
	Jobs   int
	Logger *slog.Logger
}

func New() *Analyzer {
	return &Analyzer{
		traits: make(map[string]*ast.TraitDecl),
		fns:    make(map[string]*ast.FnDecl),
		valid:  make(map[string]bool),
		Jobs:   runtime.GOMAXPROCS(0),
		Logger: slog.Default(),
	}
}

// Analyze returns one check per function body that resolved cleanly, in
// source order, and every front-end error sorted by position.
func (a *Analyzer) Analyze(ctx context.Context, program *ast.Program) ([]*regions.FnCheck, []*diagnostics.DiagnosticError) {
	errs := a.declare(program)

	bodies := make([]*ast.FnDecl, 0)
	for _, fn := range program.Functions() {
		if fn.Body != nil && a.valid[fn.Name.Value] && a.fns[fn.Name.Value] == fn {
			bodies = append(bodies, fn)
		}
	}

	checks := make([]*regions.FnCheck, len(bodies))
	fnErrs := make([][]*diagnostics.DiagnosticError, len(bodies))

	g, gctx := errgroup.WithContext(ctx)
	if a.Jobs > 0 {
		g.SetLimit(a.Jobs)
	}
	for i, fn := range bodies {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			checks[i], fnErrs[i] = a.checkFn(fn)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.Logger.Warn("analysis interrupted", "err", err)
	}

	var out []*regions.FnCheck
	for i, check := range checks {
		errs = append(errs, fnErrs[i]...)
		if check != nil && len(fnErrs[i]) == 0 {
			out = append(out, check)
		}
	}

	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Token.Line != errs[j].Token.Line {
			return errs[i].Token.Line < errs[j].Token.Line
		}
		return errs[i].Token.Column < errs[j].Token.Column
	})
	return out, errs
}

// declare registers every trait and function and validates signatures.
func (a *Analyzer) declare(program *ast.Program) []*diagnostics.DiagnosticError {
	var errs []*diagnostics.DiagnosticError

	for _, item := range program.Items {
		if trait, ok := item.(*ast.TraitDecl); ok {
			if _, dup := a.traits[trait.Name.Value]; dup {
				errs = append(errs, diagnostics.NewError(diagnostics.ErrA007, trait.Name.Token, trait.Name.Value))
				continue
			}
			a.traits[trait.Name.Value] = trait
		}
	}

	for _, fn := range program.Functions() {
		if _, dup := a.fns[fn.Name.Value]; dup {
			errs = append(errs, diagnostics.NewError(diagnostics.ErrA007, fn.Name.Token, fn.Name.Value))
			continue
		}
		a.fns[fn.Name.Value] = fn
		sigErrs := a.validateSignature(fn)
		if len(sigErrs) == 0 {
			a.valid[fn.Name.Value] = true
		}
		errs = append(errs, sigErrs...)
	}

	return errs
}

func (a *Analyzer) validateSignature(fn *ast.FnDecl) []*diagnostics.DiagnosticError {
	var errs []*diagnostics.DiagnosticError

	lifetimes := map[string]bool{}
	typeParams := map[string]bool{}
	for _, g := range fn.Generics {
		if lifetimes[g.Name] || typeParams[g.Name] {
			errs = append(errs, diagnostics.NewError(diagnostics.ErrA007, g.Token, g.Name))
			continue
		}
		if g.IsLifetime {
			lifetimes[g.Name] = true
		} else {
			typeParams[g.Name] = true
		}
	}

	checkLifetime := func(l *ast.Lifetime) {
		if l != nil && l.Name != config.StaticLifetime && !lifetimes[l.Name] {
			errs = append(errs, diagnostics.NewError(diagnostics.ErrA005, l.Token, l.Name))
		}
	}
	var checkType func(t ast.TypeExpr)
	checkType = func(t ast.TypeExpr) {
		if ref, ok := t.(*ast.RefType); ok {
			checkLifetime(ref.Lifetime)
			checkType(ref.Elem)
		}
	}

	seenParams := map[string]bool{}
	for _, p := range fn.Params {
		if seenParams[p.Name.Value] {
			errs = append(errs, diagnostics.NewError(diagnostics.ErrA007, p.Token, p.Name.Value))
		}
		seenParams[p.Name.Value] = true
		checkType(p.Type)
	}

	for _, pred := range fn.Where {
		if pred.SubjectType != nil && !typeParams[pred.SubjectType.Value] {
			errs = append(errs, diagnostics.NewError(diagnostics.ErrA009, pred.SubjectType.Token, pred.SubjectType.Value))
		}
		checkLifetime(pred.SubjectLifetime)
		for _, b := range pred.Bounds {
			switch bound := b.(type) {
			case *ast.LifetimeBound:
				checkLifetime(bound.Lifetime)
			case *ast.TraitBound:
				errs = append(errs, a.validateTraitBound(bound, checkLifetime, checkType)...)
			}
		}
	}

	return errs
}

func (a *Analyzer) validateTraitBound(bound *ast.TraitBound, checkLifetime func(*ast.Lifetime), checkType func(ast.TypeExpr)) []*diagnostics.DiagnosticError {
	if bound.Sugar {
		if _, ok := regions.ParseClosureKind(bound.Name); !ok {
			return []*diagnostics.DiagnosticError{diagnostics.NewError(diagnostics.ErrA008, bound.Token, bound.Name)}
		}
		for _, in := range bound.Inputs {
			checkType(in)
		}
		return nil
	}

	trait, ok := a.traits[bound.Name]
	if !ok {
		return []*diagnostics.DiagnosticError{diagnostics.NewError(diagnostics.ErrA008, bound.Token, bound.Name)}
	}
	if len(trait.Lifetimes) != len(bound.Lifetimes) {
		return []*diagnostics.DiagnosticError{diagnostics.NewError(diagnostics.ErrA004, bound.Token,
			arityMessage("trait `"+bound.Name+"`", "lifetime argument", len(trait.Lifetimes), len(bound.Lifetimes)))}
	}
	for _, l := range bound.Lifetimes {
		checkLifetime(l)
	}
	return nil
}
