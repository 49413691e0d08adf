package analyzer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/regionck/internal/analyzer"
	"github.com/funvibe/regionck/internal/diagnostics"
	"github.com/funvibe/regionck/internal/lexer"
	"github.com/funvibe/regionck/internal/parser"
	"github.com/funvibe/regionck/internal/pipeline"
	"github.com/funvibe/regionck/internal/regions"
	"github.com/funvibe/regionck/internal/solver"
)

func run(t *testing.T, input string) *pipeline.PipelineContext {
	t.Helper()
	ctx := pipeline.NewPipelineContext(input)
	ctx.FilePath = "test.rgn"
	return pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.SemanticAnalyzerProcessor{Jobs: 2},
		&solver.SolverProcessor{},
	).Run(ctx)
}

// checkOf runs the pipeline and returns the check of the named function,
// failing on any front-end error.
func checkOf(t *testing.T, input, fn string) *regions.FnCheck {
	t.Helper()
	ctx := run(t, input)
	if ctx.HasErrors() {
		var msgs []string
		for _, e := range ctx.Errors {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("unexpected errors:\n%s", strings.Join(msgs, "\n"))
	}
	for _, check := range ctx.Checks {
		if check.Name == fn {
			return check
		}
	}
	t.Fatalf("no check for %s", fn)
	return nil
}

func requirements(check *regions.FnCheck, scope int) []string {
	var out []string
	for _, req := range check.Scopes[scope].Requirements {
		out = append(out, req.Render(check.Ctx, false))
	}
	return out
}

func violations(check *regions.FnCheck) []string {
	var out []string
	for _, j := range check.Violations() {
		out = append(out, check.Violation(j, false).Error())
	}
	return out
}

func substs(check *regions.FnCheck, scope int) []string {
	var out []string
	for _, arg := range check.Scopes[scope].Defining.Substs {
		out = append(out, arg.Render(check.Ctx, false))
	}
	return out
}

const prelude = `
trait Trait<'a>;
fn establish_relationships<T, F>(value: T, closure: F) where F: FnOnce(T);
fn require<'a, T>(t: T) where T: Trait<'a> + 'a;
`

func TestTraitMatchPropagation(t *testing.T) {
	check := checkOf(t, prelude+`
#[regions]
fn supply<'a, T>(value: T) where T: Trait<'a> {
    establish_relationships(value, |value| {
        require(value);
    });
}
`, "supply")

	require.Len(t, check.Scopes, 2)
	assert.True(t, check.Annotated)

	fn := check.Scopes[0]
	assert.Equal(t, regions.ScopeFn, fn.Kind)
	assert.Equal(t, "supply", fn.Defining.Path)
	assert.Equal(t, []string{"'a", "T"}, substs(check, 0))
	assert.Equal(t, 2, fn.ExternalVids)
	assert.Empty(t, fn.Requirements)

	closure := check.Scopes[1]
	assert.Equal(t, regions.ScopeClosure, closure.Kind)
	assert.Equal(t, "supply::{closure#0}", closure.Defining.Path)
	assert.Equal(t, 1, closure.Depth)
	assert.Equal(t, []string{"'a", "T", "i32", `extern "rust-call" fn((T,))`}, substs(check, 1))
	assert.Equal(t, 2, closure.ExternalVids)
	assert.Equal(t, []string{"T: 'a"}, requirements(check, 1))

	assert.Equal(t, []string{"T does not outlive 'a"}, violations(check))
	v := check.Violations()[0]
	assert.Equal(t, closure.Span, v.Obligation.Span, "the error points at the closure")
}

func TestDeclaredBoundSatisfies(t *testing.T) {
	check := checkOf(t, prelude+`
fn supply<'a, T>(value: T) where T: Trait<'a> + 'a {
    establish_relationships(value, |value| { require(value); });
}
`, "supply")

	assert.Equal(t, []string{"T: 'a"}, requirements(check, 1))
	assert.Empty(t, violations(check))
	require.Len(t, check.Judgements, 1)
	assert.Equal(t, regions.Satisfied, check.Judgements[0].Status())
}

func TestTransitiveBoundSatisfies(t *testing.T) {
	check := checkOf(t, prelude+`
fn supply<'a, 'b, T>(value: T) where T: Trait<'a> + 'b, 'b: 'a {
    establish_relationships(value, |value| { require(value); });
}
`, "supply")

	assert.Equal(t, 3, check.Scopes[0].ExternalVids)
	assert.Empty(t, violations(check))
}

func TestNoClosureRequirements(t *testing.T) {
	check := checkOf(t, `
fn call<F>(f: F) where F: Fn();
fn f<'a>() {
    call(|| {});
}
`, "f")

	require.Len(t, check.Scopes, 2)
	assert.Empty(t, check.Scopes[1].Requirements)
	assert.Equal(t, []string{"'a", "i8", `extern "rust-call" fn(())`}, substs(check, 1))
	assert.Empty(t, check.Judgements)
}

func TestExplicitClosureKind(t *testing.T) {
	check := checkOf(t, `
fn call<F>(f: F) where F: FnOnce();
fn f() {
    call(FnMut || {});
}
`, "f")
	assert.Equal(t, []string{"i16", `extern "rust-call" fn(())`}, substs(check, 1))
}

func TestRequireInBody(t *testing.T) {
	check := checkOf(t, `
fn f<'a, 'b, T>(x: T) where T: 'a {
    require T: 'a;
    require T: 'b;
    require 'a: 'static;
    require 'static: 'b;
}
`, "f")

	assert.Equal(t, []string{"T does not outlive 'b", "'a does not outlive 'static"}, violations(check))
}

func TestImpliedBoundsFromReferences(t *testing.T) {
	check := checkOf(t, `
fn f<'a, 'b, T>(x: &'a &'b T) {
    require T: 'a;
    require 'b: 'a;
}
`, "f")
	assert.Empty(t, violations(check))
}

func TestElidedParamRegionsAreUniversal(t *testing.T) {
	check := checkOf(t, `
fn f<T>(x: &T) {
    require T: 'static;
}
`, "f")
	assert.Equal(t, 2, check.Scopes[0].ExternalVids, "'static plus the elided region")
	assert.Equal(t, []string{"T does not outlive 'static"}, violations(check))
}

func TestReferenceArgumentsFlowIntoParams(t *testing.T) {
	check := checkOf(t, `
fn take<'x>(r: &'x u32) where 'x: 'static;
fn f<'a>(r: &'a u32) {
    take(r);
}
`, "f")
	assert.Equal(t, []string{"'a does not outlive 'static"}, violations(check))
}

func TestClosureParamRegionsStayLocal(t *testing.T) {
	check := checkOf(t, `
fn with<F>(f: F) where F: FnOnce(&u32);
fn take<'x>(r: &'x u32);
fn f() {
    with(|r| { take(r); });
}
`, "f")
	assert.Empty(t, check.Scopes[1].Requirements)
	assert.Empty(t, violations(check))
}

func TestNestedClosuresPropagateOutward(t *testing.T) {
	check := checkOf(t, prelude+`
fn supply<'a, T>(value: T) where T: Trait<'a> {
    establish_relationships(value, |outer| {
        establish_relationships(outer, |inner| {
            require(inner);
        });
    });
}
`, "supply")

	require.Len(t, check.Scopes, 3)
	assert.Equal(t, "supply::{closure#0}", check.Scopes[1].Defining.Path)
	assert.Equal(t, "supply::{closure#0}::{closure#0}", check.Scopes[2].Defining.Path)
	assert.Equal(t, 2, check.Scopes[2].Depth)
	assert.Equal(t, 2, check.Scopes[2].ExternalVids)
	assert.Equal(t, []string{"T: 'a"}, requirements(check, 1))
	assert.Equal(t, []string{"T: 'a"}, requirements(check, 2))
	assert.Equal(t, []string{"T does not outlive 'a"}, violations(check))
	assert.Equal(t, check.Scopes[1].Span, check.Violations()[0].Obligation.Span)
}

const refPrelude = `
fn establish_ref<'q, F>(r: &'q u32, closure: F) where F: FnOnce(&'q u32);
fn need_static(x: &'static u32);
`

func TestClosureRequirementOnCallerRegion(t *testing.T) {
	check := checkOf(t, refPrelude+`
fn flat<'a>(y: &'a u32) {
    establish_ref(y, |z| {
        need_static(z);
    });
}
`, "flat")

	require.Len(t, check.Scopes, 2)
	assert.Equal(t, 3, check.Scopes[1].ExternalVids)
	assert.Equal(t, []string{"'_#2r: 'static"}, requirements(check, 1))
	assert.Equal(t, []string{"'a does not outlive 'static"}, violations(check))
}

func TestNestedClosureRequirementOnEnclosingRegion(t *testing.T) {
	check := checkOf(t, refPrelude+`
fn nested<'a>(y: &'a u32) {
    establish_ref(y, |z| {
        establish_ref(z, |w| {
            need_static(w);
        });
    });
}
`, "nested")

	require.Len(t, check.Scopes, 3)
	assert.Equal(t, 2, check.Scopes[0].ExternalVids)
	assert.Equal(t, 3, check.Scopes[1].ExternalVids)
	assert.Equal(t, 4, check.Scopes[2].ExternalVids, "the outer closure's regions are external to the inner one")

	assert.Equal(t, []string{"'_#3r: 'static"}, requirements(check, 2))
	assert.Equal(t, []string{"'_#2r: 'static"}, requirements(check, 1))
	assert.Equal(t, []string{"'a does not outlive 'static"}, violations(check))
}

func TestNestingKeepsTheVerdict(t *testing.T) {
	for _, tc := range []struct {
		name  string
		where string
		want  []string
	}{
		{"undeclared", "", []string{"'a does not outlive 'static"}},
		{"declared", " where 'a: 'static", nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			flat := checkOf(t, refPrelude+`
fn f<'a>(y: &'a u32)`+tc.where+` {
    establish_ref(y, |z| { need_static(z); });
}
`, "f")
			nested := checkOf(t, refPrelude+`
fn f<'a>(y: &'a u32)`+tc.where+` {
    establish_ref(y, |z| { establish_ref(z, |w| { need_static(w); }); });
}
`, "f")
			assert.Equal(t, tc.want, violations(flat))
			assert.Equal(t, violations(flat), violations(nested))
		})
	}
}

func TestSiblingClosuresNumberedInOrder(t *testing.T) {
	check := checkOf(t, `
fn call<F>(f: F) where F: Fn();
fn f() {
    call(|| {});
    call(|| {});
}
`, "f")
	require.Len(t, check.Scopes, 3)
	assert.Equal(t, "f::{closure#0}", check.Scopes[1].Defining.Path)
	assert.Equal(t, "f::{closure#1}", check.Scopes[2].Defining.Path)
}

func TestCallThroughClosureParam(t *testing.T) {
	check := checkOf(t, `
fn f<'a, F>(r: &'a u32, closure: F) where F: FnOnce(&'static u32) {
    closure(r);
}
`, "f")
	assert.Equal(t, []string{"'a does not outlive 'static"}, violations(check))
}

func TestChecksAreDeterministic(t *testing.T) {
	src := prelude + `
fn one<'a, T>(value: T) where T: Trait<'a> {
    establish_relationships(value, |value| { require(value); });
}
fn two<'a, T>(value: T) where T: Trait<'a> + 'a {
    establish_relationships(value, |value| { require(value); });
}
fn three<'a, 'b, T>(value: T) where T: Trait<'b> {
    establish_relationships(value, |value| { require(value); });
}
`
	render := func() string {
		var sb strings.Builder
		for _, check := range run(t, src).Checks {
			sb.WriteString(check.Name)
			for _, v := range violations(check) {
				sb.WriteString(" " + v)
			}
			sb.WriteString("\n")
		}
		return sb.String()
	}

	first := render()
	assert.Equal(t, "one T does not outlive 'a\ntwo\nthree T does not outlive 'b\n", first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, render())
	}
}

// ---------------------------------------------------------------------------
// Front-end errors
// ---------------------------------------------------------------------------

func expectError(t *testing.T, input string, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	t.Helper()
	ctx := run(t, input)
	for _, e := range ctx.Errors {
		if e.Code == code {
			assert.Equal(t, "test.rgn", e.File)
			return e
		}
	}
	var msgs []string
	for _, e := range ctx.Errors {
		msgs = append(msgs, e.Error())
	}
	t.Fatalf("expected error %s, got:\n%s", code, strings.Join(msgs, "\n"))
	return nil
}

func TestA001_UnknownLocal(t *testing.T) {
	e := expectError(t, "fn g<T>(x: T);\nfn f() { g(y); }", diagnostics.ErrA001)
	assert.Equal(t, "cannot find value `y` in this scope", e.Message())
}

func TestA002_UnknownFunction(t *testing.T) {
	expectError(t, "fn f() { nope(); }", diagnostics.ErrA002)
}

func TestA003_UnsatisfiedTraitBound(t *testing.T) {
	e := expectError(t, prelude+"fn f<T>(v: T) { require(v); }", diagnostics.ErrA003)
	assert.Equal(t, "the trait bound `T: Trait` is not satisfied", e.Message())
}

func TestA004_WrongArgumentCount(t *testing.T) {
	e := expectError(t, "fn g<T>(x: T);\nfn f<T>(x: T) { g(x, x); }", diagnostics.ErrA004)
	assert.Equal(t, "function `g` takes 1 argument but 2 were supplied", e.Message())
}

func TestA004_ClosureArity(t *testing.T) {
	expectError(t, "fn call<F>(f: F) where F: Fn(u32);\nfn f() { call(|a, b| {}); }", diagnostics.ErrA004)
}

func TestA004_TraitArity(t *testing.T) {
	expectError(t, "trait Tr<'a>;\nfn f<T>() where T: Tr;", diagnostics.ErrA004)
}

func TestA005_UndeclaredLifetime(t *testing.T) {
	expectError(t, "fn f<T>(x: &'b T);", diagnostics.ErrA005)
	expectError(t, "fn f<T>() { require T: 'q; }", diagnostics.ErrA005)
}

func TestA006_ClosureParamNeedsType(t *testing.T) {
	expectError(t, "fn call<F>(f: F);\nfn f() { call(|x| {}); }", diagnostics.ErrA006)
}

func TestA007_Duplicates(t *testing.T) {
	expectError(t, "fn f();\nfn f();", diagnostics.ErrA007)
	expectError(t, "fn f<T, T>();", diagnostics.ErrA007)
	expectError(t, "trait A;\ntrait A;", diagnostics.ErrA007)
}

func TestA008_UnknownTrait(t *testing.T) {
	expectError(t, "fn f<T>() where T: Missing;", diagnostics.ErrA008)
}

func TestA009_UnknownTypeParam(t *testing.T) {
	expectError(t, "fn f() where U: 'static;", diagnostics.ErrA009)
}

func TestErrorsSkipOnlyTheirFunction(t *testing.T) {
	ctx := run(t, `
fn good<'a, T>(x: T) where T: 'a { require T: 'a; }
fn bad() { nope(); }
`)
	require.Len(t, ctx.Errors, 1)
	require.Len(t, ctx.Checks, 1)
	assert.Equal(t, "good", ctx.Checks[0].Name)
}

func TestAnalyzeWithCancelledContext(t *testing.T) {
	ctx := pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(pipeline.NewPipelineContext("fn f() {}"))
	require.False(t, ctx.HasErrors())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	checks, errs := analyzer.New().Analyze(cancelled, ctx.AstRoot)
	assert.Empty(t, checks)
	assert.Empty(t, errs)
}

func TestProcessorHonoursPipelineContext(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	ctx := pipeline.NewPipelineContext(prelude + `
fn supply<'a, T>(value: T) where T: Trait<'a> {
    establish_relationships(value, |value| { require(value); });
}
`)
	ctx.Ctx = cancelled
	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.SemanticAnalyzerProcessor{Jobs: 1},
	).Run(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Empty(t, ctx.Checks)
}
