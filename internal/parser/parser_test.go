package parser_test

import (
	"strings"
	"testing"

	"github.com/funvibe/regionck/internal/ast"
	"github.com/funvibe/regionck/internal/diagnostics"
	"github.com/funvibe/regionck/internal/lexer"
	"github.com/funvibe/regionck/internal/parser"
	"github.com/funvibe/regionck/internal/pipeline"
)

// parse runs the lexer+parser and returns the program and all errors.
func parse(input string) (*ast.Program, []*diagnostics.DiagnosticError) {
	ctx := &pipeline.PipelineContext{SourceCode: input}
	lp := &lexer.LexerProcessor{}
	ctx = lp.Process(ctx)
	pp := &parser.ParserProcessor{}
	ctx = pp.Process(ctx)
	return ctx.AstRoot, ctx.Errors
}

func mustParse(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, errs := parse(input)
	if len(errs) > 0 {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("expected no errors, got:\n%s\ninput: %s", strings.Join(msgs, "\n"), input)
	}
	return program
}

// expectError asserts at least one error with the given code.
func expectError(t *testing.T, input string, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	t.Helper()
	_, errs := parse(input)
	if len(errs) == 0 {
		t.Fatalf("expected error %s, but got none\ninput: %s", code, input)
	}
	for _, e := range errs {
		if e.Code == code {
			return e
		}
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	t.Fatalf("expected error %s, got:\n%s\ninput: %s", code, strings.Join(msgs, "\n"), input)
	return nil
}

const supplySource = `trait Trait<'a>;

fn establish_relationships<T, F>(value: T, closure: F)
where
    F: FnOnce(T),
;

fn require<'a, T>(t: T) where T: Trait<'a> + 'a;

#[regions]
fn supply<'a, T>(value: T) where T: Trait<'a> {
    establish_relationships(value, |value| {
        require(value);
    });
}
`

func TestParseSupply(t *testing.T) {
	program := mustParse(t, supplySource)

	if len(program.Items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(program.Items))
	}

	trait, ok := program.Items[0].(*ast.TraitDecl)
	if !ok {
		t.Fatalf("item 0 is %T, want *ast.TraitDecl", program.Items[0])
	}
	if trait.Name.Value != "Trait" || len(trait.Lifetimes) != 1 || trait.Lifetimes[0].Name != "'a" {
		t.Errorf("unexpected trait %s%v", trait.Name.Value, trait.Lifetimes)
	}

	fns := program.Functions()
	if len(fns) != 3 {
		t.Fatalf("expected 3 functions, got %d", len(fns))
	}

	est := fns[0]
	if est.Body != nil {
		t.Errorf("establish_relationships should have no body")
	}
	if got := est.TypeParams(); strings.Join(got, ",") != "T,F" {
		t.Errorf("type params = %v", got)
	}
	if len(est.Where) != 1 || est.Where[0].String() != "F: FnOnce(T)" {
		t.Errorf("where = %v", est.Where)
	}
	sugar := est.Where[0].Bounds[0].(*ast.TraitBound)
	if !sugar.Sugar || len(sugar.Inputs) != 1 {
		t.Errorf("expected FnOnce sugar with one input, got %+v", sugar)
	}

	req := fns[1]
	if len(req.Where) != 1 || req.Where[0].String() != "T: Trait<'a> + 'a" {
		t.Errorf("require where = %s", req.Where[0].String())
	}

	supply := fns[2]
	if !supply.HasAttr("regions") {
		t.Errorf("supply should carry #[regions]")
	}
	if got := supply.Lifetimes(); len(got) != 1 || got[0] != "'a" {
		t.Errorf("lifetimes = %v", got)
	}
	if supply.Body == nil || len(supply.Body.Statements) != 1 {
		t.Fatalf("supply body not parsed")
	}

	call := supply.Body.Statements[0].(*ast.CallStatement)
	if call.Callee.Value != "establish_relationships" || len(call.Args) != 2 {
		t.Fatalf("unexpected call %s with %d args", call.Callee.Value, len(call.Args))
	}
	closure, ok := call.Args[1].(*ast.ClosureExpr)
	if !ok {
		t.Fatalf("second argument is %T, want closure", call.Args[1])
	}
	if closure.Kind != "" || len(closure.Params) != 1 || closure.Params[0].Type != nil {
		t.Errorf("closure = %+v", closure)
	}
	if closure.Token.Line != 12 || closure.Token.Column != 36 {
		t.Errorf("closure at %d:%d, want 12:36", closure.Token.Line, closure.Token.Column)
	}
	inner := closure.Body.Statements[0].(*ast.CallStatement)
	if inner.Callee.Value != "require" {
		t.Errorf("inner call = %s", inner.Callee.Value)
	}
}

func TestParseTypesAndClosures(t *testing.T) {
	program := mustParse(t, `
fn f<'a, 'b, T>(x: &'a &'b T, y: &u32) where 'b: 'a, T: 'static {
    require T: 'a + 'b;
    g(FnMut |p: &'a T, q| { h(p, q); }, || {});
}
`)
	fn := program.Functions()[0]

	if got := fn.Params[0].Type.String(); got != "&'a &'b T" {
		t.Errorf("x: %s", got)
	}
	ref := fn.Params[1].Type.(*ast.RefType)
	if ref.Lifetime != nil || ref.Elem.String() != "u32" {
		t.Errorf("y: %s", ref.String())
	}
	if fn.Where[0].SubjectLifetime == nil || fn.Where[0].String() != "'b: 'a" {
		t.Errorf("where[0] = %s", fn.Where[0].String())
	}

	req := fn.Body.Statements[0].(*ast.RequireStatement)
	if req.Predicate.String() != "T: 'a + 'b" {
		t.Errorf("require = %s", req.Predicate.String())
	}

	call := fn.Body.Statements[1].(*ast.CallStatement)
	first := call.Args[0].(*ast.ClosureExpr)
	if first.Kind != "FnMut" || len(first.Params) != 2 {
		t.Errorf("first closure = %+v", first)
	}
	if first.Params[0].Type == nil || first.Params[1].Type != nil {
		t.Errorf("expected first param typed, second untyped")
	}
	if first.Token.Lexeme != "FnMut" {
		t.Errorf("closure token = %q, want the kind", first.Token.Lexeme)
	}
	empty := call.Args[1].(*ast.ClosureExpr)
	if len(empty.Params) != 0 || len(empty.Body.Statements) != 0 {
		t.Errorf("empty closure = %+v", empty)
	}
}

func TestTrailingCommaAndReturnType(t *testing.T) {
	program := mustParse(t, `fn f<T, F>(f: F) where F: Fn(T) -> T, T: 'static,;`)
	fn := program.Functions()[0]
	if len(fn.Where) != 2 {
		t.Fatalf("expected 2 predicates, got %d", len(fn.Where))
	}
	if fn.Where[0].String() != "F: Fn(T)" {
		t.Errorf("return types are dropped, got %s", fn.Where[0].String())
	}
}

func TestRecoveryKeepsLaterItems(t *testing.T) {
	program, errs := parse(`
fn broken<'a(x: T);
trait Ok;
fn fine();
`)
	if len(errs) == 0 {
		t.Fatalf("expected errors")
	}
	var names []string
	for _, item := range program.Items {
		switch it := item.(type) {
		case *ast.TraitDecl:
			names = append(names, it.Name.Value)
		case *ast.FnDecl:
			names = append(names, it.Name.Value)
		}
	}
	if strings.Join(names, ",") != "Ok,fine" {
		t.Errorf("recovered items = %v", names)
	}
}

// ---------------------------------------------------------------------------
// Error codes
// ---------------------------------------------------------------------------

func TestP001_UnexpectedItem(t *testing.T) {
	expectError(t, "struct S;", diagnostics.ErrP001)
}

func TestP001_BadStatement(t *testing.T) {
	expectError(t, "fn f() { 'a; }", diagnostics.ErrP001)
}

func TestP002_IllegalCharacter(t *testing.T) {
	e := expectError(t, "fn f() { g($); }", diagnostics.ErrP002)
	if e.Token.Column != 12 {
		t.Errorf("illegal character at column %d, want 12", e.Token.Column)
	}
}

func TestP003_LifetimeAfterType(t *testing.T) {
	expectError(t, "fn f<T, 'a>();", diagnostics.ErrP003)
}

func TestP003_StaticIsReserved(t *testing.T) {
	expectError(t, "fn f<'static>();", diagnostics.ErrP003)
}

func TestP003_TraitTypeParam(t *testing.T) {
	expectError(t, "trait Tr<T>;", diagnostics.ErrP003)
}

func TestP004_EmptyWhere(t *testing.T) {
	expectError(t, "fn f<T>() where;", diagnostics.ErrP004)
}

func TestP004_LifetimeBoundedByTrait(t *testing.T) {
	expectError(t, "fn f<'a>() where 'a: Trait;", diagnostics.ErrP004)
}

func TestP005_ClosureWithoutBody(t *testing.T) {
	expectError(t, "fn f() { g(|x| h); }", diagnostics.ErrP005)
}

func TestP006_MissingParamType(t *testing.T) {
	expectError(t, "fn f(x);", diagnostics.ErrP006)
}

func TestP006_MissingBodyOrSemicolon(t *testing.T) {
	e := expectError(t, "fn f() trait", diagnostics.ErrP006)
	if !strings.Contains(e.Message(), "expected `{` or `;`") {
		t.Errorf("message = %q", e.Message())
	}
}

func TestP006_UnclosedBlock(t *testing.T) {
	expectError(t, "fn f() { g();", diagnostics.ErrP006)
}
