package reader

import (
	"errors"
	"testing"

	"github.com/chazu/pscheme/vm"
)

func newParser() (*vm.Scheme, *Parser) {
	scm := vm.NewScheme(nil)
	return scm, NewParser(scm)
}

func read(t *testing.T, p *Parser, src string) vm.Cell {
	t.Helper()
	cell, err := p.ReadString(src)
	if err != nil {
		t.Fatalf("Read(%q) failed: %v", src, err)
	}
	return cell
}

func readErr(t *testing.T, p *Parser, src string) error {
	t.Helper()
	_, err := p.ReadString(src)
	if err == nil {
		t.Fatalf("Read(%q) succeeded, want error", src)
	}
	return err
}

// ---------------------------------------------------------------------------
// Atoms
// ---------------------------------------------------------------------------

func TestReadBooleans(t *testing.T) {
	_, p := newParser()
	for _, src := range []string{"#t", "#true"} {
		if got := read(t, p, src); !got.IsBool() || !got.Bool() {
			t.Errorf("read(%q) = %v", src, vm.WriteCell(got))
		}
	}
	for _, src := range []string{"#f", "#false"} {
		if got := read(t, p, src); !got.IsBool() || got.Bool() {
			t.Errorf("read(%q) = %v", src, vm.WriteCell(got))
		}
	}
}

func TestReadNumbers(t *testing.T) {
	_, p := newParser()
	tests := []struct {
		src  string
		want vm.Number
	}{
		{"0", vm.Int64(0)},
		{"-1", vm.Int64(-1)},
		{"3.5", vm.Float64(3.5)},
		{"1+2i", vm.Rect(1, 2)},
		{"-i", vm.Rect(0, -1)},
		{"#e1.0", vm.Int64(1)},
		{"#i1", vm.Float64(1)},
	}
	for _, tt := range tests {
		got := read(t, p, tt.src)
		if !got.IsNumber() {
			t.Errorf("read(%q) = %v, want number", tt.src, vm.WriteCell(got))
			continue
		}
		n := got.Number()
		if n.Tag() != tt.want.Tag() || !n.NumEq(tt.want) {
			t.Errorf("read(%q) = %v, want %v", tt.src, n, tt.want)
		}
	}
}

func TestReadCharacters(t *testing.T) {
	_, p := newParser()
	tests := []struct {
		src  string
		want rune
	}{
		{`#\a`, 'a'},
		{`#\A`, 'A'},
		{`#\space`, ' '},
		{`#\newline`, '\n'},
		{`#\Newline`, '\n'}, // names are case-insensitive
		{`#\tab`, '\t'},
		{`#\eof`, vm.EOFRune},
		{`#\x41`, 'A'},
		{`#\lambda`, 'λ'},
		{`#\pi`, 'π'},
		{`#\infty`, '∞'},
		{`#\ss`, 'ß'},
		{`#\_3`, '₃'},
		{`#\^2`, '²'},
	}
	for _, tt := range tests {
		got := read(t, p, tt.src)
		if !got.IsChar() || got.Char() != tt.want {
			t.Errorf("read(%q) = %v, want char %q", tt.src, vm.WriteCell(got), tt.want)
		}
	}
}

func TestReadCharBeforeSpecial(t *testing.T) {
	// #\( — the special character terminates accumulation and becomes the
	// literal itself.
	_, p := newParser()
	got := read(t, p, `#\(`)
	if !got.IsChar() || got.Char() != '(' {
		t.Errorf("read(#\\() = %v", vm.WriteCell(got))
	}
}

func TestReadUnknownCharNameFails(t *testing.T) {
	_, p := newParser()
	err := readErr(t, p, `#\nosuchname`)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Msg != "invalid token" {
		t.Errorf("error = %v, want invalid token", err)
	}
}

func TestReadStrings(t *testing.T) {
	_, p := newParser()

	got := read(t, p, `"hi"`)
	if !got.IsString() || vm.DisplayCell(got) != "hi" {
		t.Errorf("read string = %v", vm.WriteCell(got))
	}

	// Escapes are kept verbatim; display interprets them.
	got = read(t, p, `"a\nb"`)
	if vm.WriteCell(got) != `"a\nb"` {
		t.Errorf("write form = %q", vm.WriteCell(got))
	}
	if vm.DisplayCell(got) != "a\nb" {
		t.Errorf("display form = %q", vm.DisplayCell(got))
	}

	// Escaped quote stays inside the string.
	got = read(t, p, `"a\"b"`)
	if vm.DisplayCell(got) != `a"b` {
		t.Errorf("escaped quote = %q", vm.DisplayCell(got))
	}
}

func TestReadUnterminatedStringFails(t *testing.T) {
	_, p := newParser()
	readErr(t, p, `"abc`)
}

func TestReadSymbols(t *testing.T) {
	scm, p := newParser()

	got := read(t, p, "abc123")
	if !got.IsSymbol() {
		t.Fatalf("read(abc123) = %v", vm.WriteCell(got))
	}
	if !vm.Eq(got, scm.SymbolCell("abc123")) {
		t.Error("symbol not interned")
	}

	// Single-character operator symbols are accepted.
	for _, src := range []string{"+", "-", "*", "/"} {
		if got := read(t, p, src); !got.IsSymbol() {
			t.Errorf("read(%q) = %v, want symbol", src, vm.WriteCell(got))
		}
	}
}

func TestReadSymbolStrictness(t *testing.T) {
	_, p := newParser()
	// The lexer is stricter than canonical scheme: graphic characters are
	// only allowed in the first position.
	for _, src := range []string{"123abc", "foo-bar", "foo?", "set!"} {
		if _, err := p.ReadString(src); err == nil {
			t.Errorf("read(%q) succeeded, want error", src)
		}
	}
}

func TestReadRegexLiteral(t *testing.T) {
	_, p := newParser()
	got := read(t, p, `#r"a+b"`)
	if !got.IsRegex() {
		t.Fatalf("read regex = %v", vm.WriteCell(got))
	}
	re := got.Regex()
	if re.Pattern != "a+b" {
		t.Errorf("pattern = %q", re.Pattern)
	}
	if !re.RE.MatchString("AAB") {
		t.Error("regex not case-insensitive")
	}
}

// ---------------------------------------------------------------------------
// Compound forms
// ---------------------------------------------------------------------------

func TestReadProperList(t *testing.T) {
	scm, p := newParser()
	got := read(t, p, "(+ 1 2 3)")

	want := scm.List(scm.SymbolCell("+"), vm.FromInt(1), vm.FromInt(2), vm.FromInt(3))
	if !vm.Equal(got, want) {
		t.Errorf("read = %v", vm.WriteCell(got))
	}
	if vm.WriteCell(got) != "(+ 1 2 3)" {
		t.Errorf("write-back = %q", vm.WriteCell(got))
	}
}

func TestReadEmptyList(t *testing.T) {
	_, p := newParser()
	if got := read(t, p, "()"); !got.IsNil() {
		t.Errorf("read(()) = %v", vm.WriteCell(got))
	}
}

func TestReadDottedPair(t *testing.T) {
	_, p := newParser()
	got := read(t, p, "(1 . 2)")
	if !got.IsPair() {
		t.Fatalf("read = %v", vm.WriteCell(got))
	}
	car, _ := vm.Car(got)
	cdr, _ := vm.Cdr(got)
	if !vm.Equal(car, vm.FromInt(1)) || !vm.Equal(cdr, vm.FromInt(2)) {
		t.Errorf("read = %v", vm.WriteCell(got))
	}
	if vm.WriteCell(got) != "(1 . 2)" {
		t.Errorf("write-back = %q", vm.WriteCell(got))
	}
}

func TestReadDottedTailList(t *testing.T) {
	_, p := newParser()
	got := read(t, p, "(1 2 . 3)")
	if vm.WriteCell(got) != "(1 2 . 3)" {
		t.Errorf("write-back = %q", vm.WriteCell(got))
	}
}

func TestReadVector(t *testing.T) {
	_, p := newParser()
	got := read(t, p, "#(1 2 3)")
	if !got.IsVector() {
		t.Fatalf("read = %v", vm.WriteCell(got))
	}
	v := got.Vector()
	if len(*v) != 3 || !vm.Equal((*v)[1], vm.FromInt(2)) {
		t.Errorf("vector = %v", vm.WriteCell(got))
	}
	if vm.WriteCell(got) != "#(1 2 3)" {
		t.Errorf("write-back = %q", vm.WriteCell(got))
	}
}

func TestReadNestedForms(t *testing.T) {
	_, p := newParser()
	got := read(t, p, "(define (f x) (* x x))")
	if vm.WriteCell(got) != "(define (f x) (* x x))" {
		t.Errorf("write-back = %q", vm.WriteCell(got))
	}
	n, err := vm.ListLength(got)
	if err != nil || n != 3 {
		t.Fatalf("length = %d, %v", n, err)
	}
	head, _ := vm.Car(got)
	if !head.IsSymbol() || head.Symbol().Name() != "define" {
		t.Errorf("head = %v", vm.WriteCell(head))
	}
	second, _ := vm.Cadr(got)
	if vm.WriteCell(second) != "(f x)" {
		t.Errorf("second = %q", vm.WriteCell(second))
	}
}

func TestReadUnterminatedListFails(t *testing.T) {
	_, p := newParser()
	err := readErr(t, p, "(1 2")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Msg != "error while reading list" {
		t.Errorf("error = %v, want list error", err)
	}
}

func TestReadBadDottedPairFails(t *testing.T) {
	_, p := newParser()
	readErr(t, p, "(1 . 2 3)")
	readErr(t, p, "(1 .")
}

func TestReadUnterminatedVectorFails(t *testing.T) {
	_, p := newParser()
	err := readErr(t, p, "#(1 2")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Msg != "error while reading vector" {
		t.Errorf("error = %v, want vector error", err)
	}
}

// ---------------------------------------------------------------------------
// Quote family
// ---------------------------------------------------------------------------

func TestReadQuoteRewriting(t *testing.T) {
	scm, p := newParser()
	tests := []struct {
		src string
		tag string
	}{
		{"'x", "quote"},
		{"`x", "quasiquote"},
		{",x", "unquote"},
		{",@x", "unquote-splicing"},
	}
	for _, tt := range tests {
		got := read(t, p, tt.src)
		want := scm.List(scm.SymbolCell(tt.tag), scm.SymbolCell("x"))
		if !vm.Equal(got, want) {
			t.Errorf("read(%q) = %v, want %v", tt.src, vm.WriteCell(got), vm.WriteCell(want))
		}
	}
}

func TestReadQuotedList(t *testing.T) {
	_, p := newParser()
	got := read(t, p, "'(1 2)")
	if vm.WriteCell(got) != "(quote (1 2))" {
		t.Errorf("read = %q", vm.WriteCell(got))
	}
}

// ---------------------------------------------------------------------------
// Comments, whitespace, streams
// ---------------------------------------------------------------------------

func TestReadSkipsComments(t *testing.T) {
	_, p := newParser()
	got := read(t, p, "; comment\n42")
	if !got.IsNumber() || !got.Number().NumEq(vm.Int64(42)) {
		t.Errorf("read = %v", vm.WriteCell(got))
	}
}

func TestReadCommentInsideList(t *testing.T) {
	_, p := newParser()
	got := read(t, p, "(1 ; two comes next\n2)")
	if vm.WriteCell(got) != "(1 2)" {
		t.Errorf("read = %q", vm.WriteCell(got))
	}
}

func TestReadEofReturnsEofChar(t *testing.T) {
	_, p := newParser()
	got := read(t, p, "   ")
	if !got.IsChar() || got.Char() != vm.EOFRune {
		t.Errorf("read(whitespace) = %v, want #\\eof", vm.WriteCell(got))
	}
}

func TestReadMultipleDatums(t *testing.T) {
	_, p := newParser()
	in := vm.NewInputString("1 2 (3)")

	for _, want := range []string{"1", "2", "(3)"} {
		cell, err := p.Read(in)
		if err != nil {
			t.Fatal(err)
		}
		if got := vm.WriteCell(cell); got != want {
			t.Errorf("datum = %q, want %q", got, want)
		}
	}
	cell, err := p.Read(in)
	if err != nil {
		t.Fatal(err)
	}
	if !cell.IsChar() || cell.Char() != vm.EOFRune {
		t.Errorf("after last datum = %v, want eof", vm.WriteCell(cell))
	}
}

func TestReadUnrootsPartialList(t *testing.T) {
	// The reader roots the in-progress list head in the top environment
	// and removes the binding when the parse returns, success or failure.
	scm, p := newParser()
	before := scm.Getenv().Len()

	read(t, p, "(1 2 3)")
	if scm.Getenv().Len() != before {
		t.Error("successful parse leaked a root binding")
	}

	p.ReadString("(1 2") // fails
	if scm.Getenv().Len() != before {
		t.Error("failed parse leaked a root binding")
	}
}

// ---------------------------------------------------------------------------
// Round trips
// ---------------------------------------------------------------------------

func TestAtomRoundTrip(t *testing.T) {
	_, p := newParser()
	atoms := []string{
		"#t", "#f", "0", "-1", "3.500000e+00",
		"1.000000e+00+2.000000e+00i", "-i",
		`#\a`, `#\space`, `#\λ`, `"hi"`, "foo",
	}
	for _, src := range atoms {
		cell := read(t, p, src)
		again := read(t, p, vm.WriteCell(cell))
		if !vm.Equal(cell, again) {
			t.Errorf("round trip %q: %q != %q",
				src, vm.WriteCell(cell), vm.WriteCell(again))
		}
	}
}

func TestListRoundTrip(t *testing.T) {
	_, p := newParser()
	lists := []string{
		"(1 2 3)",
		`(a "b" #\c 4.500000e+00)`,
		"((1 2) (3 4) ())",
		"(1 . 2)",
		"#(1 2 3)",
	}
	for _, src := range lists {
		cell := read(t, p, src)
		text := vm.WriteCell(cell)
		again := read(t, p, text)
		if !vm.Equal(cell, again) {
			t.Errorf("round trip %q via %q failed", src, text)
		}
	}
}
