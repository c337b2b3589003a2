package vm

import (
	"errors"
	"testing"
)

func call(t *testing.T, scm *Scheme, op Opcode, args ...Cell) Cell {
	t.Helper()
	res, err := scm.Call(scm.Getenv(), op, args)
	if err != nil {
		t.Fatalf("call(%d) failed: %v", int(op), err)
	}
	return res
}

// ---------------------------------------------------------------------------
// Pairs and lists
// ---------------------------------------------------------------------------

func TestCallCons(t *testing.T) {
	scm := NewScheme(nil)
	p := call(t, scm, OpCons, FromInt(1), FromInt(2))
	if got := WriteCell(p); got != "(1 . 2)" {
		t.Errorf("cons = %q", got)
	}
}

func TestCallList(t *testing.T) {
	scm := NewScheme(nil)
	xs := call(t, scm, OpList, FromInt(1), FromInt(2), FromInt(3))

	car := call(t, scm, OpCar, xs)
	if !Equal(car, FromInt(1)) {
		t.Errorf("car = %v", WriteCell(car))
	}
	cdr := call(t, scm, OpCdr, xs)
	if got := WriteCell(cdr); got != "(2 3)" {
		t.Errorf("cdr = %q", got)
	}

	empty := call(t, scm, OpList)
	if !empty.IsNil() {
		t.Errorf("(list) = %v", WriteCell(empty))
	}
}

func TestCallSetCar(t *testing.T) {
	scm := NewScheme(nil)
	p := scm.Cons(FromInt(1), Nil)

	res := call(t, scm, OpSetCar, p, FromInt(9))
	if !res.IsNone() {
		t.Errorf("set-car! returned %v, want none", WriteCell(res))
	}
	if car, _ := Car(p); !Equal(car, FromInt(9)) {
		t.Error("set-car! mutation not visible")
	}
}

func TestCallCarArity(t *testing.T) {
	scm := NewScheme(nil)
	_, err := scm.Call(scm.Getenv(), OpCar, nil)
	var ae *ArityError
	if !errors.As(err, &ae) {
		t.Errorf("car with no args: %v, want *ArityError", err)
	}
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

func TestCallAddIdentity(t *testing.T) {
	scm := NewScheme(nil)
	if got := call(t, scm, OpAdd); !Equal(got, FromInt(0)) {
		t.Errorf("(+) = %v", WriteCell(got))
	}
	if got := call(t, scm, OpMul); !Equal(got, FromInt(1)) {
		t.Errorf("(*) = %v", WriteCell(got))
	}
	got := call(t, scm, OpAdd, FromInt(1), FromInt(2), FromInt(3))
	if !Equal(got, FromInt(6)) {
		t.Errorf("(+ 1 2 3) = %v", WriteCell(got))
	}
}

func TestCallSubNegation(t *testing.T) {
	scm := NewScheme(nil)
	if got := call(t, scm, OpSub, FromInt(5)); !Equal(got, FromInt(-5)) {
		t.Errorf("(- 5) = %v", WriteCell(got))
	}
	if got := call(t, scm, OpSub, FromInt(10), FromInt(3), FromInt(2)); !Equal(got, FromInt(5)) {
		t.Errorf("(- 10 3 2) = %v", WriteCell(got))
	}
	_, err := scm.Call(scm.Getenv(), OpSub, nil)
	var ae *ArityError
	if !errors.As(err, &ae) {
		t.Errorf("(-) error = %v, want *ArityError", err)
	}
}

func TestCallDivByZero(t *testing.T) {
	scm := NewScheme(nil)
	_, err := scm.Call(scm.Getenv(), OpDiv, []Cell{FromInt(1), FromInt(0)})
	var arith *ArithmeticError
	if !errors.As(err, &arith) {
		t.Errorf("(/ 1 0) error = %v, want *ArithmeticError", err)
	}
}

func TestCallComplexMultiply(t *testing.T) {
	scm := NewScheme(nil)
	z := FromNumber(Rect(1, 2))
	got := call(t, scm, OpMul, z, z)
	want := Rect(-3, 4)
	if !got.Number().NumEq(want) {
		t.Errorf("(1+2i)^2 = %v, want %v", got.Number(), want)
	}
}

func TestCallTypeMismatch(t *testing.T) {
	scm := NewScheme(nil)
	_, err := scm.Call(scm.Getenv(), OpAdd, []Cell{FromInt(1), FromString("x")})
	var tm *TypeMismatchError
	if !errors.As(err, &tm) {
		t.Errorf("(+ 1 \"x\") error = %v, want *TypeMismatchError", err)
	}
}

func TestCallComparisons(t *testing.T) {
	scm := NewScheme(nil)
	if got := call(t, scm, OpNumLt, FromInt(1), FromInt(2), FromInt(3)); !got.Bool() {
		t.Error("(< 1 2 3) is false")
	}
	if got := call(t, scm, OpNumLt, FromInt(1), FromInt(3), FromInt(2)); got.Bool() {
		t.Error("(< 1 3 2) is true")
	}
	if got := call(t, scm, OpNumEq, FromInt(1), FromFloat(1)); !got.Bool() {
		t.Error("(= 1 1.0) is false")
	}
	_, err := scm.Call(scm.Getenv(), OpNumLt, []Cell{FromComplex(complex(1, 2)), FromInt(1)})
	var tm *TypeMismatchError
	if !errors.As(err, &tm) {
		t.Errorf("(< 1+2i 1) error = %v, want *TypeMismatchError", err)
	}
}

// ---------------------------------------------------------------------------
// Unknown opcodes
// ---------------------------------------------------------------------------

func TestCallInvalidOp(t *testing.T) {
	scm := NewScheme(nil)
	_, err := scm.Call(scm.Getenv(), numOpcodes+1, nil)
	var inv *InvalidOpError
	if !errors.As(err, &inv) {
		t.Errorf("unknown opcode error = %v, want *InvalidOpError", err)
	}
	// Syntax tags are not callable either.
	_, err = scm.Call(scm.Getenv(), OpLambda, nil)
	if !errors.As(err, &inv) {
		t.Errorf("lambda opcode error = %v, want *InvalidOpError", err)
	}
}

// ---------------------------------------------------------------------------
// Write through the dispatcher
// ---------------------------------------------------------------------------

func TestCallWriteToStringPort(t *testing.T) {
	scm := NewScheme(nil)
	port := NewOutputString()
	xs := scm.List(scm.SymbolCell("+"), FromInt(1), FromInt(2), FromInt(3))

	res := call(t, scm, OpWrite, xs, FromPort(port))
	if !res.IsNone() {
		t.Errorf("write returned %v", WriteCell(res))
	}
	if got := port.Str(); got != "(+ 1 2 3)" {
		t.Errorf("written = %q", got)
	}
}

func TestCallDisplayVsWrite(t *testing.T) {
	scm := NewScheme(nil)

	w := NewOutputString()
	call(t, scm, OpWrite, FromChar('\n'), FromPort(w))
	if got := w.Str(); got != "#\\newline" {
		t.Errorf("write #\\newline = %q", got)
	}

	d := NewOutputString()
	call(t, scm, OpDisplay, FromChar('\n'), FromPort(d))
	if got := d.Str(); got != "\n" {
		t.Errorf("display #\\newline = %q", got)
	}
}

func TestCallWriteToClosedPortFails(t *testing.T) {
	scm := NewScheme(nil)
	port := NewOutputString()
	if err := port.Close(); err != nil {
		t.Fatal(err)
	}
	if err := port.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
	_, err := scm.Call(scm.Getenv(), OpWrite, []Cell{FromInt(1), FromPort(port)})
	if !IsPortError(err, PortOutput) {
		t.Errorf("write to closed port error = %v, want output PortError", err)
	}
}

func TestCallReadFromOutputPortFails(t *testing.T) {
	scm := NewScheme(nil)
	_, err := scm.Call(scm.Getenv(), OpReadChar, []Cell{FromPort(NewOutputString())})
	if !IsPortError(err, PortInput) {
		t.Errorf("read-char on output port error = %v, want input PortError", err)
	}
}

// ---------------------------------------------------------------------------
// Strings, vectors, symbols through the dispatcher
// ---------------------------------------------------------------------------

func TestCallStringOps(t *testing.T) {
	scm := NewScheme(nil)

	s := call(t, scm, OpStrAppend, FromString("foo"), FromString("bar"))
	if got := DisplayCell(s); got != "foobar" {
		t.Errorf("string-append = %q", got)
	}
	n := call(t, scm, OpStrLen, s)
	if !Equal(n, FromInt(6)) {
		t.Errorf("string-length = %v", WriteCell(n))
	}
	sub := call(t, scm, OpSubstr, s, FromInt(1), FromInt(4))
	if got := DisplayCell(sub); got != "oob" {
		t.Errorf("substring = %q", got)
	}
	c := call(t, scm, OpStrRef, s, FromInt(0))
	if !Equal(c, FromChar('f')) {
		t.Errorf("string-ref = %v", WriteCell(c))
	}
}

func TestCallVectorOps(t *testing.T) {
	scm := NewScheme(nil)

	v := call(t, scm, OpVec, FromInt(1), FromInt(2), FromInt(3))
	if got := WriteCell(v); got != "#(1 2 3)" {
		t.Errorf("vector = %q", got)
	}
	call(t, scm, OpVecSetB, v, FromInt(1), FromString("x"))
	ref := call(t, scm, OpVecRef, v, FromInt(1))
	if got := WriteCell(ref); got != `"x"` {
		t.Errorf("vector-ref = %q", got)
	}
	xs := call(t, scm, OpVecList, v)
	if got := WriteCell(xs); got != `(1 "x" 3)` {
		t.Errorf("vector->list = %q", got)
	}
}

func TestCallSymbolOps(t *testing.T) {
	scm := NewScheme(nil)

	sym := call(t, scm, OpStrSym, FromString("foo"))
	if !Eq(sym, scm.SymbolCell("foo")) {
		t.Error("string->symbol did not intern")
	}
	str := call(t, scm, OpSymStr, sym)
	if got := DisplayCell(str); got != "foo" {
		t.Errorf("symbol->string = %q", got)
	}
	g1 := call(t, scm, OpGensym)
	g2 := call(t, scm, OpGensym)
	if Eq(g1, g2) {
		t.Error("gensym returned the same symbol twice")
	}
}

// ---------------------------------------------------------------------------
// Dict, regex and clock extensions
// ---------------------------------------------------------------------------

func TestCallDictOps(t *testing.T) {
	scm := NewScheme(nil)

	d := call(t, scm, OpMakeDict)
	call(t, scm, OpDictInsert, d, FromInt(1), FromString("one"))
	call(t, scm, OpDictInsert, d, FromString("k"), FromString("two"))

	// Numeric keys address by canonical numeric value.
	found := call(t, scm, OpDictFind, d, FromFloat(1))
	if got := DisplayCell(found); got != "one" {
		t.Errorf("dict-find 1.0 = %q", got)
	}
	found = call(t, scm, OpDictFind, d, FromComplex(complex(1, 0)))
	if got := DisplayCell(found); got != "one" {
		t.Errorf("dict-find 1+0i = %q", got)
	}
	// String keys address by content.
	found = call(t, scm, OpDictFind, d, FromString("k"))
	if got := DisplayCell(found); got != "two" {
		t.Errorf("dict-find \"k\" = %q", got)
	}
	if miss := call(t, scm, OpDictFind, d, FromInt(9)); !miss.IsFalse() {
		t.Errorf("dict-find miss = %v", WriteCell(miss))
	}
	if n := call(t, scm, OpDictSize, d); !Equal(n, FromInt(2)) {
		t.Errorf("dict-size = %v", WriteCell(n))
	}
}

func TestCallRegexOps(t *testing.T) {
	scm := NewScheme(nil)

	re := call(t, scm, OpRegex, FromString("h[aeiou]llo"))
	if !re.IsRegex() {
		t.Fatalf("regex = %v", WriteCell(re))
	}
	if got := call(t, scm, OpRegexMatch, re, FromString("Hello")); !got.Bool() {
		t.Error("regex-match is case-sensitive")
	}
	if got := call(t, scm, OpRegexMatch, re, FromString("say hello there")); got.Bool() {
		t.Error("regex-match matched a substring")
	}
	found := call(t, scm, OpRegexSearch, re, FromString("say hello there"))
	if got := DisplayCell(found); got != "hello" {
		t.Errorf("regex-search = %q", got)
	}
}

func TestCallClockOps(t *testing.T) {
	scm := NewScheme(nil)

	clk := call(t, scm, OpClock)
	if !clk.IsClock() {
		t.Fatalf("clock = %v", WriteCell(clk))
	}
	toc := call(t, scm, OpClockToc, clk)
	if !toc.IsNumber() || toc.Number().IsNegative() {
		t.Errorf("clock-toc = %v", WriteCell(toc))
	}
	call(t, scm, OpClockPause, clk)
	t1 := call(t, scm, OpClockToc, clk).Number()
	t2 := call(t, scm, OpClockToc, clk).Number()
	if !t1.NumEq(t2) {
		t.Error("paused clock kept running")
	}
}
