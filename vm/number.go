package vm

import (
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
)

// ---------------------------------------------------------------------------
// Number: the numeric tower
// ---------------------------------------------------------------------------
//
// A Number is one of three concrete representations: a 64-bit signed
// integer, a 64-bit float, or a Cartesian complex of two 64-bit floats.
// Construction canonicalizes: a complex with zero imaginary part collapses
// to its real form. A float only collapses to an integer when the
// construction rule demands it (Trunc, the reader's #e prefix).

// NumTag identifies the concrete representation of a Number.
type NumTag uint8

const (
	NumInt NumTag = iota
	NumFloat
	NumComplex
)

// Number is a tagged numeric value. The zero value is the integer 0.
type Number struct {
	tag NumTag
	i   int64
	re  float64 // float value, or real part
	im  float64 // imaginary part
}

// Int64 creates an integer Number.
func Int64(i int64) Number {
	return Number{tag: NumInt, i: i}
}

// Float64 creates a float Number. No canonicalization to integer happens
// here; that is the business of Trunc and the reader's #e prefix.
func Float64(f float64) Number {
	return Number{tag: NumFloat, re: f}
}

// Complex128 creates a Number from a complex value. A zero imaginary part
// collapses to the real form.
func Complex128(z complex128) Number {
	return Rect(real(z), imag(z))
}

// Rect creates a Number from real and imaginary parts, collapsing a zero
// imaginary part to a float.
func Rect(re, im float64) Number {
	if im != 0 {
		return Number{tag: NumComplex, re: re, im: im}
	}
	return Float64(re)
}

// Tag returns the representation tag.
func (n Number) Tag() NumTag { return n.tag }

func (n Number) IsInt() bool     { return n.tag == NumInt }
func (n Number) IsFloat() bool   { return n.tag == NumFloat }
func (n Number) IsComplex() bool { return n.tag == NumComplex }

// Int returns the integer value. Panics if n is not an integer.
func (n Number) Int() int64 {
	if n.tag != NumInt {
		panic("Number.Int: not an integer")
	}
	return n.i
}

// Float returns the float value. Panics if n is not a float.
func (n Number) Float() float64 {
	if n.tag != NumFloat {
		panic("Number.Float: not a float")
	}
	return n.re
}

// Complex returns the complex value, lifting Int and Float with a zero
// imaginary part.
func (n Number) Complex() complex128 {
	switch n.tag {
	case NumInt:
		return complex(float64(n.i), 0)
	case NumFloat:
		return complex(n.re, 0)
	}
	return complex(n.re, n.im)
}

// AsFloat converts to float64: integers widen, a complex yields its
// magnitude.
func (n Number) AsFloat() float64 {
	switch n.tag {
	case NumInt:
		return float64(n.i)
	case NumFloat:
		return n.re
	}
	return cmplx.Abs(n.Complex())
}

// isReal reports whether n is an Int or Float.
func (n Number) isReal() bool { return n.tag != NumComplex }

// ---------------------------------------------------------------------------
// Predicates
// ---------------------------------------------------------------------------

// IsZero reports whether n equals exact or inexact zero.
func (n Number) IsZero() bool {
	switch n.tag {
	case NumInt:
		return n.i == 0
	case NumFloat:
		return n.re == 0
	}
	return n.re == 0 && n.im == 0
}

// IsInteger reports whether n denotes an integral value: every Int, a
// finite Float equal to its truncation, and a Complex with zero imaginary
// part whose real part satisfies the Float rule.
func (n Number) IsInteger() bool {
	switch n.tag {
	case NumInt:
		return true
	case NumFloat:
		return !math.IsInf(n.re, 0) && !math.IsNaN(n.re) && n.re == math.Trunc(n.re)
	}
	return n.im == 0 && Float64(n.re).IsInteger()
}

// IsOdd reports whether n is an odd integer. Applied to a non-integer it
// fails with TypeMismatch.
func (n Number) IsOdd() (bool, error) {
	if !n.IsInteger() {
		return false, typeMismatch("integer", FromNumber(n))
	}
	switch n.tag {
	case NumInt:
		return n.i&1 != 0, nil
	default:
		return math.Mod(math.Abs(n.re), 2) == 1, nil
	}
}

// IsEven reports whether n is an even integer.
func (n Number) IsEven() (bool, error) {
	odd, err := n.IsOdd()
	return !odd, err
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

// Neg returns the negation of n.
func (n Number) Neg() Number {
	switch n.tag {
	case NumInt:
		return Int64(-n.i)
	case NumFloat:
		return Float64(-n.re)
	}
	return Rect(-n.re, -n.im)
}

// Add returns n + m with the tower's promotion rules.
func (n Number) Add(m Number) Number {
	if n.tag == NumInt && m.tag == NumInt {
		return Int64(n.i + m.i)
	}
	if n.isReal() && m.isReal() {
		return Float64(n.AsFloat() + m.AsFloat())
	}
	return Complex128(n.Complex() + m.Complex())
}

// Sub returns n - m.
func (n Number) Sub(m Number) Number {
	if n.tag == NumInt && m.tag == NumInt {
		return Int64(n.i - m.i)
	}
	if n.isReal() && m.isReal() {
		return Float64(n.AsFloat() - m.AsFloat())
	}
	return Complex128(n.Complex() - m.Complex())
}

// Mul returns n * m.
func (n Number) Mul(m Number) Number {
	if n.tag == NumInt && m.tag == NumInt {
		return Int64(n.i * m.i)
	}
	if n.isReal() && m.isReal() {
		return Float64(n.AsFloat() * m.AsFloat())
	}
	return Complex128(n.Complex() * m.Complex())
}

// Div returns n / m. Division by exact zero fails with ArithmeticError;
// float division by zero yields IEEE infinities or NaN.
func (n Number) Div(m Number) (Number, error) {
	if n.tag == NumInt && m.tag == NumInt {
		if m.i == 0 {
			return Number{}, ErrDivideByZero
		}
		return Int64(n.i / m.i), nil
	}
	if n.isReal() && m.isReal() {
		return Float64(n.AsFloat() / m.AsFloat()), nil
	}
	return Complex128(n.Complex() / m.Complex()), nil
}

// Inv returns the reciprocal 1/n.
func (n Number) Inv() (Number, error) {
	return Int64(1).Div(n)
}

// Rem returns the truncated-division remainder; the sign follows the
// dividend. Complex operands fail with TypeMismatch.
func (n Number) Rem(m Number) (Number, error) {
	if !n.isReal() {
		return Number{}, typeMismatch("real number", FromNumber(n))
	}
	if !m.isReal() {
		return Number{}, typeMismatch("real number", FromNumber(m))
	}
	if n.tag == NumInt && m.tag == NumInt {
		if m.i == 0 {
			return Number{}, ErrDivideByZero
		}
		return Int64(n.i % m.i), nil
	}
	return Float64(math.Mod(n.AsFloat(), m.AsFloat())), nil
}

// Mod returns the flooring-division modulo; the sign follows the divisor.
func (n Number) Mod(m Number) (Number, error) {
	r, err := n.Rem(m)
	if err != nil {
		return Number{}, err
	}
	if !r.IsZero() && r.IsNegative() != m.IsNegative() {
		r = r.Add(m)
	}
	return r, nil
}

// Quotient returns the truncated quotient of n and m.
func (n Number) Quotient(m Number) (Number, error) {
	if n.tag == NumInt && m.tag == NumInt {
		if m.i == 0 {
			return Number{}, ErrDivideByZero
		}
		return Int64(n.i / m.i), nil
	}
	if !n.isReal() {
		return Number{}, typeMismatch("real number", FromNumber(n))
	}
	if !m.isReal() {
		return Number{}, typeMismatch("real number", FromNumber(m))
	}
	return Float64(math.Trunc(n.AsFloat() / m.AsFloat())), nil
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

// NumEq reports numeric equality. Equality is total: two numbers are equal
// iff they canonicalize to equal values, with IEEE comparison for the
// float and complex components.
func (n Number) NumEq(m Number) bool {
	a, b := n.canonical(), m.canonical()
	if a.tag == NumInt && b.tag == NumInt {
		return a.i == b.i
	}
	if a.isReal() && b.isReal() {
		return a.AsFloat() == b.AsFloat()
	}
	if a.tag == NumComplex && b.tag == NumComplex {
		return a.re == b.re && a.im == b.im
	}
	return false
}

// canonical collapses a complex with zero imaginary part to its real form.
func (n Number) canonical() Number {
	if n.tag == NumComplex && n.im == 0 {
		return Float64(n.re)
	}
	return n
}

// compare returns -1, 0 or +1 for the order of two real numbers, or
// TypeMismatch when either operand is complex.
func (n Number) compare(m Number) (int, error) {
	if !n.isReal() {
		return 0, typeMismatch("real number", FromNumber(n))
	}
	if !m.isReal() {
		return 0, typeMismatch("real number", FromNumber(m))
	}
	if n.tag == NumInt && m.tag == NumInt {
		switch {
		case n.i < m.i:
			return -1, nil
		case n.i > m.i:
			return 1, nil
		}
		return 0, nil
	}
	a, b := n.AsFloat(), m.AsFloat()
	switch {
	case a < b:
		return -1, nil
	case a > b:
		return 1, nil
	}
	return 0, nil
}

// Less reports n < m; defined only on real operands.
func (n Number) Less(m Number) (bool, error) {
	c, err := n.compare(m)
	return c < 0, err
}

// LessEq reports n <= m.
func (n Number) LessEq(m Number) (bool, error) {
	c, err := n.compare(m)
	return c <= 0, err
}

// Greater reports n > m.
func (n Number) Greater(m Number) (bool, error) {
	c, err := n.compare(m)
	return c > 0, err
}

// GreaterEq reports n >= m.
func (n Number) GreaterEq(m Number) (bool, error) {
	c, err := n.compare(m)
	return c >= 0, err
}

// IsNegative reports n < 0 for real numbers, false for complex.
func (n Number) IsNegative() bool {
	switch n.tag {
	case NumInt:
		return n.i < 0
	case NumFloat:
		return n.re < 0
	}
	return false
}

// IsPositive reports n > 0 for real numbers, false for complex.
func (n Number) IsPositive() bool {
	switch n.tag {
	case NumInt:
		return n.i > 0
	case NumFloat:
		return n.re > 0
	}
	return false
}

// Min returns the smaller of two real numbers.
func (n Number) Min(m Number) (Number, error) {
	less, err := m.Less(n)
	if err != nil {
		return Number{}, err
	}
	if less {
		return m, nil
	}
	return n, nil
}

// Max returns the larger of two real numbers.
func (n Number) Max(m Number) (Number, error) {
	greater, err := m.Greater(n)
	if err != nil {
		return Number{}, err
	}
	if greater {
		return m, nil
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Rounding
// ---------------------------------------------------------------------------

// Trunc truncates toward zero. A float that is exactly representable as an
// integer collapses to Int; this is the #e rule of the reader.
func (n Number) Trunc() Number {
	switch n.tag {
	case NumInt:
		return n
	case NumFloat:
		return floatToExact(math.Trunc(n.re))
	}
	return Rect(math.Trunc(n.re), math.Trunc(n.im))
}

// floatToExact collapses an integral float to Int when it fits; values
// outside the int64 range or non-finite stay floats.
func floatToExact(f float64) Number {
	if f >= math.MinInt64 && f < math.MaxInt64 && f == math.Trunc(f) {
		return Int64(int64(f))
	}
	return Float64(f)
}

// Floor rounds toward negative infinity.
func (n Number) Floor() Number {
	switch n.tag {
	case NumInt:
		return n
	case NumFloat:
		return Float64(math.Floor(n.re))
	}
	return Rect(math.Floor(n.re), math.Floor(n.im))
}

// Ceil rounds toward positive infinity.
func (n Number) Ceil() Number {
	switch n.tag {
	case NumInt:
		return n
	case NumFloat:
		return Float64(math.Ceil(n.re))
	}
	return Rect(math.Ceil(n.re), math.Ceil(n.im))
}

// Round rounds half away from zero.
func (n Number) Round() Number {
	switch n.tag {
	case NumInt:
		return n
	case NumFloat:
		return Float64(math.Round(n.re))
	}
	return Rect(math.Round(n.re), math.Round(n.im))
}

// ---------------------------------------------------------------------------
// Transcendental functions
// ---------------------------------------------------------------------------
//
// Real operands promote Int to Float; the result moves to the complex
// plane when the operand is complex or the real-valued result would be
// undefined, like sqrt(-1).

func (n Number) Sin() Number {
	if n.isReal() {
		return Float64(math.Sin(n.AsFloat()))
	}
	return Complex128(cmplx.Sin(n.Complex()))
}

func (n Number) Cos() Number {
	if n.isReal() {
		return Float64(math.Cos(n.AsFloat()))
	}
	return Complex128(cmplx.Cos(n.Complex()))
}

func (n Number) Tan() Number {
	if n.isReal() {
		return Float64(math.Tan(n.AsFloat()))
	}
	return Complex128(cmplx.Tan(n.Complex()))
}

func (n Number) Asin() Number {
	if n.isReal() {
		if x := n.AsFloat(); x >= -1 && x <= 1 {
			return Float64(math.Asin(x))
		}
	}
	return Complex128(cmplx.Asin(n.Complex()))
}

func (n Number) Acos() Number {
	if n.isReal() {
		if x := n.AsFloat(); x >= -1 && x <= 1 {
			return Float64(math.Acos(x))
		}
	}
	return Complex128(cmplx.Acos(n.Complex()))
}

func (n Number) Atan() Number {
	if n.isReal() {
		return Float64(math.Atan(n.AsFloat()))
	}
	return Complex128(cmplx.Atan(n.Complex()))
}

func (n Number) Sinh() Number {
	if n.isReal() {
		return Float64(math.Sinh(n.AsFloat()))
	}
	return Complex128(cmplx.Sinh(n.Complex()))
}

func (n Number) Cosh() Number {
	if n.isReal() {
		return Float64(math.Cosh(n.AsFloat()))
	}
	return Complex128(cmplx.Cosh(n.Complex()))
}

func (n Number) Tanh() Number {
	if n.isReal() {
		return Float64(math.Tanh(n.AsFloat()))
	}
	return Complex128(cmplx.Tanh(n.Complex()))
}

func (n Number) Asinh() Number {
	if n.isReal() {
		return Float64(math.Asinh(n.AsFloat()))
	}
	return Complex128(cmplx.Asinh(n.Complex()))
}

func (n Number) Acosh() Number {
	if n.isReal() {
		if x := n.AsFloat(); x >= 1 {
			return Float64(math.Acosh(x))
		}
	}
	return Complex128(cmplx.Acosh(n.Complex()))
}

func (n Number) Atanh() Number {
	if n.isReal() {
		if x := n.AsFloat(); x > -1 && x < 1 {
			return Float64(math.Atanh(x))
		}
	}
	return Complex128(cmplx.Atanh(n.Complex()))
}

func (n Number) Exp() Number {
	if n.isReal() {
		return Float64(math.Exp(n.AsFloat()))
	}
	return Complex128(cmplx.Exp(n.Complex()))
}

func (n Number) Log() Number {
	if n.isReal() {
		if x := n.AsFloat(); x >= 0 {
			return Float64(math.Log(x))
		}
	}
	return Complex128(cmplx.Log(n.Complex()))
}

func (n Number) Log10() Number {
	if n.isReal() {
		if x := n.AsFloat(); x >= 0 {
			return Float64(math.Log10(x))
		}
	}
	return Complex128(cmplx.Log10(n.Complex()))
}

func (n Number) Sqrt() Number {
	if n.isReal() {
		if x := n.AsFloat(); x >= 0 {
			return Float64(math.Sqrt(x))
		}
	}
	return Complex128(cmplx.Sqrt(n.Complex()))
}

func (n Number) Cbrt() Number {
	if n.isReal() {
		return Float64(math.Cbrt(n.AsFloat()))
	}
	return Complex128(cmplx.Pow(n.Complex(), complex(1.0/3.0, 0)))
}

// Pow returns n raised to the power m.
func (n Number) Pow(m Number) Number {
	if n.isReal() && m.isReal() {
		x, y := n.AsFloat(), m.AsFloat()
		if x >= 0 || y == math.Trunc(y) {
			return Float64(math.Pow(x, y))
		}
	}
	return Complex128(cmplx.Pow(n.Complex(), m.Complex()))
}

// Square returns n * n.
func (n Number) Square() Number { return n.Mul(n) }

// ---------------------------------------------------------------------------
// Complex algebra
// ---------------------------------------------------------------------------

// Abs returns the absolute value; for a complex number its magnitude as a
// float.
func (n Number) Abs() Number {
	switch n.tag {
	case NumInt:
		if n.i < 0 {
			return Int64(-n.i)
		}
		return n
	case NumFloat:
		return Float64(math.Abs(n.re))
	}
	return Float64(cmplx.Abs(n.Complex()))
}

// Real returns the real part.
func (n Number) Real() Number {
	if n.tag == NumComplex {
		return Float64(n.re)
	}
	return n
}

// Imag returns the imaginary part.
func (n Number) Imag() Number {
	if n.tag == NumComplex {
		return Float64(n.im)
	}
	return Int64(0)
}

// Arg returns the phase angle.
func (n Number) Arg() Number {
	return Float64(cmplx.Phase(n.Complex()))
}

// Conj returns the complex conjugate.
func (n Number) Conj() Number {
	if n.tag == NumComplex {
		return Rect(n.re, -n.im)
	}
	return n
}

// Polar creates a number from magnitude and angle.
func Polar(r, theta Number) (Number, error) {
	if !r.isReal() {
		return Number{}, typeMismatch("real number", FromNumber(r))
	}
	if !theta.isReal() {
		return Number{}, typeMismatch("real number", FromNumber(theta))
	}
	return Complex128(cmplx.Rect(r.AsFloat(), theta.AsFloat())), nil
}

// Hypot returns sqrt(x² + y²) for real operands.
func Hypot(x, y Number) (Number, error) {
	if !x.isReal() {
		return Number{}, typeMismatch("real number", FromNumber(x))
	}
	if !y.isReal() {
		return Number{}, typeMismatch("real number", FromNumber(y))
	}
	return Float64(math.Hypot(x.AsFloat(), y.AsFloat())), nil
}

// ---------------------------------------------------------------------------
// Hashing
// ---------------------------------------------------------------------------

// Hash returns a hash of the canonical numeric value. A complex that is
// actually real hashes equal to the equivalent Int or Float, and -0.0
// hashes equal to 0.0, so that numeric dict keys behave under numeric
// equality.
func (n Number) Hash() uint64 {
	c := n.canonical()
	if c.isReal() {
		f := c.AsFloat()
		if f == 0 { // fold -0.0 onto 0.0
			f = 0
		}
		return math.Float64bits(f)
	}
	a := math.Float64bits(c.re)
	b := math.Float64bits(c.im)
	h := a + 0x9e3779b97f4a7c15
	h ^= b + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
	return h
}

// ---------------------------------------------------------------------------
// Printing
// ---------------------------------------------------------------------------

// formatFloat renders a float the way the writer prints inexact reals,
// in scientific notation.
func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "+inf.0"
	}
	if math.IsInf(f, -1) {
		return "-inf.0"
	}
	if math.IsNaN(f) {
		return "+nan.0"
	}
	return strconv.FormatFloat(f, 'e', 6, 64)
}

// String renders n in reader-reversible form: integers in decimal, floats
// in scientific notation, complex numbers as <re>±<im>i with the shortened
// forms i, -i, <re>+i and <re>-i for a unit imaginary part.
func (n Number) String() string {
	switch n.tag {
	case NumInt:
		return strconv.FormatInt(n.i, 10)
	case NumFloat:
		return formatFloat(n.re)
	}
	re, im := n.re, n.im
	if im == 0 {
		return formatFloat(re)
	}
	if re == 0 {
		switch im {
		case 1:
			return "i"
		case -1:
			return "-i"
		}
		if im < 0 {
			return fmt.Sprintf("-%si", formatFloat(-im))
		}
		return fmt.Sprintf("+%si", formatFloat(im))
	}
	switch im {
	case 1:
		return formatFloat(re) + "+i"
	case -1:
		return formatFloat(re) + "-i"
	}
	if im < 0 {
		return fmt.Sprintf("%s-%si", formatFloat(re), formatFloat(-im))
	}
	return fmt.Sprintf("%s+%si", formatFloat(re), formatFloat(im))
}
