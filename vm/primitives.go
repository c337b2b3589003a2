package vm

import (
	"fmt"
	"regexp"
	"unicode"
)

// ---------------------------------------------------------------------------
// Primitive-operation dispatcher
// ---------------------------------------------------------------------------
//
// Call maps an opcode and a vector of already-evaluated argument cells to
// a result cell. Arguments are consumed in index order; side effects are
// observable immediately. Unknown opcodes fail with InvalidOp, arity
// violations with ArityError.

// ReadFunc is the signature of the reader entry point. The reader package
// installs it after construction to avoid a circular import.
type ReadFunc func(scm *Scheme, in *Port) (Cell, error)

// SetReadFunc installs the function serving the read opcode.
func (scm *Scheme) SetReadFunc(fn ReadFunc) { scm.readFn = fn }

// Call applies the primitive operation op to args at env.
func (scm *Scheme) Call(env *Env, op Opcode, args []Cell) (Cell, error) {
	switch op {

	// --- Equivalence -----------------------------------------------------
	case OpEq, OpEqv:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		return FromBool(Eq(args[0], args[1])), nil
	case OpEqual:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		return FromBool(Equal(args[0], args[1])), nil

	// --- Pairs and lists -------------------------------------------------
	case OpCons:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		return scm.Cons(args[0], args[1]), nil
	case OpCar:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return Car(args[0])
	case OpCdr:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return Cdr(args[0])
	case OpCaar, OpCadr, OpCdar, OpCddr, OpCaddr:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		switch op {
		case OpCaar:
			return Caar(args[0])
		case OpCadr:
			return Cadr(args[0])
		case OpCdar:
			return Cdar(args[0])
		case OpCddr:
			return Cddr(args[0])
		}
		return Caddr(args[0])
	case OpSetCar:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		if err := SetCar(args[0], args[1]); err != nil {
			return Cell{}, err
		}
		return None, nil
	case OpSetCdr:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		if err := SetCdr(args[0], args[1]); err != nil {
			return Cell{}, err
		}
		return None, nil
	case OpList:
		return scm.List(args...), nil
	case OpIsNil:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsNil()), nil
	case OpIsPair:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsPair()), nil
	case OpIsList:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsNil() || IsList(args[0])), nil
	case OpLength:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		n, err := ListLength(args[0])
		if err != nil {
			return Cell{}, err
		}
		return FromInt(n), nil
	case OpAppend:
		return scm.funAppend(args)
	case OpReverse:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return scm.funReverse(args[0])
	case OpTail:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		k, err := argIndex(args[1])
		if err != nil {
			return Cell{}, err
		}
		return ListTail(args[0], k)
	case OpListRef:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		k, err := argIndex(args[1])
		if err != nil {
			return Cell{}, err
		}
		return ListRef(args[0], k)

	// --- Arithmetic ------------------------------------------------------
	case OpAdd:
		res := Int64(0)
		for _, a := range args {
			n, err := argNumber(a)
			if err != nil {
				return Cell{}, err
			}
			res = res.Add(n)
		}
		return FromNumber(res), nil
	case OpSub:
		if err := checkArity(op, args, 1, -1); err != nil {
			return Cell{}, err
		}
		res, err := argNumber(args[0])
		if err != nil {
			return Cell{}, err
		}
		if len(args) == 1 {
			return FromNumber(res.Neg()), nil
		}
		for _, a := range args[1:] {
			n, err := argNumber(a)
			if err != nil {
				return Cell{}, err
			}
			res = res.Sub(n)
		}
		return FromNumber(res), nil
	case OpMul:
		res := Int64(1)
		for _, a := range args {
			n, err := argNumber(a)
			if err != nil {
				return Cell{}, err
			}
			res = res.Mul(n)
		}
		return FromNumber(res), nil
	case OpDiv:
		if err := checkArity(op, args, 1, -1); err != nil {
			return Cell{}, err
		}
		res, err := argNumber(args[0])
		if err != nil {
			return Cell{}, err
		}
		if len(args) == 1 {
			inv, err := res.Inv()
			if err != nil {
				return Cell{}, err
			}
			return FromNumber(inv), nil
		}
		for _, a := range args[1:] {
			n, err := argNumber(a)
			if err != nil {
				return Cell{}, err
			}
			if res, err = res.Div(n); err != nil {
				return Cell{}, err
			}
		}
		return FromNumber(res), nil
	case OpMod, OpRem, OpQuotient:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		a, err := argNumber(args[0])
		if err != nil {
			return Cell{}, err
		}
		b, err := argNumber(args[1])
		if err != nil {
			return Cell{}, err
		}
		var n Number
		switch op {
		case OpMod:
			n, err = a.Mod(b)
		case OpRem:
			n, err = a.Rem(b)
		default:
			n, err = a.Quotient(b)
		}
		if err != nil {
			return Cell{}, err
		}
		return FromNumber(n), nil
	case OpMin, OpMax:
		if err := checkArity(op, args, 1, -1); err != nil {
			return Cell{}, err
		}
		res, err := argNumber(args[0])
		if err != nil {
			return Cell{}, err
		}
		for _, a := range args[1:] {
			n, err := argNumber(a)
			if err != nil {
				return Cell{}, err
			}
			if op == OpMin {
				res, err = res.Min(n)
			} else {
				res, err = res.Max(n)
			}
			if err != nil {
				return Cell{}, err
			}
		}
		return FromNumber(res), nil

	// --- Numeric comparison ----------------------------------------------
	case OpNumEq, OpNumLt, OpNumGt, OpNumLe, OpNumGe:
		if err := checkArity(op, args, 2, -1); err != nil {
			return Cell{}, err
		}
		return scm.funCompare(op, args)

	// --- Numeric predicates ----------------------------------------------
	case OpIsNum:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsNumber()), nil
	case OpIsComplex:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsNumber()), nil // every number is complex
	case OpIsReal:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsNumber() && !args[0].Number().IsComplex()), nil
	case OpIsInt:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsNumber() && args[0].Number().IsInteger()), nil
	case OpIsOdd, OpIsEven:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		n, err := argNumber(args[0])
		if err != nil {
			return Cell{}, err
		}
		var ok bool
		if op == OpIsOdd {
			ok, err = n.IsOdd()
		} else {
			ok, err = n.IsEven()
		}
		if err != nil {
			return Cell{}, err
		}
		return FromBool(ok), nil
	case OpIsZero, OpIsPos, OpIsNeg:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		n, err := argNumber(args[0])
		if err != nil {
			return Cell{}, err
		}
		switch op {
		case OpIsZero:
			return FromBool(n.IsZero()), nil
		case OpIsPos:
			return FromBool(n.IsPositive()), nil
		}
		return FromBool(n.IsNegative()), nil

	// --- Rounding and transcendentals ------------------------------------
	case OpFloor, OpCeil, OpTrunc, OpRound,
		OpSin, OpCos, OpTan, OpAsin, OpAcos, OpAtan,
		OpSinh, OpCosh, OpTanh, OpAsinh, OpAcosh, OpAtanh,
		OpSqrt, OpCbrt, OpExp, OpSquare, OpLog, OpLog10,
		OpAbs, OpRealPart, OpImagPart, OpArg, OpConj:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		n, err := argNumber(args[0])
		if err != nil {
			return Cell{}, err
		}
		return FromNumber(numUnary(op, n)), nil
	case OpPow:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		a, err := argNumber(args[0])
		if err != nil {
			return Cell{}, err
		}
		b, err := argNumber(args[1])
		if err != nil {
			return Cell{}, err
		}
		return FromNumber(a.Pow(b)), nil
	case OpRect, OpPolar, OpHypot:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		a, err := argNumber(args[0])
		if err != nil {
			return Cell{}, err
		}
		b, err := argNumber(args[1])
		if err != nil {
			return Cell{}, err
		}
		switch op {
		case OpRect:
			if !a.isReal() {
				return Cell{}, typeMismatch("real number", args[0])
			}
			if !b.isReal() {
				return Cell{}, typeMismatch("real number", args[1])
			}
			return FromNumber(Rect(a.AsFloat(), b.AsFloat())), nil
		case OpPolar:
			n, err := Polar(a, b)
			if err != nil {
				return Cell{}, err
			}
			return FromNumber(n), nil
		}
		n, err := Hypot(a, b)
		if err != nil {
			return Cell{}, err
		}
		return FromNumber(n), nil
	case OpStrNum:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		n, ok := StrNum(string(*s))
		if !ok {
			return False, nil
		}
		return FromNumber(n), nil
	case OpNumStr:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		n, err := argNumber(args[0])
		if err != nil {
			return Cell{}, err
		}
		return FromString(n.String()), nil

	// --- Booleans --------------------------------------------------------
	case OpNot:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsFalse()), nil
	case OpIsBool:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsBool()), nil

	// --- Symbols ---------------------------------------------------------
	case OpIsSym:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsSymbol()), nil
	case OpSymStr:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		if !args[0].IsSymbol() {
			return Cell{}, typeMismatch("symbol", args[0])
		}
		return FromString(args[0].Symbol().Name()), nil
	case OpStrSym:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		return scm.SymbolCell(string(*s)), nil
	case OpGensym:
		return FromSymbol(scm.Gensym()), nil

	// --- Characters ------------------------------------------------------
	case OpIsChar:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsChar()), nil
	case OpIsCharEq, OpIsCharLt, OpIsCharGt, OpIsCharLe, OpIsCharGe:
		if err := checkArity(op, args, 2, -1); err != nil {
			return Cell{}, err
		}
		return funCharCompare(op, args)
	case OpIsAlpha, OpIsDigit, OpIsSpace, OpIsUpper, OpIsLower:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		r, err := argChar(args[0])
		if err != nil {
			return Cell{}, err
		}
		switch op {
		case OpIsAlpha:
			return FromBool(unicode.IsLetter(r)), nil
		case OpIsDigit:
			return FromBool(unicode.IsDigit(r)), nil
		case OpIsSpace:
			return FromBool(unicode.IsSpace(r)), nil
		case OpIsUpper:
			return FromBool(unicode.IsUpper(r)), nil
		}
		return FromBool(unicode.IsLower(r)), nil
	case OpCharInt:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		r, err := argChar(args[0])
		if err != nil {
			return Cell{}, err
		}
		return FromInt(int64(r)), nil
	case OpIntChar:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		k, err := argIndex(args[0])
		if err != nil {
			return Cell{}, err
		}
		return FromChar(rune(k)), nil
	case OpUpcase, OpDowncase:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		r, err := argChar(args[0])
		if err != nil {
			return Cell{}, err
		}
		if op == OpUpcase {
			return FromChar(unicode.ToUpper(r)), nil
		}
		return FromChar(unicode.ToLower(r)), nil

	// --- Strings ---------------------------------------------------------
	case OpMkStr, OpStr, OpStrLen, OpStrRef, OpStrSetB, OpIsStr, OpIsStrEq,
		OpStrAppend, OpSubstr, OpStrCopy, OpStrFillB, OpStrList, OpListStr:
		return scm.callString(op, args)

	// --- Vectors ---------------------------------------------------------
	case OpIsVec, OpMkVec, OpVec, OpVecLen, OpVecRef, OpVecSetB, OpVecList,
		OpListVec, OpVecFillB:
		return scm.callVector(op, args)

	// --- Ports and I/O ---------------------------------------------------
	case OpIsPort, OpIsInPort, OpIsOutPort, OpIsTxtPort, OpIsBinPort,
		OpOpenInFile, OpOpenOutFile, OpOpenInStr, OpOpenOutStr, OpGetOutStr,
		OpClosePort, OpRead, OpReadChar, OpPeekChar, OpReadLine, OpEof,
		OpIsEof, OpFlush, OpWrite, OpDisplay, OpNewline, OpWriteChar,
		OpWriteStr:
		return scm.callPort(op, args)

	// --- Regular expressions ---------------------------------------------
	case OpRegex:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		return compileRegex(string(*s))
	case OpRegexMatch, OpRegexSearch:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		if !args[0].IsRegex() {
			return Cell{}, typeMismatch("regex", args[0])
		}
		s, err := argString(args[1])
		if err != nil {
			return Cell{}, err
		}
		re := args[0].Regex().RE
		text := string(*s)
		if op == OpRegexMatch {
			loc := re.FindStringIndex(text)
			return FromBool(loc != nil && loc[0] == 0 && loc[1] == len(text)), nil
		}
		loc := re.FindStringIndex(text)
		if loc == nil {
			return False, nil
		}
		return FromString(text[loc[0]:loc[1]]), nil

	// --- Clocks ----------------------------------------------------------
	case OpClock:
		return FromClock(NewClock()), nil
	case OpClockTic, OpClockToc, OpClockPause, OpClockResume:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		if !args[0].IsClock() {
			return Cell{}, typeMismatch("clock", args[0])
		}
		clk := args[0].Clock()
		switch op {
		case OpClockTic:
			clk.Tic()
		case OpClockToc:
			return FromFloat(clk.Toc()), nil
		case OpClockPause:
			clk.Pause()
		default:
			clk.Resume()
		}
		return None, nil

	// --- Dictionaries ----------------------------------------------------
	case OpMakeDict, OpDictIsEmpty, OpDictSize, OpDictClear, OpDictErase,
		OpDictInsert, OpDictFind, OpDictCount, OpDictList, OpListDict:
		return scm.callDict(op, args)

	// --- Misc ------------------------------------------------------------
	case OpUseCount:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		if args[0].ref != nil {
			return FromInt(1), nil
		}
		return FromInt(0), nil
	case OpHash:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromInt(int64(CellHash(args[0]))), nil
	}

	return Cell{}, &InvalidOpError{Op: op}
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

// checkArity validates the argument count; max < 0 means unbounded.
func checkArity(op Opcode, args []Cell, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		return &ArityError{Op: op, Got: len(args)}
	}
	return nil
}

func argNumber(c Cell) (Number, error) {
	if !c.IsNumber() {
		return Number{}, typeMismatch("number", c)
	}
	return c.Number(), nil
}

func argString(c Cell) (*String, error) {
	if !c.IsString() {
		return nil, typeMismatch("string", c)
	}
	return c.Str(), nil
}

func argChar(c Cell) (rune, error) {
	if !c.IsChar() {
		return 0, typeMismatch("character", c)
	}
	return c.Char(), nil
}

// argIndex extracts a non-negative integer, for indices and counts.
func argIndex(c Cell) (int64, error) {
	n, err := argNumber(c)
	if err != nil {
		return 0, err
	}
	if !n.IsInteger() {
		return 0, typeMismatch("integer", c)
	}
	k := n.Trunc()
	if !k.IsInt() || k.Int() < 0 {
		return 0, typeMismatch("non-negative integer", c)
	}
	return k.Int(), nil
}

// ---------------------------------------------------------------------------
// List helpers
// ---------------------------------------------------------------------------

func (scm *Scheme) funAppend(args []Cell) (Cell, error) {
	if len(args) == 0 {
		return Nil, nil
	}
	res := Nil
	var tail Cell
	for _, list := range args[:len(args)-1] {
		for list.IsPair() {
			p := scm.Cons(list.Pair().Car, Nil)
			if tail.IsPair() {
				tail.Pair().Cdr = p
			} else {
				res = p
			}
			tail = p
			list = list.Pair().Cdr
		}
		if !list.IsNil() {
			return Cell{}, typeMismatch("list", list)
		}
	}
	last := args[len(args)-1]
	if tail.IsPair() {
		tail.Pair().Cdr = last
		return res, nil
	}
	return last, nil
}

func (scm *Scheme) funReverse(list Cell) (Cell, error) {
	res := Nil
	for list.IsPair() {
		res = scm.Cons(list.Pair().Car, res)
		list = list.Pair().Cdr
	}
	if !list.IsNil() {
		return Cell{}, typeMismatch("list", list)
	}
	return res, nil
}

// ---------------------------------------------------------------------------
// Comparison chains
// ---------------------------------------------------------------------------

func (scm *Scheme) funCompare(op Opcode, args []Cell) (Cell, error) {
	prev, err := argNumber(args[0])
	if err != nil {
		return Cell{}, err
	}
	for _, a := range args[1:] {
		n, err := argNumber(a)
		if err != nil {
			return Cell{}, err
		}
		var ok bool
		switch op {
		case OpNumEq:
			ok = prev.NumEq(n)
		case OpNumLt:
			ok, err = prev.Less(n)
		case OpNumGt:
			ok, err = prev.Greater(n)
		case OpNumLe:
			ok, err = prev.LessEq(n)
		default:
			ok, err = prev.GreaterEq(n)
		}
		if err != nil {
			return Cell{}, err
		}
		if !ok {
			return False, nil
		}
		prev = n
	}
	return True, nil
}

func funCharCompare(op Opcode, args []Cell) (Cell, error) {
	prev, err := argChar(args[0])
	if err != nil {
		return Cell{}, err
	}
	for _, a := range args[1:] {
		r, err := argChar(a)
		if err != nil {
			return Cell{}, err
		}
		var ok bool
		switch op {
		case OpIsCharEq:
			ok = prev == r
		case OpIsCharLt:
			ok = prev < r
		case OpIsCharGt:
			ok = prev > r
		case OpIsCharLe:
			ok = prev <= r
		default:
			ok = prev >= r
		}
		if !ok {
			return False, nil
		}
		prev = r
	}
	return True, nil
}

// ---------------------------------------------------------------------------
// Transcendental dispatch
// ---------------------------------------------------------------------------

func numUnary(op Opcode, n Number) Number {
	switch op {
	case OpFloor:
		return n.Floor()
	case OpCeil:
		return n.Ceil()
	case OpTrunc:
		return n.Trunc()
	case OpRound:
		return n.Round()
	case OpSin:
		return n.Sin()
	case OpCos:
		return n.Cos()
	case OpTan:
		return n.Tan()
	case OpAsin:
		return n.Asin()
	case OpAcos:
		return n.Acos()
	case OpAtan:
		return n.Atan()
	case OpSinh:
		return n.Sinh()
	case OpCosh:
		return n.Cosh()
	case OpTanh:
		return n.Tanh()
	case OpAsinh:
		return n.Asinh()
	case OpAcosh:
		return n.Acosh()
	case OpAtanh:
		return n.Atanh()
	case OpSqrt:
		return n.Sqrt()
	case OpCbrt:
		return n.Cbrt()
	case OpExp:
		return n.Exp()
	case OpSquare:
		return n.Square()
	case OpLog:
		return n.Log()
	case OpLog10:
		return n.Log10()
	case OpAbs:
		return n.Abs()
	case OpRealPart:
		return n.Real()
	case OpImagPart:
		return n.Imag()
	case OpArg:
		return n.Arg()
	case OpConj:
		return n.Conj()
	}
	panic("numUnary: not a unary numeric opcode")
}

// ---------------------------------------------------------------------------
// Strings
// ---------------------------------------------------------------------------

func (scm *Scheme) callString(op Opcode, args []Cell) (Cell, error) {
	switch op {
	case OpIsStr:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsString()), nil
	case OpMkStr:
		if err := checkArity(op, args, 1, 2); err != nil {
			return Cell{}, err
		}
		k, err := argIndex(args[0])
		if err != nil {
			return Cell{}, err
		}
		fill := ' '
		if len(args) == 2 {
			if fill, err = argChar(args[1]); err != nil {
				return Cell{}, err
			}
		}
		s := make(String, k)
		for i := range s {
			s[i] = fill
		}
		return FromStringHandle(&s), nil
	case OpStr:
		s := make(String, 0, len(args))
		for _, a := range args {
			r, err := argChar(a)
			if err != nil {
				return Cell{}, err
			}
			s = append(s, r)
		}
		return FromStringHandle(&s), nil
	case OpStrLen:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		return FromInt(int64(len(*s))), nil
	case OpStrRef:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		k, err := argIndex(args[1])
		if err != nil {
			return Cell{}, err
		}
		if k >= int64(len(*s)) {
			return Cell{}, fmt.Errorf("string-ref: index %d out of range", k)
		}
		return FromChar((*s)[k]), nil
	case OpStrSetB:
		if err := checkArity(op, args, 3, 3); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		k, err := argIndex(args[1])
		if err != nil {
			return Cell{}, err
		}
		r, err := argChar(args[2])
		if err != nil {
			return Cell{}, err
		}
		if k >= int64(len(*s)) {
			return Cell{}, fmt.Errorf("string-set!: index %d out of range", k)
		}
		(*s)[k] = r
		return None, nil
	case OpIsStrEq:
		if err := checkArity(op, args, 2, -1); err != nil {
			return Cell{}, err
		}
		first, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		for _, a := range args[1:] {
			s, err := argString(a)
			if err != nil {
				return Cell{}, err
			}
			if string(*first) != string(*s) {
				return False, nil
			}
		}
		return True, nil
	case OpStrAppend:
		var out String
		for _, a := range args {
			s, err := argString(a)
			if err != nil {
				return Cell{}, err
			}
			out = append(out, *s...)
		}
		return FromStringHandle(&out), nil
	case OpSubstr:
		if err := checkArity(op, args, 3, 3); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		from, err := argIndex(args[1])
		if err != nil {
			return Cell{}, err
		}
		to, err := argIndex(args[2])
		if err != nil {
			return Cell{}, err
		}
		if from > to || to > int64(len(*s)) {
			return Cell{}, fmt.Errorf("substring: range %d..%d out of bounds", from, to)
		}
		out := append(String(nil), (*s)[from:to]...)
		return FromStringHandle(&out), nil
	case OpStrCopy:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		out := append(String(nil), *s...)
		return FromStringHandle(&out), nil
	case OpStrFillB:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		r, err := argChar(args[1])
		if err != nil {
			return Cell{}, err
		}
		for i := range *s {
			(*s)[i] = r
		}
		return None, nil
	case OpStrList:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		cells := make([]Cell, len(*s))
		for i, r := range *s {
			cells[i] = FromChar(r)
		}
		return scm.List(cells...), nil
	case OpListStr:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		var out String
		for list := args[0]; !list.IsNil(); {
			car, err := Car(list)
			if err != nil {
				return Cell{}, err
			}
			r, err := argChar(car)
			if err != nil {
				return Cell{}, err
			}
			out = append(out, r)
			list, _ = Cdr(list)
		}
		return FromStringHandle(&out), nil
	}
	return Cell{}, &InvalidOpError{Op: op}
}

// ---------------------------------------------------------------------------
// Vectors
// ---------------------------------------------------------------------------

func (scm *Scheme) callVector(op Opcode, args []Cell) (Cell, error) {
	switch op {
	case OpIsVec:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsVector()), nil
	case OpMkVec:
		if err := checkArity(op, args, 1, 2); err != nil {
			return Cell{}, err
		}
		k, err := argIndex(args[0])
		if err != nil {
			return Cell{}, err
		}
		fill := None
		if len(args) == 2 {
			fill = args[1]
		}
		v := make(Vector, k)
		for i := range v {
			v[i] = fill
		}
		return FromVector(&v), nil
	case OpVec:
		v := append(Vector(nil), args...)
		return FromVector(&v), nil
	case OpVecLen:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		if !args[0].IsVector() {
			return Cell{}, typeMismatch("vector", args[0])
		}
		return FromInt(int64(len(*args[0].Vector()))), nil
	case OpVecRef:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		if !args[0].IsVector() {
			return Cell{}, typeMismatch("vector", args[0])
		}
		v := args[0].Vector()
		k, err := argIndex(args[1])
		if err != nil {
			return Cell{}, err
		}
		if k >= int64(len(*v)) {
			return Cell{}, fmt.Errorf("vector-ref: index %d out of range", k)
		}
		return (*v)[k], nil
	case OpVecSetB:
		if err := checkArity(op, args, 3, 3); err != nil {
			return Cell{}, err
		}
		if !args[0].IsVector() {
			return Cell{}, typeMismatch("vector", args[0])
		}
		v := args[0].Vector()
		k, err := argIndex(args[1])
		if err != nil {
			return Cell{}, err
		}
		if k >= int64(len(*v)) {
			return Cell{}, fmt.Errorf("vector-set!: index %d out of range", k)
		}
		(*v)[k] = args[2]
		return None, nil
	case OpVecList:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		if !args[0].IsVector() {
			return Cell{}, typeMismatch("vector", args[0])
		}
		return scm.List(*args[0].Vector()...), nil
	case OpListVec:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		var v Vector
		for list := args[0]; !list.IsNil(); {
			car, err := Car(list)
			if err != nil {
				return Cell{}, err
			}
			v = append(v, car)
			list, _ = Cdr(list)
		}
		return FromVector(&v), nil
	case OpVecFillB:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		if !args[0].IsVector() {
			return Cell{}, typeMismatch("vector", args[0])
		}
		v := args[0].Vector()
		for i := range *v {
			(*v)[i] = args[1]
		}
		return None, nil
	}
	return Cell{}, &InvalidOpError{Op: op}
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// inPortArg selects an input port argument at idx or the default stdin.
func (scm *Scheme) inPortArg(args []Cell, idx int) (*Port, error) {
	if len(args) > idx {
		if !args[idx].IsPort() {
			return nil, typeMismatch("port", args[idx])
		}
		p := args[idx].Port()
		if !p.IsInput() {
			return nil, &PortError{Dir: PortInput, Reason: PortWrongDirection}
		}
		return p, nil
	}
	return scm.stdin, nil
}

// outPortArg selects an output port argument at idx or the default stdout.
func (scm *Scheme) outPortArg(args []Cell, idx int) (*Port, error) {
	if len(args) > idx {
		if !args[idx].IsPort() {
			return nil, typeMismatch("port", args[idx])
		}
		p := args[idx].Port()
		if !p.IsOutput() {
			return nil, &PortError{Dir: PortOutput, Reason: PortWrongDirection}
		}
		return p, nil
	}
	return scm.stdout, nil
}

func (scm *Scheme) callPort(op Opcode, args []Cell) (Cell, error) {
	switch op {
	case OpIsPort, OpIsInPort, OpIsOutPort, OpIsTxtPort, OpIsBinPort:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		if !args[0].IsPort() {
			return False, nil
		}
		p := args[0].Port()
		switch op {
		case OpIsInPort:
			return FromBool(p.IsInput()), nil
		case OpIsOutPort:
			return FromBool(p.IsOutput()), nil
		case OpIsTxtPort:
			return FromBool(!p.IsBinary()), nil
		case OpIsBinPort:
			return FromBool(p.IsBinary()), nil
		}
		return True, nil
	case OpOpenInFile, OpOpenOutFile:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		mode := ModeIn
		if op == OpOpenOutFile {
			mode = ModeOut
		}
		p, err := OpenFile(string(*s), mode)
		if err != nil {
			return Cell{}, err
		}
		return FromPort(p), nil
	case OpOpenInStr:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		return FromPort(NewInputString(string(*s))), nil
	case OpOpenOutStr:
		return FromPort(NewOutputString()), nil
	case OpGetOutStr:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		if !args[0].IsPort() {
			return Cell{}, typeMismatch("port", args[0])
		}
		return FromString(args[0].Port().Str()), nil
	case OpClosePort:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		if !args[0].IsPort() {
			return Cell{}, typeMismatch("port", args[0])
		}
		if err := args[0].Port().Close(); err != nil {
			return Cell{}, err
		}
		return None, nil
	case OpRead:
		if err := checkArity(op, args, 0, 1); err != nil {
			return Cell{}, err
		}
		if scm.readFn == nil {
			return Cell{}, fmt.Errorf("read: reader not available")
		}
		p, err := scm.inPortArg(args, 0)
		if err != nil {
			return Cell{}, err
		}
		return scm.readFn(scm, p)
	case OpReadChar, OpPeekChar:
		if err := checkArity(op, args, 0, 1); err != nil {
			return Cell{}, err
		}
		p, err := scm.inPortArg(args, 0)
		if err != nil {
			return Cell{}, err
		}
		if op == OpPeekChar {
			return FromChar(p.PeekRune()), nil
		}
		r := p.ReadRune()
		if p.Fail() {
			return Cell{}, &PortError{Dir: PortInput, Reason: PortIOFailed}
		}
		return FromChar(r), nil
	case OpReadLine:
		if err := checkArity(op, args, 0, 1); err != nil {
			return Cell{}, err
		}
		p, err := scm.inPortArg(args, 0)
		if err != nil {
			return Cell{}, err
		}
		line, err := p.ReadLine()
		if err != nil {
			var pe *PortError
			if ok := asPortError(err, &pe); ok && pe.Reason == PortEndOfFile {
				return FromChar(EOFRune), nil
			}
			return Cell{}, err
		}
		return FromString(line), nil
	case OpEof:
		return FromChar(EOFRune), nil
	case OpIsEof:
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		return FromBool(args[0].IsChar() && args[0].Char() == EOFRune), nil
	case OpFlush:
		if err := checkArity(op, args, 0, 1); err != nil {
			return Cell{}, err
		}
		p, err := scm.outPortArg(args, 0)
		if err != nil {
			return Cell{}, err
		}
		if err := p.Flush(); err != nil {
			return Cell{}, err
		}
		return None, nil
	case OpWrite, OpDisplay:
		if err := checkArity(op, args, 1, 2); err != nil {
			return Cell{}, err
		}
		p, err := scm.outPortArg(args, 1)
		if err != nil {
			return Cell{}, err
		}
		text := WriteCell(args[0])
		if op == OpDisplay {
			text = DisplayCell(args[0])
		}
		if err := p.WriteString(text); err != nil {
			return Cell{}, err
		}
		return None, nil
	case OpNewline:
		if err := checkArity(op, args, 0, 1); err != nil {
			return Cell{}, err
		}
		p, err := scm.outPortArg(args, 0)
		if err != nil {
			return Cell{}, err
		}
		if err := p.WriteString("\n"); err != nil {
			return Cell{}, err
		}
		return None, nil
	case OpWriteChar:
		if err := checkArity(op, args, 1, 2); err != nil {
			return Cell{}, err
		}
		r, err := argChar(args[0])
		if err != nil {
			return Cell{}, err
		}
		p, err := scm.outPortArg(args, 1)
		if err != nil {
			return Cell{}, err
		}
		if err := p.WriteString(string(r)); err != nil {
			return Cell{}, err
		}
		return None, nil
	case OpWriteStr:
		if err := checkArity(op, args, 1, 2); err != nil {
			return Cell{}, err
		}
		s, err := argString(args[0])
		if err != nil {
			return Cell{}, err
		}
		p, err := scm.outPortArg(args, 1)
		if err != nil {
			return Cell{}, err
		}
		if err := p.WriteString(DisplayCell(FromStringHandle(s))); err != nil {
			return Cell{}, err
		}
		return None, nil
	}
	return Cell{}, &InvalidOpError{Op: op}
}

// ---------------------------------------------------------------------------
// Dictionaries
// ---------------------------------------------------------------------------

func (scm *Scheme) callDict(op Opcode, args []Cell) (Cell, error) {
	if op == OpMakeDict {
		return FromDict(NewDict()), nil
	}
	if op == OpListDict {
		if err := checkArity(op, args, 1, 1); err != nil {
			return Cell{}, err
		}
		d := NewDict()
		for list := args[0]; !list.IsNil(); {
			entry, err := Car(list)
			if err != nil {
				return Cell{}, err
			}
			key, err := Car(entry)
			if err != nil {
				return Cell{}, err
			}
			val, err := Cdr(entry)
			if err != nil {
				return Cell{}, err
			}
			d.Insert(key, val)
			list, _ = Cdr(list)
		}
		return FromDict(d), nil
	}

	if err := checkArity(op, args, 1, -1); err != nil {
		return Cell{}, err
	}
	if !args[0].IsDict() {
		return Cell{}, typeMismatch("dict", args[0])
	}
	d := args[0].Dict()
	switch op {
	case OpDictIsEmpty:
		return FromBool(d.IsEmpty()), nil
	case OpDictSize:
		return FromInt(int64(d.Size())), nil
	case OpDictClear:
		d.Clear()
		return None, nil
	case OpDictInsert:
		if err := checkArity(op, args, 3, 3); err != nil {
			return Cell{}, err
		}
		d.Insert(args[1], args[2])
		return None, nil
	case OpDictFind:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		if val, ok := d.Find(args[1]); ok {
			return val, nil
		}
		return False, nil
	case OpDictCount:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		return FromInt(int64(d.Count(args[1]))), nil
	case OpDictErase:
		if err := checkArity(op, args, 2, 2); err != nil {
			return Cell{}, err
		}
		return FromInt(int64(d.Erase(args[1]))), nil
	case OpDictList:
		var cells []Cell
		d.Each(func(key, val Cell) {
			cells = append(cells, scm.Cons(key, val))
		})
		return scm.List(cells...), nil
	}
	return Cell{}, &InvalidOpError{Op: op}
}

// ---------------------------------------------------------------------------
// Regex helper
// ---------------------------------------------------------------------------

// compileRegex builds a case-insensitive regex cell from a pattern.
func compileRegex(pattern string) (Cell, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Cell{}, fmt.Errorf("regex: %w", err)
	}
	return FromRegex(&Regex{Pattern: pattern, RE: re}), nil
}

func asPortError(err error, target **PortError) bool {
	pe, ok := err.(*PortError)
	if ok {
		*target = pe
	}
	return ok
}
