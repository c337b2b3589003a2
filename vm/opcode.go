package vm

// ---------------------------------------------------------------------------
// Opcode: primitive-operation tags
// ---------------------------------------------------------------------------
//
// Opcodes name the built-in operations of the interpreter. The leading
// block holds the special-form tags owned by the external evaluator; the
// numbered sections follow the R7RS chapter layout.

// Opcode is an inline primitive-operation tag.
type Opcode int

const (
	// Scheme syntax opcodes, owned by the evaluator:
	OpOr Opcode = iota
	OpAnd
	OpIf
	OpCond
	OpElse
	OpArrow
	OpWhen
	OpUnless
	OpDefine
	OpSetB
	OpBegin
	OpLambda
	OpMacro
	OpApply
	OpQuote
	OpQuasiquote
	OpUnquote
	OpUnquoteSplice

	// Section 6.1: Equivalence predicates
	OpEq
	OpEqv
	OpEqual

	// Section 6.2: Numbers
	OpIsNum
	OpIsComplex
	OpIsReal
	OpIsInt
	OpIsOdd
	OpIsEven
	OpNumEq
	OpNumLt
	OpNumGt
	OpNumLe
	OpNumGe
	OpMin
	OpMax
	OpIsPos
	OpIsNeg
	OpIsZero
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpRem
	OpFloor
	OpCeil
	OpTrunc
	OpRound
	OpQuotient
	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan
	OpSinh
	OpCosh
	OpTanh
	OpAsinh
	OpAcosh
	OpAtanh
	OpSqrt
	OpCbrt
	OpExp
	OpPow
	OpSquare
	OpLog
	OpLog10
	OpAbs
	OpRealPart
	OpImagPart
	OpArg
	OpConj
	OpRect
	OpPolar
	OpHypot
	OpStrNum
	OpNumStr

	// Section 6.3: Booleans
	OpNot
	OpIsBool

	// Section 6.4: Pairs and lists
	OpCons
	OpCar
	OpCdr
	OpCaar
	OpCddr
	OpCadr
	OpCdar
	OpCaddr
	OpSetCdr
	OpSetCar
	OpList
	OpIsNil
	OpIsPair
	OpIsList
	OpLength
	OpAppend
	OpReverse
	OpTail
	OpListRef

	// Section 6.5: Symbols
	OpIsSym
	OpSymStr
	OpStrSym
	OpGensym

	// Section 6.6: Characters
	OpIsChar
	OpIsCharEq
	OpIsCharLt
	OpIsCharGt
	OpIsCharLe
	OpIsCharGe
	OpIsAlpha
	OpIsDigit
	OpIsSpace
	OpIsUpper
	OpIsLower
	OpCharInt
	OpIntChar
	OpUpcase
	OpDowncase

	// Section 6.7: Strings
	OpMkStr
	OpStr
	OpStrLen
	OpStrRef
	OpStrSetB
	OpIsStr
	OpIsStrEq
	OpStrAppend
	OpSubstr
	OpStrCopy
	OpStrFillB
	OpStrList
	OpListStr

	// Section 6.8: Vectors
	OpIsVec
	OpMkVec
	OpVec
	OpVecLen
	OpVecRef
	OpVecSetB
	OpVecList
	OpListVec
	OpVecFillB

	// Section 6.13: Input and output
	OpIsPort
	OpIsInPort
	OpIsOutPort
	OpIsTxtPort
	OpIsBinPort
	OpOpenInFile
	OpOpenOutFile
	OpOpenInStr
	OpOpenOutStr
	OpGetOutStr
	OpClosePort
	OpRead
	OpReadChar
	OpPeekChar
	OpReadLine
	OpEof
	OpIsEof
	OpFlush
	OpWrite
	OpDisplay
	OpNewline
	OpWriteChar
	OpWriteStr

	// Section extensions: regular expressions
	OpRegex
	OpRegexMatch
	OpRegexSearch

	// Section extensions: clock
	OpClock
	OpClockTic
	OpClockToc
	OpClockPause
	OpClockResume

	// Section extensions: dictionary
	OpMakeDict
	OpDictIsEmpty
	OpDictSize
	OpDictClear
	OpDictErase
	OpDictInsert
	OpDictFind
	OpDictCount
	OpDictList
	OpListDict

	OpUseCount
	OpHash

	// numOpcodes bounds the recognized range.
	numOpcodes
)

// String renders the opcode with its scheme symbol name for the
// special-form tags; every other opcode prints as #<primop>.
func (op Opcode) String() string {
	switch op {
	case OpOr:
		return "or"
	case OpAnd:
		return "and"
	case OpIf:
		return "if"
	case OpCond:
		return "cond"
	case OpElse:
		return "else"
	case OpArrow:
		return "=>"
	case OpWhen:
		return "when"
	case OpUnless:
		return "unless"
	case OpDefine:
		return "define"
	case OpSetB:
		return "set!"
	case OpBegin:
		return "begin"
	case OpLambda:
		return "lambda"
	case OpMacro:
		return "define-macro"
	case OpApply:
		return "apply"
	case OpQuote:
		return "quote"
	case OpQuasiquote:
		return "quasiquote"
	case OpUnquote:
		return "unquote"
	case OpUnquoteSplice:
		return "unquote-splicing"
	default:
		return "#<primop>"
	}
}

// stdBindings lists the scheme names bound to opcodes in a fresh top
// environment. The special forms keep their syntax names so that the
// external evaluator can resolve them through the same table.
var stdBindings = map[string]Opcode{
	"or":               OpOr,
	"and":              OpAnd,
	"if":               OpIf,
	"cond":             OpCond,
	"else":             OpElse,
	"=>":               OpArrow,
	"when":             OpWhen,
	"unless":           OpUnless,
	"define":           OpDefine,
	"set!":             OpSetB,
	"begin":            OpBegin,
	"lambda":           OpLambda,
	"define-macro":     OpMacro,
	"apply":            OpApply,
	"quote":            OpQuote,
	"quasiquote":       OpQuasiquote,
	"unquote":          OpUnquote,
	"unquote-splicing": OpUnquoteSplice,

	"eq?":    OpEq,
	"eqv?":   OpEqv,
	"equal?": OpEqual,

	"number?":          OpIsNum,
	"complex?":         OpIsComplex,
	"real?":            OpIsReal,
	"integer?":         OpIsInt,
	"odd?":             OpIsOdd,
	"even?":            OpIsEven,
	"=":                OpNumEq,
	"<":                OpNumLt,
	">":                OpNumGt,
	"<=":               OpNumLe,
	">=":               OpNumGe,
	"min":              OpMin,
	"max":              OpMax,
	"positive?":        OpIsPos,
	"negative?":        OpIsNeg,
	"zero?":            OpIsZero,
	"+":                OpAdd,
	"-":                OpSub,
	"*":                OpMul,
	"/":                OpDiv,
	"modulo":           OpMod,
	"remainder":        OpRem,
	"floor":            OpFloor,
	"ceiling":          OpCeil,
	"truncate":         OpTrunc,
	"round":            OpRound,
	"quotient":         OpQuotient,
	"sin":              OpSin,
	"cos":              OpCos,
	"tan":              OpTan,
	"asin":             OpAsin,
	"acos":             OpAcos,
	"atan":             OpAtan,
	"sinh":             OpSinh,
	"cosh":             OpCosh,
	"tanh":             OpTanh,
	"asinh":            OpAsinh,
	"acosh":            OpAcosh,
	"atanh":            OpAtanh,
	"sqrt":             OpSqrt,
	"cbrt":             OpCbrt,
	"exp":              OpExp,
	"expt":             OpPow,
	"square":           OpSquare,
	"log":              OpLog,
	"log10":            OpLog10,
	"abs":              OpAbs,
	"real-part":        OpRealPart,
	"imag-part":        OpImagPart,
	"angle":            OpArg,
	"conjugate":        OpConj,
	"make-rectangular": OpRect,
	"make-polar":       OpPolar,
	"hypot":            OpHypot,
	"string->number":   OpStrNum,
	"number->string":   OpNumStr,

	"not":      OpNot,
	"boolean?": OpIsBool,

	"cons":      OpCons,
	"car":       OpCar,
	"cdr":       OpCdr,
	"caar":      OpCaar,
	"cddr":      OpCddr,
	"cadr":      OpCadr,
	"cdar":      OpCdar,
	"caddr":     OpCaddr,
	"set-cdr!":  OpSetCdr,
	"set-car!":  OpSetCar,
	"list":      OpList,
	"null?":     OpIsNil,
	"pair?":     OpIsPair,
	"list?":     OpIsList,
	"length":    OpLength,
	"append":    OpAppend,
	"reverse":   OpReverse,
	"list-tail": OpTail,
	"list-ref":  OpListRef,

	"symbol?":        OpIsSym,
	"symbol->string": OpSymStr,
	"string->symbol": OpStrSym,
	"gensym":         OpGensym,

	"char?":            OpIsChar,
	"char=?":           OpIsCharEq,
	"char<?":           OpIsCharLt,
	"char>?":           OpIsCharGt,
	"char<=?":          OpIsCharLe,
	"char>=?":          OpIsCharGe,
	"char-alphabetic?": OpIsAlpha,
	"char-numeric?":    OpIsDigit,
	"char-whitespace?": OpIsSpace,
	"char-upper-case?": OpIsUpper,
	"char-lower-case?": OpIsLower,
	"char->integer":    OpCharInt,
	"integer->char":    OpIntChar,
	"char-upcase":      OpUpcase,
	"char-downcase":    OpDowncase,

	"make-string":   OpMkStr,
	"string":        OpStr,
	"string-length": OpStrLen,
	"string-ref":    OpStrRef,
	"string-set!":   OpStrSetB,
	"string?":       OpIsStr,
	"string=?":      OpIsStrEq,
	"string-append": OpStrAppend,
	"substring":     OpSubstr,
	"string-copy":   OpStrCopy,
	"string-fill!":  OpStrFillB,
	"string->list":  OpStrList,
	"list->string":  OpListStr,

	"vector?":       OpIsVec,
	"make-vector":   OpMkVec,
	"vector":        OpVec,
	"vector-length": OpVecLen,
	"vector-ref":    OpVecRef,
	"vector-set!":   OpVecSetB,
	"vector->list":  OpVecList,
	"list->vector":  OpListVec,
	"vector-fill!":  OpVecFillB,

	"port?":              OpIsPort,
	"input-port?":        OpIsInPort,
	"output-port?":       OpIsOutPort,
	"textual-port?":      OpIsTxtPort,
	"binary-port?":       OpIsBinPort,
	"open-input-file":    OpOpenInFile,
	"open-output-file":   OpOpenOutFile,
	"open-input-string":  OpOpenInStr,
	"open-output-string": OpOpenOutStr,
	"get-output-string":  OpGetOutStr,
	"close-port":         OpClosePort,
	"read":               OpRead,
	"read-char":          OpReadChar,
	"peek-char":          OpPeekChar,
	"read-line":          OpReadLine,
	"eof-object":         OpEof,
	"eof-object?":        OpIsEof,
	"flush-output-port":  OpFlush,
	"write":              OpWrite,
	"display":            OpDisplay,
	"newline":            OpNewline,
	"write-char":         OpWriteChar,
	"write-string":       OpWriteStr,

	"regex":        OpRegex,
	"regex-match":  OpRegexMatch,
	"regex-search": OpRegexSearch,

	"clock":        OpClock,
	"clock-tic":    OpClockTic,
	"clock-toc":    OpClockToc,
	"clock-pause":  OpClockPause,
	"clock-resume": OpClockResume,

	"make-dict":   OpMakeDict,
	"dict-empty?": OpDictIsEmpty,
	"dict-size":   OpDictSize,
	"dict-clear!": OpDictClear,
	"dict-erase!": OpDictErase,
	"dict-insert": OpDictInsert,
	"dict-find":   OpDictFind,
	"dict-count":  OpDictCount,
	"dict->list":  OpDictList,
	"list->dict":  OpListDict,

	"use-count": OpUseCount,
	"hash":      OpHash,
}
