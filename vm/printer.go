package vm

import (
	"fmt"
	"strings"
	"unicode"
)

// ---------------------------------------------------------------------------
// Printer: write and display forms
// ---------------------------------------------------------------------------
//
// WriteCell produces reader-reversible text; DisplayCell differs only for
// characters (raw code point) and strings (quotes dropped, C-style escape
// sequences interpreted). The list printer runs the tortoise and hare so
// that circular lists terminate with " ...)".

// WriteCell renders a cell in reader-reversible form.
func WriteCell(c Cell) string {
	var sb strings.Builder
	writeTo(&sb, c, false)
	return sb.String()
}

// DisplayCell renders a cell in display form.
func DisplayCell(c Cell) string {
	var sb strings.Builder
	writeTo(&sb, c, true)
	return sb.String()
}

func writeTo(sb *strings.Builder, c Cell, display bool) {
	switch c.Type() {
	case TagNone:
		sb.WriteString("#<none>")
	case TagNil:
		sb.WriteString("()")
	case TagBool:
		if c.Bool() {
			sb.WriteString("#t")
		} else {
			sb.WriteString("#f")
		}
	case TagChar:
		writeChar(sb, c.Char(), display)
	case TagNumber:
		sb.WriteString(c.Number().String())
	case TagString:
		writeString(sb, *c.Str(), display)
	case TagRegex:
		sb.WriteString("#<regex>")
	case TagSymbol:
		writeSymbol(sb, c.Symbol())
	case TagPair:
		writePair(sb, c.Pair(), display)
	case TagVector:
		writeVector(sb, *c.Vector(), display)
	case TagDict:
		sb.WriteString("#<dict>")
	case TagEnv:
		fmt.Fprintf(sb, "#<symenv %p>", c.Env())
	case TagFunction:
		if c.Function().Macro {
			sb.WriteString("#<macro>")
		} else {
			sb.WriteString("#<clojure>")
		}
	case TagPort:
		sb.WriteString("#<port>")
	case TagClock:
		sb.WriteString("#<clock " + c.Clock().String() + ">")
	case TagOpcode:
		sb.WriteString(c.Opcode().String())
	default:
		sb.WriteString("#<unknown>")
	}
}

func writeChar(sb *strings.Builder, r rune, display bool) {
	if display {
		if r != EOFRune {
			sb.WriteRune(r)
		}
		return
	}
	// space prints by name; a raw "#\ " would end in a blank
	if r == EOFRune || r == ' ' || !unicode.IsPrint(r) {
		if name, ok := CharName(r); ok {
			sb.WriteString("#\\" + name)
			return
		}
		fmt.Fprintf(sb, "#\\x%x", r)
		return
	}
	sb.WriteString("#\\")
	sb.WriteRune(r)
}

func writeString(sb *strings.Builder, s String, display bool) {
	if !display {
		// Escape sequences are stored verbatim, so the write form is the
		// raw content between quotes.
		sb.WriteByte('"')
		for _, r := range s {
			sb.WriteRune(r)
		}
		sb.WriteByte('"')
		return
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'a':
				sb.WriteByte('\a')
			case 'b':
				sb.WriteByte('\b')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteRune(s[i])
			}
			continue
		}
		sb.WriteRune(s[i])
	}
}

func writeSymbol(sb *strings.Builder, sym *Symbol) {
	name := sym.Name()
	if strings.ContainsRune(name, ' ') {
		sb.WriteByte('|')
		sb.WriteString(name)
		sb.WriteByte('|')
		return
	}
	sb.WriteString(name)
}

// writePair prints a list with the Floyd cycle test: the fast pointer
// advances two pairs per turn, the slow pointer one; when the fast pointer
// catches the slow one the list is circular and printing stops with " ...)".
func writePair(sb *strings.Builder, p *Pair, display bool) {
	sb.WriteByte('(')
	writeTo(sb, p.Car, display)

	slow := FromPair(p)
	iter := p.Cdr
	for iter.IsPair() {
		if Eq(iter, slow) {
			sb.WriteString(" ...)")
			return
		}
		sb.WriteByte(' ')
		writeTo(sb, iter.Pair().Car, display)
		iter = iter.Pair().Cdr
		if !iter.IsPair() {
			break
		}
		sb.WriteByte(' ')
		writeTo(sb, iter.Pair().Car, display)
		iter = iter.Pair().Cdr
		slow = slow.Pair().Cdr
		if Eq(iter, slow) {
			sb.WriteString(" ...)")
			return
		}
	}
	if iter.IsNil() {
		sb.WriteByte(')')
		return
	}
	sb.WriteString(" . ")
	writeTo(sb, iter, display)
	sb.WriteByte(')')
}

func writeVector(sb *strings.Builder, v Vector, display bool) {
	sb.WriteString("#(")
	for i, c := range v {
		if i > 0 {
			sb.WriteByte(' ')
		}
		writeTo(sb, c, display)
	}
	sb.WriteByte(')')
}
